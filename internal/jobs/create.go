package jobs

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/internal/store"
	"github.com/hauldesk/hauldesk/pkg/models"
)

// CreateRequest describes a new job. OrderNumber is optional; a unique one is
// generated when absent.
type CreateRequest struct {
	OrderNumber string
	Price       *int64
	Notes       *string
	Stops       []StopAdd
}

// CreateJob creates a job in status planned with its stops and the initial
// planned progress log, all in one transaction. Office and admin only.
func (s *Service) CreateJob(ctx context.Context, actor Actor, req CreateRequest) (*models.Job, []*models.JobStop, error) {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleOffice {
		return nil, nil, &AuthorizationError{Role: actor.Role, Field: "job"}
	}
	if len(req.Stops) == 0 {
		return nil, nil, &ValidationError{Field: "stops", Reason: "at least one stop is required"}
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, nil, &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	for _, sa := range req.Stops {
		if sa.Type != models.StopTypeCollection && sa.Type != models.StopTypeDelivery {
			return nil, nil, &ValidationError{Field: "type", Reason: "stop type must be collection or delivery"}
		}
		if sa.Seq < 1 {
			return nil, nil, &ValidationError{Field: "seq", Reason: "must be 1 or greater"}
		}
		if sa.AddressLine1 == "" {
			return nil, nil, &ValidationError{Field: "address_line1", Reason: "must not be empty"}
		}
		if !validWindow(sa.WindowFrom) || !validWindow(sa.WindowTo) {
			return nil, nil, &ValidationError{Field: "window", Reason: "time windows must be HH:MM"}
		}
	}

	orderNumber := req.OrderNumber
	if orderNumber == "" {
		orderNumber = newOrderNumber()
	}

	now := time.Now().UTC()
	job := &models.Job{
		ID:          uuid.New(),
		OrgID:       actor.OrgID,
		OrderNumber: orderNumber,
		Status:      models.StatusPlanned,
		Price:       req.Price,
		Notes:       req.Notes,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	stops := make([]*models.JobStop, 0, len(req.Stops))
	for _, sa := range req.Stops {
		stops = append(stops, &models.JobStop{
			ID: uuid.New(), JobID: job.ID, OrgID: job.OrgID,
			Type: sa.Type, Seq: sa.Seq, Name: sa.Name,
			AddressLine1: sa.AddressLine1, AddressLine2: sa.AddressLine2,
			City: sa.City, Postcode: sa.Postcode,
			WindowFrom: sa.WindowFrom, WindowTo: sa.WindowTo, Notes: sa.Notes,
			CreatedAt: now, UpdatedAt: now,
		})
	}

	initial := &models.JobProgressLog{
		ID:                uuid.New(),
		JobID:             job.ID,
		OrgID:             job.OrgID,
		ActorID:           actor.ID,
		ActorRole:         actor.Role,
		ActionType:        models.StatusPlanned,
		Timestamp:         now,
		VisibleInTimeline: true,
		CreatedAt:         now,
	}

	if err := s.store.CreateJob(ctx, job, stops, initial); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, nil, &ValidationError{Field: "order_number", Reason: "already in use"}
		}
		return nil, nil, fromStoreErr(err)
	}
	return job, stops, nil
}

// AssignDriver moves a planned job to assigned, binds the driver, records the
// assigned progress log and an audit entry, then notifies the driver
// fire-and-forget. Office and admin only.
func (s *Service) AssignDriver(ctx context.Context, actor Actor, jobID, driverID uuid.UUID) (*models.Job, error) {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleOffice {
		return nil, &AuthorizationError{Role: actor.Role, Field: "assigned_driver_id"}
	}

	job, err := s.store.GetJob(ctx, jobID, actor.OrgID)
	if err != nil {
		return nil, fromStoreErr(err)
	}
	if job.Status != models.StatusPlanned {
		return nil, &ValidationError{Field: "status",
			Reason: "only planned jobs can be assigned, job is " + job.Status}
	}

	driver, err := s.store.GetProfile(ctx, driverID, actor.OrgID)
	if err != nil {
		return nil, fromStoreErr(err)
	}
	if driver.Role != models.RoleDriver {
		return nil, &ValidationError{Field: "driver_id", Reason: "profile is not a driver"}
	}

	now := time.Now().UTC()
	updated := *job
	updated.Status = models.StatusAssigned
	updated.AssignedDriverID = &driver.ID

	entry := &models.JobProgressLog{
		ID:                uuid.New(),
		JobID:             job.ID,
		OrgID:             job.OrgID,
		ActorID:           actor.ID,
		ActorRole:         actor.Role,
		ActionType:        models.StatusAssigned,
		Timestamp:         now,
		VisibleInTimeline: true,
		CreatedAt:         now,
	}
	audit := &models.AuditLog{
		ID:         uuid.New(),
		OrgID:      job.OrgID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     models.AuditJobAssigned,
		EntityType: "job",
		EntityID:   job.ID,
		Before:     map[string]any{"status": job.Status, "assigned_driver_id": job.AssignedDriverID},
		After:      map[string]any{"status": models.StatusAssigned, "assigned_driver_id": driver.ID},
		CreatedAt:  now,
	}

	err = s.store.UpdateJobWithStops(ctx, &updated, job.StatusVersion, nil, nil, nil,
		[]*models.JobProgressLog{entry}, audit)
	if err != nil {
		return nil, fromStoreErr(err)
	}
	updated.StatusVersion = job.StatusVersion + 1

	if s.notifier != nil {
		go func() {
			notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			msg := fmt.Sprintf("You have been assigned job %s", job.OrderNumber)
			if err := s.notifier.Notify(notifyCtx, driver.ID, msg); err != nil {
				slog.Warn("driver notification failed", "job_id", job.ID, "driver_id", driver.ID, "error", err)
			}
		}()
	}
	return &updated, nil
}

// GetJob returns a job with its stops, applying driver visibility rules.
func (s *Service) GetJob(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, []*models.JobStop, error) {
	job, err := s.store.GetJob(ctx, jobID, actor.OrgID)
	if err != nil {
		return nil, nil, fromStoreErr(err)
	}
	if err := requireOwnJob(actor, job); err != nil {
		return nil, nil, err
	}
	stops, err := s.store.ListJobStops(ctx, job.ID, job.OrgID)
	if err != nil {
		return nil, nil, fromStoreErr(err)
	}
	return job, stops, nil
}

// ListJobs lists jobs for the actor's organisation. Drivers only ever see
// their own assignments.
func (s *Service) ListJobs(ctx context.Context, actor Actor, status string, driverID *uuid.UUID, page, limit int) ([]*models.Job, int, error) {
	filter := store.JobFilter{
		OrgID:    actor.OrgID,
		Status:   status,
		DriverID: driverID,
		Page:     page,
		Limit:    limit,
	}
	if actor.Role == models.RoleDriver {
		id := actor.ID
		filter.DriverID = &id
	}
	jobs, total, err := s.store.ListJobs(ctx, filter)
	if err != nil {
		return nil, 0, fromStoreErr(err)
	}
	return jobs, total, nil
}

// newOrderNumber generates a human-facing order number. Uniqueness is
// enforced by the (org_id, order_number) constraint.
func newOrderNumber() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("HD-%d-%s", time.Now().UTC().Year(), hex.EncodeToString(b[:]))
}
