package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/pkg/models"
)

// JobFieldUpdate carries the job-level fields of an update request. A nil
// pointer means the field was absent; only present fields are authorized,
// validated, applied, and diffed.
type JobFieldUpdate struct {
	OrderNumber      *string
	Price            *int64
	Notes            *string
	AssignedDriverID *uuid.UUID
	Status           *string
}

// StopAdd describes a new stop in an update request.
type StopAdd struct {
	Type         string
	Seq          int
	Name         *string
	AddressLine1 string
	AddressLine2 *string
	City         *string
	Postcode     *string
	WindowFrom   *string
	WindowTo     *string
	Notes        *string
}

// StopFieldUpdate carries the present fields of a stop edit.
type StopFieldUpdate struct {
	ID           uuid.UUID
	Name         *string
	AddressLine1 *string
	AddressLine2 *string
	City         *string
	Postcode     *string
	WindowFrom   *string
	WindowTo     *string
	Notes        *string
}

// UpdateRequest is a role-gated mutation of a job and its stops, applied
// atomically: if any part fails, nothing persists.
type UpdateRequest struct {
	Job           JobFieldUpdate
	StopsToAdd    []StopAdd
	StopsToUpdate []StopFieldUpdate
	StopsToDelete []uuid.UUID
}

// UpdateResult is the post-update state plus the audit diff that was written.
type UpdateResult struct {
	Job   *models.Job
	Stops []*models.JobStop
	Audit *models.AuditLog
}

// presentJobFields lists the job fields carried by the request, in matrix
// order, so authorization errors name the first offending field
// deterministically.
func (u JobFieldUpdate) presentFields() []string {
	var fields []string
	if u.OrderNumber != nil {
		fields = append(fields, "order_number")
	}
	if u.Price != nil {
		fields = append(fields, "price")
	}
	if u.AssignedDriverID != nil {
		fields = append(fields, "assigned_driver_id")
	}
	if u.Status != nil {
		fields = append(fields, "status")
	}
	if u.Notes != nil {
		fields = append(fields, "notes")
	}
	return fields
}

func (u StopFieldUpdate) presentFields() []string {
	var fields []string
	if u.Name != nil {
		fields = append(fields, "name")
	}
	if u.AddressLine1 != nil {
		fields = append(fields, "address_line1")
	}
	if u.AddressLine2 != nil {
		fields = append(fields, "address_line2")
	}
	if u.City != nil {
		fields = append(fields, "city")
	}
	if u.Postcode != nil {
		fields = append(fields, "postcode")
	}
	if u.WindowFrom != nil {
		fields = append(fields, "window_from")
	}
	if u.WindowTo != nil {
		fields = append(fields, "window_to")
	}
	if u.Notes != nil {
		fields = append(fields, "notes")
	}
	return fields
}

// UpdateJob applies a role-gated mutation to a job and its stops. Every field
// present in the request is checked against the authorization matrix first;
// one denied field rejects the whole request. On success the job row, stop
// inserts/updates/deletes, any status-change progress logs, and the audit diff
// commit as one transaction.
func (s *Service) UpdateJob(ctx context.Context, actor Actor, jobID uuid.UUID, req UpdateRequest) (*UpdateResult, error) {
	job, err := s.store.GetJob(ctx, jobID, actor.OrgID)
	if err != nil {
		return nil, fromStoreErr(err)
	}
	if err := requireOwnJob(actor, job); err != nil {
		return nil, err
	}
	stops, err := s.store.ListJobStops(ctx, job.ID, job.OrgID)
	if err != nil {
		return nil, fromStoreErr(err)
	}

	// Authorization pass: fail closed before touching anything.
	for _, f := range req.Job.presentFields() {
		if err := checkJobField(actor.Role, f); err != nil {
			return nil, err
		}
	}
	if len(req.StopsToAdd) > 0 && !roleAllows(actor.Role, catStopAdd) {
		return nil, &AuthorizationError{Role: actor.Role, Field: "stops_to_add"}
	}
	if len(req.StopsToDelete) > 0 && !roleAllows(actor.Role, catStopDelete) {
		return nil, &AuthorizationError{Role: actor.Role, Field: "stops_to_delete"}
	}
	for _, su := range req.StopsToUpdate {
		for _, f := range su.presentFields() {
			if err := checkStopField(actor.Role, f); err != nil {
				return nil, err
			}
		}
	}

	stopByID := make(map[uuid.UUID]*models.JobStop, len(stops))
	for _, st := range stops {
		stopByID[st.ID] = st
	}

	// Validation pass.
	if req.Job.Price != nil && *req.Job.Price < 0 {
		return nil, &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if req.Job.OrderNumber != nil && *req.Job.OrderNumber == "" {
		return nil, &ValidationError{Field: "order_number", Reason: "must not be empty"}
	}
	if req.Job.AssignedDriverID != nil {
		driver, err := s.store.GetProfile(ctx, *req.Job.AssignedDriverID, actor.OrgID)
		if err != nil {
			return nil, fromStoreErr(err)
		}
		if driver.Role != models.RoleDriver {
			return nil, &ValidationError{Field: "assigned_driver_id", Reason: "profile is not a driver"}
		}
	}
	if req.Job.Status != nil {
		if job.Status == models.StatusCancelled {
			return nil, &ValidationError{Field: "status", Reason: "job is cancelled"}
		}
		if *req.Job.Status == models.StatusCancelled {
			return nil, &ValidationError{Field: "status", Reason: "cancellation requires the cancel operation"}
		}
		if !IsValidForwardTransition(job.Status, *req.Job.Status) {
			return nil, &ValidationError{Field: "status",
				Reason: "cannot move from " + job.Status + " to " + *req.Job.Status}
		}
	}
	for _, sa := range req.StopsToAdd {
		if sa.Type != models.StopTypeCollection && sa.Type != models.StopTypeDelivery {
			return nil, &ValidationError{Field: "type", Reason: "stop type must be collection or delivery"}
		}
		if sa.Seq < 1 {
			return nil, &ValidationError{Field: "seq", Reason: "must be 1 or greater"}
		}
		if sa.AddressLine1 == "" {
			return nil, &ValidationError{Field: "address_line1", Reason: "must not be empty"}
		}
		if !validWindow(sa.WindowFrom) || !validWindow(sa.WindowTo) {
			return nil, &ValidationError{Field: "window", Reason: "time windows must be HH:MM"}
		}
	}
	for _, su := range req.StopsToUpdate {
		if _, ok := stopByID[su.ID]; !ok {
			return nil, ErrNotFound
		}
		if !validWindow(su.WindowFrom) || !validWindow(su.WindowTo) {
			return nil, &ValidationError{Field: "window", Reason: "time windows must be HH:MM"}
		}
		if su.AddressLine1 != nil && *su.AddressLine1 == "" {
			return nil, &ValidationError{Field: "address_line1", Reason: "must not be empty"}
		}
	}
	for _, id := range req.StopsToDelete {
		if _, ok := stopByID[id]; !ok {
			return nil, ErrNotFound
		}
	}

	// Diff and apply to copies.
	before := map[string]any{}
	after := map[string]any{}
	updated := *job

	if req.Job.OrderNumber != nil {
		before["order_number"] = job.OrderNumber
		after["order_number"] = *req.Job.OrderNumber
		updated.OrderNumber = *req.Job.OrderNumber
	}
	if req.Job.Price != nil {
		before["price"] = job.Price
		after["price"] = *req.Job.Price
		updated.Price = req.Job.Price
	}
	if req.Job.Notes != nil {
		before["notes"] = job.Notes
		after["notes"] = *req.Job.Notes
		updated.Notes = req.Job.Notes
	}
	if req.Job.AssignedDriverID != nil {
		before["assigned_driver_id"] = job.AssignedDriverID
		after["assigned_driver_id"] = *req.Job.AssignedDriverID
		updated.AssignedDriverID = req.Job.AssignedDriverID
	}

	now := time.Now().UTC()
	var logs []*models.JobProgressLog
	if req.Job.Status != nil {
		before["status"] = job.Status
		after["status"] = *req.Job.Status
		updated.Status = *req.Job.Status
		for _, skipped := range SkippedStatuses(job.Status, *req.Job.Status) {
			logs = append(logs, &models.JobProgressLog{
				ID: uuid.New(), JobID: job.ID, OrgID: job.OrgID,
				ActorID: actor.ID, ActorRole: actor.Role,
				ActionType: skipped, Timestamp: now,
				Backfilled: true, VisibleInTimeline: true, CreatedAt: now,
			})
		}
		logs = append(logs, &models.JobProgressLog{
			ID: uuid.New(), JobID: job.ID, OrgID: job.OrgID,
			ActorID: actor.ID, ActorRole: actor.Role,
			ActionType: *req.Job.Status, Timestamp: now,
			VisibleInTimeline: true, CreatedAt: now,
		})
	}

	var adds []*models.JobStop
	for _, sa := range req.StopsToAdd {
		adds = append(adds, &models.JobStop{
			ID: uuid.New(), JobID: job.ID, OrgID: job.OrgID,
			Type: sa.Type, Seq: sa.Seq, Name: sa.Name,
			AddressLine1: sa.AddressLine1, AddressLine2: sa.AddressLine2,
			City: sa.City, Postcode: sa.Postcode,
			WindowFrom: sa.WindowFrom, WindowTo: sa.WindowTo, Notes: sa.Notes,
			CreatedAt: now, UpdatedAt: now,
		})
	}
	if len(adds) > 0 {
		after["stops_added"] = len(adds)
	}

	var stopUpdates []*models.JobStop
	for _, su := range req.StopsToUpdate {
		cur := stopByID[su.ID]
		next := *cur
		sb := map[string]any{}
		sa := map[string]any{}
		applyStopField(sb, sa, "name", &next.Name, su.Name, cur.Name)
		if su.AddressLine1 != nil {
			sb["address_line1"] = cur.AddressLine1
			sa["address_line1"] = *su.AddressLine1
			next.AddressLine1 = *su.AddressLine1
		}
		applyStopField(sb, sa, "address_line2", &next.AddressLine2, su.AddressLine2, cur.AddressLine2)
		applyStopField(sb, sa, "city", &next.City, su.City, cur.City)
		applyStopField(sb, sa, "postcode", &next.Postcode, su.Postcode, cur.Postcode)
		applyStopField(sb, sa, "window_from", &next.WindowFrom, su.WindowFrom, cur.WindowFrom)
		applyStopField(sb, sa, "window_to", &next.WindowTo, su.WindowTo, cur.WindowTo)
		applyStopField(sb, sa, "notes", &next.Notes, su.Notes, cur.Notes)
		if len(sa) > 0 {
			before["stop:"+su.ID.String()] = sb
			after["stop:"+su.ID.String()] = sa
		}
		stopUpdates = append(stopUpdates, &next)
	}
	if len(req.StopsToDelete) > 0 {
		deleted := make([]string, 0, len(req.StopsToDelete))
		for _, id := range req.StopsToDelete {
			deleted = append(deleted, id.String())
		}
		before["stops_deleted"] = deleted
	}

	audit := &models.AuditLog{
		ID:         uuid.New(),
		OrgID:      job.OrgID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     models.AuditJobUpdated,
		EntityType: "job",
		EntityID:   job.ID,
		Before:     before,
		After:      after,
		CreatedAt:  now,
	}

	err = s.store.UpdateJobWithStops(ctx, &updated, job.StatusVersion, adds, stopUpdates, req.StopsToDelete, logs, audit)
	if err != nil {
		return nil, fromStoreErr(err)
	}
	updated.StatusVersion = job.StatusVersion + 1

	finalStops, err := s.store.ListJobStops(ctx, job.ID, job.OrgID)
	if err != nil {
		return nil, fromStoreErr(err)
	}
	return &UpdateResult{Job: &updated, Stops: finalStops, Audit: audit}, nil
}

// applyStopField records a pointer-field change into the stop diff maps and
// applies it. No-op when the request omitted the field.
func applyStopField(before, after map[string]any, name string, dst **string, val *string, cur *string) {
	if val == nil {
		return
	}
	before[name] = cur
	after[name] = *val
	*dst = val
}
