package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/pkg/models"
)

// CancelJob aborts a job. Office and admin only, and only while the job has
// not already reached delivered, pod_received, or cancelled. Writes one
// cancelled progress log entry plus a before/after audit snapshot in the same
// transaction as the status change. There is no way back out of cancelled.
func (s *Service) CancelJob(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Job, error) {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleOffice {
		return nil, &AuthorizationError{Role: actor.Role, Field: "cancel"}
	}

	job, err := s.store.GetJob(ctx, jobID, actor.OrgID)
	if err != nil {
		return nil, fromStoreErr(err)
	}
	if job.Terminal() {
		return nil, &ValidationError{Field: "status",
			Reason: "job is already " + job.Status}
	}

	now := time.Now().UTC()
	entry := &models.JobProgressLog{
		ID:                uuid.New(),
		JobID:             job.ID,
		OrgID:             job.OrgID,
		ActorID:           actor.ID,
		ActorRole:         actor.Role,
		ActionType:        models.StatusCancelled,
		Timestamp:         now,
		VisibleInTimeline: true,
		CreatedAt:         now,
	}
	audit := &models.AuditLog{
		ID:         uuid.New(),
		OrgID:      job.OrgID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     models.AuditJobCancelled,
		EntityType: "job",
		EntityID:   job.ID,
		Before:     map[string]any{"status": job.Status},
		After:      map[string]any{"status": models.StatusCancelled, "cancelled_at": now},
		CreatedAt:  now,
	}

	err = s.store.RecordProgress(ctx, job.ID, job.OrgID, job.Status, job.StatusVersion,
		models.StatusCancelled, []*models.JobProgressLog{entry}, audit)
	if err != nil {
		return nil, fromStoreErr(err)
	}

	cancelled, err := s.store.GetJob(ctx, job.ID, job.OrgID)
	if err != nil {
		return nil, fromStoreErr(err)
	}
	return cancelled, nil
}
