package jobs

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/pkg/models"
)

// ProgressEntry is one requested status transition. Timestamp is supplied by
// the caller and may be backdated to the real-world event time.
type ProgressEntry struct {
	NewStatus string
	Timestamp time.Time
	Notes     *string
	StopID    *uuid.UUID
}

// ApplyProgressUpdate records one or more status transitions for a job as a
// single atomic batch. Entries are applied in ascending timestamp order; each
// must move the job strictly forward in the status sequence, and any statuses
// jumped over are backfilled with their own log entries. The job's final
// status is that of the chronologically latest entry. Any invalid entry
// aborts the whole batch with nothing written.
func (s *Service) ApplyProgressUpdate(ctx context.Context, actor Actor, jobID uuid.UUID, entries []ProgressEntry) ([]*models.JobProgressLog, error) {
	if len(entries) == 0 {
		return nil, &ValidationError{Field: "entries", Reason: "at least one entry is required"}
	}

	job, err := s.store.GetJob(ctx, jobID, actor.OrgID)
	if err != nil {
		return nil, fromStoreErr(err)
	}
	if err := requireOwnJob(actor, job); err != nil {
		return nil, err
	}
	if job.Status == models.StatusCancelled {
		return nil, &ValidationError{Field: "new_status", Reason: "job is cancelled"}
	}

	sorted := make([]ProgressEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	now := time.Now().UTC()
	current := job.Status
	var logs []*models.JobProgressLog

	for _, e := range sorted {
		if e.Timestamp.IsZero() {
			return nil, &ValidationError{Field: "timestamp", Reason: "timestamp is required"}
		}
		if !IsManualTarget(e.NewStatus) {
			return nil, &ValidationError{Field: "new_status",
				Reason: "status " + e.NewStatus + " cannot be set through a progress update"}
		}
		if e.NewStatus == current {
			return nil, &ValidationError{Field: "new_status",
				Reason: "status " + e.NewStatus + " is already recorded"}
		}
		if !IsValidForwardTransition(current, e.NewStatus) {
			return nil, &ValidationError{Field: "new_status",
				Reason: "cannot move from " + current + " to " + e.NewStatus}
		}

		for _, skipped := range SkippedStatuses(current, e.NewStatus) {
			logs = append(logs, &models.JobProgressLog{
				ID:                uuid.New(),
				JobID:             job.ID,
				OrgID:             job.OrgID,
				ActorID:           actor.ID,
				ActorRole:         actor.Role,
				ActionType:        skipped,
				Timestamp:         e.Timestamp,
				Backfilled:        true,
				VisibleInTimeline: true,
				CreatedAt:         now,
			})
		}
		logs = append(logs, &models.JobProgressLog{
			ID:                uuid.New(),
			JobID:             job.ID,
			OrgID:             job.OrgID,
			StopID:            e.StopID,
			ActorID:           actor.ID,
			ActorRole:         actor.Role,
			ActionType:        e.NewStatus,
			Timestamp:         e.Timestamp,
			Notes:             e.Notes,
			VisibleInTimeline: true,
			CreatedAt:         now,
		})
		current = e.NewStatus
	}

	err = s.store.RecordProgress(ctx, job.ID, job.OrgID, job.Status, job.StatusVersion, current, logs, nil)
	if err != nil {
		return nil, fromStoreErr(err)
	}
	return logs, nil
}

// AddNote appends a note-only entry to a job's timeline without touching its
// status.
func (s *Service) AddNote(ctx context.Context, actor Actor, jobID uuid.UUID, stopID *uuid.UUID, note string) (*models.JobProgressLog, error) {
	if note == "" {
		return nil, &ValidationError{Field: "notes", Reason: "note text is required"}
	}
	job, err := s.store.GetJob(ctx, jobID, actor.OrgID)
	if err != nil {
		return nil, fromStoreErr(err)
	}
	if err := requireOwnJob(actor, job); err != nil {
		return nil, err
	}

	entry := &models.JobProgressLog{
		ID:                uuid.New(),
		JobID:             job.ID,
		OrgID:             job.OrgID,
		StopID:            stopID,
		ActorID:           actor.ID,
		ActorRole:         actor.Role,
		ActionType:        models.ActionNoteAdded,
		Timestamp:         time.Now().UTC(),
		Notes:             &note,
		VisibleInTimeline: true,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.store.AppendProgressLog(ctx, entry); err != nil {
		return nil, fromStoreErr(err)
	}
	return entry, nil
}

// Timeline returns the job's progress logs in event order. When visibleOnly is
// set, hidden entries are filtered out; the rows themselves are never removed.
func (s *Service) Timeline(ctx context.Context, actor Actor, jobID uuid.UUID, visibleOnly bool) ([]*models.JobProgressLog, error) {
	job, err := s.store.GetJob(ctx, jobID, actor.OrgID)
	if err != nil {
		return nil, fromStoreErr(err)
	}
	if err := requireOwnJob(actor, job); err != nil {
		return nil, err
	}

	logs, err := s.store.ListProgressLogs(ctx, job.ID, job.OrgID)
	if err != nil {
		return nil, fromStoreErr(err)
	}
	if !visibleOnly {
		return logs, nil
	}
	visible := logs[:0]
	for _, e := range logs {
		if e.VisibleInTimeline {
			visible = append(visible, e)
		}
	}
	return visible, nil
}

// SetTimelineVisibility toggles a log entry's display flag, the only permitted
// mutation of a progress log. Office and admin only.
func (s *Service) SetTimelineVisibility(ctx context.Context, actor Actor, logID uuid.UUID, visible bool) error {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleOffice {
		return &AuthorizationError{Role: actor.Role, Field: "visible_in_timeline"}
	}
	if err := s.store.SetProgressLogVisibility(ctx, logID, actor.OrgID, visible); err != nil {
		return fromStoreErr(err)
	}
	return nil
}
