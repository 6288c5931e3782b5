package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/internal/api/response"
	"github.com/hauldesk/hauldesk/internal/cache"
	"github.com/hauldesk/hauldesk/internal/jobs"
)

type progressEntryPayload struct {
	NewStatus string     `json:"new_status"`
	Timestamp string     `json:"timestamp"`
	Notes     *string    `json:"notes"`
	StopID    *uuid.UUID `json:"stop_id"`
}

func (p progressEntryPayload) toEntry() (jobs.ProgressEntry, string) {
	if p.Timestamp == "" {
		return jobs.ProgressEntry{}, "timestamp is required"
	}
	ts, err := time.Parse(time.RFC3339, p.Timestamp)
	if err != nil {
		return jobs.ProgressEntry{}, "timestamp must be a valid RFC3339 timestamp"
	}
	return jobs.ProgressEntry{
		NewStatus: p.NewStatus,
		Timestamp: ts,
		Notes:     p.Notes,
		StopID:    p.StopID,
	}, ""
}

// NewProgressHandler returns an http.HandlerFunc for POST /api/v1/jobs/{jobID}/progress.
// The body is either a single entry or {"entries": [...]}; both run through
// the same batch path, so a single skipped-status update still backfills.
func NewProgressHandler(svc JobService, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		jobID, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		var req struct {
			progressEntryPayload
			Entries []progressEntryPayload `json:"entries"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		payloads := req.Entries
		if len(payloads) == 0 {
			payloads = []progressEntryPayload{req.progressEntryPayload}
		}

		entries := make([]jobs.ProgressEntry, 0, len(payloads))
		for _, p := range payloads {
			entry, problem := p.toEntry()
			if problem != "" {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", problem, nil)
				return
			}
			entries = append(entries, entry)
		}

		logs, err := svc.ApplyProgressUpdate(r.Context(), actor, jobID, entries)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		invalidateJob(r, c, jobID)
		response.Created(w, logs)
	}
}

// NewAddNoteHandler returns an http.HandlerFunc for POST /api/v1/jobs/{jobID}/notes.
func NewAddNoteHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		jobID, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		var req struct {
			Note   string     `json:"note"`
			StopID *uuid.UUID `json:"stop_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		entry, err := svc.AddNote(r.Context(), actor, jobID, req.StopID, req.Note)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response.Created(w, entry)
	}
}

// NewTimelineHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}/timeline.
// ?visible_only=true filters out entries hidden by office staff.
func NewTimelineHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		jobID, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		visibleOnly := r.URL.Query().Get("visible_only") == "true"
		logs, err := svc.Timeline(r.Context(), actor, jobID, visibleOnly)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response.JSON(w, logs)
	}
}

// NewLogVisibilityHandler returns an http.HandlerFunc for
// PATCH /api/v1/progress-logs/{logID}/visibility. Toggling visibility is the
// only mutation a progress log row ever sees.
func NewLogVisibilityHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		logID, ok := pathID(w, r, "logID")
		if !ok {
			return
		}

		var req struct {
			Visible *bool `json:"visible"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Visible == nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "visible is required", nil)
			return
		}

		if err := svc.SetTimelineVisibility(r.Context(), actor, logID, *req.Visible); err != nil {
			writeDomainError(w, err)
			return
		}
		response.JSON(w, map[string]any{"id": logID, "visible_in_timeline": *req.Visible})
	}
}
