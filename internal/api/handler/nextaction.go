package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/internal/api/response"
	"github.com/hauldesk/hauldesk/internal/cache"
	"github.com/hauldesk/hauldesk/internal/jobs"
	"github.com/hauldesk/hauldesk/pkg/models"
)

const nextActionTTL = 5 * time.Minute

// cachedNextAction is the Redis payload for a job's next action. It carries
// the job's access scope so a cache hit enforces the same visibility rules as
// a fresh load: org match always, assignment match for drivers.
type cachedNextAction struct {
	OrgID            uuid.UUID        `json:"org_id"`
	AssignedDriverID *uuid.UUID       `json:"assigned_driver_id,omitempty"`
	Action           *jobs.NextAction `json:"action"`
}

func (c cachedNextAction) visibleTo(actor jobs.Actor) bool {
	if actor.OrgID != c.OrgID {
		return false
	}
	if actor.Role != models.RoleDriver {
		return true
	}
	return c.AssignedDriverID != nil && *c.AssignedDriverID == actor.ID
}

// NewNextActionHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}/next-action.
// Results are cached per job; every job mutation invalidates the entry, so
// the TTL only bounds staleness after missed invalidations. A nil cache
// degrades to computing on every request.
func NewNextActionHandler(svc JobService, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		jobID, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		if c != nil {
			if payload, hit, err := c.GetNextAction(r.Context(), jobID); err == nil && hit {
				var cached cachedNextAction
				if err := json.Unmarshal(payload, &cached); err == nil {
					if !cached.visibleTo(actor) {
						writeDomainError(w, jobs.ErrNotFound)
						return
					}
					response.JSON(w, nextActionResponse{Action: cached.Action})
					return
				}
			}
		}

		action, job, err := svc.NextAction(r.Context(), actor, jobID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if c != nil {
			payload, err := json.Marshal(cachedNextAction{
				OrgID:            job.OrgID,
				AssignedDriverID: job.AssignedDriverID,
				Action:           action,
			})
			if err == nil {
				if err := c.SetNextAction(r.Context(), jobID, payload, nextActionTTL); err != nil {
					slog.Warn("next-action cache write failed", "job_id", jobID, "error", err)
				}
			}
		}

		response.JSON(w, nextActionResponse{Action: action})
	}
}

// invalidateJob drops a job's cached next action after a mutation. Cache
// errors are logged and swallowed; the TTL covers the stale window.
func invalidateJob(r *http.Request, c cache.Cache, jobID uuid.UUID) {
	if c == nil {
		return
	}
	if err := c.InvalidateJob(r.Context(), jobID); err != nil {
		slog.Warn("next-action cache invalidation failed", "job_id", jobID, "error", err)
	}
}

// nextActionResponse wraps the action so a completed job serialises as
// {"action": null} rather than an empty body.
type nextActionResponse struct {
	Action *jobs.NextAction `json:"action"`
}
