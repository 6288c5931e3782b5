package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/internal/api/response"
	"github.com/hauldesk/hauldesk/internal/cache"
)

// NewCancelJobHandler returns an http.HandlerFunc for POST /api/v1/jobs/{jobID}/cancel.
func NewCancelJobHandler(svc JobService, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		jobID, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		job, err := svc.CancelJob(r.Context(), actor, jobID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		invalidateJob(r, c, jobID)
		response.JSON(w, viewJob(job, actor.Role))
	}
}

// NewAssignDriverHandler returns an http.HandlerFunc for POST /api/v1/jobs/{jobID}/assign.
func NewAssignDriverHandler(svc JobService, c cache.Cache) http.HandlerFunc {
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
			DriverID uuid.UUID `json:"driver_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.DriverID == uuid.Nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "driver_id is required", nil)
			return
		}

		job, err := svc.AssignDriver(r.Context(), actor, jobID, req.DriverID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		invalidateJob(r, c, jobID)
		response.JSON(w, viewJob(job, actor.Role))
	}
}
