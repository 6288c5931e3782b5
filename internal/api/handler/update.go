package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/internal/api/response"
	"github.com/hauldesk/hauldesk/internal/cache"
	"github.com/hauldesk/hauldesk/internal/jobs"
)

type stopUpdatePayload struct {
	ID           uuid.UUID `json:"id"`
	Name         *string   `json:"name"`
	AddressLine1 *string   `json:"address_line1"`
	AddressLine2 *string   `json:"address_line2"`
	City         *string   `json:"city"`
	Postcode     *string   `json:"postcode"`
	WindowFrom   *string   `json:"window_from"`
	WindowTo     *string   `json:"window_to"`
	Notes        *string   `json:"notes"`
}

// NewUpdateJobHandler returns an http.HandlerFunc for PATCH /api/v1/jobs/{jobID}.
// Absent JSON fields decode to nil pointers, which the service treats as "not
// part of this request"; only present fields are authorized and applied.
func NewUpdateJobHandler(svc JobService, c cache.Cache) http.HandlerFunc {
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
			OrderNumber      *string             `json:"order_number"`
			Price            *int64              `json:"price"`
			Notes            *string             `json:"notes"`
			AssignedDriverID *uuid.UUID          `json:"assigned_driver_id"`
			Status           *string             `json:"status"`
			StopsToAdd       []stopPayload       `json:"stops_to_add"`
			StopsToUpdate    []stopUpdatePayload `json:"stops_to_update"`
			StopsToDelete    []uuid.UUID         `json:"stops_to_delete"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		update := jobs.UpdateRequest{
			Job: jobs.JobFieldUpdate{
				OrderNumber:      req.OrderNumber,
				Price:            req.Price,
				Notes:            req.Notes,
				AssignedDriverID: req.AssignedDriverID,
				Status:           req.Status,
			},
			StopsToDelete: req.StopsToDelete,
		}
		for _, s := range req.StopsToAdd {
			update.StopsToAdd = append(update.StopsToAdd, s.toAdd())
		}
		for _, s := range req.StopsToUpdate {
			if s.ID == uuid.Nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "stops_to_update entries require an id", nil)
				return
			}
			update.StopsToUpdate = append(update.StopsToUpdate, jobs.StopFieldUpdate{
				ID:           s.ID,
				Name:         s.Name,
				AddressLine1: s.AddressLine1,
				AddressLine2: s.AddressLine2,
				City:         s.City,
				Postcode:     s.Postcode,
				WindowFrom:   s.WindowFrom,
				WindowTo:     s.WindowTo,
				Notes:        s.Notes,
			})
		}

		result, err := svc.UpdateJob(r.Context(), actor, jobID, update)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		invalidateJob(r, c, jobID)
		response.JSON(w, jobWithStops{Job: viewJob(result.Job, actor.Role), Stops: result.Stops})
	}
}
