package handler

import (
	"errors"
	"net/http"

	"github.com/hauldesk/hauldesk/internal/api/response"
	"github.com/hauldesk/hauldesk/internal/jobs"
)

// writeDomainError maps the job lifecycle error taxonomy onto the JSON error
// envelope. NotFound deliberately reveals nothing about out-of-org resources.
func writeDomainError(w http.ResponseWriter, err error) {
	var authzErr *jobs.AuthorizationError
	var validErr *jobs.ValidationError

	switch {
	case errors.As(err, &authzErr):
		response.Error(w, http.StatusForbidden, "FORBIDDEN",
			authzErr.Error(), map[string]string{"field": authzErr.Field})
	case errors.Is(err, jobs.ErrAuthorization):
		response.Error(w, http.StatusForbidden, "FORBIDDEN",
			"Insufficient permissions", nil)
	case errors.As(err, &validErr):
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
			validErr.Error(), map[string]string{"field": validErr.Field})
	case errors.Is(err, jobs.ErrValidation):
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
			err.Error(), nil)
	case errors.Is(err, jobs.ErrNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND",
			"Resource not found", nil)
	case errors.Is(err, jobs.ErrConflict):
		response.Error(w, http.StatusConflict, "CONFLICT",
			"The job was modified concurrently, retry the request", nil)
	case errors.Is(err, jobs.ErrCollaborator):
		response.Error(w, http.StatusBadGateway, "COLLABORATOR_ERROR",
			"An upstream service failed, nothing was recorded", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
