package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/internal/api/response"
	"github.com/hauldesk/hauldesk/pkg/models"
)

// ProfileLister reads driver profiles for the assignment picker. Profiles are
// owned by the auth collaborator; this is read-only here.
type ProfileLister interface {
	ListProfilesByRole(ctx context.Context, orgID uuid.UUID, role string) ([]*models.Profile, error)
}

// NewListDriversHandler returns an http.HandlerFunc for GET /api/v1/drivers.
// Office and admin only; drivers have no reason to enumerate each other.
func NewListDriversHandler(profiles ProfileLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		if actor.Role != models.RoleAdmin && actor.Role != models.RoleOffice {
			response.Error(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions", nil)
			return
		}

		drivers, err := profiles.ListProfilesByRole(r.Context(), actor.OrgID, models.RoleDriver)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}
		response.JSON(w, drivers)
	}
}
