package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/internal/api/response"
	"github.com/hauldesk/hauldesk/internal/store"
	"github.com/hauldesk/hauldesk/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// KeyStore covers the API key management operations plus the profile lookup
// needed to validate key bindings.
type KeyStore interface {
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, orgID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error
	GetProfile(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*models.Profile, error)
}

// newRawKey generates an API key "hd_" + 32 hex chars. The first 8 characters
// form the stored lookup prefix.
func newRawKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "hd_" + hex.EncodeToString(buf), nil
}

// NewCreateKeyHandler returns an http.HandlerFunc for POST /api/v1/admin/keys.
// The raw key appears once in this response and is never retrievable again;
// only the bcrypt hash is stored.
func NewCreateKeyHandler(keys KeyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		var req struct {
			Name      string    `json:"name"`
			ProfileID uuid.UUID `json:"profile_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Name == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required", nil)
			return
		}
		if req.ProfileID == uuid.Nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "profile_id is required", nil)
			return
		}

		// The key inherits its permissions from this profile's role.
		profile, err := keys.GetProfile(r.Context(), req.ProfileID, actor.OrgID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "profile_id does not name a profile in this organisation", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		rawKey, err := newRawKey()
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		key := &models.APIKey{
			ID:        uuid.New(),
			OrgID:     actor.OrgID,
			ProfileID: profile.ID,
			Name:      req.Name,
			KeyHash:   string(hash),
			KeyPrefix: rawKey[:8],
		}
		if err := keys.CreateAPIKey(r.Context(), key); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create API key", nil)
			return
		}

		response.Created(w, createKeyResponse{
			ID:        key.ID,
			Name:      key.Name,
			ProfileID: key.ProfileID,
			Role:      profile.Role,
			Key:       rawKey,
		})
	}
}

// NewListKeysHandler returns an http.HandlerFunc for GET /api/v1/admin/keys.
func NewListKeysHandler(keys KeyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		list, err := keys.ListAPIKeys(r.Context(), actor.OrgID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list API keys", nil)
			return
		}
		response.JSON(w, list)
	}
}

// NewRevokeKeyHandler returns an http.HandlerFunc for DELETE /api/v1/admin/keys/{keyID}.
// Revocation is a soft delete; revoked keys stop authenticating immediately.
func NewRevokeKeyHandler(keys KeyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		keyID, ok := pathID(w, r, "keyID")
		if !ok {
			return
		}

		if err := keys.RevokeAPIKey(r.Context(), keyID, actor.OrgID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to revoke API key", nil)
			return
		}
		response.JSON(w, map[string]string{"status": "revoked"})
	}
}

type createKeyResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ProfileID uuid.UUID `json:"profile_id"`
	Role      string    `json:"role"`
	Key       string    `json:"key"`
}
