package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/hauldesk/hauldesk/internal/api/middleware"
	"github.com/hauldesk/hauldesk/internal/api/response"
	"github.com/hauldesk/hauldesk/pkg/models"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	CreateJobHandler     http.HandlerFunc
	ListJobsHandler      http.HandlerFunc
	GetJobHandler        http.HandlerFunc
	UpdateJobHandler     http.HandlerFunc
	ProgressHandler      http.HandlerFunc
	AddNoteHandler       http.HandlerFunc
	CancelJobHandler     http.HandlerFunc
	AssignDriverHandler  http.HandlerFunc
	NextActionHandler    http.HandlerFunc
	TimelineHandler      http.HandlerFunc
	LogVisibilityHandler http.HandlerFunc
	UploadDocHandler     http.HandlerFunc
	ListDocsHandler      http.HandlerFunc
	ListDriversHandler   http.HandlerFunc

	CreateKeyHandler http.HandlerFunc
	ListKeysHandler  http.HandlerFunc
	RevokeKeyHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/jobs", orNotImplemented(deps.CreateJobHandler))
		r.Get("/api/v1/jobs", orNotImplemented(deps.ListJobsHandler))
		r.Get("/api/v1/jobs/{jobID}", orNotImplemented(deps.GetJobHandler))
		r.Patch("/api/v1/jobs/{jobID}", orNotImplemented(deps.UpdateJobHandler))

		r.Post("/api/v1/jobs/{jobID}/progress", orNotImplemented(deps.ProgressHandler))
		r.Post("/api/v1/jobs/{jobID}/notes", orNotImplemented(deps.AddNoteHandler))
		r.Post("/api/v1/jobs/{jobID}/cancel", orNotImplemented(deps.CancelJobHandler))
		r.Post("/api/v1/jobs/{jobID}/assign", orNotImplemented(deps.AssignDriverHandler))
		r.Get("/api/v1/jobs/{jobID}/next-action", orNotImplemented(deps.NextActionHandler))
		r.Get("/api/v1/jobs/{jobID}/timeline", orNotImplemented(deps.TimelineHandler))
		r.Post("/api/v1/jobs/{jobID}/documents", orNotImplemented(deps.UploadDocHandler))
		r.Get("/api/v1/jobs/{jobID}/documents", orNotImplemented(deps.ListDocsHandler))

		r.Patch("/api/v1/progress-logs/{logID}/visibility", orNotImplemented(deps.LogVisibilityHandler))

		r.Get("/api/v1/drivers", orNotImplemented(deps.ListDriversHandler))

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireRole(models.RoleAdmin))

			r.Post("/api/v1/admin/keys", orNotImplemented(deps.CreateKeyHandler))
			r.Get("/api/v1/admin/keys", orNotImplemented(deps.ListKeysHandler))
			r.Delete("/api/v1/admin/keys/{keyID}", orNotImplemented(deps.RevokeKeyHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
