package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hauldesk/hauldesk/internal/api/response"
)

// Pinger is anything with a liveness check; the database pool and Redis
// client both satisfy it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler returns an http.HandlerFunc for GET /api/v1/health. Either
// dependency may be nil (it then reports "disabled"); a failing check turns
// the whole response 503.
func NewHealthHandler(db, redis Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		check := func(name string, p Pinger) {
			if p == nil {
				checks[name] = "disabled"
				return
			}
			if err := p.Ping(ctx); err != nil {
				checks[name] = "unreachable"
				healthy = false
				return
			}
			checks[name] = "ok"
		}
		check("database", db)
		check("redis", redis)

		if !healthy {
			response.Error(w, http.StatusServiceUnavailable, "UNHEALTHY", "One or more dependencies are unreachable", checks)
			return
		}
		response.JSON(w, map[string]any{"status": "ok", "checks": checks})
	}
}
