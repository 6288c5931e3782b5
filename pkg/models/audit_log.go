package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AuditJobUpdated   = "job_updated"
	AuditJobCancelled = "job_cancelled"
	AuditJobAssigned  = "job_assigned"
	AuditUserManaged  = "user_managed"
)

// AuditLog is an append-only before/after snapshot of an administrative
// mutation. It exists for compliance and is never consulted when computing
// job state; that is the progress log's role.
type AuditLog struct {
	ID         uuid.UUID      `db:"id"          json:"id"`
	OrgID      uuid.UUID      `db:"org_id"      json:"org_id"`
	ActorID    uuid.UUID      `db:"actor_id"    json:"actor_id"`
	ActorRole  string         `db:"actor_role"  json:"actor_role"`
	Action     string         `db:"action"      json:"action"`
	EntityType string         `db:"entity_type" json:"entity_type"`
	EntityID   uuid.UUID      `db:"entity_id"   json:"entity_id"`
	Before     map[string]any `db:"before"      json:"before"`
	After      map[string]any `db:"after"       json:"after"`
	CreatedAt  time.Time      `db:"created_at"  json:"created_at"`
}
