package models

import (
	"time"

	"github.com/google/uuid"
)

// Auxiliary action types. Status transitions use the status value itself as
// ActionType; these cover informational events that never change job status.
const (
	ActionNoteAdded        = "note_added"
	ActionDocumentUploaded = "document_uploaded"
	ActionUserCreated      = "user_created"
)

// JobProgressLog is one immutable entry in a job's event history. Rows are
// never updated after insert except for VisibleInTimeline, which is a display
// toggle only. The timestamp is caller-supplied and may be backdated to record
// when the event really happened.
type JobProgressLog struct {
	ID                uuid.UUID  `db:"id"                  json:"id"`
	JobID             uuid.UUID  `db:"job_id"              json:"job_id"`
	OrgID             uuid.UUID  `db:"org_id"              json:"org_id"`
	StopID            *uuid.UUID `db:"stop_id"             json:"stop_id,omitempty"`
	ActorID           uuid.UUID  `db:"actor_id"            json:"actor_id"`
	ActorRole         string     `db:"actor_role"          json:"actor_role"`
	ActionType        string     `db:"action_type"         json:"action_type"`
	Timestamp         time.Time  `db:"event_at"            json:"timestamp"`
	Notes             *string    `db:"notes"               json:"notes,omitempty"`
	Backfilled        bool       `db:"backfilled"          json:"backfilled"`
	VisibleInTimeline bool       `db:"visible_in_timeline" json:"visible_in_timeline"`
	CreatedAt         time.Time  `db:"created_at"          json:"created_at"`
}
