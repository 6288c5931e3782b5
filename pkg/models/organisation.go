package models

import (
	"time"

	"github.com/google/uuid"
)

// Organisation is a haulage company. Every other entity belongs to an organisation
// and all reads and writes are filtered by it.
type Organisation struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
