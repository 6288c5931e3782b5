package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	StopTypeCollection = "collection"
	StopTypeDelivery   = "delivery"
)

// JobStop is an ordered collection or delivery point belonging to exactly one
// job. Seq is 1-based and unique within (job, type). Time windows are "HH:MM"
// strings; both ends optional.
type JobStop struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	JobID        uuid.UUID `db:"job_id"        json:"job_id"`
	OrgID        uuid.UUID `db:"org_id"        json:"org_id"`
	Type         string    `db:"type"          json:"type"`
	Seq          int       `db:"seq"           json:"seq"`
	Name         *string   `db:"name"          json:"name,omitempty"`
	AddressLine1 string    `db:"address_line1" json:"address_line1"`
	AddressLine2 *string   `db:"address_line2" json:"address_line2,omitempty"`
	City         *string   `db:"city"          json:"city,omitempty"`
	Postcode     *string   `db:"postcode"      json:"postcode,omitempty"`
	WindowFrom   *string   `db:"window_from"   json:"window_from,omitempty"`
	WindowTo     *string   `db:"window_to"     json:"window_to,omitempty"`
	Notes        *string   `db:"notes"         json:"notes,omitempty"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"    json:"updated_at"`
}
