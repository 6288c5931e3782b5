package models

import (
	"time"

	"github.com/google/uuid"
)

// Job statuses. StatusOrder in internal/jobs defines the happy-path sequence;
// cancelled sits outside it and is reachable only via the cancel operation.
const (
	StatusPlanned           = "planned"
	StatusAssigned          = "assigned"
	StatusAccepted          = "accepted"
	StatusOnRouteCollection = "on_route_collection"
	StatusAtCollection      = "at_collection"
	StatusLoaded            = "loaded"
	StatusOnRouteDelivery   = "on_route_delivery"
	StatusAtDelivery        = "at_delivery"
	StatusDelivered         = "delivered"
	StatusPODReceived       = "pod_received"
	StatusCancelled         = "cancelled"
)

// Job is a haulage order: one or more collection stops followed by one or more
// delivery stops. Jobs are never physically deleted; cancellation is a status
// plus CancelledAt marker.
type Job struct {
	ID               uuid.UUID  `db:"id"                 json:"id"`
	OrgID            uuid.UUID  `db:"org_id"             json:"org_id"`
	OrderNumber      string     `db:"order_number"       json:"order_number"`
	Status           string     `db:"status"             json:"status"`
	StatusVersion    int        `db:"status_version"     json:"-"`
	AssignedDriverID *uuid.UUID `db:"assigned_driver_id" json:"assigned_driver_id,omitempty"`
	// Price is pence/cents; hidden from drivers in API responses.
	Price       *int64     `db:"price"        json:"price,omitempty"`
	Notes       *string    `db:"notes"        json:"notes,omitempty"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedBy   uuid.UUID  `db:"created_by"   json:"created_by"`
	CreatedAt   time.Time  `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"   json:"updated_at"`
}

// Terminal reports whether the job has reached an end state. Terminal jobs
// cannot be cancelled; a delivered job may still progress to pod_received.
func (j *Job) Terminal() bool {
	return j.Status == StatusDelivered || j.Status == StatusPODReceived || j.Status == StatusCancelled
}
