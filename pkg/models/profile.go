package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin  = "admin"
	RoleOffice = "office"
	RoleDriver = "driver"
)

// Profile is a user within an organisation. User management is owned by the
// auth collaborator; the core only reads profiles, and Role is the authorization
// key for every mutation.
type Profile struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	OrgID     uuid.UUID `db:"org_id"     json:"org_id"`
	FullName  string    `db:"full_name"  json:"full_name"`
	Email     string    `db:"email"      json:"email"`
	Role      string    `db:"role"       json:"role"`
	Phone     *string   `db:"phone"      json:"phone,omitempty"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ValidRole reports whether s is a known role.
func ValidRole(s string) bool {
	return s == RoleAdmin || s == RoleOffice || s == RoleDriver
}
