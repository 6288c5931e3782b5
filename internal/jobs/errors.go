package jobs

import (
	"errors"
	"fmt"
)

// Sentinel errors for the job lifecycle. Typed errors below wrap these so
// callers can match the kind with errors.Is and recover detail with errors.As.
var (
	ErrAuthorization = errors.New("not permitted")
	ErrValidation    = errors.New("invalid request")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("concurrent update conflict")
	ErrCollaborator  = errors.New("collaborator failure")
)

// AuthorizationError identifies the field or action a role was not allowed to
// touch. Mutations that hit one are rejected whole; nothing is applied.
type AuthorizationError struct {
	Role  string
	Field string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("role %q may not modify %q", e.Role, e.Field)
}

func (e *AuthorizationError) Unwrap() error { return ErrAuthorization }

// ValidationError rejects a whole request for a malformed or disallowed value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
