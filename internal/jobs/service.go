package jobs

import (
	"context"
	"errors"
	"regexp"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/internal/store"
	"github.com/hauldesk/hauldesk/pkg/models"
)

// Actor identifies the authenticated caller of a mutation. Resolved by the
// auth middleware from the API key's profile.
type Actor struct {
	ID    uuid.UUID
	OrgID uuid.UUID
	Role  string
}

// Notifier dispatches fire-and-forget messages to drivers. Failures are logged
// and never fail the mutation that triggered them.
type Notifier interface {
	Notify(ctx context.Context, driverID uuid.UUID, message string) error
}

// Uploader stores file bytes with the storage collaborator and returns the
// public URL. Upload failures must prevent the related document and progress
// log from being recorded.
type Uploader interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// Service implements the job lifecycle operations over the store.
type Service struct {
	store    store.Store
	notifier Notifier
	uploader Uploader
}

// NewService creates a job lifecycle service. notifier and uploader may be nil
// when the corresponding collaborator is not configured.
func NewService(s store.Store, n Notifier, u Uploader) *Service {
	return &Service{store: s, notifier: n, uploader: u}
}

// fromStoreErr maps store sentinels onto the lifecycle error taxonomy so
// callers above the service never depend on the store package.
func fromStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrVersionConflict):
		return ErrConflict
	default:
		return err
	}
}

var windowRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// validWindow accepts nil or an "HH:MM" value.
func validWindow(v *string) bool {
	return v == nil || windowRe.MatchString(*v)
}

// requireOwnJob enforces that drivers only touch jobs assigned to them.
// Other roles pass through.
func requireOwnJob(actor Actor, job *models.Job) error {
	if actor.Role != models.RoleDriver {
		return nil
	}
	if job.AssignedDriverID == nil || *job.AssignedDriverID != actor.ID {
		// Indistinguishable from a nonexistent job, same as out-of-org reads.
		return ErrNotFound
	}
	return nil
}
