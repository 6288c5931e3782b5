package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// ErrVersionConflict signals that a compare-and-swap on a job's status failed
// because another writer got there first. Callers should retry the whole batch.
var ErrVersionConflict = errors.New("job version conflict")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetDefaultOrganisation(ctx context.Context) (*models.Organisation, error)

	GetProfile(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*models.Profile, error)
	ListProfilesByRole(ctx context.Context, orgID uuid.UUID, role string) ([]*models.Profile, error)

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, orgID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error

	// CreateJob inserts the job, its stops, and the initial progress log as one
	// transaction.
	CreateJob(ctx context.Context, job *models.Job, stops []*models.JobStop, initial *models.JobProgressLog) error
	GetJob(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*models.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, int, error)
	ListJobStops(ctx context.Context, jobID uuid.UUID, orgID uuid.UUID) ([]*models.JobStop, error)

	// RecordProgress appends the given log entries and moves the job to
	// newStatus in one transaction, guarded by an optimistic check against the
	// status and version the caller read. Returns ErrVersionConflict when the
	// guard fails; nothing is written in that case. A nil audit is permitted.
	RecordProgress(ctx context.Context, jobID, orgID uuid.UUID, fromStatus string, fromVersion int, newStatus string, entries []*models.JobProgressLog, audit *models.AuditLog) error

	// UpdateJobWithStops applies job-field changes plus stop inserts, updates,
	// and deletes atomically, with the same optimistic guard as RecordProgress,
	// and writes any progress logs and the audit entry in the same transaction.
	UpdateJobWithStops(ctx context.Context, job *models.Job, fromVersion int, add, update []*models.JobStop, del []uuid.UUID, logs []*models.JobProgressLog, audit *models.AuditLog) error

	AppendProgressLog(ctx context.Context, entry *models.JobProgressLog) error
	ListProgressLogs(ctx context.Context, jobID uuid.UUID, orgID uuid.UUID) ([]*models.JobProgressLog, error)
	SetProgressLogVisibility(ctx context.Context, id uuid.UUID, orgID uuid.UUID, visible bool) error

	CreateDocument(ctx context.Context, doc *models.Document) error
	ListDocuments(ctx context.Context, jobID uuid.UUID, orgID uuid.UUID) ([]*models.Document, error)

	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
	ListAuditLogs(ctx context.Context, orgID uuid.UUID, entityID uuid.UUID) ([]*models.AuditLog, error)
}

// JobFilter selects jobs for listing. DriverID restricts to a driver's
// assigned jobs; driver callers always list with their own id.
type JobFilter struct {
	OrgID    uuid.UUID
	Status   string
	DriverID *uuid.UUID
	Page     int
	Limit    int
}
