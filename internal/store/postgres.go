package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/pkg/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Organisations ---

func (s *PostgresStore) GetDefaultOrganisation(ctx context.Context) (*models.Organisation, error) {
	var o models.Organisation
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM organisations WHERE name = 'default' LIMIT 1`,
	).Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get default organisation: %w", err)
	}
	return &o, nil
}

// --- Profiles ---

func (s *PostgresStore) GetProfile(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	err := s.pool.QueryRow(ctx,
		`SELECT id, org_id, full_name, email, role, phone, avatar_url, created_at, updated_at
		 FROM profiles WHERE id = $1 AND org_id = $2`, id, orgID,
	).Scan(&p.ID, &p.OrgID, &p.FullName, &p.Email, &p.Role, &p.Phone, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) ListProfilesByRole(ctx context.Context, orgID uuid.UUID, role string) ([]*models.Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, org_id, full_name, email, role, phone, avatar_url, created_at, updated_at
		 FROM profiles WHERE org_id = $1 AND role = $2 ORDER BY full_name`, orgID, role)
	if err != nil {
		return nil, fmt.Errorf("list profiles by role: %w", err)
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.OrgID, &p.FullName, &p.Email, &p.Role,
			&p.Phone, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, &p)
	}
	return profiles, rows.Err()
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, org_id, profile_id, name, key_hash, key_prefix, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.OrgID, &k.ProfileID, &k.Name, &k.KeyHash, &k.KeyPrefix,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, org_id, profile_id, name, key_hash, key_prefix, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		key.ID, key.OrgID, key.ProfileID, key.Name, key.KeyHash, key.KeyPrefix, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context, orgID uuid.UUID) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, org_id, profile_id, name, key_hash, key_prefix, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE org_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.OrgID, &k.ProfileID, &k.Name, &k.KeyHash, &k.KeyPrefix,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND org_id = $2 AND deleted_at IS NULL`, id, orgID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Jobs ---

const jobColumns = `id, org_id, order_number, status, status_version, assigned_driver_id,
	price, notes, cancelled_at, created_by, created_at, updated_at`

func scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	err := row.Scan(&j.ID, &j.OrgID, &j.OrderNumber, &j.Status, &j.StatusVersion,
		&j.AssignedDriverID, &j.Price, &j.Notes, &j.CancelledAt, &j.CreatedBy,
		&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job, stops []*models.JobStop, initial *models.JobProgressLog) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create job: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO jobs (id, org_id, order_number, status, status_version, assigned_driver_id,
			price, notes, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		job.ID, job.OrgID, job.OrderNumber, job.Status, job.StatusVersion, job.AssignedDriverID,
		job.Price, job.Notes, job.CreatedBy, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create job: %w", err)
	}

	for _, st := range stops {
		if err := insertStop(ctx, tx, st); err != nil {
			return err
		}
	}

	if initial != nil {
		if err := insertProgressLog(ctx, tx, initial); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*models.Job, error) {
	j, err := scanJob(s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1 AND org_id = $2`, id, orgID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, int, error) {
	conditions := []string{"org_id = $1"}
	args := []any{filter.OrgID}
	argIdx := 2

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.DriverID != nil {
		conditions = append(conditions, fmt.Sprintf("assigned_driver_id = $%d", argIdx))
		args = append(args, *filter.DriverID)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM jobs WHERE " + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	dataQuery := fmt.Sprintf(
		`SELECT `+jobColumns+` FROM jobs WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, total, rows.Err()
}

// --- Job Stops ---

func (s *PostgresStore) ListJobStops(ctx context.Context, jobID uuid.UUID, orgID uuid.UUID) ([]*models.JobStop, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_id, org_id, type, seq, name, address_line1, address_line2, city, postcode,
			window_from, window_to, notes, created_at, updated_at
		 FROM job_stops WHERE job_id = $1 AND org_id = $2
		 ORDER BY CASE WHEN type = 'collection' THEN 0 ELSE 1 END, seq`, jobID, orgID)
	if err != nil {
		return nil, fmt.Errorf("list job stops: %w", err)
	}
	defer rows.Close()

	var stops []*models.JobStop
	for rows.Next() {
		var st models.JobStop
		if err := rows.Scan(&st.ID, &st.JobID, &st.OrgID, &st.Type, &st.Seq, &st.Name,
			&st.AddressLine1, &st.AddressLine2, &st.City, &st.Postcode,
			&st.WindowFrom, &st.WindowTo, &st.Notes, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan job stop: %w", err)
		}
		stops = append(stops, &st)
	}
	return stops, rows.Err()
}

func insertStop(ctx context.Context, tx pgx.Tx, st *models.JobStop) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO job_stops (id, job_id, org_id, type, seq, name, address_line1, address_line2,
			city, postcode, window_from, window_to, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		st.ID, st.JobID, st.OrgID, st.Type, st.Seq, st.Name, st.AddressLine1, st.AddressLine2,
		st.City, st.Postcode, st.WindowFrom, st.WindowTo, st.Notes, st.CreatedAt, st.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert job stop: %w", err)
	}
	return nil
}

func updateStop(ctx context.Context, tx pgx.Tx, st *models.JobStop) error {
	tag, err := tx.Exec(ctx,
		`UPDATE job_stops SET type = $3, seq = $4, name = $5, address_line1 = $6, address_line2 = $7,
			city = $8, postcode = $9, window_from = $10, window_to = $11, notes = $12, updated_at = NOW()
		 WHERE id = $1 AND org_id = $2`,
		st.ID, st.OrgID, st.Type, st.Seq, st.Name, st.AddressLine1, st.AddressLine2,
		st.City, st.Postcode, st.WindowFrom, st.WindowTo, st.Notes)
	if err != nil {
		return fmt.Errorf("update job stop: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Progress Logs ---

func insertProgressLog(ctx context.Context, tx pgx.Tx, e *models.JobProgressLog) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO job_progress_logs (id, job_id, org_id, stop_id, actor_id, actor_role,
			action_type, event_at, notes, backfilled, visible_in_timeline, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.JobID, e.OrgID, e.StopID, e.ActorID, e.ActorRole,
		e.ActionType, e.Timestamp, e.Notes, e.Backfilled, e.VisibleInTimeline, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert progress log: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendProgressLog(ctx context.Context, entry *models.JobProgressLog) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO job_progress_logs (id, job_id, org_id, stop_id, actor_id, actor_role,
			action_type, event_at, notes, backfilled, visible_in_timeline, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID, entry.JobID, entry.OrgID, entry.StopID, entry.ActorID, entry.ActorRole,
		entry.ActionType, entry.Timestamp, entry.Notes, entry.Backfilled, entry.VisibleInTimeline, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append progress log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListProgressLogs(ctx context.Context, jobID uuid.UUID, orgID uuid.UUID) ([]*models.JobProgressLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_id, org_id, stop_id, actor_id, actor_role, action_type, event_at,
			notes, backfilled, visible_in_timeline, created_at
		 FROM job_progress_logs WHERE job_id = $1 AND org_id = $2
		 ORDER BY event_at, created_at, id`, jobID, orgID)
	if err != nil {
		return nil, fmt.Errorf("list progress logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.JobProgressLog
	for rows.Next() {
		var e models.JobProgressLog
		if err := rows.Scan(&e.ID, &e.JobID, &e.OrgID, &e.StopID, &e.ActorID, &e.ActorRole,
			&e.ActionType, &e.Timestamp, &e.Notes, &e.Backfilled, &e.VisibleInTimeline, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan progress log: %w", err)
		}
		logs = append(logs, &e)
	}
	return logs, rows.Err()
}

func (s *PostgresStore) SetProgressLogVisibility(ctx context.Context, id uuid.UUID, orgID uuid.UUID, visible bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE job_progress_logs SET visible_in_timeline = $3 WHERE id = $1 AND org_id = $2`,
		id, orgID, visible)
	if err != nil {
		return fmt.Errorf("set progress log visibility: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Transitions ---

// guardedStatusUpdate moves the job row to newStatus iff its status and
// version still match what the caller read. Distinguishes a missing job from a
// lost race so callers can surface not-found vs retryable conflict.
func guardedStatusUpdate(ctx context.Context, tx pgx.Tx, jobID, orgID uuid.UUID, fromStatus string, fromVersion int, newStatus string) error {
	tag, err := tx.Exec(ctx,
		`UPDATE jobs SET status = $1,
			status_version = status_version + 1,
			cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END,
			updated_at = NOW()
		 WHERE id = $2 AND org_id = $3 AND status = $4 AND status_version = $5`,
		newStatus, jobID, orgID, fromStatus, fromVersion)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM jobs WHERE id = $1 AND org_id = $2)`,
		jobID, orgID).Scan(&exists); err != nil {
		return fmt.Errorf("check job exists: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func (s *PostgresStore) RecordProgress(ctx context.Context, jobID, orgID uuid.UUID, fromStatus string, fromVersion int, newStatus string, entries []*models.JobProgressLog, audit *models.AuditLog) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin record progress: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := guardedStatusUpdate(ctx, tx, jobID, orgID, fromStatus, fromVersion, newStatus); err != nil {
		return err
	}
	for _, e := range entries {
		if err := insertProgressLog(ctx, tx, e); err != nil {
			return err
		}
	}
	if audit != nil {
		if err := insertAuditLog(ctx, tx, audit); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit record progress: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateJobWithStops(ctx context.Context, job *models.Job, fromVersion int, add, update []*models.JobStop, del []uuid.UUID, logs []*models.JobProgressLog, audit *models.AuditLog) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update job: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE jobs SET order_number = $1, status = $2, status_version = status_version + 1,
			assigned_driver_id = $3, price = $4, notes = $5,
			cancelled_at = CASE WHEN $2 = 'cancelled' THEN NOW() ELSE cancelled_at END,
			updated_at = NOW()
		 WHERE id = $6 AND org_id = $7 AND status_version = $8`,
		job.OrderNumber, job.Status, job.AssignedDriverID, job.Price, job.Notes,
		job.ID, job.OrgID, fromVersion)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM jobs WHERE id = $1 AND org_id = $2)`,
			job.ID, job.OrgID).Scan(&exists); err != nil {
			return fmt.Errorf("check job exists: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrVersionConflict
	}

	for _, id := range del {
		delTag, err := tx.Exec(ctx,
			`DELETE FROM job_stops WHERE id = $1 AND job_id = $2 AND org_id = $3`,
			id, job.ID, job.OrgID)
		if err != nil {
			return fmt.Errorf("delete job stop: %w", err)
		}
		if delTag.RowsAffected() == 0 {
			return ErrNotFound
		}
	}
	for _, st := range update {
		if err := updateStop(ctx, tx, st); err != nil {
			return err
		}
	}
	for _, st := range add {
		if err := insertStop(ctx, tx, st); err != nil {
			return err
		}
	}
	for _, e := range logs {
		if err := insertProgressLog(ctx, tx, e); err != nil {
			return err
		}
	}
	if audit != nil {
		if err := insertAuditLog(ctx, tx, audit); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update job: %w", err)
	}
	return nil
}

// --- Documents ---

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, org_id, job_id, stop_id, type, file_name, storage_path, uploaded_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.OrgID, doc.JobID, doc.StopID, doc.Type, doc.FileName, doc.StoragePath,
		doc.UploadedBy, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, jobID uuid.UUID, orgID uuid.UUID) ([]*models.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, org_id, job_id, stop_id, type, file_name, storage_path, uploaded_by, created_at
		 FROM documents WHERE job_id = $1 AND org_id = $2 ORDER BY created_at DESC`, jobID, orgID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.OrgID, &d.JobID, &d.StopID, &d.Type, &d.FileName,
			&d.StoragePath, &d.UploadedBy, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

// --- Audit Logs ---

func insertAuditLog(ctx context.Context, tx pgx.Tx, e *models.AuditLog) error {
	before, err := json.Marshal(e.Before)
	if err != nil {
		return fmt.Errorf("marshal audit before: %w", err)
	}
	after, err := json.Marshal(e.After)
	if err != nil {
		return fmt.Errorf("marshal audit after: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO audit_logs (id, org_id, actor_id, actor_role, action, entity_type, entity_id, before, after, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.OrgID, e.ActorID, e.ActorRole, e.Action, e.EntityType, e.EntityID, before, after, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create audit log: %w", err)
	}
	defer tx.Rollback(ctx)
	if err := insertAuditLog(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ListAuditLogs(ctx context.Context, orgID uuid.UUID, entityID uuid.UUID) ([]*models.AuditLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, org_id, actor_id, actor_role, action, entity_type, entity_id, before, after, created_at
		 FROM audit_logs WHERE org_id = $1 AND entity_id = $2 ORDER BY created_at DESC`, orgID, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		var e models.AuditLog
		var before, after []byte
		if err := rows.Scan(&e.ID, &e.OrgID, &e.ActorID, &e.ActorRole, &e.Action,
			&e.EntityType, &e.EntityID, &before, &after, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		if err := json.Unmarshal(before, &e.Before); err != nil {
			return nil, fmt.Errorf("unmarshal audit before: %w", err)
		}
		if err := json.Unmarshal(after, &e.After); err != nil {
			return nil, fmt.Errorf("unmarshal audit after: %w", err)
		}
		logs = append(logs, &e)
	}
	return logs, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
