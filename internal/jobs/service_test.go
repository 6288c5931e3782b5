package jobs

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/internal/store"
	"github.com/hauldesk/hauldesk/pkg/models"
)

// mockStore is an in-memory store.Store for service tests. RecordProgress and
// UpdateJobWithStops enforce the same optimistic version guard as Postgres so
// conflict paths are testable without a database.
type mockStore struct {
	orgs     map[uuid.UUID]*models.Organisation
	profiles map[uuid.UUID]*models.Profile
	apiKeys  map[uuid.UUID]*models.APIKey
	jobs     map[uuid.UUID]*models.Job
	stops    map[uuid.UUID][]*models.JobStop
	logs     map[uuid.UUID][]*models.JobProgressLog
	docs     map[uuid.UUID][]*models.Document
	audits   []*models.AuditLog

	// forceConflict makes the next guarded write fail its version check.
	forceConflict bool
}

func newMockStore() *mockStore {
	return &mockStore{
		orgs:     map[uuid.UUID]*models.Organisation{},
		profiles: map[uuid.UUID]*models.Profile{},
		apiKeys:  map[uuid.UUID]*models.APIKey{},
		jobs:     map[uuid.UUID]*models.Job{},
		stops:    map[uuid.UUID][]*models.JobStop{},
		logs:     map[uuid.UUID][]*models.JobProgressLog{},
		docs:     map[uuid.UUID][]*models.Document{},
	}
}

func (m *mockStore) Ping(ctx context.Context) error { return nil }

func (m *mockStore) GetDefaultOrganisation(ctx context.Context) (*models.Organisation, error) {
	for _, o := range m.orgs {
		return o, nil
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) GetProfile(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*models.Profile, error) {
	p, ok := m.profiles[id]
	if !ok || p.OrgID != orgID {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (m *mockStore) ListProfilesByRole(ctx context.Context, orgID uuid.UUID, role string) ([]*models.Profile, error) {
	var out []*models.Profile
	for _, p := range m.profiles {
		if p.OrgID == orgID && p.Role == role {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	var out []*models.APIKey
	for _, k := range m.apiKeys {
		if k.KeyPrefix == prefix && k.DeletedAt == nil {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error { return nil }

func (m *mockStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	m.apiKeys[key.ID] = key
	return nil
}

func (m *mockStore) ListAPIKeys(ctx context.Context, orgID uuid.UUID) ([]*models.APIKey, error) {
	var out []*models.APIKey
	for _, k := range m.apiKeys {
		if k.OrgID == orgID && k.DeletedAt == nil {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *mockStore) RevokeAPIKey(ctx context.Context, id uuid.UUID, orgID uuid.UUID) error {
	k, ok := m.apiKeys[id]
	if !ok || k.OrgID != orgID {
		return store.ErrNotFound
	}
	now := time.Now()
	k.DeletedAt = &now
	return nil
}

func (m *mockStore) CreateJob(ctx context.Context, job *models.Job, stops []*models.JobStop, initial *models.JobProgressLog) error {
	for _, j := range m.jobs {
		if j.OrgID == job.OrgID && j.OrderNumber == job.OrderNumber {
			return store.ErrDuplicateKey
		}
	}
	cp := *job
	m.jobs[job.ID] = &cp
	m.stops[job.ID] = append(m.stops[job.ID], stops...)
	m.logs[job.ID] = append(m.logs[job.ID], initial)
	return nil
}

func (m *mockStore) GetJob(ctx context.Context, id uuid.UUID, orgID uuid.UUID) (*models.Job, error) {
	j, ok := m.jobs[id]
	if !ok || j.OrgID != orgID {
		return nil, store.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *mockStore) ListJobs(ctx context.Context, filter store.JobFilter) ([]*models.Job, int, error) {
	var out []*models.Job
	for _, j := range m.jobs {
		if j.OrgID != filter.OrgID {
			continue
		}
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		if filter.DriverID != nil {
			if j.AssignedDriverID == nil || *j.AssignedDriverID != *filter.DriverID {
				continue
			}
		}
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].OrderNumber < out[k].OrderNumber })
	return out, len(out), nil
}

func (m *mockStore) ListJobStops(ctx context.Context, jobID uuid.UUID, orgID uuid.UUID) ([]*models.JobStop, error) {
	var out []*models.JobStop
	for _, st := range m.stops[jobID] {
		if st.OrgID == orgID {
			cp := *st
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, k int) bool {
		if out[i].Type != out[k].Type {
			return out[i].Type == models.StopTypeCollection
		}
		return out[i].Seq < out[k].Seq
	})
	return out, nil
}

func (m *mockStore) guard(jobID, orgID uuid.UUID, fromStatus string, fromVersion int) (*models.Job, error) {
	j, ok := m.jobs[jobID]
	if !ok || j.OrgID != orgID {
		return nil, store.ErrNotFound
	}
	if m.forceConflict || j.Status != fromStatus || j.StatusVersion != fromVersion {
		return nil, store.ErrVersionConflict
	}
	return j, nil
}

func (m *mockStore) RecordProgress(ctx context.Context, jobID, orgID uuid.UUID, fromStatus string, fromVersion int, newStatus string, entries []*models.JobProgressLog, audit *models.AuditLog) error {
	j, err := m.guard(jobID, orgID, fromStatus, fromVersion)
	if err != nil {
		return err
	}
	j.Status = newStatus
	j.StatusVersion++
	if newStatus == models.StatusCancelled {
		now := time.Now().UTC()
		j.CancelledAt = &now
	}
	m.logs[jobID] = append(m.logs[jobID], entries...)
	if audit != nil {
		m.audits = append(m.audits, audit)
	}
	return nil
}

func (m *mockStore) UpdateJobWithStops(ctx context.Context, job *models.Job, fromVersion int, add, update []*models.JobStop, del []uuid.UUID, logs []*models.JobProgressLog, audit *models.AuditLog) error {
	cur, ok := m.jobs[job.ID]
	if !ok || cur.OrgID != job.OrgID {
		return store.ErrNotFound
	}
	if m.forceConflict || cur.StatusVersion != fromVersion {
		return store.ErrVersionConflict
	}
	cp := *job
	cp.StatusVersion = fromVersion + 1
	m.jobs[job.ID] = &cp

	m.stops[job.ID] = append(m.stops[job.ID], add...)
	for _, u := range update {
		for i, st := range m.stops[job.ID] {
			if st.ID == u.ID {
				cpStop := *u
				m.stops[job.ID][i] = &cpStop
			}
		}
	}
	for _, id := range del {
		kept := m.stops[job.ID][:0]
		for _, st := range m.stops[job.ID] {
			if st.ID != id {
				kept = append(kept, st)
			}
		}
		m.stops[job.ID] = kept
	}
	m.logs[job.ID] = append(m.logs[job.ID], logs...)
	if audit != nil {
		m.audits = append(m.audits, audit)
	}
	return nil
}

func (m *mockStore) AppendProgressLog(ctx context.Context, entry *models.JobProgressLog) error {
	m.logs[entry.JobID] = append(m.logs[entry.JobID], entry)
	return nil
}

func (m *mockStore) ListProgressLogs(ctx context.Context, jobID uuid.UUID, orgID uuid.UUID) ([]*models.JobProgressLog, error) {
	var out []*models.JobProgressLog
	for _, e := range m.logs[jobID] {
		if e.OrgID == orgID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, k int) bool { return out[i].Timestamp.Before(out[k].Timestamp) })
	return out, nil
}

func (m *mockStore) SetProgressLogVisibility(ctx context.Context, id uuid.UUID, orgID uuid.UUID, visible bool) error {
	for _, entries := range m.logs {
		for _, e := range entries {
			if e.ID == id && e.OrgID == orgID {
				e.VisibleInTimeline = visible
				return nil
			}
		}
	}
	return store.ErrNotFound
}

func (m *mockStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	m.docs[doc.JobID] = append(m.docs[doc.JobID], doc)
	return nil
}

func (m *mockStore) ListDocuments(ctx context.Context, jobID uuid.UUID, orgID uuid.UUID) ([]*models.Document, error) {
	var out []*models.Document
	for _, d := range m.docs[jobID] {
		if d.OrgID == orgID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockStore) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	m.audits = append(m.audits, entry)
	return nil
}

func (m *mockStore) ListAuditLogs(ctx context.Context, orgID uuid.UUID, entityID uuid.UUID) ([]*models.AuditLog, error) {
	var out []*models.AuditLog
	for _, a := range m.audits {
		if a.OrgID == orgID && a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}

// --- fixtures ---

var testOrg = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func officeActor() Actor {
	return Actor{ID: uuid.New(), OrgID: testOrg, Role: models.RoleOffice}
}

func adminActor() Actor {
	return Actor{ID: uuid.New(), OrgID: testOrg, Role: models.RoleAdmin}
}

func driverActor(id uuid.UUID) Actor {
	return Actor{ID: id, OrgID: testOrg, Role: models.RoleDriver}
}

// seedJob inserts a job with one collection and one delivery stop.
func seedJob(m *mockStore, status string, driverID *uuid.UUID) (*models.Job, []*models.JobStop) {
	now := time.Now().UTC().Add(-time.Hour)
	job := &models.Job{
		ID:               uuid.New(),
		OrgID:            testOrg,
		OrderNumber:      "HD-2026-" + uuid.NewString()[:8],
		Status:           status,
		StatusVersion:    3,
		AssignedDriverID: driverID,
		CreatedBy:        uuid.New(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	stops := []*models.JobStop{
		{ID: uuid.New(), JobID: job.ID, OrgID: testOrg, Type: models.StopTypeCollection, Seq: 1,
			AddressLine1: "1 Depot Way", CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), JobID: job.ID, OrgID: testOrg, Type: models.StopTypeDelivery, Seq: 1,
			AddressLine1: "9 Harbour Rd", CreatedAt: now, UpdatedAt: now},
	}
	cp := *job
	m.jobs[job.ID] = &cp
	m.stops[job.ID] = stops
	return job, stops
}

func seedProfile(m *mockStore, role string) *models.Profile {
	p := &models.Profile{
		ID:       uuid.New(),
		OrgID:    testOrg,
		FullName: "Test " + role,
		Email:    role + "@example.com",
		Role:     role,
	}
	m.profiles[p.ID] = p
	return p
}

func newTestService(m *mockStore) *Service {
	return NewService(m, nil, nil)
}
