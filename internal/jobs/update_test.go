package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/pkg/models"
)

func strPtr(s string) *string { return &s }
func i64Ptr(n int64) *int64   { return &n }

func TestUpdateJob_RoleMatrix(t *testing.T) {
	driverID := uuid.New()

	tests := []struct {
		name      string
		actor     func() Actor
		req       func(stops []*models.JobStop) UpdateRequest
		allowed   bool
		wantField string
	}{
		{
			name:    "office sets price",
			actor:   func() Actor { return officeActor() },
			req:     func([]*models.JobStop) UpdateRequest { return UpdateRequest{Job: JobFieldUpdate{Price: i64Ptr(42000)}} },
			allowed: true,
		},
		{
			name:      "driver sets price",
			actor:     func() Actor { return driverActor(driverID) },
			req:       func([]*models.JobStop) UpdateRequest { return UpdateRequest{Job: JobFieldUpdate{Price: i64Ptr(42000)}} },
			wantField: "price",
		},
		{
			name:  "driver renames order",
			actor: func() Actor { return driverActor(driverID) },
			req: func([]*models.JobStop) UpdateRequest {
				return UpdateRequest{Job: JobFieldUpdate{OrderNumber: strPtr("HD-X")}}
			},
			wantField: "order_number",
		},
		{
			name:  "driver adjusts stop window",
			actor: func() Actor { return driverActor(driverID) },
			req: func(stops []*models.JobStop) UpdateRequest {
				return UpdateRequest{StopsToUpdate: []StopFieldUpdate{{ID: stops[0].ID, WindowFrom: strPtr("08:30")}}}
			},
			allowed: true,
		},
		{
			name:  "driver edits stop address",
			actor: func() Actor { return driverActor(driverID) },
			req: func(stops []*models.JobStop) UpdateRequest {
				return UpdateRequest{StopsToUpdate: []StopFieldUpdate{{ID: stops[0].ID, AddressLine1: strPtr("2 New St")}}}
			},
			wantField: "address_line1",
		},
		{
			name:  "driver adds a stop",
			actor: func() Actor { return driverActor(driverID) },
			req: func([]*models.JobStop) UpdateRequest {
				return UpdateRequest{StopsToAdd: []StopAdd{{Type: models.StopTypeDelivery, Seq: 2, AddressLine1: "3 Extra Rd"}}}
			},
			wantField: "stops_to_add",
		},
		{
			name:  "driver deletes a stop",
			actor: func() Actor { return driverActor(driverID) },
			req: func(stops []*models.JobStop) UpdateRequest {
				return UpdateRequest{StopsToDelete: []uuid.UUID{stops[0].ID}}
			},
			wantField: "stops_to_delete",
		},
		{
			name:  "admin deletes a stop",
			actor: func() Actor { return adminActor() },
			req: func(stops []*models.JobStop) UpdateRequest {
				return UpdateRequest{StopsToDelete: []uuid.UUID{stops[0].ID}}
			},
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockStore()
			job, stops := seedJob(m, models.StatusAccepted, &driverID)
			svc := newTestService(m)

			_, err := svc.UpdateJob(context.Background(), tt.actor(), job.ID, tt.req(stops))
			if tt.allowed {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ae *AuthorizationError
			if !errors.As(err, &ae) {
				t.Fatalf("error = %v, want AuthorizationError", err)
			}
			if ae.Field != tt.wantField {
				t.Errorf("denied field = %q, want %q", ae.Field, tt.wantField)
			}
		})
	}
}

// One forbidden field poisons the whole request, including parts the role
// could otherwise change.
func TestUpdateJob_FailClosed(t *testing.T) {
	m := newMockStore()
	driverID := uuid.New()
	job, stops := seedJob(m, models.StatusAccepted, &driverID)
	svc := newTestService(m)

	req := UpdateRequest{
		Job: JobFieldUpdate{Price: i64Ptr(99)},
		StopsToUpdate: []StopFieldUpdate{
			{ID: stops[0].ID, WindowFrom: strPtr("07:00")},
		},
	}
	_, err := svc.UpdateJob(context.Background(), driverActor(driverID), job.ID, req)
	if !errors.Is(err, ErrAuthorization) {
		t.Fatalf("error = %v, want authorization error", err)
	}

	// The permitted window change must not have been applied either.
	stored, _ := m.ListJobStops(context.Background(), job.ID, testOrg)
	if stored[0].WindowFrom != nil {
		t.Errorf("window applied despite rejected request: %v", *stored[0].WindowFrom)
	}
	if len(m.audits) != 0 {
		t.Error("rejected request wrote an audit entry")
	}
}

func TestUpdateJob_Validation(t *testing.T) {
	office := officeActor()

	tests := []struct {
		name      string
		req       func(m *mockStore, stops []*models.JobStop) UpdateRequest
		wantField string
	}{
		{
			name: "negative price",
			req: func(*mockStore, []*models.JobStop) UpdateRequest {
				return UpdateRequest{Job: JobFieldUpdate{Price: i64Ptr(-1)}}
			},
			wantField: "price",
		},
		{
			name: "empty order number",
			req: func(*mockStore, []*models.JobStop) UpdateRequest {
				return UpdateRequest{Job: JobFieldUpdate{OrderNumber: strPtr("")}}
			},
			wantField: "order_number",
		},
		{
			name: "assigning a non-driver profile",
			req: func(m *mockStore, _ []*models.JobStop) UpdateRequest {
				p := seedProfile(m, models.RoleOffice)
				return UpdateRequest{Job: JobFieldUpdate{AssignedDriverID: &p.ID}}
			},
			wantField: "assigned_driver_id",
		},
		{
			name: "cancellation through update path",
			req: func(*mockStore, []*models.JobStop) UpdateRequest {
				return UpdateRequest{Job: JobFieldUpdate{Status: strPtr(models.StatusCancelled)}}
			},
			wantField: "status",
		},
		{
			name: "backward status",
			req: func(*mockStore, []*models.JobStop) UpdateRequest {
				return UpdateRequest{Job: JobFieldUpdate{Status: strPtr(models.StatusPlanned)}}
			},
			wantField: "status",
		},
		{
			name: "malformed stop window",
			req: func(_ *mockStore, stops []*models.JobStop) UpdateRequest {
				return UpdateRequest{StopsToUpdate: []StopFieldUpdate{{ID: stops[0].ID, WindowFrom: strPtr("25:99")}}}
			},
			wantField: "window",
		},
		{
			name: "new stop without address",
			req: func(*mockStore, []*models.JobStop) UpdateRequest {
				return UpdateRequest{StopsToAdd: []StopAdd{{Type: models.StopTypeCollection, Seq: 2}}}
			},
			wantField: "address_line1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockStore()
			job, stops := seedJob(m, models.StatusAccepted, nil)
			svc := newTestService(m)

			_, err := svc.UpdateJob(context.Background(), office, job.ID, tt.req(m, stops))
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestUpdateJob_UnknownStopIsNotFound(t *testing.T) {
	m := newMockStore()
	job, _ := seedJob(m, models.StatusAccepted, nil)
	svc := newTestService(m)

	_, err := svc.UpdateJob(context.Background(), officeActor(), job.ID, UpdateRequest{
		StopsToUpdate: []StopFieldUpdate{{ID: uuid.New(), Notes: strPtr("x")}},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown stop update: error = %v, want ErrNotFound", err)
	}

	_, err = svc.UpdateJob(context.Background(), officeActor(), job.ID, UpdateRequest{
		StopsToDelete: []uuid.UUID{uuid.New()},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown stop delete: error = %v, want ErrNotFound", err)
	}
}

func TestUpdateJob_AuditDiffOnlyPresentFields(t *testing.T) {
	m := newMockStore()
	job, _ := seedJob(m, models.StatusAccepted, nil)
	svc := newTestService(m)

	result, err := svc.UpdateJob(context.Background(), officeActor(), job.ID, UpdateRequest{
		Job: JobFieldUpdate{Price: i64Ptr(125000)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	audit := result.Audit
	if audit.Action != models.AuditJobUpdated {
		t.Errorf("audit action = %q, want job_updated", audit.Action)
	}
	if len(audit.After) != 1 {
		t.Errorf("after diff = %v, want price only", audit.After)
	}
	if audit.After["price"] != int64(125000) {
		t.Errorf("after price = %v, want 125000", audit.After["price"])
	}
	if _, ok := audit.Before["price"]; !ok {
		t.Errorf("before diff missing price: %v", audit.Before)
	}
	if _, ok := audit.After["status"]; ok {
		t.Error("untouched field leaked into the diff")
	}
}

func TestUpdateJob_StatusChangeEmitsBackfill(t *testing.T) {
	m := newMockStore()
	job, _ := seedJob(m, models.StatusAccepted, nil)
	svc := newTestService(m)

	result, err := svc.UpdateJob(context.Background(), officeActor(), job.ID, UpdateRequest{
		Job: JobFieldUpdate{Status: strPtr(models.StatusLoaded)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Job.Status != models.StatusLoaded {
		t.Errorf("job status = %q, want loaded", result.Job.Status)
	}

	stored := m.logs[job.ID]
	if len(stored) != 3 {
		t.Fatalf("expected 3 progress entries (2 backfilled + target), got %d", len(stored))
	}
	if !stored[0].Backfilled || !stored[1].Backfilled || stored[2].Backfilled {
		t.Errorf("backfill flags wrong: %v %v %v", stored[0].Backfilled, stored[1].Backfilled, stored[2].Backfilled)
	}
	if stored[2].ActionType != models.StatusLoaded {
		t.Errorf("target entry = %q, want loaded", stored[2].ActionType)
	}
}

func TestUpdateJob_VersionConflict(t *testing.T) {
	m := newMockStore()
	job, _ := seedJob(m, models.StatusAccepted, nil)
	m.forceConflict = true
	svc := newTestService(m)

	_, err := svc.UpdateJob(context.Background(), officeActor(), job.ID, UpdateRequest{
		Job: JobFieldUpdate{Notes: strPtr("rescheduled")},
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestUpdateJob_StopLifecycle(t *testing.T) {
	m := newMockStore()
	job, stops := seedJob(m, models.StatusAccepted, nil)
	svc := newTestService(m)

	result, err := svc.UpdateJob(context.Background(), officeActor(), job.ID, UpdateRequest{
		StopsToAdd: []StopAdd{
			{Type: models.StopTypeDelivery, Seq: 2, AddressLine1: "44 Quay St", WindowFrom: strPtr("14:00"), WindowTo: strPtr("16:00")},
		},
		StopsToUpdate: []StopFieldUpdate{
			{ID: stops[0].ID, Name: strPtr("Main depot")},
		},
		StopsToDelete: []uuid.UUID{stops[1].ID},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Stops) != 2 {
		t.Fatalf("expected 2 stops after add+delete, got %d", len(result.Stops))
	}

	var sawRenamed, sawAdded bool
	for _, st := range result.Stops {
		if st.ID == stops[0].ID && st.Name != nil && *st.Name == "Main depot" {
			sawRenamed = true
		}
		if st.AddressLine1 == "44 Quay St" && st.Type == models.StopTypeDelivery {
			sawAdded = true
		}
		if st.ID == stops[1].ID {
			t.Error("deleted stop still present")
		}
	}
	if !sawRenamed || !sawAdded {
		t.Errorf("stop changes missing (renamed=%v, added=%v)", sawRenamed, sawAdded)
	}
}
