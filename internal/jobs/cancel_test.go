package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/pkg/models"
)

func TestCancelJob(t *testing.T) {
	m := newMockStore()
	job, _ := seedJob(m, models.StatusLoaded, nil)
	svc := newTestService(m)

	cancelled, err := svc.CancelJob(context.Background(), officeActor(), job.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != models.StatusCancelled {
		t.Errorf("status = %q, want cancelled", cancelled.Status)
	}
	if cancelled.CancelledAt == nil {
		t.Error("cancelled_at not set")
	}

	logs := m.logs[job.ID]
	if len(logs) != 1 || logs[0].ActionType != models.StatusCancelled {
		t.Errorf("expected a single cancelled progress entry, got %+v", logs)
	}
	if len(m.audits) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(m.audits))
	}
	audit := m.audits[0]
	if audit.Action != models.AuditJobCancelled {
		t.Errorf("audit action = %q, want job_cancelled", audit.Action)
	}
	if audit.Before["status"] != models.StatusLoaded || audit.After["status"] != models.StatusCancelled {
		t.Errorf("audit diff wrong: before=%v after=%v", audit.Before, audit.After)
	}
}

func TestCancelJob_DriverForbidden(t *testing.T) {
	m := newMockStore()
	driverID := uuid.New()
	job, _ := seedJob(m, models.StatusLoaded, &driverID)
	svc := newTestService(m)

	_, err := svc.CancelJob(context.Background(), driverActor(driverID), job.ID)
	if !errors.Is(err, ErrAuthorization) {
		t.Fatalf("error = %v, want authorization error", err)
	}
	if m.jobs[job.ID].Status != models.StatusLoaded {
		t.Error("forbidden cancel changed the job")
	}
}

func TestCancelJob_TerminalStates(t *testing.T) {
	for _, status := range []string{models.StatusDelivered, models.StatusPODReceived, models.StatusCancelled} {
		t.Run(status, func(t *testing.T) {
			m := newMockStore()
			job, _ := seedJob(m, status, nil)
			svc := newTestService(m)

			_, err := svc.CancelJob(context.Background(), adminActor(), job.ID)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("cancelling %s job: error = %v, want validation error", status, err)
			}
		})
	}
}

func TestCancelJob_OutOfOrgIsNotFound(t *testing.T) {
	m := newMockStore()
	job, _ := seedJob(m, models.StatusLoaded, nil)
	svc := newTestService(m)

	other := Actor{ID: uuid.New(), OrgID: uuid.New(), Role: models.RoleAdmin}
	_, err := svc.CancelJob(context.Background(), other, job.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
