package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/hauldesk/hauldesk/internal/api/middleware"
	"github.com/hauldesk/hauldesk/internal/api/response"
	"github.com/hauldesk/hauldesk/internal/jobs"
	"github.com/hauldesk/hauldesk/pkg/models"
)

// JobService is the slice of the job lifecycle service the HTTP handlers
// depend on. Handlers translate HTTP to these calls and map the error
// taxonomy back to the envelope; all authorization lives behind this
// interface, not in the handlers.
type JobService interface {
	CreateJob(ctx context.Context, actor jobs.Actor, req jobs.CreateRequest) (*models.Job, []*models.JobStop, error)
	GetJob(ctx context.Context, actor jobs.Actor, jobID uuid.UUID) (*models.Job, []*models.JobStop, error)
	ListJobs(ctx context.Context, actor jobs.Actor, status string, driverID *uuid.UUID, page, limit int) ([]*models.Job, int, error)
	UpdateJob(ctx context.Context, actor jobs.Actor, jobID uuid.UUID, req jobs.UpdateRequest) (*jobs.UpdateResult, error)
	ApplyProgressUpdate(ctx context.Context, actor jobs.Actor, jobID uuid.UUID, entries []jobs.ProgressEntry) ([]*models.JobProgressLog, error)
	AddNote(ctx context.Context, actor jobs.Actor, jobID uuid.UUID, stopID *uuid.UUID, note string) (*models.JobProgressLog, error)
	Timeline(ctx context.Context, actor jobs.Actor, jobID uuid.UUID, visibleOnly bool) ([]*models.JobProgressLog, error)
	SetTimelineVisibility(ctx context.Context, actor jobs.Actor, logID uuid.UUID, visible bool) error
	CancelJob(ctx context.Context, actor jobs.Actor, jobID uuid.UUID) (*models.Job, error)
	AssignDriver(ctx context.Context, actor jobs.Actor, jobID, driverID uuid.UUID) (*models.Job, error)
	NextAction(ctx context.Context, actor jobs.Actor, jobID uuid.UUID) (*jobs.NextAction, *models.Job, error)
	UploadDocument(ctx context.Context, actor jobs.Actor, jobID uuid.UUID, req jobs.UploadDocumentRequest) (*models.Document, error)
	ListDocuments(ctx context.Context, actor jobs.Actor, jobID uuid.UUID) ([]*models.Document, error)
}

type jobWithStops struct {
	Job   *models.Job       `json:"job"`
	Stops []*models.JobStop `json:"stops"`
}

// viewJob strips the price before a job reaches a driver. Everyone else sees
// the row as stored.
func viewJob(j *models.Job, role string) *models.Job {
	if j == nil || role != models.RoleDriver {
		return j
	}
	v := *j
	v.Price = nil
	return &v
}

func viewJobs(list []*models.Job, role string) []*models.Job {
	if role != models.RoleDriver {
		return list
	}
	out := make([]*models.Job, len(list))
	for i, j := range list {
		out[i] = viewJob(j, role)
	}
	return out
}

// requireActor fetches the authenticated actor or writes a 401. The auth
// middleware always sets it; this guards direct handler use in tests.
func requireActor(w http.ResponseWriter, r *http.Request) (jobs.Actor, bool) {
	actor, ok := mw.GetActor(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing authentication", nil)
	}
	return actor, ok
}

// pathID parses the named chi URL parameter as a UUID or writes a 400.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", name+" must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

type stopPayload struct {
	Type         string  `json:"type"`
	Seq          int     `json:"seq"`
	Name         *string `json:"name"`
	AddressLine1 string  `json:"address_line1"`
	AddressLine2 *string `json:"address_line2"`
	City         *string `json:"city"`
	Postcode     *string `json:"postcode"`
	WindowFrom   *string `json:"window_from"`
	WindowTo     *string `json:"window_to"`
	Notes        *string `json:"notes"`
}

func (p stopPayload) toAdd() jobs.StopAdd {
	return jobs.StopAdd{
		Type:         p.Type,
		Seq:          p.Seq,
		Name:         p.Name,
		AddressLine1: p.AddressLine1,
		AddressLine2: p.AddressLine2,
		City:         p.City,
		Postcode:     p.Postcode,
		WindowFrom:   p.WindowFrom,
		WindowTo:     p.WindowTo,
		Notes:        p.Notes,
	}
}

// NewCreateJobHandler returns an http.HandlerFunc for POST /api/v1/jobs.
func NewCreateJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		var req struct {
			OrderNumber string        `json:"order_number"`
			Price       *int64        `json:"price"`
			Notes       *string       `json:"notes"`
			Stops       []stopPayload `json:"stops"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		create := jobs.CreateRequest{
			OrderNumber: req.OrderNumber,
			Price:       req.Price,
			Notes:       req.Notes,
		}
		for _, s := range req.Stops {
			create.Stops = append(create.Stops, s.toAdd())
		}

		job, stops, err := svc.CreateJob(r.Context(), actor, create)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response.Created(w, jobWithStops{Job: viewJob(job, actor.Role), Stops: stops})
	}
}

// NewGetJobHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}.
func NewGetJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		jobID, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		job, stops, err := svc.GetJob(r.Context(), actor, jobID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response.JSON(w, jobWithStops{Job: viewJob(job, actor.Role), Stops: stops})
	}
}

// NewListJobsHandler returns an http.HandlerFunc for GET /api/v1/jobs.
// Filters: status, driver_id; pagination: page, limit. Drivers always see
// their own assignments only, regardless of filters.
func NewListJobsHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		var driverID *uuid.UUID
		if v := q.Get("driver_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "driver_id must be a valid UUID", nil)
				return
			}
			driverID = &id
		}

		page := parseIntParam(q.Get("page"), 1)
		limit := parseIntParam(q.Get("limit"), 20)

		list, total, err := svc.ListJobs(r.Context(), actor, q.Get("status"), driverID, page, limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if limit < 1 {
			limit = 20
		}
		if limit > 100 {
			limit = 100
		}
		if page < 1 {
			page = 1
		}
		response.Collection(w, viewJobs(list, actor.Role), response.PaginationMeta{
			Page:    page,
			Limit:   limit,
			Total:   total,
			HasNext: page*limit < total,
		})
	}
}

func parseIntParam(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
