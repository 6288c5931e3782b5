package jobs

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/pkg/models"
)

// NextAction is the single thing a driver must do next on a job.
type NextAction struct {
	NextStatus string     `json:"next_status"`
	StopID     *uuid.UUID `json:"stop_id,omitempty"`
	Label      string     `json:"label"`
}

// NextAction loads a job's stops and logs and derives the driver's next step.
// A nil action with no error means the job is complete. The job is returned
// alongside so callers can cache the result with its access scope.
func (s *Service) NextAction(ctx context.Context, actor Actor, jobID uuid.UUID) (*NextAction, *models.Job, error) {
	job, stops, err := s.GetJob(ctx, actor, jobID)
	if err != nil {
		return nil, nil, err
	}
	logs, err := s.store.ListProgressLogs(ctx, job.ID, job.OrgID)
	if err != nil {
		return nil, nil, fromStoreErr(err)
	}
	return NextDriverAction(job, stops, logs), job, nil
}

// collectionChain and deliveryChain are the per-stop sub-state sequences a
// driver works through, derived from the status vocabulary.
var collectionChain = []string{
	models.StatusOnRouteCollection,
	models.StatusAtCollection,
	models.StatusLoaded,
}

var deliveryChain = []string{
	models.StatusOnRouteDelivery,
	models.StatusAtDelivery,
	models.StatusDelivered,
	models.StatusPODReceived,
}

// NextDriverAction derives the next step for a driver from the job's stops
// (collections before deliveries, each ordered by seq) and its progress logs.
// A log entry counts toward a stop when it is scoped to that stop or carries
// no stop at all. Returns nil when the job is cancelled or every stop has
// reached its terminal sub-state. Pure: never mutates its inputs.
func NextDriverAction(job *models.Job, stops []*models.JobStop, logs []*models.JobProgressLog) *NextAction {
	if job.Status == models.StatusCancelled {
		return nil
	}

	// The driver's first move is accepting the assignment.
	if StatusIndex(job.Status) < StatusIndex(models.StatusAccepted) {
		return &NextAction{
			NextStatus: models.StatusAccepted,
			Label:      "Accept job",
		}
	}

	jobWide := make(map[string]bool)
	byStop := make(map[uuid.UUID]map[string]bool)
	for _, e := range logs {
		if e.StopID == nil {
			jobWide[e.ActionType] = true
			continue
		}
		m := byStop[*e.StopID]
		if m == nil {
			m = make(map[string]bool)
			byStop[*e.StopID] = m
		}
		m[e.ActionType] = true
	}

	has := func(stopID uuid.UUID, status string) bool {
		return jobWide[status] || byStop[stopID][status]
	}

	ordered := make([]*models.JobStop, 0, len(stops))
	for _, st := range stops {
		if st.Type == models.StopTypeCollection {
			ordered = append(ordered, st)
		}
	}
	for _, st := range stops {
		if st.Type == models.StopTypeDelivery {
			ordered = append(ordered, st)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Type != ordered[j].Type {
			return ordered[i].Type == models.StopTypeCollection
		}
		return ordered[i].Seq < ordered[j].Seq
	})

	for _, st := range ordered {
		chain := collectionChain
		if st.Type == models.StopTypeDelivery {
			chain = deliveryChain
		}
		for _, status := range chain {
			if !has(st.ID, status) {
				stopID := st.ID
				return &NextAction{
					NextStatus: status,
					StopID:     &stopID,
					Label:      StatusLabel(status),
				}
			}
		}
	}
	return nil
}
