// Package jobs implements the job lifecycle: the ordered status vocabulary,
// skip-detection and backfill, role-gated mutation, the driver next-action
// resolver, and cancellation. Status ordering is defined exactly once here;
// every ordering, backfill, and validation check derives from StatusOrder.
package jobs

import "github.com/hauldesk/hauldesk/pkg/models"

// StatusOrder is the happy path of a job, in sequence. Cancelled is excluded:
// it sits outside the ordered lifecycle and is reachable only through the
// dedicated cancel operation.
var StatusOrder = []string{
	models.StatusPlanned,
	models.StatusAssigned,
	models.StatusAccepted,
	models.StatusOnRouteCollection,
	models.StatusAtCollection,
	models.StatusLoaded,
	models.StatusOnRouteDelivery,
	models.StatusAtDelivery,
	models.StatusDelivered,
	models.StatusPODReceived,
}

var statusIndex = func() map[string]int {
	m := make(map[string]int, len(StatusOrder))
	for i, s := range StatusOrder {
		m[s] = i
	}
	return m
}()

// statusLabels are the human-facing names shown in timelines and driver
// actions.
var statusLabels = map[string]string{
	models.StatusPlanned:           "Planned",
	models.StatusAssigned:          "Assigned",
	models.StatusAccepted:          "Accepted",
	models.StatusOnRouteCollection: "On route to collection",
	models.StatusAtCollection:      "At collection",
	models.StatusLoaded:            "Loaded",
	models.StatusOnRouteDelivery:   "On route to delivery",
	models.StatusAtDelivery:        "At delivery",
	models.StatusDelivered:         "Delivered",
	models.StatusPODReceived:       "POD received",
	models.StatusCancelled:         "Cancelled",
}

// StatusIndex returns the 0-based position of s in the ordered sequence, or -1
// for cancelled and unknown values.
func StatusIndex(s string) int {
	if i, ok := statusIndex[s]; ok {
		return i
	}
	return -1
}

// StatusLabel returns the display name for a status, or the raw value if
// unknown.
func StatusLabel(s string) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return s
}

// IsValidForwardTransition reports whether from -> to moves strictly forward in
// the ordered sequence, or to is cancelled (always permitted from a
// non-terminal state; the terminal guard lives with the caller).
func IsValidForwardTransition(from, to string) bool {
	if to == models.StatusCancelled {
		return from != models.StatusCancelled
	}
	fi, ti := StatusIndex(from), StatusIndex(to)
	return fi >= 0 && ti >= 0 && ti > fi
}

// IsManualTarget reports whether s may be requested through the progress-update
// path. Planned, assigned, and cancelled are reachable only via job creation,
// driver assignment, and the cancel operation respectively.
func IsManualTarget(s string) bool {
	switch s {
	case models.StatusPlanned, models.StatusAssigned, models.StatusCancelled:
		return false
	}
	return StatusIndex(s) >= 0
}

// SkippedStatuses returns every status strictly between current and target in
// sequence order, excluding both endpoints. Backward, same-status, and
// out-of-sequence pairs (including cancelled) yield an empty slice; the caller
// must reject those transitions rather than silently apply them.
func SkippedStatuses(current, target string) []string {
	ci, ti := StatusIndex(current), StatusIndex(target)
	if ci < 0 || ti < 0 || ti <= ci {
		return []string{}
	}
	skipped := make([]string, 0, ti-ci-1)
	for i := ci + 1; i < ti; i++ {
		skipped = append(skipped, StatusOrder[i])
	}
	return skipped
}
