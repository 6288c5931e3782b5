package jobs

import "github.com/hauldesk/hauldesk/pkg/models"

// Field categories for the authorization table. Adding a role or a field is a
// table edit here, not a search through handlers.
const (
	catJobField   = "job_field"   // price, order_number, assigned_driver_id
	catJobStatus  = "job_status"  // status via edit
	catJobNotes   = "job_notes"   // free-text notes
	catStopAdd    = "stop_add"    // add a new stop
	catStopDelete = "stop_delete" // remove a stop
	catStopWindow = "stop_window" // window_from, window_to, notes on a stop
	catStopField  = "stop_detail" // address, name, postcode, type, seq
)

// policy is the role × field-category allow table. Absent entries deny.
var policy = map[string]map[string]bool{
	models.RoleAdmin: {
		catJobField: true, catJobStatus: true, catJobNotes: true,
		catStopAdd: true, catStopDelete: true, catStopWindow: true, catStopField: true,
	},
	models.RoleOffice: {
		catJobField: true, catJobStatus: true, catJobNotes: true,
		catStopAdd: true, catStopDelete: true, catStopWindow: true, catStopField: true,
	},
	models.RoleDriver: {
		catJobStatus: true, catJobNotes: true, catStopWindow: true,
	},
}

// jobFieldCategory maps job update field names to their category.
var jobFieldCategory = map[string]string{
	"order_number":       catJobField,
	"price":              catJobField,
	"assigned_driver_id": catJobField,
	"status":             catJobStatus,
	"notes":              catJobNotes,
}

// stopFieldCategory maps stop update field names to their category.
var stopFieldCategory = map[string]string{
	"window_from":   catStopWindow,
	"window_to":     catStopWindow,
	"notes":         catStopWindow,
	"name":          catStopField,
	"address_line1": catStopField,
	"address_line2": catStopField,
	"city":          catStopField,
	"postcode":      catStopField,
	"type":          catStopField,
	"seq":           catStopField,
}

// roleAllows reports whether role may touch the given category.
func roleAllows(role, category string) bool {
	return policy[role][category]
}

// checkJobField returns an AuthorizationError if role may not modify the named
// job field. Unknown fields are rejected as a validation problem upstream.
func checkJobField(role, field string) error {
	cat, ok := jobFieldCategory[field]
	if !ok {
		return &ValidationError{Field: field, Reason: "unknown job field"}
	}
	if !roleAllows(role, cat) {
		return &AuthorizationError{Role: role, Field: field}
	}
	return nil
}

func checkStopField(role, field string) error {
	cat, ok := stopFieldCategory[field]
	if !ok {
		return &ValidationError{Field: field, Reason: "unknown stop field"}
	}
	if !roleAllows(role, cat) {
		return &AuthorizationError{Role: role, Field: field}
	}
	return nil
}
