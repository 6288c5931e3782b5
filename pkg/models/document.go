package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DocTypePOD       = "pod"
	DocTypeSignature = "signature"
	DocTypePaperwork = "paperwork"
)

// Document is a stored file reference (POD image, signature, paperwork) tied
// to a job and optionally a stop. The file itself lives in the storage
// collaborator; the core only records the public URL and never deletes it.
type Document struct {
	ID          uuid.UUID  `db:"id"           json:"id"`
	OrgID       uuid.UUID  `db:"org_id"       json:"org_id"`
	JobID       uuid.UUID  `db:"job_id"       json:"job_id"`
	StopID      *uuid.UUID `db:"stop_id"      json:"stop_id,omitempty"`
	Type        string     `db:"type"         json:"type"`
	FileName    string     `db:"file_name"    json:"file_name"`
	StoragePath string     `db:"storage_path" json:"storage_path"`
	UploadedBy  uuid.UUID  `db:"uploaded_by"  json:"uploaded_by"`
	CreatedAt   time.Time  `db:"created_at"   json:"created_at"`
}

// ValidDocType reports whether s is a known document type.
func ValidDocType(s string) bool {
	return s == DocTypePOD || s == DocTypeSignature || s == DocTypePaperwork
}
