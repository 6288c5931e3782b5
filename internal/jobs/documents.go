package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/pkg/models"
)

// UploadDocumentRequest carries a POD, signature, or paperwork file for a job.
type UploadDocumentRequest struct {
	Type        string
	FileName    string
	ContentType string
	Data        []byte
	StopID      *uuid.UUID
}

// UploadDocument sends the file to the storage collaborator and, only once
// that succeeds, records the document row and a document_uploaded progress log
// entry. A storage failure records nothing, so the log never claims a file
// that was not durably stored.
func (s *Service) UploadDocument(ctx context.Context, actor Actor, jobID uuid.UUID, req UploadDocumentRequest) (*models.Document, error) {
	if !models.ValidDocType(req.Type) {
		return nil, &ValidationError{Field: "type", Reason: "must be pod, signature, or paperwork"}
	}
	if len(req.Data) == 0 {
		return nil, &ValidationError{Field: "file", Reason: "file is empty"}
	}
	if req.FileName == "" {
		return nil, &ValidationError{Field: "file_name", Reason: "must not be empty"}
	}
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: no storage configured", ErrCollaborator)
	}

	job, err := s.store.GetJob(ctx, jobID, actor.OrgID)
	if err != nil {
		return nil, fromStoreErr(err)
	}
	if err := requireOwnJob(actor, job); err != nil {
		return nil, err
	}
	if req.StopID != nil {
		stops, err := s.store.ListJobStops(ctx, job.ID, job.OrgID)
		if err != nil {
			return nil, fromStoreErr(err)
		}
		found := false
		for _, st := range stops {
			if st.ID == *req.StopID {
				found = true
				break
			}
		}
		if !found {
			return nil, ErrNotFound
		}
	}

	path := fmt.Sprintf("%s/%s/%s/%s", actor.OrgID, job.ID, req.Type, req.FileName)
	url, err := s.uploader.Upload(ctx, path, req.Data, req.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCollaborator, err)
	}

	now := time.Now().UTC()
	doc := &models.Document{
		ID:          uuid.New(),
		OrgID:       job.OrgID,
		JobID:       job.ID,
		StopID:      req.StopID,
		Type:        req.Type,
		FileName:    req.FileName,
		StoragePath: url,
		UploadedBy:  actor.ID,
		CreatedAt:   now,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, fromStoreErr(err)
	}

	note := fmt.Sprintf("Uploaded %s: %s", req.Type, req.FileName)
	entry := &models.JobProgressLog{
		ID:                uuid.New(),
		JobID:             job.ID,
		OrgID:             job.OrgID,
		StopID:            req.StopID,
		ActorID:           actor.ID,
		ActorRole:         actor.Role,
		ActionType:        models.ActionDocumentUploaded,
		Timestamp:         now,
		Notes:             &note,
		VisibleInTimeline: true,
		CreatedAt:         now,
	}
	if err := s.store.AppendProgressLog(ctx, entry); err != nil {
		return nil, fromStoreErr(err)
	}
	return doc, nil
}

// ListDocuments returns a job's stored document references.
func (s *Service) ListDocuments(ctx context.Context, actor Actor, jobID uuid.UUID) ([]*models.Document, error) {
	job, err := s.store.GetJob(ctx, jobID, actor.OrgID)
	if err != nil {
		return nil, fromStoreErr(err)
	}
	if err := requireOwnJob(actor, job); err != nil {
		return nil, err
	}
	docs, err := s.store.ListDocuments(ctx, job.ID, job.OrgID)
	if err != nil {
		return nil, fromStoreErr(err)
	}
	return docs, nil
}
