package handler

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/hauldesk/hauldesk/internal/api/response"
	"github.com/hauldesk/hauldesk/internal/jobs"
)

// maxDocumentSize caps uploads at 10 MiB; POD photos and scanned paperwork
// sit well under this.
const maxDocumentSize = 10 << 20

// NewUploadDocumentHandler returns an http.HandlerFunc for
// POST /api/v1/jobs/{jobID}/documents. The body is multipart/form-data with
// a "file" part plus "type" and optional "stop_id" fields. The file goes to
// the storage collaborator before anything is recorded; a storage failure
// leaves no trace in the database.
func NewUploadDocumentHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		jobID, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxDocumentSize)
		if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Body must be multipart/form-data under 10MiB", nil)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "file part is required", nil)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Could not read file", nil)
			return
		}

		var stopID *uuid.UUID
		if v := r.FormValue("stop_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "stop_id must be a valid UUID", nil)
				return
			}
			stopID = &id
		}

		doc, err := svc.UploadDocument(r.Context(), actor, jobID, jobs.UploadDocumentRequest{
			Type:        r.FormValue("type"),
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
			StopID:      stopID,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response.Created(w, doc)
	}
}

// NewListDocumentsHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}/documents.
func NewListDocumentsHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		jobID, ok := pathID(w, r, "jobID")
		if !ok {
			return
		}

		docs, err := svc.ListDocuments(r.Context(), actor, jobID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		response.JSON(w, docs)
	}
}
