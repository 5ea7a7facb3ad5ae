package api

import (
	"encoding/json"
	"net/http"

	"github.com/homefax/homefax/internal/workflow"
	"github.com/homefax/homefax/pkg/models"
	"github.com/homefax/homefax/pkg/repository"
)

type RecordsHandler struct {
	svc            *workflow.Service
	recordRepo     repository.ServiceRecordRepo
	attachmentRepo repository.AttachmentRepo
	connectionRepo repository.ConnectionRepo
}

func NewRecordsHandler(svc *workflow.Service, rr repository.ServiceRecordRepo, ar repository.AttachmentRepo, cr repository.ConnectionRepo) *RecordsHandler {
	return &RecordsHandler{svc: svc, recordRepo: rr, attachmentRepo: ar, connectionRepo: cr}
}

func (h *RecordsHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}

	var in workflow.CreateServiceRecordInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}

	rec, err := h.svc.CreateServiceRecord(r.Context(), user, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, rec, http.StatusCreated)
}

// ListMyRecords lists records the contractor documented.
func (h *RecordsHandler) ListMyRecords(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}

	records, err := h.recordRepo.ListServiceRecordsByContractor(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, records, http.StatusOK)
}

// GetRecord returns a record with its attachments.
func (h *RecordsHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	rec, err := h.recordRepo.GetServiceRecordByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if rec == nil {
		writeError(w, &models.NotFoundError{Entity: "service record"})
		return
	}
	if rec.ContractorID != user.ID && user.Role != models.RoleAdmin {
		conn, err := h.connectionRepo.GetConnectionByID(ctx, rec.ConnectionID)
		if err != nil {
			writeError(w, err)
			return
		}
		if conn == nil || conn.HomeownerID != user.ID {
			writeError(w, &models.ForbiddenError{Msg: "no access to this record"})
			return
		}
	}
	atts, err := h.attachmentRepo.ListAttachmentsByRecord(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]any{"record": rec, "attachments": atts}, http.StatusOK)
}

// ApproveRecord verifies the record and applies the connection rollups.
func (h *RecordsHandler) ApproveRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.svc.ApproveServiceRecord(r.Context(), user, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, rec, http.StatusOK)
}

func (h *RecordsHandler) RejectRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.RejectServiceRecord(r.Context(), user, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "rejected"}, http.StatusOK)
}
