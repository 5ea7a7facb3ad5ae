package api

import (
	"encoding/json"
	"net/http"

	"github.com/homefax/homefax/internal/workflow"
	"github.com/homefax/homefax/pkg/models"
)

type TransfersHandler struct {
	svc *workflow.Service
}

func NewTransfersHandler(svc *workflow.Service) *TransfersHandler {
	return &TransfersHandler{svc: svc}
}

func (h *TransfersHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}

	var in workflow.CreateTransferInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}

	tr, err := h.svc.CreateTransfer(r.Context(), user, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, tr, http.StatusCreated)
}

type transferTokenRequest struct {
	Token string `json:"token"`
}

// AcceptTransfer moves the home to the authenticated recipient.
func (h *TransfersHandler) AcceptTransfer(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}

	var req transferTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}

	if err := h.svc.AcceptTransfer(r.Context(), user, req.Token); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "accepted"}, http.StatusOK)
}

func (h *TransfersHandler) CancelTransfer(w http.ResponseWriter, r *http.Request) {
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

	if err := h.svc.CancelTransfer(r.Context(), user, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "cancelled"}, http.StatusOK)
}
