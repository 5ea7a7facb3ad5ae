package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/homefax/homefax/internal/workflow"
	"github.com/homefax/homefax/pkg/models"
	"github.com/homefax/homefax/pkg/repository"
)

type InvitationsHandler struct {
	svc     *workflow.Service
	invRepo repository.InvitationRepo
}

func NewInvitationsHandler(svc *workflow.Service, ir repository.InvitationRepo) *InvitationsHandler {
	return &InvitationsHandler{svc: svc, invRepo: ir}
}

func (h *InvitationsHandler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}

	var in workflow.CreateInvitationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}

	inv, err := h.svc.CreateInvitation(r.Context(), user, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, inv, http.StatusCreated)
}

// ListInvitations returns invitations the caller sent and those
// addressed to the caller's email.
func (h *InvitationsHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}

	ctx := r.Context()
	sent, err := h.invRepo.ListInvitationsByInviter(ctx, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	received, err := h.invRepo.ListInvitationsByEmail(ctx, user.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]any{"sent": sent, "received": received}, http.StatusOK)
}

type invitationTokenRequest struct {
	Token   string `json:"token"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
}

func (h *InvitationsHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}

	var req invitationTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}

	conn, err := h.svc.AcceptInvitation(r.Context(), user, workflow.AcceptInvitationInput{
		Token:   req.Token,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Zip:     req.Zip,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, conn, http.StatusOK)
}

func (h *InvitationsHandler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}

	var req invitationTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}

	if err := h.svc.DeclineInvitation(r.Context(), user, req.Token); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "declined"}, http.StatusOK)
}

func (h *InvitationsHandler) ResendInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid invitation id"})
		return
	}

	inv, err := h.svc.ResendInvitation(r.Context(), user, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, inv, http.StatusOK)
}

func (h *InvitationsHandler) CancelInvitation(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid invitation id"})
		return
	}

	if err := h.svc.CancelInvitation(r.Context(), user, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "cancelled"}, http.StatusOK)
}
