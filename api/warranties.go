package api

import (
	"encoding/json"
	"net/http"

	"github.com/homefax/homefax/internal/workflow"
	"github.com/homefax/homefax/pkg/models"
	"github.com/homefax/homefax/pkg/repository"
)

type WarrantiesHandler struct {
	svc          *workflow.Service
	warrantyRepo repository.WarrantyRepo
	homeRepo     repository.HomeRepo
}

func NewWarrantiesHandler(svc *workflow.Service, wr repository.WarrantyRepo, hr repository.HomeRepo) *WarrantiesHandler {
	return &WarrantiesHandler{svc: svc, warrantyRepo: wr, homeRepo: hr}
}

func (h *WarrantiesHandler) CreateWarranty(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}

	var in workflow.CreateWarrantyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}

	warranty, err := h.svc.CreateWarranty(r.Context(), user, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, warranty, http.StatusCreated)
}

// ListHomeWarranties lists a home's warranties for its owner.
func (h *WarrantiesHandler) ListHomeWarranties(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	homeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	home, err := h.homeRepo.GetHomeByID(ctx, homeID)
	if err != nil {
		writeError(w, err)
		return
	}
	if home == nil {
		writeError(w, &models.NotFoundError{Entity: "home"})
		return
	}
	if home.OwnerID != user.ID && user.Role != models.RoleAdmin {
		writeError(w, &models.ForbiddenError{Msg: "no access to this home"})
		return
	}

	warranties, err := h.warrantyRepo.ListWarrantiesByHome(ctx, homeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, warranties, http.StatusOK)
}

func (h *WarrantiesHandler) AcceptWarranty(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true, "active")
}

func (h *WarrantiesHandler) RejectWarranty(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false, "rejected")
}

func (h *WarrantiesHandler) decide(w http.ResponseWriter, r *http.Request, accept bool, label string) {
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

	if err := h.svc.DecideWarranty(r.Context(), user, id, accept); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": label}, http.StatusOK)
}
