package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/homefax/homefax/pkg/models"
	"github.com/homefax/homefax/pkg/repository"
)

type HomesHandler struct {
	homeRepo       repository.HomeRepo
	connectionRepo repository.ConnectionRepo
	recordRepo     repository.ServiceRecordRepo
	warrantyRepo   repository.WarrantyRepo
}

func NewHomesHandler(hr repository.HomeRepo, cr repository.ConnectionRepo, rr repository.ServiceRecordRepo, wr repository.WarrantyRepo) *HomesHandler {
	return &HomesHandler{homeRepo: hr, connectionRepo: cr, recordRepo: rr, warrantyRepo: wr}
}

type createHomeRequest struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
}

// CreateHome claims a property for the authenticated homeowner. Address
// confirmation is the only verification method supported today, so the
// home lands verified immediately.
func (h *HomesHandler) CreateHome(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	if user.Role != models.RoleHomeowner && user.Role != models.RoleAdmin {
		writeError(w, &models.ForbiddenError{Msg: "only homeowners register homes"})
		return
	}

	var req createHomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Address) == "" || strings.TrimSpace(req.City) == "" || strings.TrimSpace(req.State) == "" || strings.TrimSpace(req.Zip) == "" {
		writeError(w, &models.ValidationError{Msg: "address, city, state and zip are required"})
		return
	}

	ctx := r.Context()
	now := nowMillis()
	home := &models.Home{
		OwnerID:            user.ID,
		Address:            strings.TrimSpace(req.Address),
		City:               strings.TrimSpace(req.City),
		State:              strings.TrimSpace(req.State),
		Zip:                strings.TrimSpace(req.Zip),
		VerificationStatus: "VERIFIED",
		VerificationMethod: "ADDRESS_CONFIRMATION",
		VerifiedAt:         &now,
	}
	id, err := h.homeRepo.CreateHome(ctx, home)
	if err != nil {
		writeError(w, err)
		return
	}
	home.ID = id

	writeJSON(w, home, http.StatusCreated)
}

func (h *HomesHandler) ListHomes(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}

	homes, err := h.homeRepo.ListHomesByOwner(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, homes, http.StatusOK)
}

// canViewHome allows the owner, an admin, or a contractor with an
// active connection to the home.
func (h *HomesHandler) canViewHome(r *http.Request, user *models.User, home *models.Home) (bool, error) {
	if home.OwnerID == user.ID || user.Role == models.RoleAdmin {
		return true, nil
	}
	if user.Role == models.RolePro {
		return h.connectionRepo.HasActiveConnection(r.Context(), user.ID, home.ID)
	}
	return false, nil
}

func (h *HomesHandler) GetHome(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid home id"})
		return
	}

	home, err := h.homeRepo.GetHomeByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if home == nil {
		writeError(w, &models.NotFoundError{Entity: "home"})
		return
	}
	allowed, err := h.canViewHome(r, user, home)
	if err != nil {
		writeError(w, err)
		return
	}
	if !allowed {
		writeError(w, &models.ForbiddenError{Msg: "no access to this home"})
		return
	}

	writeJSON(w, home, http.StatusOK)
}

// HomeTimeline returns the home's service history and warranties, the
// report view a buyer or owner reads top to bottom.
func (h *HomesHandler) HomeTimeline(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid home id"})
		return
	}

	ctx := r.Context()
	home, err := h.homeRepo.GetHomeByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if home == nil {
		writeError(w, &models.NotFoundError{Entity: "home"})
		return
	}
	allowed, err := h.canViewHome(r, user, home)
	if err != nil {
		writeError(w, err)
		return
	}
	if !allowed {
		writeError(w, &models.ForbiddenError{Msg: "no access to this home"})
		return
	}

	records, err := h.recordRepo.ListServiceRecordsByHome(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	warranties, err := h.warrantyRepo.ListWarrantiesByHome(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]any{
		"home":       home,
		"records":    records,
		"warranties": warranties,
	}, http.StatusOK)
}
