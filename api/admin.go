package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/homefax/homefax/internal/workflow"
	"github.com/homefax/homefax/pkg/models"
	"github.com/homefax/homefax/pkg/repository"
)

type AdminHandler struct {
	adminRepo     repository.AdminRepo
	userRepo      repository.UserRepo
	profileRepo   repository.ProProfileRepo
	svc           *workflow.Service
	jwtSecret     string
	tokenDuration time.Duration
}

func NewAdminHandler(ar repository.AdminRepo, ur repository.UserRepo, pr repository.ProProfileRepo, svc *workflow.Service, jwtSecret string, tokenDuration time.Duration) *AdminHandler {
	return &AdminHandler{adminRepo: ar, userRepo: ur, profileRepo: pr, svc: svc, jwtSecret: jwtSecret, tokenDuration: tokenDuration}
}

type pagedResponse struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Skip  int   `json:"skip"`
	Take  int   `json:"take"`
}

func querySort(r *http.Request) repository.Sort {
	return repository.Sort{
		Column: r.URL.Query().Get("sort"),
		Desc:   r.URL.Query().Get("order") != "asc",
	}
}

func queryPage(r *http.Request) repository.Page {
	var p repository.Page
	if v, err := strconv.Atoi(r.URL.Query().Get("skip")); err == nil && v > 0 {
		p.Skip = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("take")); err == nil && v > 0 {
		p.Take = v
	}
	return p
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.UserFilter{
		Search:    q.Get("search"),
		Role:      models.Role(q.Get("role")),
		ProStatus: models.ProStatus(q.Get("pro_status")),
		Sort:      querySort(r),
		Page:      queryPage(r),
	}
	if v := q.Get("suspended"); v != "" {
		b := v == "true" || v == "1"
		f.Suspended = &b
	}

	users, total, err := h.adminRepo.ListUsers(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, pagedResponse{Items: users, Total: total, Skip: f.Page.Skip, Take: f.Page.Take}, http.StatusOK)
}

func (h *AdminHandler) ListContractors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.ContractorFilter{
		Search:    q.Get("search"),
		ProStatus: models.ProStatus(q.Get("pro_status")),
		ProType:   models.ProType(q.Get("pro_type")),
		Sort:      querySort(r),
		Page:      queryPage(r),
	}

	items, total, err := h.adminRepo.ListContractors(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, pagedResponse{Items: items, Total: total, Skip: f.Page.Skip, Take: f.Page.Take}, http.StatusOK)
}

func (h *AdminHandler) ListHomes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.HomeFilter{
		Search:             q.Get("search"),
		VerificationStatus: q.Get("verification_status"),
		Sort:               querySort(r),
		Page:               queryPage(r),
	}

	homes, total, err := h.adminRepo.ListHomes(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, pagedResponse{Items: homes, Total: total, Skip: f.Page.Skip, Take: f.Page.Take}, http.StatusOK)
}

func (h *AdminHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.TransferFilter{
		Search: q.Get("search"),
		Status: models.TransferStatus(q.Get("status")),
		Sort:   querySort(r),
		Page:   queryPage(r),
	}

	transfers, total, err := h.adminRepo.ListTransfers(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, pagedResponse{Items: transfers, Total: total, Skip: f.Page.Skip, Take: f.Page.Take}, http.StatusOK)
}

// Stats returns the per-status counters the admin dashboard tiles read.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	proCounts, err := h.adminRepo.CountUsersByProStatus(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	transferCounts, err := h.adminRepo.CountTransfersByStatus(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]any{
		"pros_by_status":      proCounts,
		"transfers_by_status": transferCounts,
	}, http.StatusOK)
}

func (h *AdminHandler) setProStatus(w http.ResponseWriter, r *http.Request, status models.ProStatus) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	user, err := h.userRepo.GetUserByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, &models.NotFoundError{Entity: "user"})
		return
	}
	if user.Role != models.RolePro {
		writeError(w, &models.ValidationError{Msg: "user is not a pro"})
		return
	}

	if err := h.userRepo.SetProStatus(ctx, id, status); err != nil {
		writeError(w, err)
		return
	}
	if err := h.profileRepo.SetProfileVerified(ctx, id, status == models.ProApproved); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"pro_status": string(status)}, http.StatusOK)
}

func (h *AdminHandler) ApprovePro(w http.ResponseWriter, r *http.Request) {
	h.setProStatus(w, r, models.ProApproved)
}

func (h *AdminHandler) RejectPro(w http.ResponseWriter, r *http.Request) {
	h.setProStatus(w, r, models.ProRejected)
}

func (h *AdminHandler) setSuspended(w http.ResponseWriter, r *http.Request, suspended bool) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.userRepo.SetSuspended(r.Context(), id, suspended); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"suspended": suspended}, http.StatusOK)
}

func (h *AdminHandler) SuspendUser(w http.ResponseWriter, r *http.Request) {
	h.setSuspended(w, r, true)
}

func (h *AdminHandler) UnsuspendUser(w http.ResponseWriter, r *http.Request) {
	h.setSuspended(w, r, false)
}

// CancelTransfer force-cancels a pending transfer on behalf of support.
func (h *AdminHandler) CancelTransfer(w http.ResponseWriter, r *http.Request) {
	admin, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.CancelTransfer(r.Context(), admin, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "cancelled"}, http.StatusOK)
}

// Impersonate issues a token for the target user with the admin's id
// stamped into an "imp" claim for the audit trail. Admin accounts are
// never impersonated.
func (h *AdminHandler) Impersonate(w http.ResponseWriter, r *http.Request) {
	admin, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	target, err := h.userRepo.GetUserByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if target == nil {
		writeError(w, &models.NotFoundError{Entity: "user"})
		return
	}
	if target.Role == models.RoleAdmin {
		writeError(w, &models.ForbiddenError{Msg: "cannot impersonate an admin"})
		return
	}

	tokenStr, err := issueToken(h.jwtSecret, h.tokenDuration, target, admin.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, authResponse{Token: tokenStr, User: target}, http.StatusOK)
}
