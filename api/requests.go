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

type RequestsHandler struct {
	svc         *workflow.Service
	requestRepo repository.ServiceRequestRepo
	quoteRepo   repository.QuoteRepo
}

func NewRequestsHandler(svc *workflow.Service, rr repository.ServiceRequestRepo, qr repository.QuoteRepo) *RequestsHandler {
	return &RequestsHandler{svc: svc, requestRepo: rr, quoteRepo: qr}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, &models.ValidationError{Msg: "invalid " + name}
	}
	return id, nil
}

func (h *RequestsHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}

	var in workflow.CreateServiceRequestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}

	sr, err := h.svc.CreateServiceRequest(r.Context(), user, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, sr, http.StatusCreated)
}

func (h *RequestsHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}

	list, err := h.requestRepo.ListServiceRequestsForUser(r.Context(), user.ID, user.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, list, http.StatusOK)
}

// GetRequest returns the request with its quote, when one exists.
func (h *RequestsHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
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
	sr, err := h.requestRepo.GetServiceRequestByID(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if sr == nil {
		writeError(w, &models.NotFoundError{Entity: "service request"})
		return
	}
	if sr.HomeownerID != user.ID && sr.ContractorID != user.ID && user.Role != models.RoleAdmin {
		writeError(w, &models.ForbiddenError{Msg: "not a party to this request"})
		return
	}

	quote, err := h.quoteRepo.GetQuoteByRequest(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]any{"request": sr, "quote": quote}, http.StatusOK)
}

func (h *RequestsHandler) SubmitQuote(w http.ResponseWriter, r *http.Request) {
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

	var in workflow.QuoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}
	in.ServiceRequestID = id

	q, err := h.svc.SubmitQuote(r.Context(), user, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, q, http.StatusCreated)
}

func (h *RequestsHandler) UpdateQuote(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	id, err := pathID(r, "quoteId")
	if err != nil {
		writeError(w, err)
		return
	}

	var in workflow.QuoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}

	q, err := h.svc.UpdateQuote(r.Context(), user, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, q, http.StatusOK)
}

func (h *RequestsHandler) AcceptQuote(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	id, err := pathID(r, "quoteId")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.AcceptQuote(r.Context(), user, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "accepted"}, http.StatusOK)
}

func (h *RequestsHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	h.requestAction(w, r, "declined", func(user *models.User, id int64) error {
		return h.svc.DeclineRequest(r.Context(), user, id)
	})
}

func (h *RequestsHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.requestAction(w, r, "cancelled", func(user *models.User, id int64) error {
		return h.svc.CancelRequest(r.Context(), user, id)
	})
}

func (h *RequestsHandler) StartWork(w http.ResponseWriter, r *http.Request) {
	h.requestAction(w, r, "in_progress", func(user *models.User, id int64) error {
		return h.svc.StartWork(r.Context(), user, id)
	})
}

func (h *RequestsHandler) CompleteWork(w http.ResponseWriter, r *http.Request) {
	h.requestAction(w, r, "completed", func(user *models.User, id int64) error {
		return h.svc.CompleteWork(r.Context(), user, id)
	})
}

func (h *RequestsHandler) requestAction(w http.ResponseWriter, r *http.Request, label string, fn func(*models.User, int64) error) {
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
	if err := fn(user, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": label}, http.StatusOK)
}
