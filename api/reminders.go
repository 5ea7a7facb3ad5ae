package api

import (
	"encoding/json"
	"net/http"

	"github.com/homefax/homefax/pkg/models"
	"github.com/homefax/homefax/pkg/repository"
)

type RemindersHandler struct {
	reminderRepo repository.ReminderRepo
	homeRepo     repository.HomeRepo
}

func NewRemindersHandler(rr repository.ReminderRepo, hr repository.HomeRepo) *RemindersHandler {
	return &RemindersHandler{reminderRepo: rr, homeRepo: hr}
}

type createReminderRequest struct {
	HomeID int64  `json:"home_id,omitempty"`
	Title  string `json:"title"`
	Notes  string `json:"notes,omitempty"`
	DueAt  int64  `json:"due_at"`
}

func (h *RemindersHandler) ownsHome(r *http.Request, user *models.User, homeID int64) error {
	home, err := h.homeRepo.GetHomeByID(r.Context(), homeID)
	if err != nil {
		return err
	}
	if home == nil {
		return &models.NotFoundError{Entity: "home"}
	}
	if home.OwnerID != user.ID && user.Role != models.RoleAdmin {
		return &models.ForbiddenError{Msg: "no access to this home"}
	}
	return nil
}

// CreateReminder creates a maintenance reminder. Homeowners attach it
// to one of their homes; pros keep a personal list with no home.
func (h *RemindersHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}

	var req createReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}
	if req.Title == "" || req.DueAt == 0 {
		writeError(w, &models.ValidationError{Msg: "title and due_at are required"})
		return
	}

	ctx := r.Context()

	if user.Role == models.RolePro {
		rem := &models.ContractorReminder{ProID: user.ID, Title: req.Title, Notes: req.Notes, DueAt: req.DueAt, Status: models.ReminderPending}
		id, err := h.reminderRepo.CreateContractorReminder(ctx, rem)
		if err != nil {
			writeError(w, err)
			return
		}
		rem.ID = id
		writeJSON(w, rem, http.StatusCreated)
		return
	}

	if req.HomeID == 0 {
		writeError(w, &models.ValidationError{Msg: "home_id is required"})
		return
	}
	if err := h.ownsHome(r, user, req.HomeID); err != nil {
		writeError(w, err)
		return
	}

	rem := &models.Reminder{HomeID: req.HomeID, CreatedBy: user.ID, Title: req.Title, Notes: req.Notes, DueAt: req.DueAt, Status: models.ReminderPending}
	id, err := h.reminderRepo.CreateReminder(ctx, rem)
	if err != nil {
		writeError(w, err)
		return
	}
	rem.ID = id
	writeJSON(w, rem, http.StatusCreated)
}

// ListHomeReminders lists a home's reminders with overdue computed at
// read time.
func (h *RemindersHandler) ListHomeReminders(w http.ResponseWriter, r *http.Request) {
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
	if err := h.ownsHome(r, user, homeID); err != nil {
		writeError(w, err)
		return
	}

	reminders, err := h.reminderRepo.ListRemindersByHome(r.Context(), homeID)
	if err != nil {
		writeError(w, err)
		return
	}
	now := nowMillis()
	for i := range reminders {
		reminders[i].Overdue = reminders[i].Status == models.ReminderPending && reminders[i].DueAt < now
	}
	writeJSON(w, reminders, http.StatusOK)
}

// ListMyReminders lists the pro's personal reminders.
func (h *RemindersHandler) ListMyReminders(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}

	reminders, err := h.reminderRepo.ListContractorRemindersByPro(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	now := nowMillis()
	for i := range reminders {
		reminders[i].Overdue = reminders[i].Status == models.ReminderPending && reminders[i].DueAt < now
	}
	writeJSON(w, reminders, http.StatusOK)
}

type reminderStatusRequest struct {
	Status models.ReminderStatus `json:"status"`
}

func (h *RemindersHandler) SetReminderStatus(w http.ResponseWriter, r *http.Request) {
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

	var req reminderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}
	if req.Status != models.ReminderPending && req.Status != models.ReminderDone {
		writeError(w, &models.ValidationError{Msg: "invalid status"})
		return
	}

	ctx := r.Context()
	if user.Role == models.RolePro {
		if err := h.reminderRepo.SetContractorReminderStatus(ctx, id, req.Status); err != nil {
			writeError(w, err)
			return
		}
	} else {
		if err := h.reminderRepo.SetReminderStatus(ctx, id, req.Status); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, map[string]string{"status": string(req.Status)}, http.StatusOK)
}
