package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/homefax/homefax/pkg/models"
	"github.com/homefax/homefax/pkg/repository"
)

type MessagesHandler struct {
	threadRepo     repository.ThreadRepo
	messageRepo    repository.MessageRepo
	connectionRepo repository.ConnectionRepo
}

func NewMessagesHandler(tr repository.ThreadRepo, mr repository.MessageRepo, cr repository.ConnectionRepo) *MessagesHandler {
	return &MessagesHandler{threadRepo: tr, messageRepo: mr, connectionRepo: cr}
}

// threadForUser loads the thread and verifies the caller sits on one
// side of the owning connection.
func (h *MessagesHandler) threadForUser(r *http.Request, user *models.User, threadID int64) (*models.Thread, error) {
	thread, err := h.threadRepo.GetThreadByID(r.Context(), threadID)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, &models.NotFoundError{Entity: "thread"}
	}
	conn, err := h.connectionRepo.GetConnectionByID(r.Context(), thread.ConnectionID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, &models.NotFoundError{Entity: "connection"}
	}
	if conn.HomeownerID != user.ID && conn.ContractorID != user.ID && user.Role != models.RoleAdmin {
		return nil, &models.ForbiddenError{Msg: "not a party to this thread"}
	}
	return thread, nil
}

func (h *MessagesHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}

	ctx := r.Context()
	threads, err := h.threadRepo.ListThreadsForUser(ctx, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	type threadView struct {
		models.Thread
		Unread int64 `json:"unread"`
	}
	out := make([]threadView, 0, len(threads))
	for _, t := range threads {
		unread, err := h.messageRepo.UnreadCount(ctx, t.ID, user.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		out = append(out, threadView{Thread: t, Unread: unread})
	}
	writeJSON(w, out, http.StatusOK)
}

// OpenThread finds or creates the thread for a connection.
func (h *MessagesHandler) OpenThread(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	connID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	conn, err := h.connectionRepo.GetConnectionByID(ctx, connID)
	if err != nil {
		writeError(w, err)
		return
	}
	if conn == nil {
		writeError(w, &models.NotFoundError{Entity: "connection"})
		return
	}
	if conn.HomeownerID != user.ID && conn.ContractorID != user.ID {
		writeError(w, &models.ForbiddenError{Msg: "not a party to this connection"})
		return
	}

	thread, err := h.threadRepo.EnsureThread(ctx, connID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, thread, http.StatusOK)
}

func (h *MessagesHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	threadID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.threadForUser(r, user, threadID); err != nil {
		writeError(w, err)
		return
	}

	limit, offset := 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	messages, err := h.messageRepo.ListMessagesByThread(r.Context(), threadID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, messages, http.StatusOK)
}

type postMessageRequest struct {
	Body string `json:"body"`
}

func (h *MessagesHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	threadID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.threadForUser(r, user, threadID); err != nil {
		writeError(w, err)
		return
	}

	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		writeError(w, &models.ValidationError{Msg: "message body is required"})
		return
	}

	msg := &models.Message{ThreadID: threadID, SenderID: user.ID, Body: req.Body}
	id, err := h.messageRepo.CreateMessage(r.Context(), msg)
	if err != nil {
		writeError(w, err)
		return
	}
	msg.ID = id
	writeJSON(w, msg, http.StatusCreated)
}

// MarkRead marks every message in the thread read for the caller.
func (h *MessagesHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	threadID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.threadForUser(r, user, threadID); err != nil {
		writeError(w, err)
		return
	}

	if err := h.messageRepo.MarkThreadRead(r.Context(), threadID, user.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "read"}, http.StatusOK)
}
