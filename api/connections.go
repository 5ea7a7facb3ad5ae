package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/homefax/homefax/pkg/models"
	"github.com/homefax/homefax/pkg/repository"
)

type ConnectionsHandler struct {
	connectionRepo repository.ConnectionRepo
}

func NewConnectionsHandler(cr repository.ConnectionRepo) *ConnectionsHandler {
	return &ConnectionsHandler{connectionRepo: cr}
}

func (h *ConnectionsHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}

	conns, err := h.connectionRepo.ListConnectionsForUser(r.Context(), user.ID, user.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, conns, http.StatusOK)
}

// connectionForUser loads the connection and checks the caller sits on
// one side of it (or is an admin).
func (h *ConnectionsHandler) connectionForUser(r *http.Request, user *models.User) (*models.Connection, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return nil, &models.ValidationError{Msg: "invalid connection id"}
	}
	conn, err := h.connectionRepo.GetConnectionByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, &models.NotFoundError{Entity: "connection"}
	}
	if conn.HomeownerID != user.ID && conn.ContractorID != user.ID && user.Role != models.RoleAdmin {
		return nil, &models.ForbiddenError{Msg: "not a party to this connection"}
	}
	return conn, nil
}

func (h *ConnectionsHandler) GetConnection(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	conn, err := h.connectionForUser(r, user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, conn, http.StatusOK)
}

// ArchiveConnection soft-closes the relationship. History stays intact;
// only new activity is stopped.
func (h *ConnectionsHandler) ArchiveConnection(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	conn, err := h.connectionForUser(r, user)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.connectionRepo.ArchiveConnection(r.Context(), conn.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "archived"}, http.StatusOK)
}
