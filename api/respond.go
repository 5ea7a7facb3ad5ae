package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/homefax/homefax/pkg/models"
)

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps the domain error taxonomy onto HTTP statuses. Errors
// outside the taxonomy become an opaque 500; their detail goes to the
// log, not the client.
func writeError(w http.ResponseWriter, err error) {
	var (
		unauthorized *models.UnauthorizedError
		forbidden    *models.ForbiddenError
		notFound     *models.NotFoundError
		validation   *models.ValidationError
		invalidState *models.InvalidStateError
		expired      *models.ExpiredError
	)

	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.As(err, &unauthorized):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.As(err, &forbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.As(err, &notFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.As(err, &validation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.As(err, &invalidState):
		status, msg = http.StatusConflict, err.Error()
	case errors.As(err, &expired):
		status, msg = http.StatusGone, err.Error()
	default:
		logger.Error("internal error", slog.Any("err", err))
	}

	writeJSON(w, errorBody{Error: msg}, status)
}
