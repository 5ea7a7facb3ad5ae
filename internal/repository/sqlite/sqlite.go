package sqlite

import (
	"io"
	"time"

	"log/slog"

	"github.com/homefax/homefax/internal/db"
	"github.com/homefax/homefax/pkg/repository"
)

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.UserRepo = (*SQLiteRepo)(nil)
var _ repository.ProProfileRepo = (*SQLiteRepo)(nil)
var _ repository.HomeRepo = (*SQLiteRepo)(nil)
var _ repository.InvitationRepo = (*SQLiteRepo)(nil)
var _ repository.ConnectionRepo = (*SQLiteRepo)(nil)
var _ repository.ServiceRequestRepo = (*SQLiteRepo)(nil)
var _ repository.QuoteRepo = (*SQLiteRepo)(nil)
var _ repository.ServiceRecordRepo = (*SQLiteRepo)(nil)
var _ repository.WarrantyRepo = (*SQLiteRepo)(nil)
var _ repository.ThreadRepo = (*SQLiteRepo)(nil)
var _ repository.MessageRepo = (*SQLiteRepo)(nil)
var _ repository.AttachmentRepo = (*SQLiteRepo)(nil)
var _ repository.ReminderRepo = (*SQLiteRepo)(nil)
var _ repository.TransferRepo = (*SQLiteRepo)(nil)
var _ repository.AdminRepo = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &SQLiteRepo{conn: conn, logger: logger}
}

func now() int64 {
	return time.Now().UTC().UnixMilli()
}
