// Package workflow holds the multi-entity business rules: invitation
// and transfer lifecycles and the service request/quote/record state
// machine. Handlers call into here; single-entity CRUD goes straight to
// the repositories.
package workflow

import (
	"io"
	"log/slog"
	"time"

	"github.com/homefax/homefax/pkg/repository"
)

// Store is the repository surface the workflows need.
type Store interface {
	repository.UserRepo
	repository.HomeRepo
	repository.InvitationRepo
	repository.ConnectionRepo
	repository.ServiceRequestRepo
	repository.QuoteRepo
	repository.ServiceRecordRepo
	repository.WarrantyRepo
	repository.TransferRepo
}

type Service struct {
	store  Store
	logger *slog.Logger

	// nowFn is swappable in tests
	nowFn func() int64
}

func New(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Service{
		store:  store,
		logger: logger,
		nowFn:  func() int64 { return time.Now().UTC().UnixMilli() },
	}
}

func (s *Service) now() int64 {
	return s.nowFn()
}
