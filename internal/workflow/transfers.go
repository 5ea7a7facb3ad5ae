package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homefax/homefax/pkg/models"
)

const transferTTL = 14 * 24 * time.Hour

type CreateTransferInput struct {
	HomeID  int64  `json:"home_id"`
	ToEmail string `json:"to_email"`
}

// CreateTransfer starts moving a home to a new owner, identified by
// email. Ownership changes only when the recipient accepts.
func (s *Service) CreateTransfer(ctx context.Context, owner *models.User, in CreateTransferInput) (*models.HomeTransfer, error) {
	email := strings.TrimSpace(in.ToEmail)
	if email == "" {
		return nil, &models.ValidationError{Msg: "recipient email is required"}
	}
	if strings.EqualFold(email, owner.Email) {
		return nil, &models.ValidationError{Msg: "cannot transfer a home to yourself"}
	}

	home, err := s.store.GetHomeByID(ctx, in.HomeID)
	if err != nil {
		return nil, err
	}
	if home == nil {
		return nil, &models.NotFoundError{Entity: "home"}
	}
	if home.OwnerID != owner.ID {
		return nil, &models.ForbiddenError{}
	}

	tr := &models.HomeTransfer{
		HomeID:      home.ID,
		FromOwnerID: owner.ID,
		ToEmail:     email,
		Token:       uuid.NewString(),
		Status:      models.TransferPending,
		ExpiresAt:   s.now() + transferTTL.Milliseconds(),
	}
	id, err := s.store.CreateTransfer(ctx, tr)
	if err != nil {
		return nil, err
	}
	tr.ID = id
	s.logger.Info("home transfer created", "transfer_id", id, "home_id", home.ID)
	return tr, nil
}

// AcceptTransfer accepts a pending transfer addressed to user and moves
// home ownership in one transaction.
func (s *Service) AcceptTransfer(ctx context.Context, user *models.User, token string) error {
	tr, err := s.store.GetTransferByToken(ctx, token)
	if err != nil {
		return err
	}
	if tr == nil {
		return &models.NotFoundError{Entity: "transfer"}
	}
	if !strings.EqualFold(tr.ToEmail, user.Email) {
		return &models.ForbiddenError{}
	}
	if tr.Status != models.TransferPending {
		return &models.InvalidStateError{Entity: "transfer", From: string(tr.Status), Action: "accept"}
	}
	if tr.ExpiresAt > 0 && tr.ExpiresAt < s.now() {
		return &models.ExpiredError{Entity: "transfer"}
	}
	return s.store.AcceptTransfer(ctx, tr.ID, user.ID)
}

// CancelTransfer cancels a pending transfer. The initiating owner or an
// admin may cancel.
func (s *Service) CancelTransfer(ctx context.Context, user *models.User, id int64) error {
	tr, err := s.store.GetTransferByID(ctx, id)
	if err != nil {
		return err
	}
	if tr == nil {
		return &models.NotFoundError{Entity: "transfer"}
	}
	if tr.FromOwnerID != user.ID && user.Role != models.RoleAdmin {
		return &models.ForbiddenError{}
	}
	return s.store.SetTransferStatus(ctx, id, models.TransferPending, models.TransferCancelled)
}
