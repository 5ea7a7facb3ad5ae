package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homefax/homefax/pkg/models"
)

const invitationTTL = 7 * 24 * time.Hour

type CreateInvitationInput struct {
	HomeID  int64       `json:"home_id,omitempty"`
	Email   string      `json:"email"`
	Role    models.Role `json:"role"`
	Message string      `json:"message,omitempty"`
}

// CreateInvitation validates and stores an invitation from inviter to
// the given email. Homeowners invite pros to one of their homes; pros
// invite homeowners with no home attached (the home is claimed on
// acceptance). An identical pending invitation is refused.
func (s *Service) CreateInvitation(ctx context.Context, inviter *models.User, in CreateInvitationInput) (*models.Invitation, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, &models.ValidationError{Msg: "email is required"}
	}
	if !in.Role.Valid() || in.Role == models.RoleAdmin {
		return nil, &models.ValidationError{Msg: "role must be HOMEOWNER or PRO"}
	}

	switch inviter.Role {
	case models.RoleHomeowner:
		if in.Role != models.RolePro {
			return nil, &models.ValidationError{Msg: "homeowners can only invite pros"}
		}
		if in.HomeID == 0 {
			return nil, &models.ValidationError{Msg: "home_id is required"}
		}
		home, err := s.store.GetHomeByID(ctx, in.HomeID)
		if err != nil {
			return nil, err
		}
		if home == nil {
			return nil, &models.NotFoundError{Entity: "home"}
		}
		if home.OwnerID != inviter.ID {
			return nil, &models.ForbiddenError{}
		}
	case models.RolePro:
		if in.Role != models.RoleHomeowner {
			return nil, &models.ValidationError{Msg: "pros can only invite homeowners"}
		}
		if in.HomeID != 0 {
			return nil, &models.ValidationError{Msg: "pro invitations do not carry a home"}
		}
	default:
		return nil, &models.ForbiddenError{}
	}

	dup, err := s.store.HasPendingInvitation(ctx, email, in.HomeID, in.Role)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, &models.ValidationError{Msg: "an identical invitation is already pending"}
	}

	inv := &models.Invitation{
		HomeID:       in.HomeID,
		InvitedEmail: email,
		InvitedBy:    inviter.ID,
		Role:         in.Role,
		Message:      in.Message,
		Status:       models.InvitationPending,
		Token:        uuid.NewString(),
		ExpiresAt:    s.now() + invitationTTL.Milliseconds(),
	}
	id, err := s.store.CreateInvitation(ctx, inv)
	if err != nil {
		return nil, err
	}
	inv.ID = id
	s.logger.Info("invitation created", "invitation_id", id, "role", in.Role)
	return inv, nil
}

type AcceptInvitationInput struct {
	Token   string `json:"token"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
}

// AcceptInvitation accepts the invitation identified by token on behalf
// of user. The recipient email must match the authenticated user
// (case-insensitively). A pro-initiated invite requires the verified
// property address in the payload; the home is created and the
// connection attached inside one transaction.
func (s *Service) AcceptInvitation(ctx context.Context, user *models.User, in AcceptInvitationInput) (*models.Connection, error) {
	inv, err := s.store.GetInvitationByToken(ctx, in.Token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, &models.NotFoundError{Entity: "invitation"}
	}
	if !strings.EqualFold(inv.InvitedEmail, user.Email) {
		return nil, &models.ForbiddenError{}
	}
	if inv.Status != models.InvitationPending {
		return nil, &models.InvalidStateError{Entity: "invitation", From: string(inv.Status), Action: "accept"}
	}
	if inv.Expired(s.now()) {
		return nil, &models.ExpiredError{Entity: "invitation"}
	}

	var (
		newHome      *models.Home
		homeownerID  int64
		contractorID int64
	)
	switch inv.Role {
	case models.RolePro:
		// homeowner invited this pro to an existing home
		if user.Role != models.RolePro {
			return nil, &models.ForbiddenError{}
		}
		homeownerID = inv.InvitedBy
		contractorID = user.ID
	case models.RoleHomeowner:
		// pro invited this homeowner; the accept payload claims the home
		if user.Role != models.RoleHomeowner {
			return nil, &models.ForbiddenError{}
		}
		if strings.TrimSpace(in.Address) == "" {
			return nil, &models.ValidationError{Msg: "property address is required"}
		}
		now := s.now()
		newHome = &models.Home{
			OwnerID:            user.ID,
			Address:            strings.TrimSpace(in.Address),
			City:               strings.TrimSpace(in.City),
			State:              strings.TrimSpace(in.State),
			Zip:                strings.TrimSpace(in.Zip),
			VerificationStatus: "VERIFIED",
			VerificationMethod: "ADDRESS_CONFIRMATION",
			VerifiedAt:         &now,
		}
		homeownerID = user.ID
		contractorID = inv.InvitedBy
	default:
		return nil, &models.ValidationError{Msg: "invitation role is invalid"}
	}

	conn, err := s.store.AcceptInvitation(ctx, inv.ID, newHome, inv.HomeID, homeownerID, contractorID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("invitation accepted", "invitation_id", inv.ID, "connection_id", conn.ID)
	return conn, nil
}

// DeclineInvitation declines a pending invitation addressed to user.
func (s *Service) DeclineInvitation(ctx context.Context, user *models.User, token string) error {
	inv, err := s.store.GetInvitationByToken(ctx, token)
	if err != nil {
		return err
	}
	if inv == nil {
		return &models.NotFoundError{Entity: "invitation"}
	}
	if !strings.EqualFold(inv.InvitedEmail, user.Email) {
		return &models.ForbiddenError{}
	}
	return s.store.SetInvitationStatus(ctx, inv.ID, models.InvitationPending, models.InvitationDeclined)
}

// ResendInvitation re-sends the notification for a pending, unexpired
// invitation. Token and expiry are left untouched.
func (s *Service) ResendInvitation(ctx context.Context, user *models.User, id int64) (*models.Invitation, error) {
	inv, err := s.store.GetInvitationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, &models.NotFoundError{Entity: "invitation"}
	}
	if inv.InvitedBy != user.ID && user.Role != models.RoleAdmin {
		return nil, &models.ForbiddenError{}
	}
	if inv.Status != models.InvitationPending {
		return nil, &models.InvalidStateError{Entity: "invitation", From: string(inv.Status), Action: "resend"}
	}
	if inv.Expired(s.now()) {
		return nil, &models.ExpiredError{Entity: "invitation"}
	}
	// notification delivery is out of band; resend is a no-op server side
	s.logger.Info("invitation resent", "invitation_id", inv.ID)
	return inv, nil
}

// CancelInvitation cancels a pending invitation. Only the original
// inviter or an admin may cancel.
func (s *Service) CancelInvitation(ctx context.Context, user *models.User, id int64) error {
	inv, err := s.store.GetInvitationByID(ctx, id)
	if err != nil {
		return err
	}
	if inv == nil {
		return &models.NotFoundError{Entity: "invitation"}
	}
	if inv.InvitedBy != user.ID && user.Role != models.RoleAdmin {
		return &models.ForbiddenError{}
	}
	return s.store.SetInvitationStatus(ctx, inv.ID, models.InvitationPending, models.InvitationCancelled)
}
