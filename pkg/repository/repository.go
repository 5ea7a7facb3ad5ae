package repository

import (
	"context"

	"github.com/homefax/homefax/pkg/models"
)

// Repository interfaces for domain entities. These are the public
// contracts consumers should depend on; concrete implementations live
// under internal/. Methods documented as atomic run their writes inside
// a single database transaction.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	SetProStatus(ctx context.Context, userID int64, status models.ProStatus) error
	SetSuspended(ctx context.Context, userID int64, suspended bool) error
}

type ProProfileRepo interface {
	CreateProProfile(ctx context.Context, p *models.ProProfile) (int64, error)
	GetProProfileByUserID(ctx context.Context, userID int64) (*models.ProProfile, error)
	SetProfileVerified(ctx context.Context, userID int64, verified bool) error
}

type HomeRepo interface {
	CreateHome(ctx context.Context, h *models.Home) (int64, error)
	GetHomeByID(ctx context.Context, id int64) (*models.Home, error)
	ListHomesByOwner(ctx context.Context, ownerID int64) ([]models.Home, error)
	SetHomeOwner(ctx context.Context, homeID, ownerID int64) error
}

type InvitationRepo interface {
	CreateInvitation(ctx context.Context, inv *models.Invitation) (int64, error)
	GetInvitationByID(ctx context.Context, id int64) (*models.Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error)
	ListInvitationsByEmail(ctx context.Context, email string) ([]models.Invitation, error)
	ListInvitationsByInviter(ctx context.Context, inviterID int64) ([]models.Invitation, error)
	HasPendingInvitation(ctx context.Context, email string, homeID int64, role models.Role) (bool, error)
	// SetInvitationStatus flips status only when the stored status still
	// equals from; it returns models.InvalidStateError otherwise.
	SetInvitationStatus(ctx context.Context, id int64, from, to models.InvitationStatus) error
	// AcceptInvitation marks the invitation accepted and upserts the
	// connection for the triple, atomically. When newHome is non-nil the
	// home is created inside the same transaction and its id used.
	AcceptInvitation(ctx context.Context, invID int64, newHome *models.Home, homeID, homeownerID, contractorID int64) (*models.Connection, error)
}

type ConnectionRepo interface {
	GetConnectionByID(ctx context.Context, id int64) (*models.Connection, error)
	GetConnectionByTriple(ctx context.Context, homeID, homeownerID, contractorID int64) (*models.Connection, error)
	UpsertConnection(ctx context.Context, c *models.Connection) (int64, error)
	ListConnectionsForUser(ctx context.Context, userID int64, role models.Role) ([]models.Connection, error)
	ArchiveConnection(ctx context.Context, id int64) error
	HasActiveConnection(ctx context.Context, contractorID, homeID int64) (bool, error)
}

type ServiceRequestRepo interface {
	CreateServiceRequest(ctx context.Context, sr *models.ServiceRequest) (int64, error)
	GetServiceRequestByID(ctx context.Context, id int64) (*models.ServiceRequest, error)
	ListServiceRequestsForUser(ctx context.Context, userID int64, role models.Role) ([]models.ServiceRequest, error)
	// SetServiceRequestStatus flips status only when the stored status
	// still equals from; respondedAt is stamped when non-nil.
	SetServiceRequestStatus(ctx context.Context, id int64, from, to models.ServiceRequestStatus, respondedAt *int64) error
	// PatchServiceRequestAttachments records attachment rows and bumps
	// the request, atomically.
	PatchServiceRequestAttachments(ctx context.Context, requestID int64, atts []models.Attachment) error
}

type QuoteRepo interface {
	// SubmitQuote inserts the quote with its items and moves the owning
	// request PENDING -> QUOTED with responded_at stamped, atomically.
	SubmitQuote(ctx context.Context, q *models.Quote) (int64, error)
	GetQuoteByID(ctx context.Context, id int64) (*models.Quote, error)
	GetQuoteByRequest(ctx context.Context, requestID int64) (*models.Quote, error)
	// UpdateQuote replaces the quote's fields and items.
	UpdateQuote(ctx context.Context, q *models.Quote) error
	// AcceptQuote marks the quote accepted and moves the owning request
	// QUOTED -> ACCEPTED, atomically.
	AcceptQuote(ctx context.Context, quoteID int64) error
}

type ServiceRecordRepo interface {
	CreateServiceRecord(ctx context.Context, rec *models.ServiceRecord) (int64, error)
	GetServiceRecordByID(ctx context.Context, id int64) (*models.ServiceRecord, error)
	ListServiceRecordsByHome(ctx context.Context, homeID int64) ([]models.ServiceRecord, error)
	ListServiceRecordsByContractor(ctx context.Context, contractorID int64) ([]models.ServiceRecord, error)
	// ApproveServiceRecord flips the record to APPROVED/verified and
	// applies the connection rollups (count, total spent, last service
	// date), atomically. A partial update must be impossible.
	ApproveServiceRecord(ctx context.Context, recordID, approverID int64) (*models.ServiceRecord, error)
	RejectServiceRecord(ctx context.Context, recordID int64) error
	// PatchServiceRecordAttachments records attachment rows and bumps
	// the record, atomically.
	PatchServiceRecordAttachments(ctx context.Context, recordID int64, atts []models.Attachment) error
}

type WarrantyRepo interface {
	CreateWarranty(ctx context.Context, w *models.Warranty) (int64, error)
	GetWarrantyByID(ctx context.Context, id int64) (*models.Warranty, error)
	ListWarrantiesByHome(ctx context.Context, homeID int64) ([]models.Warranty, error)
	SetWarrantyStatus(ctx context.Context, id int64, from, to models.WarrantyStatus) error
}

type ThreadRepo interface {
	EnsureThread(ctx context.Context, connectionID int64) (*models.Thread, error)
	GetThreadByID(ctx context.Context, id int64) (*models.Thread, error)
	ListThreadsForUser(ctx context.Context, userID int64) ([]models.Thread, error)
}

type MessageRepo interface {
	CreateMessage(ctx context.Context, m *models.Message) (int64, error)
	ListMessagesByThread(ctx context.Context, threadID int64, limit, offset int) ([]models.Message, error)
	MarkThreadRead(ctx context.Context, threadID, userID int64) error
	UnreadCount(ctx context.Context, threadID, userID int64) (int64, error)
}

type AttachmentRepo interface {
	ListAttachmentsByRecord(ctx context.Context, recordID int64) ([]models.Attachment, error)
	ListAttachmentsByRequest(ctx context.Context, requestID int64) ([]models.Attachment, error)
}

type ReminderRepo interface {
	CreateReminder(ctx context.Context, rem *models.Reminder) (int64, error)
	GetReminderByID(ctx context.Context, id int64) (*models.Reminder, error)
	ListRemindersByHome(ctx context.Context, homeID int64) ([]models.Reminder, error)
	SetReminderStatus(ctx context.Context, id int64, status models.ReminderStatus) error
	CreateContractorReminder(ctx context.Context, rem *models.ContractorReminder) (int64, error)
	ListContractorRemindersByPro(ctx context.Context, proID int64) ([]models.ContractorReminder, error)
	SetContractorReminderStatus(ctx context.Context, id int64, status models.ReminderStatus) error
}

type TransferRepo interface {
	CreateTransfer(ctx context.Context, tr *models.HomeTransfer) (int64, error)
	GetTransferByID(ctx context.Context, id int64) (*models.HomeTransfer, error)
	GetTransferByToken(ctx context.Context, token string) (*models.HomeTransfer, error)
	SetTransferStatus(ctx context.Context, id int64, from, to models.TransferStatus) error
	// AcceptTransfer marks the transfer accepted and moves home
	// ownership to the new owner, atomically.
	AcceptTransfer(ctx context.Context, transferID, newOwnerID int64) error
}

type AdminRepo interface {
	ListUsers(ctx context.Context, f UserFilter) ([]models.User, int64, error)
	CountUsersByProStatus(ctx context.Context) (map[string]int64, error)
	ListContractors(ctx context.Context, f ContractorFilter) ([]ContractorListItem, int64, error)
	ListHomes(ctx context.Context, f HomeFilter) ([]models.Home, int64, error)
	ListTransfers(ctx context.Context, f TransferFilter) ([]models.HomeTransfer, int64, error)
	CountTransfersByStatus(ctx context.Context) (map[string]int64, error)
}
