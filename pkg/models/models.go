package models

// Domain entities. Timestamps are epoch milliseconds (UTC); monetary
// amounts are integer cents.

type User struct {
	ID            int64     `json:"id" db:"id"`
	Email         string    `json:"email" db:"email"`
	Name          string    `json:"name" db:"name"`
	Role          Role      `json:"role" db:"role"`
	ProStatus     ProStatus `json:"pro_status,omitempty" db:"pro_status"`
	Suspended     bool      `json:"suspended" db:"suspended"`
	EmailVerified bool      `json:"email_verified" db:"email_verified"`
	PasswordHash  string    `json:"-" db:"password_hash"`
	SeedTag       string    `json:"-" db:"seed_tag"`
	Created       int64     `json:"created" db:"created"`
	Updated       int64     `json:"updated" db:"updated"`
}

type ProProfile struct {
	ID           int64    `json:"id" db:"id"`
	UserID       int64    `json:"user_id" db:"user_id"`
	BusinessName string   `json:"business_name" db:"business_name"`
	ProType      ProType  `json:"pro_type" db:"pro_type"`
	Verified     bool     `json:"verified" db:"verified"`
	Rating       float64  `json:"rating" db:"rating"`
	Specialties  []string `json:"specialties" db:"specialties"`
	ServiceAreas []string `json:"service_areas" db:"service_areas"`
	SeedTag      string   `json:"-" db:"seed_tag"`
	Created      int64    `json:"created" db:"created"`
	Updated      int64    `json:"updated" db:"updated"`
}

type Home struct {
	ID                 int64  `json:"id" db:"id"`
	OwnerID            int64  `json:"owner_id" db:"owner_id"`
	Address            string `json:"address" db:"address"`
	City               string `json:"city" db:"city"`
	State              string `json:"state" db:"state"`
	Zip                string `json:"zip" db:"zip"`
	VerificationStatus string `json:"verification_status" db:"verification_status"`
	VerificationMethod string `json:"verification_method,omitempty" db:"verification_method"`
	VerifiedAt         *int64 `json:"verified_at,omitempty" db:"verified_at"`
	SeedTag            string `json:"-" db:"seed_tag"`
	Created            int64  `json:"created" db:"created"`
	Updated            int64  `json:"updated" db:"updated"`
}

type Invitation struct {
	ID           int64            `json:"id" db:"id"`
	HomeID       int64            `json:"home_id" db:"home_id"`
	InvitedEmail string           `json:"invited_email" db:"invited_email"`
	InvitedBy    int64            `json:"invited_by" db:"invited_by"`
	Role         Role             `json:"role" db:"role"`
	Message      string           `json:"message,omitempty" db:"message"`
	Status       InvitationStatus `json:"status" db:"status"`
	Token        string           `json:"token" db:"token"`
	ExpiresAt    int64            `json:"expires_at" db:"expires_at"`
	AcceptedAt   *int64           `json:"accepted_at,omitempty" db:"accepted_at"`
	SeedTag      string           `json:"-" db:"seed_tag"`
	Created      int64            `json:"created" db:"created"`
	Updated      int64            `json:"updated" db:"updated"`
}

// Expired reports whether the invitation is past its nominal expiry.
// Expiry is evaluated lazily on read; nothing flips the stored status.
func (i *Invitation) Expired(nowMillis int64) bool {
	return i.ExpiresAt > 0 && i.ExpiresAt < nowMillis
}

// Connection links a homeowner's home to a contractor. Exactly one row
// exists per (home, homeowner, contractor) triple; rollup fields are
// denormalized aggregates over verified service records.
type Connection struct {
	ID                   int64            `json:"id" db:"id"`
	HomeID               int64            `json:"home_id" db:"home_id"`
	HomeownerID          int64            `json:"homeowner_id" db:"homeowner_id"`
	ContractorID         int64            `json:"contractor_id" db:"contractor_id"`
	Status               ConnectionStatus `json:"status" db:"status"`
	VerifiedServiceCount int64            `json:"verified_service_count" db:"verified_service_count"`
	TotalSpentCents      int64            `json:"total_spent_cents" db:"total_spent_cents"`
	LastServiceDate      *int64           `json:"last_service_date,omitempty" db:"last_service_date"`
	SeedTag              string           `json:"-" db:"seed_tag"`
	Created              int64            `json:"created" db:"created"`
	Updated              int64            `json:"updated" db:"updated"`
}

type ServiceRequest struct {
	ID             int64                `json:"id" db:"id"`
	ConnectionID   int64                `json:"connection_id" db:"connection_id"`
	HomeID         int64                `json:"home_id" db:"home_id"`
	HomeownerID    int64                `json:"homeowner_id" db:"homeowner_id"`
	ContractorID   int64                `json:"contractor_id" db:"contractor_id"`
	Title          string               `json:"title" db:"title"`
	Description    string               `json:"description,omitempty" db:"description"`
	Urgency        string               `json:"urgency" db:"urgency"`
	BudgetMinCents *int64               `json:"budget_min_cents,omitempty" db:"budget_min_cents"`
	BudgetMaxCents *int64               `json:"budget_max_cents,omitempty" db:"budget_max_cents"`
	Status         ServiceRequestStatus `json:"status" db:"status"`
	RespondedAt    *int64               `json:"responded_at,omitempty" db:"responded_at"`
	SeedTag        string               `json:"-" db:"seed_tag"`
	Created        int64                `json:"created" db:"created"`
	Updated        int64                `json:"updated" db:"updated"`
}

type Quote struct {
	ID               int64       `json:"id" db:"id"`
	ServiceRequestID int64       `json:"service_request_id" db:"service_request_id"`
	ContractorID     int64       `json:"contractor_id" db:"contractor_id"`
	TotalCents       int64       `json:"total_cents" db:"total_cents"`
	Status           QuoteStatus `json:"status" db:"status"`
	Notes            string      `json:"notes,omitempty" db:"notes"`
	ExpiresAt        *int64      `json:"expires_at,omitempty" db:"expires_at"`
	Items            []QuoteItem `json:"items"`
	SeedTag          string      `json:"-" db:"seed_tag"`
	Created          int64       `json:"created" db:"created"`
	Updated          int64       `json:"updated" db:"updated"`
}

// Expired reports whether the quote is past its expiry, when one is set.
func (q *Quote) Expired(nowMillis int64) bool {
	return q.ExpiresAt != nil && *q.ExpiresAt < nowMillis
}

type QuoteItem struct {
	ID             int64  `json:"id" db:"id"`
	QuoteID        int64  `json:"quote_id" db:"quote_id"`
	Item           string `json:"item" db:"item"`
	Qty            int64  `json:"qty" db:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents" db:"unit_price_cents"`
	TotalCents     int64  `json:"total_cents" db:"total_cents"`
}

type ServiceRecord struct {
	ID               int64               `json:"id" db:"id"`
	HomeID           int64               `json:"home_id" db:"home_id"`
	ContractorID     int64               `json:"contractor_id" db:"contractor_id"`
	ConnectionID     int64               `json:"connection_id" db:"connection_id"`
	ServiceRequestID *int64              `json:"service_request_id,omitempty" db:"service_request_id"`
	ServiceType      string              `json:"service_type" db:"service_type"`
	Description      string              `json:"description,omitempty" db:"description"`
	CostCents        *int64              `json:"cost_cents,omitempty" db:"cost_cents"`
	ServiceDate      int64               `json:"service_date" db:"service_date"`
	Status           ServiceRecordStatus `json:"status" db:"status"`
	IsVerified       bool                `json:"is_verified" db:"is_verified"`
	ApprovedBy       *int64              `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt       *int64              `json:"approved_at,omitempty" db:"approved_at"`
	WarrantyIncluded bool                `json:"warranty_included" db:"warranty_included"`
	SeedTag          string              `json:"-" db:"seed_tag"`
	Created          int64               `json:"created" db:"created"`
	Updated          int64               `json:"updated" db:"updated"`
}

type Warranty struct {
	ID              int64          `json:"id" db:"id"`
	ServiceRecordID int64          `json:"service_record_id" db:"service_record_id"`
	HomeID          int64          `json:"home_id" db:"home_id"`
	ContractorID    int64          `json:"contractor_id" db:"contractor_id"`
	Item            string         `json:"item" db:"item"`
	Provider        string         `json:"provider" db:"provider"`
	PolicyNo        string         `json:"policy_no,omitempty" db:"policy_no"`
	PurchasedAt     *int64         `json:"purchased_at,omitempty" db:"purchased_at"`
	ExpiresAt       *int64         `json:"expires_at,omitempty" db:"expires_at"`
	Status          WarrantyStatus `json:"status" db:"status"`
	SeedTag         string         `json:"-" db:"seed_tag"`
	Created         int64          `json:"created" db:"created"`
	Updated         int64          `json:"updated" db:"updated"`
}

type Thread struct {
	ID           int64  `json:"id" db:"id"`
	ConnectionID int64  `json:"connection_id" db:"connection_id"`
	SeedTag      string `json:"-" db:"seed_tag"`
	Created      int64  `json:"created" db:"created"`
	Updated      int64  `json:"updated" db:"updated"`
}

type Message struct {
	ID       int64  `json:"id" db:"id"`
	ThreadID int64  `json:"thread_id" db:"thread_id"`
	SenderID int64  `json:"sender_id" db:"sender_id"`
	Body     string `json:"body" db:"body"`
	SeedTag  string `json:"-" db:"seed_tag"`
	Created  int64  `json:"created" db:"created"`
}

type MessageRead struct {
	ID        int64 `json:"id" db:"id"`
	MessageID int64 `json:"message_id" db:"message_id"`
	UserID    int64 `json:"user_id" db:"user_id"`
	ReadAt    int64 `json:"read_at" db:"read_at"`
}

// Attachment references an object-storage file from at most one owning
// entity. Rows are created only after the presigned PUT succeeded and
// the owner was patched; they are never mutated afterwards.
type Attachment struct {
	ID               int64  `json:"id" db:"id"`
	Key              string `json:"key" db:"key"`
	PublicURL        string `json:"public_url" db:"public_url"`
	HomeID           int64  `json:"home_id" db:"home_id"`
	MessageID        *int64 `json:"message_id,omitempty" db:"message_id"`
	ServiceRecordID  *int64 `json:"service_record_id,omitempty" db:"service_record_id"`
	ServiceRequestID *int64 `json:"service_request_id,omitempty" db:"service_request_id"`
	WarrantyID       *int64 `json:"warranty_id,omitempty" db:"warranty_id"`
	ReminderID       *int64 `json:"reminder_id,omitempty" db:"reminder_id"`
	MimeType         string `json:"mime_type" db:"mime_type"`
	Size             int64  `json:"size" db:"size"`
	SeedTag          string `json:"-" db:"seed_tag"`
	Created          int64  `json:"created" db:"created"`
}

type Reminder struct {
	ID        int64          `json:"id" db:"id"`
	HomeID    int64          `json:"home_id" db:"home_id"`
	CreatedBy int64          `json:"created_by" db:"created_by"`
	Title     string         `json:"title" db:"title"`
	Notes     string         `json:"notes,omitempty" db:"notes"`
	DueAt     int64          `json:"due_at" db:"due_at"`
	Status    ReminderStatus `json:"status" db:"status"`
	Overdue   bool           `json:"overdue"`
	SeedTag   string         `json:"-" db:"seed_tag"`
	Created   int64          `json:"created" db:"created"`
	Updated   int64          `json:"updated" db:"updated"`
}

type ContractorReminder struct {
	ID      int64          `json:"id" db:"id"`
	ProID   int64          `json:"pro_id" db:"pro_id"`
	Title   string         `json:"title" db:"title"`
	Notes   string         `json:"notes,omitempty" db:"notes"`
	DueAt   int64          `json:"due_at" db:"due_at"`
	Status  ReminderStatus `json:"status" db:"status"`
	Overdue bool           `json:"overdue"`
	SeedTag string         `json:"-" db:"seed_tag"`
	Created int64          `json:"created" db:"created"`
	Updated int64          `json:"updated" db:"updated"`
}

type HomeTransfer struct {
	ID          int64          `json:"id" db:"id"`
	HomeID      int64          `json:"home_id" db:"home_id"`
	FromOwnerID int64          `json:"from_owner_id" db:"from_owner_id"`
	ToEmail     string         `json:"to_email" db:"to_email"`
	Token       string         `json:"token" db:"token"`
	Status      TransferStatus `json:"status" db:"status"`
	ExpiresAt   int64          `json:"expires_at" db:"expires_at"`
	SeedTag     string         `json:"-" db:"seed_tag"`
	Created     int64          `json:"created" db:"created"`
	Updated     int64          `json:"updated" db:"updated"`
}
