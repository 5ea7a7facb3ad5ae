package models

// Closed status sets with explicit transition rules. Handlers never
// compare raw strings; every state change goes through CanTransition.

type Role string

const (
	RoleHomeowner Role = "HOMEOWNER"
	RolePro       Role = "PRO"
	RoleAdmin     Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleHomeowner, RolePro, RoleAdmin:
		return true
	}
	return false
}

type ProStatus string

const (
	ProPending  ProStatus = "PENDING"
	ProApproved ProStatus = "APPROVED"
	ProRejected ProStatus = "REJECTED"
)

type ProType string

const (
	ProContractor ProType = "CONTRACTOR"
	ProRealtor    ProType = "REALTOR"
	ProInspector  ProType = "INSPECTOR"
)

type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "PENDING"
	InvitationAccepted  InvitationStatus = "ACCEPTED"
	InvitationDeclined  InvitationStatus = "DECLINED"
	InvitationExpired   InvitationStatus = "EXPIRED"
	InvitationCancelled InvitationStatus = "CANCELLED"
)

// Terminal reports whether no further transition is permitted.
func (s InvitationStatus) Terminal() bool {
	return s != InvitationPending
}

func (s InvitationStatus) CanTransition(to InvitationStatus) bool {
	if s != InvitationPending {
		return false
	}
	switch to {
	case InvitationAccepted, InvitationDeclined, InvitationExpired, InvitationCancelled:
		return true
	}
	return false
}

type ConnectionStatus string

const (
	ConnectionActive   ConnectionStatus = "ACTIVE"
	ConnectionArchived ConnectionStatus = "ARCHIVED"
)

type ServiceRequestStatus string

const (
	RequestPending    ServiceRequestStatus = "PENDING"
	RequestQuoted     ServiceRequestStatus = "QUOTED"
	RequestAccepted   ServiceRequestStatus = "ACCEPTED"
	RequestInProgress ServiceRequestStatus = "IN_PROGRESS"
	RequestCompleted  ServiceRequestStatus = "COMPLETED"
	RequestDeclined   ServiceRequestStatus = "DECLINED"
	RequestCancelled  ServiceRequestStatus = "CANCELLED"
)

var requestTransitions = map[ServiceRequestStatus][]ServiceRequestStatus{
	RequestPending:    {RequestQuoted, RequestDeclined, RequestCancelled},
	RequestQuoted:     {RequestAccepted, RequestDeclined, RequestCancelled},
	RequestAccepted:   {RequestInProgress},
	RequestInProgress: {RequestCompleted},
}

func (s ServiceRequestStatus) CanTransition(to ServiceRequestStatus) bool {
	for _, t := range requestTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

func (s ServiceRequestStatus) Terminal() bool {
	return len(requestTransitions[s]) == 0
}

type QuoteStatus string

const (
	QuoteSent     QuoteStatus = "SENT"
	QuoteAccepted QuoteStatus = "ACCEPTED"
	QuoteDeclined QuoteStatus = "DECLINED"
)

type ServiceRecordStatus string

const (
	RecordDocumentedUnverified ServiceRecordStatus = "DOCUMENTED_UNVERIFIED"
	RecordDocumented           ServiceRecordStatus = "DOCUMENTED"
	RecordApproved             ServiceRecordStatus = "APPROVED"
	RecordRejected             ServiceRecordStatus = "REJECTED"
)

var recordTransitions = map[ServiceRecordStatus][]ServiceRecordStatus{
	RecordDocumentedUnverified: {RecordApproved, RecordRejected},
	RecordDocumented:           {RecordApproved, RecordRejected},
}

func (s ServiceRecordStatus) CanTransition(to ServiceRecordStatus) bool {
	for _, t := range recordTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

type WarrantyStatus string

const (
	WarrantyPending  WarrantyStatus = "PENDING"
	WarrantyActive   WarrantyStatus = "ACTIVE"
	WarrantyRejected WarrantyStatus = "REJECTED"
	WarrantyExpired  WarrantyStatus = "EXPIRED"
)

func (s WarrantyStatus) CanTransition(to WarrantyStatus) bool {
	if s != WarrantyPending {
		return false
	}
	return to == WarrantyActive || to == WarrantyRejected
}

type ReminderStatus string

const (
	ReminderPending ReminderStatus = "PENDING"
	ReminderDone    ReminderStatus = "DONE"
)

type TransferStatus string

const (
	TransferPending   TransferStatus = "PENDING"
	TransferAccepted  TransferStatus = "ACCEPTED"
	TransferCancelled TransferStatus = "CANCELLED"
)

func (s TransferStatus) CanTransition(to TransferStatus) bool {
	if s != TransferPending {
		return false
	}
	return to == TransferAccepted || to == TransferCancelled
}
