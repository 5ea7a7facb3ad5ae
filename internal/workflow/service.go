package workflow

import (
	"context"
	"strings"

	"github.com/homefax/homefax/pkg/models"
)

type CreateServiceRequestInput struct {
	ConnectionID   int64  `json:"connection_id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Urgency        string `json:"urgency,omitempty"`
	BudgetMinCents *int64 `json:"budget_min_cents,omitempty"`
	BudgetMaxCents *int64 `json:"budget_max_cents,omitempty"`
}

var urgencies = map[string]bool{"LOW": true, "NORMAL": true, "MEDIUM": true, "HIGH": true, "EMERGENCY": true}

// CreateServiceRequest opens a request on an active connection the
// homeowner belongs to.
func (s *Service) CreateServiceRequest(ctx context.Context, owner *models.User, in CreateServiceRequestInput) (*models.ServiceRequest, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, &models.ValidationError{Msg: "title is required"}
	}
	urgency := in.Urgency
	if urgency == "" {
		urgency = "NORMAL"
	}
	if !urgencies[urgency] {
		return nil, &models.ValidationError{Msg: "invalid urgency"}
	}
	if in.BudgetMinCents != nil && in.BudgetMaxCents != nil && *in.BudgetMinCents > *in.BudgetMaxCents {
		return nil, &models.ValidationError{Msg: "budget range is inverted"}
	}

	conn, err := s.store.GetConnectionByID(ctx, in.ConnectionID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, &models.NotFoundError{Entity: "connection"}
	}
	if conn.HomeownerID != owner.ID {
		return nil, &models.ForbiddenError{}
	}
	if conn.Status != models.ConnectionActive {
		return nil, &models.InvalidStateError{Entity: "connection", From: string(conn.Status), Action: "request service"}
	}

	req := &models.ServiceRequest{
		ConnectionID:   conn.ID,
		HomeID:         conn.HomeID,
		HomeownerID:    conn.HomeownerID,
		ContractorID:   conn.ContractorID,
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Urgency:        urgency,
		BudgetMinCents: in.BudgetMinCents,
		BudgetMaxCents: in.BudgetMaxCents,
		Status:         models.RequestPending,
	}
	id, err := s.store.CreateServiceRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	req.ID = id
	return req, nil
}

type QuoteInput struct {
	ServiceRequestID int64              `json:"service_request_id"`
	TotalCents       int64              `json:"total_cents"`
	Notes            string             `json:"notes,omitempty"`
	ExpiresAt        *int64             `json:"expires_at,omitempty"`
	Items            []models.QuoteItem `json:"items,omitempty"`
}

// SubmitQuote submits the contractor's quote on a pending request. The
// request moves to QUOTED in the same transaction; a request that
// already left PENDING refuses the quote.
func (s *Service) SubmitQuote(ctx context.Context, pro *models.User, in QuoteInput) (*models.Quote, error) {
	if in.TotalCents <= 0 {
		return nil, &models.ValidationError{Msg: "total must be positive"}
	}
	if err := checkQuoteItems(in.TotalCents, in.Items); err != nil {
		return nil, err
	}

	req, err := s.store.GetServiceRequestByID(ctx, in.ServiceRequestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, &models.NotFoundError{Entity: "service request"}
	}
	if req.ContractorID != pro.ID {
		return nil, &models.ForbiddenError{}
	}

	q := &models.Quote{
		ServiceRequestID: req.ID,
		ContractorID:     pro.ID,
		TotalCents:       in.TotalCents,
		Status:           models.QuoteSent,
		Notes:            in.Notes,
		ExpiresAt:        in.ExpiresAt,
		Items:            in.Items,
	}
	if _, err := s.store.SubmitQuote(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func checkQuoteItems(total int64, items []models.QuoteItem) error {
	if len(items) == 0 {
		return nil
	}
	var sum int64
	for _, it := range items {
		if strings.TrimSpace(it.Item) == "" {
			return &models.ValidationError{Msg: "quote item name is required"}
		}
		if it.Qty <= 0 || it.UnitPriceCents < 0 {
			return &models.ValidationError{Msg: "quote item quantity/price is invalid"}
		}
		sum += it.TotalCents
	}
	if sum != total {
		return &models.ValidationError{Msg: "quote items do not add up to the total"}
	}
	return nil
}

// UpdateQuote edits the contractor's quote. Editing is allowed only
// while the owning request is still QUOTED.
func (s *Service) UpdateQuote(ctx context.Context, pro *models.User, quoteID int64, in QuoteInput) (*models.Quote, error) {
	if in.TotalCents <= 0 {
		return nil, &models.ValidationError{Msg: "total must be positive"}
	}
	if err := checkQuoteItems(in.TotalCents, in.Items); err != nil {
		return nil, err
	}

	q, err := s.store.GetQuoteByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, &models.NotFoundError{Entity: "quote"}
	}
	if q.ContractorID != pro.ID {
		return nil, &models.ForbiddenError{}
	}

	req, err := s.store.GetServiceRequestByID(ctx, q.ServiceRequestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, &models.NotFoundError{Entity: "service request"}
	}
	if req.Status != models.RequestQuoted {
		return nil, &models.InvalidStateError{Entity: "service request", From: string(req.Status), Action: "edit quote"}
	}

	q.TotalCents = in.TotalCents
	q.Notes = in.Notes
	q.ExpiresAt = in.ExpiresAt
	q.Items = in.Items
	if err := s.store.UpdateQuote(ctx, q); err != nil {
		return nil, err
	}
	return s.store.GetQuoteByID(ctx, quoteID)
}

// AcceptQuote accepts a quote on behalf of the homeowner. An expired
// quote is refused and the request stays QUOTED.
func (s *Service) AcceptQuote(ctx context.Context, owner *models.User, quoteID int64) error {
	q, err := s.store.GetQuoteByID(ctx, quoteID)
	if err != nil {
		return err
	}
	if q == nil {
		return &models.NotFoundError{Entity: "quote"}
	}
	req, err := s.store.GetServiceRequestByID(ctx, q.ServiceRequestID)
	if err != nil {
		return err
	}
	if req == nil {
		return &models.NotFoundError{Entity: "service request"}
	}
	if req.HomeownerID != owner.ID {
		return &models.ForbiddenError{}
	}
	if q.Expired(s.now()) {
		return &models.ExpiredError{Entity: "quote"}
	}
	return s.store.AcceptQuote(ctx, quoteID)
}

// DeclineRequest declines a request from PENDING or QUOTED. Either side
// of the connection may decline; the transition is terminal.
func (s *Service) DeclineRequest(ctx context.Context, user *models.User, requestID int64) error {
	return s.closeRequest(ctx, user, requestID, models.RequestDeclined)
}

// CancelRequest cancels a request from PENDING or QUOTED.
func (s *Service) CancelRequest(ctx context.Context, user *models.User, requestID int64) error {
	return s.closeRequest(ctx, user, requestID, models.RequestCancelled)
}

func (s *Service) closeRequest(ctx context.Context, user *models.User, requestID int64, to models.ServiceRequestStatus) error {
	req, err := s.store.GetServiceRequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return &models.NotFoundError{Entity: "service request"}
	}
	if req.HomeownerID != user.ID && req.ContractorID != user.ID && user.Role != models.RoleAdmin {
		return &models.ForbiddenError{}
	}
	if !req.Status.CanTransition(to) {
		return &models.InvalidStateError{Entity: "service request", From: string(req.Status), Action: strings.ToLower(string(to))}
	}
	return s.store.SetServiceRequestStatus(ctx, requestID, req.Status, to, nil)
}

// StartWork moves an accepted request to IN_PROGRESS.
func (s *Service) StartWork(ctx context.Context, pro *models.User, requestID int64) error {
	return s.advanceRequest(ctx, pro, requestID, models.RequestAccepted, models.RequestInProgress)
}

// CompleteWork moves an in-progress request to COMPLETED.
func (s *Service) CompleteWork(ctx context.Context, pro *models.User, requestID int64) error {
	return s.advanceRequest(ctx, pro, requestID, models.RequestInProgress, models.RequestCompleted)
}

func (s *Service) advanceRequest(ctx context.Context, pro *models.User, requestID int64, from, to models.ServiceRequestStatus) error {
	req, err := s.store.GetServiceRequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return &models.NotFoundError{Entity: "service request"}
	}
	if req.ContractorID != pro.ID {
		return &models.ForbiddenError{}
	}
	return s.store.SetServiceRequestStatus(ctx, requestID, from, to, nil)
}

type CreateServiceRecordInput struct {
	ConnectionID     int64  `json:"connection_id"`
	ServiceRequestID *int64 `json:"service_request_id,omitempty"`
	ServiceType      string `json:"service_type"`
	Description      string `json:"description,omitempty"`
	CostCents        *int64 `json:"cost_cents,omitempty"`
	ServiceDate      int64  `json:"service_date"`
	WarrantyIncluded bool   `json:"warranty_included,omitempty"`
}

// CreateServiceRecord documents completed work on a connection, ad-hoc
// or linked to a service request. New records start unverified.
func (s *Service) CreateServiceRecord(ctx context.Context, pro *models.User, in CreateServiceRecordInput) (*models.ServiceRecord, error) {
	if strings.TrimSpace(in.ServiceType) == "" {
		return nil, &models.ValidationError{Msg: "service type is required"}
	}
	if in.ServiceDate == 0 {
		return nil, &models.ValidationError{Msg: "service date is required"}
	}
	if in.CostCents != nil && *in.CostCents < 0 {
		return nil, &models.ValidationError{Msg: "cost cannot be negative"}
	}

	conn, err := s.store.GetConnectionByID(ctx, in.ConnectionID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, &models.NotFoundError{Entity: "connection"}
	}
	if conn.ContractorID != pro.ID {
		return nil, &models.ForbiddenError{}
	}

	if in.ServiceRequestID != nil {
		req, err := s.store.GetServiceRequestByID(ctx, *in.ServiceRequestID)
		if err != nil {
			return nil, err
		}
		if req == nil {
			return nil, &models.NotFoundError{Entity: "service request"}
		}
		if req.ConnectionID != conn.ID {
			return nil, &models.ValidationError{Msg: "service request belongs to a different connection"}
		}
	}

	rec := &models.ServiceRecord{
		HomeID:           conn.HomeID,
		ContractorID:     pro.ID,
		ConnectionID:     conn.ID,
		ServiceRequestID: in.ServiceRequestID,
		ServiceType:      strings.TrimSpace(in.ServiceType),
		Description:      in.Description,
		CostCents:        in.CostCents,
		ServiceDate:      in.ServiceDate,
		Status:           models.RecordDocumentedUnverified,
		WarrantyIncluded: in.WarrantyIncluded,
	}
	id, err := s.store.CreateServiceRecord(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	return rec, nil
}

// ApproveServiceRecord verifies a record on behalf of the homeowner and
// applies the connection rollups atomically.
func (s *Service) ApproveServiceRecord(ctx context.Context, owner *models.User, recordID int64) (*models.ServiceRecord, error) {
	rec, err := s.store.GetServiceRecordByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &models.NotFoundError{Entity: "service record"}
	}
	conn, err := s.store.GetConnectionByID(ctx, rec.ConnectionID)
	if err != nil {
		return nil, err
	}
	if conn == nil || conn.HomeownerID != owner.ID {
		return nil, &models.ForbiddenError{}
	}
	return s.store.ApproveServiceRecord(ctx, recordID, owner.ID)
}

// RejectServiceRecord rejects an unverified record.
func (s *Service) RejectServiceRecord(ctx context.Context, owner *models.User, recordID int64) error {
	rec, err := s.store.GetServiceRecordByID(ctx, recordID)
	if err != nil {
		return err
	}
	if rec == nil {
		return &models.NotFoundError{Entity: "service record"}
	}
	conn, err := s.store.GetConnectionByID(ctx, rec.ConnectionID)
	if err != nil {
		return err
	}
	if conn == nil || conn.HomeownerID != owner.ID {
		return &models.ForbiddenError{}
	}
	return s.store.RejectServiceRecord(ctx, recordID)
}

type CreateWarrantyInput struct {
	ServiceRecordID int64  `json:"service_record_id"`
	Item            string `json:"item"`
	Provider        string `json:"provider"`
	PolicyNo        string `json:"policy_no,omitempty"`
	PurchasedAt     *int64 `json:"purchased_at,omitempty"`
	ExpiresAt       *int64 `json:"expires_at,omitempty"`
}

// CreateWarranty attaches warranty coverage to one of the contractor's
// service records. It starts PENDING until the homeowner decides.
func (s *Service) CreateWarranty(ctx context.Context, pro *models.User, in CreateWarrantyInput) (*models.Warranty, error) {
	if strings.TrimSpace(in.Item) == "" || strings.TrimSpace(in.Provider) == "" {
		return nil, &models.ValidationError{Msg: "item and provider are required"}
	}

	rec, err := s.store.GetServiceRecordByID(ctx, in.ServiceRecordID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &models.NotFoundError{Entity: "service record"}
	}
	if rec.ContractorID != pro.ID {
		return nil, &models.ForbiddenError{}
	}

	w := &models.Warranty{
		ServiceRecordID: rec.ID,
		HomeID:          rec.HomeID,
		ContractorID:    pro.ID,
		Item:            strings.TrimSpace(in.Item),
		Provider:        strings.TrimSpace(in.Provider),
		PolicyNo:        in.PolicyNo,
		PurchasedAt:     in.PurchasedAt,
		ExpiresAt:       in.ExpiresAt,
		Status:          models.WarrantyPending,
	}
	id, err := s.store.CreateWarranty(ctx, w)
	if err != nil {
		return nil, err
	}
	w.ID = id
	return w, nil
}

// DecideWarranty accepts or rejects a pending warranty on behalf of the
// homeowner.
func (s *Service) DecideWarranty(ctx context.Context, owner *models.User, warrantyID int64, accept bool) error {
	w, err := s.store.GetWarrantyByID(ctx, warrantyID)
	if err != nil {
		return err
	}
	if w == nil {
		return &models.NotFoundError{Entity: "warranty"}
	}
	home, err := s.store.GetHomeByID(ctx, w.HomeID)
	if err != nil {
		return err
	}
	if home == nil || home.OwnerID != owner.ID {
		return &models.ForbiddenError{}
	}

	to := models.WarrantyRejected
	if accept {
		to = models.WarrantyActive
	}
	return s.store.SetWarrantyStatus(ctx, warrantyID, models.WarrantyPending, to)
}
