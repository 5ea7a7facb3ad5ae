package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	appdb "github.com/homefax/homefax/db"
	dbpkg "github.com/homefax/homefax/internal/db"
	"github.com/homefax/homefax/internal/repository/sqlite"
	"github.com/homefax/homefax/pkg/models"
)

type fixture struct {
	svc   *Service
	store *sqlite.SQLiteRepo
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	d, err := dbpkg.New(ctx, "file:wf_"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	if err := dbpkg.Migrate(ctx, d, appdb.Migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store := sqlite.New(d, nil)
	return &fixture{svc: New(store, nil), store: store, ctx: ctx}
}

func (f *fixture) user(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()
	id, err := f.store.CreateUser(f.ctx, &models.User{Email: email, Name: email, Role: role, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	u, err := f.store.GetUserByID(f.ctx, id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	return u
}

func (f *fixture) home(t *testing.T, ownerID int64) int64 {
	t.Helper()
	id, err := f.store.CreateHome(f.ctx, &models.Home{OwnerID: ownerID, Address: "1 Main St", City: "Austin", State: "TX", Zip: "78701", VerificationStatus: "UNVERIFIED"})
	if err != nil {
		t.Fatalf("create home: %v", err)
	}
	return id
}

func (f *fixture) connection(t *testing.T, homeID, ownerID, proID int64) *models.Connection {
	t.Helper()
	id, err := f.store.UpsertConnection(f.ctx, &models.Connection{HomeID: homeID, HomeownerID: ownerID, ContractorID: proID, Status: models.ConnectionActive})
	if err != nil {
		t.Fatalf("upsert connection: %v", err)
	}
	c, err := f.store.GetConnectionByID(f.ctx, id)
	if err != nil {
		t.Fatalf("get connection: %v", err)
	}
	return c
}

func TestCreateInvitationRejectsDuplicatePending(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", models.RoleHomeowner)
	home := f.home(t, owner.ID)

	in := CreateInvitationInput{HomeID: home, Email: "pro@example.com", Role: models.RolePro}
	if _, err := f.svc.CreateInvitation(f.ctx, owner, in); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := f.svc.CreateInvitation(f.ctx, owner, in)
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError on duplicate, got %v", err)
	}
}

func TestCreateInvitationAuthorization(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", models.RoleHomeowner)
	other := f.user(t, "other@example.com", models.RoleHomeowner)
	home := f.home(t, owner.ID)

	_, err := f.svc.CreateInvitation(f.ctx, other, CreateInvitationInput{HomeID: home, Email: "pro@example.com", Role: models.RolePro})
	var fe *models.ForbiddenError
	if !errors.As(err, &fe) {
		t.Fatalf("expected ForbiddenError for non-owner, got %v", err)
	}

	_, err = f.svc.CreateInvitation(f.ctx, owner, CreateInvitationInput{HomeID: home, Email: "x@example.com", Role: models.RoleAdmin})
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for ADMIN role, got %v", err)
	}
}

func TestAcceptInvitationEmailMatchIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", models.RoleHomeowner)
	pro := f.user(t, "Pro@Example.COM", models.RolePro)
	home := f.home(t, owner.ID)

	inv, err := f.svc.CreateInvitation(f.ctx, owner, CreateInvitationInput{HomeID: home, Email: "pro@example.com", Role: models.RolePro})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	conn, err := f.svc.AcceptInvitation(f.ctx, pro, AcceptInvitationInput{Token: inv.Token})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if conn.HomeownerID != owner.ID || conn.ContractorID != pro.ID {
		t.Fatalf("connection sides wrong: %+v", conn)
	}
}

func TestAcceptInvitationRejectsWrongUser(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", models.RoleHomeowner)
	stranger := f.user(t, "stranger@example.com", models.RolePro)
	home := f.home(t, owner.ID)

	inv, err := f.svc.CreateInvitation(f.ctx, owner, CreateInvitationInput{HomeID: home, Email: "pro@example.com", Role: models.RolePro})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.svc.AcceptInvitation(f.ctx, stranger, AcceptInvitationInput{Token: inv.Token})
	var fe *models.ForbiddenError
	if !errors.As(err, &fe) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
}

func TestAcceptInvitationExpired(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", models.RoleHomeowner)
	pro := f.user(t, "pro@example.com", models.RolePro)
	home := f.home(t, owner.ID)

	inv, err := f.svc.CreateInvitation(f.ctx, owner, CreateInvitationInput{HomeID: home, Email: "pro@example.com", Role: models.RolePro})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// jump past the expiry; nothing has flipped the stored status
	f.svc.nowFn = func() int64 { return time.Now().Add(8 * 24 * time.Hour).UnixMilli() }

	_, err = f.svc.AcceptInvitation(f.ctx, pro, AcceptInvitationInput{Token: inv.Token})
	var ee *models.ExpiredError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExpiredError, got %v", err)
	}

	stored, _ := f.store.GetInvitationByID(f.ctx, inv.ID)
	if stored.Status != models.InvitationPending {
		t.Fatalf("stored status = %s, expiry must stay lazy", stored.Status)
	}
}

func TestAcceptProInitiatedInvitationRequiresAddress(t *testing.T) {
	f := newFixture(t)
	pro := f.user(t, "pro@example.com", models.RolePro)
	owner := f.user(t, "owner@example.com", models.RoleHomeowner)

	inv, err := f.svc.CreateInvitation(f.ctx, pro, CreateInvitationInput{Email: "owner@example.com", Role: models.RoleHomeowner})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.svc.AcceptInvitation(f.ctx, owner, AcceptInvitationInput{Token: inv.Token})
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError without address, got %v", err)
	}

	conn, err := f.svc.AcceptInvitation(f.ctx, owner, AcceptInvitationInput{
		Token: inv.Token, Address: "9 Oak Ave", City: "Austin", State: "TX", Zip: "78702",
	})
	if err != nil {
		t.Fatalf("accept with address: %v", err)
	}

	h, err := f.store.GetHomeByID(f.ctx, conn.HomeID)
	if err != nil {
		t.Fatalf("get home: %v", err)
	}
	if h.OwnerID != owner.ID {
		t.Fatalf("home owner = %d, want %d", h.OwnerID, owner.ID)
	}
	if h.VerificationStatus != "VERIFIED" || h.VerificationMethod != "ADDRESS_CONFIRMATION" {
		t.Fatalf("home not verified by address: %+v", h)
	}
}

func TestDeclineInvitationIsTerminal(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", models.RoleHomeowner)
	pro := f.user(t, "pro@example.com", models.RolePro)
	home := f.home(t, owner.ID)

	inv, err := f.svc.CreateInvitation(f.ctx, owner, CreateInvitationInput{HomeID: home, Email: "pro@example.com", Role: models.RolePro})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.svc.DeclineInvitation(f.ctx, pro, inv.Token); err != nil {
		t.Fatalf("decline: %v", err)
	}

	err = f.svc.DeclineInvitation(f.ctx, pro, inv.Token)
	var ise *models.InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStateError on re-decline, got %v", err)
	}

	if _, err := f.svc.AcceptInvitation(f.ctx, pro, AcceptInvitationInput{Token: inv.Token}); err == nil {
		t.Fatal("accept after decline must fail")
	}

	// cancel from a terminal state must fail too
	if err := f.svc.CancelInvitation(f.ctx, owner, inv.ID); err == nil {
		t.Fatal("cancel after decline must fail")
	}
}

func TestResendOnlyWhilePendingAndFresh(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", models.RoleHomeowner)
	home := f.home(t, owner.ID)

	inv, err := f.svc.CreateInvitation(f.ctx, owner, CreateInvitationInput{HomeID: home, Email: "pro@example.com", Role: models.RolePro})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := f.svc.ResendInvitation(f.ctx, owner, inv.ID)
	if err != nil {
		t.Fatalf("resend: %v", err)
	}
	if got.Token != inv.Token || got.ExpiresAt != inv.ExpiresAt {
		t.Fatal("resend must not rotate token or expiry")
	}

	f.svc.nowFn = func() int64 { return time.Now().Add(8 * 24 * time.Hour).UnixMilli() }
	_, err = f.svc.ResendInvitation(f.ctx, owner, inv.ID)
	var ee *models.ExpiredError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExpiredError resending stale invite, got %v", err)
	}
}

func TestAcceptExpiredQuoteLeavesRequestQuoted(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", models.RoleHomeowner)
	pro := f.user(t, "pro@example.com", models.RolePro)
	home := f.home(t, owner.ID)
	conn := f.connection(t, home, owner.ID, pro.ID)

	req, err := f.svc.CreateServiceRequest(f.ctx, owner, CreateServiceRequestInput{ConnectionID: conn.ID, Title: "Fix sink"})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	past := time.Now().Add(-time.Hour).UnixMilli()
	q, err := f.svc.SubmitQuote(f.ctx, pro, QuoteInput{ServiceRequestID: req.ID, TotalCents: 5000, ExpiresAt: &past})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	err = f.svc.AcceptQuote(f.ctx, owner, q.ID)
	var ee *models.ExpiredError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExpiredError, got %v", err)
	}

	stored, _ := f.store.GetServiceRequestByID(f.ctx, req.ID)
	if stored.Status != models.RequestQuoted {
		t.Fatalf("request status = %s, want QUOTED", stored.Status)
	}
}

func TestQuoteEditOnlyWhileQuoted(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", models.RoleHomeowner)
	pro := f.user(t, "pro@example.com", models.RolePro)
	home := f.home(t, owner.ID)
	conn := f.connection(t, home, owner.ID, pro.ID)

	req, err := f.svc.CreateServiceRequest(f.ctx, owner, CreateServiceRequestInput{ConnectionID: conn.ID, Title: "New fence"})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	q, err := f.svc.SubmitQuote(f.ctx, pro, QuoteInput{ServiceRequestID: req.ID, TotalCents: 5000})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	updated, err := f.svc.UpdateQuote(f.ctx, pro, q.ID, QuoteInput{TotalCents: 6000, Notes: "lumber went up"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.TotalCents != 6000 {
		t.Fatalf("total = %d, want 6000", updated.TotalCents)
	}

	if err := f.svc.AcceptQuote(f.ctx, owner, q.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_, err = f.svc.UpdateQuote(f.ctx, pro, q.ID, QuoteInput{TotalCents: 7000})
	var ise *models.InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStateError editing accepted quote, got %v", err)
	}
}

func TestQuoteItemsMustSumToTotal(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", models.RoleHomeowner)
	pro := f.user(t, "pro@example.com", models.RolePro)
	home := f.home(t, owner.ID)
	conn := f.connection(t, home, owner.ID, pro.ID)

	req, err := f.svc.CreateServiceRequest(f.ctx, owner, CreateServiceRequestInput{ConnectionID: conn.ID, Title: "Water heater"})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	_, err = f.svc.SubmitQuote(f.ctx, pro, QuoteInput{
		ServiceRequestID: req.ID,
		TotalCents:       120000,
		Items: []models.QuoteItem{
			{Item: "Labor", Qty: 1, UnitPriceCents: 40000, TotalCents: 40000},
			{Item: "Parts", Qty: 1, UnitPriceCents: 70000, TotalCents: 70000},
		},
	})
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError on mismatched items, got %v", err)
	}
}

func TestRequestLifecycleStartComplete(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", models.RoleHomeowner)
	pro := f.user(t, "pro@example.com", models.RolePro)
	home := f.home(t, owner.ID)
	conn := f.connection(t, home, owner.ID, pro.ID)

	req, err := f.svc.CreateServiceRequest(f.ctx, owner, CreateServiceRequestInput{ConnectionID: conn.ID, Title: "Repaint"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// cannot start before acceptance
	if err := f.svc.StartWork(f.ctx, pro, req.ID); err == nil {
		t.Fatal("start from PENDING must fail")
	}

	q, err := f.svc.SubmitQuote(f.ctx, pro, QuoteInput{ServiceRequestID: req.ID, TotalCents: 100})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if err := f.svc.AcceptQuote(f.ctx, owner, q.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := f.svc.StartWork(f.ctx, pro, req.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.svc.CompleteWork(f.ctx, pro, req.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	stored, _ := f.store.GetServiceRequestByID(f.ctx, req.ID)
	if stored.Status != models.RequestCompleted {
		t.Fatalf("status = %s, want COMPLETED", stored.Status)
	}

	// COMPLETED is terminal
	if err := f.svc.CancelRequest(f.ctx, owner, req.ID); err == nil {
		t.Fatal("cancel from COMPLETED must fail")
	}
}

func TestApproveRecordRequiresHomeownerSide(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", models.RoleHomeowner)
	pro := f.user(t, "pro@example.com", models.RolePro)
	home := f.home(t, owner.ID)
	conn := f.connection(t, home, owner.ID, pro.ID)

	rec, err := f.svc.CreateServiceRecord(f.ctx, pro, CreateServiceRecordInput{
		ConnectionID: conn.ID, ServiceType: "HVAC", ServiceDate: time.Now().UnixMilli(),
	})
	if err != nil {
		t.Fatalf("create record: %v", err)
	}

	// the contractor cannot approve their own work
	_, err = f.svc.ApproveServiceRecord(f.ctx, pro, rec.ID)
	var fe *models.ForbiddenError
	if !errors.As(err, &fe) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}

	approved, err := f.svc.ApproveServiceRecord(f.ctx, owner, rec.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !approved.IsVerified {
		t.Fatal("record not verified")
	}
}

func TestWarrantyDecision(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com", models.RoleHomeowner)
	pro := f.user(t, "pro@example.com", models.RolePro)
	home := f.home(t, owner.ID)
	conn := f.connection(t, home, owner.ID, pro.ID)

	rec, err := f.svc.CreateServiceRecord(f.ctx, pro, CreateServiceRecordInput{
		ConnectionID: conn.ID, ServiceType: "Roofing", ServiceDate: time.Now().UnixMilli(),
	})
	if err != nil {
		t.Fatalf("create record: %v", err)
	}

	w, err := f.svc.CreateWarranty(f.ctx, pro, CreateWarrantyInput{
		ServiceRecordID: rec.ID, Item: "Shingles", Provider: "Acme",
	})
	if err != nil {
		t.Fatalf("create warranty: %v", err)
	}

	if err := f.svc.DecideWarranty(f.ctx, owner, w.ID, true); err != nil {
		t.Fatalf("accept: %v", err)
	}

	err = f.svc.DecideWarranty(f.ctx, owner, w.ID, false)
	var ise *models.InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStateError re-deciding, got %v", err)
	}
}

func TestTransferLifecycle(t *testing.T) {
	f := newFixture(t)
	seller := f.user(t, "seller@example.com", models.RoleHomeowner)
	buyer := f.user(t, "buyer@example.com", models.RoleHomeowner)
	home := f.home(t, seller.ID)

	tr, err := f.svc.CreateTransfer(f.ctx, seller, CreateTransferInput{HomeID: home, ToEmail: "buyer@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// wrong recipient
	if err := f.svc.AcceptTransfer(f.ctx, seller, tr.Token); err == nil {
		t.Fatal("initiator must not accept their own transfer")
	}

	if err := f.svc.AcceptTransfer(f.ctx, buyer, tr.Token); err != nil {
		t.Fatalf("accept: %v", err)
	}

	h, _ := f.store.GetHomeByID(f.ctx, home)
	if h.OwnerID != buyer.ID {
		t.Fatalf("owner = %d, want %d", h.OwnerID, buyer.ID)
	}

	// cancel after acceptance must fail
	if err := f.svc.CancelTransfer(f.ctx, seller, tr.ID); err == nil {
		t.Fatal("cancel from ACCEPTED must fail")
	}
}
