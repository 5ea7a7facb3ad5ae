package sqlite

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	appdb "github.com/homefax/homefax/db"
	dbpkg "github.com/homefax/homefax/internal/db"
	"github.com/homefax/homefax/pkg/models"
	"github.com/homefax/homefax/pkg/repository"
)

func newTestRepo(t *testing.T) (*SQLiteRepo, context.Context) {
	t.Helper()
	ctx := context.Background()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	d, err := dbpkg.New(ctx, "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	if err := dbpkg.Migrate(ctx, d, appdb.Migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(d, nil), ctx
}

func mustCreateUser(t *testing.T, ctx context.Context, r *SQLiteRepo, email string, role models.Role) int64 {
	t.Helper()
	id, err := r.CreateUser(ctx, &models.User{Email: email, Name: email, Role: role, PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return id
}

func mustCreateHome(t *testing.T, ctx context.Context, r *SQLiteRepo, ownerID int64, address string) int64 {
	t.Helper()
	id, err := r.CreateHome(ctx, &models.Home{OwnerID: ownerID, Address: address, City: "Austin", State: "TX", Zip: "78701", VerificationStatus: "UNVERIFIED"})
	if err != nil {
		t.Fatalf("create home: %v", err)
	}
	return id
}

func mustCreateConnection(t *testing.T, ctx context.Context, r *SQLiteRepo, homeID, ownerID, proID int64) int64 {
	t.Helper()
	id, err := r.UpsertConnection(ctx, &models.Connection{HomeID: homeID, HomeownerID: ownerID, ContractorID: proID, Status: models.ConnectionActive})
	if err != nil {
		t.Fatalf("upsert connection: %v", err)
	}
	return id
}

func TestUserEmailLookupIsCaseInsensitive(t *testing.T) {
	r, ctx := newTestRepo(t)

	mustCreateUser(t, ctx, r, "Owner@Example.com", models.RoleHomeowner)

	u, err := r.GetUserByEmail(ctx, "owner@example.COM")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}
	if u.Email != "Owner@Example.com" {
		t.Fatalf("stored email changed: %q", u.Email)
	}
}

func TestAcceptInvitationCreatesExactlyOneConnection(t *testing.T) {
	r, ctx := newTestRepo(t)

	owner := mustCreateUser(t, ctx, r, "owner@example.com", models.RoleHomeowner)
	pro := mustCreateUser(t, ctx, r, "pro@example.com", models.RolePro)
	home := mustCreateHome(t, ctx, r, owner, "1 Main St")

	invID, err := r.CreateInvitation(ctx, &models.Invitation{
		HomeID:       home,
		InvitedEmail: "pro@example.com",
		InvitedBy:    owner,
		Role:         models.RolePro,
		Status:       models.InvitationPending,
		Token:        "tok-1",
		ExpiresAt:    time.Now().Add(time.Hour).UnixMilli(),
	})
	if err != nil {
		t.Fatalf("create invitation: %v", err)
	}

	conn, err := r.AcceptInvitation(ctx, invID, nil, home, owner, pro)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if conn.Status != models.ConnectionActive {
		t.Fatalf("connection status = %s, want ACTIVE", conn.Status)
	}

	inv, err := r.GetInvitationByID(ctx, invID)
	if err != nil {
		t.Fatalf("get invitation: %v", err)
	}
	if inv.Status != models.InvitationAccepted {
		t.Fatalf("invitation status = %s, want ACCEPTED", inv.Status)
	}
	if inv.AcceptedAt == nil {
		t.Fatal("accepted_at not stamped")
	}

	// second accept must fail and must not add a connection row
	if _, err := r.AcceptInvitation(ctx, invID, nil, home, owner, pro); err == nil {
		t.Fatal("expected error accepting twice")
	}

	var n int64
	row := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM connections WHERE home_id = ? AND homeowner_id = ? AND contractor_id = ?`, home, owner, pro)
	if err := row.Scan(&n); err != nil {
		t.Fatalf("count connections: %v", err)
	}
	if n != 1 {
		t.Fatalf("got %d connection rows for the triple, want 1", n)
	}
}

func TestAcceptInvitationCreatesHomeInSameTransaction(t *testing.T) {
	r, ctx := newTestRepo(t)

	owner := mustCreateUser(t, ctx, r, "owner@example.com", models.RoleHomeowner)
	pro := mustCreateUser(t, ctx, r, "pro@example.com", models.RolePro)

	// pro-initiated invite: no home until the homeowner accepts
	invID, err := r.CreateInvitation(ctx, &models.Invitation{
		InvitedEmail: "owner@example.com",
		InvitedBy:    pro,
		Role:         models.RoleHomeowner,
		Status:       models.InvitationPending,
		Token:        "tok-2",
		ExpiresAt:    time.Now().Add(time.Hour).UnixMilli(),
	})
	if err != nil {
		t.Fatalf("create invitation: %v", err)
	}

	newHome := &models.Home{OwnerID: owner, Address: "9 Oak Ave", City: "Austin", State: "TX", Zip: "78702", VerificationStatus: "UNVERIFIED"}
	conn, err := r.AcceptInvitation(ctx, invID, newHome, 0, owner, pro)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if newHome.ID == 0 {
		t.Fatal("home id not assigned")
	}
	if conn.HomeID != newHome.ID {
		t.Fatalf("connection home = %d, want %d", conn.HomeID, newHome.ID)
	}

	h, err := r.GetHomeByID(ctx, newHome.ID)
	if err != nil {
		t.Fatalf("get home: %v", err)
	}
	if h.VerifiedAt != nil {
		t.Fatal("unverified home got a verified_at stamp")
	}

	inv, err := r.GetInvitationByID(ctx, invID)
	if err != nil {
		t.Fatalf("get invitation: %v", err)
	}
	if inv.HomeID != newHome.ID {
		t.Fatalf("invitation home = %d, want %d", inv.HomeID, newHome.ID)
	}
}

func TestSetInvitationStatusGuardsTerminalStates(t *testing.T) {
	r, ctx := newTestRepo(t)

	owner := mustCreateUser(t, ctx, r, "owner@example.com", models.RoleHomeowner)
	home := mustCreateHome(t, ctx, r, owner, "1 Main St")

	invID, err := r.CreateInvitation(ctx, &models.Invitation{
		HomeID: home, InvitedEmail: "pro@example.com", InvitedBy: owner,
		Role: models.RolePro, Status: models.InvitationPending, Token: "tok-3",
		ExpiresAt: time.Now().Add(time.Hour).UnixMilli(),
	})
	if err != nil {
		t.Fatalf("create invitation: %v", err)
	}

	if err := r.SetInvitationStatus(ctx, invID, models.InvitationPending, models.InvitationDeclined); err != nil {
		t.Fatalf("decline: %v", err)
	}

	err = r.SetInvitationStatus(ctx, invID, models.InvitationPending, models.InvitationCancelled)
	var ise *models.InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
	if ise.From != string(models.InvitationDeclined) {
		t.Fatalf("error reports from=%s, want DECLINED", ise.From)
	}
}

func TestSubmitQuoteMovesRequestAndRejectsSecondQuote(t *testing.T) {
	r, ctx := newTestRepo(t)

	owner := mustCreateUser(t, ctx, r, "owner@example.com", models.RoleHomeowner)
	pro := mustCreateUser(t, ctx, r, "pro@example.com", models.RolePro)
	home := mustCreateHome(t, ctx, r, owner, "1 Main St")
	conn := mustCreateConnection(t, ctx, r, home, owner, pro)

	reqID, err := r.CreateServiceRequest(ctx, &models.ServiceRequest{
		ConnectionID: conn, HomeID: home, HomeownerID: owner, ContractorID: pro,
		Title: "Fix water heater", Urgency: "HIGH", Status: models.RequestPending,
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	quote := &models.Quote{
		ServiceRequestID: reqID, ContractorID: pro, TotalCents: 120000, Status: models.QuoteSent,
		Items: []models.QuoteItem{
			{Item: "Labor", Qty: 1, UnitPriceCents: 40000, TotalCents: 40000},
			{Item: "Parts", Qty: 1, UnitPriceCents: 80000, TotalCents: 80000},
		},
	}
	if _, err := r.SubmitQuote(ctx, quote); err != nil {
		t.Fatalf("submit quote: %v", err)
	}

	req, err := r.GetServiceRequestByID(ctx, reqID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if req.Status != models.RequestQuoted {
		t.Fatalf("request status = %s, want QUOTED", req.Status)
	}
	if req.RespondedAt == nil {
		t.Fatal("responded_at not stamped")
	}

	got, err := r.GetQuoteByRequest(ctx, reqID)
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}
	if len(got.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(got.Items))
	}
	if got.TotalCents != 120000 {
		t.Fatalf("total = %d, want 120000", got.TotalCents)
	}

	// the request is no longer PENDING, so a second quote must be refused
	// and must not leave a row behind
	second := &models.Quote{ServiceRequestID: reqID, ContractorID: pro, TotalCents: 1, Status: models.QuoteSent}
	if _, err := r.SubmitQuote(ctx, second); err == nil {
		t.Fatal("expected error submitting second quote")
	}
	var n int64
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM quotes WHERE service_request_id = ?`, reqID).Scan(&n); err != nil {
		t.Fatalf("count quotes: %v", err)
	}
	if n != 1 {
		t.Fatalf("got %d quotes, want 1", n)
	}
}

func TestAcceptQuoteMovesBothRows(t *testing.T) {
	r, ctx := newTestRepo(t)

	owner := mustCreateUser(t, ctx, r, "owner@example.com", models.RoleHomeowner)
	pro := mustCreateUser(t, ctx, r, "pro@example.com", models.RolePro)
	home := mustCreateHome(t, ctx, r, owner, "1 Main St")
	conn := mustCreateConnection(t, ctx, r, home, owner, pro)

	reqID, err := r.CreateServiceRequest(ctx, &models.ServiceRequest{
		ConnectionID: conn, HomeID: home, HomeownerID: owner, ContractorID: pro,
		Title: "Roof repair", Urgency: "MEDIUM", Status: models.RequestPending,
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	quote := &models.Quote{ServiceRequestID: reqID, ContractorID: pro, TotalCents: 50000, Status: models.QuoteSent}
	if _, err := r.SubmitQuote(ctx, quote); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := r.AcceptQuote(ctx, quote.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	req, _ := r.GetServiceRequestByID(ctx, reqID)
	if req.Status != models.RequestAccepted {
		t.Fatalf("request status = %s, want ACCEPTED", req.Status)
	}
	q, _ := r.GetQuoteByID(ctx, quote.ID)
	if q.Status != models.QuoteAccepted {
		t.Fatalf("quote status = %s, want ACCEPTED", q.Status)
	}

	// accepting again hits the guarded request update
	if err := r.AcceptQuote(ctx, quote.ID); err == nil {
		t.Fatal("expected error accepting twice")
	}
}

func TestApproveServiceRecordAppliesRollups(t *testing.T) {
	r, ctx := newTestRepo(t)

	owner := mustCreateUser(t, ctx, r, "owner@example.com", models.RoleHomeowner)
	pro := mustCreateUser(t, ctx, r, "pro@example.com", models.RolePro)
	home := mustCreateHome(t, ctx, r, owner, "1 Main St")
	connID := mustCreateConnection(t, ctx, r, home, owner, pro)

	// pre-seed the rollups so the deltas are visible
	if _, err := r.conn.Exec(ctx,
		`UPDATE connections SET verified_service_count = 2, total_spent_cents = 120000, last_service_date = 1000 WHERE id = ?`, connID); err != nil {
		t.Fatalf("seed rollups: %v", err)
	}

	cost := int64(25000)
	recID, err := r.CreateServiceRecord(ctx, &models.ServiceRecord{
		HomeID: home, ContractorID: pro, ConnectionID: connID,
		ServiceType: "HVAC", CostCents: &cost, ServiceDate: 2000,
		Status: models.RecordDocumentedUnverified,
	})
	if err != nil {
		t.Fatalf("create record: %v", err)
	}

	rec, err := r.ApproveServiceRecord(ctx, recID, owner)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if rec.Status != models.RecordApproved || !rec.IsVerified {
		t.Fatalf("record not approved: status=%s verified=%v", rec.Status, rec.IsVerified)
	}
	if rec.ApprovedBy == nil || *rec.ApprovedBy != owner {
		t.Fatal("approved_by not stamped")
	}

	conn, err := r.GetConnectionByID(ctx, connID)
	if err != nil {
		t.Fatalf("get connection: %v", err)
	}
	if conn.VerifiedServiceCount != 3 {
		t.Fatalf("verified count = %d, want 3", conn.VerifiedServiceCount)
	}
	if conn.TotalSpentCents != 145000 {
		t.Fatalf("total spent = %d, want 145000", conn.TotalSpentCents)
	}
	if conn.LastServiceDate == nil || *conn.LastServiceDate != 2000 {
		t.Fatalf("last service date = %v, want 2000", conn.LastServiceDate)
	}

	// double approval must not inflate the rollups
	if _, err := r.ApproveServiceRecord(ctx, recID, owner); err == nil {
		t.Fatal("expected error approving twice")
	}
	conn, _ = r.GetConnectionByID(ctx, connID)
	if conn.VerifiedServiceCount != 3 || conn.TotalSpentCents != 145000 {
		t.Fatalf("rollups changed on failed approve: count=%d spent=%d", conn.VerifiedServiceCount, conn.TotalSpentCents)
	}
}

func TestApproveServiceRecordKeepsLaterServiceDate(t *testing.T) {
	r, ctx := newTestRepo(t)

	owner := mustCreateUser(t, ctx, r, "owner@example.com", models.RoleHomeowner)
	pro := mustCreateUser(t, ctx, r, "pro@example.com", models.RolePro)
	home := mustCreateHome(t, ctx, r, owner, "1 Main St")
	connID := mustCreateConnection(t, ctx, r, home, owner, pro)

	if _, err := r.conn.Exec(ctx, `UPDATE connections SET last_service_date = 5000 WHERE id = ?`, connID); err != nil {
		t.Fatalf("seed: %v", err)
	}

	recID, err := r.CreateServiceRecord(ctx, &models.ServiceRecord{
		HomeID: home, ContractorID: pro, ConnectionID: connID,
		ServiceType: "Plumbing", ServiceDate: 2000,
		Status: models.RecordDocumentedUnverified,
	})
	if err != nil {
		t.Fatalf("create record: %v", err)
	}
	if _, err := r.ApproveServiceRecord(ctx, recID, owner); err != nil {
		t.Fatalf("approve: %v", err)
	}

	conn, _ := r.GetConnectionByID(ctx, connID)
	if conn.LastServiceDate == nil || *conn.LastServiceDate != 5000 {
		t.Fatalf("last service date = %v, want 5000 (older record must not move it back)", conn.LastServiceDate)
	}
}

func TestWarrantyStatusGuard(t *testing.T) {
	r, ctx := newTestRepo(t)

	owner := mustCreateUser(t, ctx, r, "owner@example.com", models.RoleHomeowner)
	pro := mustCreateUser(t, ctx, r, "pro@example.com", models.RolePro)
	home := mustCreateHome(t, ctx, r, owner, "1 Main St")
	connID := mustCreateConnection(t, ctx, r, home, owner, pro)

	recID, err := r.CreateServiceRecord(ctx, &models.ServiceRecord{
		HomeID: home, ContractorID: pro, ConnectionID: connID,
		ServiceType: "Roofing", ServiceDate: 1, Status: models.RecordDocumentedUnverified,
	})
	if err != nil {
		t.Fatalf("create record: %v", err)
	}

	wID, err := r.CreateWarranty(ctx, &models.Warranty{
		ServiceRecordID: recID, HomeID: home, ContractorID: pro,
		Item: "Shingles", Provider: "Acme", Status: models.WarrantyPending,
	})
	if err != nil {
		t.Fatalf("create warranty: %v", err)
	}

	if err := r.SetWarrantyStatus(ctx, wID, models.WarrantyPending, models.WarrantyActive); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if err := r.SetWarrantyStatus(ctx, wID, models.WarrantyPending, models.WarrantyRejected); err == nil {
		t.Fatal("expected error re-deciding warranty")
	}
}

func TestThreadsAndUnreadCounts(t *testing.T) {
	r, ctx := newTestRepo(t)

	owner := mustCreateUser(t, ctx, r, "owner@example.com", models.RoleHomeowner)
	pro := mustCreateUser(t, ctx, r, "pro@example.com", models.RolePro)
	home := mustCreateHome(t, ctx, r, owner, "1 Main St")
	connID := mustCreateConnection(t, ctx, r, home, owner, pro)

	th, err := r.EnsureThread(ctx, connID)
	if err != nil {
		t.Fatalf("ensure thread: %v", err)
	}
	again, err := r.EnsureThread(ctx, connID)
	if err != nil {
		t.Fatalf("ensure thread again: %v", err)
	}
	if th.ID != again.ID {
		t.Fatalf("EnsureThread created a second thread: %d vs %d", th.ID, again.ID)
	}

	for _, body := range []string{"hi", "photos attached", "thanks"} {
		if _, err := r.CreateMessage(ctx, &models.Message{ThreadID: th.ID, SenderID: pro, Body: body}); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	n, err := r.UnreadCount(ctx, th.ID, owner)
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if n != 3 {
		t.Fatalf("unread = %d, want 3", n)
	}

	if err := r.MarkThreadRead(ctx, th.ID, owner); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	n, _ = r.UnreadCount(ctx, th.ID, owner)
	if n != 0 {
		t.Fatalf("unread after read = %d, want 0", n)
	}

	// marking again must not error or duplicate read rows
	if err := r.MarkThreadRead(ctx, th.ID, owner); err != nil {
		t.Fatalf("mark read twice: %v", err)
	}
}

func TestAcceptTransferMovesOwnership(t *testing.T) {
	r, ctx := newTestRepo(t)

	seller := mustCreateUser(t, ctx, r, "seller@example.com", models.RoleHomeowner)
	buyer := mustCreateUser(t, ctx, r, "buyer@example.com", models.RoleHomeowner)
	home := mustCreateHome(t, ctx, r, seller, "1 Main St")

	trID, err := r.CreateTransfer(ctx, &models.HomeTransfer{
		HomeID: home, FromOwnerID: seller, ToEmail: "buyer@example.com",
		Token: "tr-1", Status: models.TransferPending,
		ExpiresAt: time.Now().Add(time.Hour).UnixMilli(),
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	if err := r.AcceptTransfer(ctx, trID, buyer); err != nil {
		t.Fatalf("accept: %v", err)
	}

	h, err := r.GetHomeByID(ctx, home)
	if err != nil {
		t.Fatalf("get home: %v", err)
	}
	if h.OwnerID != buyer {
		t.Fatalf("owner = %d, want %d", h.OwnerID, buyer)
	}

	tr, _ := r.GetTransferByID(ctx, trID)
	if tr.Status != models.TransferAccepted {
		t.Fatalf("transfer status = %s, want ACCEPTED", tr.Status)
	}

	if err := r.AcceptTransfer(ctx, trID, seller); err == nil {
		t.Fatal("expected error accepting twice")
	}
	h, _ = r.GetHomeByID(ctx, home)
	if h.OwnerID != buyer {
		t.Fatal("failed accept moved ownership")
	}
}

func TestAdminListUsersFiltersAndCounts(t *testing.T) {
	r, ctx := newTestRepo(t)

	mustCreateUser(t, ctx, r, "owner@example.com", models.RoleHomeowner)
	for _, email := range []string{"a@pro.com", "b@pro.com", "c@pro.com"} {
		id := mustCreateUser(t, ctx, r, email, models.RolePro)
		if err := r.SetProStatus(ctx, id, models.ProPending); err != nil {
			t.Fatalf("set status: %v", err)
		}
	}
	id := mustCreateUser(t, ctx, r, "d@pro.com", models.RolePro)
	if err := r.SetProStatus(ctx, id, models.ProApproved); err != nil {
		t.Fatalf("set status: %v", err)
	}

	users, total, err := r.ListUsers(ctx, repository.UserFilter{
		Role: models.RolePro,
		Page: repository.Page{Take: 2},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 4 {
		t.Fatalf("total = %d, want 4", total)
	}
	if len(users) != 2 {
		t.Fatalf("page size = %d, want 2", len(users))
	}

	users, total, err = r.ListUsers(ctx, repository.UserFilter{Search: "OWNER"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].Email != "owner@example.com" {
		t.Fatalf("search miss: total=%d users=%v", total, users)
	}

	counts, err := r.CountUsersByProStatus(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts[string(models.ProPending)] != 3 || counts[string(models.ProApproved)] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestAdminListContractorsJoinsProfile(t *testing.T) {
	r, ctx := newTestRepo(t)

	pro := mustCreateUser(t, ctx, r, "pro@example.com", models.RolePro)
	if _, err := r.CreateProProfile(ctx, &models.ProProfile{
		UserID: pro, BusinessName: "Ace Plumbing", ProType: models.ProContractor,
		Specialties: []string{"plumbing"}, ServiceAreas: []string{"78701"},
	}); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	items, total, err := r.ListContractors(ctx, repository.ContractorFilter{Search: "ace"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("total=%d len=%d, want 1/1", total, len(items))
	}
	if items[0].User.Email != "pro@example.com" || items[0].Profile.BusinessName != "Ace Plumbing" {
		t.Fatalf("bad row: %+v", items[0])
	}
	if len(items[0].Profile.Specialties) != 1 {
		t.Fatal("specialties not decoded")
	}
}
