// Package seed builds the deterministic QA data graph. Every row it
// writes carries Tag so a re-run can delete the whole graph child→parent
// and recreate it; nothing here touches rows it did not create.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/homefax/homefax/internal/config"
	"github.com/homefax/homefax/internal/db"
	"github.com/homefax/homefax/pkg/models"
)

// Tag marks every seeded row.
const Tag = "qa-seed"

const seedPassword = "Passw0rd!qa"

// Seeder writes the QA graph straight through the DB wrapper; going
// below the repository layer lets it set timestamps and rollups to the
// exact values the contract promises.
type Seeder struct {
	conn   *db.DB
	cfg    config.SeedConfig
	logger *slog.Logger
}

func New(conn *db.DB, cfg config.SeedConfig, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Seeder{conn: conn, cfg: cfg, logger: logger}
}

// Run applies the safety gates, resets the previous seeded graph, and
// seeds. Re-running replaces rather than duplicates.
func (s *Seeder) Run(ctx context.Context) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("refusing to seed: QA_SEED=1 not set")
	}
	if s.cfg.Env == "production" {
		return fmt.Errorf("refusing to seed a production environment")
	}

	if err := s.Reset(ctx); err != nil {
		return fmt.Errorf("reset seeded graph: %w", err)
	}
	if err := s.plant(ctx); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	s.logger.Info("qa seed complete", "domain", s.cfg.TestEmailDomain)
	return nil
}

// seedTables lists every seeded table child-first so deletes respect
// the foreign keys.
var seedTables = []string{
	"message_reads",
	"attachments",
	"messages",
	"threads",
	"warranties",
	"service_records",
	"quote_items",
	"quotes",
	"service_requests",
	"reminders",
	"contractor_reminders",
	"home_transfers",
	"connections",
	"invitations",
	"pro_profiles",
	"homes",
	"users",
}

// Reset deletes the previously seeded graph. Rows without the tag are
// never touched.
func (s *Seeder) Reset(ctx context.Context) error {
	for _, table := range seedTables {
		var err error
		switch table {
		// no seed_tag column; scope through the tagged parent
		case "message_reads":
			_, err = s.conn.Exec(ctx, `DELETE FROM message_reads WHERE message_id IN (SELECT id FROM messages WHERE seed_tag = ?)`, Tag)
		case "quote_items":
			_, err = s.conn.Exec(ctx, `DELETE FROM quote_items WHERE quote_id IN (SELECT id FROM quotes WHERE seed_tag = ?)`, Tag)
		default:
			_, err = s.conn.Exec(ctx, `DELETE FROM `+table+` WHERE seed_tag = ?`, Tag)
		}
		if err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) plant(ctx context.Context) error {
	now := time.Now().UTC().UnixMilli()
	day := int64(24 * time.Hour / time.Millisecond)

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	domain := s.cfg.TestEmailDomain

	// users
	owner, err := s.insert(ctx,
		`INSERT INTO users (email, name, role, pro_status, email_verified, password_hash, seed_tag, created, updated) VALUES (?, ?, ?, '', 1, ?, ?, ?, ?)`,
		"ho.primary@"+domain, "Seed Homeowner", models.RoleHomeowner, string(hash), Tag, now, now)
	if err != nil {
		return err
	}
	pro, err := s.insert(ctx,
		`INSERT INTO users (email, name, role, pro_status, email_verified, password_hash, seed_tag, created, updated) VALUES (?, ?, ?, ?, 1, ?, ?, ?, ?)`,
		"pro.contractor.approved@"+domain, "Seed Contractor", models.RolePro, models.ProApproved, string(hash), Tag, now, now)
	if err != nil {
		return err
	}
	if _, err := s.insert(ctx,
		`INSERT INTO pro_profiles (user_id, business_name, pro_type, verified, rating, specialties, service_areas, seed_tag, created, updated) VALUES (?, ?, ?, 1, 4.8, ?, ?, ?, ?, ?)`,
		pro, "Seed Contracting LLC", models.ProContractor, `["plumbing","hvac"]`, `["75001"]`, Tag, now, now); err != nil {
		return err
	}

	// home
	home, err := s.insert(ctx,
		`INSERT INTO homes (owner_id, address, city, state, zip, verification_status, verification_method, verified_at, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, 'VERIFIED', 'ADDRESS_CONFIRMATION', ?, ?, ?, ?)`,
		owner, "123 Seed St", "Testville", "TX", "75001", now, Tag, now, now)
	if err != nil {
		return err
	}

	// accepted invitation behind the connection
	if _, err := s.insert(ctx,
		`INSERT INTO invitations (home_id, invited_email, invited_by, role, status, token, expires_at, accepted_at, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		home, "pro.contractor.approved@"+domain, owner, models.RolePro, models.InvitationAccepted,
		"qa-seed-invitation-token", now+7*day, now, Tag, now, now); err != nil {
		return err
	}

	// active connection; rollups reflect the one approved record below
	conn, err := s.insert(ctx,
		`INSERT INTO connections (home_id, homeowner_id, contractor_id, status, verified_service_count, total_spent_cents, last_service_date, seed_tag, created, updated) VALUES (?, ?, ?, ?, 1, 120000, ?, ?, ?, ?)`,
		home, owner, pro, models.ConnectionActive, now-30*day, Tag, now, now)
	if err != nil {
		return err
	}

	// messaging: one thread, three messages
	thread, err := s.insert(ctx,
		`INSERT INTO threads (connection_id, seed_tag, created, updated) VALUES (?, ?, ?, ?)`,
		conn, Tag, now, now)
	if err != nil {
		return err
	}
	messages := []struct {
		sender int64
		body   string
	}{
		{owner, "Hi, the water heater is making noise again."},
		{pro, "I can swing by Thursday morning to take a look."},
		{owner, "Thursday works, thanks!"},
	}
	for i, m := range messages {
		if _, err := s.insert(ctx,
			`INSERT INTO messages (thread_id, sender_id, body, seed_tag, created) VALUES (?, ?, ?, ?, ?)`,
			thread, m.sender, m.body, Tag, now+int64(i)); err != nil {
			return err
		}
	}

	// two homeowner reminders
	for _, rem := range []struct {
		title string
		due   int64
	}{
		{"Replace HVAC filter", now + 30*day},
		{"Flush water heater", now + 90*day},
	} {
		if _, err := s.insert(ctx,
			`INSERT INTO reminders (home_id, created_by, title, due_at, status, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			home, owner, rem.title, rem.due, models.ReminderPending, Tag, now, now); err != nil {
			return err
		}
	}

	// three service requests: PENDING / QUOTED / COMPLETED
	if _, err := s.insert(ctx,
		`INSERT INTO service_requests (connection_id, home_id, homeowner_id, contractor_id, title, urgency, status, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, 'NORMAL', ?, ?, ?, ?)`,
		conn, home, owner, pro, "Inspect attic insulation", models.RequestPending, Tag, now, now); err != nil {
		return err
	}

	quotedReq, err := s.insert(ctx,
		`INSERT INTO service_requests (connection_id, home_id, homeowner_id, contractor_id, title, urgency, status, responded_at, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, 'HIGH', ?, ?, ?, ?, ?)`,
		conn, home, owner, pro, "Replace water heater", models.RequestQuoted, now, Tag, now, now)
	if err != nil {
		return err
	}

	if _, err := s.insert(ctx,
		`INSERT INTO service_requests (connection_id, home_id, homeowner_id, contractor_id, title, urgency, status, responded_at, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, 'NORMAL', ?, ?, ?, ?, ?)`,
		conn, home, owner, pro, "Annual HVAC service", models.RequestCompleted, now-30*day, Tag, now, now); err != nil {
		return err
	}

	// one quote: $1200 = $400 + $800
	quote, err := s.insert(ctx,
		`INSERT INTO quotes (service_request_id, contractor_id, total_cents, status, notes, expires_at, seed_tag, created, updated) VALUES (?, ?, 120000, ?, ?, ?, ?, ?, ?)`,
		quotedReq, pro, models.QuoteSent, "Includes haul-away of the old unit.", now+14*day, Tag, now, now)
	if err != nil {
		return err
	}
	for _, item := range []struct {
		name  string
		cents int64
	}{
		{"Labor", 40000},
		{"50-gal water heater", 80000},
	} {
		if _, err := s.insert(ctx,
			`INSERT INTO quote_items (quote_id, item, qty, unit_price_cents, total_cents) VALUES (?, ?, 1, ?, ?)`,
			quote, item.name, item.cents, item.cents); err != nil {
			return err
		}
	}

	// two service records: APPROVED $1200, DOCUMENTED_UNVERIFIED $250
	approvedRec, err := s.insert(ctx,
		`INSERT INTO service_records (home_id, contractor_id, connection_id, service_type, description, cost_cents, service_date, status, is_verified, approved_by, approved_at, warranty_included, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, 120000, ?, ?, 1, ?, ?, 1, ?, ?, ?)`,
		home, pro, conn, "HVAC", "Annual service and filter replacement", now-30*day, models.RecordApproved, owner, now-29*day, Tag, now, now)
	if err != nil {
		return err
	}
	unverifiedRec, err := s.insert(ctx,
		`INSERT INTO service_records (home_id, contractor_id, connection_id, service_type, description, cost_cents, service_date, status, is_verified, warranty_included, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, 25000, ?, ?, 0, 0, ?, ?, ?)`,
		home, pro, conn, "Plumbing", "Fixed kitchen faucet leak", now-5*day, models.RecordDocumentedUnverified, Tag, now, now)
	if err != nil {
		return err
	}

	// three warranties: PENDING / ACTIVE / REJECTED
	for _, w := range []struct {
		record int64
		item   string
		status models.WarrantyStatus
	}{
		{unverifiedRec, "Faucet cartridge", models.WarrantyPending},
		{approvedRec, "HVAC compressor", models.WarrantyActive},
		{approvedRec, "Duct sealing", models.WarrantyRejected},
	} {
		if _, err := s.insert(ctx,
			`INSERT INTO warranties (service_record_id, home_id, contractor_id, item, provider, status, purchased_at, expires_at, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			w.record, home, pro, w.item, "Seed Warranty Co", w.status, now-30*day, now+335*day, Tag, now, now); err != nil {
			return err
		}
	}

	return nil
}

func (s *Seeder) insert(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
