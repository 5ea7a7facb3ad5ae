package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appdb "github.com/homefax/homefax/db"
	"github.com/homefax/homefax/internal/config"
	dbpkg "github.com/homefax/homefax/internal/db"
)

func newSeeder(t *testing.T, cfg config.SeedConfig) (*Seeder, *dbpkg.DB, context.Context) {
	t.Helper()
	ctx := context.Background()

	d, err := dbpkg.New(ctx, "file:seed_"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	require.NoError(t, dbpkg.Migrate(ctx, d, appdb.Migrations))
	return New(d, cfg, nil), d, ctx
}

func count(t *testing.T, d *dbpkg.DB, ctx context.Context, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, d.QueryRow(ctx, query, args...).Scan(&n))
	return n
}

func TestRunRefusesWithoutGate(t *testing.T) {
	s, _, ctx := newSeeder(t, config.SeedConfig{Enabled: false, TestEmailDomain: "test.yourdomain.com"})
	assert.Error(t, s.Run(ctx))
}

func TestRunRefusesProduction(t *testing.T) {
	s, _, ctx := newSeeder(t, config.SeedConfig{Enabled: true, Env: "production", TestEmailDomain: "test.yourdomain.com"})
	assert.Error(t, s.Run(ctx))
}

func TestRunSeedsTheContractGraph(t *testing.T) {
	s, d, ctx := newSeeder(t, config.SeedConfig{Enabled: true, Env: "development", TestEmailDomain: "test.yourdomain.com"})
	require.NoError(t, s.Run(ctx))

	var email, role string
	require.NoError(t, d.QueryRow(ctx, `SELECT email, role FROM users WHERE email = ?`, "ho.primary@test.yourdomain.com").Scan(&email, &role))
	assert.Equal(t, "HOMEOWNER", role)

	var proStatus string
	require.NoError(t, d.QueryRow(ctx, `SELECT pro_status FROM users WHERE email = ?`, "pro.contractor.approved@test.yourdomain.com").Scan(&proStatus))
	assert.Equal(t, "APPROVED", proStatus)

	var address, city, state, zip string
	require.NoError(t, d.QueryRow(ctx, `SELECT address, city, state, zip FROM homes WHERE seed_tag = ?`, Tag).Scan(&address, &city, &state, &zip))
	assert.Equal(t, "123 Seed St", address)
	assert.Equal(t, "Testville", city)
	assert.Equal(t, "TX", state)
	assert.Equal(t, "75001", zip)

	var connStatus string
	var verifiedCount, totalSpent int64
	require.NoError(t, d.QueryRow(ctx, `SELECT status, verified_service_count, total_spent_cents FROM connections WHERE seed_tag = ?`, Tag).Scan(&connStatus, &verifiedCount, &totalSpent))
	assert.Equal(t, "ACTIVE", connStatus)
	assert.Equal(t, int64(1), verifiedCount)
	assert.Equal(t, int64(120000), totalSpent)

	assert.Equal(t, int64(3), count(t, d, ctx, `SELECT COUNT(1) FROM messages WHERE seed_tag = ?`, Tag))
	assert.Equal(t, int64(2), count(t, d, ctx, `SELECT COUNT(1) FROM reminders WHERE seed_tag = ?`, Tag))
	assert.Equal(t, int64(3), count(t, d, ctx, `SELECT COUNT(1) FROM service_requests WHERE seed_tag = ?`, Tag))

	for _, status := range []string{"PENDING", "QUOTED", "COMPLETED"} {
		assert.Equal(t, int64(1), count(t, d, ctx, `SELECT COUNT(1) FROM service_requests WHERE seed_tag = ? AND status = ?`, Tag, status), status)
	}

	var quoteTotal int64
	require.NoError(t, d.QueryRow(ctx, `SELECT total_cents FROM quotes WHERE seed_tag = ?`, Tag).Scan(&quoteTotal))
	assert.Equal(t, int64(120000), quoteTotal)
	var itemSum int64
	require.NoError(t, d.QueryRow(ctx, `SELECT SUM(total_cents) FROM quote_items WHERE quote_id IN (SELECT id FROM quotes WHERE seed_tag = ?)`, Tag).Scan(&itemSum))
	assert.Equal(t, int64(120000), itemSum)
	assert.Equal(t, int64(2), count(t, d, ctx, `SELECT COUNT(1) FROM quote_items WHERE quote_id IN (SELECT id FROM quotes WHERE seed_tag = ?)`, Tag))

	assert.Equal(t, int64(1), count(t, d, ctx, `SELECT COUNT(1) FROM service_records WHERE seed_tag = ? AND status = 'APPROVED' AND is_verified = 1 AND cost_cents = 120000`, Tag))
	assert.Equal(t, int64(1), count(t, d, ctx, `SELECT COUNT(1) FROM service_records WHERE seed_tag = ? AND status = 'DOCUMENTED_UNVERIFIED' AND cost_cents = 25000`, Tag))

	for _, status := range []string{"PENDING", "ACTIVE", "REJECTED"} {
		assert.Equal(t, int64(1), count(t, d, ctx, `SELECT COUNT(1) FROM warranties WHERE seed_tag = ? AND status = ?`, Tag, status), status)
	}
}

func TestRerunReplacesNotDuplicates(t *testing.T) {
	s, d, ctx := newSeeder(t, config.SeedConfig{Enabled: true, Env: "development", TestEmailDomain: "test.yourdomain.com"})
	require.NoError(t, s.Run(ctx))
	require.NoError(t, s.Run(ctx))

	assert.Equal(t, int64(2), count(t, d, ctx, `SELECT COUNT(1) FROM users WHERE seed_tag = ?`, Tag))
	assert.Equal(t, int64(1), count(t, d, ctx, `SELECT COUNT(1) FROM homes WHERE seed_tag = ?`, Tag))
	assert.Equal(t, int64(1), count(t, d, ctx, `SELECT COUNT(1) FROM connections WHERE seed_tag = ?`, Tag))
	assert.Equal(t, int64(3), count(t, d, ctx, `SELECT COUNT(1) FROM messages WHERE seed_tag = ?`, Tag))
	assert.Equal(t, int64(3), count(t, d, ctx, `SELECT COUNT(1) FROM warranties WHERE seed_tag = ?`, Tag))
}

func TestResetLeavesForeignRowsAlone(t *testing.T) {
	s, d, ctx := newSeeder(t, config.SeedConfig{Enabled: true, Env: "development", TestEmailDomain: "test.yourdomain.com"})

	_, err := d.Exec(ctx, `INSERT INTO users (email, name, role, seed_tag, created, updated) VALUES ('real@user.com', 'Real', 'HOMEOWNER', '', 0, 0)`)
	require.NoError(t, err)

	require.NoError(t, s.Run(ctx))
	require.NoError(t, s.Reset(ctx))

	assert.Equal(t, int64(1), count(t, d, ctx, `SELECT COUNT(1) FROM users WHERE email = 'real@user.com'`))
	assert.Equal(t, int64(0), count(t, d, ctx, `SELECT COUNT(1) FROM users WHERE seed_tag = ?`, Tag))
}
