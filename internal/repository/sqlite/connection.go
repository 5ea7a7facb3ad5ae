package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/homefax/homefax/pkg/models"
)

const connectionColumns = `id, home_id, homeowner_id, contractor_id, status, verified_service_count, total_spent_cents, last_service_date, seed_tag, created, updated`

func scanConnection(row interface{ Scan(...any) error }) (*models.Connection, error) {
	var c models.Connection
	var lastService sql.NullInt64
	if err := row.Scan(&c.ID, &c.HomeID, &c.HomeownerID, &c.ContractorID, &c.Status, &c.VerifiedServiceCount, &c.TotalSpentCents, &lastService, &c.SeedTag, &c.Created, &c.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	if lastService.Valid {
		c.LastServiceDate = &lastService.Int64
	}
	return &c, nil
}

func (r *SQLiteRepo) GetConnectionByID(ctx context.Context, id int64) (*models.Connection, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+connectionColumns+` FROM connections WHERE id = ?`, id)
	return scanConnection(row)
}

func (r *SQLiteRepo) GetConnectionByTriple(ctx context.Context, homeID, homeownerID, contractorID int64) (*models.Connection, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+connectionColumns+` FROM connections WHERE home_id = ? AND homeowner_id = ? AND contractor_id = ?`, homeID, homeownerID, contractorID)
	return scanConnection(row)
}

// UpsertConnection keeps the (home, homeowner, contractor) triple
// unique: re-connecting an archived pair reactivates the existing row
// instead of duplicating it.
func (r *SQLiteRepo) UpsertConnection(ctx context.Context, c *models.Connection) (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("connection is nil")
	}

	ts := now()
	if _, err := r.conn.Exec(ctx,
		`INSERT INTO connections (home_id, homeowner_id, contractor_id, status, verified_service_count, total_spent_cents, last_service_date, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(home_id, homeowner_id, contractor_id) DO UPDATE SET status = excluded.status, updated = excluded.updated`,
		c.HomeID, c.HomeownerID, c.ContractorID, c.Status, c.VerifiedServiceCount, c.TotalSpentCents, c.LastServiceDate, c.SeedTag, ts, ts); err != nil {
		return 0, err
	}

	var id int64
	row := r.conn.QueryRow(ctx, `SELECT id FROM connections WHERE home_id = ? AND homeowner_id = ? AND contractor_id = ?`, c.HomeID, c.HomeownerID, c.ContractorID)
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	c.ID = id
	return id, nil
}

func (r *SQLiteRepo) ListConnectionsForUser(ctx context.Context, userID int64, role models.Role) ([]models.Connection, error) {
	col := "homeowner_id"
	if role == models.RolePro {
		col = "contractor_id"
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+connectionColumns+` FROM connections WHERE `+col+` = ? ORDER BY updated DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) ArchiveConnection(ctx context.Context, id int64) error {
	res, err := r.conn.Exec(ctx, `UPDATE connections SET status = ?, updated = ? WHERE id = ?`, models.ConnectionArchived, now(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &models.NotFoundError{Entity: "connection"}
	}
	return nil
}

func (r *SQLiteRepo) HasActiveConnection(ctx context.Context, contractorID, homeID int64) (bool, error) {
	var n int64
	row := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM connections WHERE contractor_id = ? AND home_id = ? AND status = ?`, contractorID, homeID, models.ConnectionActive)
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
