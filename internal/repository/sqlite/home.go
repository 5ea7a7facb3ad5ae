package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/homefax/homefax/pkg/models"
)

const homeColumns = `id, owner_id, address, city, state, zip, verification_status, verification_method, verified_at, seed_tag, created, updated`

func scanHome(row interface{ Scan(...any) error }) (*models.Home, error) {
	var h models.Home
	var verifiedAt sql.NullInt64
	if err := row.Scan(&h.ID, &h.OwnerID, &h.Address, &h.City, &h.State, &h.Zip, &h.VerificationStatus, &h.VerificationMethod, &verifiedAt, &h.SeedTag, &h.Created, &h.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	if verifiedAt.Valid {
		h.VerifiedAt = &verifiedAt.Int64
	}
	return &h, nil
}

func (r *SQLiteRepo) CreateHome(ctx context.Context, h *models.Home) (int64, error) {
	if h == nil {
		return 0, fmt.Errorf("home is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO homes (owner_id, address, city, state, zip, verification_status, verification_method, verified_at, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.OwnerID, h.Address, h.City, h.State, h.Zip, h.VerificationStatus, h.VerificationMethod, h.VerifiedAt, h.SeedTag, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetHomeByID(ctx context.Context, id int64) (*models.Home, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+homeColumns+` FROM homes WHERE id = ?`, id)
	return scanHome(row)
}

func (r *SQLiteRepo) ListHomesByOwner(ctx context.Context, ownerID int64) ([]models.Home, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+homeColumns+` FROM homes WHERE owner_id = ? ORDER BY created DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Home
	for rows.Next() {
		h, err := scanHome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) SetHomeOwner(ctx context.Context, homeID, ownerID int64) error {
	res, err := r.conn.Exec(ctx, `UPDATE homes SET owner_id = ?, updated = ? WHERE id = ?`, ownerID, now(), homeID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &models.NotFoundError{Entity: "home"}
	}
	return nil
}
