package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/homefax/homefax/pkg/models"
)

const warrantyColumns = `id, service_record_id, home_id, contractor_id, item, provider, policy_no, purchased_at, expires_at, status, seed_tag, created, updated`

func scanWarranty(row interface{ Scan(...any) error }) (*models.Warranty, error) {
	var w models.Warranty
	var purchasedAt, expiresAt sql.NullInt64
	if err := row.Scan(&w.ID, &w.ServiceRecordID, &w.HomeID, &w.ContractorID, &w.Item, &w.Provider, &w.PolicyNo, &purchasedAt, &expiresAt, &w.Status, &w.SeedTag, &w.Created, &w.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	if purchasedAt.Valid {
		w.PurchasedAt = &purchasedAt.Int64
	}
	if expiresAt.Valid {
		w.ExpiresAt = &expiresAt.Int64
	}
	return &w, nil
}

func (r *SQLiteRepo) CreateWarranty(ctx context.Context, w *models.Warranty) (int64, error) {
	if w == nil {
		return 0, fmt.Errorf("warranty is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO warranties (service_record_id, home_id, contractor_id, item, provider, policy_no, purchased_at, expires_at, status, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ServiceRecordID, w.HomeID, w.ContractorID, w.Item, w.Provider, w.PolicyNo, w.PurchasedAt, w.ExpiresAt, w.Status, w.SeedTag, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetWarrantyByID(ctx context.Context, id int64) (*models.Warranty, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+warrantyColumns+` FROM warranties WHERE id = ?`, id)
	return scanWarranty(row)
}

func (r *SQLiteRepo) ListWarrantiesByHome(ctx context.Context, homeID int64) ([]models.Warranty, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+warrantyColumns+` FROM warranties WHERE home_id = ? ORDER BY created DESC`, homeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Warranty
	for rows.Next() {
		w, err := scanWarranty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) SetWarrantyStatus(ctx context.Context, id int64, from, to models.WarrantyStatus) error {
	res, err := r.conn.Exec(ctx, `UPDATE warranties SET status = ?, updated = ? WHERE id = ? AND status = ?`, to, now(), id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		w, err := r.GetWarrantyByID(ctx, id)
		if err != nil {
			return err
		}
		if w == nil {
			return &models.NotFoundError{Entity: "warranty"}
		}
		return &models.InvalidStateError{Entity: "warranty", From: string(w.Status), Action: string(to)}
	}
	return nil
}
