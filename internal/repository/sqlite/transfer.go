package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/homefax/homefax/pkg/models"
)

const transferColumns = `id, home_id, from_owner_id, to_email, token, status, expires_at, seed_tag, created, updated`

func scanTransfer(row interface{ Scan(...any) error }) (*models.HomeTransfer, error) {
	var tr models.HomeTransfer
	if err := row.Scan(&tr.ID, &tr.HomeID, &tr.FromOwnerID, &tr.ToEmail, &tr.Token, &tr.Status, &tr.ExpiresAt, &tr.SeedTag, &tr.Created, &tr.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	return &tr, nil
}

func (r *SQLiteRepo) CreateTransfer(ctx context.Context, tr *models.HomeTransfer) (int64, error) {
	if tr == nil {
		return 0, fmt.Errorf("transfer is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO home_transfers (home_id, from_owner_id, to_email, token, status, expires_at, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.HomeID, tr.FromOwnerID, tr.ToEmail, tr.Token, tr.Status, tr.ExpiresAt, tr.SeedTag, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetTransferByID(ctx context.Context, id int64) (*models.HomeTransfer, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+transferColumns+` FROM home_transfers WHERE id = ?`, id)
	return scanTransfer(row)
}

func (r *SQLiteRepo) GetTransferByToken(ctx context.Context, token string) (*models.HomeTransfer, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+transferColumns+` FROM home_transfers WHERE token = ?`, token)
	return scanTransfer(row)
}

func (r *SQLiteRepo) SetTransferStatus(ctx context.Context, id int64, from, to models.TransferStatus) error {
	res, err := r.conn.Exec(ctx, `UPDATE home_transfers SET status = ?, updated = ? WHERE id = ? AND status = ?`, to, now(), id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		tr, err := r.GetTransferByID(ctx, id)
		if err != nil {
			return err
		}
		if tr == nil {
			return &models.NotFoundError{Entity: "transfer"}
		}
		return &models.InvalidStateError{Entity: "transfer", From: string(tr.Status), Action: string(to)}
	}
	return nil
}

// AcceptTransfer marks the transfer accepted and moves home ownership
// to the new owner, in one transaction.
func (r *SQLiteRepo) AcceptTransfer(ctx context.Context, transferID, newOwnerID int64) error {
	ts := now()
	return r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		var homeID int64
		row := tx.QueryRowContext(ctx, `SELECT home_id FROM home_transfers WHERE id = ?`, transferID)
		if err := row.Scan(&homeID); err != nil {
			if err == sql.ErrNoRows {
				return &models.NotFoundError{Entity: "transfer"}
			}
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE home_transfers SET status = ?, updated = ? WHERE id = ? AND status = ?`,
			models.TransferAccepted, ts, transferID, models.TransferPending)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &models.InvalidStateError{Entity: "transfer", From: "non-pending", Action: "accept"}
		}

		_, err = tx.ExecContext(ctx, `UPDATE homes SET owner_id = ?, updated = ? WHERE id = ?`, newOwnerID, ts, homeID)
		return err
	})
}
