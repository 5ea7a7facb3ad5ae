package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/homefax/homefax/pkg/models"
)

const quoteColumns = `id, service_request_id, contractor_id, total_cents, status, notes, expires_at, seed_tag, created, updated`

func scanQuote(row interface{ Scan(...any) error }) (*models.Quote, error) {
	var q models.Quote
	var expiresAt sql.NullInt64
	if err := row.Scan(&q.ID, &q.ServiceRequestID, &q.ContractorID, &q.TotalCents, &q.Status, &q.Notes, &expiresAt, &q.SeedTag, &q.Created, &q.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	if expiresAt.Valid {
		q.ExpiresAt = &expiresAt.Int64
	}
	return &q, nil
}

// SubmitQuote inserts the quote and its line items and moves the owning
// request PENDING -> QUOTED with responded_at stamped, in one
// transaction. A request with a quote already attached fails the
// guarded status update and nothing is written.
func (r *SQLiteRepo) SubmitQuote(ctx context.Context, q *models.Quote) (int64, error) {
	if q == nil {
		return 0, fmt.Errorf("quote is nil")
	}

	ts := now()
	var quoteID int64

	err := r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE service_requests SET status = ?, responded_at = ?, updated = ? WHERE id = ? AND status = ?`,
			models.RequestQuoted, ts, ts, q.ServiceRequestID, models.RequestPending)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &models.InvalidStateError{Entity: "service request", From: "non-pending", Action: "quote"}
		}

		res, err = tx.ExecContext(ctx,
			`INSERT INTO quotes (service_request_id, contractor_id, total_cents, status, notes, expires_at, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			q.ServiceRequestID, q.ContractorID, q.TotalCents, q.Status, q.Notes, q.ExpiresAt, q.SeedTag, ts, ts)
		if err != nil {
			return err
		}
		quoteID, err = res.LastInsertId()
		if err != nil {
			return err
		}

		for _, item := range q.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO quote_items (quote_id, item, qty, unit_price_cents, total_cents) VALUES (?, ?, ?, ?, ?)`,
				quoteID, item.Item, item.Qty, item.UnitPriceCents, item.TotalCents); err != nil {
				return fmt.Errorf("insert quote item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	q.ID = quoteID
	return quoteID, nil
}

func (r *SQLiteRepo) GetQuoteByID(ctx context.Context, id int64) (*models.Quote, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = ?`, id)
	q, err := scanQuote(row)
	if err != nil || q == nil {
		return q, err
	}
	if err := r.loadQuoteItems(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (r *SQLiteRepo) GetQuoteByRequest(ctx context.Context, requestID int64) (*models.Quote, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE service_request_id = ? ORDER BY created DESC LIMIT 1`, requestID)
	q, err := scanQuote(row)
	if err != nil || q == nil {
		return q, err
	}
	if err := r.loadQuoteItems(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (r *SQLiteRepo) loadQuoteItems(ctx context.Context, q *models.Quote) error {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, quote_id, item, qty, unit_price_cents, total_cents FROM quote_items WHERE quote_id = ? ORDER BY id`, q.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.QuoteItem
		if err := rows.Scan(&item.ID, &item.QuoteID, &item.Item, &item.Qty, &item.UnitPriceCents, &item.TotalCents); err != nil {
			return err
		}
		q.Items = append(q.Items, item)
	}
	return rows.Err()
}

// UpdateQuote replaces the quote's fields and line items in one
// transaction. Callers check that the owning request is still QUOTED.
func (r *SQLiteRepo) UpdateQuote(ctx context.Context, q *models.Quote) error {
	if q == nil {
		return fmt.Errorf("quote is nil")
	}

	ts := now()
	return r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE quotes SET total_cents = ?, notes = ?, expires_at = ?, updated = ? WHERE id = ?`,
			q.TotalCents, q.Notes, q.ExpiresAt, ts, q.ID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &models.NotFoundError{Entity: "quote"}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM quote_items WHERE quote_id = ?`, q.ID); err != nil {
			return err
		}
		for _, item := range q.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO quote_items (quote_id, item, qty, unit_price_cents, total_cents) VALUES (?, ?, ?, ?, ?)`,
				q.ID, item.Item, item.Qty, item.UnitPriceCents, item.TotalCents); err != nil {
				return err
			}
		}
		return nil
	})
}

// AcceptQuote marks the quote accepted and moves the owning request
// QUOTED -> ACCEPTED, in one transaction.
func (r *SQLiteRepo) AcceptQuote(ctx context.Context, quoteID int64) error {
	ts := now()
	return r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		var requestID int64
		row := tx.QueryRowContext(ctx, `SELECT service_request_id FROM quotes WHERE id = ?`, quoteID)
		if err := row.Scan(&requestID); err != nil {
			if err == sql.ErrNoRows {
				return &models.NotFoundError{Entity: "quote"}
			}
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE service_requests SET status = ?, updated = ? WHERE id = ? AND status = ?`,
			models.RequestAccepted, ts, requestID, models.RequestQuoted)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &models.InvalidStateError{Entity: "service request", From: "non-quoted", Action: "accept quote"}
		}

		_, err = tx.ExecContext(ctx, `UPDATE quotes SET status = ?, updated = ? WHERE id = ?`, models.QuoteAccepted, ts, quoteID)
		return err
	})
}
