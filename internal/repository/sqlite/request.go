package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/homefax/homefax/pkg/models"
)

const requestColumns = `id, connection_id, home_id, homeowner_id, contractor_id, title, description, urgency, budget_min_cents, budget_max_cents, status, responded_at, seed_tag, created, updated`

func scanRequest(row interface{ Scan(...any) error }) (*models.ServiceRequest, error) {
	var sr models.ServiceRequest
	var budgetMin, budgetMax, respondedAt sql.NullInt64
	if err := row.Scan(&sr.ID, &sr.ConnectionID, &sr.HomeID, &sr.HomeownerID, &sr.ContractorID, &sr.Title, &sr.Description, &sr.Urgency, &budgetMin, &budgetMax, &sr.Status, &respondedAt, &sr.SeedTag, &sr.Created, &sr.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	if budgetMin.Valid {
		sr.BudgetMinCents = &budgetMin.Int64
	}
	if budgetMax.Valid {
		sr.BudgetMaxCents = &budgetMax.Int64
	}
	if respondedAt.Valid {
		sr.RespondedAt = &respondedAt.Int64
	}
	return &sr, nil
}

func (r *SQLiteRepo) CreateServiceRequest(ctx context.Context, sr *models.ServiceRequest) (int64, error) {
	if sr == nil {
		return 0, fmt.Errorf("service request is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO service_requests (connection_id, home_id, homeowner_id, contractor_id, title, description, urgency, budget_min_cents, budget_max_cents, status, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sr.ConnectionID, sr.HomeID, sr.HomeownerID, sr.ContractorID, sr.Title, sr.Description, sr.Urgency, sr.BudgetMinCents, sr.BudgetMaxCents, sr.Status, sr.SeedTag, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetServiceRequestByID(ctx context.Context, id int64) (*models.ServiceRequest, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE id = ?`, id)
	return scanRequest(row)
}

func (r *SQLiteRepo) ListServiceRequestsForUser(ctx context.Context, userID int64, role models.Role) ([]models.ServiceRequest, error) {
	col := "homeowner_id"
	if role == models.RolePro {
		col = "contractor_id"
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE `+col+` = ? ORDER BY created DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ServiceRequest
	for rows.Next() {
		sr, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sr)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) SetServiceRequestStatus(ctx context.Context, id int64, from, to models.ServiceRequestStatus, respondedAt *int64) error {
	var res sql.Result
	var err error
	if respondedAt != nil {
		res, err = r.conn.Exec(ctx, `UPDATE service_requests SET status = ?, responded_at = ?, updated = ? WHERE id = ? AND status = ?`, to, *respondedAt, now(), id, from)
	} else {
		res, err = r.conn.Exec(ctx, `UPDATE service_requests SET status = ?, updated = ? WHERE id = ? AND status = ?`, to, now(), id, from)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		sr, err := r.GetServiceRequestByID(ctx, id)
		if err != nil {
			return err
		}
		if sr == nil {
			return &models.NotFoundError{Entity: "service request"}
		}
		return &models.InvalidStateError{Entity: "service request", From: string(sr.Status), Action: string(to)}
	}
	return nil
}

func (r *SQLiteRepo) PatchServiceRequestAttachments(ctx context.Context, requestID int64, atts []models.Attachment) error {
	ts := now()
	return r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		for _, a := range atts {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO attachments (key, public_url, home_id, service_request_id, mime_type, size, seed_tag, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				a.Key, a.PublicURL, a.HomeID, requestID, a.MimeType, a.Size, a.SeedTag, ts); err != nil {
				return fmt.Errorf("insert attachment: %w", err)
			}
		}
		_, err := tx.ExecContext(ctx, `UPDATE service_requests SET updated = ? WHERE id = ?`, ts, requestID)
		return err
	})
}
