package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/homefax/homefax/pkg/models"
)

const recordColumns = `id, home_id, contractor_id, connection_id, service_request_id, service_type, description, cost_cents, service_date, status, is_verified, approved_by, approved_at, warranty_included, seed_tag, created, updated`

func scanRecord(row interface{ Scan(...any) error }) (*models.ServiceRecord, error) {
	var rec models.ServiceRecord
	var requestID, cost, approvedBy, approvedAt sql.NullInt64
	var verified, warranty int64
	if err := row.Scan(&rec.ID, &rec.HomeID, &rec.ContractorID, &rec.ConnectionID, &requestID, &rec.ServiceType, &rec.Description, &cost, &rec.ServiceDate, &rec.Status, &verified, &approvedBy, &approvedAt, &warranty, &rec.SeedTag, &rec.Created, &rec.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	if requestID.Valid {
		rec.ServiceRequestID = &requestID.Int64
	}
	if cost.Valid {
		rec.CostCents = &cost.Int64
	}
	if approvedBy.Valid {
		rec.ApprovedBy = &approvedBy.Int64
	}
	if approvedAt.Valid {
		rec.ApprovedAt = &approvedAt.Int64
	}
	rec.IsVerified = verified != 0
	rec.WarrantyIncluded = warranty != 0
	return &rec, nil
}

func (r *SQLiteRepo) CreateServiceRecord(ctx context.Context, rec *models.ServiceRecord) (int64, error) {
	if rec == nil {
		return 0, fmt.Errorf("service record is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO service_records (home_id, contractor_id, connection_id, service_request_id, service_type, description, cost_cents, service_date, status, is_verified, warranty_included, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.HomeID, rec.ContractorID, rec.ConnectionID, rec.ServiceRequestID, rec.ServiceType, rec.Description, rec.CostCents, rec.ServiceDate, rec.Status, boolToInt(rec.IsVerified), boolToInt(rec.WarrantyIncluded), rec.SeedTag, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetServiceRecordByID(ctx context.Context, id int64) (*models.ServiceRecord, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+recordColumns+` FROM service_records WHERE id = ?`, id)
	return scanRecord(row)
}

func (r *SQLiteRepo) ListServiceRecordsByHome(ctx context.Context, homeID int64) ([]models.ServiceRecord, error) {
	return r.listRecords(ctx, `home_id`, homeID)
}

func (r *SQLiteRepo) ListServiceRecordsByContractor(ctx context.Context, contractorID int64) ([]models.ServiceRecord, error) {
	return r.listRecords(ctx, `contractor_id`, contractorID)
}

func (r *SQLiteRepo) listRecords(ctx context.Context, col string, id int64) ([]models.ServiceRecord, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+recordColumns+` FROM service_records WHERE `+col+` = ? ORDER BY service_date DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ServiceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// ApproveServiceRecord flips the record to APPROVED/verified and applies
// the connection rollups in one transaction: verified_service_count is
// incremented, total_spent_cents grows by the record's cost when one is
// set, and last_service_date becomes the max of its current value and
// the record's service date. Either both rows change or neither does.
func (r *SQLiteRepo) ApproveServiceRecord(ctx context.Context, recordID, approverID int64) (*models.ServiceRecord, error) {
	ts := now()

	err := r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT connection_id, cost_cents, service_date, status, is_verified FROM service_records WHERE id = ?`, recordID)
		var connID, serviceDate, verified int64
		var cost sql.NullInt64
		var status models.ServiceRecordStatus
		if err := row.Scan(&connID, &cost, &serviceDate, &status, &verified); err != nil {
			if err == sql.ErrNoRows {
				return &models.NotFoundError{Entity: "service record"}
			}
			return err
		}
		if verified != 0 || !status.CanTransition(models.RecordApproved) {
			return &models.InvalidStateError{Entity: "service record", From: string(status), Action: "approve"}
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE service_records SET status = ?, is_verified = 1, approved_by = ?, approved_at = ?, updated = ? WHERE id = ? AND is_verified = 0`,
			models.RecordApproved, approverID, ts, ts, recordID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &models.InvalidStateError{Entity: "service record", From: string(status), Action: "approve"}
		}

		costCents := int64(0)
		if cost.Valid {
			costCents = cost.Int64
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE connections SET
				verified_service_count = verified_service_count + 1,
				total_spent_cents = total_spent_cents + ?,
				last_service_date = MAX(COALESCE(last_service_date, 0), ?),
				updated = ?
			 WHERE id = ?`,
			costCents, serviceDate, ts, connID)
		if err != nil {
			return fmt.Errorf("apply rollups: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetServiceRecordByID(ctx, recordID)
}

func (r *SQLiteRepo) RejectServiceRecord(ctx context.Context, recordID int64) error {
	res, err := r.conn.Exec(ctx,
		`UPDATE service_records SET status = ?, updated = ? WHERE id = ? AND is_verified = 0 AND status IN (?, ?)`,
		models.RecordRejected, now(), recordID, models.RecordDocumentedUnverified, models.RecordDocumented)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		rec, err := r.GetServiceRecordByID(ctx, recordID)
		if err != nil {
			return err
		}
		if rec == nil {
			return &models.NotFoundError{Entity: "service record"}
		}
		return &models.InvalidStateError{Entity: "service record", From: string(rec.Status), Action: "reject"}
	}
	return nil
}

func (r *SQLiteRepo) PatchServiceRecordAttachments(ctx context.Context, recordID int64, atts []models.Attachment) error {
	ts := now()
	return r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		for _, a := range atts {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO attachments (key, public_url, home_id, service_record_id, mime_type, size, seed_tag, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				a.Key, a.PublicURL, a.HomeID, recordID, a.MimeType, a.Size, a.SeedTag, ts); err != nil {
				return fmt.Errorf("insert attachment: %w", err)
			}
		}
		_, err := tx.ExecContext(ctx, `UPDATE service_records SET updated = ? WHERE id = ?`, ts, recordID)
		return err
	})
}
