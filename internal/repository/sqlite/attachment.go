package sqlite

import (
	"context"
	"database/sql"

	"github.com/homefax/homefax/pkg/models"
)

const attachmentColumns = `id, key, public_url, home_id, message_id, service_record_id, service_request_id, warranty_id, reminder_id, mime_type, size, seed_tag, created`

func scanAttachment(row interface{ Scan(...any) error }) (*models.Attachment, error) {
	var a models.Attachment
	var messageID, recordID, requestID, warrantyID, reminderID sql.NullInt64
	if err := row.Scan(&a.ID, &a.Key, &a.PublicURL, &a.HomeID, &messageID, &recordID, &requestID, &warrantyID, &reminderID, &a.MimeType, &a.Size, &a.SeedTag, &a.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	if messageID.Valid {
		a.MessageID = &messageID.Int64
	}
	if recordID.Valid {
		a.ServiceRecordID = &recordID.Int64
	}
	if requestID.Valid {
		a.ServiceRequestID = &requestID.Int64
	}
	if warrantyID.Valid {
		a.WarrantyID = &warrantyID.Int64
	}
	if reminderID.Valid {
		a.ReminderID = &reminderID.Int64
	}
	return &a, nil
}

func (r *SQLiteRepo) ListAttachmentsByRecord(ctx context.Context, recordID int64) ([]models.Attachment, error) {
	return r.listAttachments(ctx, `service_record_id`, recordID)
}

func (r *SQLiteRepo) ListAttachmentsByRequest(ctx context.Context, requestID int64) ([]models.Attachment, error) {
	return r.listAttachments(ctx, `service_request_id`, requestID)
}

func (r *SQLiteRepo) listAttachments(ctx context.Context, col string, id int64) ([]models.Attachment, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+attachmentColumns+` FROM attachments WHERE `+col+` = ? ORDER BY created`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
