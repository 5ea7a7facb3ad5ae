package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/homefax/homefax/pkg/models"
)

func (r *SQLiteRepo) CreateReminder(ctx context.Context, rem *models.Reminder) (int64, error) {
	if rem == nil {
		return 0, fmt.Errorf("reminder is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO reminders (home_id, created_by, title, notes, due_at, status, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rem.HomeID, rem.CreatedBy, rem.Title, rem.Notes, rem.DueAt, rem.Status, rem.SeedTag, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetReminderByID(ctx context.Context, id int64) (*models.Reminder, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT id, home_id, created_by, title, notes, due_at, status, seed_tag, created, updated FROM reminders WHERE id = ?`, id)

	var rem models.Reminder
	if err := row.Scan(&rem.ID, &rem.HomeID, &rem.CreatedBy, &rem.Title, &rem.Notes, &rem.DueAt, &rem.Status, &rem.SeedTag, &rem.Created, &rem.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	rem.Overdue = rem.Status == models.ReminderPending && rem.DueAt < now()
	return &rem, nil
}

// ListRemindersByHome derives the overdue flag on read; nothing ever
// fires reminders, they are advisory rows.
func (r *SQLiteRepo) ListRemindersByHome(ctx context.Context, homeID int64) ([]models.Reminder, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT id, home_id, created_by, title, notes, due_at, status, seed_tag, created, updated FROM reminders WHERE home_id = ? ORDER BY due_at`, homeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ts := now()
	var out []models.Reminder
	for rows.Next() {
		var rem models.Reminder
		if err := rows.Scan(&rem.ID, &rem.HomeID, &rem.CreatedBy, &rem.Title, &rem.Notes, &rem.DueAt, &rem.Status, &rem.SeedTag, &rem.Created, &rem.Updated); err != nil {
			return nil, err
		}
		rem.Overdue = rem.Status == models.ReminderPending && rem.DueAt < ts
		out = append(out, rem)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) SetReminderStatus(ctx context.Context, id int64, status models.ReminderStatus) error {
	res, err := r.conn.Exec(ctx, `UPDATE reminders SET status = ?, updated = ? WHERE id = ?`, status, now(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &models.NotFoundError{Entity: "reminder"}
	}
	return nil
}

func (r *SQLiteRepo) CreateContractorReminder(ctx context.Context, rem *models.ContractorReminder) (int64, error) {
	if rem == nil {
		return 0, fmt.Errorf("reminder is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO contractor_reminders (pro_id, title, notes, due_at, status, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rem.ProID, rem.Title, rem.Notes, rem.DueAt, rem.Status, rem.SeedTag, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) ListContractorRemindersByPro(ctx context.Context, proID int64) ([]models.ContractorReminder, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT id, pro_id, title, notes, due_at, status, seed_tag, created, updated FROM contractor_reminders WHERE pro_id = ? ORDER BY due_at`, proID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ts := now()
	var out []models.ContractorReminder
	for rows.Next() {
		var rem models.ContractorReminder
		if err := rows.Scan(&rem.ID, &rem.ProID, &rem.Title, &rem.Notes, &rem.DueAt, &rem.Status, &rem.SeedTag, &rem.Created, &rem.Updated); err != nil {
			return nil, err
		}
		rem.Overdue = rem.Status == models.ReminderPending && rem.DueAt < ts
		out = append(out, rem)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) SetContractorReminderStatus(ctx context.Context, id int64, status models.ReminderStatus) error {
	res, err := r.conn.Exec(ctx, `UPDATE contractor_reminders SET status = ?, updated = ? WHERE id = ?`, status, now(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &models.NotFoundError{Entity: "reminder"}
	}
	return nil
}
