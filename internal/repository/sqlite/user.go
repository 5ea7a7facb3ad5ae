package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/homefax/homefax/pkg/models"
)

const userColumns = `id, email, name, role, pro_status, suspended, email_verified, password_hash, seed_tag, created, updated`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var suspended, verified int64
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.ProStatus, &suspended, &verified, &u.PasswordHash, &u.SeedTag, &u.Created, &u.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	u.Suspended = suspended != 0
	u.EmailVerified = verified != 0
	return &u, nil
}

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if u == nil {
		return 0, fmt.Errorf("user is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO users (email, name, role, pro_status, suspended, email_verified, password_hash, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Email, u.Name, u.Role, u.ProStatus, boolToInt(u.Suspended), boolToInt(u.EmailVerified), u.PasswordHash, u.SeedTag, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *SQLiteRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email)
	return scanUser(row)
}

func (r *SQLiteRepo) UpdateUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}

	_, err := r.conn.Exec(ctx,
		`UPDATE users SET email = ?, name = ?, role = ?, pro_status = ?, suspended = ?, email_verified = ?, password_hash = ?, updated = ? WHERE id = ?`,
		u.Email, u.Name, u.Role, u.ProStatus, boolToInt(u.Suspended), boolToInt(u.EmailVerified), u.PasswordHash, now(), u.ID)
	return err
}

func (r *SQLiteRepo) SetProStatus(ctx context.Context, userID int64, status models.ProStatus) error {
	res, err := r.conn.Exec(ctx, `UPDATE users SET pro_status = ?, updated = ? WHERE id = ? AND role = ?`, status, now(), userID, models.RolePro)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &models.NotFoundError{Entity: "pro application"}
	}
	return nil
}

func (r *SQLiteRepo) SetSuspended(ctx context.Context, userID int64, suspended bool) error {
	res, err := r.conn.Exec(ctx, `UPDATE users SET suspended = ?, updated = ? WHERE id = ?`, boolToInt(suspended), now(), userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &models.NotFoundError{Entity: "user"}
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
