package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/homefax/homefax/pkg/models"
)

const invitationColumns = `id, home_id, invited_email, invited_by, role, message, status, token, expires_at, accepted_at, seed_tag, created, updated`

func scanInvitation(row interface{ Scan(...any) error }) (*models.Invitation, error) {
	var inv models.Invitation
	var homeID, acceptedAt sql.NullInt64
	if err := row.Scan(&inv.ID, &homeID, &inv.InvitedEmail, &inv.InvitedBy, &inv.Role, &inv.Message, &inv.Status, &inv.Token, &inv.ExpiresAt, &acceptedAt, &inv.SeedTag, &inv.Created, &inv.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	inv.HomeID = homeID.Int64
	if acceptedAt.Valid {
		inv.AcceptedAt = &acceptedAt.Int64
	}
	return &inv, nil
}

// nullableID maps the zero id to NULL so optional foreign keys stay
// enforceable.
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func (r *SQLiteRepo) CreateInvitation(ctx context.Context, inv *models.Invitation) (int64, error) {
	if inv == nil {
		return 0, fmt.Errorf("invitation is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO invitations (home_id, invited_email, invited_by, role, message, status, token, expires_at, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableID(inv.HomeID), inv.InvitedEmail, inv.InvitedBy, inv.Role, inv.Message, inv.Status, inv.Token, inv.ExpiresAt, inv.SeedTag, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetInvitationByID(ctx context.Context, id int64) (*models.Invitation, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE id = ?`, id)
	return scanInvitation(row)
}

func (r *SQLiteRepo) GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE token = ?`, token)
	return scanInvitation(row)
}

func (r *SQLiteRepo) ListInvitationsByEmail(ctx context.Context, email string) ([]models.Invitation, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE invited_email = ? COLLATE NOCASE ORDER BY created DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInvitations(rows)
}

func (r *SQLiteRepo) ListInvitationsByInviter(ctx context.Context, inviterID int64) ([]models.Invitation, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE invited_by = ? ORDER BY created DESC`, inviterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInvitations(rows)
}

func collectInvitations(rows *sql.Rows) ([]models.Invitation, error) {
	var out []models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) HasPendingInvitation(ctx context.Context, email string, homeID int64, role models.Role) (bool, error) {
	var n int64
	row := r.conn.QueryRow(ctx,
		`SELECT COUNT(1) FROM invitations WHERE invited_email = ? COLLATE NOCASE AND COALESCE(home_id, 0) = ? AND role = ? AND status = ?`,
		email, homeID, role, models.InvitationPending)
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetInvitationStatus is a guarded update: the row is only touched while
// its stored status still equals from, so concurrent transitions and
// calls from terminal states fail instead of clobbering.
func (r *SQLiteRepo) SetInvitationStatus(ctx context.Context, id int64, from, to models.InvitationStatus) error {
	res, err := r.conn.Exec(ctx, `UPDATE invitations SET status = ?, updated = ? WHERE id = ? AND status = ?`, to, now(), id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		inv, err := r.GetInvitationByID(ctx, id)
		if err != nil {
			return err
		}
		if inv == nil {
			return &models.NotFoundError{Entity: "invitation"}
		}
		return &models.InvalidStateError{Entity: "invitation", From: string(inv.Status), Action: string(to)}
	}
	return nil
}

// AcceptInvitation flips the invitation to ACCEPTED and upserts the
// ACTIVE connection for the (home, homeowner, contractor) triple in one
// transaction. When newHome is non-nil it is created inside the same
// transaction and its id used for the connection, so a crash can never
// leave a claimed home without its connection.
func (r *SQLiteRepo) AcceptInvitation(ctx context.Context, invID int64, newHome *models.Home, homeID, homeownerID, contractorID int64) (*models.Connection, error) {
	ts := now()
	var connID int64

	err := r.conn.WithTx(ctx, func(tx *sql.Tx) error {
		if newHome != nil {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO homes (owner_id, address, city, state, zip, verification_status, verification_method, verified_at, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				newHome.OwnerID, newHome.Address, newHome.City, newHome.State, newHome.Zip, newHome.VerificationStatus, newHome.VerificationMethod, newHome.VerifiedAt, newHome.SeedTag, ts, ts)
			if err != nil {
				return fmt.Errorf("create home: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			newHome.ID = id
			homeID = id
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE invitations SET status = ?, home_id = ?, accepted_at = ?, updated = ? WHERE id = ? AND status = ?`,
			models.InvitationAccepted, homeID, ts, ts, invID, models.InvitationPending)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &models.InvalidStateError{Entity: "invitation", From: "non-pending", Action: "accept"}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO connections (home_id, homeowner_id, contractor_id, status, seed_tag, created, updated) VALUES (?, ?, ?, ?, '', ?, ?)
			 ON CONFLICT(home_id, homeowner_id, contractor_id) DO UPDATE SET status = excluded.status, updated = excluded.updated`,
			homeID, homeownerID, contractorID, models.ConnectionActive, ts, ts); err != nil {
			return fmt.Errorf("upsert connection: %w", err)
		}

		row := tx.QueryRowContext(ctx, `SELECT id FROM connections WHERE home_id = ? AND homeowner_id = ? AND contractor_id = ?`, homeID, homeownerID, contractorID)
		return row.Scan(&connID)
	})
	if err != nil {
		return nil, err
	}

	return r.GetConnectionByID(ctx, connID)
}
