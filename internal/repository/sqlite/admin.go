package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/homefax/homefax/internal/filter"
	"github.com/homefax/homefax/pkg/models"
	"github.com/homefax/homefax/pkg/repository"
)

func (r *SQLiteRepo) ListUsers(ctx context.Context, f repository.UserFilter) ([]models.User, int64, error) {
	q, c := filter.Users(userColumns, f)

	total, err := r.countRows(ctx, c)
	if err != nil {
		return nil, 0, err
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build users query: %w", err)
	}
	rows, err := r.conn.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}
	return out, total, rows.Err()
}

func (r *SQLiteRepo) CountUsersByProStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT pro_status, COUNT(*) FROM users WHERE role = 'PRO' GROUP BY pro_status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *SQLiteRepo) ListContractors(ctx context.Context, f repository.ContractorFilter) ([]repository.ContractorListItem, int64, error) {
	q, c := filter.Contractors(userColumns, profileColumns, f)

	total, err := r.countRows(ctx, c)
	if err != nil {
		return nil, 0, err
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build contractors query: %w", err)
	}
	rows, err := r.conn.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []repository.ContractorListItem
	for rows.Next() {
		item, err := scanContractor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *item)
	}
	return out, total, rows.Err()
}

func scanContractor(row interface{ Scan(...any) error }) (*repository.ContractorListItem, error) {
	var item repository.ContractorListItem
	var suspended, emailVerified, profileVerified int64
	var specialties, areas string
	u := &item.User
	p := &item.Profile
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.ProStatus, &suspended, &emailVerified, &u.PasswordHash, &u.SeedTag, &u.Created, &u.Updated,
		&p.ID, &p.UserID, &p.BusinessName, &p.ProType, &profileVerified, &p.Rating, &specialties, &areas, &p.SeedTag, &p.Created, &p.Updated,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	u.Suspended = suspended != 0
	u.EmailVerified = emailVerified != 0
	p.Verified = profileVerified != 0
	if err := json.Unmarshal([]byte(specialties), &p.Specialties); err != nil {
		return nil, fmt.Errorf("decode specialties: %w", err)
	}
	if err := json.Unmarshal([]byte(areas), &p.ServiceAreas); err != nil {
		return nil, fmt.Errorf("decode service areas: %w", err)
	}
	return &item, nil
}

func (r *SQLiteRepo) ListHomes(ctx context.Context, f repository.HomeFilter) ([]models.Home, int64, error) {
	q, c := filter.Homes(homeColumns, f)

	total, err := r.countRows(ctx, c)
	if err != nil {
		return nil, 0, err
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build homes query: %w", err)
	}
	rows, err := r.conn.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.Home
	for rows.Next() {
		h, err := scanHome(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *h)
	}
	return out, total, rows.Err()
}

func (r *SQLiteRepo) ListTransfers(ctx context.Context, f repository.TransferFilter) ([]models.HomeTransfer, int64, error) {
	q, c := filter.Transfers(transferColumns, f)

	total, err := r.countRows(ctx, c)
	if err != nil {
		return nil, 0, err
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build transfers query: %w", err)
	}
	rows, err := r.conn.QueryRows(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.HomeTransfer
	for rows.Next() {
		tr, err := scanTransfer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *tr)
	}
	return out, total, rows.Err()
}

func (r *SQLiteRepo) CountTransfersByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.conn.QueryRows(ctx,
		`SELECT status, COUNT(*) FROM home_transfers GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *SQLiteRepo) countRows(ctx context.Context, c sq.SelectBuilder) (int64, error) {
	query, args, err := c.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	row := r.conn.QueryRow(ctx, query, args...)
	if err := row.Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
