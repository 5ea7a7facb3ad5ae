package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/homefax/homefax/pkg/models"
)

const profileColumns = `id, user_id, business_name, pro_type, verified, rating, specialties, service_areas, seed_tag, created, updated`

func (r *SQLiteRepo) CreateProProfile(ctx context.Context, p *models.ProProfile) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("profile is nil")
	}

	specialties, err := json.Marshal(p.Specialties)
	if err != nil {
		return 0, err
	}
	areas, err := json.Marshal(p.ServiceAreas)
	if err != nil {
		return 0, err
	}

	ts := now()
	res, err := r.conn.Exec(ctx,
		`INSERT INTO pro_profiles (user_id, business_name, pro_type, verified, rating, specialties, service_areas, seed_tag, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.BusinessName, p.ProType, boolToInt(p.Verified), p.Rating, string(specialties), string(areas), p.SeedTag, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetProProfileByUserID(ctx context.Context, userID int64) (*models.ProProfile, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM pro_profiles WHERE user_id = ?`, userID)

	var p models.ProProfile
	var verified int64
	var specialties, areas string
	if err := row.Scan(&p.ID, &p.UserID, &p.BusinessName, &p.ProType, &verified, &p.Rating, &specialties, &areas, &p.SeedTag, &p.Created, &p.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	p.Verified = verified != 0
	if err := json.Unmarshal([]byte(specialties), &p.Specialties); err != nil {
		return nil, fmt.Errorf("decode specialties: %w", err)
	}
	if err := json.Unmarshal([]byte(areas), &p.ServiceAreas); err != nil {
		return nil, fmt.Errorf("decode service areas: %w", err)
	}

	return &p, nil
}

func (r *SQLiteRepo) SetProfileVerified(ctx context.Context, userID int64, verified bool) error {
	_, err := r.conn.Exec(ctx, `UPDATE pro_profiles SET verified = ?, updated = ? WHERE user_id = ?`, boolToInt(verified), now(), userID)
	return err
}
