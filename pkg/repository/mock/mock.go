package mock

import (
	"context"

	"github.com/homefax/homefax/pkg/models"
)

// Test helpers and mocks
type Mocks struct {
	UserRepo    *mockUserRepo
	ProfileRepo *mockProfileRepo
}

func NewMocks() *Mocks {
	return &Mocks{
		UserRepo:    &mockUserRepo{},
		ProfileRepo: &mockProfileRepo{},
	}
}

type mockUserRepo struct {
	Stored    *models.User
	CreateErr error
}

func (m *mockUserRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.Stored = &models.User{ID: 1, Name: u.Name, Email: u.Email, Role: u.Role, ProStatus: u.ProStatus, PasswordHash: u.PasswordHash}
	return 1, nil
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	if m.Stored != nil && m.Stored.ID == id {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *mockUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.Stored != nil && m.Stored.Email == email {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *mockUserRepo) UpdateUser(ctx context.Context, u *models.User) error {
	m.Stored = u
	return nil
}

func (m *mockUserRepo) SetProStatus(ctx context.Context, userID int64, status models.ProStatus) error {
	if m.Stored != nil && m.Stored.ID == userID {
		m.Stored.ProStatus = status
	}
	return nil
}

func (m *mockUserRepo) SetSuspended(ctx context.Context, userID int64, suspended bool) error {
	if m.Stored != nil && m.Stored.ID == userID {
		m.Stored.Suspended = suspended
	}
	return nil
}

type mockProfileRepo struct {
	Stored *models.ProProfile
}

func (m *mockProfileRepo) CreateProProfile(ctx context.Context, p *models.ProProfile) (int64, error) {
	m.Stored = p
	return 1, nil
}

func (m *mockProfileRepo) GetProProfileByUserID(ctx context.Context, userID int64) (*models.ProProfile, error) {
	if m.Stored != nil && m.Stored.UserID == userID {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *mockProfileRepo) SetProfileVerified(ctx context.Context, userID int64, verified bool) error {
	if m.Stored != nil && m.Stored.UserID == userID {
		m.Stored.Verified = verified
	}
	return nil
}
