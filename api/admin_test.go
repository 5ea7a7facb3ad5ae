package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/homefax/homefax/pkg/models"
	"github.com/homefax/homefax/pkg/repository"
	"github.com/homefax/homefax/pkg/repository/mock"
)

type stubAdminRepo struct {
	repository.AdminRepo
	lastUserFilter repository.UserFilter
	users          []models.User
	total          int64
}

func (s *stubAdminRepo) ListUsers(ctx context.Context, f repository.UserFilter) ([]models.User, int64, error) {
	s.lastUserFilter = f
	return s.users, s.total, nil
}

func TestAdminListUsersParsesQuery(t *testing.T) {
	admin := &stubAdminRepo{users: []models.User{{ID: 1, Email: "smith@example.com"}}, total: 41}
	h := NewAdminHandler(admin, nil, nil, nil, "secret", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/users?search=smith&role=PRO&pro_status=PENDING&suspended=true&sort=email&order=asc&skip=5&take=10", nil)
	w := httptest.NewRecorder()
	h.ListUsers(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	f := admin.lastUserFilter
	if f.Search != "smith" || f.Role != models.RolePro || f.ProStatus != models.ProPending {
		t.Fatalf("filter not parsed: %+v", f)
	}
	if f.Suspended == nil || !*f.Suspended {
		t.Fatalf("suspended flag not parsed")
	}
	if f.Sort.Column != "email" || f.Sort.Desc {
		t.Fatalf("sort not parsed: %+v", f.Sort)
	}
	if f.Page.Skip != 5 || f.Page.Take != 10 {
		t.Fatalf("page not parsed: %+v", f.Page)
	}

	var resp struct {
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Total != 41 {
		t.Fatalf("expected total 41 got %d", resp.Total)
	}
}

func TestAdminSortDefaultsToDescending(t *testing.T) {
	admin := &stubAdminRepo{}
	h := NewAdminHandler(admin, nil, nil, nil, "secret", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/users?sort=created", nil)
	w := httptest.NewRecorder()
	h.ListUsers(w, req)

	if !admin.lastUserFilter.Sort.Desc {
		t.Fatalf("expected descending default")
	}
}

func TestImpersonateStampsAdminClaim(t *testing.T) {
	mocks := mock.NewMocks()
	mocks.UserRepo.Stored = &models.User{ID: 2, Email: "target@example.com", Role: models.RoleHomeowner}

	h := NewAdminHandler(nil, mocks.UserRepo, nil, nil, "secret", time.Hour)

	req := withUser(httptest.NewRequest(http.MethodPost, "/v1/admin/users/2/impersonate", nil),
		&models.User{ID: 1, Role: models.RoleAdmin})
	req = mux.SetURLVars(req, map[string]string{"id": "2"})
	w := httptest.NewRecorder()
	h.Impersonate(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	tok, err := jwt.Parse(resp.Token, func(token *jwt.Token) (any, error) { return []byte("secret"), nil })
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	claims := tok.Claims.(jwt.MapClaims)
	if id, _ := claims["user_id"].(float64); int64(id) != 2 {
		t.Fatalf("wrong user_id claim: %v", claims["user_id"])
	}
	if imp, _ := claims["imp"].(float64); int64(imp) != 1 {
		t.Fatalf("missing imp claim: %v", claims["imp"])
	}
}

func TestImpersonateRefusesAdminTarget(t *testing.T) {
	mocks := mock.NewMocks()
	mocks.UserRepo.Stored = &models.User{ID: 2, Email: "root@example.com", Role: models.RoleAdmin}

	h := NewAdminHandler(nil, mocks.UserRepo, nil, nil, "secret", time.Hour)

	req := withUser(httptest.NewRequest(http.MethodPost, "/v1/admin/users/2/impersonate", nil),
		&models.User{ID: 1, Role: models.RoleAdmin})
	req = mux.SetURLVars(req, map[string]string{"id": "2"})
	w := httptest.NewRecorder()
	h.Impersonate(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestApproveProVerifiesProfile(t *testing.T) {
	mocks := mock.NewMocks()
	mocks.UserRepo.Stored = &models.User{ID: 9, Email: "pro@example.com", Role: models.RolePro, ProStatus: models.ProPending}
	mocks.ProfileRepo.CreateProProfile(context.Background(), &models.ProProfile{UserID: 9, BusinessName: "Pro LLC"})

	h := NewAdminHandler(nil, mocks.UserRepo, mocks.ProfileRepo, nil, "secret", time.Hour)

	req := withUser(httptest.NewRequest(http.MethodPost, "/v1/admin/pros/9/approve", nil),
		&models.User{ID: 1, Role: models.RoleAdmin})
	req = mux.SetURLVars(req, map[string]string{"id": "9"})
	w := httptest.NewRecorder()
	h.ApprovePro(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if mocks.UserRepo.Stored.ProStatus != models.ProApproved {
		t.Fatalf("pro status not flipped: %s", mocks.UserRepo.Stored.ProStatus)
	}
	profile, _ := mocks.ProfileRepo.GetProProfileByUserID(context.Background(), 9)
	if profile == nil || !profile.Verified {
		t.Fatalf("profile not marked verified")
	}
}

func TestApproveProRejectsNonPro(t *testing.T) {
	mocks := mock.NewMocks()
	mocks.UserRepo.Stored = &models.User{ID: 9, Email: "ho@example.com", Role: models.RoleHomeowner}

	h := NewAdminHandler(nil, mocks.UserRepo, mocks.ProfileRepo, nil, "secret", time.Hour)

	req := withUser(httptest.NewRequest(http.MethodPost, "/v1/admin/pros/9/approve", nil),
		&models.User{ID: 1, Role: models.RoleAdmin})
	req = mux.SetURLVars(req, map[string]string{"id": "9"})
	w := httptest.NewRecorder()
	h.ApprovePro(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}
