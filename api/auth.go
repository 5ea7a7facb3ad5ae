package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/homefax/homefax/pkg/models"
	"github.com/homefax/homefax/pkg/repository"
)

type AuthHandler struct {
	userRepo      repository.UserRepo
	profileRepo   repository.ProProfileRepo
	jwtSecret     string
	tokenDuration time.Duration
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(ur repository.UserRepo, pr repository.ProProfileRepo, jwtSecret string, tokenDuration time.Duration) *AuthHandler {
	return &AuthHandler{userRepo: ur, profileRepo: pr, jwtSecret: jwtSecret, tokenDuration: tokenDuration}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type proApplyRequest struct {
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	BusinessName string         `json:"business_name"`
	ProType      models.ProType `json:"pro_type"`
	Specialties  []string       `json:"specialties,omitempty"`
	ServiceAreas []string       `json:"service_areas,omitempty"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// issueToken signs a session token. impersonatorID, when non-zero, is
// recorded in an "imp" claim so audit trails can tell admin sessions
// apart from the user's own.
func issueToken(secret string, dur time.Duration, user *models.User, impersonatorID int64) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"exp":     time.Now().Add(dur).Unix(),
	}
	if impersonatorID != 0 {
		claims["imp"] = impersonatorID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, &models.ValidationError{Msg: "name, email and password are required"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()

	user := &models.User{
		Name:         req.Name,
		Email:        strings.TrimSpace(req.Email),
		Role:         models.RoleHomeowner,
		PasswordHash: string(hash),
	}
	id, err := h.userRepo.CreateUser(ctx, user)
	if err != nil {
		// the email column is unique; surface a friendly message
		writeError(w, &models.ValidationError{Msg: "could not create account, email may be in use"})
		return
	}
	user.ID = id

	tokenStr, err := issueToken(h.jwtSecret, h.tokenDuration, user, 0)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, authResponse{Token: tokenStr, User: user}, http.StatusCreated)
}

// ProApply registers a pro account pending admin approval.
func (h *AuthHandler) ProApply(w http.ResponseWriter, r *http.Request) {
	var req proApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || req.BusinessName == "" {
		writeError(w, &models.ValidationError{Msg: "name, email, password and business_name are required"})
		return
	}
	switch req.ProType {
	case models.ProContractor, models.ProRealtor, models.ProInspector:
	case "":
		req.ProType = models.ProContractor
	default:
		writeError(w, &models.ValidationError{Msg: "invalid pro_type"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()

	user := &models.User{
		Name:         req.Name,
		Email:        strings.TrimSpace(req.Email),
		Role:         models.RolePro,
		ProStatus:    models.ProPending,
		PasswordHash: string(hash),
	}
	id, err := h.userRepo.CreateUser(ctx, user)
	if err != nil {
		writeError(w, &models.ValidationError{Msg: "could not create account, email may be in use"})
		return
	}
	user.ID = id

	profile := &models.ProProfile{
		UserID:       id,
		BusinessName: req.BusinessName,
		ProType:      req.ProType,
		Specialties:  req.Specialties,
		ServiceAreas: req.ServiceAreas,
	}
	if _, err := h.profileRepo.CreateProProfile(ctx, profile); err != nil {
		writeError(w, err)
		return
	}

	tokenStr, err := issueToken(h.jwtSecret, h.tokenDuration, user, 0)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, authResponse{Token: tokenStr, User: user}, http.StatusCreated)
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &models.ValidationError{Msg: "invalid request body"})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, &models.ValidationError{Msg: "email and password are required"})
		return
	}

	ctx := r.Context()

	user, err := h.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil || user == nil {
		writeError(w, &models.UnauthorizedError{Msg: "credentials not found"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, &models.UnauthorizedError{Msg: "credentials not found"})
		return
	}
	if user.Suspended {
		writeError(w, &models.ForbiddenError{Msg: "account suspended"})
		return
	}

	tokenStr, err := issueToken(h.jwtSecret, h.tokenDuration, user, 0)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, authResponse{Token: tokenStr, User: user}, http.StatusOK)
}

func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	// For stateless JWT, signout is client-side (just delete token)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, `{"message":"signed out"}`)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, &models.UnauthorizedError{})
		return
	}
	writeJSON(w, user, http.StatusOK)
}
