package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/alxtravel/travel-booking-api/internal/auth"
	"github.com/alxtravel/travel-booking-api/internal/domain"
	"github.com/alxtravel/travel-booking-api/internal/logging"
)

const tokenExpiry = 24 * time.Hour

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type AuthHandler struct {
	users  userStore
	secret string
}

func NewAuthHandler(users userStore, secret string) *AuthHandler {
	return &AuthHandler{users: users, secret: secret}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if req.Email == "" || req.Password == "" {
		RespondError(w, http.StatusBadRequest, "email and password are required.", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("password hashing failed", "error", err)
		RespondError(w, http.StatusInternalServerError, "An unexpected error occurred", nil)
		return
	}

	u := &domain.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.users.Create(r.Context(), u); err != nil {
		RespondDomainError(w, err)
		return
	}

	token, err := auth.GenerateToken(u.ID, u.Email, h.secret, tokenExpiry)
	if err != nil {
		log.Error("token generation failed", "error", err)
		RespondError(w, http.StatusInternalServerError, "An unexpected error occurred", nil)
		return
	}

	RespondJSON(w, http.StatusCreated, authResponse{Message: "Account created", Token: token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	u, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			RespondError(w, http.StatusUnauthorized, "Invalid email or password", nil)
			return
		}
		log.Error("user lookup failed", "error", err)
		RespondError(w, http.StatusInternalServerError, "An unexpected error occurred", nil)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		RespondError(w, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	}

	token, err := auth.GenerateToken(u.ID, u.Email, h.secret, tokenExpiry)
	if err != nil {
		log.Error("token generation failed", "error", err)
		RespondError(w, http.StatusInternalServerError, "An unexpected error occurred", nil)
		return
	}

	RespondJSON(w, http.StatusOK, authResponse{Message: "Logged in", Token: token})
}
