package service

import (
	"context"
	"errors"
	"fmt"

	"sheet_analytics/internal/common"
	"sheet_analytics/internal/common/security"
	"sheet_analytics/internal/domain/model"
	"sheet_analytics/internal/domain/repository"
	"sheet_analytics/internal/platform/metrics"

	"github.com/google/uuid"
)

type AuthService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, common.Errorf("username, email and password are required: %w", common.ErrBadRequest)
	}

	role := req.Role
	if role == "" {
		role = model.RoleUser // Default role
	}
	if !model.IsValidRole(role) {
		return nil, common.Errorf("invalid role %q: %w", role, common.ErrBadRequest)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		Role:           role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrConflict) {
			// API contract: taken email is a 400, not a 409.
			return nil, common.Errorf("user with this email already exists: %w", common.ErrBadRequest)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := security.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	metrics.Registrations.Inc()
	user.HashedPassword = "" // Clear password before returning
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, common.Errorf("email and password are required: %w", common.ErrBadRequest)
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Generic message, and a 400 per the API contract.
			return nil, common.Errorf("invalid credentials: %w", common.ErrBadRequest)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.Errorf("invalid credentials: %w", common.ErrBadRequest)
	}

	token, err := security.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	metrics.Logins.Inc()
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}
