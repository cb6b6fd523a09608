package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rxreturn/rxreturn-backend/internal/auth/jwt"
	"github.com/rxreturn/rxreturn-backend/internal/auth/repository"
	"github.com/rxreturn/rxreturn-backend/pkg/errors"
	"github.com/rxreturn/rxreturn-backend/pkg/httputil"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
)

// AuthService handles authentication logic
type AuthService struct {
	pharmacies *repository.PharmacyRepository
	sessions   *repository.SessionRepository
	jwtManager *jwt.Manager
	logger     *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(pharmacies *repository.PharmacyRepository, sessions *repository.SessionRepository, jwtManager *jwt.Manager, log *logger.Logger) *AuthService {
	return &AuthService{
		pharmacies: pharmacies,
		sessions:   sessions,
		jwtManager: jwtManager,
		logger:     log,
	}
}

// RegisterRequest represents a pharmacy registration request
type RegisterRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=200"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	DEANumber string `json:"dea_number" validate:"omitempty,min=9,max=9"`
	Phone     string `json:"phone" validate:"omitempty,max=30"`
	Address   string `json:"address" validate:"omitempty,max=300"`
	City      string `json:"city" validate:"omitempty,max=100"`
	State     string `json:"state" validate:"omitempty,len=2"`
	Zip       string `json:"zip" validate:"omitempty,max=10"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AccountInfo is the caller-visible slice of a pharmacy account
type AccountInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	TokenType    string       `json:"token_type"`
	Account      *AccountInfo `json:"account"`
}

// Register creates a new pharmacy account and logs it in
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest, userAgent, ipAddress string) (*LoginResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}

	pharmacy := &repository.Pharmacy{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         httputil.RolePharmacy,
		DEANumber:    optional(req.DEANumber),
		Phone:        optional(req.Phone),
		Address:      optional(req.Address),
		City:         optional(req.City),
		State:        optional(req.State),
		Zip:          optional(req.Zip),
	}

	if err := s.pharmacies.Create(ctx, pharmacy); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, pharmacy, userAgent, ipAddress)
}

// Login authenticates a pharmacy and returns tokens
func (s *AuthService) Login(ctx context.Context, req *LoginRequest, userAgent, ipAddress string) (*LoginResponse, error) {
	pharmacy, err := s.pharmacies.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.InvalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(pharmacy.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.InvalidCredentials()
	}

	if err := checkAccountStatus(pharmacy); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, pharmacy, userAgent, ipAddress)
}

// Refresh rotates the refresh token and returns a fresh token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, errors.Unauthorized("invalid session")
	}

	pharmacy, err := s.pharmacies.GetByID(ctx, claims.PharmacyID)
	if err != nil {
		return nil, errors.Unauthorized("invalid session")
	}

	if err := checkAccountStatus(pharmacy); err != nil {
		return nil, err
	}

	tokens, err := s.jwtManager.GenerateTokenPair(accountInfoForTokens(pharmacy), session.ID)
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}

	// Rotation: the presented refresh token is spent either way.
	if err := s.sessions.RotateRefreshToken(ctx, session.ID, tokens.RefreshToken); err != nil {
		s.logger.Error().Err(err).Msg("failed to rotate refresh token")
		return nil, errors.Internal("failed to refresh session")
	}

	return tokens, nil
}

// Logout invalidates the session holding the given refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.sessions.RevokeByRefreshToken(ctx, refreshToken); err != nil {
		s.logger.Warn().Err(err).Msg("failed to revoke session")
	}
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, pharmacy *repository.Pharmacy, userAgent, ipAddress string) (*LoginResponse, error) {
	sessionID := uuid.New().String()

	tokens, err := s.jwtManager.GenerateTokenPair(accountInfoForTokens(pharmacy), sessionID)
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}

	expiresAt := time.Now().Add(s.jwtManager.GetRefreshExpiry())
	if _, err := s.sessions.CreateWithID(ctx, sessionID, pharmacy.ID, tokens.RefreshToken, expiresAt, userAgent, ipAddress); err != nil {
		s.logger.Error().Err(err).Msg("failed to create session")
		return nil, errors.Internal("failed to create session")
	}

	return &LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		TokenType:    tokens.TokenType,
		Account: &AccountInfo{
			ID:     pharmacy.ID,
			Name:   pharmacy.Name,
			Email:  pharmacy.Email,
			Role:   pharmacy.Role,
			Status: pharmacy.Status,
		},
	}, nil
}

func checkAccountStatus(pharmacy *repository.Pharmacy) error {
	switch pharmacy.Status {
	case repository.PharmacyStatusSuspended:
		return errors.Forbidden("account suspended")
	case repository.PharmacyStatusBlacklisted:
		return errors.Forbidden("account blacklisted")
	default:
		return nil
	}
}

func accountInfoForTokens(pharmacy *repository.Pharmacy) *jwt.AccountInfo {
	return &jwt.AccountInfo{
		ID:    pharmacy.ID,
		Email: pharmacy.Email,
		Name:  pharmacy.Name,
		Role:  pharmacy.Role,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
