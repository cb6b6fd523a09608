package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/rxreturn/rxreturn-backend/pkg/database"
)

// Session represents a refresh-token session for a pharmacy account
type Session struct {
	ID               string     `db:"id"`
	PharmacyID       string     `db:"pharmacy_id"`
	RefreshTokenHash string     `db:"refresh_token_hash"`
	UserAgent        *string    `db:"user_agent"`
	IPAddress        *string    `db:"ip_address"`
	ExpiresAt        time.Time  `db:"expires_at"`
	CreatedAt        time.Time  `db:"created_at"`
	LastUsedAt       time.Time  `db:"last_used_at"`
	RevokedAt        *time.Time `db:"revoked_at"`
}

// SessionRepository handles session persistence
type SessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateWithID creates a new session with a specific ID. Only a SHA-256 hash
// of the refresh token is stored.
func (r *SessionRepository) CreateWithID(ctx context.Context, id, pharmacyID, refreshToken string, expiresAt time.Time, userAgent, ipAddress string) (*Session, error) {
	session := &Session{
		ID:               id,
		PharmacyID:       pharmacyID,
		RefreshTokenHash: hashToken(refreshToken),
		UserAgent:        &userAgent,
		IPAddress:        &ipAddress,
		ExpiresAt:        expiresAt,
		CreatedAt:        time.Now(),
		LastUsedAt:       time.Now(),
	}

	query := `
		INSERT INTO sessions (id, pharmacy_id, refresh_token_hash, user_agent, ip_address, expires_at, created_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.PharmacyID,
		session.RefreshTokenHash,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
		session.CreatedAt,
		session.LastUsedAt,
	)
	if err != nil {
		return nil, err
	}

	return session, nil
}

// Create creates a new session with a generated ID
func (r *SessionRepository) Create(ctx context.Context, pharmacyID, refreshToken string, expiresAt time.Time, userAgent, ipAddress string) (*Session, error) {
	return r.CreateWithID(ctx, uuid.New().String(), pharmacyID, refreshToken, expiresAt, userAgent, ipAddress)
}

// GetByRefreshToken gets a live session by refresh token
func (r *SessionRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	hash := hashToken(refreshToken)

	var session Session
	query := `
		SELECT id, pharmacy_id, refresh_token_hash, user_agent, ip_address, expires_at, created_at, last_used_at, revoked_at
		FROM sessions
		WHERE refresh_token_hash = $1 AND revoked_at IS NULL AND expires_at > NOW()
	`

	if err := r.db.GetContext(ctx, &session, query, hash); err != nil {
		return nil, err
	}

	return &session, nil
}

// RotateRefreshToken swaps the stored hash for a new refresh token.
// The old token stops working the moment this commits.
func (r *SessionRepository) RotateRefreshToken(ctx context.Context, id, newRefreshToken string) error {
	query := `UPDATE sessions SET refresh_token_hash = $2, last_used_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, hashToken(newRefreshToken))
	return err
}

// RevokeByRefreshToken revokes the session holding the given refresh token
func (r *SessionRepository) RevokeByRefreshToken(ctx context.Context, refreshToken string) error {
	query := `UPDATE sessions SET revoked_at = NOW() WHERE refresh_token_hash = $1 AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, hashToken(refreshToken))
	return err
}

// RevokeAllForPharmacy revokes every live session for a pharmacy
func (r *SessionRepository) RevokeAllForPharmacy(ctx context.Context, pharmacyID string) error {
	query := `UPDATE sessions SET revoked_at = NOW() WHERE pharmacy_id = $1 AND revoked_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, pharmacyID)
	return err
}

// DeleteExpired removes sessions past their expiry
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
