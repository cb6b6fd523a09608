package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rxreturn/rxreturn-backend/pkg/database"
	"github.com/rxreturn/rxreturn-backend/pkg/errors"
)

// Pharmacy account statuses
const (
	PharmacyStatusActive      = "active"
	PharmacyStatusSuspended   = "suspended"
	PharmacyStatusBlacklisted = "blacklisted"
)

// Pharmacy represents a pharmacy account
type Pharmacy struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	DEANumber    *string   `db:"dea_number" json:"dea_number,omitempty"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Address      *string   `db:"address" json:"address,omitempty"`
	City         *string   `db:"city" json:"city,omitempty"`
	State        *string   `db:"state" json:"state,omitempty"`
	Zip          *string   `db:"zip" json:"zip,omitempty"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PharmacyRepository handles pharmacy account persistence
type PharmacyRepository struct {
	db *database.DB
}

// NewPharmacyRepository creates a new pharmacy repository
func NewPharmacyRepository(db *database.DB) *PharmacyRepository {
	return &PharmacyRepository{db: db}
}

// Create creates a new pharmacy account
func (r *PharmacyRepository) Create(ctx context.Context, p *Pharmacy) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = PharmacyStatusActive
	}

	query := `
		INSERT INTO pharmacies (id, name, email, password_hash, role, dea_number, phone, address, city, state, zip, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID, p.Name, p.Email, p.PasswordHash, p.Role, p.DEANumber,
		p.Phone, p.Address, p.City, p.State, p.Zip, p.Status,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return database.MapPQError(err)
	}

	return nil
}

// GetByID gets a pharmacy by ID
func (r *PharmacyRepository) GetByID(ctx context.Context, id string) (*Pharmacy, error) {
	var p Pharmacy
	query := `
		SELECT id, name, email, password_hash, role, dea_number, phone, address, city, state, zip, status, created_at, updated_at
		FROM pharmacies WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("pharmacy")
		}
		return nil, err
	}
	return &p, nil
}

// GetByEmail gets a pharmacy by email
func (r *PharmacyRepository) GetByEmail(ctx context.Context, email string) (*Pharmacy, error) {
	var p Pharmacy
	query := `
		SELECT id, name, email, password_hash, role, dea_number, phone, address, city, state, zip, status, created_at, updated_at
		FROM pharmacies WHERE email = $1
	`
	if err := r.db.GetContext(ctx, &p, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("pharmacy")
		}
		return nil, err
	}
	return &p, nil
}

// List lists pharmacies with pagination (admin only)
func (r *PharmacyRepository) List(ctx context.Context, page, perPage int) ([]*Pharmacy, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM pharmacies`); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	var pharmacies []*Pharmacy
	query := `
		SELECT id, name, email, password_hash, role, dea_number, phone, address, city, state, zip, status, created_at, updated_at
		FROM pharmacies ORDER BY name LIMIT $1 OFFSET $2
	`
	if err := r.db.SelectContext(ctx, &pharmacies, query, perPage, offset); err != nil {
		return nil, 0, err
	}

	return pharmacies, total, nil
}

// UpdateStatus sets a pharmacy account status (admin only)
func (r *PharmacyRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE pharmacies SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("pharmacy")
	}

	return nil
}
