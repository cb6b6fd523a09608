package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/rxreturn/rxreturn-backend/pkg/database"
	"github.com/rxreturn/rxreturn-backend/pkg/errors"
)

// ReverseDistributor represents a reverse distributor accepting returns
type ReverseDistributor struct {
	ID               string         `db:"id" json:"id"`
	Name             string         `db:"name" json:"name"`
	ContactEmail     *string        `db:"contact_email" json:"contact_email,omitempty"`
	ContactPhone     *string        `db:"contact_phone" json:"contact_phone,omitempty"`
	Address          *string        `db:"address" json:"address,omitempty"`
	City             *string        `db:"city" json:"city,omitempty"`
	State            *string        `db:"state" json:"state,omitempty"`
	Zip              *string        `db:"zip" json:"zip,omitempty"`
	SupportedFormats pq.StringArray `db:"supported_formats" json:"supported_formats"`
	IsActive         bool           `db:"is_active" json:"is_active"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// FeeScheduleEntry maps a processing duration to a fee percentage for a
// distributor. The entry with the most recent effective date per duration is
// the one in force.
type FeeScheduleEntry struct {
	ID            string          `db:"id" json:"id"`
	DistributorID string          `db:"distributor_id" json:"distributor_id"`
	DurationDays  int             `db:"duration_days" json:"duration_days"`
	Percentage    decimal.Decimal `db:"percentage" json:"percentage"`
	EffectiveDate time.Time       `db:"effective_date" json:"effective_date"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// DistributorRepository handles reverse distributor persistence
type DistributorRepository struct {
	db *database.DB
}

// NewDistributorRepository creates a new distributor repository
func NewDistributorRepository(db *database.DB) *DistributorRepository {
	return &DistributorRepository{db: db}
}

// Create creates a new distributor
func (r *DistributorRepository) Create(ctx context.Context, d *ReverseDistributor) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}

	query := `
		INSERT INTO reverse_distributors (id, name, contact_email, contact_phone, address, city, state, zip, supported_formats, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	return r.db.QueryRowxContext(ctx, query,
		d.ID, d.Name, d.ContactEmail, d.ContactPhone, d.Address, d.City, d.State, d.Zip,
		d.SupportedFormats, d.IsActive,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

// GetByID gets a distributor by ID
func (r *DistributorRepository) GetByID(ctx context.Context, id string) (*ReverseDistributor, error) {
	var d ReverseDistributor
	query := `
		SELECT id, name, contact_email, contact_phone, address, city, state, zip, supported_formats, is_active, created_at, updated_at
		FROM reverse_distributors WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &d, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("distributor")
		}
		return nil, err
	}
	return &d, nil
}

// List lists all distributors
func (r *DistributorRepository) List(ctx context.Context, activeOnly bool) ([]*ReverseDistributor, error) {
	query := `
		SELECT id, name, contact_email, contact_phone, address, city, state, zip, supported_formats, is_active, created_at, updated_at
		FROM reverse_distributors
	`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY name`

	var distributors []*ReverseDistributor
	if err := r.db.SelectContext(ctx, &distributors, query); err != nil {
		return nil, err
	}
	return distributors, nil
}

// Update updates a distributor
func (r *DistributorRepository) Update(ctx context.Context, d *ReverseDistributor) error {
	query := `
		UPDATE reverse_distributors SET
			name = $2, contact_email = $3, contact_phone = $4, address = $5,
			city = $6, state = $7, zip = $8, supported_formats = $9, is_active = $10,
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		d.ID, d.Name, d.ContactEmail, d.ContactPhone, d.Address, d.City, d.State, d.Zip,
		d.SupportedFormats, d.IsActive,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("distributor")
	}
	return nil
}

// AddFeeScheduleEntry appends a fee schedule entry for a distributor
func (r *DistributorRepository) AddFeeScheduleEntry(ctx context.Context, e *FeeScheduleEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	query := `
		INSERT INTO distributor_fee_schedules (id, distributor_id, duration_days, percentage, effective_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	return r.db.QueryRowxContext(ctx, query,
		e.ID, e.DistributorID, e.DurationDays, e.Percentage, e.EffectiveDate,
	).Scan(&e.CreatedAt)
}

// ListFeeSchedule lists all fee schedule entries for a distributor, newest
// effective date first within each duration.
func (r *DistributorRepository) ListFeeSchedule(ctx context.Context, distributorID string) ([]*FeeScheduleEntry, error) {
	var entries []*FeeScheduleEntry
	query := `
		SELECT id, distributor_id, duration_days, percentage, effective_date, created_at
		FROM distributor_fee_schedules
		WHERE distributor_id = $1
		ORDER BY duration_days, effective_date DESC
	`
	if err := r.db.SelectContext(ctx, &entries, query, distributorID); err != nil {
		return nil, err
	}
	return entries, nil
}

// CurrentFeeRate returns the fee entry in force for a distributor and
// duration: the entry with the latest effective date not after now.
func (r *DistributorRepository) CurrentFeeRate(ctx context.Context, distributorID string, durationDays int) (*FeeScheduleEntry, error) {
	var e FeeScheduleEntry
	query := `
		SELECT id, distributor_id, duration_days, percentage, effective_date, created_at
		FROM distributor_fee_schedules
		WHERE distributor_id = $1 AND duration_days = $2 AND effective_date <= NOW()
		ORDER BY effective_date DESC
		LIMIT 1
	`
	if err := r.db.GetContext(ctx, &e, query, distributorID, durationDays); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("fee schedule entry")
		}
		return nil, err
	}
	return &e, nil
}
