package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rxreturn/rxreturn-backend/pkg/database"
	"github.com/rxreturn/rxreturn-backend/pkg/errors"
)

// Product represents a drug product keyed by NDC
type Product struct {
	ID                  string          `db:"id" json:"id"`
	NDC                 string          `db:"ndc" json:"ndc"`
	ProprietaryName     string          `db:"proprietary_name" json:"proprietary_name"`
	NonProprietaryName  *string         `db:"non_proprietary_name" json:"non_proprietary_name,omitempty"`
	Manufacturer        *string         `db:"manufacturer" json:"manufacturer,omitempty"`
	WACUnitPrice        decimal.Decimal `db:"wac_unit_price" json:"wac_unit_price"`
	DEASchedule         *string         `db:"dea_schedule" json:"dea_schedule,omitempty"`
	ReturnWindowDays    int             `db:"return_window_days" json:"return_window_days"`
	BaseCreditPct       decimal.Decimal `db:"base_credit_pct" json:"base_credit_pct"`
	DestructionRequired bool            `db:"destruction_required" json:"destruction_required"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`
}

// ProductRepository handles product persistence
type ProductRepository struct {
	db *database.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Upsert creates or refreshes a product by NDC. Products are never deleted,
// so repeated lookups for the same NDC converge on one row.
func (r *ProductRepository) Upsert(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	query := `
		INSERT INTO products (
			id, ndc, proprietary_name, non_proprietary_name, manufacturer,
			wac_unit_price, dea_schedule, return_window_days, base_credit_pct, destruction_required
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (ndc) DO UPDATE SET
			proprietary_name = EXCLUDED.proprietary_name,
			non_proprietary_name = EXCLUDED.non_proprietary_name,
			manufacturer = EXCLUDED.manufacturer,
			wac_unit_price = EXCLUDED.wac_unit_price,
			dea_schedule = EXCLUDED.dea_schedule,
			return_window_days = EXCLUDED.return_window_days,
			base_credit_pct = EXCLUDED.base_credit_pct,
			destruction_required = EXCLUDED.destruction_required,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	return r.db.QueryRowxContext(ctx, query,
		p.ID, p.NDC, p.ProprietaryName, p.NonProprietaryName, p.Manufacturer,
		p.WACUnitPrice, p.DEASchedule, p.ReturnWindowDays, p.BaseCreditPct, p.DestructionRequired,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetByNDC gets a product by its normalized NDC
func (r *ProductRepository) GetByNDC(ctx context.Context, ndc string) (*Product, error) {
	var p Product
	query := `
		SELECT id, ndc, proprietary_name, non_proprietary_name, manufacturer,
		       wac_unit_price, dea_schedule, return_window_days, base_credit_pct, destruction_required,
		       created_at, updated_at
		FROM products WHERE ndc = $1
	`
	if err := r.db.GetContext(ctx, &p, query, ndc); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("product")
		}
		return nil, err
	}
	return &p, nil
}

// GetByNDCs gets products for a set of NDCs, keyed by NDC. Missing NDCs are
// simply absent from the result.
func (r *ProductRepository) GetByNDCs(ctx context.Context, ndcs []string) (map[string]*Product, error) {
	result := make(map[string]*Product, len(ndcs))
	if len(ndcs) == 0 {
		return result, nil
	}

	query, args, err := database.In(`
		SELECT id, ndc, proprietary_name, non_proprietary_name, manufacturer,
		       wac_unit_price, dea_schedule, return_window_days, base_credit_pct, destruction_required,
		       created_at, updated_at
		FROM products WHERE ndc IN (?)`, ndcs)
	if err != nil {
		return nil, err
	}

	var products []*Product
	if err := r.db.SelectContext(ctx, &products, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	for _, p := range products {
		result[p.NDC] = p
	}
	return result, nil
}
