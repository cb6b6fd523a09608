package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rxreturn/rxreturn-backend/pkg/database"
	"github.com/rxreturn/rxreturn-backend/pkg/errors"
)

// InventoryItem is a pharmacy-owned stock unit. Status is derived from the
// expiration date at read time, never stored.
type InventoryItem struct {
	ID             string          `db:"id" json:"id"`
	PharmacyID     string          `db:"pharmacy_id" json:"pharmacy_id"`
	NDC            string          `db:"ndc" json:"ndc"`
	LotNumber      string          `db:"lot_number" json:"lot_number"`
	ExpirationDate time.Time       `db:"expiration_date" json:"expiration_date"`
	Quantity       int             `db:"quantity" json:"quantity"`
	Location       *string         `db:"location" json:"location,omitempty"`
	WACUnitPrice   decimal.Decimal `db:"wac_unit_price" json:"wac_unit_price"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`

	Status string `db:"-" json:"status"`
}

// ItemFilter narrows List results
type ItemFilter struct {
	NDC     string
	Status  string
	Page    int
	PerPage int
}

// ItemRepository handles inventory item persistence
type ItemRepository struct {
	db *database.DB
}

// NewItemRepository creates a new inventory item repository
func NewItemRepository(db *database.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `id, pharmacy_id, ndc, lot_number, expiration_date, quantity, location, wac_unit_price, created_at, updated_at`

// Create creates a new inventory item
func (r *ItemRepository) Create(ctx context.Context, item *InventoryItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	query := `
		INSERT INTO inventory_items (id, pharmacy_id, ndc, lot_number, expiration_date, quantity, location, wac_unit_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		item.ID, item.PharmacyID, item.NDC, item.LotNumber, item.ExpirationDate,
		item.Quantity, item.Location, item.WACUnitPrice,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return database.MapPQError(err)
	}
	return nil
}

// GetByID gets an item scoped to a pharmacy
func (r *ItemRepository) GetByID(ctx context.Context, pharmacyID, id string) (*InventoryItem, error) {
	var item InventoryItem
	query := fmt.Sprintf(`SELECT %s FROM inventory_items WHERE id = $1 AND pharmacy_id = $2`, itemColumns)
	if err := r.db.GetContext(ctx, &item, query, id, pharmacyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("inventory item")
		}
		return nil, err
	}
	return &item, nil
}

// List lists a pharmacy's items with optional NDC filter and pagination.
// Status filtering happens in the service layer since status is derived.
func (r *ItemRepository) List(ctx context.Context, pharmacyID string, filter ItemFilter) ([]*InventoryItem, int64, error) {
	where := `WHERE pharmacy_id = $1`
	args := []interface{}{pharmacyID}

	if filter.NDC != "" {
		where += fmt.Sprintf(` AND ndc = $%d`, len(args)+1)
		args = append(args, filter.NDC)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM inventory_items ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM inventory_items %s ORDER BY expiration_date ASC`, itemColumns, where)
	if filter.PerPage > 0 {
		offset := 0
		if filter.Page > 1 {
			offset = (filter.Page - 1) * filter.PerPage
		}
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, filter.PerPage, offset)
	}

	var items []*InventoryItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListAll loads every item for a pharmacy, oldest expiration first
func (r *ItemRepository) ListAll(ctx context.Context, pharmacyID string) ([]*InventoryItem, error) {
	var items []*InventoryItem
	query := fmt.Sprintf(`SELECT %s FROM inventory_items WHERE pharmacy_id = $1 ORDER BY expiration_date ASC`, itemColumns)
	if err := r.db.SelectContext(ctx, &items, query, pharmacyID); err != nil {
		return nil, err
	}
	return items, nil
}

// Update updates an item scoped to a pharmacy
func (r *ItemRepository) Update(ctx context.Context, item *InventoryItem) error {
	query := `
		UPDATE inventory_items SET
			ndc = $3, lot_number = $4, expiration_date = $5, quantity = $6,
			location = $7, wac_unit_price = $8, updated_at = NOW()
		WHERE id = $1 AND pharmacy_id = $2
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		item.ID, item.PharmacyID, item.NDC, item.LotNumber, item.ExpirationDate,
		item.Quantity, item.Location, item.WACUnitPrice,
	).Scan(&item.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return errors.NotFound("inventory item")
		}
		return database.MapPQError(err)
	}
	return nil
}

// Delete deletes an item scoped to a pharmacy
func (r *ItemRepository) Delete(ctx context.Context, pharmacyID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1 AND pharmacy_id = $2`, id, pharmacyID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("inventory item")
	}
	return nil
}
