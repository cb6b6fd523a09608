package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/rxreturn/rxreturn-backend/pkg/database"
	"github.com/rxreturn/rxreturn-backend/pkg/errors"
)

// Return statuses
const (
	StatusDraft       = "draft"
	StatusReadyToShip = "ready_to_ship"
	StatusInTransit   = "in_transit"
	StatusProcessing  = "processing"
	StatusCompleted   = "completed"
	StatusCancelled   = "cancelled"
)

// Return is a pharmacy's return submission
type Return struct {
	ID                   string          `db:"id" json:"id"`
	PharmacyID           string          `db:"pharmacy_id" json:"pharmacy_id"`
	Status               string          `db:"status" json:"status"`
	TotalEstimatedCredit decimal.Decimal `db:"total_estimated_credit" json:"total_estimated_credit"`
	ShipmentID           *string         `db:"shipment_id" json:"shipment_id,omitempty"`
	Notes                *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updated_at"`

	Items []*ReturnItem `db:"-" json:"items,omitempty"`
}

// ReturnItem is one line of a return
type ReturnItem struct {
	ID              string          `db:"id" json:"id"`
	ReturnID        string          `db:"return_id" json:"return_id"`
	NDC             string          `db:"ndc" json:"ndc"`
	LotNumber       string          `db:"lot_number" json:"lot_number"`
	ExpirationDate  time.Time       `db:"expiration_date" json:"expiration_date"`
	Quantity        int             `db:"quantity" json:"quantity"`
	Condition       string          `db:"condition" json:"condition"`
	EstimatedCredit decimal.Decimal `db:"estimated_credit" json:"estimated_credit"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// ReturnRepository handles return persistence
type ReturnRepository struct {
	db *database.DB
}

// NewReturnRepository creates a new return repository
func NewReturnRepository(db *database.DB) *ReturnRepository {
	return &ReturnRepository{db: db}
}

const returnColumns = `id, pharmacy_id, status, total_estimated_credit, shipment_id, notes, created_at, updated_at`

// Create persists a return with its items in one transaction. The stored
// total always equals the sum of the item estimates.
func (r *ReturnRepository) Create(ctx context.Context, ret *Return) error {
	if ret.ID == "" {
		ret.ID = uuid.New().String()
	}

	ret.TotalEstimatedCredit = sumItemCredits(ret.Items)

	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO returns (id, pharmacy_id, status, total_estimated_credit, shipment_id, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at
		`
		err := tx.QueryRowxContext(ctx, query,
			ret.ID, ret.PharmacyID, ret.Status, ret.TotalEstimatedCredit, ret.ShipmentID, ret.Notes,
		).Scan(&ret.CreatedAt, &ret.UpdatedAt)
		if err != nil {
			return database.MapPQError(err)
		}

		return insertItems(ctx, tx, ret.ID, ret.Items)
	})
}

// GetByID gets a return with its items, scoped to a pharmacy unless
// pharmacyID is empty (admin access).
func (r *ReturnRepository) GetByID(ctx context.Context, pharmacyID, id string) (*Return, error) {
	var ret Return
	query := fmt.Sprintf(`SELECT %s FROM returns WHERE id = $1`, returnColumns)
	args := []interface{}{id}
	if pharmacyID != "" {
		query += ` AND pharmacy_id = $2`
		args = append(args, pharmacyID)
	}

	if err := r.db.GetContext(ctx, &ret, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("return")
		}
		return nil, err
	}

	items, err := r.listItems(ctx, ret.ID)
	if err != nil {
		return nil, err
	}
	ret.Items = items
	return &ret, nil
}

// List lists a pharmacy's returns, newest first, optionally filtered by status
func (r *ReturnRepository) List(ctx context.Context, pharmacyID, status string) ([]*Return, error) {
	query := fmt.Sprintf(`SELECT %s FROM returns WHERE pharmacy_id = $1`, returnColumns)
	args := []interface{}{pharmacyID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	var returns []*Return
	if err := r.db.SelectContext(ctx, &returns, query, args...); err != nil {
		return nil, err
	}
	return returns, nil
}

// UpdateStatus sets a return's status
func (r *ReturnRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE returns SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return database.MapPQError(err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("return")
	}
	return nil
}

// UpdateMeta updates shipment and notes fields
func (r *ReturnRepository) UpdateMeta(ctx context.Context, ret *Return) error {
	query := `UPDATE returns SET shipment_id = $2, notes = $3, updated_at = NOW() WHERE id = $1 AND pharmacy_id = $4`
	result, err := r.db.ExecContext(ctx, query, ret.ID, ret.ShipmentID, ret.Notes, ret.PharmacyID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("return")
	}
	return nil
}

// ReplaceItems swaps a return's items and recomputes the stored total in a
// single transaction.
func (r *ReturnRepository) ReplaceItems(ctx context.Context, returnID string, items []*ReturnItem) (decimal.Decimal, error) {
	total := sumItemCredits(items)

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM return_items WHERE return_id = $1`, returnID); err != nil {
			return err
		}
		if err := insertItems(ctx, tx, returnID, items); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`UPDATE returns SET total_estimated_credit = $2, updated_at = NOW() WHERE id = $1`,
			returnID, total)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// Delete deletes a return and cascades its items
func (r *ReturnRepository) Delete(ctx context.Context, pharmacyID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM returns WHERE id = $1 AND pharmacy_id = $2`, id, pharmacyID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("return")
	}
	return nil
}

func (r *ReturnRepository) listItems(ctx context.Context, returnID string) ([]*ReturnItem, error) {
	var items []*ReturnItem
	query := `
		SELECT id, return_id, ndc, lot_number, expiration_date, quantity, condition, estimated_credit, created_at
		FROM return_items
		WHERE return_id = $1
		ORDER BY created_at ASC
	`
	if err := r.db.SelectContext(ctx, &items, query, returnID); err != nil {
		return nil, err
	}
	return items, nil
}

func insertItems(ctx context.Context, tx *sqlx.Tx, returnID string, items []*ReturnItem) error {
	query := `
		INSERT INTO return_items (id, return_id, ndc, lot_number, expiration_date, quantity, condition, estimated_credit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.ReturnID = returnID
		if _, err := tx.ExecContext(ctx, query,
			item.ID, item.ReturnID, item.NDC, item.LotNumber, item.ExpirationDate,
			item.Quantity, item.Condition, item.EstimatedCredit,
		); err != nil {
			return database.MapPQError(err)
		}
	}
	return nil
}

func sumItemCredits(items []*ReturnItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.EstimatedCredit)
	}
	return total
}
