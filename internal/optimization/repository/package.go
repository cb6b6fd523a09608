package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/rxreturn/rxreturn-backend/pkg/database"
	"github.com/rxreturn/rxreturn-backend/pkg/errors"
)

// CustomPackage groups items destined for one distributor. Delivery state
// is a boolean flag; the database keeps at most one non-delivered package
// per (pharmacy, distributor) pair via a partial unique index.
type CustomPackage struct {
	ID                  string          `db:"id" json:"id"`
	PackageNumber       string          `db:"package_number" json:"package_number"`
	PharmacyID          string          `db:"pharmacy_id" json:"pharmacy_id"`
	DistributorID       string          `db:"distributor_id" json:"distributor_id"`
	TotalItems          int             `db:"total_items" json:"total_items"`
	TotalEstimatedValue decimal.Decimal `db:"total_estimated_value" json:"total_estimated_value"`
	Delivered           bool            `db:"delivered" json:"delivered"`
	DeliveryDate        *time.Time      `db:"delivery_date" json:"delivery_date,omitempty"`
	ReceivedBy          *string         `db:"received_by" json:"received_by,omitempty"`
	DeliveryCondition   *string         `db:"delivery_condition" json:"delivery_condition,omitempty"`
	TrackingNumber      *string         `db:"tracking_number" json:"tracking_number,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`

	Items []*CustomPackageItem `db:"-" json:"items,omitempty"`
}

// CustomPackageItem is one line of a custom package
type CustomPackageItem struct {
	ID             string          `db:"id" json:"id"`
	PackageID      string          `db:"package_id" json:"package_id"`
	NDC            string          `db:"ndc" json:"ndc"`
	ProductName    *string         `db:"product_name" json:"product_name,omitempty"`
	FullCount      int             `db:"full_count" json:"full_count"`
	PartialCount   int             `db:"partial_count" json:"partial_count"`
	EstimatedValue decimal.Decimal `db:"estimated_value" json:"estimated_value"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// PackageRepository handles custom package persistence
type PackageRepository struct {
	db *database.DB
}

// NewPackageRepository creates a new package repository
func NewPackageRepository(db *database.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

// NewPackageNumber generates a package number from the current time plus a
// random suffix, e.g. PKG-20260831142500-4821.
func NewPackageNumber(now time.Time) string {
	return fmt.Sprintf("PKG-%s-%04d", now.Format("20060102150405"), rand.Intn(10000))
}

const packageColumns = `id, package_number, pharmacy_id, distributor_id, total_items, total_estimated_value,
	delivered, delivery_date, received_by, delivery_condition, tracking_number, created_at, updated_at`

// Create persists a package with its items in one transaction. A concurrent
// create for the same open (pharmacy, distributor) pair trips the partial
// unique index and surfaces as a 409.
func (r *PackageRepository) Create(ctx context.Context, pkg *CustomPackage) error {
	if pkg.ID == "" {
		pkg.ID = uuid.New().String()
	}

	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO custom_packages (id, package_number, pharmacy_id, distributor_id, total_items, total_estimated_value, delivered)
			VALUES ($1, $2, $3, $4, $5, $6, false)
			RETURNING created_at, updated_at
		`
		err := tx.QueryRowxContext(ctx, query,
			pkg.ID, pkg.PackageNumber, pkg.PharmacyID, pkg.DistributorID,
			pkg.TotalItems, pkg.TotalEstimatedValue,
		).Scan(&pkg.CreatedAt, &pkg.UpdatedAt)
		if err != nil {
			return database.MapPQError(err)
		}

		itemQuery := `
			INSERT INTO custom_package_items (id, package_id, ndc, product_name, full_count, partial_count, estimated_value)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		for _, item := range pkg.Items {
			if item.ID == "" {
				item.ID = uuid.New().String()
			}
			item.PackageID = pkg.ID
			if _, err := tx.ExecContext(ctx, itemQuery,
				item.ID, item.PackageID, item.NDC, item.ProductName,
				item.FullCount, item.PartialCount, item.EstimatedValue,
			); err != nil {
				return database.MapPQError(err)
			}
		}
		return nil
	})
}

// GetByID gets a package with its items, scoped to a pharmacy
func (r *PackageRepository) GetByID(ctx context.Context, pharmacyID, id string) (*CustomPackage, error) {
	var pkg CustomPackage
	query := fmt.Sprintf(`SELECT %s FROM custom_packages WHERE id = $1 AND pharmacy_id = $2`, packageColumns)
	if err := r.db.GetContext(ctx, &pkg, query, id, pharmacyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("package")
		}
		return nil, err
	}

	items, err := r.listItems(ctx, pkg.ID)
	if err != nil {
		return nil, err
	}
	pkg.Items = items
	return &pkg, nil
}

// List lists a pharmacy's packages, newest first
func (r *PackageRepository) List(ctx context.Context, pharmacyID string) ([]*CustomPackage, error) {
	var packages []*CustomPackage
	query := fmt.Sprintf(`SELECT %s FROM custom_packages WHERE pharmacy_id = $1 ORDER BY created_at DESC`, packageColumns)
	if err := r.db.SelectContext(ctx, &packages, query, pharmacyID); err != nil {
		return nil, err
	}
	return packages, nil
}

// FindOpen returns the non-delivered package for a (pharmacy, distributor)
// pair, or nil when none exists. The partial unique index guarantees at
// most one.
func (r *PackageRepository) FindOpen(ctx context.Context, pharmacyID, distributorID string) (*CustomPackage, error) {
	var pkg CustomPackage
	query := fmt.Sprintf(`
		SELECT %s FROM custom_packages
		WHERE pharmacy_id = $1 AND distributor_id = $2 AND NOT delivered`, packageColumns)
	if err := r.db.GetContext(ctx, &pkg, query, pharmacyID, distributorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &pkg, nil
}

// MarkDelivered flips a package to delivered with its delivery metadata
func (r *PackageRepository) MarkDelivered(ctx context.Context, id string, deliveryDate time.Time, receivedBy string, condition, trackingNumber *string) error {
	query := `
		UPDATE custom_packages SET
			delivered = true, delivery_date = $2, received_by = $3,
			delivery_condition = $4, tracking_number = $5, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, deliveryDate, receivedBy, condition, trackingNumber)
	if err != nil {
		return database.MapPQError(err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("package")
	}
	return nil
}

// Reopen flips a package back to non-delivered and clears all delivery
// metadata. Trips the partial unique index if another open package exists
// for the pair.
func (r *PackageRepository) Reopen(ctx context.Context, id string) error {
	query := `
		UPDATE custom_packages SET
			delivered = false, delivery_date = NULL, received_by = NULL,
			delivery_condition = NULL, tracking_number = NULL, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return database.MapPQError(err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("package")
	}
	return nil
}

// Delete deletes a package; items cascade at the database level
func (r *PackageRepository) Delete(ctx context.Context, pharmacyID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM custom_packages WHERE id = $1 AND pharmacy_id = $2`, id, pharmacyID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("package")
	}
	return nil
}

func (r *PackageRepository) listItems(ctx context.Context, packageID string) ([]*CustomPackageItem, error) {
	var items []*CustomPackageItem
	query := `
		SELECT id, package_id, ndc, product_name, full_count, partial_count, estimated_value, created_at
		FROM custom_package_items
		WHERE package_id = $1
		ORDER BY created_at ASC
	`
	if err := r.db.SelectContext(ctx, &items, query, packageID); err != nil {
		return nil, err
	}
	return items, nil
}
