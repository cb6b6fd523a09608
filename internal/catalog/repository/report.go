package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/rxreturn/rxreturn-backend/pkg/database"
)

// Unit types for return report records
const (
	UnitTypeFull    = "full"
	UnitTypePartial = "partial"
)

// ReturnReportRecord is one observed price point: what a distributor paid
// per unit for an NDC on a given report date. Append-only; never mutated.
type ReturnReportRecord struct {
	ID            string          `db:"id" json:"id"`
	DistributorID string          `db:"distributor_id" json:"distributor_id"`
	NDC           string          `db:"ndc" json:"ndc"`
	UnitType      string          `db:"unit_type" json:"unit_type"`
	PricePerUnit  decimal.Decimal `db:"price_per_unit" json:"price_per_unit"`
	ReportDate    time.Time       `db:"report_date" json:"report_date"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// ReportRepository handles return report record persistence
type ReportRepository struct {
	db *database.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// InsertBatch appends a batch of report records in one transaction
func (r *ReportRepository) InsertBatch(ctx context.Context, records []*ReturnReportRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO return_report_records (id, distributor_id, ndc, unit_type, price_per_unit, report_date)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		for _, rec := range records {
			if rec.ID == "" {
				rec.ID = uuid.New().String()
			}
			if _, err := tx.ExecContext(ctx, query,
				rec.ID, rec.DistributorID, rec.NDC, rec.UnitType, rec.PricePerUnit, rec.ReportDate,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListByNDCs loads every report record for the given NDC set, ordered by
// report date then insertion time ascending. The ordering matters: the
// price book is built by replaying records in order, so for equal report
// dates the last inserted record wins.
func (r *ReportRepository) ListByNDCs(ctx context.Context, ndcs []string) ([]*ReturnReportRecord, error) {
	if len(ndcs) == 0 {
		return nil, nil
	}

	query, args, err := database.In(`
		SELECT id, distributor_id, ndc, unit_type, price_per_unit, report_date, created_at
		FROM return_report_records
		WHERE ndc IN (?)
		ORDER BY report_date ASC, created_at ASC`, ndcs)
	if err != nil {
		return nil, err
	}

	var records []*ReturnReportRecord
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return records, nil
}

// ListByDistributor loads report records for one distributor and NDC set,
// same ordering as ListByNDCs.
func (r *ReportRepository) ListByDistributor(ctx context.Context, distributorID string, ndcs []string) ([]*ReturnReportRecord, error) {
	if len(ndcs) == 0 {
		return nil, nil
	}

	query, args, err := database.In(`
		SELECT id, distributor_id, ndc, unit_type, price_per_unit, report_date, created_at
		FROM return_report_records
		WHERE distributor_id = ? AND ndc IN (?)
		ORDER BY report_date ASC, created_at ASC`, distributorID, ndcs)
	if err != nil {
		return nil, err
	}

	var records []*ReturnReportRecord
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return records, nil
}
