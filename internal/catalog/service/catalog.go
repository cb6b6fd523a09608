package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxreturn/rxreturn-backend/internal/catalog/repository"
	"github.com/rxreturn/rxreturn-backend/internal/events"
	"github.com/rxreturn/rxreturn-backend/pkg/errors"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
	"github.com/rxreturn/rxreturn-backend/pkg/ndc"
)

// CatalogService handles products, distributors and report records
type CatalogService struct {
	products     *repository.ProductRepository
	distributors *repository.DistributorRepository
	reports      *repository.ReportRepository
	publisher    *events.Publisher
	logger       *logger.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	products *repository.ProductRepository,
	distributors *repository.DistributorRepository,
	reports *repository.ReportRepository,
	publisher *events.Publisher,
	log *logger.Logger,
) *CatalogService {
	return &CatalogService{
		products:     products,
		distributors: distributors,
		reports:      reports,
		publisher:    publisher,
		logger:       log,
	}
}

// GetProduct looks up a product by any NDC representation
func (s *CatalogService) GetProduct(ctx context.Context, rawNDC string) (*repository.Product, error) {
	normalized, err := ndc.Normalize(rawNDC)
	if err != nil {
		return nil, errors.BadRequest("invalid NDC: " + rawNDC)
	}
	return s.products.GetByNDC(ctx, normalized)
}

// UpsertProduct creates or refreshes a product record
func (s *CatalogService) UpsertProduct(ctx context.Context, p *repository.Product) error {
	normalized, err := ndc.Normalize(p.NDC)
	if err != nil {
		return errors.BadRequest("invalid NDC: " + p.NDC)
	}
	p.NDC = normalized
	return s.products.Upsert(ctx, p)
}

// Distributor passthroughs

// CreateDistributor creates a distributor
func (s *CatalogService) CreateDistributor(ctx context.Context, d *repository.ReverseDistributor) error {
	return s.distributors.Create(ctx, d)
}

// GetDistributor gets a distributor by ID
func (s *CatalogService) GetDistributor(ctx context.Context, id string) (*repository.ReverseDistributor, error) {
	return s.distributors.GetByID(ctx, id)
}

// ListDistributors lists distributors
func (s *CatalogService) ListDistributors(ctx context.Context, activeOnly bool) ([]*repository.ReverseDistributor, error) {
	return s.distributors.List(ctx, activeOnly)
}

// UpdateDistributor updates a distributor
func (s *CatalogService) UpdateDistributor(ctx context.Context, d *repository.ReverseDistributor) error {
	return s.distributors.Update(ctx, d)
}

// AddFeeScheduleEntry appends a fee schedule entry
func (s *CatalogService) AddFeeScheduleEntry(ctx context.Context, e *repository.FeeScheduleEntry) error {
	if _, err := s.distributors.GetByID(ctx, e.DistributorID); err != nil {
		return err
	}
	return s.distributors.AddFeeScheduleEntry(ctx, e)
}

// ListFeeSchedule lists fee schedule entries for a distributor
func (s *CatalogService) ListFeeSchedule(ctx context.Context, distributorID string) ([]*repository.FeeScheduleEntry, error) {
	if _, err := s.distributors.GetByID(ctx, distributorID); err != nil {
		return nil, err
	}
	return s.distributors.ListFeeSchedule(ctx, distributorID)
}

// ReportRecordInput is one row of a return-report import
type ReportRecordInput struct {
	NDC          string  `json:"ndc" validate:"required"`
	UnitType     string  `json:"unit_type" validate:"required,oneof=full partial"`
	PricePerUnit float64 `json:"price_per_unit" validate:"gte=0"`
}

// ImportReport appends report records for one distributor and report date.
// NDCs are normalized on the way in so the engine only ever sees canonical
// codes.
func (s *CatalogService) ImportReport(ctx context.Context, distributorID string, reportDate time.Time, inputs []ReportRecordInput) (int, error) {
	if _, err := s.distributors.GetByID(ctx, distributorID); err != nil {
		return 0, err
	}
	if len(inputs) == 0 {
		return 0, errors.BadRequest("report must contain at least one record")
	}

	records := make([]*repository.ReturnReportRecord, 0, len(inputs))
	for _, in := range inputs {
		normalized, err := ndc.Normalize(in.NDC)
		if err != nil {
			return 0, errors.BadRequest("invalid NDC: " + in.NDC)
		}
		records = append(records, &repository.ReturnReportRecord{
			DistributorID: distributorID,
			NDC:           normalized,
			UnitType:      in.UnitType,
			PricePerUnit:  decimal.NewFromFloat(in.PricePerUnit),
			ReportDate:    reportDate,
		})
	}

	if err := s.reports.InsertBatch(ctx, records); err != nil {
		return 0, err
	}

	s.publisher.PublishReportImported(ctx, distributorID, len(records), reportDate)

	return len(records), nil
}
