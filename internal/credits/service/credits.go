package service

import (
	"context"
	"time"

	"github.com/rxreturn/rxreturn-backend/internal/catalog/repository"
	"github.com/rxreturn/rxreturn-backend/internal/credits/estimator"
	"github.com/rxreturn/rxreturn-backend/pkg/errors"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
	"github.com/rxreturn/rxreturn-backend/pkg/ndc"
)

// CreditsService estimates credits for batches of items
type CreditsService struct {
	products  *repository.ProductRepository
	estimator *estimator.Estimator
	logger    *logger.Logger
	now       func() time.Time
}

// NewCreditsService creates a new credits service
func NewCreditsService(products *repository.ProductRepository, est *estimator.Estimator, log *logger.Logger) *CreditsService {
	return &CreditsService{
		products:  products,
		estimator: est,
		logger:    log,
		now:       time.Now,
	}
}

// EstimateItemInput is one line of an estimate request
type EstimateItemInput struct {
	NDC            string `json:"ndc" validate:"required"`
	Quantity       int    `json:"quantity" validate:"required,gte=1"`
	ExpirationDate string `json:"expiration_date" validate:"required"`
	LotNumber      string `json:"lot_number"`
	Condition      string `json:"condition" validate:"omitempty,oneof=UNOPENED OPENED DAMAGED"`
}

// Estimate computes per-item and aggregate credit for a batch
func (s *CreditsService) Estimate(ctx context.Context, inputs []EstimateItemInput) (*estimator.BatchEstimate, error) {
	if len(inputs) == 0 {
		return nil, errors.BadRequest("at least one item is required")
	}

	items := make([]estimator.Item, 0, len(inputs))
	ndcs := make([]string, 0, len(inputs))
	for _, in := range inputs {
		normalized, err := ndc.Normalize(in.NDC)
		if err != nil {
			return nil, errors.BadRequest("invalid NDC: " + in.NDC)
		}

		expiration, err := time.Parse("2006-01-02", in.ExpirationDate)
		if err != nil {
			return nil, errors.BadRequest("expiration_date must be YYYY-MM-DD")
		}

		items = append(items, estimator.Item{
			NDC:            normalized,
			Quantity:       in.Quantity,
			ExpirationDate: expiration,
			LotNumber:      in.LotNumber,
			Condition:      in.Condition,
		})
		ndcs = append(ndcs, normalized)
	}

	products, err := s.products.GetByNDCs(ctx, ndcs)
	if err != nil {
		return nil, err
	}

	terms := make(map[string]estimator.ProductTerms, len(products))
	for code, p := range products {
		terms[code] = estimator.ProductTerms{
			WACUnitPrice:     p.WACUnitPrice,
			BaseCreditPct:    p.BaseCreditPct,
			ReturnWindowDays: p.ReturnWindowDays,
		}
	}

	batch := s.estimator.EstimateBatch(s.now(), items, terms)
	return &batch, nil
}
