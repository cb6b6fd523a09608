package service

import (
	"context"
	"fmt"
	"time"

	catalogrepo "github.com/rxreturn/rxreturn-backend/internal/catalog/repository"
	"github.com/rxreturn/rxreturn-backend/internal/credits/estimator"
	"github.com/rxreturn/rxreturn-backend/internal/events"
	"github.com/rxreturn/rxreturn-backend/internal/returns/repository"
	"github.com/rxreturn/rxreturn-backend/pkg/errors"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
	"github.com/rxreturn/rxreturn-backend/pkg/ndc"
)

// forwardTransitions is the allowed next step per status for pharmacy
// callers. Cancel is reachable from any non-terminal state; admins bypass
// this table entirely.
var forwardTransitions = map[string]string{
	repository.StatusDraft:       repository.StatusReadyToShip,
	repository.StatusReadyToShip: repository.StatusInTransit,
	repository.StatusInTransit:   repository.StatusProcessing,
	repository.StatusProcessing:  repository.StatusCompleted,
}

func isTerminal(status string) bool {
	return status == repository.StatusCompleted || status == repository.StatusCancelled
}

func isValidStatus(status string) bool {
	switch status {
	case repository.StatusDraft, repository.StatusReadyToShip, repository.StatusInTransit,
		repository.StatusProcessing, repository.StatusCompleted, repository.StatusCancelled:
		return true
	}
	return false
}

// ReturnsService handles return submissions
type ReturnsService struct {
	returns   *repository.ReturnRepository
	products  *catalogrepo.ProductRepository
	estimator *estimator.Estimator
	publisher *events.Publisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewReturnsService creates a new returns service
func NewReturnsService(
	returns *repository.ReturnRepository,
	products *catalogrepo.ProductRepository,
	est *estimator.Estimator,
	publisher *events.Publisher,
	log *logger.Logger,
) *ReturnsService {
	return &ReturnsService{
		returns:   returns,
		products:  products,
		estimator: est,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// ItemInput is one return item in a create/update payload
type ItemInput struct {
	NDC            string `json:"ndc" validate:"required"`
	LotNumber      string `json:"lot_number" validate:"required"`
	ExpirationDate string `json:"expiration_date" validate:"required"`
	Quantity       int    `json:"quantity" validate:"required,gte=1"`
	Condition      string `json:"condition" validate:"omitempty,oneof=UNOPENED OPENED DAMAGED"`
}

// CreateInput is the return creation payload
type CreateInput struct {
	Items      []ItemInput `json:"items" validate:"required,min=1,dive"`
	ShipmentID *string     `json:"shipment_id"`
	Notes      *string     `json:"notes"`
}

// buildItems normalizes NDCs and estimates each item's credit from the
// product catalog. Items for unknown products carry a zero estimate.
func (s *ReturnsService) buildItems(ctx context.Context, inputs []ItemInput) ([]*repository.ReturnItem, error) {
	now := s.now()

	ndcs := make([]string, 0, len(inputs))
	parsed := make([]estimator.Item, 0, len(inputs))
	for _, in := range inputs {
		normalized, err := ndc.Normalize(in.NDC)
		if err != nil {
			return nil, errors.BadRequest("invalid NDC: " + in.NDC)
		}
		expiration, err := time.Parse("2006-01-02", in.ExpirationDate)
		if err != nil {
			return nil, errors.BadRequest("expiration_date must be YYYY-MM-DD")
		}

		condition := in.Condition
		if condition == "" {
			condition = estimator.ConditionUnopened
		}

		parsed = append(parsed, estimator.Item{
			NDC:            normalized,
			Quantity:       in.Quantity,
			ExpirationDate: expiration,
			LotNumber:      in.LotNumber,
			Condition:      condition,
		})
		ndcs = append(ndcs, normalized)
	}

	products, err := s.products.GetByNDCs(ctx, ndcs)
	if err != nil {
		return nil, err
	}

	items := make([]*repository.ReturnItem, 0, len(parsed))
	for _, p := range parsed {
		item := &repository.ReturnItem{
			NDC:            p.NDC,
			LotNumber:      p.LotNumber,
			ExpirationDate: p.ExpirationDate,
			Quantity:       p.Quantity,
			Condition:      p.Condition,
		}

		if product, ok := products[p.NDC]; ok {
			est := s.estimator.EstimateItem(now, p, estimator.ProductTerms{
				WACUnitPrice:     product.WACUnitPrice,
				BaseCreditPct:    product.BaseCreditPct,
				ReturnWindowDays: product.ReturnWindowDays,
			})
			item.EstimatedCredit = est.EstimatedCredit
		}
		items = append(items, item)
	}
	return items, nil
}

// Create creates a draft return with estimated items
func (s *ReturnsService) Create(ctx context.Context, pharmacyID string, in CreateInput) (*repository.Return, error) {
	items, err := s.buildItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	ret := &repository.Return{
		PharmacyID: pharmacyID,
		Status:     repository.StatusDraft,
		ShipmentID: in.ShipmentID,
		Notes:      in.Notes,
		Items:      items,
	}

	if err := s.returns.Create(ctx, ret); err != nil {
		return nil, err
	}

	s.publisher.PublishReturnCreated(ctx, ret.ID, pharmacyID, len(items), ret.TotalEstimatedCredit.StringFixed(2))

	s.logger.Info().
		Str("return_id", ret.ID).
		Str("pharmacy_id", pharmacyID).
		Int("items", len(items)).
		Msg("return created")

	return ret, nil
}

// Get gets a return scoped to a pharmacy
func (s *ReturnsService) Get(ctx context.Context, pharmacyID, id string) (*repository.Return, error) {
	return s.returns.GetByID(ctx, pharmacyID, id)
}

// List lists a pharmacy's returns
func (s *ReturnsService) List(ctx context.Context, pharmacyID, status string) ([]*repository.Return, error) {
	if status != "" && !isValidStatus(status) {
		return nil, errors.BadRequest("unknown status: " + status)
	}
	return s.returns.List(ctx, pharmacyID, status)
}

// UpdateItems replaces a return's items while it is still a draft
func (s *ReturnsService) UpdateItems(ctx context.Context, pharmacyID, id string, inputs []ItemInput) (*repository.Return, error) {
	ret, err := s.returns.GetByID(ctx, pharmacyID, id)
	if err != nil {
		return nil, err
	}
	if ret.Status != repository.StatusDraft {
		return nil, errors.BadRequest(fmt.Sprintf("items can only be changed while the return is draft, current status is %s", ret.Status))
	}

	items, err := s.buildItems(ctx, inputs)
	if err != nil {
		return nil, err
	}

	total, err := s.returns.ReplaceItems(ctx, id, items)
	if err != nil {
		return nil, err
	}

	ret.Items = items
	ret.TotalEstimatedCredit = total
	return ret, nil
}

// UpdateStatus moves a return to a new status. Pharmacy callers may only
// advance one step forward or cancel a non-terminal return; admins may set
// any status.
func (s *ReturnsService) UpdateStatus(ctx context.Context, pharmacyID, id, newStatus string, isAdmin bool) (*repository.Return, error) {
	if !isValidStatus(newStatus) {
		return nil, errors.BadRequest("unknown status: " + newStatus)
	}

	scope := pharmacyID
	if isAdmin {
		scope = ""
	}

	ret, err := s.returns.GetByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if !isAdmin {
		if err := validateTransition(ret.Status, newStatus); err != nil {
			return nil, err
		}
	}

	if err := s.returns.UpdateStatus(ctx, id, newStatus); err != nil {
		return nil, err
	}

	s.publisher.PublishReturnStatusChanged(ctx, id, ret.PharmacyID, ret.Status, newStatus)

	oldStatus := ret.Status
	ret.Status = newStatus
	s.logger.Info().
		Str("return_id", id).
		Str("from", oldStatus).
		Str("to", newStatus).
		Msg("return status changed")

	return ret, nil
}

func validateTransition(current, next string) error {
	if current == next {
		return nil
	}
	if next == repository.StatusCancelled {
		if isTerminal(current) {
			return errors.BadRequest(fmt.Sprintf("cannot cancel a return in status %s", current))
		}
		return nil
	}
	if forwardTransitions[current] != next {
		return errors.BadRequest(fmt.Sprintf("invalid status transition from %s to %s", current, next))
	}
	return nil
}

// Delete deletes a return while it is draft or cancelled
func (s *ReturnsService) Delete(ctx context.Context, pharmacyID, id string) error {
	ret, err := s.returns.GetByID(ctx, pharmacyID, id)
	if err != nil {
		return err
	}
	if ret.Status != repository.StatusDraft && ret.Status != repository.StatusCancelled {
		return errors.BadRequest(fmt.Sprintf("cannot delete a return in status %s", ret.Status))
	}
	return s.returns.Delete(ctx, pharmacyID, id)
}
