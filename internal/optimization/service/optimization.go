package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	catalogrepo "github.com/rxreturn/rxreturn-backend/internal/catalog/repository"
	"github.com/rxreturn/rxreturn-backend/internal/credits/estimator"
	"github.com/rxreturn/rxreturn-backend/internal/events"
	invrepo "github.com/rxreturn/rxreturn-backend/internal/inventory/repository"
	"github.com/rxreturn/rxreturn-backend/internal/optimization/engine"
	"github.com/rxreturn/rxreturn-backend/internal/optimization/repository"
	"github.com/rxreturn/rxreturn-backend/pkg/errors"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
	"github.com/rxreturn/rxreturn-backend/pkg/ndc"
)

// OptimizationService runs the distributor recommendation and packaging
// engine over catalog report data.
type OptimizationService struct {
	reports      *catalogrepo.ReportRepository
	distributors *catalogrepo.DistributorRepository
	packages     *repository.PackageRepository
	inventory    *invrepo.ItemRepository
	estimator    *estimator.Estimator
	publisher    *events.Publisher
	logger       *logger.Logger
	now          func() time.Time
}

// NewOptimizationService creates a new optimization service
func NewOptimizationService(
	reports *catalogrepo.ReportRepository,
	distributors *catalogrepo.DistributorRepository,
	packages *repository.PackageRepository,
	inventory *invrepo.ItemRepository,
	est *estimator.Estimator,
	publisher *events.Publisher,
	log *logger.Logger,
) *OptimizationService {
	return &OptimizationService{
		reports:      reports,
		distributors: distributors,
		packages:     packages,
		inventory:    inventory,
		estimator:    est,
		publisher:    publisher,
		logger:       log,
		now:          time.Now,
	}
}

// ItemInput is one requested NDC with unit counts
type ItemInput struct {
	NDC         string  `json:"ndc" validate:"required"`
	ProductName *string `json:"product_name"`
	Full        int     `json:"full" validate:"gte=0"`
	Partial     int     `json:"partial" validate:"gte=0"`
}

// normalizeItems converts inputs to engine items with canonical NDCs
func normalizeItems(inputs []ItemInput) ([]engine.Item, error) {
	items := make([]engine.Item, 0, len(inputs))
	for _, in := range inputs {
		normalized, err := ndc.Normalize(in.NDC)
		if err != nil {
			return nil, errors.BadRequest("invalid NDC: " + in.NDC)
		}
		items = append(items, engine.Item{NDC: normalized, Full: in.Full, Partial: in.Partial})
	}
	if err := engine.ValidateItems(items); err != nil {
		return nil, err
	}
	return items, nil
}

func itemNDCs(items []engine.Item) []string {
	ndcs := make([]string, 0, len(items))
	for _, item := range items {
		ndcs = append(ndcs, item.NDC)
	}
	return ndcs
}

func toEngineRecords(records []*catalogrepo.ReturnReportRecord) []engine.Record {
	out := make([]engine.Record, 0, len(records))
	for _, r := range records {
		out = append(out, engine.Record{
			DistributorID: r.DistributorID,
			NDC:           r.NDC,
			UnitType:      r.UnitType,
			PricePerUnit:  r.PricePerUnit,
			ReportDate:    r.ReportDate,
		})
	}
	return out
}

// loadBook builds a price book for an NDC set from the report history
func (s *OptimizationService) loadBook(ctx context.Context, ndcs []string) (*engine.PriceBook, error) {
	records, err := s.reports.ListByNDCs(ctx, ndcs)
	if err != nil {
		return nil, err
	}
	return engine.NewPriceBook(toEngineRecords(records)), nil
}

// distributorNames resolves IDs to display names, best effort
func (s *OptimizationService) distributorNames(ctx context.Context) map[string]string {
	names := make(map[string]string)
	distributors, err := s.distributors.List(ctx, false)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load distributor names")
		return names
	}
	for _, d := range distributors {
		names[d.ID] = d.Name
	}
	return names
}

// ScoredDistributor is a distributor score annotated with its name
type ScoredDistributor struct {
	DistributorID   string             `json:"distributor_id"`
	DistributorName string             `json:"distributor_name,omitempty"`
	Items           []engine.ItemValue `json:"items"`
	Total           decimal.Decimal    `json:"total"`
	Difference      decimal.Decimal    `json:"difference"`
}

func annotate(score *engine.DistributorScore, names map[string]string) *ScoredDistributor {
	if score == nil {
		return nil
	}
	return &ScoredDistributor{
		DistributorID:   score.DistributorID,
		DistributorName: names[score.DistributorID],
		Items:           score.Items,
		Total:           score.Total,
		Difference:      score.Difference,
	}
}

// Recommendation is the outcome of a recommendation request
type Recommendation struct {
	Recommended             *ScoredDistributor    `json:"recommended,omitempty"`
	Alternatives            []*ScoredDistributor  `json:"alternatives"`
	NDCsWithoutDistributors []engine.UnmatchedNDC `json:"ndcs_without_distributors,omitempty"`
}

// Recommend scores all fully-eligible distributors for the requested items
// and flags the best one.
func (s *OptimizationService) Recommend(ctx context.Context, inputs []ItemInput) (*Recommendation, error) {
	items, err := normalizeItems(inputs)
	if err != nil {
		return nil, err
	}

	book, err := s.loadBook(ctx, itemNDCs(items))
	if err != nil {
		return nil, err
	}

	eligibility := engine.Eligible(book, itemNDCs(items))
	recommended, alternatives := engine.Rank(book, items, eligibility.Distributors)

	names := s.distributorNames(ctx)
	result := &Recommendation{
		Recommended:             annotate(recommended, names),
		Alternatives:            make([]*ScoredDistributor, 0, len(alternatives)),
		NDCsWithoutDistributors: eligibility.NDCsWithoutDistributors,
	}
	for _, alt := range alternatives {
		result.Alternatives = append(result.Alternatives, annotate(alt, names))
	}
	return result, nil
}

// Suggest is Recommend plus an inventory membership check: every requested
// NDC must exist in the pharmacy's inventory.
func (s *OptimizationService) Suggest(ctx context.Context, pharmacyID string, inputs []ItemInput) (*Recommendation, error) {
	items, err := normalizeItems(inputs)
	if err != nil {
		return nil, err
	}

	owned, err := s.inventory.ListAll(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}
	ownedNDCs := make(map[string]struct{}, len(owned))
	for _, item := range owned {
		ownedNDCs[item.NDC] = struct{}{}
	}
	for _, item := range items {
		if _, ok := ownedNDCs[item.NDC]; !ok {
			return nil, errors.BadRequest(fmt.Sprintf("NDC %s is not in your inventory", item.NDC))
		}
	}

	return s.Recommend(ctx, inputs)
}

// PackageSummary is the shape of an existing open package attached to a
// suggestion.
type PackageSummary struct {
	ID                  string           `json:"id"`
	PackageNumber       string           `json:"package_number"`
	TotalItems          int              `json:"total_items"`
	TotalEstimatedValue decimal.Decimal  `json:"total_estimated_value"`
	FeeRate             *decimal.Decimal `json:"fee_rate,omitempty"`
	FeeDurationDays     *int             `json:"fee_duration_days,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

// PackageSuggestion is one proposed per-distributor package
type PackageSuggestion struct {
	DistributorID   string             `json:"distributor_id"`
	DistributorName string             `json:"distributor_name,omitempty"`
	Items           []engine.ItemValue `json:"items"`
	TotalItems      int                `json:"total_items"`
	EstimatedValue  decimal.Decimal    `json:"estimated_value"`
	Commission      decimal.Decimal    `json:"commission"`
	NetValue        decimal.Decimal    `json:"net_value"`
	AlreadyCreated  bool               `json:"already_created"`
	ExistingPackage *PackageSummary    `json:"existing_package,omitempty"`
}

// PackageSuggestionsResult groups items by their winning distributor
type PackageSuggestionsResult struct {
	Suggestions             []*PackageSuggestion  `json:"suggestions"`
	NDCsWithoutDistributors []engine.UnmatchedNDC `json:"ndcs_without_distributors,omitempty"`
}

// SuggestPackages groups each item under the distributor paying the most
// for it and checks every candidate package against existing non-delivered
// packages for the pharmacy. The engine only suggests; creation is a
// separate call.
func (s *OptimizationService) SuggestPackages(ctx context.Context, pharmacyID string, inputs []ItemInput) (*PackageSuggestionsResult, error) {
	items, err := normalizeItems(inputs)
	if err != nil {
		return nil, err
	}

	book, err := s.loadBook(ctx, itemNDCs(items))
	if err != nil {
		return nil, err
	}

	result := &PackageSuggestionsResult{Suggestions: []*PackageSuggestion{}}

	winners := engine.BestPerItem(book, items)
	grouped := make(map[string][]engine.Item)
	order := make([]string, 0)
	for i, item := range items {
		winner := winners[i]
		if winner == "" {
			result.NDCsWithoutDistributors = append(result.NDCsWithoutDistributors, engine.UnmatchedNDC{
				NDC:    item.NDC,
				Reason: engine.ReasonNoDistributor,
			})
			continue
		}
		if _, seen := grouped[winner]; !seen {
			order = append(order, winner)
		}
		grouped[winner] = append(grouped[winner], item)
	}

	names := s.distributorNames(ctx)
	for _, distributorID := range order {
		score := engine.ScoreDistributor(book, grouped[distributorID], distributorID)
		commission, net := s.estimator.Commission(score.Total)

		suggestion := &PackageSuggestion{
			DistributorID:   distributorID,
			DistributorName: names[distributorID],
			Items:           score.Items,
			TotalItems:      countUnits(grouped[distributorID]),
			EstimatedValue:  score.Total,
			Commission:      commission,
			NetValue:        net,
		}

		existing, err := s.packages.FindOpen(ctx, pharmacyID, distributorID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			suggestion.AlreadyCreated = true
			suggestion.ExistingPackage = s.summarize(ctx, existing)
		}

		result.Suggestions = append(result.Suggestions, suggestion)
	}
	return result, nil
}

func countUnits(items []engine.Item) int {
	total := 0
	for _, item := range items {
		total += item.Full + item.Partial
	}
	return total
}

// summarize builds the existing-package summary, attaching the
// distributor's cheapest in-force fee rate when one is on file.
func (s *OptimizationService) summarize(ctx context.Context, pkg *repository.CustomPackage) *PackageSummary {
	summary := &PackageSummary{
		ID:                  pkg.ID,
		PackageNumber:       pkg.PackageNumber,
		TotalItems:          pkg.TotalItems,
		TotalEstimatedValue: pkg.TotalEstimatedValue,
		CreatedAt:           pkg.CreatedAt,
	}

	entries, err := s.distributors.ListFeeSchedule(ctx, pkg.DistributorID)
	if err != nil {
		s.logger.Warn().Err(err).Str("distributor_id", pkg.DistributorID).Msg("failed to load fee schedule")
		return summary
	}

	now := s.now()
	for _, entry := range entries {
		if entry.EffectiveDate.After(now) {
			continue
		}
		if summary.FeeDurationDays == nil || entry.DurationDays < *summary.FeeDurationDays {
			duration := entry.DurationDays
			rate := entry.Percentage
			summary.FeeDurationDays = &duration
			summary.FeeRate = &rate
		}
	}
	return summary
}

// SuggestForDistributor prices the items against one caller-chosen
// distributor only, skipping the maximization.
func (s *OptimizationService) SuggestForDistributor(ctx context.Context, distributorID string, inputs []ItemInput) (*ScoredDistributor, error) {
	items, err := normalizeItems(inputs)
	if err != nil {
		return nil, err
	}

	distributor, err := s.distributors.GetByID(ctx, distributorID)
	if err != nil {
		return nil, err
	}

	records, err := s.reports.ListByDistributor(ctx, distributorID, itemNDCs(items))
	if err != nil {
		return nil, err
	}
	book := engine.NewPriceBook(toEngineRecords(records))

	score := engine.ScoreDistributor(book, items, distributorID)
	return &ScoredDistributor{
		DistributorID:   score.DistributorID,
		DistributorName: distributor.Name,
		Items:           score.Items,
		Total:           score.Total,
	}, nil
}

// CreatePackage persists a package built from suggestion output. Item
// values are re-priced from the current report history rather than trusted
// from the request.
func (s *OptimizationService) CreatePackage(ctx context.Context, pharmacyID, distributorID string, inputs []ItemInput) (*repository.CustomPackage, error) {
	items, err := normalizeItems(inputs)
	if err != nil {
		return nil, err
	}

	if _, err := s.distributors.GetByID(ctx, distributorID); err != nil {
		return nil, err
	}

	records, err := s.reports.ListByDistributor(ctx, distributorID, itemNDCs(items))
	if err != nil {
		return nil, err
	}
	book := engine.NewPriceBook(toEngineRecords(records))
	score := engine.ScoreDistributor(book, items, distributorID)

	pkg := &repository.CustomPackage{
		PackageNumber:       repository.NewPackageNumber(s.now()),
		PharmacyID:          pharmacyID,
		DistributorID:       distributorID,
		TotalItems:          countUnits(items),
		TotalEstimatedValue: score.Total,
		Items:               make([]*repository.CustomPackageItem, 0, len(items)),
	}
	for i, item := range items {
		pkgItem := &repository.CustomPackageItem{
			NDC:            item.NDC,
			FullCount:      item.Full,
			PartialCount:   item.Partial,
			EstimatedValue: score.Items[i].Value,
		}
		if inputs[i].ProductName != nil {
			pkgItem.ProductName = inputs[i].ProductName
		}
		pkg.Items = append(pkg.Items, pkgItem)
	}

	if err := s.packages.Create(ctx, pkg); err != nil {
		return nil, err
	}

	s.publisher.PublishPackageCreated(ctx, pkg.ID, pkg.PackageNumber, pharmacyID, distributorID,
		pkg.TotalItems, pkg.TotalEstimatedValue.String())

	s.logger.Info().
		Str("package_id", pkg.ID).
		Str("package_number", pkg.PackageNumber).
		Str("distributor_id", distributorID).
		Msg("custom package created")

	return pkg, nil
}

// GetPackage gets a package scoped to a pharmacy
func (s *OptimizationService) GetPackage(ctx context.Context, pharmacyID, id string) (*repository.CustomPackage, error) {
	return s.packages.GetByID(ctx, pharmacyID, id)
}

// ListPackages lists a pharmacy's packages
func (s *OptimizationService) ListPackages(ctx context.Context, pharmacyID string) ([]*repository.CustomPackage, error) {
	return s.packages.List(ctx, pharmacyID)
}

// DeliveryInput carries the delivered toggle and its metadata
type DeliveryInput struct {
	Delivered         bool    `json:"delivered"`
	DeliveryDate      *string `json:"delivery_date"`
	ReceivedBy        *string `json:"received_by"`
	DeliveryCondition *string `json:"delivery_condition"`
	TrackingNumber    *string `json:"tracking_number"`
}

// SetPackageDelivered toggles a package's delivered flag. Marking delivered
// requires a delivery date and receiver; toggling back clears all delivery
// metadata.
func (s *OptimizationService) SetPackageDelivered(ctx context.Context, pharmacyID, id string, in DeliveryInput) (*repository.CustomPackage, error) {
	pkg, err := s.packages.GetByID(ctx, pharmacyID, id)
	if err != nil {
		return nil, err
	}
	if pkg.Delivered == in.Delivered {
		return pkg, nil
	}

	if in.Delivered {
		if in.DeliveryDate == nil || in.ReceivedBy == nil || *in.ReceivedBy == "" {
			return nil, errors.BadRequest("delivery_date and received_by are required to mark a package delivered")
		}
		deliveryDate, err := time.Parse("2006-01-02", *in.DeliveryDate)
		if err != nil {
			return nil, errors.BadRequest("delivery_date must be YYYY-MM-DD")
		}

		if err := s.packages.MarkDelivered(ctx, id, deliveryDate, *in.ReceivedBy, in.DeliveryCondition, in.TrackingNumber); err != nil {
			return nil, err
		}
		s.publisher.PublishPackageDelivered(ctx, id, pharmacyID, deliveryDate, *in.ReceivedBy)
	} else {
		if err := s.packages.Reopen(ctx, id); err != nil {
			return nil, err
		}
		s.publisher.PublishPackageReopened(ctx, id, pharmacyID)
	}

	return s.packages.GetByID(ctx, pharmacyID, id)
}

// DeletePackage deletes a non-delivered package; items cascade
func (s *OptimizationService) DeletePackage(ctx context.Context, pharmacyID, id string) error {
	pkg, err := s.packages.GetByID(ctx, pharmacyID, id)
	if err != nil {
		return err
	}
	if pkg.Delivered {
		return errors.BadRequest("cannot delete a package in status delivered")
	}

	if err := s.packages.Delete(ctx, pharmacyID, id); err != nil {
		return err
	}

	s.publisher.PublishPackageDeleted(ctx, id, pharmacyID)
	return nil
}
