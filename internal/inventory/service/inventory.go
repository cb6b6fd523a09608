package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxreturn/rxreturn-backend/internal/events"
	"github.com/rxreturn/rxreturn-backend/internal/inventory/repository"
	"github.com/rxreturn/rxreturn-backend/pkg/config"
	"github.com/rxreturn/rxreturn-backend/pkg/errors"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
	"github.com/rxreturn/rxreturn-backend/pkg/ndc"
)

// Derived inventory item statuses
const (
	StatusActive       = "active"
	StatusExpiringSoon = "expiring_soon"
	StatusExpired      = "expired"
)

// InventoryService handles pharmacy inventory
type InventoryService struct {
	items     *repository.ItemRepository
	pricing   config.PricingConfig
	publisher *events.Publisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewInventoryService creates a new inventory service
func NewInventoryService(items *repository.ItemRepository, pricing config.PricingConfig, publisher *events.Publisher, log *logger.Logger) *InventoryService {
	return &InventoryService{
		items:     items,
		pricing:   pricing,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// DeriveStatus computes the item status from its expiration date. Items
// within the expiring-soon window (180 days by default) are expiring_soon,
// past-date items are expired.
func (s *InventoryService) DeriveStatus(expirationDate time.Time) string {
	days := daysUntil(s.now(), expirationDate)
	switch {
	case days < 0:
		return StatusExpired
	case days <= s.pricing.ExpiringSoonDays:
		return StatusExpiringSoon
	default:
		return StatusActive
	}
}

func daysUntil(now, expiration time.Time) int {
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	expDay := time.Date(expiration.Year(), expiration.Month(), expiration.Day(), 0, 0, 0, 0, time.UTC)
	return int(expDay.Sub(nowDay).Hours() / 24)
}

// ItemInput is the create/update payload for an inventory item
type ItemInput struct {
	NDC            string  `json:"ndc" validate:"required"`
	LotNumber      string  `json:"lot_number" validate:"required"`
	ExpirationDate string  `json:"expiration_date" validate:"required"`
	Quantity       int     `json:"quantity" validate:"required,gte=1"`
	Location       *string `json:"location"`
	WACUnitPrice   float64 `json:"wac_unit_price" validate:"gte=0"`
}

func (s *InventoryService) itemFromInput(pharmacyID string, in ItemInput) (*repository.InventoryItem, error) {
	normalized, err := ndc.Normalize(in.NDC)
	if err != nil {
		return nil, errors.BadRequest("invalid NDC: " + in.NDC)
	}

	expiration, err := time.Parse("2006-01-02", in.ExpirationDate)
	if err != nil {
		return nil, errors.BadRequest("expiration_date must be YYYY-MM-DD")
	}

	return &repository.InventoryItem{
		PharmacyID:     pharmacyID,
		NDC:            normalized,
		LotNumber:      in.LotNumber,
		ExpirationDate: expiration,
		Quantity:       in.Quantity,
		Location:       in.Location,
		WACUnitPrice:   decimal.NewFromFloat(in.WACUnitPrice),
	}, nil
}

// CreateItem creates an inventory item for a pharmacy
func (s *InventoryService) CreateItem(ctx context.Context, pharmacyID string, in ItemInput) (*repository.InventoryItem, error) {
	item, err := s.itemFromInput(pharmacyID, in)
	if err != nil {
		return nil, err
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}

	item.Status = s.DeriveStatus(item.ExpirationDate)
	if item.Status == StatusExpiringSoon {
		s.publisher.PublishItemExpiring(ctx, item.ID, pharmacyID, item.NDC, item.ExpirationDate, item.Quantity)
	}
	return item, nil
}

// GetItem gets one item scoped to a pharmacy
func (s *InventoryService) GetItem(ctx context.Context, pharmacyID, id string) (*repository.InventoryItem, error) {
	item, err := s.items.GetByID(ctx, pharmacyID, id)
	if err != nil {
		return nil, err
	}
	item.Status = s.DeriveStatus(item.ExpirationDate)
	return item, nil
}

// ListItems lists a pharmacy's items. The status filter applies to the
// derived status, so it is evaluated here rather than in SQL.
func (s *InventoryService) ListItems(ctx context.Context, pharmacyID string, filter repository.ItemFilter) ([]*repository.InventoryItem, int64, error) {
	if filter.Status != "" {
		switch filter.Status {
		case StatusActive, StatusExpiringSoon, StatusExpired:
		default:
			return nil, 0, errors.BadRequest("status must be one of: active, expiring_soon, expired")
		}

		all, err := s.items.ListAll(ctx, pharmacyID)
		if err != nil {
			return nil, 0, err
		}

		var matched []*repository.InventoryItem
		for _, item := range all {
			item.Status = s.DeriveStatus(item.ExpirationDate)
			if filter.NDC != "" && item.NDC != filter.NDC {
				continue
			}
			if item.Status == filter.Status {
				matched = append(matched, item)
			}
		}

		total := int64(len(matched))
		if filter.PerPage > 0 {
			start := 0
			if filter.Page > 1 {
				start = (filter.Page - 1) * filter.PerPage
			}
			if start >= len(matched) {
				return nil, total, nil
			}
			end := start + filter.PerPage
			if end > len(matched) {
				end = len(matched)
			}
			matched = matched[start:end]
		}
		return matched, total, nil
	}

	items, total, err := s.items.List(ctx, pharmacyID, filter)
	if err != nil {
		return nil, 0, err
	}
	for _, item := range items {
		item.Status = s.DeriveStatus(item.ExpirationDate)
	}
	return items, total, nil
}

// UpdateItem updates an item scoped to a pharmacy
func (s *InventoryService) UpdateItem(ctx context.Context, pharmacyID, id string, in ItemInput) (*repository.InventoryItem, error) {
	existing, err := s.items.GetByID(ctx, pharmacyID, id)
	if err != nil {
		return nil, err
	}

	item, err := s.itemFromInput(pharmacyID, in)
	if err != nil {
		return nil, err
	}
	item.ID = existing.ID
	item.CreatedAt = existing.CreatedAt

	if err := s.items.Update(ctx, item); err != nil {
		return nil, err
	}

	item.Status = s.DeriveStatus(item.ExpirationDate)
	return item, nil
}

// DeleteItem deletes an item scoped to a pharmacy
func (s *InventoryService) DeleteItem(ctx context.Context, pharmacyID, id string) error {
	return s.items.Delete(ctx, pharmacyID, id)
}

// DashboardStats summarizes a pharmacy's inventory
type DashboardStats struct {
	TotalItems        int             `json:"total_items"`
	ActiveItems       int             `json:"active_items"`
	ExpiringSoonItems int             `json:"expiring_soon_items"`
	ExpiredItems      int             `json:"expired_items"`
	TotalQuantity     int             `json:"total_quantity"`
	EstimatedWACValue decimal.Decimal `json:"estimated_wac_value"`
}

// GetDashboardStats aggregates status counts and total WAC value
func (s *InventoryService) GetDashboardStats(ctx context.Context, pharmacyID string) (*DashboardStats, error) {
	items, err := s.items.ListAll(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{EstimatedWACValue: decimal.Zero}
	for _, item := range items {
		stats.TotalItems++
		stats.TotalQuantity += item.Quantity

		switch s.DeriveStatus(item.ExpirationDate) {
		case StatusExpired:
			stats.ExpiredItems++
		case StatusExpiringSoon:
			stats.ExpiringSoonItems++
		default:
			stats.ActiveItems++
		}

		value := item.WACUnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		stats.EstimatedWACValue = stats.EstimatedWACValue.Add(value)
	}
	return stats, nil
}
