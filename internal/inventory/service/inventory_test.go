package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxreturn/rxreturn-backend/internal/inventory/repository"
	"github.com/rxreturn/rxreturn-backend/internal/inventory/service"
	"github.com/rxreturn/rxreturn-backend/pkg/config"
	apperrors "github.com/rxreturn/rxreturn-backend/pkg/errors"
	"github.com/rxreturn/rxreturn-backend/pkg/logger"
)

func newTestService() *service.InventoryService {
	pricing := config.PricingConfig{ExpiringSoonDays: 180}
	svc := service.NewInventoryService(nil, pricing, nil, logger.New("test", "test"))

	// Fixed clock so status boundaries are deterministic
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	service.SetClock(svc, func() time.Time { return now })
	return svc
}

func TestDeriveStatus(t *testing.T) {
	svc := newTestService()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		expiration time.Time
		want       string
	}{
		{"expired yesterday", now.AddDate(0, 0, -1), service.StatusExpired},
		{"expires today counts as expiring soon", now, service.StatusExpiringSoon},
		{"well inside the expiring window", now.AddDate(0, 0, 30), service.StatusExpiringSoon},
		{"exactly at the window boundary", now.AddDate(0, 0, 180), service.StatusExpiringSoon},
		{"one day past the boundary", now.AddDate(0, 0, 181), service.StatusActive},
		{"far in the future", now.AddDate(2, 0, 0), service.StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.DeriveStatus(tt.expiration))
		})
	}
}

func TestDeriveStatus_IgnoresTimeOfDay(t *testing.T) {
	svc := newTestService()

	// Late on the same calendar day is not yet expired
	sameDay := time.Date(2026, 8, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, service.StatusExpiringSoon, svc.DeriveStatus(sameDay))

	earlyPrevDay := time.Date(2026, 8, 30, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, service.StatusExpired, svc.DeriveStatus(earlyPrevDay))
}

func TestCreateItem_InvalidInput(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	t.Run("rejects a malformed NDC", func(t *testing.T) {
		_, err := svc.CreateItem(ctx, "pharmacy-1", service.ItemInput{
			NDC:            "not-an-ndc",
			LotNumber:      "LOT-1",
			ExpirationDate: "2027-01-01",
			Quantity:       1,
		})

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
		assert.Contains(t, appErr.Message, "invalid NDC")
	})

	t.Run("rejects a malformed expiration date", func(t *testing.T) {
		_, err := svc.CreateItem(ctx, "pharmacy-1", service.ItemInput{
			NDC:            "00002-3227-30",
			LotNumber:      "LOT-1",
			ExpirationDate: "01/01/2027",
			Quantity:       1,
		})

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
		assert.Equal(t, "expiration_date must be YYYY-MM-DD", appErr.Message)
	})
}

func TestListItems_RejectsUnknownStatusFilter(t *testing.T) {
	svc := newTestService()

	_, _, err := svc.ListItems(context.Background(), "pharmacy-1", repository.ItemFilter{Status: "recalled"})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, "status must be one of: active, expiring_soon, expired", appErr.Message)
}
