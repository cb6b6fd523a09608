package estimator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxreturn/rxreturn-backend/pkg/config"
)

func testPricing() config.PricingConfig {
	return config.PricingConfig{
		CommissionRatePct:       5,
		ServiceFeeRatePct:       3,
		ServiceFeeMin:           25,
		ServiceFeeMax:           500,
		TransportFeeBase:        15,
		TransportFeePerItem:     0.5,
		ExpiringSoonDays:        180,
		DefaultReturnWindowDays: 365,
	}
}

func terms(wac float64, basePct float64, windowDays int) ProductTerms {
	return ProductTerms{
		WACUnitPrice:     decimal.NewFromFloat(wac),
		BaseCreditPct:    decimal.NewFromFloat(basePct),
		ReturnWindowDays: windowDays,
	}
}

func TestEstimateItem(t *testing.T) {
	e := New(testPricing())
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		daysOut        int
		condition      string
		wantPct        int
		wantCredit     string
		wantIneligible bool
	}{
		{name: "45 days unopened hits 50pct band", daysOut: 45, condition: ConditionUnopened, wantPct: 40, wantCredit: "200"},
		{name: "20 days hits 25pct band", daysOut: 20, condition: ConditionUnopened, wantPct: 20, wantCredit: "100"},
		{name: "120 days hits 85pct band", daysOut: 120, condition: ConditionUnopened, wantPct: 68, wantCredit: "340"},
		{name: "300 days hits full base", daysOut: 300, condition: ConditionUnopened, wantPct: 80, wantCredit: "400"},
		{name: "opened applies 0.7 multiplier", daysOut: 45, condition: ConditionOpened, wantPct: 28, wantCredit: "140"},
		{name: "damaged applies 0.3 multiplier", daysOut: 45, condition: ConditionDamaged, wantPct: 12, wantCredit: "60"},
		{name: "expired item is ineligible", daysOut: -1, wantIneligible: true},
		{name: "beyond return window is ineligible", daysOut: 400, wantIneligible: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := Item{
				NDC:            "00187-5115-60",
				Quantity:       100,
				ExpirationDate: now.AddDate(0, 0, tt.daysOut),
				Condition:      tt.condition,
			}

			est := e.EstimateItem(now, item, terms(5, 80, 365))

			if tt.wantIneligible {
				assert.False(t, est.Eligible)
				assert.True(t, est.EstimatedCredit.IsZero())
				assert.NotEmpty(t, est.Reason)
				return
			}

			require.True(t, est.Eligible)
			assert.Equal(t, tt.wantPct, est.FinalCreditPct)
			assert.True(t, est.EstimatedCredit.Equal(decimal.RequireFromString(tt.wantCredit)),
				"got %s, want %s", est.EstimatedCredit, tt.wantCredit)
		})
	}
}

func TestEstimateItemMonotonicAcrossBands(t *testing.T) {
	e := New(testPricing())
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	pt := terms(10, 90, 500)

	var prev decimal.Decimal
	for i, days := range []int{400, 150, 60, 15} {
		item := Item{NDC: "n", Quantity: 10, ExpirationDate: now.AddDate(0, 0, days), Condition: ConditionUnopened}
		est := e.EstimateItem(now, item, pt)
		require.True(t, est.Eligible)
		if i > 0 {
			assert.True(t, est.EstimatedCredit.LessThan(prev),
				"credit at %d days should be below previous band", days)
		}
		prev = est.EstimatedCredit
	}
}

func TestEstimateItemDefaultWindow(t *testing.T) {
	e := New(testPricing())
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	// window <= 0 falls back to the configured default (365)
	item := Item{NDC: "n", Quantity: 1, ExpirationDate: now.AddDate(0, 0, 200)}
	est := e.EstimateItem(now, item, terms(5, 80, 0))
	assert.True(t, est.Eligible)
}

func TestEstimateBatchFees(t *testing.T) {
	e := New(testPricing())
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	productTerms := map[string]ProductTerms{
		"00187-5115-60": terms(5, 80, 365),
	}

	t.Run("service fee clamps to minimum", func(t *testing.T) {
		items := []Item{{
			NDC:            "00187-5115-60",
			Quantity:       10, // credit = 5*10*40% = $20, 3% = 0.60 -> clamp to 25
			ExpirationDate: now.AddDate(0, 0, 45),
			Condition:      ConditionUnopened,
		}}

		batch := e.EstimateBatch(now, items, productTerms)

		assert.True(t, batch.TotalEstimatedCredit.Equal(decimal.NewFromInt(20)))
		assert.True(t, batch.ServiceFee.Equal(decimal.NewFromInt(25)))
		assert.True(t, batch.TransportationFee.Equal(decimal.RequireFromString("15.5")))
		assert.True(t, batch.NetCredit.Equal(decimal.RequireFromString("-20.5")))
	})

	t.Run("service fee clamps to maximum", func(t *testing.T) {
		items := []Item{{
			NDC:            "00187-5115-60",
			Quantity:       10000, // credit = $20000, 3% = 600 -> clamp to 500
			ExpirationDate: now.AddDate(0, 0, 45),
			Condition:      ConditionUnopened,
		}}

		batch := e.EstimateBatch(now, items, productTerms)

		assert.True(t, batch.ServiceFee.Equal(decimal.NewFromInt(500)))
	})

	t.Run("unknown product is ineligible not an error", func(t *testing.T) {
		items := []Item{{
			NDC:            "99999-9999-99",
			Quantity:       5,
			ExpirationDate: now.AddDate(0, 0, 45),
		}}

		batch := e.EstimateBatch(now, items, productTerms)

		require.Len(t, batch.Items, 1)
		assert.False(t, batch.Items[0].Eligible)
		assert.Equal(t, "unknown product", batch.Items[0].Reason)
		assert.True(t, batch.TotalEstimatedCredit.IsZero())
	})
}

func TestCommission(t *testing.T) {
	e := New(testPricing())

	commission, net := e.Commission(decimal.NewFromInt(1000))

	assert.True(t, commission.Equal(decimal.NewFromInt(50)))
	assert.True(t, net.Equal(decimal.NewFromInt(950)))
}

func TestDaysToExpiration(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysToExpiration(now, now))
	assert.Equal(t, 1, DaysToExpiration(now, now.AddDate(0, 0, 1)))
	assert.Equal(t, -1, DaysToExpiration(now, now.AddDate(0, 0, -1)))
	// partial day rounds up
	assert.Equal(t, 1, DaysToExpiration(now, now.Add(12*time.Hour)))
}
