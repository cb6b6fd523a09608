package estimator

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxreturn/rxreturn-backend/pkg/config"
)

// Item conditions
const (
	ConditionUnopened = "UNOPENED"
	ConditionOpened   = "OPENED"
	ConditionDamaged  = "DAMAGED"
)

// Item is one line of a credit estimate request
type Item struct {
	NDC            string
	Quantity       int
	ExpirationDate time.Time
	LotNumber      string
	Condition      string
}

// ProductTerms is the slice of the product record the estimator needs
type ProductTerms struct {
	WACUnitPrice     decimal.Decimal
	BaseCreditPct    decimal.Decimal
	ReturnWindowDays int
}

// ItemEstimate is the outcome for one item
type ItemEstimate struct {
	NDC              string          `json:"ndc"`
	LotNumber        string          `json:"lot_number"`
	Quantity         int             `json:"quantity"`
	DaysToExpiration int             `json:"days_to_expiration"`
	Eligible         bool            `json:"eligible"`
	Reason           string          `json:"reason,omitempty"`
	FinalCreditPct   int             `json:"final_credit_pct"`
	EstimatedCredit  decimal.Decimal `json:"estimated_credit"`
}

// BatchEstimate is the aggregate outcome for a batch of items
type BatchEstimate struct {
	Items                []ItemEstimate  `json:"items"`
	TotalEstimatedCredit decimal.Decimal `json:"total_estimated_credit"`
	ServiceFee           decimal.Decimal `json:"service_fee"`
	TransportationFee    decimal.Decimal `json:"transportation_fee"`
	NetCredit            decimal.Decimal `json:"net_credit"`
}

// Estimator computes credit estimates from pricing configuration. Pure; all
// time handling goes through the caller-supplied reference date.
type Estimator struct {
	pricing config.PricingConfig
}

// New creates an estimator
func New(pricing config.PricingConfig) *Estimator {
	return &Estimator{pricing: pricing}
}

// DaysToExpiration is the ceiling of the day distance from now to the
// expiration date. Same-day expiry counts as 0, yesterday as -1.
func DaysToExpiration(now, expiration time.Time) int {
	return int(math.Ceil(expiration.Sub(now).Hours() / 24))
}

// degradationFactor maps remaining shelf life to the fraction of the base
// credit percentage still recoverable.
func degradationFactor(daysToExpiration int) float64 {
	switch {
	case daysToExpiration <= 30:
		return 0.25
	case daysToExpiration <= 90:
		return 0.50
	case daysToExpiration <= 180:
		return 0.85
	default:
		return 1.0
	}
}

// conditionMultiplier returns the multiplier for an item condition.
// Unknown conditions are treated as unopened.
func conditionMultiplier(condition string) float64 {
	switch condition {
	case ConditionOpened:
		return 0.7
	case ConditionDamaged:
		return 0.3
	default:
		return 1.0
	}
}

// EstimateItem computes the credit for one item against its product terms.
// The final percentage is rounded to the nearest integer before it is
// applied to WAC x quantity.
func (e *Estimator) EstimateItem(now time.Time, item Item, terms ProductTerms) ItemEstimate {
	result := ItemEstimate{
		NDC:             item.NDC,
		LotNumber:       item.LotNumber,
		Quantity:        item.Quantity,
		EstimatedCredit: decimal.Zero,
	}

	result.DaysToExpiration = DaysToExpiration(now, item.ExpirationDate)

	window := terms.ReturnWindowDays
	if window <= 0 {
		window = e.pricing.DefaultReturnWindowDays
	}

	if result.DaysToExpiration < 0 {
		result.Reason = "item is expired"
		return result
	}
	if result.DaysToExpiration > window {
		result.Reason = "item is outside the return window"
		return result
	}

	basePct, _ := terms.BaseCreditPct.Float64()
	finalPct := basePct * degradationFactor(result.DaysToExpiration) * conditionMultiplier(item.Condition)

	result.Eligible = true
	result.FinalCreditPct = int(math.Round(finalPct))
	result.EstimatedCredit = terms.WACUnitPrice.
		Mul(decimal.NewFromInt(int64(item.Quantity))).
		Mul(decimal.NewFromInt(int64(result.FinalCreditPct))).
		Div(decimal.NewFromInt(100))

	return result
}

// EstimateBatch estimates each item and applies the batch fees once:
// service fee clamped to [min, max], transportation fee scaled by item
// count. Terms are keyed by normalized NDC; items without terms are
// ineligible.
func (e *Estimator) EstimateBatch(now time.Time, items []Item, terms map[string]ProductTerms) BatchEstimate {
	batch := BatchEstimate{
		Items:                make([]ItemEstimate, 0, len(items)),
		TotalEstimatedCredit: decimal.Zero,
	}

	for _, item := range items {
		t, ok := terms[item.NDC]
		if !ok {
			batch.Items = append(batch.Items, ItemEstimate{
				NDC:              item.NDC,
				LotNumber:        item.LotNumber,
				Quantity:         item.Quantity,
				DaysToExpiration: DaysToExpiration(now, item.ExpirationDate),
				Reason:           "unknown product",
				EstimatedCredit:  decimal.Zero,
			})
			continue
		}

		est := e.EstimateItem(now, item, t)
		batch.Items = append(batch.Items, est)
		batch.TotalEstimatedCredit = batch.TotalEstimatedCredit.Add(est.EstimatedCredit)
	}

	batch.ServiceFee = e.serviceFee(batch.TotalEstimatedCredit)
	batch.TransportationFee = e.transportationFee(len(items))
	batch.NetCredit = batch.TotalEstimatedCredit.Sub(batch.ServiceFee).Sub(batch.TransportationFee)

	return batch
}

func (e *Estimator) serviceFee(total decimal.Decimal) decimal.Decimal {
	fee := total.Mul(decimal.NewFromFloat(e.pricing.ServiceFeeRatePct)).Div(decimal.NewFromInt(100))

	min := decimal.NewFromFloat(e.pricing.ServiceFeeMin)
	max := decimal.NewFromFloat(e.pricing.ServiceFeeMax)
	if fee.LessThan(min) {
		return min
	}
	if fee.GreaterThan(max) {
		return max
	}
	return fee
}

func (e *Estimator) transportationFee(itemCount int) decimal.Decimal {
	base := decimal.NewFromFloat(e.pricing.TransportFeeBase)
	perItem := decimal.NewFromFloat(e.pricing.TransportFeePerItem)
	return base.Add(perItem.Mul(decimal.NewFromInt(int64(itemCount))))
}

// Commission splits a gross amount into commission and net at the
// configured rate.
func (e *Estimator) Commission(gross decimal.Decimal) (commission, net decimal.Decimal) {
	commission = gross.Mul(decimal.NewFromFloat(e.pricing.CommissionRatePct)).Div(decimal.NewFromInt(100))
	net = gross.Sub(commission)
	return commission, net
}
