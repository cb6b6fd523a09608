package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unit types priced independently per distributor
const (
	UnitTypeFull    = "full"
	UnitTypePartial = "partial"
)

// Record is one observed price point from a distributor return report
type Record struct {
	DistributorID string
	NDC           string
	UnitType      string
	PricePerUnit  decimal.Decimal
	ReportDate    time.Time
}

type priceKey struct {
	distributorID string
	ndc           string
	unitType      string
}

type priceEntry struct {
	price      decimal.Decimal
	reportDate time.Time
}

// PriceBook resolves the current price per (distributor, NDC, unit type):
// always the latest observed report-date price, never an average. It also
// tracks which distributors have ever transacted each NDC.
type PriceBook struct {
	prices map[priceKey]priceEntry
	byNDC  map[string]map[string]struct{}
}

// NewPriceBook builds a price book by replaying records in order. For equal
// report dates the record replayed last wins, so callers must feed records
// in insertion order.
func NewPriceBook(records []Record) *PriceBook {
	book := &PriceBook{
		prices: make(map[priceKey]priceEntry),
		byNDC:  make(map[string]map[string]struct{}),
	}
	for _, rec := range records {
		book.add(rec)
	}
	return book
}

func (b *PriceBook) add(rec Record) {
	key := priceKey{distributorID: rec.DistributorID, ndc: rec.NDC, unitType: rec.UnitType}

	if existing, ok := b.prices[key]; !ok || !rec.ReportDate.Before(existing.reportDate) {
		b.prices[key] = priceEntry{price: rec.PricePerUnit, reportDate: rec.ReportDate}
	}

	if b.byNDC[rec.NDC] == nil {
		b.byNDC[rec.NDC] = make(map[string]struct{})
	}
	b.byNDC[rec.NDC][rec.DistributorID] = struct{}{}
}

// Price returns the current price for a (distributor, NDC, unit type), or
// false if that unit type has never been priced.
func (b *PriceBook) Price(distributorID, ndc, unitType string) (decimal.Decimal, bool) {
	entry, ok := b.prices[priceKey{distributorID: distributorID, ndc: ndc, unitType: unitType}]
	if !ok {
		return decimal.Zero, false
	}
	return entry.price, true
}

// Distributors returns the set of distributors that have at least one record
// of any unit type for the NDC.
func (b *PriceBook) Distributors(ndc string) map[string]struct{} {
	return b.byNDC[ndc]
}
