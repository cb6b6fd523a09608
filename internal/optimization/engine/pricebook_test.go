package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func rec(dist, code, unitType string, price float64, reportDay int) Record {
	return Record{
		DistributorID: dist,
		NDC:           code,
		UnitType:      unitType,
		PricePerUnit:  decimal.NewFromFloat(price),
		ReportDate:    day(reportDay),
	}
}

func TestPriceBookLatestReportDateWins(t *testing.T) {
	book := NewPriceBook([]Record{
		rec("d1", "00187-5115-60", UnitTypeFull, 10, 5),
		rec("d1", "00187-5115-60", UnitTypeFull, 8, 1),  // older, ignored
		rec("d1", "00187-5115-60", UnitTypeFull, 12, 9), // newest
	})

	price, ok := book.Price("d1", "00187-5115-60", UnitTypeFull)
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromInt(12)))
}

func TestPriceBookTieLastWriteWins(t *testing.T) {
	// same report date: the record replayed last wins
	book := NewPriceBook([]Record{
		rec("d1", "00187-5115-60", UnitTypeFull, 10, 5),
		rec("d1", "00187-5115-60", UnitTypeFull, 11, 5),
	})

	price, ok := book.Price("d1", "00187-5115-60", UnitTypeFull)
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromInt(11)))
}

func TestPriceBookUnitTypesAreIndependent(t *testing.T) {
	book := NewPriceBook([]Record{
		rec("d1", "00187-5115-60", UnitTypeFull, 10, 5),
	})

	_, ok := book.Price("d1", "00187-5115-60", UnitTypePartial)
	assert.False(t, ok)

	_, ok = book.Price("d2", "00187-5115-60", UnitTypeFull)
	assert.False(t, ok)
}

func TestPriceBookDistributors(t *testing.T) {
	book := NewPriceBook([]Record{
		rec("d1", "00187-5115-60", UnitTypeFull, 10, 5),
		rec("d2", "00187-5115-60", UnitTypePartial, 4, 5),
	})

	dists := book.Distributors("00187-5115-60")
	assert.Len(t, dists, 2)
	assert.Contains(t, dists, "d1")
	assert.Contains(t, dists, "d2")

	assert.Empty(t, book.Distributors("99999-9999-99"))
}
