package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxreturn/rxreturn-backend/pkg/errors"
)

func TestValidateItems(t *testing.T) {
	assert.NoError(t, ValidateItems([]Item{{NDC: "n", Full: 1}}))
	assert.NoError(t, ValidateItems([]Item{{NDC: "n", Partial: 2}}))

	err := ValidateItems([]Item{{NDC: "n"}})
	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "At least one of full or partial must be greater than 0", appErr.Message)
	assert.Equal(t, 400, appErr.StatusCode)

	assert.Error(t, ValidateItems(nil))
	assert.Error(t, ValidateItems([]Item{{NDC: "n", Full: -1, Partial: 2}}))
}

func TestRankPicksHighestTotal(t *testing.T) {
	// two distributors priced at $10 and $12 full; 2 full units requested
	book := NewPriceBook([]Record{
		rec("d-cheap", "00187-5115-60", UnitTypeFull, 10, 1),
		rec("d-best", "00187-5115-60", UnitTypeFull, 12, 1),
	})
	items := []Item{{NDC: "00187-5115-60", Full: 2}}

	recommended, alternatives := Rank(book, items, []string{"d-cheap", "d-best"})

	require.NotNil(t, recommended)
	assert.Equal(t, "d-best", recommended.DistributorID)
	assert.True(t, recommended.Total.Equal(decimal.NewFromInt(24)))
	assert.True(t, recommended.Difference.IsZero())

	require.Len(t, alternatives, 1)
	assert.Equal(t, "d-cheap", alternatives[0].DistributorID)
	assert.True(t, alternatives[0].Total.Equal(decimal.NewFromInt(20)))
	assert.True(t, alternatives[0].Difference.Equal(decimal.NewFromInt(-4)),
		"alternative should be $4 below the recommended price")
}

func TestRankEqualTotalsOrderByDistributorID(t *testing.T) {
	book := NewPriceBook([]Record{
		rec("d2", "11111-1111-11", UnitTypeFull, 10, 1),
		rec("d1", "11111-1111-11", UnitTypeFull, 10, 1),
		rec("d3", "11111-1111-11", UnitTypeFull, 10, 1),
	})
	items := []Item{{NDC: "11111-1111-11", Full: 1}}

	recommended, alternatives := Rank(book, items, []string{"d2", "d1", "d3"})

	assert.Equal(t, "d1", recommended.DistributorID)
	require.Len(t, alternatives, 2)
	assert.Equal(t, "d2", alternatives[0].DistributorID)
	assert.Equal(t, "d3", alternatives[1].DistributorID)
	assert.True(t, alternatives[0].Difference.IsZero())
}

func TestRankRecommendedIsNeverBeaten(t *testing.T) {
	book := NewPriceBook([]Record{
		rec("d1", "11111-1111-11", UnitTypeFull, 7, 1),
		rec("d1", "11111-1111-11", UnitTypePartial, 3, 1),
		rec("d2", "11111-1111-11", UnitTypeFull, 9, 1),
		rec("d3", "11111-1111-11", UnitTypePartial, 5, 1),
	})
	items := []Item{{NDC: "11111-1111-11", Full: 3, Partial: 2}}

	recommended, alternatives := Rank(book, items, []string{"d1", "d2", "d3"})

	for _, alt := range alternatives {
		assert.True(t, recommended.Total.GreaterThanOrEqual(alt.Total))
		assert.True(t, alt.Difference.LessThanOrEqual(decimal.Zero))
	}
}

func TestScoreDistributorMissingUnitPriceContributesZero(t *testing.T) {
	// d1 has only a full price; partial units contribute nothing
	book := NewPriceBook([]Record{
		rec("d1", "11111-1111-11", UnitTypeFull, 10, 1),
	})

	score := ScoreDistributor(book, []Item{{NDC: "11111-1111-11", Full: 1, Partial: 5}}, "d1")

	assert.True(t, score.Total.Equal(decimal.NewFromInt(10)))
	require.Len(t, score.Items, 1)
	assert.NotNil(t, score.Items[0].FullPrice)
	assert.Nil(t, score.Items[0].PartialPrice)
}

func TestScoreDistributorSingleDistributorMode(t *testing.T) {
	book := NewPriceBook([]Record{
		rec("d1", "11111-1111-11", UnitTypeFull, 10, 1),
		rec("d2", "11111-1111-11", UnitTypeFull, 50, 1),
	})

	// caller asked for d1 only; d2's better price is irrelevant
	score := ScoreDistributor(book, []Item{{NDC: "11111-1111-11", Full: 2}}, "d1")

	assert.Equal(t, "d1", score.DistributorID)
	assert.True(t, score.Total.Equal(decimal.NewFromInt(20)))
}

func TestBestPerItem(t *testing.T) {
	book := NewPriceBook([]Record{
		rec("d1", "11111-1111-11", UnitTypeFull, 10, 1),
		rec("d2", "11111-1111-11", UnitTypeFull, 12, 1),
		rec("d1", "22222-2222-22", UnitTypeFull, 8, 1),
	})
	items := []Item{
		{NDC: "11111-1111-11", Full: 1},
		{NDC: "22222-2222-22", Full: 1},
		{NDC: "99999-9999-99", Full: 1},
	}

	winners := BestPerItem(book, items)

	assert.Equal(t, "d2", winners[0])
	assert.Equal(t, "d1", winners[1])
	assert.Equal(t, "", winners[2], "unmatched NDC has no winner")
}

func TestBestPerItemTieGoesToLowestID(t *testing.T) {
	book := NewPriceBook([]Record{
		rec("d9", "11111-1111-11", UnitTypeFull, 10, 1),
		rec("d2", "11111-1111-11", UnitTypeFull, 10, 1),
	})

	winners := BestPerItem(book, []Item{{NDC: "11111-1111-11", Full: 1}})

	assert.Equal(t, "d2", winners[0])
}
