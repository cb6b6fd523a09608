package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rxreturn/rxreturn-backend/pkg/errors"
)

// Item is one requested NDC with unit counts
type Item struct {
	NDC     string
	Full    int
	Partial int
}

// ValidateItems enforces that every item requests at least one unit
func ValidateItems(items []Item) error {
	if len(items) == 0 {
		return errors.BadRequest("at least one item is required")
	}
	for _, item := range items {
		if item.Full < 0 || item.Partial < 0 {
			return errors.BadRequest("full and partial counts cannot be negative")
		}
		if item.Full == 0 && item.Partial == 0 {
			return errors.BadRequest("At least one of full or partial must be greater than 0")
		}
	}
	return nil
}

// ItemValue is one item priced against one distributor. A nil price means
// the distributor has never priced that unit type; it contributes zero.
type ItemValue struct {
	NDC          string           `json:"ndc"`
	Full         int              `json:"full"`
	Partial      int              `json:"partial"`
	FullPrice    *decimal.Decimal `json:"full_price,omitempty"`
	PartialPrice *decimal.Decimal `json:"partial_price,omitempty"`
	Value        decimal.Decimal  `json:"value"`
}

// DistributorScore is one distributor's total over all requested items
type DistributorScore struct {
	DistributorID string          `json:"distributor_id"`
	Items         []ItemValue     `json:"items"`
	Total         decimal.Decimal `json:"total"`
	// Difference vs the recommended total; negative means this
	// distributor pays less. Zero for the recommended entry.
	Difference decimal.Decimal `json:"difference"`
}

// ScoreDistributor prices every item against one distributor. Missing unit
// prices contribute zero, matching the per-unit-type pricing rule.
func ScoreDistributor(book *PriceBook, items []Item, distributorID string) *DistributorScore {
	score := &DistributorScore{
		DistributorID: distributorID,
		Items:         make([]ItemValue, 0, len(items)),
		Total:         decimal.Zero,
	}

	for _, item := range items {
		value := ItemValue{
			NDC:     item.NDC,
			Full:    item.Full,
			Partial: item.Partial,
			Value:   decimal.Zero,
		}

		if price, ok := book.Price(distributorID, item.NDC, UnitTypeFull); ok {
			value.FullPrice = &price
			if item.Full > 0 {
				value.Value = value.Value.Add(price.Mul(decimal.NewFromInt(int64(item.Full))))
			}
		}
		if price, ok := book.Price(distributorID, item.NDC, UnitTypePartial); ok {
			value.PartialPrice = &price
			if item.Partial > 0 {
				value.Value = value.Value.Add(price.Mul(decimal.NewFromInt(int64(item.Partial))))
			}
		}

		score.Items = append(score.Items, value)
		score.Total = score.Total.Add(value.Value)
	}
	return score
}

// Rank scores every candidate distributor and splits the result into the
// recommended distributor (highest total) and alternatives sorted by
// descending total. Equal totals order by distributor ID ascending, so the
// ranking is deterministic. Each alternative carries its difference vs the
// recommended total.
func Rank(book *PriceBook, items []Item, distributorIDs []string) (*DistributorScore, []*DistributorScore) {
	if len(distributorIDs) == 0 {
		return nil, nil
	}

	scores := make([]*DistributorScore, 0, len(distributorIDs))
	for _, id := range distributorIDs {
		scores = append(scores, ScoreDistributor(book, items, id))
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if !scores[i].Total.Equal(scores[j].Total) {
			return scores[i].Total.GreaterThan(scores[j].Total)
		}
		return scores[i].DistributorID < scores[j].DistributorID
	})

	recommended := scores[0]
	alternatives := scores[1:]
	for _, alt := range alternatives {
		alt.Difference = alt.Total.Sub(recommended.Total)
	}
	return recommended, alternatives
}

// BestPerItem picks, for each item, the distributor paying the most for
// that item alone. Candidates are the item's own eligible distributors, so
// items with disjoint distributor sets still each find a winner. Ties go to
// the lowest distributor ID. Items with no eligible distributor map to the
// empty string.
func BestPerItem(book *PriceBook, items []Item) map[int]string {
	winners := make(map[int]string, len(items))

	for i, item := range items {
		candidates := book.Distributors(item.NDC)
		winners[i] = ""

		ids := make([]string, 0, len(candidates))
		for id := range candidates {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		best := decimal.Zero
		for _, id := range ids {
			score := ScoreDistributor(book, []Item{item}, id)
			if winners[i] == "" || score.Total.GreaterThan(best) {
				winners[i] = id
				best = score.Total
			}
		}
	}
	return winners
}
