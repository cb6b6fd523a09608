package engine

import "sort"

// ReasonNoDistributor is reported per NDC that no distributor accepts
const ReasonNoDistributor = "No distributor found offering returns for this NDC"

// UnmatchedNDC is an NDC with no eligible distributor, reported in-band
type UnmatchedNDC struct {
	NDC    string `json:"ndc"`
	Reason string `json:"reason"`
}

// Eligibility is the outcome of the distributor eligibility filter
type Eligibility struct {
	// Distributors accepting every matchable NDC in the request
	// (strict intersection), sorted by ID.
	Distributors []string
	// NDCs no distributor accepts. They do not fail the request.
	NDCsWithoutDistributors []UnmatchedNDC
}

// Eligible computes the distributor set for a request. Per-NDC eligibility
// is any record of any unit type; the multi-NDC set is the intersection of
// the per-NDC sets. NDCs with no distributor at all are excluded from the
// intersection and reported separately.
func Eligible(book *PriceBook, ndcs []string) Eligibility {
	var result Eligibility

	var intersection map[string]struct{}
	seen := make(map[string]struct{}, len(ndcs))

	for _, code := range ndcs {
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}

		candidates := book.Distributors(code)
		if len(candidates) == 0 {
			result.NDCsWithoutDistributors = append(result.NDCsWithoutDistributors, UnmatchedNDC{
				NDC:    code,
				Reason: ReasonNoDistributor,
			})
			continue
		}

		if intersection == nil {
			intersection = make(map[string]struct{}, len(candidates))
			for id := range candidates {
				intersection[id] = struct{}{}
			}
			continue
		}
		for id := range intersection {
			if _, ok := candidates[id]; !ok {
				delete(intersection, id)
			}
		}
	}

	result.Distributors = make([]string, 0, len(intersection))
	for id := range intersection {
		result.Distributors = append(result.Distributors, id)
	}
	sort.Strings(result.Distributors)

	return result
}
