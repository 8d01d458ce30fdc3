package engine

import "github.com/andresuchdata/salesdash/backend-go/internal/domain"

// predicate decides whether a record passes a filter condition.
type predicate func(r *domain.Record) bool

// buildPredicates turns filters into one predicate per restricted dimension.
// Unrestricted dimensions produce nothing, so empty filters keep everything.
// When blankPasses is set a record with no value for a dimension is kept; the
// target join uses that because target sheets often omit dimensions.
func buildPredicates(f domain.Filters, blankPasses bool) []predicate {
	preds := make([]predicate, 0, len(f.Conditions))
	for _, c := range f.Conditions {
		if len(c.Values) == 0 {
			continue
		}
		allowed := make(map[string]struct{}, len(c.Values))
		for _, v := range c.Values {
			if n := domain.NormalizeValue(v); n != "" {
				allowed[n] = struct{}{}
			}
		}
		if len(allowed) == 0 {
			continue
		}
		dim := c.Dimension
		preds = append(preds, func(r *domain.Record) bool {
			v := domain.NormalizeValue(r.Dimension(dim))
			if v == "" && blankPasses {
				return true
			}
			_, ok := allowed[v]
			return ok
		})
	}
	return preds
}

func matchAll(preds []predicate, r *domain.Record) bool {
	for _, p := range preds {
		if !p(r) {
			return false
		}
	}
	return true
}

// Filter returns the records passing every condition.
func Filter(records []domain.Record, f domain.Filters) []domain.Record {
	preds := buildPredicates(f, false)
	if len(preds) == 0 {
		return records
	}
	out := make([]domain.Record, 0, len(records))
	for i := range records {
		if matchAll(preds, &records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}
