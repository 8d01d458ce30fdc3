package engine

import (
	"sort"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/andresuchdata/salesdash/backend-go/internal/normalize"
	"github.com/shopspring/decimal"
)

// FilterOptions lists the distinct normalized values of every dimension.
func FilterOptions(records []domain.Record) map[domain.Dimension][]string {
	sets := make(map[domain.Dimension]map[string]struct{}, len(domain.Dimensions))
	for _, d := range domain.Dimensions {
		sets[d] = make(map[string]struct{})
	}
	for i := range records {
		for _, d := range domain.Dimensions {
			if v := domain.NormalizeValue(records[i].Dimension(d)); v != "" {
				sets[d][v] = struct{}{}
			}
		}
	}

	out := make(map[domain.Dimension][]string, len(sets))
	for d, set := range sets {
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		sort.Strings(values)
		out[d] = values
	}
	return out
}

// Summarize computes the headline metrics of a partition scan.
func Summarize(p domain.Partition, parts int, records []domain.Record) domain.DatasetSummary {
	summary := domain.DatasetSummary{
		Partition:  p,
		Parts:      parts,
		Rows:       len(records),
		TotalValue: decimal.Zero,
	}
	skus := make(map[string]struct{})
	for i := range records {
		if records[i].SKU != "" {
			skus[records[i].SKU] = struct{}{}
		}
		if v, ok := normalize.Amount(&records[i]); ok {
			summary.TotalValue = summary.TotalValue.Add(v)
		} else {
			summary.NullValues++
		}
	}
	summary.DistinctSKU = len(skus)
	return summary
}
