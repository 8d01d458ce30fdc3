package domain

import (
	"sort"
	"strings"
)

// Dimension is a categorical attribute that pivots can be filtered on.
type Dimension string

const (
	DimRegion      Dimension = "region"
	DimArea        Dimension = "area"
	DimDistributor Dimension = "distributor"
	DimSalesOffice Dimension = "sales_office"
	DimGroup       Dimension = "group"
	DimTipe        Dimension = "tipe"
)

// Dimensions in display order.
var Dimensions = []Dimension{DimRegion, DimArea, DimDistributor, DimSalesOffice, DimGroup, DimTipe}

// Condition restricts one dimension to a set of allowed values.
// An empty Values slice means no restriction.
type Condition struct {
	Dimension Dimension `json:"dimension"`
	Values    []string  `json:"values"`
}

// Filters is an explicit list of (dimension, allowed values) pairs. Conditions
// are ANDed; values within a condition are ORed.
type Filters struct {
	Conditions []Condition `json:"conditions"`
}

// NormalizeValue is the comparison form for dimension values.
func NormalizeValue(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

// With returns a copy of f restricting d to values. Blank values are dropped and
// the rest normalized and de-duplicated.
func (f Filters) With(d Dimension, values ...string) Filters {
	seen := make(map[string]struct{}, len(values))
	normalized := make([]string, 0, len(values))
	for _, v := range values {
		n := NormalizeValue(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		normalized = append(normalized, n)
	}
	if len(normalized) == 0 {
		return f
	}
	sort.Strings(normalized)

	out := Filters{Conditions: make([]Condition, 0, len(f.Conditions)+1)}
	out.Conditions = append(out.Conditions, f.Conditions...)
	out.Conditions = append(out.Conditions, Condition{Dimension: d, Values: normalized})
	return out
}

// IsEmpty reports whether no condition restricts anything.
func (f Filters) IsEmpty() bool {
	for _, c := range f.Conditions {
		if len(c.Values) > 0 {
			return false
		}
	}
	return true
}
