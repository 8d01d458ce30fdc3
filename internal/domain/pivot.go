package domain

import "github.com/shopspring/decimal"

// GrandTotalLabel marks the synthetic total row.
const GrandTotalLabel = "GRAND TOTAL"

// TotalAverageMode selects how the grand total row derives its averages.
type TotalAverageMode string

const (
	// TotalAverageSum adds per-SKU averages, which equals the trailing average of
	// the total row's own sums.
	TotalAverageSum TotalAverageMode = "sum"
	// TotalAverageMean takes the mean of per-SKU averages.
	TotalAverageMean TotalAverageMode = "mean"
)

// ParseTotalAverageMode defaults to TotalAverageSum.
func ParseTotalAverageMode(s string) TotalAverageMode {
	if TotalAverageMode(s) == TotalAverageMean {
		return TotalAverageMean
	}
	return TotalAverageSum
}

// PivotRequest is everything one aggregation needs. It is built per request.
type PivotRequest struct {
	Filters       Filters          `json:"filters"`
	Period        PeriodSelection  `json:"period"`
	TotalAverages TotalAverageMode `json:"total_averages"`
}

// PivotRow is one SKU (or the grand total) in a pivot.
type PivotRow struct {
	SKU       string              `json:"sku"`
	IsTotal   bool                `json:"is_total"`
	Months    []decimal.Decimal   `json:"months"`
	Avg12     decimal.Decimal     `json:"avg_12m"`
	Avg3      decimal.Decimal     `json:"avg_3m"`
	Weeks     []decimal.Decimal   `json:"weeks"`
	WeekTotal decimal.Decimal     `json:"week_total"`
	Target    decimal.Decimal     `json:"target"`
	Growth    decimal.NullDecimal `json:"growth_pct"`
}

// PivotTable is the aggregation result. Rows start with the grand total when
// any SKU matched.
type PivotTable struct {
	Period      PeriodSelection `json:"period"`
	MonthLabels []string        `json:"month_labels"`
	WeekLabels  []string        `json:"week_labels"`
	Rows        []PivotRow      `json:"rows"`
}

// Empty reports whether no SKU matched.
func (t *PivotTable) Empty() bool { return len(t.Rows) == 0 }

// DatasetSummary holds headline numbers for one partition.
type DatasetSummary struct {
	Partition   Partition       `json:"partition"`
	Parts       int             `json:"parts"`
	Rows        int             `json:"rows"`
	DistinctSKU int             `json:"distinct_sku"`
	TotalValue  decimal.Decimal `json:"total_value"`
	NullValues  int             `json:"null_values"`
}

// ColumnInfo describes one stored column.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}
