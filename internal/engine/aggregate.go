package engine

import (
	"fmt"
	"sort"

	"github.com/andresuchdata/salesdash/backend-go/internal/calendar"
	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/andresuchdata/salesdash/backend-go/internal/normalize"
	"github.com/shopspring/decimal"
)

const (
	trailingMonths = 3
	rollingMonths  = 12
	minWeekColumns = 5
)

var (
	hundred    = decimal.NewFromInt(100)
	divTrail   = decimal.NewFromInt(trailingMonths)
	divRolling = decimal.NewFromInt(rollingMonths)
)

// Input is the data one aggregation runs over.
type Input struct {
	Sales   []domain.Record
	Targets []domain.Record
}

type skuAgg struct {
	monthly map[domain.YearMonth]decimal.Decimal
	weeks   []decimal.Decimal
	target  decimal.Decimal
}

// Aggregate computes the SKU pivot for one request. The SKU universe comes
// from sales only; targets are joined afterwards.
func Aggregate(in Input, cal *calendar.Calendar, req domain.PivotRequest) (*domain.PivotTable, error) {
	if err := req.Period.Validate(); err != nil {
		return nil, err
	}
	if cal == nil {
		return nil, fmt.Errorf("business calendar is required")
	}

	closing := req.Period.Closing
	if err := cal.Covers(closing); err != nil {
		return nil, err
	}
	hist := req.Period.Historical
	histWeeks, err := cal.WeeksIn(hist)
	if err != nil {
		return nil, err
	}
	weekCols := len(histWeeks)
	if weekCols < minWeekColumns {
		weekCols = minWeekColumns
	}

	trailing := closing.Trailing(trailingMonths)
	window := closing.Trailing(rollingMonths)
	priorYear := domain.YearMonth{Year: closing.Year - 1, Month: closing.Month}

	wanted := make(map[domain.YearMonth]struct{}, rollingMonths+1)
	for _, ym := range window {
		wanted[ym] = struct{}{}
	}
	wanted[priorYear] = struct{}{}

	table := &domain.PivotTable{
		Period:      req.Period,
		MonthLabels: labels(trailing),
		WeekLabels:  weekLabels(weekCols),
		Rows:        []domain.PivotRow{},
	}

	// Filter sales and collect the SKU universe.
	preds := buildPredicates(req.Filters, false)
	aggs := make(map[string]*skuAgg)
	for i := range in.Sales {
		r := &in.Sales[i]
		if r.SKU == "" || !matchAll(preds, r) {
			continue
		}
		amount, ok := normalize.Amount(r)
		if !ok {
			continue
		}

		agg, exists := aggs[r.SKU]
		if !exists {
			agg = &skuAgg{
				monthly: make(map[domain.YearMonth]decimal.Decimal),
				weeks:   zeros(weekCols),
			}
			aggs[r.SKU] = agg
		}

		period := normalize.ResolvePeriod(r)

		// Monthly sums over the rolling window and the prior-year month.
		if period.HasMonth {
			ym := domain.YearMonth{Year: period.Year, Month: period.Month}
			if _, ok := wanted[ym]; ok {
				agg.monthly[ym] = agg.monthly[ym].Add(amount)
			}
		}

		// Weekly breakdown of the historical month.
		if period.HasWeek {
			if entry, ok := cal.Lookup(period.ISOWeek, period.ISOYear); ok &&
				entry.ISOYear == hist.Year && entry.ISOMonth == hist.Month &&
				entry.WeekInMonth >= 1 && entry.WeekInMonth <= weekCols {
				agg.weeks[entry.WeekInMonth-1] = agg.weeks[entry.WeekInMonth-1].Add(amount)
			}
		}
	}

	if len(aggs) == 0 {
		return table, nil
	}

	// Target join for the historical month. Blank target dimensions pass.
	targetPreds := buildPredicates(req.Filters, true)
	for i := range in.Targets {
		r := &in.Targets[i]
		agg, ok := aggs[r.SKU]
		if !ok || !matchAll(targetPreds, r) {
			continue
		}
		period := normalize.ResolvePeriod(r)
		if !period.HasMonth || period.Year != hist.Year || period.Month != hist.Month {
			continue
		}
		if amount, ok := normalize.Amount(r); ok {
			agg.target = agg.target.Add(amount)
		}
	}

	skus := make([]string, 0, len(aggs))
	for sku := range aggs {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	rows := make([]domain.PivotRow, 0, len(skus)+1)
	for _, sku := range skus {
		rows = append(rows, buildRow(sku, aggs[sku], trailing, window, priorYear))
	}

	// Grand total first, then SKUs ascending.
	total := grandTotal(rows, weekCols, req.TotalAverages)
	table.Rows = append(table.Rows, total)
	table.Rows = append(table.Rows, rows...)
	return table, nil
}

func buildRow(sku string, agg *skuAgg, trailing, window []domain.YearMonth, priorYear domain.YearMonth) domain.PivotRow {
	row := domain.PivotRow{
		SKU:    sku,
		Months: make([]decimal.Decimal, len(trailing)),
		Weeks:  agg.weeks,
		Target: agg.target,
	}

	trailSum := decimal.Zero
	for i, ym := range trailing {
		row.Months[i] = agg.monthly[ym]
		trailSum = trailSum.Add(row.Months[i])
	}

	// Always divide by the full window length.
	rollingSum := decimal.Zero
	for _, ym := range window {
		rollingSum = rollingSum.Add(agg.monthly[ym])
	}
	row.Avg12 = rollingSum.Div(divRolling)
	row.Avg3 = trailSum.Div(divTrail)

	for _, w := range row.Weeks {
		row.WeekTotal = row.WeekTotal.Add(w)
	}

	// Growth of the closing month against the same month last year.
	current := row.Months[len(row.Months)-1]
	row.Growth = growth(current, agg.monthly[priorYear])

	return row
}

func growth(current, previous decimal.Decimal) decimal.NullDecimal {
	if previous.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(current.Sub(previous).Div(previous).Mul(hundred))
}

func grandTotal(rows []domain.PivotRow, weekCols int, mode domain.TotalAverageMode) domain.PivotRow {
	total := domain.PivotRow{
		SKU:     domain.GrandTotalLabel,
		IsTotal: true,
		Months:  zeros(trailingMonths),
		Weeks:   zeros(weekCols),
	}
	for _, r := range rows {
		for i, m := range r.Months {
			total.Months[i] = total.Months[i].Add(m)
		}
		for i, w := range r.Weeks {
			total.Weeks[i] = total.Weeks[i].Add(w)
		}
		total.Avg12 = total.Avg12.Add(r.Avg12)
		total.Avg3 = total.Avg3.Add(r.Avg3)
		total.WeekTotal = total.WeekTotal.Add(r.WeekTotal)
		total.Target = total.Target.Add(r.Target)
	}
	if mode == domain.TotalAverageMean && len(rows) > 0 {
		n := decimal.NewFromInt(int64(len(rows)))
		total.Avg12 = total.Avg12.Div(n)
		total.Avg3 = total.Avg3.Div(n)
	}
	return total
}

func zeros(n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.Zero
	}
	return out
}

func labels(months []domain.YearMonth) []string {
	out := make([]string, len(months))
	for i, ym := range months {
		out[i] = ym.String()
	}
	return out
}

func weekLabels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("W%d", i+1)
	}
	return out
}
