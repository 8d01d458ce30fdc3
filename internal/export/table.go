package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the rounding applied to monetary columns on export.
const MoneyPlaces = 2

// Column is one exported column. Title is the CSV header; Key is the
// parquet column name.
type Column struct {
	Title   string
	Key     string
	Numeric bool
}

// Table is a plain tabular result. A nil cell is null.
type Table struct {
	Columns []Column
	Rows    [][]*string
}

func money(d decimal.Decimal) *string {
	s := d.StringFixed(MoneyPlaces)
	return &s
}

func text(s string) *string {
	return &s
}

// FromPivot flattens a pivot, rounding every monetary column.
func FromPivot(t *domain.PivotTable) Table {
	cols := []Column{{Title: "SKU", Key: "sku"}}
	for _, label := range t.MonthLabels {
		cols = append(cols, Column{Title: label, Key: "m_" + strings.ReplaceAll(label, "-", "_"), Numeric: true})
	}
	cols = append(cols,
		Column{Title: "Avg 12M", Key: "avg_12m", Numeric: true},
		Column{Title: "Avg 3M", Key: "avg_3m", Numeric: true},
	)
	for _, label := range t.WeekLabels {
		cols = append(cols, Column{Title: label, Key: strings.ToLower(label), Numeric: true})
	}
	cols = append(cols,
		Column{Title: "Total Historical Week", Key: "week_total", Numeric: true},
		Column{Title: "Target", Key: "target", Numeric: true},
		Column{Title: "Growth %", Key: "growth_pct", Numeric: true},
	)

	rows := make([][]*string, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := make([]*string, 0, len(cols))
		row = append(row, text(r.SKU))
		for i := range t.MonthLabels {
			row = append(row, money(cell(r.Months, i)))
		}
		row = append(row, money(r.Avg12), money(r.Avg3))
		for i := range t.WeekLabels {
			row = append(row, money(cell(r.Weeks, i)))
		}
		row = append(row, money(r.WeekTotal), money(r.Target))
		if r.Growth.Valid {
			row = append(row, money(r.Growth.Decimal))
		} else {
			row = append(row, nil)
		}
		rows = append(rows, row)
	}
	return Table{Columns: cols, Rows: rows}
}

func cell(values []decimal.Decimal, i int) decimal.Decimal {
	if i < len(values) {
		return values[i]
	}
	return decimal.Zero
}

var recordColumns = []Column{
	{Title: "sku", Key: "sku"},
	{Title: "region", Key: "region"},
	{Title: "area", Key: "area"},
	{Title: "distributor", Key: "distributor"},
	{Title: "sales_office", Key: "sales_office"},
	{Title: "group", Key: "group"},
	{Title: "tipe", Key: "tipe"},
	{Title: "value", Key: "value"},
	{Title: "date", Key: "date"},
	{Title: "year", Key: "year"},
	{Title: "month", Key: "month"},
	{Title: "week", Key: "week"},
	{Title: "attributes", Key: "attributes"},
	{Title: "source_file", Key: "source_file"},
	{Title: "source_sheet", Key: "source_sheet"},
	{Title: "dataset_kind", Key: "dataset_kind"},
}

// FromRecords lays out a raw scan. Values stay exactly as uploaded.
func FromRecords(records []domain.Record) (Table, error) {
	rows := make([][]*string, 0, len(records))
	for i := range records {
		r := &records[i]
		attrs := ""
		if len(r.Attributes) > 0 {
			b, err := json.Marshal(r.Attributes)
			if err != nil {
				return Table{}, fmt.Errorf("encode attributes: %w", err)
			}
			attrs = string(b)
		}
		rows = append(rows, []*string{
			text(r.SKU), text(r.Region), text(r.Area), text(r.Distributor),
			text(r.SalesOffice), text(r.Group), text(r.Tipe), text(r.Value),
			text(r.Date), text(r.Year), text(r.Month), text(r.Week),
			text(attrs), text(r.SourceFile), text(r.SourceSheet), text(string(r.Kind)),
		})
	}
	return Table{Columns: recordColumns, Rows: rows}, nil
}
