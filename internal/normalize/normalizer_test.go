package normalize

import (
	"errors"
	"testing"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesTable() RawTable {
	return RawTable{
		Header: []string{"Kode SKU", "REGION", "SALES OFFICE", "Net Value", "TAHUN", "BULAN", "Keterangan"},
		Rows: [][]string{
			{" abc ", "Jawa", "SO-1", "1,000", "2025", "12", "promo"},
			{"", "", "", "", "", "", ""},
			{"def", "Sumatra", "SO-2", "n/a", "2025", "11"},
		},
	}
}

func TestNormalizeMapsAliasesAndProvenance(t *testing.T) {
	res, err := New(Options{}).Normalize(salesTable(), Metadata{
		Filename: "sales_dec.xlsx",
		Sheet:    "Sheet1",
		Kind:     domain.PartitionSales,
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 1, res.BlankRows)

	first := res.Records[0]
	assert.Equal(t, "ABC", first.SKU)
	assert.Equal(t, "Jawa", first.Region)
	assert.Equal(t, "SO-1", first.SalesOffice)
	assert.Equal(t, "1,000", first.Value)
	assert.Equal(t, "2025", first.Year)
	assert.Equal(t, "12", first.Month)
	assert.Equal(t, "promo", first.Attributes["Keterangan"])
	assert.Equal(t, "sales_dec.xlsx", first.SourceFile)
	assert.Equal(t, "Sheet1", first.SourceSheet)
	assert.Equal(t, domain.PartitionSales, first.Kind)
	assert.Nil(t, first.Typed)

	// Short rows keep going; the missing attribute is blank.
	second := res.Records[1]
	assert.Equal(t, "n/a", second.Value)
	assert.Equal(t, "", second.Attributes["Keterangan"])
}

func TestNormalizeKeepsRepeatedAttributeHeaders(t *testing.T) {
	raw := RawTable{
		Header: []string{"SKU", "Note", "Value", "Date", "Note", " Note "},
		Rows:   [][]string{{"abc", "first", "1", "2025-01-02", "second", "third"}},
	}
	res, err := New(Options{}).Normalize(raw, Metadata{Filename: "notes.csv", Kind: domain.PartitionSales})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	assert.Equal(t, map[string]string{
		"Note":   "first",
		"Note#5": "second",
		"Note#6": "third",
	}, res.Records[0].Attributes)
}

func TestNormalizeTypedPassthroughRecordsSoftErrors(t *testing.T) {
	res, err := New(Options{TypedPassthrough: true}).Normalize(salesTable(), Metadata{
		Filename: "sales_dec.xlsx",
		Kind:     domain.PartitionSales,
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	typed := res.Records[0].Typed
	require.NotNil(t, typed)
	require.NotNil(t, typed.Value)
	assert.Equal(t, "1000", *typed.Value)
	assert.Equal(t, 2025, *typed.Year)
	assert.Equal(t, 12, *typed.Month)
	assert.Nil(t, typed.Week)

	assert.Nil(t, res.Records[1].Typed.Value)
	assert.Equal(t, 1, res.IssueCount)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, 3, res.Issues[0].Row)
	assert.Equal(t, "value", res.Issues[0].Field)
}

func TestNormalizeMissingColumnsIsSchemaError(t *testing.T) {
	raw := RawTable{
		Header: []string{"SKU", "REGION", "TAHUN"},
		Rows:   [][]string{{"ABC", "Jawa", "2025"}},
	}
	_, err := New(Options{}).Normalize(raw, Metadata{Filename: "bad.csv", Kind: domain.PartitionTarget})

	var schemaErr *domain.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "bad.csv", schemaErr.Source)
	assert.Equal(t, []string{"value", "date (or year and month)"}, schemaErr.Missing)
}

func TestNormalizeRejectsUnknownPartition(t *testing.T) {
	_, err := New(Options{}).Normalize(salesTable(), Metadata{Filename: "x.csv", Kind: "stock"})
	assert.ErrorIs(t, err, domain.ErrUnknownPartition)
}

func TestResolvePeriodPrefersMonthColumns(t *testing.T) {
	rec := &domain.Record{Date: "2025-10-15", Year: "2025", Month: "12", Week: "50"}
	p := ResolvePeriod(rec)
	assert.True(t, p.HasMonth)
	assert.Equal(t, 2025, p.Year)
	assert.Equal(t, 12, p.Month)
	assert.True(t, p.HasWeek)
	assert.Equal(t, 42, p.ISOWeek)
	assert.Equal(t, 2025, p.ISOYear)
}

func TestResolvePeriodWeekAtYearBoundary(t *testing.T) {
	// Tuesday 2025-12-30 is in ISO week 1 of 2026 even though its calendar
	// year column says 2025.
	p := ResolvePeriod(&domain.Record{Date: "2025-12-30", Year: "2025", Month: "12", Week: "1"})
	assert.Equal(t, 2025, p.Year)
	assert.Equal(t, 12, p.Month)
	assert.Equal(t, 2026, p.ISOYear)
	assert.Equal(t, 1, p.ISOWeek)

	cases := []struct {
		year, month, week string
		isoYear           int
	}{
		{"2025", "12", "1", 2026},
		{"2026", "1", "53", 2025},
		{"2027", "1", "52", 2026},
		{"2025", "6", "25", 2025},
		{"2025", "", "1", 2025},
	}
	for _, tc := range cases {
		p := ResolvePeriod(&domain.Record{Year: tc.year, Month: tc.month, Week: tc.week})
		require.True(t, p.HasWeek)
		assert.Equal(t, tc.isoYear, p.ISOYear, "year=%s month=%s week=%s", tc.year, tc.month, tc.week)
	}
}

func TestResolvePeriodFallsBackToDate(t *testing.T) {
	// Monday 2025-12-29 is ISO week 1 of 2026.
	rec := &domain.Record{Date: "2025-12-29"}
	p := ResolvePeriod(rec)
	assert.Equal(t, 2025, p.Year)
	assert.Equal(t, 12, p.Month)
	assert.Equal(t, 2026, p.ISOYear)
	assert.Equal(t, 1, p.ISOWeek)
}

func TestAmountPrefersTyped(t *testing.T) {
	v := "12.5"
	d, ok := Amount(&domain.Record{Value: "garbage", Typed: &domain.TypedFields{Value: &v}})
	assert.True(t, ok)
	assert.Equal(t, "12.5", d.String())

	_, ok = Amount(&domain.Record{Value: "100", Typed: &domain.TypedFields{}})
	assert.False(t, ok)

	d, ok = Amount(&domain.Record{Value: "100"})
	assert.True(t, ok)
	assert.Equal(t, "100", d.String())
}
