package engine

import (
	"testing"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestFilterOptionsAreNormalizedAndSorted(t *testing.T) {
	records := []domain.Record{
		{SKU: "A", Region: "jawa ", Tipe: "Retail"},
		{SKU: "B", Region: "Bali", Tipe: "retail"},
		{SKU: "C", Region: "JAWA"},
	}

	opts := FilterOptions(records)
	assert.Equal(t, []string{"BALI", "JAWA"}, opts[domain.DimRegion])
	assert.Equal(t, []string{"RETAIL"}, opts[domain.DimTipe])
	assert.Empty(t, opts[domain.DimArea])
	assert.Len(t, opts, len(domain.Dimensions))
}

func TestSummarize(t *testing.T) {
	records := []domain.Record{
		{SKU: "A", Value: "1,000.50"},
		{SKU: "A", Value: "20"},
		{SKU: "B", Value: "-"},
	}

	s := Summarize(domain.PartitionSales, 2, records)
	assert.Equal(t, 2, s.Parts)
	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, 2, s.DistinctSKU)
	assert.Equal(t, 1, s.NullValues)
	assert.Equal(t, "1020.5", s.TotalValue.String())
}

func TestFilterKeepsAllWithoutConditions(t *testing.T) {
	records := []domain.Record{{SKU: "A"}, {SKU: "B"}}
	assert.Len(t, Filter(records, domain.Filters{}), 2)
	assert.Len(t, Filter(records, domain.Filters{}.With(domain.DimRegion, "X")), 0)
}
