package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func samplePivot() *domain.PivotTable {
	return &domain.PivotTable{
		MonthLabels: []string{"2025-10", "2025-11", "2025-12"},
		WeekLabels:  []string{"W1", "W2", "W3", "W4", "W5"},
		Rows: []domain.PivotRow{
			{
				SKU:       domain.GrandTotalLabel,
				IsTotal:   true,
				Months:    []decimal.Decimal{d("100"), d("200"), d("300")},
				Avg12:     d("50"),
				Avg3:      d("200"),
				Weeks:     []decimal.Decimal{d("1.005"), d("0"), d("0"), d("0"), d("0")},
				WeekTotal: d("1.005"),
				Target:    d("0"),
			},
			{
				SKU:       "ABC",
				Months:    []decimal.Decimal{d("100"), d("200"), d("300")},
				Avg12:     d("50"),
				Avg3:      d("200"),
				Weeks:     []decimal.Decimal{d("1.005"), d("0"), d("0"), d("0"), d("0")},
				WeekTotal: d("1.005"),
				Target:    d("10.333333"),
				Growth:    decimal.NewNullDecimal(d("33.3333333")),
			},
		},
	}
}

func TestPivotCSVRoundsOnlyOnExport(t *testing.T) {
	pivot := samplePivot()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, FromPivot(pivot)))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"SKU", "2025-10", "2025-11", "2025-12", "Avg 12M", "Avg 3M",
		"W1", "W2", "W3", "W4", "W5", "Total Historical Week", "Target", "Growth %",
	}, rows[0])
	assert.Equal(t, domain.GrandTotalLabel, rows[1][0])
	assert.Equal(t, "", rows[1][13])

	abc := rows[2]
	assert.Equal(t, "ABC", abc[0])
	assert.Equal(t, "100.00", abc[1])
	assert.Equal(t, "1.01", abc[6])
	assert.Equal(t, "10.33", abc[12])
	assert.Equal(t, "33.33", abc[13])

	// The pivot itself keeps full precision.
	assert.Equal(t, "10.333333", pivot.Rows[1].Target.String())
}

func TestRecordsCSVKeepsText(t *testing.T) {
	table, err := FromRecords([]domain.Record{{
		SKU:        "ABC",
		Value:      "1,000.5",
		Attributes: map[string]string{"note": "x"},
		Kind:       domain.PartitionSales,
	}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1,000.5", rows[1][7])
	assert.Equal(t, `{"note":"x"}`, rows[1][12])
	assert.Equal(t, "sales", rows[1][15])
}

func TestParquetExportWritesParquetFile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatParquet, FromPivot(samplePivot())))

	out := buf.Bytes()
	require.Greater(t, len(out), 8)
	assert.Equal(t, "PAR1", string(out[:4]))
	assert.Equal(t, "PAR1", string(out[len(out)-4:]))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("PARQUET")
	require.NoError(t, err)
	assert.Equal(t, FormatParquet, f)
	assert.Equal(t, ".parquet", f.Extension())

	_, err = ParseFormat("xlsx")
	assert.ErrorIs(t, err, domain.ErrUnsupportedExport)
}
