package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"sync/atomic"
	"testing"

	"github.com/andresuchdata/salesdash/backend-go/internal/cache"
	"github.com/andresuchdata/salesdash/backend-go/internal/calendar"
	"github.com/andresuchdata/salesdash/backend-go/internal/dataset"
	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/andresuchdata/salesdash/backend-go/internal/export"
	"github.com/andresuchdata/salesdash/backend-go/internal/pipeline"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCache struct {
	cache.PivotCache
	invalidations atomic.Int32
}

func (c *countingCache) InvalidateAll(ctx context.Context) error {
	c.invalidations.Add(1)
	return nil
}

type fixture struct {
	datasets *DatasetService
	pivots   *PivotService
	cache    *countingCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := dataset.NewStore(t.TempDir())
	require.NoError(t, err)
	cal, err := calendar.New(calendar.YearRange{Start: 2024, End: 2026})
	require.NoError(t, err)

	pc := &countingCache{PivotCache: cache.NewNoopPivotCache()}
	orch := pipeline.NewOrchestrator(pipeline.NewWorker(store, nil, pipeline.DefaultConfig()))
	return &fixture{
		datasets: NewDatasetService(store, orch, pc, WithPreviewLimit(2)),
		pivots:   NewPivotService(store, cal, pc),
		cache:    pc,
	}
}

const salesCSV = "SKU,Value,Date,Region\n" +
	"a,100,2025-12-03,West\n" +
	"a,50,2025-11-05,West\n" +
	"b,30,2025-12-10,East\n"

const targetCSV = "SKU,Value,Date\na,500,2025-11-15\n"

func (f *fixture) load(t *testing.T) {
	t.Helper()
	results, err := f.datasets.Ingest(context.Background(), []pipeline.Job{
		{Partition: domain.PartitionSales, Filename: "sales.csv", Data: []byte(salesCSV)},
		{Partition: domain.PartitionTarget, Filename: "target.csv", Data: []byte(targetCSV)},
	})
	require.NoError(t, err)
	require.Zero(t, pipeline.Failed(results))
}

func period() domain.PeriodSelection {
	return domain.PeriodSelection{
		Closing:    domain.YearMonth{Year: 2025, Month: 12},
		Historical: domain.YearMonth{Year: 2025, Month: 11},
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAggregateWithoutSalesIsNoData(t *testing.T) {
	f := newFixture(t)

	_, err := f.pivots.Aggregate(context.Background(), domain.PivotRequest{Period: period()})
	var noData *domain.NoDataError
	require.ErrorAs(t, err, &noData)
	assert.Equal(t, domain.PartitionSales, noData.Partition)
}

func TestAggregateEndToEnd(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	assert.Equal(t, int32(1), f.cache.invalidations.Load())

	table, err := f.pivots.Aggregate(context.Background(), domain.PivotRequest{Period: period()})
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"2025-10", "2025-11", "2025-12"}, table.MonthLabels)

	total, a, b := table.Rows[0], table.Rows[1], table.Rows[2]
	assert.True(t, total.IsTotal)
	assert.Equal(t, "A", a.SKU)
	assert.Equal(t, "B", b.SKU)

	assert.True(t, dec("100").Equal(a.Months[2]))
	assert.True(t, dec("50").Equal(a.Months[1]))
	assert.True(t, dec("50").Equal(a.Avg3))
	assert.True(t, dec("12.5").Equal(a.Avg12))
	assert.True(t, dec("50").Equal(a.Weeks[0]))
	assert.True(t, dec("500").Equal(a.Target))
	assert.False(t, a.Growth.Valid)

	assert.True(t, dec("30").Equal(b.Months[2]))
	assert.True(t, dec("0").Equal(b.Target))
	assert.True(t, dec("130").Equal(total.Months[2]))
}

func TestAggregateFiltersByRegion(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	req := domain.PivotRequest{
		Period:  period(),
		Filters: domain.Filters{}.With(domain.DimRegion, "west"),
	}
	table, err := f.pivots.Aggregate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "A", table.Rows[1].SKU)
	// Target rows without a region still join.
	assert.True(t, dec("500").Equal(table.Rows[1].Target))

	req.Filters = domain.Filters{}.With(domain.DimRegion, "north")
	table, err = f.pivots.Aggregate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, table.Empty())
}

func TestAggregateOutsideCalendar(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	req := domain.PivotRequest{Period: domain.PeriodSelection{
		Closing:    domain.YearMonth{Year: 2025, Month: 12},
		Historical: domain.YearMonth{Year: 2030, Month: 1},
	}}
	_, err := f.pivots.Aggregate(context.Background(), req)
	var rangeErr *domain.CalendarRangeError
	assert.ErrorAs(t, err, &rangeErr)
}

func TestPivotExportCSV(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	var buf bytes.Buffer
	require.NoError(t, f.pivots.Export(context.Background(), domain.PivotRequest{Period: period()}, export.FormatCSV, &buf))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, domain.GrandTotalLabel, rows[1][0])
	assert.Equal(t, "12.50", rows[2][4])
}

func TestDatasetOperations(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	ctx := context.Background()

	parts, err := f.datasets.Parts(domain.PartitionSales)
	require.NoError(t, err)
	assert.Len(t, parts, 1)

	preview, err := f.datasets.Preview(ctx, domain.PartitionSales, 0)
	require.NoError(t, err)
	assert.Len(t, preview, 2)

	summary, err := f.datasets.Summary(ctx, domain.PartitionSales)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, 2, summary.DistinctSKU)
	assert.True(t, dec("180").Equal(summary.TotalValue))

	cols, err := f.datasets.Describe(domain.PartitionTarget)
	require.NoError(t, err)
	assert.NotEmpty(t, cols)

	opts, err := f.pivots.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"EAST", "WEST"}, opts[domain.DimRegion])

	runs, err := f.datasets.Runs(ctx, domain.PartitionSales, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)

	require.NoError(t, f.datasets.Reset(ctx, domain.PartitionSales))
	_, err = f.pivots.Aggregate(ctx, domain.PivotRequest{Period: period()})
	var noData *domain.NoDataError
	assert.ErrorAs(t, err, &noData)
	assert.Equal(t, int32(2), f.cache.invalidations.Load())
}

func TestSheetNamesRejectsUnknownFormat(t *testing.T) {
	f := newFixture(t)

	_, err := f.datasets.SheetNames("report.pdf", nil)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	names, err := f.datasets.SheetNames("a.csv", []byte("SKU\n"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCalendarYear(t *testing.T) {
	f := newFixture(t)

	entries, err := f.pivots.Calendar(2025)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(entries), 52)
	for _, e := range entries {
		assert.Equal(t, 2025, e.ISOYear)
	}

	_, err = f.pivots.Calendar(1990)
	var rangeErr *domain.CalendarRangeError
	assert.ErrorAs(t, err, &rangeErr)
}
