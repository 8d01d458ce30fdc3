package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/salesdash/backend-go/internal/config"
	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(filters domain.Filters) domain.PivotRequest {
	return domain.PivotRequest{
		Filters: filters,
		Period: domain.PeriodSelection{
			Closing:    domain.YearMonth{Year: 2025, Month: 12},
			Historical: domain.YearMonth{Year: 2025, Month: 11},
		},
	}
}

func TestPivotKeyIgnoresOrderAndCase(t *testing.T) {
	a := request(domain.Filters{Conditions: []domain.Condition{
		{Dimension: domain.DimRegion, Values: []string{"west", "EAST "}},
		{Dimension: domain.DimGroup, Values: []string{"g1"}},
	}})
	b := request(domain.Filters{Conditions: []domain.Condition{
		{Dimension: domain.DimGroup, Values: []string{"G1", "g1"}},
		{Dimension: domain.DimRegion, Values: []string{"East", "West"}},
	}})

	assert.Equal(t, PivotKey(a), PivotKey(b))
	assert.True(t, strings.HasPrefix(PivotKey(a), pivotKeyPrefix+":"))
}

func TestPivotKeyDistinguishesRequests(t *testing.T) {
	base := request(domain.Filters{})

	other := base
	other.Period.Historical = domain.YearMonth{Year: 2025, Month: 10}
	assert.NotEqual(t, PivotKey(base), PivotKey(other))

	mean := base
	mean.TotalAverages = domain.TotalAverageMean
	assert.NotEqual(t, PivotKey(base), PivotKey(mean))

	filtered := request(domain.Filters{}.With(domain.DimArea, "A1"))
	assert.NotEqual(t, PivotKey(base), PivotKey(filtered))

	// An empty condition restricts nothing.
	blank := request(domain.Filters{Conditions: []domain.Condition{{Dimension: domain.DimArea}}})
	assert.Equal(t, PivotKey(base), PivotKey(blank))

	// The default mode and an explicit "sum" are the same request.
	sum := base
	sum.TotalAverages = domain.TotalAverageSum
	assert.Equal(t, PivotKey(base), PivotKey(sum))
}

func TestDisabledCacheIsNoop(t *testing.T) {
	c, err := NewPivotCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	ctx := context.Background()
	req := request(domain.Filters{})
	require.NoError(t, c.Set(ctx, req, &domain.PivotTable{}))

	got, ok, err := c.Get(ctx, req)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NoError(t, c.InvalidateAll(ctx))
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:secret@example:6379/1"})
	require.NoError(t, err)
	assert.Equal(t, "example:6379", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 1, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "http://nope"})
	assert.Error(t, err)
}

func TestPivotTTL(t *testing.T) {
	assert.Equal(t, defaultPivotTTL, pivotTTL(config.CacheConfig{}))
	assert.Equal(t, 90*time.Second, pivotTTL(config.CacheConfig{PivotTTLSeconds: 90}))
}
