package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/salesdash/backend-go/internal/config"
	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	pivotKeyPrefix     = "salesdash:pivot"
	pivotScanBatchSize = 100
)

// PivotCache stores finished pivots keyed by request. Any write to the
// dataset must call InvalidateAll.
type PivotCache interface {
	Get(ctx context.Context, req domain.PivotRequest) (*domain.PivotTable, bool, error)
	Set(ctx context.Context, req domain.PivotRequest, table *domain.PivotTable) error
	InvalidateAll(ctx context.Context) error
}

type redisPivotCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopPivotCache struct{}

func NewPivotCache(cfg config.CacheConfig) (PivotCache, error) {
	if !cfg.Enabled {
		return &noopPivotCache{}, nil
	}

	client, err := dialRedis(cfg)
	if err != nil {
		return nil, err
	}

	return &redisPivotCache{
		client: client,
		ttl:    pivotTTL(cfg),
	}, nil
}

func NewNoopPivotCache() PivotCache {
	return &noopPivotCache{}
}

func (c *redisPivotCache) Get(ctx context.Context, req domain.PivotRequest) (*domain.PivotTable, bool, error) {
	payload, err := c.client.Get(ctx, PivotKey(req)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var table domain.PivotTable
	if err := json.Unmarshal(payload, &table); err != nil {
		return nil, false, fmt.Errorf("decode pivot cache: %w", err)
	}
	return &table, true, nil
}

func (c *redisPivotCache) Set(ctx context.Context, req domain.PivotRequest, table *domain.PivotTable) error {
	payload, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode pivot cache: %w", err)
	}

	if err := c.client.Set(ctx, PivotKey(req), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisPivotCache) InvalidateAll(ctx context.Context) error {
	removed, err := purgePrefix(ctx, c.client, pivotKeyPrefix, pivotScanBatchSize)
	if err != nil {
		return err
	}
	log.Debug().Int("keys", removed).Msg("cache: pivots invalidated")
	return nil
}

func (n *noopPivotCache) Get(ctx context.Context, req domain.PivotRequest) (*domain.PivotTable, bool, error) {
	return nil, false, nil
}

func (n *noopPivotCache) Set(ctx context.Context, req domain.PivotRequest, table *domain.PivotTable) error {
	return nil
}

func (n *noopPivotCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// PivotKey is the redis key for req. Equivalent requests share a key however
// their conditions and values are ordered or cased.
func PivotKey(req domain.PivotRequest) string {
	return fmt.Sprintf("%s:%s", pivotKeyPrefix, pivotRequestHash(req))
}

func pivotRequestHash(req domain.PivotRequest) string {
	parts := []string{
		"closing=" + req.Period.Closing.String(),
		"historical=" + req.Period.Historical.String(),
		"total_averages=" + string(domain.ParseTotalAverageMode(string(req.TotalAverages))),
	}

	for _, c := range req.Filters.Conditions {
		values := normalizedValues(c.Values)
		if len(values) == 0 {
			continue
		}
		parts = append(parts, string(c.Dimension)+"="+strings.Join(values, ","))
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func normalizedValues(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		n := domain.NormalizeValue(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
