package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/andresuchdata/salesdash/backend-go/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryMirror struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryMirror() *memoryMirror {
	return &memoryMirror{objects: make(map[string][]byte)}
}

func (m *memoryMirror) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.ObjectInfo
	for k, v := range m.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, storage.ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (m *memoryMirror) DownloadObject(ctx context.Context, key, destPath string) error {
	m.mu.Lock()
	data, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return os.ErrNotExist
	}
	return os.WriteFile(destPath, data, 0o644)
}

func (m *memoryMirror) UploadObject(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *memoryMirror) DeleteObject(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func salesBatch(skus ...string) []domain.Record {
	out := make([]domain.Record, 0, len(skus))
	for _, sku := range skus {
		out = append(out, domain.Record{
			SKU:        sku,
			Region:     "Jawa",
			Value:      "100",
			Date:       "2025-12-01",
			SourceFile: "upload.xlsx",
			Kind:       domain.PartitionSales,
		})
	}
	return out
}

func skusOf(records []domain.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.SKU)
	}
	sort.Strings(out)
	return out
}

func TestAppendThenScanKeepsEveryPriorRecord(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	first, err := store.Append(ctx, domain.PartitionSales, salesBatch("A", "B"))
	require.NoError(t, err)

	before, err := store.Scan(ctx, domain.PartitionSales)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, skusOf(before))

	second, err := store.Append(ctx, domain.PartitionSales, salesBatch("C"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	after, err := store.Scan(ctx, domain.PartitionSales)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, skusOf(after))
	for _, r := range before {
		assert.Contains(t, after, r)
	}

	parts, err := store.Parts(domain.PartitionSales)
	require.NoError(t, err)
	assert.Len(t, parts, 2)
}

func TestAppendPreservesTypedAndAttributes(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	value := "1250.5"
	year, month := 2025, 12
	rec := domain.Record{
		SKU:         "ABC",
		Value:       "1,250.50",
		Year:        "2025",
		Month:       "12",
		Typed:       &domain.TypedFields{Value: &value, Year: &year, Month: &month},
		Attributes:  map[string]string{"Keterangan": "promo"},
		SourceFile:  "target.csv",
		SourceSheet: "",
		Kind:        domain.PartitionTarget,
	}

	_, err = store.Append(ctx, domain.PartitionTarget, []domain.Record{rec})
	require.NoError(t, err)

	got, err := store.Scan(ctx, domain.PartitionTarget)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0])
}

func TestAppendRejectsMixedPartitions(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	batch := salesBatch("A")
	batch[0].Kind = domain.PartitionTarget
	_, err = store.Append(context.Background(), domain.PartitionSales, batch)
	assert.ErrorIs(t, err, domain.ErrPartitionMismatch)

	_, err = store.Append(context.Background(), domain.PartitionSales, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)

	_, err = store.Append(context.Background(), "stock", salesBatch("A"))
	assert.ErrorIs(t, err, domain.ErrUnknownPartition)
}

func TestAppendFailureLeavesNoPart(t *testing.T) {
	root := t.TempDir()
	store, err := NewStore(root)
	require.NoError(t, err)

	// Replacing the partition directory with a file makes the write fail.
	dir := filepath.Join(root, string(domain.PartitionSales))
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0o644))

	_, err = store.Append(context.Background(), domain.PartitionSales, salesBatch("A"))
	var storageErr *domain.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, domain.PartitionSales, storageErr.Partition)
}

func TestConcurrentAppendsNeverCollide(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Append(ctx, domain.PartitionSales, salesBatch("X"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	parts, err := store.Parts(domain.PartitionSales)
	require.NoError(t, err)
	assert.Len(t, parts, 8)

	records, err := store.Scan(ctx, domain.PartitionSales)
	require.NoError(t, err)
	assert.Len(t, records, 8)
}

func TestResetClearsOnlyThatPartition(t *testing.T) {
	ctx := context.Background()
	mirror := newMemoryMirror()
	store, err := NewStore(t.TempDir(), WithMirror(mirror))
	require.NoError(t, err)

	_, err = store.Append(ctx, domain.PartitionSales, salesBatch("A"))
	require.NoError(t, err)
	target := salesBatch("A")
	target[0].Kind = domain.PartitionTarget
	_, err = store.Append(ctx, domain.PartitionTarget, target)
	require.NoError(t, err)
	assert.Len(t, mirror.objects, 2)

	require.NoError(t, store.Reset(ctx, domain.PartitionSales))

	parts, err := store.Parts(domain.PartitionSales)
	require.NoError(t, err)
	assert.Empty(t, parts)

	targets, err := store.Scan(ctx, domain.PartitionTarget)
	require.NoError(t, err)
	assert.Len(t, targets, 1)
	assert.Len(t, mirror.objects, 1)
}

func TestRestoreFetchesMissingParts(t *testing.T) {
	ctx := context.Background()
	mirror := newMemoryMirror()

	origin, err := NewStore(t.TempDir(), WithMirror(mirror))
	require.NoError(t, err)
	_, err = origin.Append(ctx, domain.PartitionSales, salesBatch("A", "B"))
	require.NoError(t, err)

	replica, err := NewStore(t.TempDir(), WithMirror(mirror))
	require.NoError(t, err)
	n, err := replica.Restore(ctx, domain.PartitionSales)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	records, err := replica.Scan(ctx, domain.PartitionSales)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, skusOf(records))

	n, err = replica.Restore(ctx, domain.PartitionSales)
	require.NoError(t, err)
	assert.Zero(t, n)
}
