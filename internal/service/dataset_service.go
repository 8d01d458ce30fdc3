package service

import (
	"context"
	"fmt"
	"io"

	"github.com/andresuchdata/salesdash/backend-go/internal/cache"
	"github.com/andresuchdata/salesdash/backend-go/internal/dataset"
	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/andresuchdata/salesdash/backend-go/internal/engine"
	"github.com/andresuchdata/salesdash/backend-go/internal/export"
	"github.com/andresuchdata/salesdash/backend-go/internal/pipeline"
	"github.com/andresuchdata/salesdash/backend-go/internal/spreadsheet"
	"github.com/rs/zerolog/log"
)

const DefaultPreviewLimit = 1000

// RunHistory is the queryable side of the ingest log.
type RunHistory interface {
	ListRuns(ctx context.Context, p domain.Partition, limit int) ([]domain.IngestRun, error)
	DeleteRuns(ctx context.Context, p domain.Partition) error
}

type DatasetService struct {
	store        *dataset.Store
	ingest       *pipeline.Orchestrator
	cache        cache.PivotCache
	history      RunHistory
	previewLimit int
}

type DatasetOption func(*DatasetService)

// WithRunHistory exposes and clears the ingest log alongside the data.
func WithRunHistory(h RunHistory) DatasetOption {
	return func(s *DatasetService) { s.history = h }
}

// WithPreviewLimit sets the default preview size.
func WithPreviewLimit(n int) DatasetOption {
	return func(s *DatasetService) {
		if n > 0 {
			s.previewLimit = n
		}
	}
}

func NewDatasetService(store *dataset.Store, ingest *pipeline.Orchestrator, pc cache.PivotCache, opts ...DatasetOption) *DatasetService {
	if pc == nil {
		pc = cache.NewNoopPivotCache()
	}
	s := &DatasetService{
		store:        store,
		ingest:       ingest,
		cache:        pc,
		previewLimit: DefaultPreviewLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest reads, normalizes and appends every job. Each (file, sheet) succeeds
// or fails on its own; see pipeline.Result.
func (s *DatasetService) Ingest(ctx context.Context, jobs []pipeline.Job) ([]pipeline.Result, error) {
	results, err := s.ingest.Run(ctx, jobs)

	appended := len(results) - pipeline.Failed(results)
	if appended > 0 {
		s.invalidate(ctx)
	}
	log.Info().
		Int("files", len(jobs)).
		Int("parts", appended).
		Int("failed", pipeline.Failed(results)).
		Msg("ingest finished")

	return results, err
}

func (s *DatasetService) Parts(p domain.Partition) ([]domain.PartInfo, error) {
	return s.store.Parts(p)
}

// Preview returns up to limit stored records, in part order.
func (s *DatasetService) Preview(ctx context.Context, p domain.Partition, limit int) ([]domain.Record, error) {
	if limit <= 0 {
		limit = s.previewLimit
	}
	records, err := s.store.Scan(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Describe lists the stored columns of a partition.
func (s *DatasetService) Describe(p domain.Partition) ([]domain.ColumnInfo, error) {
	if _, err := domain.ParsePartition(string(p)); err != nil {
		return nil, err
	}
	return dataset.Columns, nil
}

func (s *DatasetService) Summary(ctx context.Context, p domain.Partition) (domain.DatasetSummary, error) {
	parts, err := s.store.Parts(p)
	if err != nil {
		return domain.DatasetSummary{}, err
	}
	records, err := s.store.Scan(ctx, p)
	if err != nil {
		return domain.DatasetSummary{}, err
	}
	return engine.Summarize(p, len(parts), records), nil
}

// Export writes every stored record of p to w.
func (s *DatasetService) Export(ctx context.Context, p domain.Partition, format export.Format, w io.Writer) error {
	records, err := s.store.Scan(ctx, p)
	if err != nil {
		return err
	}
	table, err := export.FromRecords(records)
	if err != nil {
		return err
	}
	return export.Write(w, format, table)
}

// Reset deletes every part of p.
func (s *DatasetService) Reset(ctx context.Context, p domain.Partition) error {
	if err := s.store.Reset(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx)

	if s.history != nil {
		if err := s.history.DeleteRuns(ctx, p); err != nil {
			log.Warn().Err(err).Str("partition", string(p)).Msg("could not clear ingest history")
		}
	}
	return nil
}

// Restore pulls mirrored parts that are missing locally.
func (s *DatasetService) Restore(ctx context.Context, p domain.Partition) (int, error) {
	n, err := s.store.Restore(ctx, p)
	if n > 0 {
		s.invalidate(ctx)
	}
	return n, err
}

// Runs lists recent ingest runs; empty when no ingest log is configured.
func (s *DatasetService) Runs(ctx context.Context, p domain.Partition, limit int) ([]domain.IngestRun, error) {
	if _, err := domain.ParsePartition(string(p)); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.IngestRun{}, nil
	}
	return s.history.ListRuns(ctx, p, limit)
}

// SheetNames lists the sheets of an uploaded workbook.
func (s *DatasetService) SheetNames(filename string, data []byte) ([]string, error) {
	if !spreadsheet.IsSupported(filename) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filename)
	}
	names, err := spreadsheet.SheetNames(filename, data)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (s *DatasetService) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("could not invalidate pivot cache")
	}
}
