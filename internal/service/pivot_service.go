package service

import (
	"context"
	"io"

	"github.com/andresuchdata/salesdash/backend-go/internal/cache"
	"github.com/andresuchdata/salesdash/backend-go/internal/calendar"
	"github.com/andresuchdata/salesdash/backend-go/internal/dataset"
	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/andresuchdata/salesdash/backend-go/internal/engine"
	"github.com/andresuchdata/salesdash/backend-go/internal/export"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type PivotService struct {
	store *dataset.Store
	cal   *calendar.Calendar
	cache cache.PivotCache
}

func NewPivotService(store *dataset.Store, cal *calendar.Calendar, pc cache.PivotCache) *PivotService {
	if pc == nil {
		pc = cache.NewNoopPivotCache()
	}
	return &PivotService{store: store, cal: cal, cache: pc}
}

// Aggregate builds the pivot for req. A sales partition without parts is a
// NoDataError; an empty table means nothing matched the filters.
func (s *PivotService) Aggregate(ctx context.Context, req domain.PivotRequest) (*domain.PivotTable, error) {
	if err := req.Period.Validate(); err != nil {
		return nil, err
	}
	parts, err := s.store.Parts(domain.PartitionSales)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, &domain.NoDataError{Partition: domain.PartitionSales}
	}

	if cached, ok, err := s.cache.Get(ctx, req); err != nil {
		log.Warn().Err(err).Msg("pivot cache read failed")
	} else if ok {
		return cached, nil
	}

	var in engine.Input
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := s.store.Scan(gctx, domain.PartitionSales)
		in.Sales = records
		return err
	})
	g.Go(func() error {
		records, err := s.store.Scan(gctx, domain.PartitionTarget)
		in.Targets = records
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table, err := engine.Aggregate(in, s.cal, req)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, req, table); err != nil {
		log.Warn().Err(err).Msg("pivot cache write failed")
	}
	return table, nil
}

// Export writes the pivot for req with monetary values rounded.
func (s *PivotService) Export(ctx context.Context, req domain.PivotRequest, format export.Format, w io.Writer) error {
	table, err := s.Aggregate(ctx, req)
	if err != nil {
		return err
	}
	return export.Write(w, format, export.FromPivot(table))
}

// FilterOptions lists the distinct values of every dimension in sales.
func (s *PivotService) FilterOptions(ctx context.Context) (map[domain.Dimension][]string, error) {
	records, err := s.store.Scan(ctx, domain.PartitionSales)
	if err != nil {
		return nil, err
	}
	return engine.FilterOptions(records), nil
}

// Calendar returns the business weeks whose month falls in year.
func (s *PivotService) Calendar(year int) ([]calendar.Entry, error) {
	return s.cal.Year(year)
}

// CalendarRange is the year span the service can aggregate.
func (s *PivotService) CalendarRange() calendar.YearRange {
	return s.cal.Range()
}
