// Package app wires configuration into the store, calendar, cache and
// services shared by the server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/andresuchdata/salesdash/backend-go/internal/cache"
	"github.com/andresuchdata/salesdash/backend-go/internal/calendar"
	"github.com/andresuchdata/salesdash/backend-go/internal/config"
	"github.com/andresuchdata/salesdash/backend-go/internal/dataset"
	"github.com/andresuchdata/salesdash/backend-go/internal/normalize"
	"github.com/andresuchdata/salesdash/backend-go/internal/pipeline"
	"github.com/andresuchdata/salesdash/backend-go/internal/repository"
	"github.com/andresuchdata/salesdash/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/salesdash/backend-go/internal/service"
	"github.com/andresuchdata/salesdash/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

type App struct {
	Config   *config.Config
	Store    *dataset.Store
	Calendar *calendar.Calendar
	Cache    cache.PivotCache
	DB       *postgres.DB
	Runs     *repository.IngestRunRepository
	Datasets *service.DatasetService
	Pivots   *service.PivotService
}

type Option func(*options)

type options struct {
	db *postgres.DB
}

// WithDB supplies an already-open ingest log database instead of dialing
// the configured one.
func WithDB(db *postgres.DB) Option {
	return func(o *options) { o.db = db }
}

// New builds the application. Optional backends (mirror, cache, ingest log)
// degrade with a warning; the dataset store and calendar must succeed.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg}

	var storeOpts []dataset.Option
	mirror, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}
	if mirror != nil {
		storeOpts = append(storeOpts, dataset.WithMirror(mirror))
		log.Info().Str("driver", cfg.Storage.Driver).Str("bucket", cfg.Storage.Bucket).Msg("part mirror enabled")
	}

	a.Store, err = dataset.NewStore(cfg.Dataset.Root, storeOpts...)
	if err != nil {
		return nil, err
	}

	a.Calendar, err = calendar.LoadOrGenerate(cfg.Calendar.Dir, calendar.YearRange{
		Start: cfg.Calendar.StartYear,
		End:   cfg.Calendar.EndYear,
	})
	if err != nil {
		return nil, fmt.Errorf("business calendar: %w", err)
	}

	a.Cache, err = cache.NewPivotCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("pivot cache unavailable, continuing without it")
		a.Cache = cache.NewNoopPivotCache()
	}

	a.DB = o.db
	if a.DB == nil && cfg.Database.Enabled {
		a.DB, err = postgres.NewDB(cfg.Database)
		if err != nil {
			log.Warn().Err(err).Msg("ingest log database unavailable, continuing without it")
		}
	}

	var runLog pipeline.RunLog = pipeline.NoopRunLog{}
	var datasetOpts []service.DatasetOption
	if a.DB != nil {
		a.Runs = repository.NewIngestRunRepository(a.DB)
		if err := a.Runs.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		runLog = a.Runs
		datasetOpts = append(datasetOpts, service.WithRunHistory(a.Runs))
	}
	datasetOpts = append(datasetOpts, service.WithPreviewLimit(cfg.Dataset.PreviewLimit))

	worker := pipeline.NewWorker(a.Store, runLog, pipeline.Config{
		WorkerCount: cfg.Dataset.Workers,
		Normalize: normalize.Options{
			TypedPassthrough: cfg.Dataset.TypedPassthrough,
			MaxIssues:        20,
		},
	})
	a.Datasets = service.NewDatasetService(a.Store, pipeline.NewOrchestrator(worker), a.Cache, datasetOpts...)
	a.Pivots = service.NewPivotService(a.Store, a.Calendar, a.Cache)

	return a, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
