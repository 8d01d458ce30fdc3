package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/andresuchdata/salesdash/backend-go/internal/normalize"
	"github.com/andresuchdata/salesdash/backend-go/internal/spreadsheet"
	"github.com/rs/zerolog/log"
)

// Appender is the part of the dataset store the worker writes through.
type Appender interface {
	Append(ctx context.Context, p domain.Partition, batch []domain.Record) (domain.PartID, error)
}

// Worker reads, normalizes and appends units with a bounded pool.
type Worker struct {
	store  Appender
	runs   RunLog
	config Config
	plain  *normalize.Normalizer
	typed  *normalize.Normalizer
}

// NewWorker creates a new ingest worker
func NewWorker(store Appender, runs RunLog, config Config) *Worker {
	if runs == nil {
		runs = NoopRunLog{}
	}
	typedOpts := config.Normalize
	typedOpts.TypedPassthrough = true
	return &Worker{
		store:  store,
		runs:   runs,
		config: config,
		plain:  normalize.New(config.Normalize),
		typed:  normalize.New(typedOpts),
	}
}

func (w *Worker) normalizerFor(job *Job) *normalize.Normalizer {
	if job.Typed || w.config.Normalize.TypedPassthrough {
		return w.typed
	}
	return w.plain
}

// process fills results[u.index] for every unit.
func (w *Worker) process(ctx context.Context, units []unit, results []Result) error {
	workerCount := w.config.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}

	jobChan := make(chan unit, len(units))
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for u := range jobChan {
				res := w.processUnit(ctx, u)
				if res.err != nil {
					log.Warn().Err(res.err).
						Int("worker", workerID).
						Str("file", u.job.Filename).
						Str("sheet", u.sheet).
						Msg("ingest failed")
				}
				results[u.index] = res
			}
		}(i)
	}

	var cancelled error
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		jobChan <- u
	}
	close(jobChan)
	wg.Wait()

	if cancelled != nil {
		for _, u := range units {
			if results[u.index].Status == "" {
				results[u.index] = failed(u, cancelled)
			}
		}
		return cancelled
	}
	return nil
}

func failed(u unit, err error) Result {
	return Result{
		Partition: u.job.Partition,
		Filename:  u.job.Filename,
		Sheet:     u.sheet,
		Status:    domain.IngestFailed,
		Error:     err.Error(),
		err:       err,
	}
}

func (w *Worker) processUnit(ctx context.Context, u unit) Result {
	start := time.Now()
	run := &domain.IngestRun{
		Partition:   u.job.Partition,
		SourceFile:  u.job.Filename,
		SourceSheet: u.sheet,
		Status:      domain.IngestProcessing,
		StartedAt:   start.UTC(),
	}
	if err := w.runs.CreateRun(ctx, run); err != nil {
		log.Warn().Err(err).Str("file", u.job.Filename).Msg("could not record ingest run")
	}

	res := w.ingest(ctx, u)
	res.Duration = time.Since(start)

	done := time.Now().UTC()
	run.Status = res.Status
	run.PartID = string(res.PartID)
	run.Rows = res.Rows
	run.BlankRows = res.BlankRows
	run.Issues = res.Issues
	run.Error = res.Error
	run.CompletedAt = &done
	if run.ID != 0 {
		if err := w.runs.CompleteRun(ctx, run); err != nil {
			log.Warn().Err(err).Int64("run", run.ID).Msg("could not complete ingest run")
		}
	}

	if res.Status == domain.IngestCompleted {
		log.Info().
			Str("partition", string(res.Partition)).
			Str("file", res.Filename).
			Str("sheet", res.Sheet).
			Str("part", string(res.PartID)).
			Int("rows", res.Rows).
			Int("issues", res.Issues).
			Dur("took", res.Duration).
			Msg("ingested")
	}
	return res
}

func (w *Worker) ingest(ctx context.Context, u unit) Result {
	raw, err := spreadsheet.Read(u.job.Filename, u.job.Data, u.sheet)
	if err != nil {
		return failed(u, err)
	}

	norm, err := w.normalizerFor(u.job).Normalize(raw, normalize.Metadata{
		Filename: u.job.Filename,
		Sheet:    u.sheet,
		Kind:     u.job.Partition,
	})
	if err != nil {
		return failed(u, err)
	}

	res := Result{
		Partition: u.job.Partition,
		Filename:  u.job.Filename,
		Sheet:     u.sheet,
		BlankRows: norm.BlankRows,
		Issues:    norm.IssueCount,
	}
	for _, issue := range norm.Issues {
		res.Samples = append(res.Samples, issue.Error())
	}

	id, err := w.store.Append(ctx, u.job.Partition, norm.Records)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyBatch) {
			err = fmt.Errorf("%s has no data rows: %w", sourceLabel(u), err)
		}
		f := failed(u, err)
		f.BlankRows, f.Issues, f.Samples = res.BlankRows, res.Issues, res.Samples
		return f
	}

	res.PartID = id
	res.Rows = len(norm.Records)
	res.Status = domain.IngestCompleted
	return res
}

func sourceLabel(u unit) string {
	if u.sheet == "" {
		return u.job.Filename
	}
	return u.job.Filename + "[" + u.sheet + "]"
}
