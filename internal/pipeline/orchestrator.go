package pipeline

import (
	"context"
	"fmt"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/andresuchdata/salesdash/backend-go/internal/spreadsheet"
)

// Orchestrator expands uploaded files into (file, sheet) units and hands them
// to a Worker.
type Orchestrator struct {
	worker *Worker
}

func NewOrchestrator(w *Worker) *Orchestrator {
	return &Orchestrator{worker: w}
}

// Run ingests every job. A file that cannot be opened fails on its own; the
// returned error is reserved for cancellation.
func (o *Orchestrator) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	var (
		units   []unit
		results []Result
	)
	for i := range jobs {
		job := &jobs[i]
		sheets, err := sheetsFor(job)
		if err != nil {
			results = append(results, Result{
				Partition: job.Partition,
				Filename:  job.Filename,
				Status:    domain.IngestFailed,
				Error:     err.Error(),
				err:       err,
			})
			continue
		}
		for _, sheet := range sheets {
			units = append(units, unit{job: job, sheet: sheet})
		}
	}

	offset := len(results)
	results = append(results, make([]Result, len(units))...)
	for i := range units {
		units[i].index = offset + i
	}

	if err := o.worker.process(ctx, units, results); err != nil {
		return results, err
	}
	return results, nil
}

func sheetsFor(job *Job) ([]string, error) {
	if _, err := domain.ParsePartition(string(job.Partition)); err != nil {
		return nil, err
	}
	if !spreadsheet.IsSupported(job.Filename) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, job.Filename)
	}
	names, err := spreadsheet.SheetNames(job.Filename, job.Data)
	if err != nil {
		return nil, err
	}
	// Text files have a single unnamed sheet; a sheet selection only applies
	// to workbooks.
	if len(names) == 0 {
		return []string{""}, nil
	}
	if len(job.Sheets) > 0 {
		return job.Sheets, nil
	}
	return names, nil
}
