package pipeline

import (
	"time"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/andresuchdata/salesdash/backend-go/internal/normalize"
)

// Job is one uploaded file bound for a partition. Empty Sheets means every
// sheet of a workbook. Typed asks for typed passthrough even when the worker
// does not default to it.
type Job struct {
	Partition domain.Partition
	Filename  string
	Data      []byte
	Sheets    []string
	Typed     bool
}

// unit is a single (file, sheet) pair; each becomes at most one part.
type unit struct {
	index int
	job   *Job
	sheet string
}

// Result reports what happened to one (file, sheet).
type Result struct {
	Partition domain.Partition    `json:"partition"`
	Filename  string              `json:"filename"`
	Sheet     string              `json:"sheet,omitempty"`
	PartID    domain.PartID       `json:"part_id,omitempty"`
	Status    domain.IngestStatus `json:"status"`
	Rows      int                 `json:"rows"`
	BlankRows int                 `json:"blank_rows"`
	Issues    int                 `json:"issues"`
	Samples   []string            `json:"issue_samples,omitempty"`
	Error     string              `json:"error,omitempty"`
	Duration  time.Duration       `json:"duration_ns"`

	err error
}

// Err is the failure behind a failed result.
func (r Result) Err() error {
	return r.err
}

// Config holds configuration for a runner
type Config struct {
	WorkerCount int
	Normalize   normalize.Options
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		WorkerCount: 4,
		Normalize:   normalize.Options{MaxIssues: 20},
	}
}

// Failed counts failed results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Status == domain.IngestFailed {
			n++
		}
	}
	return n
}
