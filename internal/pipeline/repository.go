package pipeline

import (
	"context"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
)

// RunLog records ingest runs. The server uses the Postgres repository when a
// database is configured and NoopRunLog otherwise.
type RunLog interface {
	CreateRun(ctx context.Context, run *domain.IngestRun) error
	CompleteRun(ctx context.Context, run *domain.IngestRun) error
}

type NoopRunLog struct{}

func (NoopRunLog) CreateRun(context.Context, *domain.IngestRun) error   { return nil }
func (NoopRunLog) CompleteRun(context.Context, *domain.IngestRun) error { return nil }
