package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/andresuchdata/salesdash/backend-go/internal/repository/postgres"
	"github.com/jmoiron/sqlx"
)

const ingestRunsSchema = `
CREATE TABLE IF NOT EXISTS ingest_runs (
	id            BIGSERIAL PRIMARY KEY,
	partition     TEXT        NOT NULL,
	source_file   TEXT        NOT NULL,
	source_sheet  TEXT        NOT NULL DEFAULT '',
	part_id       TEXT        NOT NULL DEFAULT '',
	status        TEXT        NOT NULL,
	row_count     INTEGER     NOT NULL DEFAULT 0,
	blank_rows    INTEGER     NOT NULL DEFAULT 0,
	issues        INTEGER     NOT NULL DEFAULT 0,
	error_message TEXT        NOT NULL DEFAULT '',
	started_at    TIMESTAMPTZ NOT NULL,
	completed_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_ingest_runs_partition ON ingest_runs (partition, started_at DESC);
`

// IngestRunRepository persists the ingest history.
type IngestRunRepository struct {
	db *postgres.DB
}

func NewIngestRunRepository(db *postgres.DB) *IngestRunRepository {
	return &IngestRunRepository{db: db}
}

// EnsureSchema creates the ingest_runs table if needed.
func (r *IngestRunRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, ingestRunsSchema); err != nil {
		return fmt.Errorf("failed to create ingest_runs: %w", err)
	}
	return nil
}

func (r *IngestRunRepository) CreateRun(ctx context.Context, run *domain.IngestRun) error {
	query := `
		INSERT INTO ingest_runs (partition, source_file, source_sheet, status, started_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	err := r.db.QueryRowxContext(ctx, query,
		run.Partition, run.SourceFile, run.SourceSheet, run.Status, run.StartedAt,
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("failed to create ingest run: %w", err)
	}
	return nil
}

// CompleteRun stores the final state of run.
func (r *IngestRunRepository) CompleteRun(ctx context.Context, run *domain.IngestRun) error {
	query := `
		UPDATE ingest_runs
		SET status = :status, part_id = :part_id, row_count = :row_count, blank_rows = :blank_rows,
		    issues = :issues, error_message = :error_message, completed_at = :completed_at
		WHERE id = :id
	`
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, run); err != nil {
			return fmt.Errorf("failed to complete ingest run %d: %w", run.ID, err)
		}
		return nil
	})
}

// ListRuns returns the most recent runs of a partition, newest first.
func (r *IngestRunRepository) ListRuns(ctx context.Context, p domain.Partition, limit int) ([]domain.IngestRun, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, partition, source_file, source_sheet, part_id, status, row_count,
		       blank_rows, issues, error_message, started_at, completed_at
		FROM ingest_runs
		WHERE partition = $1
		ORDER BY started_at DESC
		LIMIT $2
	`
	var runs []domain.IngestRun
	if err := r.db.SelectContext(ctx, &runs, query, p, limit); err != nil {
		return nil, fmt.Errorf("failed to list ingest runs: %w", err)
	}
	return runs, nil
}

// DeleteRuns drops the history of a partition, used on reset.
func (r *IngestRunRepository) DeleteRuns(ctx context.Context, p domain.Partition) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM ingest_runs WHERE partition = $1`, p); err != nil {
		return fmt.Errorf("failed to delete ingest runs: %w", err)
	}
	return nil
}
