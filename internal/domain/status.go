package domain

import (
	"strings"
	"time"
)

// IngestStatus is the state of one ingest run.
type IngestStatus string

const (
	IngestQueued     IngestStatus = "queued"
	IngestProcessing IngestStatus = "processing"
	IngestCompleted  IngestStatus = "completed"
	IngestFailed     IngestStatus = "failed"
)

var ingestStatusLabels = map[IngestStatus]string{
	IngestQueued:     "Queued",
	IngestProcessing: "Processing",
	IngestCompleted:  "Completed",
	IngestFailed:     "Failed",
}

// IngestStatusLabel returns a human-readable label for a status.
func IngestStatusLabel(status IngestStatus) string {
	if label, ok := ingestStatusLabels[status]; ok {
		return label
	}

	return "Unknown"
}

// ParseIngestStatus returns the status for a given label (case-insensitive).
func ParseIngestStatus(label string) (IngestStatus, bool) {
	s := IngestStatus(strings.ToLower(strings.TrimSpace(label)))
	_, ok := ingestStatusLabels[s]

	return s, ok
}

// IngestRun records one upload: a single file or sheet appended to a
// partition.
type IngestRun struct {
	ID          int64        `db:"id" json:"id"`
	Partition   Partition    `db:"partition" json:"partition"`
	SourceFile  string       `db:"source_file" json:"source_file"`
	SourceSheet string       `db:"source_sheet" json:"source_sheet"`
	PartID      string       `db:"part_id" json:"part_id"`
	Status      IngestStatus `db:"status" json:"status"`
	Rows        int          `db:"row_count" json:"rows"`
	BlankRows   int          `db:"blank_rows" json:"blank_rows"`
	Issues      int          `db:"issues" json:"issues"`
	Error       string       `db:"error_message" json:"error,omitempty"`
	StartedAt   time.Time    `db:"started_at" json:"started_at"`
	CompletedAt *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
}
