package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/andresuchdata/salesdash/backend-go/internal/pipeline"
	"github.com/andresuchdata/salesdash/backend-go/internal/spreadsheet"
	"github.com/rs/zerolog/log"
)

// Source is the part of the Drive API the downloader needs.
type Source interface {
	ListFiles(ctx context.Context, folderID string) ([]*File, error)
	DownloadFile(ctx context.Context, f *File, w io.Writer) error
}

// Downloader turns a Drive folder into ingest jobs.
type Downloader struct {
	source Source
}

func NewDownloader(s Source) *Downloader {
	return &Downloader{source: s}
}

// Jobs downloads every spreadsheet in folderID into memory, one job per file.
// Other files are skipped.
func (d *Downloader) Jobs(ctx context.Context, folderID string, p domain.Partition) ([]pipeline.Job, error) {
	files, err := d.source.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var jobs []pipeline.Job
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name, ok := localName(f)
		if !ok {
			log.Debug().Str("file", f.Name).Str("mime", f.MimeType).Msg("skipping non-spreadsheet drive file")
			continue
		}

		var buf bytes.Buffer
		if err := d.source.DownloadFile(ctx, f, &buf); err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", f.Name, err)
		}
		jobs = append(jobs, pipeline.Job{
			Partition: p,
			Filename:  name,
			Data:      buf.Bytes(),
		})
	}

	return jobs, nil
}

func localName(f *File) (string, bool) {
	switch f.MimeType {
	case folderMimeType:
		return "", false
	case googleSheetMimeType:
		return strings.TrimSuffix(f.Name, ".xlsx") + ".xlsx", true
	}
	return f.Name, spreadsheet.IsSupported(f.Name)
}
