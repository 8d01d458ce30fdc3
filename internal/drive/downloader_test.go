package drive

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	files      []*File
	content    map[string]string
	downloaded []string
	failOn     string
}

func (f *fakeSource) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	return f.files, nil
}

func (f *fakeSource) DownloadFile(ctx context.Context, file *File, w io.Writer) error {
	if file.ID == f.failOn {
		return errors.New("boom")
	}
	f.downloaded = append(f.downloaded, file.ID)
	_, err := io.WriteString(w, f.content[file.ID])
	return err
}

func TestJobsKeepsSpreadsheetsOnly(t *testing.T) {
	src := &fakeSource{
		files: []*File{
			{ID: "1", Name: "jan.csv", MimeType: "text/csv"},
			{ID: "2", Name: "notes.pdf", MimeType: "application/pdf"},
			{ID: "3", Name: "archive", MimeType: folderMimeType},
			{ID: "4", Name: "targets", MimeType: googleSheetMimeType},
			{ID: "5", Name: "old.XLS", MimeType: "application/vnd.ms-excel"},
		},
		content: map[string]string{"1": "SKU,Value\n", "4": "xlsx", "5": "xls"},
	}

	jobs, err := NewDownloader(src).Jobs(context.Background(), "folder", domain.PartitionTarget)
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	assert.Equal(t, "jan.csv", jobs[0].Filename)
	assert.Equal(t, []byte("SKU,Value\n"), jobs[0].Data)
	assert.Equal(t, "targets.xlsx", jobs[1].Filename)
	assert.Equal(t, "old.XLS", jobs[2].Filename)
	for _, j := range jobs {
		assert.Equal(t, domain.PartitionTarget, j.Partition)
	}
	assert.Equal(t, []string{"1", "4", "5"}, src.downloaded)
}

func TestJobsStopsOnDownloadError(t *testing.T) {
	src := &fakeSource{
		files:  []*File{{ID: "1", Name: "a.csv"}},
		failOn: "1",
	}
	_, err := NewDownloader(src).Jobs(context.Background(), "folder", domain.PartitionSales)
	assert.ErrorContains(t, err, "a.csv")
}
