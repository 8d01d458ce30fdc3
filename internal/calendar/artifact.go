package calendar

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

const dateLayout = "2006-01-02"

type artifactRow struct {
	Monday      string `parquet:"name=monday, type=BYTE_ARRAY, convertedtype=UTF8"`
	ISOWeek     int32  `parquet:"name=iso_week, type=INT32"`
	ISOYear     int32  `parquet:"name=iso_year, type=INT32"`
	ISOMonth    int32  `parquet:"name=iso_month, type=INT32"`
	WeekInMonth int32  `parquet:"name=week_in_month, type=INT32"`
}

// ArtifactPath is where the calendar for r lives under dir. The range is part
// of the name so a changed range regenerates.
func ArtifactPath(dir string, r YearRange) string {
	return filepath.Join(dir, fmt.Sprintf("calendar_%d_%d.parquet", r.Start, r.End))
}

// Save writes entries as a parquet file.
func Save(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create calendar dir: %w", err)
	}

	tmp := path + ".tmp"
	fw, err := local.NewLocalFileWriter(tmp)
	if err != nil {
		return fmt.Errorf("failed to create calendar file: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, new(artifactRow), 1)
	if err != nil {
		fw.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to init calendar writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, e := range entries {
		row := artifactRow{
			Monday:      e.Monday.Format(dateLayout),
			ISOWeek:     int32(e.ISOWeek),
			ISOYear:     int32(e.ISOYear),
			ISOMonth:    int32(e.ISOMonth),
			WeekInMonth: int32(e.WeekInMonth),
		}
		if err := pw.Write(row); err != nil {
			fw.Close()
			os.Remove(tmp)
			return fmt.Errorf("failed to write calendar row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize calendar: %w", err)
	}
	if err := fw.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close calendar file: %w", err)
	}
	return os.Rename(tmp, path)
}

// Load reads entries saved by Save.
func Load(path string) ([]Entry, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open calendar: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(artifactRow), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to init calendar reader: %w", err)
	}
	defer pr.ReadStop()

	rows := make([]artifactRow, int(pr.GetNumRows()))
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("failed to read calendar: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		monday, err := time.Parse(dateLayout, row.Monday)
		if err != nil {
			return nil, fmt.Errorf("bad calendar monday %q: %w", row.Monday, err)
		}
		entries = append(entries, Entry{
			Monday:      monday,
			ISOWeek:     int(row.ISOWeek),
			ISOYear:     int(row.ISOYear),
			ISOMonth:    int(row.ISOMonth),
			WeekInMonth: int(row.WeekInMonth),
		})
	}
	return entries, nil
}

// LoadOrGenerate returns the calendar for r, reading the artifact in dir when
// present and writing it otherwise. An empty dir skips persistence.
func LoadOrGenerate(dir string, r YearRange) (*Calendar, error) {
	if dir == "" {
		return New(r)
	}

	path := ArtifactPath(dir, r)
	if _, err := os.Stat(path); err == nil {
		entries, err := Load(path)
		if err == nil {
			return FromEntries(r, entries)
		}
		log.Warn().Err(err).Str("path", path).Msg("calendar: artifact unreadable, regenerating")
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat calendar artifact: %w", err)
	}

	entries, err := Generate(r)
	if err != nil {
		return nil, err
	}
	if err := Save(path, entries); err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Int("weeks", len(entries)).Msg("calendar: artifact generated")
	return FromEntries(r, entries)
}
