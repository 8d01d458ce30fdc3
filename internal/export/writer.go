package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// Format is a download format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ParseFormat defaults to CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatParquet:
		return FormatParquet, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedExport, s)
}

func (f Format) ContentType() string {
	if f == FormatParquet {
		return "application/vnd.apache.parquet"
	}
	return "text/csv"
}

func (f Format) Extension() string {
	return "." + string(f)
}

// Write serializes t in the given format.
func Write(w io.Writer, f Format, t Table) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatParquet:
		return WriteParquet(w, t)
	}
	return fmt.Errorf("%w: %q", domain.ErrUnsupportedExport, f)
}

// WriteCSV writes a header row then every row; nulls become empty cells.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Title
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) && row[i] != nil {
				record[i] = *row[i]
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteParquet streams t as a parquet file. Numeric columns are DOUBLE, the
// rest UTF8; every column is nullable.
func WriteParquet(w io.Writer, t Table) error {
	md := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if c.Numeric {
			md[i] = fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", c.Key)
		} else {
			md[i] = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", c.Key)
		}
	}

	fw := writerfile.NewWriterFile(w)
	pw, err := writer.NewCSVWriter(md, fw, 1)
	if err != nil {
		return fmt.Errorf("init parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, row := range t.Rows {
		cells := make([]*string, len(t.Columns))
		copy(cells, row)
		if err := pw.WriteString(cells); err != nil {
			return fmt.Errorf("write parquet row %d: %w", i, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize parquet: %w", err)
	}
	return nil
}
