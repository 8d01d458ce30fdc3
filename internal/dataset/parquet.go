package dataset

import (
	"encoding/json"
	"fmt"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// partRow is the on-disk layout of a record. Every uploaded cell is text; the
// typed_* columns are only set for batches normalized with typed passthrough.
type partRow struct {
	SKU         string  `parquet:"name=sku, type=BYTE_ARRAY, convertedtype=UTF8"`
	Region      string  `parquet:"name=region, type=BYTE_ARRAY, convertedtype=UTF8"`
	Area        string  `parquet:"name=area, type=BYTE_ARRAY, convertedtype=UTF8"`
	Distributor string  `parquet:"name=distributor, type=BYTE_ARRAY, convertedtype=UTF8"`
	SalesOffice string  `parquet:"name=sales_office, type=BYTE_ARRAY, convertedtype=UTF8"`
	Group       string  `parquet:"name=group, type=BYTE_ARRAY, convertedtype=UTF8"`
	Tipe        string  `parquet:"name=tipe, type=BYTE_ARRAY, convertedtype=UTF8"`
	Value       string  `parquet:"name=value, type=BYTE_ARRAY, convertedtype=UTF8"`
	Date        string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Year        string  `parquet:"name=year, type=BYTE_ARRAY, convertedtype=UTF8"`
	Month       string  `parquet:"name=month, type=BYTE_ARRAY, convertedtype=UTF8"`
	Week        string  `parquet:"name=week, type=BYTE_ARRAY, convertedtype=UTF8"`
	Typed       bool    `parquet:"name=typed, type=BOOLEAN"`
	TypedValue  *string `parquet:"name=typed_value, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	TypedYear   *int32  `parquet:"name=typed_year, type=INT32, repetitiontype=OPTIONAL"`
	TypedMonth  *int32  `parquet:"name=typed_month, type=INT32, repetitiontype=OPTIONAL"`
	TypedWeek   *int32  `parquet:"name=typed_week, type=INT32, repetitiontype=OPTIONAL"`
	Attributes  string  `parquet:"name=attributes, type=BYTE_ARRAY, convertedtype=UTF8"`
	SourceFile  string  `parquet:"name=source_file, type=BYTE_ARRAY, convertedtype=UTF8"`
	SourceSheet string  `parquet:"name=source_sheet, type=BYTE_ARRAY, convertedtype=UTF8"`
	DatasetKind string  `parquet:"name=dataset_kind, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Columns describes partRow for schema listings.
var Columns = []domain.ColumnInfo{
	{Name: "sku", Type: "VARCHAR"},
	{Name: "region", Type: "VARCHAR"},
	{Name: "area", Type: "VARCHAR"},
	{Name: "distributor", Type: "VARCHAR"},
	{Name: "sales_office", Type: "VARCHAR"},
	{Name: "group", Type: "VARCHAR"},
	{Name: "tipe", Type: "VARCHAR"},
	{Name: "value", Type: "VARCHAR"},
	{Name: "date", Type: "VARCHAR"},
	{Name: "year", Type: "VARCHAR"},
	{Name: "month", Type: "VARCHAR"},
	{Name: "week", Type: "VARCHAR"},
	{Name: "typed", Type: "BOOLEAN"},
	{Name: "typed_value", Type: "VARCHAR", Nullable: true},
	{Name: "typed_year", Type: "INTEGER", Nullable: true},
	{Name: "typed_month", Type: "INTEGER", Nullable: true},
	{Name: "typed_week", Type: "INTEGER", Nullable: true},
	{Name: "attributes", Type: "JSON"},
	{Name: "source_file", Type: "VARCHAR"},
	{Name: "source_sheet", Type: "VARCHAR"},
	{Name: "dataset_kind", Type: "VARCHAR"},
}

func toRow(r *domain.Record) (partRow, error) {
	row := partRow{
		SKU:         r.SKU,
		Region:      r.Region,
		Area:        r.Area,
		Distributor: r.Distributor,
		SalesOffice: r.SalesOffice,
		Group:       r.Group,
		Tipe:        r.Tipe,
		Value:       r.Value,
		Date:        r.Date,
		Year:        r.Year,
		Month:       r.Month,
		Week:        r.Week,
		SourceFile:  r.SourceFile,
		SourceSheet: r.SourceSheet,
		DatasetKind: string(r.Kind),
	}
	if r.Typed != nil {
		row.Typed = true
		row.TypedValue = r.Typed.Value
		row.TypedYear = toInt32(r.Typed.Year)
		row.TypedMonth = toInt32(r.Typed.Month)
		row.TypedWeek = toInt32(r.Typed.Week)
	}
	if len(r.Attributes) > 0 {
		b, err := json.Marshal(r.Attributes)
		if err != nil {
			return partRow{}, fmt.Errorf("encode attributes: %w", err)
		}
		row.Attributes = string(b)
	}
	return row, nil
}

func fromRow(row *partRow) (domain.Record, error) {
	rec := domain.Record{
		SKU:         row.SKU,
		Region:      row.Region,
		Area:        row.Area,
		Distributor: row.Distributor,
		SalesOffice: row.SalesOffice,
		Group:       row.Group,
		Tipe:        row.Tipe,
		Value:       row.Value,
		Date:        row.Date,
		Year:        row.Year,
		Month:       row.Month,
		Week:        row.Week,
		SourceFile:  row.SourceFile,
		SourceSheet: row.SourceSheet,
		Kind:        domain.Partition(row.DatasetKind),
	}
	if row.Typed {
		rec.Typed = &domain.TypedFields{
			Value: row.TypedValue,
			Year:  fromInt32(row.TypedYear),
			Month: fromInt32(row.TypedMonth),
			Week:  fromInt32(row.TypedWeek),
		}
	}
	if row.Attributes != "" {
		if err := json.Unmarshal([]byte(row.Attributes), &rec.Attributes); err != nil {
			return domain.Record{}, fmt.Errorf("decode attributes: %w", err)
		}
	}
	return rec, nil
}

func toInt32(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}

func fromInt32(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

func writePart(path string, records []domain.Record) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create part file: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, new(partRow), 4)
	if err != nil {
		fw.Close()
		return fmt.Errorf("init parquet writer: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range records {
		row, err := toRow(&records[i])
		if err != nil {
			fw.Close()
			return err
		}
		if err := pw.Write(row); err != nil {
			fw.Close()
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("finalize parquet: %w", err)
	}
	return fw.Close()
}

func readPart(path string) ([]domain.Record, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open part file: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(partRow), 4)
	if err != nil {
		return nil, fmt.Errorf("init parquet reader: %w", err)
	}
	defer pr.ReadStop()

	rows := make([]partRow, int(pr.GetNumRows()))
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	records := make([]domain.Record, 0, len(rows))
	for i := range rows {
		rec, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
