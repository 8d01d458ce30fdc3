package normalize

import (
	"strings"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
)

const defaultMaxIssues = 100

// RawTable is one uploaded sheet as text cells, header row first.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Metadata tags a batch with its provenance.
type Metadata struct {
	Filename string
	Sheet    string
	Kind     domain.Partition
}

// Options tune normalization.
type Options struct {
	// TypedPassthrough parses value, year, month and week at ingest and stores
	// them next to the text.
	TypedPassthrough bool
	// MaxIssues caps the soft parse errors kept on a Result.
	MaxIssues int
}

// Result is a normalized batch.
type Result struct {
	Records    []domain.Record
	BlankRows  int
	Issues     []*domain.ParseError
	IssueCount int
}

type Normalizer struct {
	opts Options
}

func New(opts Options) *Normalizer {
	if opts.MaxIssues <= 0 {
		opts.MaxIssues = defaultMaxIssues
	}
	return &Normalizer{opts: opts}
}

// Normalize maps a raw table onto records. It fails only when the header lacks
// a required field; bad cells never abort the batch.
func (n *Normalizer) Normalize(raw RawTable, meta Metadata) (*Result, error) {
	if _, err := domain.ParsePartition(string(meta.Kind)); err != nil {
		return nil, err
	}

	cols := mapColumns(raw.Header)
	if missing := cols.missingRequired(); len(missing) > 0 {
		return nil, &domain.SchemaError{Source: sourceName(meta), Missing: missing}
	}

	res := &Result{Records: make([]domain.Record, 0, len(raw.Rows))}
	for i, row := range raw.Rows {
		if isBlank(row) {
			res.BlankRows++
			continue
		}

		rec := domain.Record{
			SKU:         domain.NormalizeValue(cols.cell(row, FieldSKU)),
			Region:      cols.cell(row, FieldRegion),
			Area:        cols.cell(row, FieldArea),
			Distributor: cols.cell(row, FieldDistributor),
			SalesOffice: cols.cell(row, FieldSalesOffice),
			Group:       cols.cell(row, FieldGroup),
			Tipe:        cols.cell(row, FieldTipe),
			Value:       cols.cell(row, FieldValue),
			Date:        cols.cell(row, FieldDate),
			Year:        cols.cell(row, FieldYear),
			Month:       cols.cell(row, FieldMonth),
			Week:        cols.cell(row, FieldWeek),
			SourceFile:  meta.Filename,
			SourceSheet: meta.Sheet,
			Kind:        meta.Kind,
		}

		if len(cols.extra) > 0 {
			attrs := make(map[string]string, len(cols.extra))
			for idx, name := range cols.extra {
				if idx < len(row) {
					attrs[name] = row[idx]
				} else {
					attrs[name] = ""
				}
			}
			rec.Attributes = attrs
		}

		if n.opts.TypedPassthrough {
			rec.Typed = n.typed(&rec, i+1, res)
		}

		res.Records = append(res.Records, rec)
	}

	return res, nil
}

func (n *Normalizer) typed(rec *domain.Record, row int, res *Result) *domain.TypedFields {
	tf := &domain.TypedFields{}

	if rec.Value != "" {
		if d, ok := ParseNumeric(rec.Value); ok {
			s := d.String()
			tf.Value = &s
		} else {
			n.issue(res, row, FieldValue, rec.Value)
		}
	}

	parseInto := func(field Field, text string) *int {
		if text == "" {
			return nil
		}
		v, ok := ParseInt(text)
		if !ok {
			n.issue(res, row, field, text)
			return nil
		}
		return &v
	}
	tf.Year = parseInto(FieldYear, rec.Year)
	tf.Month = parseInto(FieldMonth, rec.Month)
	tf.Week = parseInto(FieldWeek, rec.Week)

	return tf
}

func (n *Normalizer) issue(res *Result, row int, field Field, value string) {
	res.IssueCount++
	if len(res.Issues) < n.opts.MaxIssues {
		res.Issues = append(res.Issues, &domain.ParseError{Row: row, Field: string(field), Value: value})
	}
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func sourceName(meta Metadata) string {
	if meta.Sheet == "" {
		return meta.Filename
	}
	return meta.Filename + "[" + meta.Sheet + "]"
}
