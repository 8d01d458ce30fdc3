// Package spreadsheet turns uploaded csv, xlsx and xls files into raw
// tables for the normalizer.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/andresuchdata/salesdash/backend-go/internal/normalize"
	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

type kind int

const (
	kindUnknown kind = iota
	kindCSV
	kindXLSX
	kindXLS
)

func kindOf(name string) kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return kindCSV
	case ".xlsx", ".xlsm":
		return kindXLSX
	case ".xls":
		return kindXLS
	}
	return kindUnknown
}

// IsSupported reports whether name has an extension Read understands.
func IsSupported(name string) bool {
	return kindOf(name) != kindUnknown
}

// SheetNames lists the worksheets of a workbook. CSV files have none.
func SheetNames(name string, data []byte) ([]string, error) {
	switch kindOf(name) {
	case kindCSV:
		return nil, nil
	case kindXLSX:
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open xlsx %s: %w", name, err)
		}
		defer f.Close()
		return f.GetSheetList(), nil
	case kindXLS:
		wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, fmt.Errorf("open xls %s: %w", name, err)
		}
		names := make([]string, 0, wb.NumSheets())
		for i := 0; i < wb.NumSheets(); i++ {
			if s := wb.GetSheet(i); s != nil {
				names = append(names, s.Name)
			}
		}
		return names, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, name)
}

// Read parses one sheet of name. An empty sheet selects the first one.
// The first non-blank row is the header.
func Read(name string, data []byte, sheet string) (normalize.RawTable, error) {
	var (
		rows [][]string
		err  error
	)
	switch kindOf(name) {
	case kindCSV:
		rows, err = readCSV(data)
	case kindXLSX:
		rows, err = readXLSX(data, sheet)
	case kindXLS:
		rows, err = readXLS(data, sheet)
	default:
		return normalize.RawTable{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, name)
	}
	if err != nil {
		return normalize.RawTable{}, fmt.Errorf("read %s: %w", name, err)
	}
	return toTable(rows), nil
}

func toTable(rows [][]string) normalize.RawTable {
	for i, row := range rows {
		if blank(row) {
			continue
		}
		return normalize.RawTable{Header: row, Rows: rows[i+1:]}
	}
	return normalize.RawTable{}
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func readXLSX(data []byte, sheet string) ([][]string, error) {
	// Raw values keep dates as serial numbers and amounts unformatted.
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	if sheet == "" {
		sheet = sheets[0]
	}

	it, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	defer it.Close()

	var rows [][]string
	for it.Next() {
		cols, err := it.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, err
		}
		rows = append(rows, cols)
	}
	return rows, it.Error()
}

func readXLS(data []byte, sheet string) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb.NumSheets() == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	var ws *xls.WorkSheet
	for i := 0; i < wb.NumSheets(); i++ {
		s := wb.GetSheet(i)
		if s == nil {
			continue
		}
		if sheet == "" || s.Name == sheet {
			ws = s
			break
		}
	}
	if ws == nil {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	rows := make([][]string, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cols := make([]string, row.LastCol())
		for j := range cols {
			cols[j] = row.Col(j)
		}
		rows = append(rows, cols)
	}
	return rows, nil
}
