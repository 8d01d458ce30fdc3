package normalize

import (
	"fmt"
	"strings"
)

// Field is a canonical record field an upload column can map onto.
type Field string

const (
	FieldSKU         Field = "sku"
	FieldRegion      Field = "region"
	FieldArea        Field = "area"
	FieldDistributor Field = "distributor"
	FieldSalesOffice Field = "sales_office"
	FieldGroup       Field = "group"
	FieldTipe        Field = "tipe"
	FieldValue       Field = "value"
	FieldDate        Field = "date"
	FieldYear        Field = "year"
	FieldMonth       Field = "month"
	FieldWeek        Field = "week"
)

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// columnAliases maps sanitized header names to fields. Headers seen in the
// dashboards' Indonesian exports ("TAHUN", "BULAN", "SALES OFFICE") are listed
// next to the English ones.
var columnAliases = buildAliases(map[Field][]string{
	FieldSKU:         {"sku", "kode sku", "kode barang", "item code", "kode produk", "material"},
	FieldRegion:      {"region", "regional", "wilayah"},
	FieldArea:        {"area"},
	FieldDistributor: {"distributor", "nama distributor", "dist"},
	FieldSalesOffice: {"sales office", "salesoffice", "so", "kantor penjualan"},
	FieldGroup:       {"group", "grup", "kelompok"},
	FieldTipe:        {"tipe", "type"},
	FieldValue:       {"value", "net value", "nilai", "amount", "sales", "target", "target value", "nilai target"},
	FieldDate:        {"date", "tanggal", "tgl", "billing date", "tanggal faktur"},
	FieldYear:        {"year", "tahun"},
	FieldMonth:       {"month", "bulan"},
	FieldWeek:        {"week", "minggu", "week iso", "iso week"},
})

func buildAliases(in map[Field][]string) map[string]Field {
	out := make(map[string]Field)
	for field, names := range in {
		for _, n := range names {
			out[normalizeColumnName(n)] = field
		}
	}
	return out
}

// FieldFor resolves a header to a canonical field.
func FieldFor(header string) (Field, bool) {
	f, ok := columnAliases[normalizeColumnName(header)]
	return f, ok
}

// columnMap is the resolved position of each field in a header row. The first
// matching column wins; later duplicates become attributes. A repeated
// attribute header gets its 1-based column number appended ("Note#5").
type columnMap struct {
	index map[Field]int
	extra map[int]string
}

func mapColumns(header []string) columnMap {
	cm := columnMap{index: make(map[Field]int), extra: make(map[int]string)}
	seen := make(map[string]struct{})
	for i, h := range header {
		if f, ok := FieldFor(h); ok {
			if _, taken := cm.index[f]; !taken {
				cm.index[f] = i
				continue
			}
		}
		name := strings.TrimSpace(h)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			name = fmt.Sprintf("%s#%d", name, i+1)
		}
		seen[name] = struct{}{}
		cm.extra[i] = name
	}
	return cm
}

func (cm columnMap) has(f Field) bool {
	_, ok := cm.index[f]
	return ok
}

func (cm columnMap) cell(row []string, f Field) string {
	i, ok := cm.index[f]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// missingRequired lists required fields absent from the header. Every upload
// needs an SKU and a value, plus either a date or a year and month.
func (cm columnMap) missingRequired() []string {
	var missing []string
	if !cm.has(FieldSKU) {
		missing = append(missing, string(FieldSKU))
	}
	if !cm.has(FieldValue) {
		missing = append(missing, string(FieldValue))
	}
	if !cm.has(FieldDate) && !(cm.has(FieldYear) && cm.has(FieldMonth)) {
		missing = append(missing, "date (or year and month)")
	}
	return missing
}
