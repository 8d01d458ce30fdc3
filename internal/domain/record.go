package domain

import (
	"fmt"
	"strings"
	"time"
)

// Partition names one append-only dataset.
type Partition string

const (
	PartitionSales  Partition = "sales"
	PartitionTarget Partition = "target"
)

// Partitions lists every partition the store manages.
var Partitions = []Partition{PartitionSales, PartitionTarget}

// ParsePartition accepts "sales" or "target" in any case.
func ParsePartition(s string) (Partition, error) {
	p := Partition(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PartitionSales, PartitionTarget:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPartition, s)
}

func (p Partition) String() string { return string(p) }

// PartID identifies one immutable part file.
type PartID string

// PartInfo describes a stored part.
type PartInfo struct {
	ID        PartID    `json:"id"`
	Partition Partition `json:"partition"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is one normalized sales or target line. Text fields keep the uploaded
// formatting; numeric interpretation happens at aggregation time unless the
// batch was normalized with typed passthrough.
type Record struct {
	SKU         string `json:"sku"`
	Region      string `json:"region"`
	Area        string `json:"area"`
	Distributor string `json:"distributor"`
	SalesOffice string `json:"sales_office"`
	Group       string `json:"group"`
	Tipe        string `json:"tipe"`

	Value string `json:"value"`
	Date  string `json:"date"`
	Year  string `json:"year"`
	Month string `json:"month"`
	Week  string `json:"week"`

	Typed *TypedFields `json:"typed,omitempty"`

	Attributes map[string]string `json:"attributes,omitempty"`

	SourceFile  string    `json:"source_file"`
	SourceSheet string    `json:"source_sheet"`
	Kind        Partition `json:"dataset_kind"`
}

// TypedFields carries values parsed at normalization time. A nil pointer means
// the cell was empty or failed to parse.
type TypedFields struct {
	Value *string `json:"value,omitempty"` // canonical decimal text
	Year  *int    `json:"year,omitempty"`
	Month *int    `json:"month,omitempty"`
	Week  *int    `json:"week,omitempty"`
}

// Dimension returns the record's raw value for a filter dimension.
func (r *Record) Dimension(d Dimension) string {
	switch d {
	case DimRegion:
		return r.Region
	case DimArea:
		return r.Area
	case DimDistributor:
		return r.Distributor
	case DimSalesOffice:
		return r.SalesOffice
	case DimGroup:
		return r.Group
	case DimTipe:
		return r.Tipe
	}
	return ""
}
