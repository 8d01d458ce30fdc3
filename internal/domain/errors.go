package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrEmptyBatch        = errors.New("empty batch")
	ErrUnknownPartition  = errors.New("unknown partition")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrPartitionMismatch = errors.New("record kind does not match partition")
	ErrInvalidYearRange  = errors.New("invalid calendar year range")
	ErrUnsupportedExport = errors.New("unsupported export format")
)

// StorageError is a failed write or read against the dataset store.
type StorageError struct {
	Partition Partition
	Op        string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("dataset %s: %s: %v", e.Partition, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NoDataError means a partition has no parts at all.
type NoDataError struct {
	Partition Partition
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data uploaded for partition %s", e.Partition)
}

// ParseError is a soft failure coercing one cell. Callers record it and keep
// going with a null value.
type ParseError struct {
	Row   int
	Field string
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: cannot parse %s value %q", e.Row, e.Field, e.Value)
}

// CalendarRangeError means a requested month is not covered by the generated
// business calendar.
type CalendarRangeError struct {
	Year      int
	Month     int
	StartYear int
	EndYear   int
}

func (e *CalendarRangeError) Error() string {
	return fmt.Sprintf("period %04d-%02d is outside the business calendar range %d-%d",
		e.Year, e.Month, e.StartYear, e.EndYear)
}

// SchemaError means an upload lacks a required field.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Source, strings.Join(e.Missing, ", "))
}
