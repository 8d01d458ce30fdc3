package normalize

import (
	"strconv"
	"strings"
	"time"
)

// SerialEpoch is day zero of spreadsheet serial dates.
var SerialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Serial day counts accepted as dates: 1910-01-01 through 9999-12-31. Smaller
// numbers are more likely a bare year or month than a date.
const (
	minSerial = 3654
	maxSerial = 2958465
)

// Literal layouts, tried in order. Slash and dash forms are day first.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"20060102",
}

// ResolveDate turns a date cell into a calendar date. Whole or fractional
// numbers are serial day counts from SerialEpoch; any other text is tried
// against the supported literal layouts.
func ResolveDate(text string) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if days := int(serial); days >= minSerial && days <= maxSerial {
			return SerialEpoch.AddDate(0, 0, days), true
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
