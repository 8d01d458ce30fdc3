package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// YearMonth is a calendar month.
type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// ParseYearMonth parses "YYYY-MM" (or "YYYY/MM").
func ParseYearMonth(s string) (YearMonth, error) {
	s = strings.TrimSpace(s)
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '/' })
	if len(parts) != 2 {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	ym := YearMonth{Year: year, Month: month}
	if err := ym.Validate(); err != nil {
		return YearMonth{}, err
	}
	return ym, nil
}

func (ym YearMonth) Validate() error {
	if ym.Month < 1 || ym.Month > 12 || ym.Year < 1 {
		return fmt.Errorf("%w: %04d-%02d", ErrInvalidPeriod, ym.Year, ym.Month)
	}
	return nil
}

// AddMonths shifts by n months, crossing year boundaries.
func (ym YearMonth) AddMonths(n int) YearMonth {
	idx := ym.Year*12 + (ym.Month - 1) + n
	return YearMonth{Year: idx / 12, Month: idx%12 + 1}
}

// Trailing returns the n months ending at ym, oldest first.
func (ym YearMonth) Trailing(n int) []YearMonth {
	out := make([]YearMonth, n)
	for i := 0; i < n; i++ {
		out[i] = ym.AddMonths(i - n + 1)
	}
	return out
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// PeriodSelection anchors a pivot: the closing month drives trailing windows and
// growth, the historical month drives the weekly breakdown and target join.
type PeriodSelection struct {
	Closing    YearMonth `json:"closing"`
	Historical YearMonth `json:"historical"`
}

func (p PeriodSelection) Validate() error {
	if err := p.Closing.Validate(); err != nil {
		return err
	}
	return p.Historical.Validate()
}
