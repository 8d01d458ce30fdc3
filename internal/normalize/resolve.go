package normalize

import (
	"time"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// Amount is the record's numeric value, preferring the typed passthrough.
func Amount(r *domain.Record) (decimal.Decimal, bool) {
	if r.Typed != nil {
		if r.Typed.Value == nil {
			return decimal.Decimal{}, false
		}
		return ParseNumeric(*r.Typed.Value)
	}
	return ParseNumeric(r.Value)
}

func typedOrText(typed *int, text string) (int, bool) {
	if typed != nil {
		return *typed, true
	}
	return ParseInt(text)
}

// Period is where a record falls in time. Explicit year and month columns win
// over the date for the month; the ISO week comes from the date when there is
// one, since a calendar year column is not an ISO year.
type Period struct {
	Date     time.Time
	HasDate  bool
	Year     int
	Month    int
	HasMonth bool
	ISOYear  int
	ISOWeek  int
	HasWeek  bool
}

// ResolvePeriod derives a record's month and ISO week.
func ResolvePeriod(r *domain.Record) Period {
	var p Period
	p.Date, p.HasDate = ResolveDate(r.Date)

	var yearT, monthT, weekT *int
	if r.Typed != nil {
		yearT, monthT, weekT = r.Typed.Year, r.Typed.Month, r.Typed.Week
	}
	year, hasYear := typedOrText(yearT, r.Year)
	month, hasMonth := typedOrText(monthT, r.Month)
	week, hasWeek := typedOrText(weekT, r.Week)

	switch {
	case hasYear && hasMonth && month >= 1 && month <= 12:
		p.Year, p.Month, p.HasMonth = year, month, true
	case p.HasDate:
		p.Year, p.Month, p.HasMonth = p.Date.Year(), int(p.Date.Month()), true
	}

	switch {
	case p.HasDate:
		p.ISOYear, p.ISOWeek = p.Date.ISOWeek()
		p.HasWeek = true
	case hasWeek && hasYear && week >= 1 && week <= 53:
		p.ISOYear, p.ISOWeek, p.HasWeek = isoYearOf(year, month, hasMonth, week), week, true
	}

	return p
}

// isoYearOf maps a calendar year column onto the ISO year of week. Week 1 can
// start in late December and weeks 52/53 can reach into early January.
func isoYearOf(year, month int, hasMonth bool, week int) int {
	if !hasMonth {
		return year
	}
	switch {
	case month == 12 && week == 1:
		return year + 1
	case month == 1 && week >= 52:
		return year - 1
	}
	return year
}
