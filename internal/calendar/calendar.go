package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
)

// YearRange is an inclusive span of calendar years.
type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r YearRange) Validate() error {
	if r.Start < 1 || r.End < r.Start {
		return fmt.Errorf("%w: %d-%d", domain.ErrInvalidYearRange, r.Start, r.End)
	}
	return nil
}

func (r YearRange) Contains(year int) bool {
	return year >= r.Start && year <= r.End
}

// Entry is one Monday-anchored business week.
type Entry struct {
	Monday      time.Time `json:"monday"`
	ISOWeek     int       `json:"iso_week"`
	ISOYear     int       `json:"iso_year"`
	ISOMonth    int       `json:"iso_month"`
	WeekInMonth int       `json:"week_in_month"`
}

// Generate builds the calendar for a year range. Weeks start at the Monday on
// or before Dec 29 of the year before the range and run until past Dec 31 of
// its last year. A week belongs to the month holding its Thursday, and
// WeekInMonth counts weeks within each (ISOYear, ISOMonth) in date order.
func Generate(r YearRange) ([]Entry, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	first := mondayOnOrBefore(time.Date(r.Start-1, time.December, 29, 0, 0, 0, 0, time.UTC))
	last := time.Date(r.End, time.December, 31, 0, 0, 0, 0, time.UTC)

	var entries []Entry
	for monday := first; !monday.After(last); monday = monday.AddDate(0, 0, 7) {
		thursday := monday.AddDate(0, 0, 3)
		isoYear, isoWeek := monday.ISOWeek()
		entries = append(entries, Entry{
			Monday:   monday,
			ISOWeek:  isoWeek,
			ISOYear:  isoYear,
			ISOMonth: int(thursday.Month()),
		})
	}

	assignWeekInMonth(entries)
	return entries, nil
}

func mondayOnOrBefore(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

func assignWeekInMonth(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Monday.Before(entries[j].Monday)
	})
	counters := make(map[monthKey]int)
	for i := range entries {
		k := monthKey{year: entries[i].ISOYear, month: entries[i].ISOMonth}
		counters[k]++
		entries[i].WeekInMonth = counters[k]
	}
}

type weekKey struct {
	year int
	week int
}

type monthKey struct {
	year  int
	month int
}

// Calendar indexes generated entries for lookups.
type Calendar struct {
	rng     YearRange
	entries []Entry
	byWeek  map[weekKey]Entry
	byMonth map[monthKey][]Entry
}

// New generates a calendar for r.
func New(r YearRange) (*Calendar, error) {
	entries, err := Generate(r)
	if err != nil {
		return nil, err
	}
	return FromEntries(r, entries)
}

// FromEntries indexes previously generated entries, e.g. from an artifact.
func FromEntries(r YearRange, entries []Entry) (*Calendar, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	c := &Calendar{
		rng:     r,
		entries: entries,
		byWeek:  make(map[weekKey]Entry, len(entries)),
		byMonth: make(map[monthKey][]Entry),
	}
	for _, e := range entries {
		c.byWeek[weekKey{year: e.ISOYear, week: e.ISOWeek}] = e
		mk := monthKey{year: e.ISOYear, month: e.ISOMonth}
		c.byMonth[mk] = append(c.byMonth[mk], e)
	}
	return c, nil
}

func (c *Calendar) Range() YearRange { return c.rng }

// Entries returns every entry in date order.
func (c *Calendar) Entries() []Entry { return c.entries }

// Lookup finds the entry for an ISO week.
func (c *Calendar) Lookup(isoWeek, isoYear int) (Entry, bool) {
	e, ok := c.byWeek[weekKey{year: isoYear, week: isoWeek}]
	return e, ok
}

// WeeksIn returns the weeks of a month in order. Months outside the range are
// a CalendarRangeError.
func (c *Calendar) WeeksIn(ym domain.YearMonth) ([]Entry, error) {
	if err := c.Covers(ym); err != nil {
		return nil, err
	}
	return c.byMonth[monthKey{year: ym.Year, month: ym.Month}], nil
}

// Covers reports a CalendarRangeError for months the range does not include.
func (c *Calendar) Covers(ym domain.YearMonth) error {
	if !c.rng.Contains(ym.Year) || ym.Month < 1 || ym.Month > 12 {
		return &domain.CalendarRangeError{
			Year:      ym.Year,
			Month:     ym.Month,
			StartYear: c.rng.Start,
			EndYear:   c.rng.End,
		}
	}
	return nil
}

// Year returns the entries whose month falls in year.
func (c *Calendar) Year(year int) ([]Entry, error) {
	if err := c.Covers(domain.YearMonth{Year: year, Month: 1}); err != nil {
		return nil, err
	}
	out := make([]Entry, 0, 53)
	for m := 1; m <= 12; m++ {
		out = append(out, c.byMonth[monthKey{year: year, month: m}]...)
	}
	return out, nil
}
