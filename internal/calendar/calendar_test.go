package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWeekInMonthIsContiguous(t *testing.T) {
	for _, r := range []YearRange{{2020, 2020}, {2024, 2026}, {2015, 2030}} {
		entries, err := Generate(r)
		require.NoError(t, err)

		seen := make(map[monthKey][]int)
		for _, e := range entries {
			k := monthKey{year: e.ISOYear, month: e.ISOMonth}
			seen[k] = append(seen[k], e.WeekInMonth)
		}
		for k, ranks := range seen {
			for i, rank := range ranks {
				assert.Equal(t, i+1, rank, "range %v month %v", r, k)
			}
			assert.LessOrEqual(t, len(ranks), 6)
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, err := Generate(YearRange{Start: 2023, End: 2026})
	require.NoError(t, err)
	b, err := Generate(YearRange{Start: 2023, End: 2026})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateBounds(t *testing.T) {
	entries, err := Generate(YearRange{Start: 2025, End: 2026})
	require.NoError(t, err)

	first := entries[0]
	assert.Equal(t, time.Monday, first.Monday.Weekday())
	// Dec 29 2024 is a Sunday, so the first Monday is Dec 23 2024.
	assert.Equal(t, time.Date(2024, time.December, 23, 0, 0, 0, 0, time.UTC), first.Monday)

	last := entries[len(entries)-1]
	assert.False(t, last.Monday.After(time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)))
	assert.True(t, last.Monday.AddDate(0, 0, 7).After(time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)))
}

func TestJanuary2026Weeks(t *testing.T) {
	cal, err := New(YearRange{Start: 2025, End: 2026})
	require.NoError(t, err)

	// 2026-01-05 is a Monday in ISO week 2.
	e, ok := cal.Lookup(2, 2026)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC), e.Monday)
	assert.Equal(t, 1, e.ISOMonth)
	assert.Equal(t, 2, e.WeekInMonth)

	weeks, err := cal.WeeksIn(domain.YearMonth{Year: 2026, Month: 1})
	require.NoError(t, err)
	require.Len(t, weeks, 5)
	// Week 1 starts Monday 2025-12-29 because its Thursday is Jan 1.
	assert.Equal(t, time.Date(2025, time.December, 29, 0, 0, 0, 0, time.UTC), weeks[0].Monday)
	assert.Equal(t, 1, weeks[0].ISOWeek)
	assert.Equal(t, 26, weeks[4].Monday.Day())

	feb, err := cal.WeeksIn(domain.YearMonth{Year: 2026, Month: 2})
	require.NoError(t, err)
	assert.Len(t, feb, 4)
}

func TestWeeksInOutsideRange(t *testing.T) {
	cal, err := New(YearRange{Start: 2025, End: 2026})
	require.NoError(t, err)

	_, err = cal.WeeksIn(domain.YearMonth{Year: 2027, Month: 3})
	var rangeErr *domain.CalendarRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, 2027, rangeErr.Year)
	assert.Equal(t, 2025, rangeErr.StartYear)
	assert.Equal(t, 2026, rangeErr.EndYear)
}

func TestGenerateRejectsInvertedRange(t *testing.T) {
	_, err := Generate(YearRange{Start: 2026, End: 2025})
	assert.ErrorIs(t, err, domain.ErrInvalidYearRange)
}

func TestYearListsTwelveMonths(t *testing.T) {
	cal, err := New(YearRange{Start: 2026, End: 2026})
	require.NoError(t, err)

	weeks, err := cal.Year(2026)
	require.NoError(t, err)
	assert.Len(t, weeks, 53)
	assert.Equal(t, 1, weeks[0].ISOMonth)
	assert.Equal(t, 12, weeks[len(weeks)-1].ISOMonth)
}
