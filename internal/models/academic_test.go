package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermMonthsSpansCalendarBoundary(t *testing.T) {
	months := TermMonths(2025)
	require.Len(t, months, 8)

	assert.Equal(t, MonthYear{Month: time.October, Year: 2025}, months[0])
	assert.Equal(t, MonthYear{Month: time.December, Year: 2025}, months[2])
	assert.Equal(t, MonthYear{Month: time.January, Year: 2026}, months[3])
	assert.Equal(t, MonthYear{Month: time.May, Year: 2026}, months[7])
}

func TestIsScholarshipMonth(t *testing.T) {
	for _, m := range ScholarshipMonths {
		assert.True(t, IsScholarshipMonth(m), m.String())
	}
	for _, m := range []time.Month{time.June, time.July, time.August, time.September} {
		assert.False(t, IsScholarshipMonth(m), m.String())
	}
}

func TestCalendarYearFor(t *testing.T) {
	assert.Equal(t, 2025, CalendarYearFor(2025, time.October))
	assert.Equal(t, 2025, CalendarYearFor(2025, time.December))
	assert.Equal(t, 2026, CalendarYearFor(2025, time.January))
	assert.Equal(t, 2026, CalendarYearFor(2025, time.May))
}

func TestMonthYearOrdering(t *testing.T) {
	dec := MonthYear{Month: time.December, Year: 2025}
	jan := MonthYear{Month: time.January, Year: 2026}

	assert.True(t, jan.After(dec))
	assert.False(t, dec.After(jan))
	assert.True(t, dec.Before(jan))
	assert.False(t, jan.After(jan))
}

func TestTermDisplayName(t *testing.T) {
	start := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-2026", TermDisplayName(start, end))
}

func TestLedgerRowIsCut(t *testing.T) {
	reason := "absent"
	assert.True(t, MonthlyScholarshipStatus{IsPaid: false, CutReason: &reason}.IsCut())
	assert.False(t, MonthlyScholarshipStatus{IsPaid: true}.IsCut())
	assert.False(t, MonthlyScholarshipStatus{IsPaid: false}.IsCut())
}
