package models

import "time"

// ScholarshipMonths lists the canonical disbursement months in academic
// order: Oct, Nov, Dec of the term's start year, then Jan through May of the
// following calendar year.
var ScholarshipMonths = []time.Month{
	time.October, time.November, time.December,
	time.January, time.February, time.March, time.April, time.May,
}

// IsScholarshipMonth reports whether m falls inside the Oct-May window.
func IsScholarshipMonth(m time.Month) bool {
	return m >= time.October || m <= time.May
}

// CalendarYearFor maps an academic month onto its calendar year for a term
// whose start year is startYear. October-December belong to the start year,
// January-May to the next one.
func CalendarYearFor(startYear int, m time.Month) int {
	if m >= time.October {
		return startYear
	}
	return startYear + 1
}

// MonthYear identifies one calendar month.
type MonthYear struct {
	Month time.Month
	Year  int
}

// TermMonths returns the 8 canonical months of a term starting in startYear.
func TermMonths(startYear int) []MonthYear {
	months := make([]MonthYear, 0, len(ScholarshipMonths))
	for _, m := range ScholarshipMonths {
		months = append(months, MonthYear{Month: m, Year: CalendarYearFor(startYear, m)})
	}
	return months
}

// After reports whether a is strictly later than b in calendar order.
func (a MonthYear) After(b MonthYear) bool {
	if a.Year != b.Year {
		return a.Year > b.Year
	}
	return a.Month > b.Month
}

// Before reports whether a is strictly earlier than b in calendar order.
func (a MonthYear) Before(b MonthYear) bool {
	return b.After(a)
}
