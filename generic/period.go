package generic

import "time"

// =============================================================================
// PERIOD - Inclusive range of calendar days
// =============================================================================

// Period is an inclusive range of calendar days [Start, End].
//
// Examples:
//   - Leave year 2025: Jan 1 - Dec 31
//   - Fiscal leave year 2025: Apr 1 2025 - Mar 31 2026
//   - A leave request: Mon Mar 10 - Fri Mar 14
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Valid reports whether End is not before Start.
func (p Period) Valid() bool { return !p.End.Before(p.Start) }

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Overlaps reports whether the two periods share at least one day.
func (p Period) Overlaps(other Period) bool {
	return !p.End.Before(other.Start) && !other.End.Before(p.Start)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Workdays returns the days of the period that are neither weekends nor
// holidays for branch.
func (p Period) Workdays(calendar HolidayCalendar, branch string) []TimePoint {
	var days []TimePoint
	for _, d := range p.Days() {
		if d.IsWorkdayWithHolidays(calendar, branch) {
			days = append(days, d)
		}
	}
	return days
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// LEAVE YEAR - Which year a date's allowance belongs to
// =============================================================================

// YearConfig defines how the leave year is bounded.
// A zero FiscalStartMonth (or January) means the calendar year.
type YearConfig struct {
	FiscalStartMonth time.Month
}

// YearFor returns the leave year containing date.
func (yc YearConfig) YearFor(date TimePoint) Period {
	if yc.FiscalStartMonth <= time.January || yc.FiscalStartMonth > time.December {
		return Period{Start: StartOfYear(date.Year()), End: EndOfYear(date.Year())}
	}

	start := NewTimePoint(date.Year(), yc.FiscalStartMonth, 1)
	// Before the fiscal start we're still in the previous leave year
	if date.Before(start) {
		start = NewTimePoint(date.Year()-1, yc.FiscalStartMonth, 1)
	}
	return Period{Start: start, End: start.AddYears(1).AddDays(-1)}
}

// YearStarting returns the leave year that begins in the given year.
func (yc YearConfig) YearStarting(year int) Period {
	month := yc.FiscalStartMonth
	if month < time.January || month > time.December {
		month = time.January
	}
	return yc.YearFor(NewTimePoint(year, month, 1))
}
