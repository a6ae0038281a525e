package compliance

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// =============================================================================
// PERIOD IDENTIFIERS
// =============================================================================

// PeriodID is the canonical key of one period, e.g. "2024-Q1".
type PeriodID string

var periodPatterns = map[Frequency]*regexp.Regexp{
	Annual:    regexp.MustCompile(`^(\d{4})$`),
	Monthly:   regexp.MustCompile(`^(\d{4})-(0[1-9]|1[0-2])$`),
	Quarterly: regexp.MustCompile(`^(\d{4})-Q([1-4])$`),
	BiAnnual:  regexp.MustCompile(`^(\d{4})-H([1-2])$`),
	Weekly:    regexp.MustCompile(`^(\d{4})-W(0[1-9]|[1-4][0-9]|5[0-3])$`),
}

// ValidPeriod reports whether id matches the grammar of freq exactly.
func ValidPeriod(freq Frequency, id PeriodID) bool {
	_, _, ok := parsePeriod(freq, id)
	return ok
}

// parsePeriod splits id into its year and 1-based index within the year.
// Annual periods always have index 1.
func parsePeriod(freq Frequency, id PeriodID) (year, index int, ok bool) {
	re, known := periodPatterns[freq.normalized()]
	if !known {
		return 0, 0, false
	}
	m := re.FindStringSubmatch(string(id))
	if m == nil {
		return 0, 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	if len(m) < 3 {
		return year, 1, true
	}
	index, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return year, index, true
}

func formatPeriod(freq Frequency, year, index int) PeriodID {
	switch freq.normalized() {
	case Monthly:
		return PeriodID(fmt.Sprintf("%04d-%02d", year, index))
	case Quarterly:
		return PeriodID(fmt.Sprintf("%04d-Q%d", year, index))
	case BiAnnual:
		return PeriodID(fmt.Sprintf("%04d-H%d", year, index))
	case Weekly:
		return PeriodID(fmt.Sprintf("%04d-W%02d", year, index))
	default:
		return PeriodID(fmt.Sprintf("%04d", year))
	}
}

// =============================================================================
// CURRENT PERIOD
// =============================================================================

// CurrentPeriod returns the key of the period containing now.
// Unknown frequencies behave as Annual.
func CurrentPeriod(freq Frequency, now time.Time) PeriodID {
	year := now.Year()
	month := int(now.Month())

	switch freq.normalized() {
	case Monthly:
		return formatPeriod(Monthly, year, month)
	case Quarterly:
		return formatPeriod(Quarterly, year, (month+2)/3)
	case BiAnnual:
		half := 1
		if month > 6 {
			half = 2
		}
		return formatPeriod(BiAnnual, year, half)
	case Weekly:
		return formatPeriod(Weekly, year, weekNumber(now))
	default:
		return formatPeriod(Annual, year, 1)
	}
}

// weekNumber is ceil((daysSinceJan1 + weekday(Jan1) + 1) / 7).
//
// This is a simple calendar-row count, not ISO-8601 week numbering: week 1
// always starts on Jan 1 and weeks roll over on Sunday. The last day of a
// leap year starting on a Saturday would land in row 54; it is folded into
// week 53.
func weekNumber(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := t.YearDay() - 1
	w := (days + int(jan1.Weekday()) + 1 + 6) / 7
	if w > 53 {
		w = 53
	}
	return w
}

// WeeksInYear returns the highest weekly index CurrentPeriod yields in year.
func WeeksInYear(year int) int {
	return weekNumber(time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC))
}

// PeriodsOfYear enumerates every period key of freq within year, oldest first.
func PeriodsOfYear(freq Frequency, year int) []PeriodID {
	freq = freq.normalized()
	n := freq.PeriodsPerYear()
	if freq == Weekly {
		n = WeeksInYear(year)
	}
	ids := make([]PeriodID, 0, n)
	for i := 1; i <= n; i++ {
		ids = append(ids, formatPeriod(freq, year, i))
	}
	return ids
}

// =============================================================================
// BOUNDS
// =============================================================================

// Bounds is the inclusive calendar range a period covers.
// Fallback is set when the key could not be interpreted and the range is
// the default [Jan 1 of now's year, now].
type Bounds struct {
	Start    time.Time
	End      time.Time
	Fallback bool
}

// Contains reports whether the calendar day of t lies within the bounds.
func (b Bounds) Contains(t time.Time) bool {
	d := dateOf(t)
	return !d.Before(dateOf(b.Start)) && !d.After(dateOf(b.End))
}

func (b Bounds) String() string {
	return "[" + b.Start.Format("2006-01-02") + ", " + b.End.Format("2006-01-02") + "]"
}

// PeriodBounds returns the calendar range covered by id.
//
// Weekly periods have no fixed boundary and, like malformed keys, resolve to
// the fallback range. PeriodBounds never fails.
func PeriodBounds(freq Frequency, id PeriodID, now time.Time) Bounds {
	start, end, ok := periodRange(freq, id)
	if !ok {
		return fallbackBounds(now)
	}
	return Bounds{Start: start, End: end}
}

func fallbackBounds(now time.Time) Bounds {
	return Bounds{
		Start:    time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
		End:      now,
		Fallback: true,
	}
}

// periodRange resolves the first and last calendar day of id.
func periodRange(freq Frequency, id PeriodID) (start, end time.Time, ok bool) {
	freq = freq.normalized()
	if freq == Weekly {
		return time.Time{}, time.Time{}, false
	}
	year, index, ok := parsePeriod(freq, id)
	if !ok {
		return time.Time{}, time.Time{}, false
	}

	var firstMonth, months int
	switch freq {
	case Monthly:
		firstMonth, months = index, 1
	case Quarterly:
		firstMonth, months = (index-1)*3+1, 3
	case BiAnnual:
		firstMonth, months = (index-1)*6+1, 6
	default:
		firstMonth, months = 1, 12
	}

	start = time.Date(year, time.Month(firstMonth), 1, 0, 0, 0, 0, time.UTC)
	// Day 0 of the following month is the last day of the range.
	end = time.Date(year, time.Month(firstMonth+months), 0, 0, 0, 0, 0, time.UTC)
	return start, end, true
}

// =============================================================================
// OVERDUE
// =============================================================================

// IsOverdue reports whether the calendar day of now is past the last day of
// the period. Weekly periods and malformed keys are never overdue.
func IsOverdue(id PeriodID, freq Frequency, now time.Time) bool {
	_, end, ok := periodRange(freq, id)
	if !ok {
		return false
	}
	return dateOf(now).After(end)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// COMPLETION DATE VALIDATION
// =============================================================================

// ErrDateOutOfRange is returned when a completion date lies outside the period.
var ErrDateOutOfRange = errors.New("completion date outside period")

// DateRangeError carries the offending date and the computed range.
type DateRangeError struct {
	Period PeriodID
	Date   time.Time
	Bounds Bounds
}

func (e *DateRangeError) Error() string {
	return fmt.Sprintf("completion date %s is outside period %s %s",
		e.Date.Format("2006-01-02"), e.Period, e.Bounds)
}

func (e *DateRangeError) Unwrap() error { return ErrDateOutOfRange }

// ValidateCompletionDate checks that date falls inside the period. When the
// period resolves to the fallback range the date is accepted and the returned
// bounds carry Fallback so the caller can warn the user.
func ValidateCompletionDate(freq Frequency, id PeriodID, date, now time.Time) (Bounds, error) {
	b := PeriodBounds(freq, id, now)
	if b.Fallback {
		return b, nil
	}
	if !b.Contains(date) {
		return b, &DateRangeError{Period: id, Date: date, Bounds: b}
	}
	return b, nil
}
