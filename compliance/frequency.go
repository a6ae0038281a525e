/*
Package compliance computes recurring compliance periods and roster status.

PURPOSE:
  Every compliance tracker (supervisions, appraisals, fire-safety training)
  recurs on a fixed cadence. This package turns a cadence and a date into a
  canonical period key, the calendar range that key covers, whether it has
  lapsed, and how a roster of employees stands against it.

  The package is pure: no I/O, no clock reads, no state. Callers pass "now"
  explicitly and recompute on every request.

PERIOD KEYS:
  annual      YYYY       2024
  monthly     YYYY-MM    2024-03
  quarterly   YYYY-Qn    2024-Q1
  bi-annual   YYYY-Hn    2024-H2
  weekly      YYYY-Wnn   2024-W07

FAILURE POLICY:
  Malformed keys never produce an error. PeriodBounds falls back to
  [Jan 1 of the current year, now] and marks the result so the caller can
  warn the user that the range may be wrong.

SEE ALSO:
  - period.go: CurrentPeriod, PeriodBounds, IsOverdue
  - roster.go: Classify and Summarize
  - listing.go: ListPeriods and the retention window
*/
package compliance

import (
	"fmt"
	"strings"
)

// =============================================================================
// FREQUENCY
// =============================================================================

// Frequency is the recurrence cadence of a compliance obligation.
type Frequency string

const (
	Annual    Frequency = "annual"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	BiAnnual  Frequency = "bi-annual"
	Weekly    Frequency = "weekly"
)

// Frequencies lists every supported cadence.
var Frequencies = []Frequency{Annual, Monthly, Quarterly, BiAnnual, Weekly}

// ParseFrequency converts user input into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "annual", "yearly":
		return Annual, nil
	case "monthly":
		return Monthly, nil
	case "quarterly":
		return Quarterly, nil
	case "bi-annual", "biannual", "bi_annual", "half-yearly":
		return BiAnnual, nil
	case "weekly":
		return Weekly, nil
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}

// Valid reports whether f is one of the supported cadences.
func (f Frequency) Valid() bool {
	for _, known := range Frequencies {
		if f == known {
			return true
		}
	}
	return false
}

// normalized maps unknown values to Annual.
func (f Frequency) normalized() Frequency {
	if f.Valid() {
		return f
	}
	return Annual
}

// PeriodsPerYear returns how many periods of f a calendar year holds.
// Weekly uses the approximate numbering from CurrentPeriod, so the caller
// should use WeeksInYear for an exact count.
func (f Frequency) PeriodsPerYear() int {
	switch f.normalized() {
	case Monthly:
		return 12
	case Quarterly:
		return 4
	case BiAnnual:
		return 2
	case Weekly:
		return 53
	default:
		return 1
	}
}
