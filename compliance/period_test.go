package compliance_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hrdesk/compliance"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var grammar = map[compliance.Frequency]*regexp.Regexp{
	compliance.Annual:    regexp.MustCompile(`^\d{4}$`),
	compliance.Monthly:   regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`),
	compliance.Quarterly: regexp.MustCompile(`^\d{4}-Q[1-4]$`),
	compliance.BiAnnual:  regexp.MustCompile(`^\d{4}-H[1-2]$`),
	compliance.Weekly:    regexp.MustCompile(`^\d{4}-W(0[1-9]|[1-4]\d|5[0-3])$`),
}

// =============================================================================
// CURRENT PERIOD
// =============================================================================

func TestCurrentPeriod_MatchesGrammarForEveryDay(t *testing.T) {
	// GIVEN: Every day from 2024 through 2029 (includes a leap year starting on Saturday)
	// WHEN: Computing the current period for each frequency
	// THEN: The key matches that frequency's grammar exactly

	for d := date(2024, time.January, 1); d.Year() < 2030; d = d.AddDate(0, 0, 1) {
		for freq, re := range grammar {
			id := compliance.CurrentPeriod(freq, d)
			if !re.MatchString(string(id)) {
				t.Fatalf("%s on %s produced %q", freq, d.Format("2006-01-02"), id)
			}
			require.True(t, compliance.ValidPeriod(freq, id), "%s %s", freq, id)
		}
	}
}

func TestCurrentPeriod_Examples(t *testing.T) {
	now := date(2024, time.March, 15)

	assert.Equal(t, compliance.PeriodID("2024"), compliance.CurrentPeriod(compliance.Annual, now))
	assert.Equal(t, compliance.PeriodID("2024-03"), compliance.CurrentPeriod(compliance.Monthly, now))
	assert.Equal(t, compliance.PeriodID("2024-Q1"), compliance.CurrentPeriod(compliance.Quarterly, now))
	assert.Equal(t, compliance.PeriodID("2024-H1"), compliance.CurrentPeriod(compliance.BiAnnual, now))
	assert.Equal(t, compliance.PeriodID("2024-H2"), compliance.CurrentPeriod(compliance.BiAnnual, date(2024, time.July, 1)))
	assert.Equal(t, compliance.PeriodID("2024-Q4"), compliance.CurrentPeriod(compliance.Quarterly, date(2024, time.December, 31)))
}

func TestCurrentPeriod_UnknownFrequencyActsAsAnnual(t *testing.T) {
	assert.Equal(t, compliance.PeriodID("2024"), compliance.CurrentPeriod("fortnightly", date(2024, time.May, 2)))
}

func TestCurrentPeriod_WeeklyRowNumbering(t *testing.T) {
	// 2024-01-01 is a Monday: week 1 runs Mon Jan 1 to Sat Jan 6.
	assert.Equal(t, compliance.PeriodID("2024-W01"), compliance.CurrentPeriod(compliance.Weekly, date(2024, time.January, 1)))
	assert.Equal(t, compliance.PeriodID("2024-W01"), compliance.CurrentPeriod(compliance.Weekly, date(2024, time.January, 6)))
	// Sunday starts the next row.
	assert.Equal(t, compliance.PeriodID("2024-W02"), compliance.CurrentPeriod(compliance.Weekly, date(2024, time.January, 7)))
	// 2028 is a leap year starting on Saturday; its last day folds into week 53.
	assert.Equal(t, compliance.PeriodID("2028-W53"), compliance.CurrentPeriod(compliance.Weekly, date(2028, time.December, 31)))
	assert.Equal(t, 53, compliance.WeeksInYear(2028))
}

// =============================================================================
// BOUNDS
// =============================================================================

func TestPeriodBounds_Monthly(t *testing.T) {
	// GIVEN: It is 15 March 2024
	// WHEN: Resolving the current monthly period
	// THEN: It spans the whole of March
	now := date(2024, time.March, 15)
	id := compliance.CurrentPeriod(compliance.Monthly, now)

	b := compliance.PeriodBounds(compliance.Monthly, id, now)

	assert.False(t, b.Fallback)
	assert.Equal(t, date(2024, time.March, 1), b.Start)
	assert.Equal(t, date(2024, time.March, 31), b.End)
}

func TestPeriodBounds_LeapFebruary(t *testing.T) {
	b := compliance.PeriodBounds(compliance.Monthly, "2024-02", date(2024, time.June, 1))
	assert.Equal(t, date(2024, time.February, 29), b.End)
}

func TestPeriodBounds_QuarterlyAndHalves(t *testing.T) {
	now := date(2024, time.June, 1)

	q1 := compliance.PeriodBounds(compliance.Quarterly, "2024-Q1", now)
	assert.Equal(t, date(2024, time.January, 1), q1.Start)
	assert.Equal(t, date(2024, time.March, 31), q1.End)

	q3 := compliance.PeriodBounds(compliance.Quarterly, "2024-Q3", now)
	assert.Equal(t, date(2024, time.July, 1), q3.Start)
	assert.Equal(t, date(2024, time.September, 30), q3.End)

	h2 := compliance.PeriodBounds(compliance.BiAnnual, "2024-H2", now)
	assert.Equal(t, date(2024, time.July, 1), h2.Start)
	assert.Equal(t, date(2024, time.December, 31), h2.End)

	y := compliance.PeriodBounds(compliance.Annual, "2023", now)
	assert.Equal(t, date(2023, time.January, 1), y.Start)
	assert.Equal(t, date(2023, time.December, 31), y.End)
}

func TestPeriodBounds_MalformedFallsBack(t *testing.T) {
	// GIVEN: Identifiers that do not match their frequency's grammar
	// WHEN: Computing bounds
	// THEN: No panic; the fallback range [Jan 1 of now's year, now] is returned

	now := time.Date(2024, time.August, 20, 14, 30, 0, 0, time.UTC)
	cases := []struct {
		freq compliance.Frequency
		id   compliance.PeriodID
	}{
		{compliance.Annual, "abc"},
		{compliance.Annual, "24"},
		{compliance.Monthly, "2024-13"},
		{compliance.Monthly, "2024-3"},
		{compliance.Quarterly, "2024-Q5"},
		{compliance.Quarterly, "2024"},
		{compliance.BiAnnual, "2024-H3"},
		{compliance.Weekly, "2024-W05"},
		{compliance.Monthly, ""},
	}

	for _, tc := range cases {
		b := compliance.PeriodBounds(tc.freq, tc.id, now)
		assert.True(t, b.Fallback, "%s %q", tc.freq, tc.id)
		assert.Equal(t, date(2024, time.January, 1), b.Start)
		assert.Equal(t, now, b.End)
	}
}

func TestPeriodBounds_Idempotent(t *testing.T) {
	now := date(2025, time.May, 5)
	for _, id := range []compliance.PeriodID{"2024-Q2", "bogus"} {
		assert.Equal(t,
			compliance.PeriodBounds(compliance.Quarterly, id, now),
			compliance.PeriodBounds(compliance.Quarterly, id, now))
	}
}

func TestPeriodBounds_StartBeforeEndWithinYear(t *testing.T) {
	now := date(2030, time.January, 1)
	for _, freq := range []compliance.Frequency{compliance.Annual, compliance.Monthly, compliance.Quarterly, compliance.BiAnnual} {
		for year := 2020; year <= 2030; year++ {
			for _, id := range compliance.PeriodsOfYear(freq, year) {
				b := compliance.PeriodBounds(freq, id, now)
				require.False(t, b.Fallback, "%s %s", freq, id)
				assert.False(t, b.End.Before(b.Start), "%s %s", freq, id)
				assert.Equal(t, year, b.Start.Year())
				assert.Equal(t, year, b.End.Year())
			}
		}
	}
}

// =============================================================================
// OVERDUE
// =============================================================================

func TestIsOverdue_QuarterAfterEnd(t *testing.T) {
	assert.True(t, compliance.IsOverdue("2024-Q1", compliance.Quarterly, date(2024, time.April, 10)))
	assert.False(t, compliance.IsOverdue("2024-Q2", compliance.Quarterly, date(2024, time.April, 10)))
}

func TestIsOverdue_LastDayIsNotOverdue(t *testing.T) {
	lastDay := time.Date(2024, time.March, 31, 23, 59, 0, 0, time.UTC)
	assert.False(t, compliance.IsOverdue("2024-03", compliance.Monthly, lastDay))
	assert.True(t, compliance.IsOverdue("2024-03", compliance.Monthly, date(2024, time.April, 1)))
}

func TestIsOverdue_WeeklyAndMalformedNeverOverdue(t *testing.T) {
	far := date(2040, time.January, 1)
	assert.False(t, compliance.IsOverdue("2024-W01", compliance.Weekly, far))
	assert.False(t, compliance.IsOverdue("garbage", compliance.Annual, far))
}

func TestIsOverdue_MonotonicInNow(t *testing.T) {
	// GIVEN: A period that becomes overdue at some instant
	// THEN: It stays overdue for every later instant

	ids := map[compliance.Frequency]compliance.PeriodID{
		compliance.Annual:    "2024",
		compliance.Monthly:   "2024-06",
		compliance.Quarterly: "2024-Q2",
		compliance.BiAnnual:  "2024-H1",
	}
	for freq, id := range ids {
		seen := false
		for d := date(2024, time.January, 1); d.Year() < 2026; d = d.AddDate(0, 0, 1) {
			o := compliance.IsOverdue(id, freq, d)
			if seen {
				require.True(t, o, "%s %s regressed on %s", freq, id, d.Format("2006-01-02"))
			}
			seen = seen || o
		}
		assert.True(t, seen)
	}
}

// =============================================================================
// COMPLETION DATE VALIDATION
// =============================================================================

func TestValidateCompletionDate(t *testing.T) {
	now := date(2024, time.May, 1)

	_, err := compliance.ValidateCompletionDate(compliance.Quarterly, "2024-Q1", date(2024, time.February, 10), now)
	assert.NoError(t, err)

	_, err = compliance.ValidateCompletionDate(compliance.Quarterly, "2024-Q1", date(2024, time.April, 2), now)
	require.Error(t, err)
	assert.ErrorIs(t, err, compliance.ErrDateOutOfRange)

	b, err := compliance.ValidateCompletionDate(compliance.Weekly, "2024-W10", date(2019, time.April, 2), now)
	assert.NoError(t, err)
	assert.True(t, b.Fallback)
}

func TestParseFrequency(t *testing.T) {
	f, err := compliance.ParseFrequency("Bi-Annual")
	require.NoError(t, err)
	assert.Equal(t, compliance.BiAnnual, f)

	f, err = compliance.ParseFrequency("biannual")
	require.NoError(t, err)
	assert.Equal(t, compliance.BiAnnual, f)

	_, err = compliance.ParseFrequency("daily")
	assert.Error(t, err)
}
