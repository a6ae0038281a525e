package compliance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hrdesk/compliance"
)

func TestYearRange_HardcodedEpoch(t *testing.T) {
	from, to := compliance.YearRange(date(2026, time.October, 19))
	assert.Equal(t, 2025, from)
	assert.Equal(t, 2026, to)

	// The epoch holds even when "now" is earlier than it.
	from, to = compliance.YearRange(date(2024, time.March, 1))
	assert.Equal(t, 2025, from)
	assert.Equal(t, 2024, to)

	from, to = compliance.YearRange(date(2033, time.March, 1))
	assert.Equal(t, 2028, from)
	assert.Equal(t, 2033, to)
}

func TestListPeriods_MonthlyNewestFirstUpToCurrent(t *testing.T) {
	// GIVEN: Monthly tracker, now is 2026-10-19
	// WHEN: Listing periods
	// THEN: Oct 2026 back to Jan 2025, newest first, current flagged, no future months

	now := date(2026, time.October, 19)
	people := []compliance.Person{alice, bob}
	records := []compliance.Record{
		{PersonID: "alice", Period: "2026-10", Completion: compliance.ParseCompletion("2026-10-02")},
		{PersonID: "bob", Period: "2026-10", Status: compliance.RecordPending},
		{PersonID: "alice", Period: "2025-01", Completion: compliance.ParseCompletion("N/A")},
		{PersonID: "bob", Period: "2025-01", Completion: compliance.ParseCompletion("2025-01-20")},
	}

	list := compliance.ListPeriods(compliance.Monthly, records, people, now)

	require.Len(t, list, 10+12)
	assert.Equal(t, compliance.PeriodID("2026-10"), list[0].Period)
	assert.True(t, list[0].IsCurrent)
	assert.Equal(t, 2, list[0].RecordCount)
	assert.Equal(t, 1, list[0].CompletedCount)
	assert.Equal(t, "50", list[0].CompletionRate.String())

	last := list[len(list)-1]
	assert.Equal(t, compliance.PeriodID("2025-01"), last.Period)
	assert.False(t, last.IsCurrent)
	assert.Equal(t, "100", last.CompletionRate.String())

	for _, ps := range list[1:] {
		assert.False(t, ps.IsCurrent)
		assert.Nil(t, ps.ArchiveDue)
		assert.False(t, ps.DownloadAvailable)
	}
}

func TestListPeriods_CompletionCountsRosterPeopleOnce(t *testing.T) {
	now := date(2025, time.June, 1)
	records := []compliance.Record{
		{PersonID: "alice", Period: "2025", Completion: compliance.ParseCompletion("2025-02-01")},
		{PersonID: "alice", Period: "2025", Completion: compliance.ParseCompletion("2025-03-01")},
		{PersonID: "former-employee", Period: "2025", Completion: compliance.ParseCompletion("2025-03-01")},
	}

	list := compliance.ListPeriods(compliance.Annual, records, []compliance.Person{alice, bob}, now)

	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].RecordCount)
	assert.Equal(t, 1, list[0].CompletedCount)
	assert.Equal(t, "50", list[0].CompletionRate.String())
}

func TestListPeriods_NoPeopleMeansZeroRate(t *testing.T) {
	list := compliance.ListPeriods(compliance.Quarterly, nil, nil, date(2025, time.May, 1))

	require.Len(t, list, 2)
	assert.Equal(t, compliance.PeriodID("2025-Q2"), list[0].Period)
	assert.Equal(t, compliance.PeriodID("2025-Q1"), list[1].Period)
	assert.True(t, list[1].CompletionRate.IsZero())
}

func TestListPeriods_RetentionWindow(t *testing.T) {
	// GIVEN: Annual tracker evaluated on 2031-10-01
	// THEN: 2026 is five years old: archive due 2032-01-01, download open from Oct 1
	//       2027 is not yet eligible

	now := date(2031, time.October, 1)
	list := compliance.ListPeriods(compliance.Annual, nil, []compliance.Person{alice}, now)

	byPeriod := map[compliance.PeriodID]compliance.PeriodSummary{}
	for _, ps := range list {
		byPeriod[ps.Period] = ps
	}
	require.Contains(t, byPeriod, compliance.PeriodID("2026"))
	assert.NotContains(t, byPeriod, compliance.PeriodID("2025"))

	p2026 := byPeriod["2026"]
	require.NotNil(t, p2026.ArchiveDue)
	assert.Equal(t, date(2032, time.January, 1), *p2026.ArchiveDue)
	assert.True(t, p2026.DownloadAvailable)

	p2027 := byPeriod["2027"]
	assert.Nil(t, p2027.ArchiveDue)
	assert.False(t, p2027.DownloadAvailable)

	// A day earlier the download window for 2026 is still closed.
	earlier := compliance.ListPeriods(compliance.Annual, nil, nil, date(2031, time.September, 30))
	for _, ps := range earlier {
		if ps.Period == "2026" {
			assert.False(t, ps.DownloadAvailable)
			assert.NotNil(t, ps.ArchiveDue)
		}
	}
}

func TestListPeriods_Weekly(t *testing.T) {
	now := date(2025, time.January, 20)
	list := compliance.ListPeriods(compliance.Weekly, nil, nil, now)

	require.NotEmpty(t, list)
	assert.Equal(t, compliance.CurrentPeriod(compliance.Weekly, now), list[0].Period)
	assert.Equal(t, compliance.PeriodID("2025-W01"), list[len(list)-1].Period)
}
