package compliance

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RETENTION WINDOW
// =============================================================================

const (
	// EarliestYear is the first year the dashboard lists, whatever the
	// current date. It is a business constant and is not derived from "now".
	EarliestYear = 2025

	// ListingYears is how many years back from the current year are listed.
	ListingYears = 5

	// RetentionYears is the age at which a period's data may be downloaded.
	RetentionYears = 5

	// ArchiveAfterYears is the age at which a period's data is due for archive.
	ArchiveAfterYears = 6
)

// downloadOpens is the first day of the download window: Oct 1 of
// year+RetentionYears, three months ahead of the archive due date.
func downloadOpens(year int) time.Time {
	return time.Date(year+RetentionYears, time.October, 1, 0, 0, 0, 0, time.UTC)
}

// ArchiveDueDate is Jan 1 of year+ArchiveAfterYears.
func ArchiveDueDate(year int) time.Time {
	return time.Date(year+ArchiveAfterYears, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// YearRange returns the inclusive span of years to list for now.
func YearRange(now time.Time) (from, to int) {
	to = now.Year()
	from = to - ListingYears
	if from < EarliestYear {
		from = EarliestYear
	}
	return from, to
}

// =============================================================================
// PERIOD LISTING
// =============================================================================

// PeriodSummary describes one listed period.
type PeriodSummary struct {
	Period            PeriodID
	Year              int
	RecordCount       int
	CompletedCount    int
	CompletionRate    decimal.Decimal
	IsCurrent         bool
	ArchiveDue        *time.Time
	DownloadAvailable bool
}

// ListPeriods enumerates the periods of freq from the first listed year up
// to and including the current period, newest first.
//
// CompletionRate is the share of people holding a non-empty completion for
// the period. Each person on the roster counts at most once.
func ListPeriods(freq Frequency, records []Record, people []Person, now time.Time) []PeriodSummary {
	freq = freq.normalized()
	current := CurrentPeriod(freq, now)
	_, currentIndex, _ := parsePeriod(freq, current)
	from, to := YearRange(now)

	type tally struct {
		records   int
		completed map[string]bool
	}
	roster := make(map[string]bool, len(people))
	for _, p := range people {
		roster[p.ID] = true
	}
	tallies := make(map[PeriodID]*tally)
	for _, r := range records {
		t, ok := tallies[r.Period]
		if !ok {
			t = &tally{completed: make(map[string]bool)}
			tallies[r.Period] = t
		}
		t.records++
		if roster[r.PersonID] && !r.Completion.IsEmpty() {
			t.completed[r.PersonID] = true
		}
	}

	var out []PeriodSummary
	for year := to; year >= from; year-- {
		ids := PeriodsOfYear(freq, year)
		for i := len(ids) - 1; i >= 0; i-- {
			if year == to && i+1 > currentIndex {
				continue
			}
			id := ids[i]
			ps := PeriodSummary{
				Period:         id,
				Year:           year,
				IsCurrent:      id == current,
				CompletionRate: decimal.Zero,
			}
			if t, ok := tallies[id]; ok {
				ps.RecordCount = t.records
				ps.CompletedCount = len(t.completed)
				ps.CompletionRate = percent(ps.CompletedCount, len(people))
			}
			if now.Year()-year >= RetentionYears {
				due := ArchiveDueDate(year)
				ps.ArchiveDue = &due
			}
			ps.DownloadAvailable = !now.Before(downloadOpens(year))
			out = append(out, ps)
		}
	}
	return out
}
