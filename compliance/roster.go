package compliance

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// COMPLETION - date or free-text marker
// =============================================================================

// Completion is what a user entered to mark an obligation as met: either a
// calendar date or a free-text sentinel such as "N/A" or "NOT REQUIRED" for
// staff who joined before the obligation existed. Text is never date-parsed.
type Completion struct {
	Date time.Time
	Text string
}

var completionLayouts = []string{"2006-01-02", "02/01/2006", time.RFC3339}

// NewDateCompletion returns a dated completion.
func NewDateCompletion(d time.Time) Completion { return Completion{Date: dateOf(d)} }

// NewTextCompletion returns a free-text completion.
func NewTextCompletion(s string) Completion { return Completion{Text: strings.TrimSpace(s)} }

// ParseCompletion interprets raw form input. Anything that is not a
// recognised date is kept verbatim as text.
func ParseCompletion(raw string) Completion {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Completion{}
	}
	for _, layout := range completionLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return NewDateCompletion(t)
		}
	}
	return Completion{Text: raw}
}

func (c Completion) IsEmpty() bool { return c.Date.IsZero() && c.Text == "" }
func (c Completion) IsDate() bool  { return !c.Date.IsZero() }

func (c Completion) String() string {
	if c.IsDate() {
		return c.Date.Format("2006-01-02")
	}
	return c.Text
}

// =============================================================================
// RECORDS AND PEOPLE
// =============================================================================

// RecordStatus is the status stored on a completion record.
type RecordStatus string

const (
	RecordCompleted RecordStatus = "completed"
	RecordCompliant RecordStatus = "compliant"
	RecordOverdue   RecordStatus = "overdue"
	RecordPending   RecordStatus = "pending"
)

// Valid reports whether s is a known record status.
func (s RecordStatus) Valid() bool {
	switch s {
	case RecordCompleted, RecordCompliant, RecordOverdue, RecordPending:
		return true
	}
	return false
}

// Record states that one person met (or has not yet met) one period.
type Record struct {
	PersonID   string
	Period     PeriodID
	Completion Completion
	Status     RecordStatus
	Notes      string
}

// Person is a roster entry.
type Person struct {
	ID     string
	Name   string
	Branch string
}

// =============================================================================
// ROSTER STATUS
// =============================================================================

// Status is the derived classification of one person for one period.
type Status string

const (
	StatusCompliant Status = "compliant"
	StatusOverdue   Status = "overdue"
	StatusDue       Status = "due"
	// StatusPending is part of the status vocabulary but Classify never
	// produces it.
	StatusPending Status = "pending"
)

// RosterStatus pairs a person with their record (if any) and status.
type RosterStatus struct {
	Person Person
	Record *Record
	Status Status
}

// Classify derives one RosterStatus per person, in input order.
//
// When several records exist for the same person and period the first one
// in records wins.
func Classify(people []Person, records []Record, target PeriodID, freq Frequency, now time.Time) []RosterStatus {
	byPerson := make(map[string]*Record, len(records))
	for i := range records {
		r := &records[i]
		if r.Period != target {
			continue
		}
		if _, seen := byPerson[r.PersonID]; !seen {
			byPerson[r.PersonID] = r
		}
	}

	overdue := IsOverdue(target, freq, now)
	out := make([]RosterStatus, len(people))
	for i, p := range people {
		rs := RosterStatus{Person: p}
		if r, ok := byPerson[p.ID]; ok {
			rec := *r
			rs.Record = &rec
			rs.Status = recordStatus(rec)
		} else if overdue {
			rs.Status = StatusOverdue
		} else {
			rs.Status = StatusDue
		}
		out[i] = rs
	}
	return out
}

func recordStatus(r Record) Status {
	switch {
	case r.Status == RecordCompleted || !r.Completion.IsEmpty():
		return StatusCompliant
	case r.Status == RecordOverdue:
		return StatusOverdue
	default:
		return StatusDue
	}
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary tallies a classified roster.
type Summary struct {
	Total     int
	Compliant int
	Overdue   int
	Due       int
	Pending   int
	Branches  []BranchSummary
}

// BranchSummary is the completion of one branch.
type BranchSummary struct {
	Branch    string
	Total     int
	Compliant int
	Percent   decimal.Decimal
}

// CompletionPercent is Compliant / Total * 100 across the whole roster.
func (s Summary) CompletionPercent() decimal.Decimal {
	return percent(s.Compliant, s.Total)
}

// Summarize counts statuses overall and per branch. Branches are sorted by name.
func Summarize(statuses []RosterStatus) Summary {
	s := Summary{Total: len(statuses)}
	branches := make(map[string]*BranchSummary)

	for _, rs := range statuses {
		b, ok := branches[rs.Person.Branch]
		if !ok {
			b = &BranchSummary{Branch: rs.Person.Branch}
			branches[rs.Person.Branch] = b
		}
		b.Total++

		switch rs.Status {
		case StatusCompliant:
			s.Compliant++
			b.Compliant++
		case StatusOverdue:
			s.Overdue++
		case StatusDue:
			s.Due++
		case StatusPending:
			s.Pending++
		}
	}

	s.Branches = make([]BranchSummary, 0, len(branches))
	for _, b := range branches {
		b.Percent = percent(b.Compliant, b.Total)
		s.Branches = append(s.Branches, *b)
	}
	sort.Slice(s.Branches, func(i, j int) bool { return s.Branches[i].Branch < s.Branches[j].Branch })
	return s
}

var hundred = decimal.NewFromInt(100)

func percent(part, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).Mul(hundred).DivRound(decimal.NewFromInt(int64(total)), 4)
}
