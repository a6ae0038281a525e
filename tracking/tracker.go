/*
Package tracking runs the recurring compliance trackers.

PURPOSE:
  A tracker is one recurring obligation (supervision, appraisal, fire-safety
  training) with a frequency. Each completion is stored as a Record keyed by
  (tracker, employee, period). Rosters and period listings are computed on
  every request by the compliance package from the current employees and
  records; nothing derived is cached.

UNIQUENESS:
  The store rejects a second record for the same (tracker, employee,
  period) with generic.ErrConflict, so classification never has to choose
  between duplicates.

SEE ALSO:
  - compliance/: The period calculator and roster classifier
  - store/sqldb/tracking.go: Persistence
*/
package tracking

import (
	"context"
	"time"

	"github.com/warp/hrdesk/compliance"
)

// Tracker is one recurring compliance obligation.
type Tracker struct {
	ID          string
	Name        string
	Description string
	Frequency   compliance.Frequency
	CreatedAt   time.Time
}

// Record is a stored completion for one employee and period.
type Record struct {
	ID         string
	TrackerID  string
	EmployeeID string
	Period     compliance.PeriodID
	Completion string // a YYYY-MM-DD date or free text such as "N/A - on leave"
	Status     compliance.RecordStatus
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Compliance converts the stored record for classification.
func (r Record) Compliance() compliance.Record {
	return compliance.Record{
		PersonID:   r.EmployeeID,
		Period:     r.Period,
		Completion: compliance.ParseCompletion(r.Completion),
		Status:     r.Status,
		Notes:      r.Notes,
	}
}

// RecordFilter narrows ListRecords. Zero values match everything.
type RecordFilter struct {
	Period     compliance.PeriodID
	EmployeeID string
}

// Repository persists trackers and their records.
type Repository interface {
	SaveTracker(ctx context.Context, t Tracker) error
	GetTracker(ctx context.Context, id string) (*Tracker, error)
	ListTrackers(ctx context.Context) ([]Tracker, error)
	// DeleteTracker also deletes the tracker's records.
	DeleteTracker(ctx context.Context, id string) error

	// InsertRecord returns generic.ErrConflict for a duplicate
	// (tracker, employee, period).
	InsertRecord(ctx context.Context, r Record) error
	UpdateRecord(ctx context.Context, r Record) error
	GetRecord(ctx context.Context, id string) (*Record, error)
	DeleteRecord(ctx context.Context, id string) error
	ListRecords(ctx context.Context, trackerID string, filter RecordFilter) ([]Record, error)
}

// TrackerInput creates a tracker.
type TrackerInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Frequency   string `json:"frequency" validate:"required"`
}

// RecordInput creates a record.
type RecordInput struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Period     string `json:"period" validate:"required"`
	Completion string `json:"completion" validate:"max=500"`
	Status     string `json:"status" validate:"omitempty,oneof=completed compliant overdue pending"`
	Notes      string `json:"notes" validate:"max=2000"`
}

// RecordUpdate changes a record. Nil fields are left unchanged.
type RecordUpdate struct {
	Completion *string `json:"completion" validate:"omitempty,max=500"`
	Status     *string `json:"status" validate:"omitempty,oneof=completed compliant overdue pending"`
	Notes      *string `json:"notes" validate:"omitempty,max=2000"`
}
