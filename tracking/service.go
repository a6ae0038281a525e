package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/hrdesk/compliance"
	"github.com/warp/hrdesk/employees"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/notify"
	"golang.org/x/sync/errgroup"
)

// People supplies the roster.
type People interface {
	GetEmployee(ctx context.Context, id string) (*employees.Employee, error)
	ListEmployees(ctx context.Context, filter employees.Filter) ([]employees.Employee, error)
}

// Service implements the tracker operations.
type Service struct {
	repo   Repository
	people People
	audit  generic.AuditLog
	bus    notify.Publisher
	now    func() time.Time
}

// NewService creates a tracking service. audit and bus may be nil.
func NewService(repo Repository, people People, audit generic.AuditLog, bus notify.Publisher) *Service {
	return &Service{repo: repo, people: people, audit: audit, bus: bus, now: time.Now}
}

// =============================================================================
// TRACKERS
// =============================================================================

// CreateTracker validates and stores a tracker.
func (s *Service) CreateTracker(ctx context.Context, in TrackerInput) (*Tracker, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := generic.Validate(in); err != nil {
		return nil, err
	}
	freq, err := compliance.ParseFrequency(in.Frequency)
	if err != nil {
		return nil, generic.NewValidationError("frequency", err.Error())
	}

	t := Tracker{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: strings.TrimSpace(in.Description),
		Frequency:   freq,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.SaveTracker(ctx, t); err != nil {
		return nil, err
	}
	generic.Record(ctx, s.audit, generic.AuditCreated, "tracker", t.ID, map[string]any{
		"name":      t.Name,
		"frequency": string(t.Frequency),
	})
	notify.Publish(ctx, s.bus, notify.TopicCompliance)
	return &t, nil
}

// GetTracker returns one tracker.
func (s *Service) GetTracker(ctx context.Context, id string) (*Tracker, error) {
	return s.repo.GetTracker(ctx, id)
}

// ListTrackers returns all trackers.
func (s *Service) ListTrackers(ctx context.Context) ([]Tracker, error) {
	return s.repo.ListTrackers(ctx)
}

// DeleteTracker removes a tracker and every record under it.
func (s *Service) DeleteTracker(ctx context.Context, id string) error {
	if err := s.repo.DeleteTracker(ctx, id); err != nil {
		return err
	}
	generic.Record(ctx, s.audit, generic.AuditDeleted, "tracker", id, nil)
	notify.Publish(ctx, s.bus, notify.TopicCompliance)
	return nil
}

// =============================================================================
// RECORDS
// =============================================================================

// RecordResult is a stored record plus a warning when the period key could
// not be resolved to a date range and the completion date went unchecked.
type RecordResult struct {
	Record  Record
	Bounds  compliance.Bounds
	Warning string
}

// AddRecord stores a completion for one employee and period.
//
// The period must match the tracker's frequency grammar. A date completion
// must lie within the period's bounds; free text is accepted as-is.
func (s *Service) AddRecord(ctx context.Context, trackerID string, in RecordInput) (*RecordResult, error) {
	in.Period = strings.TrimSpace(in.Period)
	in.Completion = strings.TrimSpace(in.Completion)
	if err := generic.Validate(in); err != nil {
		return nil, err
	}

	t, err := s.repo.GetTracker(ctx, trackerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.people.GetEmployee(ctx, in.EmployeeID); err != nil {
		if errors.Is(err, generic.ErrNotFound) {
			return nil, generic.NewValidationError("employee_id", "unknown employee")
		}
		return nil, err
	}

	period := compliance.PeriodID(in.Period)
	if !compliance.ValidPeriod(t.Frequency, period) {
		return nil, generic.NewValidationError("period",
			fmt.Sprintf("%q is not a valid %s period", in.Period, t.Frequency))
	}

	now := s.now()
	bounds, err := s.checkCompletion(t.Frequency, period, in.Completion, now)
	if err != nil {
		return nil, err
	}

	status := compliance.RecordStatus(in.Status)
	if status == "" {
		status = defaultStatus(in.Completion)
	}

	r := Record{
		ID:         uuid.NewString(),
		TrackerID:  t.ID,
		EmployeeID: in.EmployeeID,
		Period:     period,
		Completion: in.Completion,
		Status:     status,
		Notes:      strings.TrimSpace(in.Notes),
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
	if err := s.repo.InsertRecord(ctx, r); err != nil {
		return nil, err
	}
	generic.Record(ctx, s.audit, generic.AuditCreated, "record", r.ID, map[string]any{
		"tracker_id":  r.TrackerID,
		"employee_id": r.EmployeeID,
		"period":      string(r.Period),
	})
	notify.Publish(ctx, s.bus, notify.TopicCompliance)
	return &RecordResult{Record: r, Bounds: bounds, Warning: fallbackWarning(bounds)}, nil
}

// UpdateRecord changes a record's completion, status or notes.
func (s *Service) UpdateRecord(ctx context.Context, id string, in RecordUpdate) (*RecordResult, error) {
	if err := generic.Validate(in); err != nil {
		return nil, err
	}
	r, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := s.repo.GetTracker(ctx, r.TrackerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	bounds := compliance.PeriodBounds(t.Frequency, r.Period, now)
	if in.Completion != nil {
		completion := strings.TrimSpace(*in.Completion)
		if bounds, err = s.checkCompletion(t.Frequency, r.Period, completion, now); err != nil {
			return nil, err
		}
		r.Completion = completion
		if in.Status == nil {
			r.Status = defaultStatus(completion)
		}
	}
	if in.Status != nil {
		r.Status = compliance.RecordStatus(*in.Status)
	}
	if in.Notes != nil {
		r.Notes = strings.TrimSpace(*in.Notes)
	}
	r.UpdatedAt = now.UTC()

	if err := s.repo.UpdateRecord(ctx, *r); err != nil {
		return nil, err
	}
	generic.Record(ctx, s.audit, generic.AuditUpdated, "record", r.ID, map[string]any{
		"status": string(r.Status),
	})
	notify.Publish(ctx, s.bus, notify.TopicCompliance)
	return &RecordResult{Record: *r, Bounds: bounds, Warning: fallbackWarning(bounds)}, nil
}

// DeleteRecord removes a record.
func (s *Service) DeleteRecord(ctx context.Context, id string) error {
	if err := s.repo.DeleteRecord(ctx, id); err != nil {
		return err
	}
	generic.Record(ctx, s.audit, generic.AuditDeleted, "record", id, nil)
	notify.Publish(ctx, s.bus, notify.TopicCompliance)
	return nil
}

// ListRecords returns a tracker's records, optionally for one period.
func (s *Service) ListRecords(ctx context.Context, trackerID string, filter RecordFilter) ([]Record, error) {
	if _, err := s.repo.GetTracker(ctx, trackerID); err != nil {
		return nil, err
	}
	return s.repo.ListRecords(ctx, trackerID, filter)
}

// checkCompletion validates a completion value against the period. Dates
// must fall within the bounds unless the bounds are the fallback range.
func (s *Service) checkCompletion(freq compliance.Frequency, period compliance.PeriodID, raw string, now time.Time) (compliance.Bounds, error) {
	c := compliance.ParseCompletion(raw)
	if !c.IsDate() {
		return compliance.PeriodBounds(freq, period, now), nil
	}
	bounds, err := compliance.ValidateCompletionDate(freq, period, c.Date, now)
	if err != nil {
		return bounds, generic.NewValidationError("completion", err.Error())
	}
	return bounds, nil
}

func defaultStatus(completion string) compliance.RecordStatus {
	if completion == "" {
		return compliance.RecordPending
	}
	return compliance.RecordCompleted
}

func fallbackWarning(b compliance.Bounds) string {
	if !b.Fallback {
		return ""
	}
	return fmt.Sprintf("period could not be resolved to dates; completion date was not range-checked (assumed %s)", b)
}

// =============================================================================
// ROSTER AND PERIODS
// =============================================================================

// RosterQuery selects the roster to compute.
type RosterQuery struct {
	Period compliance.PeriodID // empty means the current period
	Branch string
}

// Roster is the classified roster of one tracker and period.
type Roster struct {
	Tracker  Tracker
	Period   compliance.PeriodID
	Bounds   compliance.Bounds
	Overdue  bool // the period has ended
	Statuses []compliance.RosterStatus
	Summary  compliance.Summary
}

// Roster classifies every active employee for one period. Employees and
// records are loaded concurrently; nothing is cached.
func (s *Service) Roster(ctx context.Context, trackerID string, q RosterQuery) (*Roster, error) {
	t, err := s.repo.GetTracker(ctx, trackerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	period := q.Period
	if period == "" {
		period = compliance.CurrentPeriod(t.Frequency, now)
	}

	var (
		staff   []employees.Employee
		records []Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		staff, err = s.people.ListEmployees(gctx, employees.Filter{Branch: q.Branch, Status: employees.StatusActive})
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.repo.ListRecords(gctx, t.ID, RecordFilter{Period: period})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	statuses := compliance.Classify(employees.People(staff), toCompliance(records), period, t.Frequency, now)
	return &Roster{
		Tracker:  *t,
		Period:   period,
		Bounds:   compliance.PeriodBounds(t.Frequency, period, now),
		Overdue:  compliance.IsOverdue(period, t.Frequency, now),
		Statuses: statuses,
		Summary:  compliance.Summarize(statuses),
	}, nil
}

// RecordIDs maps each roster row to its stored record ID, if any.
func (s *Service) RecordIDs(ctx context.Context, trackerID string, period compliance.PeriodID) (map[string]string, error) {
	records, err := s.repo.ListRecords(ctx, trackerID, RecordFilter{Period: period})
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(records))
	for _, r := range records {
		if _, seen := out[r.EmployeeID]; !seen {
			out[r.EmployeeID] = r.ID
		}
	}
	return out, nil
}

// Periods lists the tracker's periods, newest first, with completion rates
// measured against the current active roster.
func (s *Service) Periods(ctx context.Context, trackerID string) ([]compliance.PeriodSummary, error) {
	t, err := s.repo.GetTracker(ctx, trackerID)
	if err != nil {
		return nil, err
	}

	var (
		staff   []employees.Employee
		records []Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		staff, err = s.people.ListEmployees(gctx, employees.Filter{Status: employees.StatusActive})
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.repo.ListRecords(gctx, t.ID, RecordFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return compliance.ListPeriods(t.Frequency, toCompliance(records), employees.People(staff), s.now()), nil
}

func toCompliance(records []Record) []compliance.Record {
	out := make([]compliance.Record, len(records))
	for i, r := range records {
		out[i] = r.Compliance()
	}
	return out
}

// WithClock replaces the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}
