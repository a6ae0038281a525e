package timeoff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/hrdesk/employees"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/notify"
)

// Employees looks up the requesting employee.
type Employees interface {
	GetEmployee(ctx context.Context, id string) (*employees.Employee, error)
}

// Options configures the leave rules.
type Options struct {
	Allowances Allowances         // nil means DefaultAllowances
	Year       generic.YearConfig // leave-year boundaries
}

// =============================================================================
// REQUEST SERVICE - Handles the leave request lifecycle
// =============================================================================

type Service struct {
	repo       Repository
	people     Employees
	audit      generic.AuditLog
	bus        notify.Publisher
	allowances Allowances
	year       generic.YearConfig
	now        func() time.Time
}

// NewService creates a leave service. audit and bus may be nil.
func NewService(repo Repository, people Employees, audit generic.AuditLog, bus notify.Publisher, opts Options) *Service {
	if opts.Allowances == nil {
		opts.Allowances = DefaultAllowances()
	}
	return &Service{
		repo:       repo,
		people:     people,
		audit:      audit,
		bus:        bus,
		allowances: opts.Allowances,
		year:       opts.Year,
		now:        time.Now,
	}
}

// WithClock replaces the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CurrentYear is the starting year of the leave year containing today.
func (s *Service) CurrentYear() int {
	return s.year.YearFor(generic.DateOf(s.now())).Start.Year()
}

// =============================================================================
// SUBMIT - Validation, overlap and balance checks
// =============================================================================

// MaxRequestDays caps the calendar span of one request: a full leave year
// plus one day, so a single request touches at most two leave years.
const MaxRequestDays = 366

// Submit creates a pending request.
//
// Checks, in order (nothing is written unless all pass):
//   - dates parse, end is not before start, the span is at most MaxRequestDays
//   - the range contains at least one workday for the employee's branch
//   - no overlap with the employee's pending or approved requests
//   - enough allowance in every leave year the range touches
//
// The overlap and allowance checks run in the same transaction as the
// insert when the repository supports it.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*LeaveRequest, error) {
	if err := generic.Validate(in); err != nil {
		return nil, err
	}
	start, _ := generic.ParseDate(in.StartDate)
	end, _ := generic.ParseDate(in.EndDate)
	period := generic.Period{Start: start, End: end}
	if !period.Valid() {
		return nil, generic.NewValidationError("end_date", "must not be before start_date")
	}
	if end.After(start.AddDays(MaxRequestDays - 1)) {
		return nil, generic.NewValidationError("end_date", fmt.Sprintf("a request may cover at most %d days", MaxRequestDays))
	}

	emp, err := s.people.GetEmployee(ctx, in.EmployeeID)
	if err != nil {
		if errors.Is(err, generic.ErrNotFound) {
			return nil, generic.NewValidationError("employee_id", "unknown employee")
		}
		return nil, err
	}
	cal, err := s.calendar(ctx, emp.Branch)
	if err != nil {
		return nil, err
	}
	workdays := period.Workdays(cal, emp.Branch)
	if len(workdays) == 0 {
		return nil, generic.NewValidationError("start_date", "the requested range contains no working days")
	}

	leaveType := LeaveType(in.Type)
	now := s.now().UTC()
	req := LeaveRequest{
		ID:         uuid.NewString(),
		EmployeeID: emp.ID,
		Type:       leaveType,
		StartDate:  start,
		EndDate:    end,
		Days:       generic.NewAmountFromInt(len(workdays), generic.UnitDays),
		Reason:     strings.TrimSpace(in.Reason),
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	apply := func(repo Repository) error {
		if l, ok := repo.(EmployeeLocker); ok {
			if err := l.LockEmployee(ctx, emp.ID); err != nil {
				return err
			}
		}
		if err := checkOverlap(ctx, repo, emp.ID, period); err != nil {
			return err
		}
		for _, year := range s.yearsTouched(period) {
			requested := countIn(workdays, year)
			bal, err := s.balanceFor(ctx, repo, emp, leaveType, year, cal)
			if err != nil {
				return err
			}
			if !bal.Unlimited && requested.GreaterThan(bal.Remaining) {
				return &generic.InsufficientBalanceError{
					EmployeeID: emp.ID,
					LeaveType:  string(leaveType),
					Available:  bal.Remaining,
					Requested:  requested,
				}
			}
		}
		return repo.SaveRequest(ctx, req)
	}
	if txr, ok := s.repo.(TxRepository); ok {
		err = txr.WithLeaveTx(ctx, apply)
	} else {
		err = apply(s.repo)
	}
	if err != nil {
		return nil, err
	}

	generic.Record(ctx, s.audit, generic.AuditCreated, "leave_request", req.ID, map[string]any{
		"employee_id": req.EmployeeID,
		"type":        string(req.Type),
		"days":        req.Days.Value.String(),
	})
	notify.Publish(ctx, s.bus, notify.TopicLeave)
	return &req, nil
}

func checkOverlap(ctx context.Context, repo Repository, employeeID string, p generic.Period) error {
	existing, err := repo.ListRequests(ctx, Filter{EmployeeID: employeeID, From: p.Start, To: p.End})
	if err != nil {
		return err
	}
	for _, r := range existing {
		if r.Status.Reserves() && r.Period().Overlaps(p) {
			return fmt.Errorf("%w: overlaps %s %s request %s", generic.ErrConflict, r.Status, r.Type, r.Period())
		}
	}
	return nil
}

// =============================================================================
// DECISIONS - Approve, reject, cancel
// =============================================================================

// Approve approves a pending request.
func (s *Service) Approve(ctx context.Context, id, note string) (*LeaveRequest, error) {
	return s.decide(ctx, id, StatusApproved, note, generic.AuditRequestApproved)
}

// Reject rejects a pending request.
func (s *Service) Reject(ctx context.Context, id, note string) (*LeaveRequest, error) {
	return s.decide(ctx, id, StatusRejected, note, generic.AuditRequestRejected)
}

// Cancel cancels a pending or approved request, returning its days to the balance.
func (s *Service) Cancel(ctx context.Context, id, note string) (*LeaveRequest, error) {
	return s.decide(ctx, id, StatusCanceled, note, generic.AuditRequestCanceled)
}

// decide performs the read-check-write of a status change inside one
// transaction when the repository supports it.
func (s *Service) decide(ctx context.Context, id string, to RequestStatus, note string, action generic.AuditAction) (*LeaveRequest, error) {
	var out *LeaveRequest
	apply := func(repo Repository) error {
		req, err := repo.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(req.Status, to) {
			return &generic.TransitionError{Kind: "leave request", From: string(req.Status), To: string(to)}
		}

		now := s.now().UTC()
		req.Status = to
		req.DecidedBy = generic.ActorFrom(ctx)
		req.DecidedAt = &now
		req.DecisionNote = strings.TrimSpace(note)
		req.UpdatedAt = now
		if err := repo.SaveRequest(ctx, *req); err != nil {
			return err
		}
		out = req
		return nil
	}

	var err error
	if txr, ok := s.repo.(TxRepository); ok {
		err = txr.WithLeaveTx(ctx, apply)
	} else {
		err = apply(s.repo)
	}
	if err != nil {
		return nil, err
	}

	generic.Record(ctx, s.audit, action, "leave_request", out.ID, map[string]any{
		"employee_id": out.EmployeeID,
		"note":        out.DecisionNote,
	})
	notify.Publish(ctx, s.bus, notify.TopicLeave)
	return out, nil
}

// Get returns one request.
func (s *Service) Get(ctx context.Context, id string) (*LeaveRequest, error) {
	return s.repo.GetRequest(ctx, id)
}

// List returns requests matching filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]LeaveRequest, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, generic.NewValidationError("type", "unknown leave type")
	}
	return s.repo.ListRequests(ctx, filter)
}

// =============================================================================
// BALANCE
// =============================================================================

// Balance returns the allowance standing for the leave year starting in year.
func (s *Service) Balance(ctx context.Context, employeeID string, leaveType LeaveType, year int) (*Balance, error) {
	if !leaveType.Valid() {
		return nil, generic.NewValidationError("type", "unknown leave type")
	}
	emp, err := s.people.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	cal, err := s.calendar(ctx, emp.Branch)
	if err != nil {
		return nil, err
	}
	return s.balanceFor(ctx, s.repo, emp, leaveType, s.year.YearStarting(year), cal)
}

func (s *Service) balanceFor(ctx context.Context, repo Repository, emp *employees.Employee, leaveType LeaveType, year generic.Period, cal generic.HolidayCalendar) (*Balance, error) {
	reqs, err := repo.ListRequests(ctx, Filter{EmployeeID: emp.ID, Type: leaveType, From: year.Start, To: year.End})
	if err != nil {
		return nil, err
	}

	taken, pending := decimal.Zero, decimal.Zero
	for _, r := range reqs {
		if !r.Status.Reserves() {
			continue
		}
		n := countIn(r.Period().Workdays(cal, emp.Branch), year).Value
		if r.Status == StatusApproved {
			taken = taken.Add(n)
		} else {
			pending = pending.Add(n)
		}
	}

	b := &Balance{
		EmployeeID: emp.ID,
		Type:       leaveType,
		Year:       year,
		Taken:      days(taken),
		Pending:    days(pending),
		Remaining:  days(decimal.Zero),
	}
	allowance, bounded := s.allowances[leaveType]
	if !bounded {
		b.Unlimited = true
		b.Allowance = days(decimal.Zero)
		return b, nil
	}
	b.Allowance = allowance
	b.Remaining = allowance.Sub(b.Taken).Sub(b.Pending)
	return b, nil
}

// yearsTouched returns every leave year overlapping p, earliest first.
func (s *Service) yearsTouched(p generic.Period) []generic.Period {
	var years []generic.Period
	for y := s.year.YearFor(p.Start); !y.Start.After(p.End); y = s.year.YearFor(y.End.AddDays(1)) {
		years = append(years, y)
	}
	return years
}

func countIn(daysList []generic.TimePoint, p generic.Period) generic.Amount {
	n := 0
	for _, d := range daysList {
		if p.Contains(d) {
			n++
		}
	}
	return generic.NewAmountFromInt(n, generic.UnitDays)
}
