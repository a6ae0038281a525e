// Package timeoff implements the leave request workflow: submission,
// approval, cancellation, allowance balances, and the company holiday
// calendar that leave day counts skip.
package timeoff

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/hrdesk/generic"
)

// =============================================================================
// LEAVE TYPES
// =============================================================================

// LeaveType is a kind of leave.
type LeaveType string

const (
	LeaveAnnual      LeaveType = "annual"
	LeaveSick        LeaveType = "sick"
	LeavePersonal    LeaveType = "personal"
	LeaveParental    LeaveType = "parental"
	LeaveBereavement LeaveType = "bereavement"
	LeaveUnpaid      LeaveType = "unpaid"
)

// LeaveTypes lists every leave type.
var LeaveTypes = []LeaveType{LeaveAnnual, LeaveSick, LeavePersonal, LeaveParental, LeaveBereavement, LeaveUnpaid}

// Valid reports whether t is a known leave type.
func (t LeaveType) Valid() bool {
	for _, lt := range LeaveTypes {
		if lt == t {
			return true
		}
	}
	return false
}

// Allowances is the yearly allowance per leave type in days. Types missing
// from the map are unbounded.
type Allowances map[LeaveType]generic.Amount

// DefaultAllowances is a UK-style allowance table (28 days statutory annual
// leave including bank holidays, 20 net of them).
func DefaultAllowances() Allowances {
	return Allowances{
		LeaveAnnual:      generic.NewAmountFromInt(20, generic.UnitDays),
		LeavePersonal:    generic.NewAmountFromInt(3, generic.UnitDays),
		LeaveParental:    generic.NewAmountFromInt(90, generic.UnitDays),
		LeaveBereavement: generic.NewAmountFromInt(5, generic.UnitDays),
	}
}

// =============================================================================
// REQUEST STATUS
// =============================================================================

// RequestStatus is the state of a leave request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
	StatusCanceled RequestStatus = "canceled"
)

var transitions = map[RequestStatus][]RequestStatus{
	StatusPending:  {StatusApproved, StatusRejected, StatusCanceled},
	StatusApproved: {StatusCanceled},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to RequestStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Reserves reports whether a request in this status counts against the allowance.
func (s RequestStatus) Reserves() bool {
	return s == StatusPending || s == StatusApproved
}

// =============================================================================
// LEAVE REQUEST
// =============================================================================

// LeaveRequest is one request for leave over an inclusive date range.
type LeaveRequest struct {
	ID           string
	EmployeeID   string
	Type         LeaveType
	StartDate    generic.TimePoint
	EndDate      generic.TimePoint
	Days         generic.Amount // workdays in the range, excluding holidays
	Reason       string
	Status       RequestStatus
	DecidedBy    string
	DecidedAt    *time.Time
	DecisionNote string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Period returns the requested date range.
func (r LeaveRequest) Period() generic.Period {
	return generic.Period{Start: r.StartDate, End: r.EndDate}
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	EmployeeID string
	Type       LeaveType
	Status     RequestStatus
	From       generic.TimePoint // requests ending on or after From
	To         generic.TimePoint // requests starting on or before To
}

// Balance is the standing of one employee's allowance for one leave year.
type Balance struct {
	EmployeeID string
	Type       LeaveType
	Year       generic.Period
	Unlimited  bool
	Allowance  generic.Amount
	Taken      generic.Amount // approved days in the year
	Pending    generic.Amount // pending days in the year
	Remaining  generic.Amount // allowance - taken - pending; zero when unlimited
}

// =============================================================================
// STORAGE
// =============================================================================

// Repository persists leave requests and holidays.
type Repository interface {
	SaveRequest(ctx context.Context, r LeaveRequest) error
	GetRequest(ctx context.Context, id string) (*LeaveRequest, error)
	ListRequests(ctx context.Context, filter Filter) ([]LeaveRequest, error)

	SaveHoliday(ctx context.Context, h generic.Holiday) error
	DeleteHoliday(ctx context.Context, id string) error
	// ListHolidays returns branch-specific and company-wide holidays. An
	// empty branch returns every holiday.
	ListHolidays(ctx context.Context, branch string) ([]generic.Holiday, error)
}

// TxRepository runs fn inside a single database transaction.
type TxRepository interface {
	Repository
	WithLeaveTx(ctx context.Context, fn func(Repository) error) error
}

// EmployeeLocker serialises leave writes for one employee until the
// surrounding transaction ends.
type EmployeeLocker interface {
	LockEmployee(ctx context.Context, employeeID string) error
}

// SubmitInput is a new leave request.
type SubmitInput struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=annual sick personal parental bereavement unpaid"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason     string `json:"reason" validate:"max=2000"`
}

// HolidayInput is a new holiday.
type HolidayInput struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Name      string `json:"name" validate:"required,max=200"`
	Branch    string `json:"branch" validate:"max=100"`
	Recurring bool   `json:"recurring"`
}

func days(d decimal.Decimal) generic.Amount { return generic.Amount{Value: d, Unit: generic.UnitDays} }
