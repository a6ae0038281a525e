/*
Package recruitment handles job applications from the public careers form
through to hire.

WORKFLOW:

	new -> reviewing -> interview -> offered -> hired
	 \________\____________\___________\______-> rejected | withdrawn

  hired, rejected and withdrawn are terminal. Hire creates an employee
  record from the application in the same step that marks it hired.

SEE ALSO:
  - api/recruitment.go: The public, rate-limited intake endpoint
*/
package recruitment

import (
	"context"
	"time"
)

// Status is the stage of an application.
type Status string

const (
	StatusNew       Status = "new"
	StatusReviewing Status = "reviewing"
	StatusInterview Status = "interview"
	StatusOffered   Status = "offered"
	StatusHired     Status = "hired"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

// Statuses lists every stage in workflow order.
var Statuses = []Status{
	StatusNew, StatusReviewing, StatusInterview, StatusOffered,
	StatusHired, StatusRejected, StatusWithdrawn,
}

var forward = map[Status]Status{
	StatusNew:       StatusReviewing,
	StatusReviewing: StatusInterview,
	StatusInterview: StatusOffered,
	StatusOffered:   StatusHired,
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusHired || s == StatusRejected || s == StatusWithdrawn
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, st := range Statuses {
		if st == s {
			return true
		}
	}
	return false
}

// CanTransition reports whether from -> to is allowed. Stages may be
// skipped forwards (a strong candidate can go straight to interview) but
// never revisited.
func CanTransition(from, to Status) bool {
	if from.Terminal() || from == to {
		return false
	}
	if to == StatusRejected || to == StatusWithdrawn {
		return true
	}
	for s, ok := forward[from]; ok; s, ok = forward[s] {
		if s == to {
			return true
		}
	}
	return false
}

// Application is one candidate's application.
type Application struct {
	ID          string
	Position    string
	Name        string
	Email       string
	Phone       string
	Branch      string
	CoverLetter string
	Source      string // e.g. "careers_page", "referral"
	Status      Status
	Notes       string
	EmployeeID  string // set once hired
	SubmittedAt time.Time
	UpdatedAt   time.Time
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Status   Status
	Position string
	Branch   string
}

// Repository persists applications.
type Repository interface {
	SaveApplication(ctx context.Context, a Application) error
	GetApplication(ctx context.Context, id string) (*Application, error)
	// ListApplications orders newest first.
	ListApplications(ctx context.Context, filter Filter) ([]Application, error)
	DeleteApplication(ctx context.Context, id string) error
}

// SubmitInput is the public application form.
type SubmitInput struct {
	Position    string `json:"position" validate:"required,max=200"`
	Name        string `json:"name" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email,max=320"`
	Phone       string `json:"phone" validate:"omitempty,max=40"`
	Branch      string `json:"branch" validate:"max=100"`
	CoverLetter string `json:"cover_letter" validate:"max=10000"`
	Source      string `json:"source" validate:"max=100"`
}

// TransitionInput moves an application to another stage.
type TransitionInput struct {
	Status string `json:"status" validate:"required,oneof=new reviewing interview offered hired rejected withdrawn"`
	Note   string `json:"note" validate:"max=2000"`
}

// HireInput completes a hire.
type HireInput struct {
	HireDate string `json:"hire_date" validate:"required,datetime=2006-01-02"`
	JobTitle string `json:"job_title" validate:"max=200"`
	Branch   string `json:"branch" validate:"max=100"`
}
