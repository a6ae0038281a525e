/*
Package employees manages the employee register.

PURPOSE:
  The register is the roster every other view hangs off: compliance
  trackers classify each active employee, documents and leave belong to an
  employee, and a hired applicant becomes one.

LIFECYCLE:
  active -> left. Leavers stay in the register (their compliance history and
  documents are retained) but drop off current rosters. Delete is a hard
  delete and is only offered after an explicit confirmation in the UI.

SEE ALSO:
  - employees/import.go: Spreadsheet import
  - store/sqldb/employees.go: Persistence
*/
package employees

import (
	"context"
	"time"

	"github.com/warp/hrdesk/compliance"
	"github.com/warp/hrdesk/generic"
)

// Status is an employee's employment state.
type Status string

const (
	StatusActive Status = "active"
	StatusLeft   Status = "left"
)

// Employee is one person on the register.
type Employee struct {
	ID        string
	Name      string
	Email     string
	Branch    string
	JobTitle  string
	HireDate  generic.TimePoint // zero when unknown
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Person projects the employee onto the compliance roster.
func (e Employee) Person() compliance.Person {
	return compliance.Person{ID: e.ID, Name: e.Name, Branch: e.Branch}
}

// People projects a list of employees.
func People(list []Employee) []compliance.Person {
	out := make([]compliance.Person, len(list))
	for i, e := range list {
		out[i] = e.Person()
	}
	return out
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Branch string
	Status Status
	Search string // case-insensitive match on name, email or job title
}

// Repository persists employees.
type Repository interface {
	SaveEmployee(ctx context.Context, e Employee) error
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	FindEmployeeByEmail(ctx context.Context, email string) (*Employee, error)
	ListEmployees(ctx context.Context, filter Filter) ([]Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
	ListBranches(ctx context.Context) ([]string, error)
}

// Input is the writable part of an employee.
type Input struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"omitempty,email,max=320"`
	Branch   string `json:"branch" validate:"max=100"`
	JobTitle string `json:"job_title" validate:"max=200"`
	HireDate string `json:"hire_date" validate:"omitempty,datetime=2006-01-02"`
	Status   string `json:"status" validate:"omitempty,oneof=active left"`
}
