package recruitment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/hrdesk/employees"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/notify"
)

const subject = "application"

// Staff creates the employee record for a hire.
type Staff interface {
	Create(ctx context.Context, in employees.Input) (*employees.Employee, error)
	Delete(ctx context.Context, id string) error
}

// Service implements the application workflow.
type Service struct {
	repo  Repository
	staff Staff
	audit generic.AuditLog
	bus   notify.Publisher
	now   func() time.Time
}

// NewService creates a recruitment service. audit and bus may be nil.
func NewService(repo Repository, staff Staff, audit generic.AuditLog, bus notify.Publisher) *Service {
	return &Service{repo: repo, staff: staff, audit: audit, bus: bus, now: time.Now}
}

// WithClock replaces the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Submit stores a new application from the careers form.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Application, error) {
	in.Position = strings.TrimSpace(in.Position)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Branch = strings.TrimSpace(in.Branch)
	if err := generic.Validate(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	a := Application{
		ID:          uuid.NewString(),
		Position:    in.Position,
		Name:        in.Name,
		Email:       in.Email,
		Phone:       in.Phone,
		Branch:      in.Branch,
		CoverLetter: strings.TrimSpace(in.CoverLetter),
		Source:      strings.TrimSpace(in.Source),
		Status:      StatusNew,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	if a.Source == "" {
		a.Source = "careers_page"
	}
	if err := s.repo.SaveApplication(ctx, a); err != nil {
		return nil, err
	}
	generic.Record(ctx, s.audit, generic.AuditCreated, subject, a.ID, map[string]any{"position": a.Position})
	notify.Publish(ctx, s.bus, notify.TopicApplications)
	return &a, nil
}

// Get returns one application.
func (s *Service) Get(ctx context.Context, id string) (*Application, error) {
	return s.repo.GetApplication(ctx, id)
}

// List returns applications newest first.
func (s *Service) List(ctx context.Context, filter Filter) ([]Application, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, generic.NewValidationError("status", "unknown application status")
	}
	return s.repo.ListApplications(ctx, filter)
}

// Delete removes an application.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteApplication(ctx, id); err != nil {
		return err
	}
	generic.Record(ctx, s.audit, generic.AuditDeleted, subject, id, nil)
	notify.Publish(ctx, s.bus, notify.TopicApplications)
	return nil
}

// Transition moves an application to another stage. Moving to hired goes
// through Hire, which needs a start date.
func (s *Service) Transition(ctx context.Context, id string, in TransitionInput) (*Application, error) {
	if err := generic.Validate(in); err != nil {
		return nil, err
	}
	to := Status(in.Status)
	if to == StatusHired {
		return nil, generic.NewValidationError("status", "use hire to complete a hire")
	}

	a, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	from := a.Status
	if !CanTransition(from, to) {
		return nil, &generic.TransitionError{Kind: subject, From: string(from), To: string(to)}
	}

	a.Status = to
	a.Notes = appendNote(a.Notes, in.Note)
	a.UpdatedAt = s.now().UTC()
	if err := s.repo.SaveApplication(ctx, *a); err != nil {
		return nil, err
	}
	generic.Record(ctx, s.audit, generic.AuditStatusChanged, subject, a.ID, map[string]any{
		"from": string(from),
		"to":   string(to),
	})
	notify.Publish(ctx, s.bus, notify.TopicApplications)
	return a, nil
}

// Hire creates an employee from the application and marks it hired. If the
// application cannot be saved the new employee is removed again.
func (s *Service) Hire(ctx context.Context, id string, in HireInput) (*Application, *employees.Employee, error) {
	if err := generic.Validate(in); err != nil {
		return nil, nil, err
	}
	a, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !CanTransition(a.Status, StatusHired) {
		return nil, nil, &generic.TransitionError{Kind: subject, From: string(a.Status), To: string(StatusHired)}
	}

	branch := strings.TrimSpace(in.Branch)
	if branch == "" {
		branch = a.Branch
	}
	title := strings.TrimSpace(in.JobTitle)
	if title == "" {
		title = a.Position
	}
	emp, err := s.staff.Create(ctx, employees.Input{
		Name:     a.Name,
		Email:    a.Email,
		Branch:   branch,
		JobTitle: title,
		HireDate: in.HireDate,
	})
	if err != nil {
		return nil, nil, err
	}

	from := a.Status
	a.Status = StatusHired
	a.EmployeeID = emp.ID
	a.UpdatedAt = s.now().UTC()
	if err := s.repo.SaveApplication(ctx, *a); err != nil {
		_ = s.staff.Delete(ctx, emp.ID)
		return nil, nil, err
	}
	generic.Record(ctx, s.audit, generic.AuditStatusChanged, subject, a.ID, map[string]any{
		"from":        string(from),
		"to":          string(StatusHired),
		"employee_id": emp.ID,
	})
	notify.Publish(ctx, s.bus, notify.TopicApplications)
	return a, emp, nil
}

func appendNote(notes, note string) string {
	note = strings.TrimSpace(note)
	switch {
	case note == "":
		return notes
	case notes == "":
		return note
	}
	return notes + "\n" + note
}
