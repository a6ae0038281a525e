package employees

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/notify"
)

const subject = "employee"

// Service implements the employee operations.
type Service struct {
	repo  Repository
	audit generic.AuditLog
	bus   notify.Publisher
	now   func() time.Time
}

// NewService creates an employee service. audit and bus may be nil.
func NewService(repo Repository, audit generic.AuditLog, bus notify.Publisher) *Service {
	return &Service{repo: repo, audit: audit, bus: bus, now: time.Now}
}

// Create validates in and stores a new active employee.
func (s *Service) Create(ctx context.Context, in Input) (*Employee, error) {
	e, err := s.build(Employee{}, in)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	e.ID = uuid.NewString()
	e.CreatedAt, e.UpdatedAt = now, now

	if err := s.repo.SaveEmployee(ctx, e); err != nil {
		return nil, err
	}
	generic.Record(ctx, s.audit, generic.AuditCreated, subject, e.ID, map[string]any{"name": e.Name})
	notify.Publish(ctx, s.bus, notify.TopicEmployees)
	return &e, nil
}

// Update replaces the writable fields of an existing employee.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Employee, error) {
	existing, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	e, err := s.build(*existing, in)
	if err != nil {
		return nil, err
	}
	e.UpdatedAt = s.now().UTC()

	if err := s.repo.SaveEmployee(ctx, e); err != nil {
		return nil, err
	}
	payload := map[string]any{"name": e.Name}
	if existing.Status != e.Status {
		payload["status"] = string(e.Status)
	}
	generic.Record(ctx, s.audit, generic.AuditUpdated, subject, e.ID, payload)
	notify.Publish(ctx, s.bus, notify.TopicEmployees)
	return &e, nil
}

// Get returns one employee or generic.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Employee, error) {
	return s.repo.GetEmployee(ctx, id)
}

// List returns employees ordered by name.
func (s *Service) List(ctx context.Context, filter Filter) ([]Employee, error) {
	if filter.Status != "" && filter.Status != StatusActive && filter.Status != StatusLeft {
		return nil, generic.NewValidationError("status", "must be one of: active left")
	}
	return s.repo.ListEmployees(ctx, filter)
}

// Delete removes an employee permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	generic.Record(ctx, s.audit, generic.AuditDeleted, subject, id, nil)
	notify.Publish(ctx, s.bus, notify.TopicEmployees)
	return nil
}

// Branches returns the distinct branch names in use, sorted.
func (s *Service) Branches(ctx context.Context) ([]string, error) {
	return s.repo.ListBranches(ctx)
}

// build applies in over base after validation.
func (s *Service) build(base Employee, in Input) (Employee, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Branch = strings.TrimSpace(in.Branch)
	in.JobTitle = strings.TrimSpace(in.JobTitle)
	in.HireDate = strings.TrimSpace(in.HireDate)

	if err := generic.Validate(in); err != nil {
		return Employee{}, err
	}

	e := base
	e.Name = in.Name
	e.Email = in.Email
	e.Branch = in.Branch
	e.JobTitle = in.JobTitle
	e.HireDate = generic.TimePoint{}
	if in.HireDate != "" {
		d, err := generic.ParseDate(in.HireDate)
		if err != nil {
			return Employee{}, generic.NewValidationError("hire_date", fmt.Sprintf("invalid date %q", in.HireDate))
		}
		e.HireDate = d
	}
	switch {
	case in.Status != "":
		e.Status = Status(in.Status)
	case e.Status == "":
		e.Status = StatusActive
	}
	return e, nil
}

// WithClock replaces the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}
