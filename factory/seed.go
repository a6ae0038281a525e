/*
Package factory loads seed documents into a running system.

PURPOSE:
  Turns a YAML description of a company (staff, compliance trackers and
  their history, documents, leave, holidays, accounts) into calls on the
  domain services. Everything goes through the same validation and audit
  path as the API, so a seed file can never create state the dashboard
  could not.

YAML SCHEMA:
  settings:
    company_name: Acme Care
    document_warning_days: "45"
  users:
    - {email: hr@example.com, name: Hana, role: hr, password: changeme123}
  employees:
    - key: amy                 # local handle used below; defaults to email
      name: Amy Ash
      email: amy@example.com
      branch: Leeds
      hire_date: 2020-01-15
  holidays:
    defaults: [2025]           # England & Wales bank holidays
    custom:
      - {date: 2025-08-01, name: Staff Day, branch: Leeds}
  trackers:
    - name: Supervision
      frequency: quarterly
      records:
        - {employee: amy, period: 2024-Q4, completion: 2024-11-05}
  documents:
    - {employee: amy, type: dbs, expires_on: 2027-03-01}
  leave:
    - {employee: amy, type: annual, start_date: 2025-03-03, end_date: 2025-03-07, status: approved}

RE-RUNNING:
  Accounts, employees (by email), trackers (by name), records, holidays and
  leave that already exist are skipped and counted, so loading the same file
  twice is harmless. Documents have no natural key and are added again.

SEE ALSO:
  - cmd/hrdesk/seed.go: The CLI entry point
*/
package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/warp/hrdesk/documents"
	"github.com/warp/hrdesk/employees"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/settings"
	"github.com/warp/hrdesk/timeoff"
	"github.com/warp/hrdesk/tracking"
	"github.com/warp/hrdesk/users"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// YAML SCHEMA TYPES
// =============================================================================

// Seed is a parsed seed document.
type Seed struct {
	Settings  map[string]string `yaml:"settings"`
	Users     []UserSeed        `yaml:"users" validate:"dive"`
	Employees []EmployeeSeed    `yaml:"employees" validate:"dive"`
	Holidays  HolidaySeed       `yaml:"holidays"`
	Trackers  []TrackerSeed     `yaml:"trackers" validate:"dive"`
	Documents []DocumentSeed    `yaml:"documents" validate:"dive"`
	Leave     []LeaveSeed       `yaml:"leave" validate:"dive"`
}

// UserSeed is a dashboard account.
type UserSeed struct {
	Email    string `yaml:"email" validate:"required"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role" validate:"required"`
	Password string `yaml:"password" validate:"required"`
}

// EmployeeSeed is one employee. Key is how later sections refer to them.
type EmployeeSeed struct {
	Key      string `yaml:"key"`
	Name     string `yaml:"name" validate:"required"`
	Email    string `yaml:"email"`
	Branch   string `yaml:"branch"`
	JobTitle string `yaml:"job_title"`
	HireDate string `yaml:"hire_date"`
	Status   string `yaml:"status"`
}

func (e EmployeeSeed) handle() string {
	if e.Key != "" {
		return e.Key
	}
	if e.Email != "" {
		return strings.ToLower(e.Email)
	}
	return e.Name
}

// HolidaySeed lists bank holiday years and custom holidays.
type HolidaySeed struct {
	Defaults []int                  `yaml:"defaults"`
	Custom   []timeoff.HolidayInput `yaml:"custom"`
}

// TrackerSeed is a tracker with its completion history.
type TrackerSeed struct {
	Name        string       `yaml:"name" validate:"required"`
	Description string       `yaml:"description"`
	Frequency   string       `yaml:"frequency" validate:"required"`
	Records     []RecordSeed `yaml:"records" validate:"dive"`
}

// RecordSeed is one completion record.
type RecordSeed struct {
	Employee   string `yaml:"employee" validate:"required"`
	Period     string `yaml:"period" validate:"required"`
	Completion string `yaml:"completion"`
	Status     string `yaml:"status"`
	Notes      string `yaml:"notes"`
}

// DocumentSeed is one employee document.
type DocumentSeed struct {
	Employee  string `yaml:"employee" validate:"required"`
	Type      string `yaml:"type" validate:"required"`
	Reference string `yaml:"reference"`
	IssuedOn  string `yaml:"issued_on"`
	ExpiresOn string `yaml:"expires_on"`
	Notes     string `yaml:"notes"`
}

// LeaveSeed is one leave request and the decision to apply to it.
type LeaveSeed struct {
	Employee  string `yaml:"employee" validate:"required"`
	Type      string `yaml:"type" validate:"required"`
	StartDate string `yaml:"start_date" validate:"required"`
	EndDate   string `yaml:"end_date" validate:"required"`
	Reason    string `yaml:"reason"`
	Status    string `yaml:"status" validate:"omitempty,oneof=pending approved rejected canceled"`
}

// Parse reads a seed document. Unknown keys are rejected so typos surface
// instead of being silently ignored.
func Parse(r io.Reader) (*Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
	}
	if err := generic.Validate(seed); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	if err := seed.checkReferences(); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	return &seed, nil
}

func (s *Seed) checkReferences() error {
	known := make(map[string]bool, len(s.Employees))
	for _, e := range s.Employees {
		h := e.handle()
		if known[h] {
			return generic.NewValidationError("employees", fmt.Sprintf("duplicate employee %q", h))
		}
		known[h] = true
	}
	missing := func(section, ref string) error {
		return generic.NewValidationError(section, fmt.Sprintf("unknown employee %q", ref))
	}
	for _, t := range s.Trackers {
		for _, r := range t.Records {
			if !known[r.Employee] {
				return missing("trackers.records", r.Employee)
			}
		}
	}
	for _, d := range s.Documents {
		if !known[d.Employee] {
			return missing("documents", d.Employee)
		}
	}
	for _, l := range s.Leave {
		if !known[l.Employee] {
			return missing("leave", l.Employee)
		}
	}
	return nil
}

// =============================================================================
// LOADER
// =============================================================================

// Services are the services a seed is loaded through. Any may be nil when
// the seed has no section for it.
type Services struct {
	Employees *employees.Service
	Tracking  *tracking.Service
	Documents *documents.Service
	Leave     *timeoff.Service
	Users     *users.Service
	Settings  *settings.Service
}

// Counts tallies one kind of row.
type Counts struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

func (c *Counts) add(created bool) {
	if created {
		c.Created++
	} else {
		c.Skipped++
	}
}

// Result summarises a load.
type Result struct {
	Settings  int    `json:"settings"`
	Users     Counts `json:"users"`
	Employees Counts `json:"employees"`
	Holidays  Counts `json:"holidays"`
	Trackers  Counts `json:"trackers"`
	Records   Counts `json:"records"`
	Documents Counts `json:"documents"`
	Leave     Counts `json:"leave"`
}

// Loader applies seeds.
type Loader struct {
	svc    Services
	logger *zap.Logger
}

// NewLoader creates a loader. logger may be nil.
func NewLoader(svc Services, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{svc: svc, logger: logger.Named("seed")}
}

// Load applies seed section by section. It stops at the first error that
// is not an "already exists" conflict; sections before it stay applied.
func (l *Loader) Load(ctx context.Context, seed *Seed) (*Result, error) {
	res := &Result{}
	steps := []struct {
		name string
		run  func(context.Context, *Seed, *Result, map[string]string) error
	}{
		{"settings", l.loadSettings},
		{"users", l.loadUsers},
		{"employees", l.loadEmployees},
		{"holidays", l.loadHolidays},
		{"trackers", l.loadTrackers},
		{"documents", l.loadDocuments},
		{"leave", l.loadLeave},
	}
	ids := make(map[string]string, len(seed.Employees))
	for _, step := range steps {
		if err := step.run(ctx, seed, res, ids); err != nil {
			return res, fmt.Errorf("%s: %w", step.name, err)
		}
	}
	l.logger.Info("seed loaded",
		zap.Int("employees", res.Employees.Created),
		zap.Int("trackers", res.Trackers.Created),
		zap.Int("records", res.Records.Created),
		zap.Int("documents", res.Documents.Created),
		zap.Int("leave", res.Leave.Created))
	return res, nil
}

func (l *Loader) loadSettings(ctx context.Context, seed *Seed, res *Result, _ map[string]string) error {
	for key, value := range seed.Settings {
		if err := l.svc.Settings.Set(ctx, settings.Key(key), value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		res.Settings++
	}
	return nil
}

func (l *Loader) loadUsers(ctx context.Context, seed *Seed, res *Result, _ map[string]string) error {
	for _, u := range seed.Users {
		name := u.Name
		if name == "" {
			name = u.Email
		}
		_, err := l.svc.Users.Create(ctx, users.CreateInput{Email: u.Email, Name: name, Role: u.Role, Password: u.Password})
		created, err := skipConflict(err)
		if err != nil {
			return fmt.Errorf("%s: %w", u.Email, err)
		}
		res.Users.add(created)
	}
	return nil
}

func (l *Loader) loadEmployees(ctx context.Context, seed *Seed, res *Result, ids map[string]string) error {
	for _, e := range seed.Employees {
		emp, err := l.svc.Employees.Create(ctx, employees.Input{
			Name:     e.Name,
			Email:    e.Email,
			Branch:   e.Branch,
			JobTitle: e.JobTitle,
			HireDate: e.HireDate,
			Status:   e.Status,
		})
		if errors.Is(err, generic.ErrConflict) {
			emp, err = l.findEmployee(ctx, e.Email)
			if err != nil {
				return fmt.Errorf("%s: %w", e.handle(), err)
			}
			ids[e.handle()] = emp.ID
			res.Employees.Skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", e.handle(), err)
		}
		ids[e.handle()] = emp.ID
		res.Employees.Created++
	}
	return nil
}

func (l *Loader) findEmployee(ctx context.Context, email string) (*employees.Employee, error) {
	list, err := l.svc.Employees.List(ctx, employees.Filter{Search: email})
	if err != nil {
		return nil, err
	}
	for i := range list {
		if strings.EqualFold(list[i].Email, email) {
			return &list[i], nil
		}
	}
	return nil, generic.ErrNotFound
}

func (l *Loader) loadHolidays(ctx context.Context, seed *Seed, res *Result, _ map[string]string) error {
	for _, year := range seed.Holidays.Defaults {
		added, err := l.svc.Leave.AddDefaults(ctx, year)
		if err != nil {
			return fmt.Errorf("bank holidays %d: %w", year, err)
		}
		res.Holidays.Created += added
		res.Holidays.Skipped += len(timeoff.BankHolidays(year)) - added
	}
	for _, h := range seed.Holidays.Custom {
		_, err := l.svc.Leave.CreateHoliday(ctx, h)
		created, err := skipConflict(err)
		if err != nil {
			return fmt.Errorf("%s %s: %w", h.Date, h.Name, err)
		}
		res.Holidays.add(created)
	}
	return nil
}

func (l *Loader) loadTrackers(ctx context.Context, seed *Seed, res *Result, ids map[string]string) error {
	if len(seed.Trackers) == 0 {
		return nil
	}
	existing, err := l.svc.Tracking.ListTrackers(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]string, len(existing))
	for _, t := range existing {
		byName[strings.ToLower(t.Name)] = t.ID
	}

	for _, ts := range seed.Trackers {
		id, ok := byName[strings.ToLower(strings.TrimSpace(ts.Name))]
		if ok {
			res.Trackers.Skipped++
		} else {
			t, err := l.svc.Tracking.CreateTracker(ctx, tracking.TrackerInput{
				Name:        ts.Name,
				Description: ts.Description,
				Frequency:   ts.Frequency,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", ts.Name, err)
			}
			id = t.ID
			res.Trackers.Created++
		}

		for _, rs := range ts.Records {
			_, err := l.svc.Tracking.AddRecord(ctx, id, tracking.RecordInput{
				EmployeeID: ids[rs.Employee],
				Period:     rs.Period,
				Completion: rs.Completion,
				Status:     rs.Status,
				Notes:      rs.Notes,
			})
			created, err := skipConflict(err)
			if err != nil {
				return fmt.Errorf("%s %s %s: %w", ts.Name, rs.Employee, rs.Period, err)
			}
			res.Records.add(created)
		}
	}
	return nil
}

func (l *Loader) loadDocuments(ctx context.Context, seed *Seed, res *Result, ids map[string]string) error {
	for _, d := range seed.Documents {
		_, err := l.svc.Documents.Create(ctx, documents.Input{
			EmployeeID: ids[d.Employee],
			Type:       d.Type,
			Reference:  d.Reference,
			IssuedOn:   d.IssuedOn,
			ExpiresOn:  d.ExpiresOn,
			Notes:      d.Notes,
		})
		if err != nil {
			return fmt.Errorf("%s %s: %w", d.Employee, d.Type, err)
		}
		res.Documents.Created++
	}
	return nil
}

func (l *Loader) loadLeave(ctx context.Context, seed *Seed, res *Result, ids map[string]string) error {
	for _, ls := range seed.Leave {
		req, err := l.svc.Leave.Submit(ctx, timeoff.SubmitInput{
			EmployeeID: ids[ls.Employee],
			Type:       ls.Type,
			StartDate:  ls.StartDate,
			EndDate:    ls.EndDate,
			Reason:     ls.Reason,
		})
		// An overlapping request means this one was loaded before.
		created, err := skipConflict(err)
		if err != nil {
			return fmt.Errorf("%s %s: %w", ls.Employee, ls.StartDate, err)
		}
		res.Leave.add(created)
		if !created {
			continue
		}

		switch timeoff.RequestStatus(ls.Status) {
		case timeoff.StatusApproved:
			_, err = l.svc.Leave.Approve(ctx, req.ID, "seeded")
		case timeoff.StatusRejected:
			_, err = l.svc.Leave.Reject(ctx, req.ID, "seeded")
		case timeoff.StatusCanceled:
			_, err = l.svc.Leave.Cancel(ctx, req.ID, "seeded")
		}
		if err != nil {
			return fmt.Errorf("%s %s: %w", ls.Employee, ls.StartDate, err)
		}
	}
	return nil
}

// skipConflict turns "already exists" into a skip.
func skipConflict(err error) (created bool, _ error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, generic.ErrConflict):
		return false, nil
	default:
		return false, err
	}
}
