package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/notify"
	"github.com/warp/hrdesk/sheets"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ImportRow is one spreadsheet row mapped onto an employee.
type ImportRow struct {
	Line  int // 1-based line in the source file
	Input Input
}

// RowError reports a rejected row. Other rows are still imported.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportResult summarises a bulk import.
type ImportResult struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Errors  []RowError `json:"errors"`
}

var ErrMissingNameColumn = errors.New("no name column found (expected \"name\" or \"first name\" + \"last name\")")

// FromTable maps a spreadsheet onto import rows. Column names are matched
// loosely: "Name", "Full Name" and "Employee" all work.
func FromTable(t *sheets.Table) ([]ImportRow, error) {
	name := t.Column("name", "full_name", "employee", "employee_name")
	first := t.Column("first_name", "forename")
	last := t.Column("last_name", "surname")
	if name < 0 && (first < 0 || last < 0) {
		return nil, ErrMissingNameColumn
	}
	email := t.Column("email", "email_address", "work_email")
	branch := t.Column("branch", "location", "site")
	title := t.Column("job_title", "title", "role", "position")
	hired := t.Column("hire_date", "start_date", "date_hired", "started")
	status := t.Column("status", "employment_status")

	out := make([]ImportRow, 0, len(t.Rows))
	for i, row := range t.Rows {
		in := Input{
			Email:    sheets.Cell(row, email),
			Branch:   sheets.Cell(row, branch),
			JobTitle: sheets.Cell(row, title),
			Status:   importStatus(sheets.Cell(row, status)),
		}
		if name >= 0 {
			in.Name = sheets.Cell(row, name)
		} else {
			in.Name = strings.TrimSpace(sheets.Cell(row, first) + " " + sheets.Cell(row, last))
		}
		if raw := sheets.Cell(row, hired); raw != "" {
			if d, ok := sheets.ParseDate(raw); ok {
				in.HireDate = d.Format(generic.DateLayout)
			} else {
				in.HireDate = raw // fails validation with the raw value in the message
			}
		}
		out = append(out, ImportRow{Line: i + 2, Input: in})
	}
	return out, nil
}

func importStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return ""
	case "left", "leaver", "inactive", "terminated", "former":
		return string(StatusLeft)
	default:
		return string(StatusActive)
	}
}

var titleCaser = cases.Title(language.English)

// NormalizeName title-cases names typed entirely in upper or lower case.
// Mixed-case names ("McDonald", "de Souza") are left alone.
func NormalizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == strings.ToUpper(name) || name == strings.ToLower(name) {
		return titleCaser.String(strings.ToLower(name))
	}
	return name
}

// Import upserts rows. Existing employees are matched by email; rows
// without an email always create. Invalid rows are reported, not fatal.
func (s *Service) Import(ctx context.Context, rows []ImportRow) (*ImportResult, error) {
	res := &ImportResult{Errors: []RowError{}}
	seen := make(map[string]int)

	for _, row := range rows {
		in := row.Input
		in.Name = NormalizeName(in.Name)

		key := strings.ToLower(strings.TrimSpace(in.Email))
		if key != "" {
			if prev, dup := seen[key]; dup {
				res.Errors = append(res.Errors, RowError{Line: row.Line, Message: fmt.Sprintf("duplicate email, already on line %d", prev)})
				continue
			}
			seen[key] = row.Line
		}

		var existing *Employee
		if key != "" {
			e, err := s.repo.FindEmployeeByEmail(ctx, key)
			switch {
			case err == nil:
				existing = e
			case !errors.Is(err, generic.ErrNotFound):
				return nil, err
			}
		}

		base := Employee{}
		if existing != nil {
			base = *existing
		}
		e, err := s.build(base, in)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Line: row.Line, Message: err.Error()})
			continue
		}

		now := s.now().UTC()
		e.UpdatedAt = now
		if existing == nil {
			e.ID = uuid.NewString()
			e.CreatedAt = now
		}
		if err := s.repo.SaveEmployee(ctx, e); err != nil {
			if generic.IsClientError(err) {
				res.Errors = append(res.Errors, RowError{Line: row.Line, Message: err.Error()})
				continue
			}
			return nil, err
		}
		if existing == nil {
			res.Created++
		} else {
			res.Updated++
		}
	}

	if res.Created+res.Updated > 0 {
		generic.Record(ctx, s.audit, generic.AuditImported, subject, "", map[string]any{
			"created": res.Created,
			"updated": res.Updated,
			"errors":  len(res.Errors),
		})
		notify.Publish(ctx, s.bus, notify.TopicEmployees)
	}
	return res, nil
}

// ExportTable renders employees as a spreadsheet.
func ExportTable(list []Employee) *sheets.Table {
	t := &sheets.Table{Headers: []string{"Name", "Email", "Branch", "Job Title", "Hire Date", "Status"}}
	for _, e := range list {
		hire := ""
		if !e.HireDate.IsZero() {
			hire = e.HireDate.String()
		}
		t.Rows = append(t.Rows, []string{e.Name, e.Email, e.Branch, e.JobTitle, hire, string(e.Status)})
	}
	return t
}
