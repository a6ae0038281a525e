package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/hrdesk/compliance"
	"github.com/warp/hrdesk/employees"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/sheets"
)

// ImportResult summarises a completion-record import.
type ImportResult struct {
	Created int                  `json:"created"`
	Errors  []employees.RowError `json:"errors"`
}

// ErrMissingEmployeeColumn is returned when no column identifies the employee.
var ErrMissingEmployeeColumn = errors.New("no employee column found (expected \"employee id\", \"email\" or \"name\")")

// ImportRecords adds one record per spreadsheet row. Employees are matched
// by ID, then email, then exact name. Rows without a period column use
// defaultPeriod. Rejected rows are reported; the rest are stored.
func (s *Service) ImportRecords(ctx context.Context, trackerID string, t *sheets.Table, defaultPeriod compliance.PeriodID) (*ImportResult, error) {
	tracker, err := s.repo.GetTracker(ctx, trackerID)
	if err != nil {
		return nil, err
	}

	idCol := t.Column("employee_id", "id")
	emailCol := t.Column("email", "email_address")
	nameCol := t.Column("name", "employee", "employee_name", "full_name")
	if idCol < 0 && emailCol < 0 && nameCol < 0 {
		return nil, ErrMissingEmployeeColumn
	}
	periodCol := t.Column("period")
	completionCol := t.Column("completion", "completed", "completed_on", "date")
	statusCol := t.Column("status")
	notesCol := t.Column("notes", "note", "comments")

	staff, err := s.people.ListEmployees(ctx, employees.Filter{})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]string, len(staff))
	byEmail := make(map[string]string, len(staff))
	byName := make(map[string][]string, len(staff))
	for _, e := range staff {
		byID[e.ID] = e.ID
		if e.Email != "" {
			byEmail[strings.ToLower(e.Email)] = e.ID
		}
		key := strings.ToLower(e.Name)
		byName[key] = append(byName[key], e.ID)
	}

	if defaultPeriod == "" {
		defaultPeriod = compliance.CurrentPeriod(tracker.Frequency, s.now())
	}

	res := &ImportResult{Errors: []employees.RowError{}}
	for i, row := range t.Rows {
		line := i + 2
		fail := func(msg string) {
			res.Errors = append(res.Errors, employees.RowError{Line: line, Message: msg})
		}

		employeeID := ""
		switch {
		case byID[sheets.Cell(row, idCol)] != "":
			employeeID = byID[sheets.Cell(row, idCol)]
		case byEmail[strings.ToLower(sheets.Cell(row, emailCol))] != "":
			employeeID = byEmail[strings.ToLower(sheets.Cell(row, emailCol))]
		default:
			matches := byName[strings.ToLower(sheets.Cell(row, nameCol))]
			if len(matches) > 1 {
				fail(fmt.Sprintf("name %q matches %d employees; add an email column", sheets.Cell(row, nameCol), len(matches)))
				continue
			}
			if len(matches) == 1 {
				employeeID = matches[0]
			}
		}
		if employeeID == "" {
			fail("employee not found")
			continue
		}

		period := sheets.Cell(row, periodCol)
		if period == "" {
			period = string(defaultPeriod)
		}
		completion := sheets.Cell(row, completionCol)
		if d, ok := sheets.ParseDate(completion); ok {
			completion = d.Format(generic.DateLayout)
		}

		_, err := s.AddRecord(ctx, tracker.ID, RecordInput{
			EmployeeID: employeeID,
			Period:     period,
			Completion: completion,
			Status:     strings.ToLower(sheets.Cell(row, statusCol)),
			Notes:      sheets.Cell(row, notesCol),
		})
		if err != nil {
			if generic.IsClientError(err) {
				fail(err.Error())
				continue
			}
			return nil, err
		}
		res.Created++
	}
	return res, nil
}

// ExportTable renders a roster as a spreadsheet.
func ExportTable(r *Roster) *sheets.Table {
	t := &sheets.Table{Headers: []string{"Name", "Branch", "Period", "Status", "Completion", "Notes"}}
	for _, rs := range r.Statuses {
		completion, notes := "", ""
		if rs.Record != nil {
			completion = rs.Record.Completion.String()
			notes = rs.Record.Notes
		}
		t.Rows = append(t.Rows, []string{
			rs.Person.Name, rs.Person.Branch, string(r.Period), string(rs.Status), completion, notes,
		})
	}
	return t
}
