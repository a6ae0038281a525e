package sqldb

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/timeoff"
)

// =============================================================================
// LEAVE REQUESTS (timeoff.Repository)
// =============================================================================

const requestColumns = `id, employee_id, leave_type, start_date, end_date, days, reason, status,
	decided_by, decided_at, decision_note, created_at, updated_at`

// WithLeaveTx runs fn in one transaction so a balance check and the write
// that depends on it cannot interleave with another approval.
func (s *Store) WithLeaveTx(ctx context.Context, fn func(timeoff.Repository) error) error {
	return s.WithTx(ctx, func(tx *Store) error { return fn(tx) })
}

// LockEmployee holds the employee's row until the transaction ends, so two
// submissions for the same person check their balance one after the other.
// SQLite runs on a single connection and needs no lock.
func (s *Store) LockEmployee(ctx context.Context, employeeID string) error {
	if s.driver != DriverPostgres {
		return nil
	}
	var id string
	err := s.queryRow(ctx, `SELECT id FROM employees WHERE id = ? FOR UPDATE`, employeeID).Scan(&id)
	return translate("employee", err)
}

// SaveRequest inserts or replaces a leave request.
func (s *Store) SaveRequest(ctx context.Context, r timeoff.LeaveRequest) error {
	query := `
		INSERT INTO leave_requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			decided_by = excluded.decided_by,
			decided_at = excluded.decided_at,
			decision_note = excluded.decision_note,
			updated_at = excluded.updated_at
	`
	_, err := s.exec(ctx, "leave request", query,
		r.ID, r.EmployeeID, string(r.Type),
		r.StartDate.String(), r.EndDate.String(), r.Days.Value.String(),
		r.Reason, string(r.Status),
		r.DecidedBy, formatNullTime(r.DecidedAt), r.DecisionNote,
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	return err
}

// GetRequest retrieves a leave request by ID.
func (s *Store) GetRequest(ctx context.Context, id string) (*timeoff.LeaveRequest, error) {
	row := s.queryRow(ctx, "SELECT "+requestColumns+" FROM leave_requests WHERE id = ?", id)
	r, err := scanRequest(row)
	if err != nil {
		return nil, translate("leave request", err)
	}
	return &r, nil
}

// ListRequests returns requests matching filter, latest start first.
func (s *Store) ListRequests(ctx context.Context, filter timeoff.Filter) ([]timeoff.LeaveRequest, error) {
	var (
		where []string
		args  []any
	)
	if filter.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, filter.EmployeeID)
	}
	if filter.Type != "" {
		where = append(where, "leave_type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.From.IsZero() {
		where = append(where, "end_date >= ?")
		args = append(args, filter.From.String())
	}
	if !filter.To.IsZero() {
		where = append(where, "start_date <= ?")
		args = append(args, filter.To.String())
	}

	query := "SELECT " + requestColumns + " FROM leave_requests"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_date DESC, created_at DESC"

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []timeoff.LeaveRequest{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

func scanRequest(sc scanner) (timeoff.LeaveRequest, error) {
	var (
		r                    timeoff.LeaveRequest
		leaveType, status    string
		start, end, days     string
		decidedAt            sql.NullString
		createdAt, updatedAt string
	)
	err := sc.Scan(&r.ID, &r.EmployeeID, &leaveType, &start, &end, &days, &r.Reason, &status,
		&r.DecidedBy, &decidedAt, &r.DecisionNote, &createdAt, &updatedAt)
	if err != nil {
		return timeoff.LeaveRequest{}, err
	}
	r.Type = timeoff.LeaveType(leaveType)
	r.Status = timeoff.RequestStatus(status)
	r.StartDate, _ = generic.ParseDate(start)
	r.EndDate, _ = generic.ParseDate(end)
	d, _ := decimal.NewFromString(days)
	r.Days = generic.Amount{Value: d, Unit: generic.UnitDays}
	r.DecidedAt = parseNullTime(decidedAt)
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return r, nil
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// SaveHoliday inserts or replaces a holiday.
func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	query := `
		INSERT INTO holidays (id, branch, holiday_date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			branch = excluded.branch,
			holiday_date = excluded.holiday_date,
			name = excluded.name,
			recurring = excluded.recurring
	`
	_, err := s.exec(ctx, "holiday", query,
		h.ID, h.Branch, h.Date.String(), h.Name, h.Recurring, formatTime(time.Now()))
	return err
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	return s.execOne(ctx, "holiday", "DELETE FROM holidays WHERE id = ?", id)
}

// ListHolidays returns the holidays that apply to branch (its own plus
// company-wide ones), or every holiday when branch is empty.
func (s *Store) ListHolidays(ctx context.Context, branch string) ([]generic.Holiday, error) {
	query := "SELECT id, branch, holiday_date, name, recurring FROM holidays"
	var args []any
	if branch != "" {
		query += " WHERE branch = ? OR branch = ''"
		args = append(args, branch)
	}
	query += " ORDER BY holiday_date, name"

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holidays := []generic.Holiday{}
	for rows.Next() {
		var (
			h       generic.Holiday
			dateStr string
		)
		if err := rows.Scan(&h.ID, &h.Branch, &dateStr, &h.Name, &h.Recurring); err != nil {
			return nil, err
		}
		h.Date, _ = generic.ParseDate(dateStr)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}
