package sqldb

import (
	"context"
	"database/sql"
	"strings"

	"github.com/warp/hrdesk/employees"
)

// =============================================================================
// EMPLOYEES (employees.Repository)
// =============================================================================

const employeeColumns = `id, name, email, branch, job_title, hire_date, status, created_at, updated_at`

// SaveEmployee inserts or replaces an employee.
func (s *Store) SaveEmployee(ctx context.Context, e employees.Employee) error {
	query := `
		INSERT INTO employees (` + employeeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			branch = excluded.branch,
			job_title = excluded.job_title,
			hire_date = excluded.hire_date,
			status = excluded.status,
			updated_at = excluded.updated_at
	`
	_, err := s.exec(ctx, "employee", query,
		e.ID, e.Name, nullString(strings.ToLower(e.Email)), e.Branch, e.JobTitle,
		formatDate(e.HireDate), string(e.Status),
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
	)
	return err
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id string) (*employees.Employee, error) {
	row := s.queryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ?", id)
	e, err := scanEmployee(row)
	if err != nil {
		return nil, translate("employee", err)
	}
	return &e, nil
}

// FindEmployeeByEmail retrieves an employee by email (case-insensitive).
func (s *Store) FindEmployeeByEmail(ctx context.Context, email string) (*employees.Employee, error) {
	row := s.queryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE email = ?",
		strings.ToLower(strings.TrimSpace(email)))
	e, err := scanEmployee(row)
	if err != nil {
		return nil, translate("employee", err)
	}
	return &e, nil
}

// ListEmployees returns employees matching filter, ordered by name.
func (s *Store) ListEmployees(ctx context.Context, filter employees.Filter) ([]employees.Employee, error) {
	var (
		where []string
		args  []any
	)
	if filter.Branch != "" {
		where = append(where, "branch = ?")
		args = append(args, filter.Branch)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Search != "" {
		p := likePattern(filter.Search)
		where = append(where, `(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(email, '')) LIKE ? ESCAPE '\' OR LOWER(job_title) LIKE ? ESCAPE '\')`)
		args = append(args, p, p, p)
	}

	query := "SELECT " + employeeColumns + " FROM employees"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name, id"

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []employees.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// DeleteEmployee removes an employee and, by cascade, their records,
// documents and leave.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	return s.execOne(ctx, "employee", "DELETE FROM employees WHERE id = ?", id)
}

// ListBranches returns the distinct non-empty branch names.
func (s *Store) ListBranches(ctx context.Context) ([]string, error) {
	rows, err := s.query(ctx, "SELECT DISTINCT branch FROM employees WHERE branch <> '' ORDER BY branch")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	branches := []string{}
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(sc scanner) (employees.Employee, error) {
	var (
		e                    employees.Employee
		email, hire          sql.NullString
		status               string
		createdAt, updatedAt string
	)
	if err := sc.Scan(&e.ID, &e.Name, &email, &e.Branch, &e.JobTitle, &hire, &status, &createdAt, &updatedAt); err != nil {
		return employees.Employee{}, err
	}
	e.Email = email.String
	e.HireDate = parseDate(hire)
	e.Status = employees.Status(status)
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return e, nil
}
