package sqldb

import (
	"context"
	"strings"

	"github.com/warp/hrdesk/recruitment"
)

// =============================================================================
// APPLICATIONS (recruitment.Repository)
// =============================================================================

const applicationColumns = `id, position, name, email, phone, branch, cover_letter, source, status,
	notes, employee_id, submitted_at, updated_at`

// SaveApplication inserts or replaces an application.
func (s *Store) SaveApplication(ctx context.Context, a recruitment.Application) error {
	query := `
		INSERT INTO applications (` + applicationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			notes = excluded.notes,
			branch = excluded.branch,
			employee_id = excluded.employee_id,
			updated_at = excluded.updated_at
	`
	_, err := s.exec(ctx, "application", query,
		a.ID, a.Position, a.Name, a.Email, a.Phone, a.Branch, a.CoverLetter, a.Source,
		string(a.Status), a.Notes, a.EmployeeID,
		formatTime(a.SubmittedAt), formatTime(a.UpdatedAt),
	)
	return err
}

// GetApplication retrieves an application by ID.
func (s *Store) GetApplication(ctx context.Context, id string) (*recruitment.Application, error) {
	row := s.queryRow(ctx, "SELECT "+applicationColumns+" FROM applications WHERE id = ?", id)
	a, err := scanApplication(row)
	if err != nil {
		return nil, translate("application", err)
	}
	return &a, nil
}

// ListApplications returns applications newest first.
func (s *Store) ListApplications(ctx context.Context, filter recruitment.Filter) ([]recruitment.Application, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Position != "" {
		where = append(where, "position = ?")
		args = append(args, filter.Position)
	}
	if filter.Branch != "" {
		where = append(where, "branch = ?")
		args = append(args, filter.Branch)
	}

	query := "SELECT " + applicationColumns + " FROM applications"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY submitted_at DESC, id"

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []recruitment.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// DeleteApplication removes an application.
func (s *Store) DeleteApplication(ctx context.Context, id string) error {
	return s.execOne(ctx, "application", "DELETE FROM applications WHERE id = ?", id)
}

func scanApplication(sc scanner) (recruitment.Application, error) {
	var (
		a                      recruitment.Application
		status                 string
		submittedAt, updatedAt string
	)
	err := sc.Scan(&a.ID, &a.Position, &a.Name, &a.Email, &a.Phone, &a.Branch, &a.CoverLetter, &a.Source,
		&status, &a.Notes, &a.EmployeeID, &submittedAt, &updatedAt)
	if err != nil {
		return recruitment.Application{}, err
	}
	a.Status = recruitment.Status(status)
	a.SubmittedAt = parseTime(submittedAt)
	a.UpdatedAt = parseTime(updatedAt)
	return a, nil
}
