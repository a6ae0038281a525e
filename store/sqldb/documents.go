package sqldb

import (
	"context"
	"database/sql"
	"strings"

	"github.com/warp/hrdesk/documents"
)

// =============================================================================
// DOCUMENTS (documents.Repository)
// =============================================================================

const documentColumns = `id, employee_id, doc_type, reference, issued_on, expires_on, notes, created_at, updated_at`

// SaveDocument inserts or replaces a document.
func (s *Store) SaveDocument(ctx context.Context, d documents.Document) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			employee_id = excluded.employee_id,
			doc_type = excluded.doc_type,
			reference = excluded.reference,
			issued_on = excluded.issued_on,
			expires_on = excluded.expires_on,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`
	_, err := s.exec(ctx, "document", query,
		d.ID, d.EmployeeID, string(d.Type), d.Reference,
		formatDate(d.IssuedOn), formatDate(d.ExpiresOn), d.Notes,
		formatTime(d.CreatedAt), formatTime(d.UpdatedAt),
	)
	return err
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*documents.Document, error) {
	row := s.queryRow(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	d, err := scanDocument(row)
	if err != nil {
		return nil, translate("document", err)
	}
	return &d, nil
}

// ListDocuments returns documents ordered by expiry, undated ones last.
func (s *Store) ListDocuments(ctx context.Context, employeeID string, docType documents.Type) ([]documents.Document, error) {
	var (
		where []string
		args  []any
	)
	if employeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, employeeID)
	}
	if docType != "" {
		where = append(where, "doc_type = ?")
		args = append(args, string(docType))
	}

	query := "SELECT " + documentColumns + " FROM documents"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY CASE WHEN expires_on IS NULL THEN 1 ELSE 0 END, expires_on, id"

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []documents.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// DeleteDocument removes a document.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	return s.execOne(ctx, "document", "DELETE FROM documents WHERE id = ?", id)
}

func scanDocument(sc scanner) (documents.Document, error) {
	var (
		d                    documents.Document
		docType              string
		issued, expires      sql.NullString
		createdAt, updatedAt string
	)
	if err := sc.Scan(&d.ID, &d.EmployeeID, &docType, &d.Reference, &issued, &expires, &d.Notes, &createdAt, &updatedAt); err != nil {
		return documents.Document{}, err
	}
	d.Type = documents.Type(docType)
	d.IssuedOn = parseDate(issued)
	d.ExpiresOn = parseDate(expires)
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return d, nil
}
