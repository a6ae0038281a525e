package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/warp/hrdesk/generic"
)

// =============================================================================
// AUDIT LOG (generic.AuditLog)
// =============================================================================

// AppendAudit writes an audit entry. The log has no update or delete path.
func (s *Store) AppendAudit(ctx context.Context, e generic.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	var payload sql.NullString
	if len(e.Payload) > 0 {
		b, err := json.Marshal(e.Payload)
		if err != nil {
			return err
		}
		payload = nullString(string(b))
	}
	_, err := s.exec(ctx, "audit entry", `
		INSERT INTO audit_log (id, occurred_at, actor_id, action, subject, subject_id, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, formatTime(e.Timestamp), e.ActorID, string(e.Action), e.Subject, e.SubjectID, payload,
	)
	return err
}

// QueryAudit returns matching entries, newest first.
func (s *Store) QueryAudit(ctx context.Context, filter generic.AuditFilter) ([]generic.AuditEntry, error) {
	var (
		where []string
		args  []any
	)
	if filter.Subject != "" {
		where = append(where, "subject = ?")
		args = append(args, filter.Subject)
	}
	if filter.SubjectID != "" {
		where = append(where, "subject_id = ?")
		args = append(args, filter.SubjectID)
	}
	if filter.ActorID != "" {
		where = append(where, "actor_id = ?")
		args = append(args, filter.ActorID)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := "SELECT id, occurred_at, actor_id, action, subject, subject_id, payload_json FROM audit_log"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY occurred_at DESC, id LIMIT ?"
	args = append(args, limit)

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []generic.AuditEntry{}
	for rows.Next() {
		var (
			e       generic.AuditEntry
			ts      string
			action  string
			payload sql.NullString
		)
		if err := rows.Scan(&e.ID, &ts, &e.ActorID, &action, &e.Subject, &e.SubjectID, &payload); err != nil {
			return nil, err
		}
		e.Timestamp = parseTime(ts)
		e.Action = generic.AuditAction(action)
		if payload.Valid {
			_ = json.Unmarshal([]byte(payload.String), &e.Payload)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
