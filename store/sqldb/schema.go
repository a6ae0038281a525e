package sqldb

import (
	"context"
	"strings"
)

// schema is portable between SQLite and PostgreSQL. Statements end with ";\n"
// and are executed one at a time.
const schema = `
-- Employee register
CREATE TABLE IF NOT EXISTS employees (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	branch TEXT NOT NULL DEFAULT '',
	job_title TEXT NOT NULL DEFAULT '',
	hire_date TEXT,
	status TEXT NOT NULL DEFAULT 'active',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_employees_email ON employees(email);
CREATE INDEX IF NOT EXISTS idx_employees_branch ON employees(branch, status);

-- Recurring compliance obligations
CREATE TABLE IF NOT EXISTS trackers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	frequency TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_trackers_name ON trackers(name);

-- One completion per (tracker, employee, period)
CREATE TABLE IF NOT EXISTS completion_records (
	id TEXT PRIMARY KEY,
	tracker_id TEXT NOT NULL REFERENCES trackers(id) ON DELETE CASCADE,
	employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
	period TEXT NOT NULL,
	completion TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	UNIQUE (tracker_id, employee_id, period)
);
CREATE INDEX IF NOT EXISTS idx_records_tracker_period ON completion_records(tracker_id, period);

-- Expiring documents
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
	doc_type TEXT NOT NULL,
	reference TEXT NOT NULL DEFAULT '',
	issued_on TEXT,
	expires_on TEXT,
	notes TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_employee ON documents(employee_id);
CREATE INDEX IF NOT EXISTS idx_documents_expiry ON documents(expires_on);

-- Leave workflow
CREATE TABLE IF NOT EXISTS leave_requests (
	id TEXT PRIMARY KEY,
	employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
	leave_type TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	days TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	decided_by TEXT NOT NULL DEFAULT '',
	decided_at TEXT,
	decision_note TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leave_employee_dates ON leave_requests(employee_id, start_date, end_date);
CREATE INDEX IF NOT EXISTS idx_leave_status ON leave_requests(status);

-- Company holidays excluded from leave day counts
CREATE TABLE IF NOT EXISTS holidays (
	id TEXT PRIMARY KEY,
	branch TEXT NOT NULL DEFAULT '',
	holiday_date TEXT NOT NULL,
	name TEXT NOT NULL,
	recurring BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TEXT NOT NULL,
	UNIQUE (branch, holiday_date, name)
);

-- Job applications
CREATE TABLE IF NOT EXISTS applications (
	id TEXT PRIMARY KEY,
	position TEXT NOT NULL,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	branch TEXT NOT NULL DEFAULT '',
	cover_letter TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	employee_id TEXT NOT NULL DEFAULT '',
	submitted_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status, submitted_at);

-- Dashboard accounts
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	name TEXT NOT NULL,
	role TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	password_hash TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);

-- Key/value settings
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

-- Audit trail (append-only)
CREATE TABLE IF NOT EXISTS audit_log (
	id TEXT PRIMARY KEY,
	occurred_at TEXT NOT NULL,
	actor_id TEXT NOT NULL,
	action TEXT NOT NULL,
	subject TEXT NOT NULL,
	subject_id TEXT NOT NULL DEFAULT '',
	payload_json TEXT
);
CREATE INDEX IF NOT EXISTS idx_audit_subject ON audit_log(subject, subject_id);
CREATE INDEX IF NOT EXISTS idx_audit_occurred ON audit_log(occurred_at)
`

// migrate creates the database schema.
func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";\n") {
		if strings.TrimSpace(stripComments(stmt)) == "" {
			continue
		}
		if _, err := s.q.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func stripComments(stmt string) string {
	var b strings.Builder
	for _, line := range strings.Split(stmt, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "--") {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
