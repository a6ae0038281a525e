package sqldb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hrdesk/compliance"
	"github.com/warp/hrdesk/documents"
	"github.com/warp/hrdesk/employees"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/settings"
	"github.com/warp/hrdesk/timeoff"
	"github.com/warp/hrdesk/tracking"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func employee(id, name, email string) employees.Employee {
	now := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	return employees.Employee{ID: id, Name: name, Email: email, Status: employees.StatusActive, CreatedAt: now, UpdatedAt: now}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	assert.Error(t, err)
}

func TestOpen_MigrationIsIdempotent(t *testing.T) {
	s := openTest(t)
	assert.NoError(t, s.migrate(context.Background()))
	assert.Equal(t, DriverSQLite, s.Driver())
	assert.NoError(t, s.Ping(context.Background()))
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	lite := &Store{driver: DriverSQLite}
	q := "SELECT * FROM t WHERE a = ? AND b IN (?, ?)"

	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)", pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "hrdesk.db?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", sqliteDSN(""))
	assert.Equal(t, "file:x.db?cache=shared&_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", sqliteDSN("file:x.db?cache=shared"))
}

func TestFormatTime_SortsAsText(t *testing.T) {
	a := formatTime(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	b := formatTime(time.Date(2025, 1, 1, 10, 0, 0, 500, time.UTC))
	assert.Less(t, a, b)
	assert.Equal(t, len(a), len(b))
	assert.True(t, parseTime(b).Equal(time.Date(2025, 1, 1, 10, 0, 0, 500, time.UTC)))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%50\% off\_x%`, likePattern(" 50% OFF_x "))
}

// =============================================================================
// ERROR TRANSLATION
// =============================================================================

func TestErrors_NotFoundConflictValidation(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	_, err := s.GetEmployee(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrNotFound)
	assert.ErrorIs(t, s.DeleteEmployee(ctx, "missing"), generic.ErrNotFound)

	require.NoError(t, s.SaveEmployee(ctx, employee("e1", "Amy", "amy@example.com")))
	err = s.SaveEmployee(ctx, employee("e2", "Other Amy", "AMY@example.com"))
	assert.ErrorIs(t, err, generic.ErrConflict)

	err = s.SaveDocument(ctx, documents.Document{ID: "d1", EmployeeID: "ghost", Type: documents.TypeVisa})
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestDeleteEmployee_Cascades(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SaveEmployee(ctx, employee("e1", "Amy", "")))
	require.NoError(t, s.SaveTracker(ctx, tracking.Tracker{ID: "t1", Name: "DBS", Frequency: compliance.Annual, CreatedAt: now}))
	require.NoError(t, s.InsertRecord(ctx, tracking.Record{
		ID: "r1", TrackerID: "t1", EmployeeID: "e1", Period: "2024",
		Status: compliance.RecordCompleted, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, s.SaveDocument(ctx, documents.Document{ID: "d1", EmployeeID: "e1", Type: documents.TypeDBS, CreatedAt: now, UpdatedAt: now}))

	require.NoError(t, s.DeleteEmployee(ctx, "e1"))

	_, err := s.GetRecord(ctx, "r1")
	assert.ErrorIs(t, err, generic.ErrNotFound)
	_, err = s.GetDocument(ctx, "d1")
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestEmployee_NullableFieldsRoundTrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	e := employee("e1", "Amy", "")
	e.HireDate = generic.NewTimePoint(2020, time.March, 2)
	require.NoError(t, s.SaveEmployee(ctx, e))

	got, err := s.GetEmployee(ctx, "e1")
	require.NoError(t, err)
	assert.Empty(t, got.Email)
	assert.Equal(t, "2020-03-02", got.HireDate.String())
	assert.True(t, got.CreatedAt.Equal(e.CreatedAt))
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx *Store) error {
		require.NoError(t, tx.SaveEmployee(ctx, employee("e1", "Amy", "")))
		// nested calls reuse the open transaction
		return tx.WithTx(ctx, func(inner *Store) error {
			_, err := inner.GetEmployee(ctx, "e1")
			require.NoError(t, err)
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetEmployee(ctx, "e1")
	assert.ErrorIs(t, err, generic.ErrNotFound)

	require.NoError(t, s.WithTx(ctx, func(tx *Store) error {
		return tx.SaveEmployee(ctx, employee("e1", "Amy", ""))
	}))
	_, err = s.GetEmployee(ctx, "e1")
	assert.NoError(t, err)
}

func TestWithLeaveTx_LockEmployeeOnSQLite(t *testing.T) {
	// GIVEN: A SQLite store, which already serialises on one connection
	// WHEN: Locking inside a leave transaction
	// THEN: The lock is a no-op, even for an unknown employee

	s := openTest(t)
	ctx := context.Background()
	require.NoError(t, s.SaveEmployee(ctx, employee("e1", "Amy", "")))

	err := s.WithLeaveTx(ctx, func(repo timeoff.Repository) error {
		locker, ok := repo.(timeoff.EmployeeLocker)
		require.True(t, ok)
		require.NoError(t, locker.LockEmployee(ctx, "e1"))
		require.NoError(t, locker.LockEmployee(ctx, "missing"))
		return nil
	})
	assert.NoError(t, err)
}

// =============================================================================
// AUDIT AND SETTINGS
// =============================================================================

func TestAudit_NewestFirstWithPayload(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	base := time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)

	for i, action := range []generic.AuditAction{generic.AuditCreated, generic.AuditUpdated, generic.AuditDeleted} {
		require.NoError(t, s.AppendAudit(ctx, generic.AuditEntry{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			ActorID:   "u1",
			Action:    action,
			Subject:   "employee",
			SubjectID: "e1",
			Payload:   map[string]any{"step": i},
		}))
	}
	require.NoError(t, s.AppendAudit(ctx, generic.AuditEntry{Timestamp: base, ActorID: "u2", Action: generic.AuditCreated, Subject: "tracker"}))

	entries, err := s.QueryAudit(ctx, generic.AuditFilter{Subject: "employee", Limit: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, generic.AuditDeleted, entries[0].Action)
	assert.Equal(t, float64(2), entries[0].Payload["step"])

	entries, err = s.QueryAudit(ctx, generic.AuditFilter{ActorID: "u2"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Payload)
}

func TestSettings_Upsert(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	_, err := s.GetSetting(ctx, settings.KeyCompanyName)
	assert.ErrorIs(t, err, generic.ErrNotFound)

	require.NoError(t, s.SaveSetting(ctx, settings.Setting{Key: settings.KeyCompanyName, Value: "A", UpdatedAt: time.Now()}))
	require.NoError(t, s.SaveSetting(ctx, settings.Setting{Key: settings.KeyCompanyName, Value: "B", UpdatedAt: time.Now()}))

	got, err := s.GetSetting(ctx, settings.KeyCompanyName)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Value)

	all, err := s.ListSettings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
