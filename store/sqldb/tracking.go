package sqldb

import (
	"context"
	"strings"

	"github.com/warp/hrdesk/compliance"
	"github.com/warp/hrdesk/tracking"
)

// =============================================================================
// TRACKERS (tracking.Repository)
// =============================================================================

// SaveTracker inserts or replaces a tracker.
func (s *Store) SaveTracker(ctx context.Context, t tracking.Tracker) error {
	query := `
		INSERT INTO trackers (id, name, description, frequency, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			frequency = excluded.frequency
	`
	_, err := s.exec(ctx, "tracker", query,
		t.ID, t.Name, t.Description, string(t.Frequency), formatTime(t.CreatedAt))
	return err
}

// GetTracker retrieves a tracker by ID.
func (s *Store) GetTracker(ctx context.Context, id string) (*tracking.Tracker, error) {
	var (
		t         tracking.Tracker
		freq      string
		createdAt string
	)
	err := s.queryRow(ctx,
		"SELECT id, name, description, frequency, created_at FROM trackers WHERE id = ?", id,
	).Scan(&t.ID, &t.Name, &t.Description, &freq, &createdAt)
	if err != nil {
		return nil, translate("tracker", err)
	}
	t.Frequency = compliance.Frequency(freq)
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

// ListTrackers returns all trackers ordered by name.
func (s *Store) ListTrackers(ctx context.Context) ([]tracking.Tracker, error) {
	rows, err := s.query(ctx, "SELECT id, name, description, frequency, created_at FROM trackers ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []tracking.Tracker{}
	for rows.Next() {
		var (
			t         tracking.Tracker
			freq      string
			createdAt string
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &freq, &createdAt); err != nil {
			return nil, err
		}
		t.Frequency = compliance.Frequency(freq)
		t.CreatedAt = parseTime(createdAt)
		list = append(list, t)
	}
	return list, rows.Err()
}

// DeleteTracker removes a tracker and its records.
func (s *Store) DeleteTracker(ctx context.Context, id string) error {
	return s.execOne(ctx, "tracker", "DELETE FROM trackers WHERE id = ?", id)
}

// =============================================================================
// COMPLETION RECORDS
// =============================================================================

const recordColumns = `id, tracker_id, employee_id, period, completion, status, notes, created_at, updated_at`

// InsertRecord stores a new record. A second record for the same tracker,
// employee and period fails with generic.ErrConflict.
func (s *Store) InsertRecord(ctx context.Context, r tracking.Record) error {
	_, err := s.exec(ctx, "record for this employee and period",
		"INSERT INTO completion_records ("+recordColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.TrackerID, r.EmployeeID, string(r.Period), r.Completion, string(r.Status), r.Notes,
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	return err
}

// UpdateRecord changes the mutable fields of a record.
func (s *Store) UpdateRecord(ctx context.Context, r tracking.Record) error {
	return s.execOne(ctx, "record", `
		UPDATE completion_records
		SET completion = ?, status = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		r.Completion, string(r.Status), r.Notes, formatTime(r.UpdatedAt), r.ID,
	)
}

// GetRecord retrieves a record by ID.
func (s *Store) GetRecord(ctx context.Context, id string) (*tracking.Record, error) {
	row := s.queryRow(ctx, "SELECT "+recordColumns+" FROM completion_records WHERE id = ?", id)
	r, err := scanRecord(row)
	if err != nil {
		return nil, translate("record", err)
	}
	return &r, nil
}

// DeleteRecord removes a record.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	return s.execOne(ctx, "record", "DELETE FROM completion_records WHERE id = ?", id)
}

// ListRecords returns a tracker's records, most recently updated first.
func (s *Store) ListRecords(ctx context.Context, trackerID string, filter tracking.RecordFilter) ([]tracking.Record, error) {
	where := []string{"tracker_id = ?"}
	args := []any{trackerID}
	if filter.Period != "" {
		where = append(where, "period = ?")
		args = append(args, string(filter.Period))
	}
	if filter.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, filter.EmployeeID)
	}

	rows, err := s.query(ctx,
		"SELECT "+recordColumns+" FROM completion_records WHERE "+strings.Join(where, " AND ")+
			" ORDER BY updated_at DESC, id",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []tracking.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

func scanRecord(sc scanner) (tracking.Record, error) {
	var (
		r                    tracking.Record
		period, status       string
		createdAt, updatedAt string
	)
	if err := sc.Scan(&r.ID, &r.TrackerID, &r.EmployeeID, &period, &r.Completion, &status, &r.Notes, &createdAt, &updatedAt); err != nil {
		return tracking.Record{}, err
	}
	r.Period = compliance.PeriodID(period)
	r.Status = compliance.RecordStatus(status)
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return r, nil
}
