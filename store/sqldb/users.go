package sqldb

import (
	"context"
	"strings"

	"github.com/warp/hrdesk/settings"
	"github.com/warp/hrdesk/users"
)

// =============================================================================
// USERS (users.Repository)
// =============================================================================

const userColumns = `id, email, name, role, active, password_hash, created_at, updated_at`

// SaveUser inserts or replaces a user.
func (s *Store) SaveUser(ctx context.Context, u users.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			role = excluded.role,
			active = excluded.active,
			password_hash = excluded.password_hash,
			updated_at = excluded.updated_at
	`
	_, err := s.exec(ctx, "user with this email", query,
		u.ID, strings.ToLower(u.Email), u.Name, string(u.Role), u.Active, u.PasswordHash,
		formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
	)
	return err
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*users.User, error) {
	u, err := scanUser(s.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		return nil, translate("user", err)
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email (case-insensitive).
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	u, err := scanUser(s.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?",
		strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return nil, translate("user", err)
	}
	return &u, nil
}

// ListUsers returns all users ordered by name.
func (s *Store) ListUsers(ctx context.Context) ([]users.User, error) {
	rows, err := s.query(ctx, "SELECT "+userColumns+" FROM users ORDER BY name, email")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []users.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// DeleteUser removes a user.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.execOne(ctx, "user", "DELETE FROM users WHERE id = ?", id)
}

// CountUsers returns the number of accounts.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.queryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

func scanUser(sc scanner) (users.User, error) {
	var (
		u                    users.User
		role                 string
		createdAt, updatedAt string
	)
	if err := sc.Scan(&u.ID, &u.Email, &u.Name, &role, &u.Active, &u.PasswordHash, &createdAt, &updatedAt); err != nil {
		return users.User{}, err
	}
	u.Role = users.Role(role)
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return u, nil
}

// =============================================================================
// SETTINGS (settings.Repository)
// =============================================================================

// GetSetting retrieves one setting.
func (s *Store) GetSetting(ctx context.Context, key settings.Key) (*settings.Setting, error) {
	var (
		st        settings.Setting
		k         string
		updatedAt string
	)
	err := s.queryRow(ctx, "SELECT key, value, updated_at FROM settings WHERE key = ?", string(key)).
		Scan(&k, &st.Value, &updatedAt)
	if err != nil {
		return nil, translate("setting", err)
	}
	st.Key = settings.Key(k)
	st.UpdatedAt = parseTime(updatedAt)
	return &st, nil
}

// ListSettings returns every stored setting.
func (s *Store) ListSettings(ctx context.Context) ([]settings.Setting, error) {
	rows, err := s.query(ctx, "SELECT key, value, updated_at FROM settings ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []settings.Setting{}
	for rows.Next() {
		var (
			st        settings.Setting
			k         string
			updatedAt string
		)
		if err := rows.Scan(&k, &st.Value, &updatedAt); err != nil {
			return nil, err
		}
		st.Key = settings.Key(k)
		st.UpdatedAt = parseTime(updatedAt)
		list = append(list, st)
	}
	return list, rows.Err()
}

// SaveSetting inserts or replaces a setting.
func (s *Store) SaveSetting(ctx context.Context, st settings.Setting) error {
	_, err := s.exec(ctx, "setting", `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		string(st.Key), st.Value, formatTime(st.UpdatedAt))
	return err
}
