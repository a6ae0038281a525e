// Package settings stores the handful of company-wide preferences the
// dashboard exposes.
package settings

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/notify"
)

// Key names a setting.
type Key string

const (
	KeyCompanyName         Key = "company_name"
	KeyDocumentWarningDays Key = "document_warning_days"
)

// Setting is one stored value.
type Setting struct {
	Key       Key
	Value     string
	UpdatedAt time.Time
}

// Repository persists settings.
type Repository interface {
	GetSetting(ctx context.Context, key Key) (*Setting, error)
	ListSettings(ctx context.Context) ([]Setting, error)
	SaveSetting(ctx context.Context, s Setting) error
}

var validators = map[Key]func(string) string{
	KeyCompanyName: func(v string) string {
		if v == "" || len(v) > 200 {
			return "must be 1 to 200 characters"
		}
		return ""
	},
	KeyDocumentWarningDays: func(v string) string {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 365 {
			return "must be a whole number of days between 0 and 365"
		}
		return ""
	},
}

// Service reads and writes settings.
type Service struct {
	repo     Repository
	audit    generic.AuditLog
	bus      notify.Publisher
	defaults map[Key]string
}

// NewService creates a settings service. defaults supply values for keys
// never written.
func NewService(repo Repository, audit generic.AuditLog, bus notify.Publisher, defaults map[Key]string) *Service {
	return &Service{repo: repo, audit: audit, bus: bus, defaults: defaults}
}

// Get returns a setting, falling back to its default.
func (s *Service) Get(ctx context.Context, key Key) (string, error) {
	if _, known := validators[key]; !known {
		return "", generic.ErrNotFound
	}
	st, err := s.repo.GetSetting(ctx, key)
	if generic.IsNotFound(err) {
		return s.defaults[key], nil
	}
	if err != nil {
		return "", err
	}
	return st.Value, nil
}

// Int returns a numeric setting or fallback when unset or unparsable.
func (s *Service) Int(ctx context.Context, key Key, fallback int) int {
	v, err := s.Get(ctx, key)
	if err != nil {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// List returns every known key with its current or default value.
func (s *Service) List(ctx context.Context) (map[Key]string, error) {
	stored, err := s.repo.ListSettings(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[Key]string, len(validators))
	for k := range validators {
		out[k] = s.defaults[k]
	}
	for _, st := range stored {
		if _, known := validators[st.Key]; known {
			out[st.Key] = st.Value
		}
	}
	return out, nil
}

// Set validates and stores a value.
func (s *Service) Set(ctx context.Context, key Key, value string) error {
	check, known := validators[key]
	if !known {
		return generic.ErrNotFound
	}
	value = strings.TrimSpace(value)
	if msg := check(value); msg != "" {
		return generic.NewValidationError(string(key), msg)
	}
	if err := s.repo.SaveSetting(ctx, Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}); err != nil {
		return err
	}
	generic.Record(ctx, s.audit, generic.AuditUpdated, "setting", string(key), map[string]any{"value": value})
	notify.Publish(ctx, s.bus, notify.TopicSettings)
	return nil
}
