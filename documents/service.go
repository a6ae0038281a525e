package documents

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/notify"
)

const subject = "document"

// Service implements the document operations.
type Service struct {
	repo     Repository
	audit    generic.AuditLog
	bus      notify.Publisher
	warnDays func(ctx context.Context) int
	now      func() time.Time
}

// NewService creates a document service. warnDays returns the expiring
// window; nil means DefaultWarningDays.
func NewService(repo Repository, audit generic.AuditLog, bus notify.Publisher, warnDays func(ctx context.Context) int) *Service {
	if warnDays == nil {
		warnDays = func(context.Context) int { return DefaultWarningDays }
	}
	return &Service{repo: repo, audit: audit, bus: bus, warnDays: warnDays, now: time.Now}
}

// WithClock replaces the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Today is the service clock's calendar day.
func (s *Service) Today() generic.TimePoint { return generic.DateOf(s.now()) }

// WarningDays returns the current expiring window.
func (s *Service) WarningDays(ctx context.Context) int { return s.warnDays(ctx) }

// Create validates and stores a document.
func (s *Service) Create(ctx context.Context, in Input) (*Document, error) {
	d, err := build(Document{}, in)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	d.ID = uuid.NewString()
	d.CreatedAt, d.UpdatedAt = now, now

	if err := s.repo.SaveDocument(ctx, d); err != nil {
		return nil, err
	}
	generic.Record(ctx, s.audit, generic.AuditCreated, subject, d.ID, map[string]any{
		"employee_id": d.EmployeeID,
		"type":        string(d.Type),
	})
	notify.Publish(ctx, s.bus, notify.TopicDocuments)
	return &d, nil
}

// Update replaces the writable fields of a document.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Document, error) {
	existing, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	d, err := build(*existing, in)
	if err != nil {
		return nil, err
	}
	d.UpdatedAt = s.now().UTC()

	if err := s.repo.SaveDocument(ctx, d); err != nil {
		return nil, err
	}
	generic.Record(ctx, s.audit, generic.AuditUpdated, subject, d.ID, map[string]any{
		"expires_on": d.ExpiresOn.String(),
	})
	notify.Publish(ctx, s.bus, notify.TopicDocuments)
	return &d, nil
}

// Get returns one document.
func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	return s.repo.GetDocument(ctx, id)
}

// Delete removes a document.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteDocument(ctx, id); err != nil {
		return err
	}
	generic.Record(ctx, s.audit, generic.AuditDeleted, subject, id, nil)
	notify.Publish(ctx, s.bus, notify.TopicDocuments)
	return nil
}

// Entry is a document with its standing on the day it was listed.
type Entry struct {
	Document
	Status          ExpiryStatus
	DaysUntilExpiry int
}

// List returns documents with their expiry status as of today.
func (s *Service) List(ctx context.Context, filter Filter) ([]Entry, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, generic.NewValidationError("status", "must be one of: valid expiring expired no_expiry")
	}
	docs, err := s.repo.ListDocuments(ctx, filter.EmployeeID, filter.Type)
	if err != nil {
		return nil, err
	}

	today, warn := s.Today(), s.warnDays(ctx)
	out := make([]Entry, 0, len(docs))
	for _, d := range docs {
		e := Entry{Document: d, Status: d.Status(today, warn), DaysUntilExpiry: d.DaysUntilExpiry(today)}
		if filter.Status == "" || filter.Status == e.Status {
			out = append(out, e)
		}
	}
	return out, nil
}

// Summary counts documents per expiry status.
type Summary struct {
	Total       int                  `json:"total"`
	ByStatus    map[ExpiryStatus]int `json:"by_status"`
	WarningDays int                  `json:"warning_days"`
	AsOf        string               `json:"as_of"`
}

// Summary counts every document by status as of today.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	entries, err := s.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	sum := &Summary{
		Total:       len(entries),
		ByStatus:    map[ExpiryStatus]int{StatusValid: 0, StatusExpiring: 0, StatusExpired: 0, StatusNoExpiry: 0},
		WarningDays: s.warnDays(ctx),
		AsOf:        s.Today().String(),
	}
	for _, e := range entries {
		sum.ByStatus[e.Status]++
	}
	return sum, nil
}

// Expiring returns expired and expiring documents, soonest expiry first.
func (s *Service) Expiring(ctx context.Context) ([]Entry, error) {
	entries, err := s.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if e.Status == StatusExpired || e.Status == StatusExpiring {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysUntilExpiry < out[j].DaysUntilExpiry })
	return out, nil
}

func build(base Document, in Input) (Document, error) {
	in.Reference = strings.TrimSpace(in.Reference)
	in.IssuedOn = strings.TrimSpace(in.IssuedOn)
	in.ExpiresOn = strings.TrimSpace(in.ExpiresOn)
	if err := generic.Validate(in); err != nil {
		return Document{}, err
	}

	d := base
	d.EmployeeID = in.EmployeeID
	d.Type = Type(in.Type)
	d.Reference = in.Reference
	d.Notes = strings.TrimSpace(in.Notes)
	d.IssuedOn, d.ExpiresOn = generic.TimePoint{}, generic.TimePoint{}
	if in.IssuedOn != "" {
		d.IssuedOn, _ = generic.ParseDate(in.IssuedOn)
	}
	if in.ExpiresOn != "" {
		d.ExpiresOn, _ = generic.ParseDate(in.ExpiresOn)
	}
	if !d.IssuedOn.IsZero() && !d.ExpiresOn.IsZero() && d.ExpiresOn.Before(d.IssuedOn) {
		return Document{}, generic.NewValidationError("expires_on", "must not be before issued_on")
	}
	return d, nil
}

func validStatus(s ExpiryStatus) bool {
	switch s {
	case StatusValid, StatusExpiring, StatusExpired, StatusNoExpiry:
		return true
	}
	return false
}
