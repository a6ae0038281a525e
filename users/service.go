package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/notify"
	"golang.org/x/crypto/bcrypt"
)

const subject = "user"

// ErrLastAdmin is returned when a change would leave no active admin.
var ErrLastAdmin = fmt.Errorf("%w: at least one active admin is required", generic.ErrConflict)

// Service manages accounts.
type Service struct {
	repo  Repository
	audit generic.AuditLog
	bus   notify.Publisher
	cost  int
	now   func() time.Time

	// dummy is compared against when the email is unknown so every failed
	// login costs one bcrypt comparison.
	dummy []byte
}

// NewService creates a user service. audit and bus may be nil.
func NewService(repo Repository, audit generic.AuditLog, bus notify.Publisher) *Service {
	return (&Service{repo: repo, audit: audit, bus: bus, now: time.Now}).WithCost(bcrypt.DefaultCost)
}

// WithCost sets the bcrypt cost for new hashes.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	s.dummy, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	return s
}

// WithClock replaces the service clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create adds an account.
func (s *Service) Create(ctx context.Context, in CreateInput) (*User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := generic.Validate(in); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	u := User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Name:         in.Name,
		Role:         Role(in.Role),
		Active:       true,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	generic.Record(ctx, s.audit, generic.AuditCreated, subject, u.ID, map[string]any{
		"email": u.Email,
		"role":  string(u.Role),
	})
	notify.Publish(ctx, s.bus, notify.TopicUsers)
	return &u, nil
}

// Update changes name, role or active flag.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*User, error) {
	if err := generic.Validate(in); err != nil {
		return nil, err
	}
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	wasAdmin := u.Active && u.Role == RoleAdmin

	payload := map[string]any{}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Role != nil && Role(*in.Role) != u.Role {
		u.Role = Role(*in.Role)
		payload["role"] = *in.Role
	}
	if in.Active != nil && *in.Active != u.Active {
		u.Active = *in.Active
		payload["active"] = *in.Active
	}

	if wasAdmin && !(u.Active && u.Role == RoleAdmin) {
		if err := s.ensureAnotherAdmin(ctx, u.ID); err != nil {
			return nil, err
		}
	}

	u.UpdatedAt = s.now().UTC()
	if err := s.repo.SaveUser(ctx, *u); err != nil {
		return nil, err
	}
	generic.Record(ctx, s.audit, generic.AuditUpdated, subject, u.ID, payload)
	notify.Publish(ctx, s.bus, notify.TopicUsers)
	return u, nil
}

// SetPassword replaces a user's password.
func (s *Service) SetPassword(ctx context.Context, id, password string) error {
	if len(password) < 8 || len(password) > 72 {
		return generic.NewValidationError("password", "must be 8 to 72 characters")
	}
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = s.now().UTC()
	if err := s.repo.SaveUser(ctx, *u); err != nil {
		return err
	}
	generic.Record(ctx, s.audit, generic.AuditUpdated, subject, u.ID, map[string]any{"password": "changed"})
	return nil
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, id string) error {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if u.Active && u.Role == RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, u.ID); err != nil {
			return err
		}
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	generic.Record(ctx, s.audit, generic.AuditDeleted, subject, id, map[string]any{"email": u.Email})
	notify.Publish(ctx, s.bus, notify.TopicUsers)
	return nil
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// List returns every account ordered by email.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// Authenticate checks credentials and returns the active user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, generic.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
			return nil, generic.ErrUnauthorized
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil || !u.Active {
		return nil, generic.ErrUnauthorized
	}
	return u, nil
}

// Bootstrap creates the first admin when there are no accounts. It reports
// whether an account was created.
func (s *Service) Bootstrap(ctx context.Context, email, password string) (bool, error) {
	n, err := s.repo.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	ctx = generic.WithActor(ctx, generic.SystemActor)
	_, err = s.Create(ctx, CreateInput{Email: email, Name: "Administrator", Role: string(RoleAdmin), Password: password})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) ensureAnotherAdmin(ctx context.Context, exceptID string) error {
	all, err := s.repo.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range all {
		if u.ID != exceptID && u.Active && u.Role == RoleAdmin {
			return nil
		}
	}
	return ErrLastAdmin
}
