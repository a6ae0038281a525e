/*
Package users manages dashboard accounts and what each role may do.

ROLES:
  admin    everything, including user management and settings
  hr       all HR data, leave approval, recruitment, audit trail
  manager  reads HR data, records compliance, approves leave
  viewer   read-only

  Permissions are checked per route; roles are never compared directly
  outside this package.

PASSWORDS:
  Stored as bcrypt hashes. Authenticate compares in constant time and
  returns generic.ErrUnauthorized for unknown emails, wrong passwords and
  deactivated accounts alike.
*/
package users

import (
	"context"
	"time"
)

// Role is a named bundle of permissions.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleHR      Role = "hr"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
)

// Permission is a single capability checked by route guards.
type Permission string

const (
	PermEmployeesRead    Permission = "employees.read"
	PermEmployeesWrite   Permission = "employees.write"
	PermComplianceRead   Permission = "compliance.read"
	PermComplianceWrite  Permission = "compliance.write"
	PermDocumentsRead    Permission = "documents.read"
	PermDocumentsWrite   Permission = "documents.write"
	PermLeaveRead        Permission = "leave.read"
	PermLeaveWrite       Permission = "leave.write"
	PermLeaveApprove     Permission = "leave.approve"
	PermRecruitmentRead  Permission = "recruitment.read"
	PermRecruitmentWrite Permission = "recruitment.write"
	PermUsersManage      Permission = "users.manage"
	PermSettingsWrite    Permission = "settings.write"
	PermAuditRead        Permission = "audit.read"
)

var readOnly = []Permission{
	PermEmployeesRead, PermComplianceRead, PermDocumentsRead,
	PermLeaveRead, PermRecruitmentRead,
}

var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermEmployeesRead, PermEmployeesWrite, PermComplianceRead, PermComplianceWrite,
		PermDocumentsRead, PermDocumentsWrite, PermLeaveRead, PermLeaveWrite, PermLeaveApprove,
		PermRecruitmentRead, PermRecruitmentWrite, PermUsersManage, PermSettingsWrite, PermAuditRead,
	},
	RoleHR: {
		PermEmployeesRead, PermEmployeesWrite, PermComplianceRead, PermComplianceWrite,
		PermDocumentsRead, PermDocumentsWrite, PermLeaveRead, PermLeaveWrite, PermLeaveApprove,
		PermRecruitmentRead, PermRecruitmentWrite, PermAuditRead,
	},
	RoleManager: append(append([]Permission{}, readOnly...),
		PermComplianceWrite, PermLeaveWrite, PermLeaveApprove),
	RoleViewer: readOnly,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Can reports whether the role grants p.
func (r Role) Can(p Permission) bool {
	for _, granted := range rolePermissions[r] {
		if granted == p {
			return true
		}
	}
	return false
}

// Permissions lists what the role grants.
func (r Role) Permissions() []Permission {
	return append([]Permission(nil), rolePermissions[r]...)
}

// User is a dashboard account.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	Active       bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Can reports whether the user is active and their role grants p.
func (u User) Can(p Permission) bool {
	return u.Active && u.Role.Can(p)
}

// Repository persists users.
type Repository interface {
	SaveUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int, error)
}

// CreateInput is a new account.
type CreateInput struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Name     string `json:"name" validate:"required,max=200"`
	Role     string `json:"role" validate:"required,oneof=admin hr manager viewer"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UpdateInput changes an account. Nil fields are left unchanged.
type UpdateInput struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=200"`
	Role   *string `json:"role" validate:"omitempty,oneof=admin hr manager viewer"`
	Active *bool   `json:"active"`
}
