package users_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/store/sqldb"
	"github.com/warp/hrdesk/users"
	"golang.org/x/crypto/bcrypt"
)

func setup(t *testing.T) *users.Service {
	t.Helper()
	store, err := sqldb.Open(context.Background(), sqldb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return users.NewService(store, store, nil).WithCost(bcrypt.MinCost)
}

func ptr[T any](v T) *T { return &v }

func TestRolePermissions(t *testing.T) {
	assert.True(t, users.RoleAdmin.Can(users.PermUsersManage))
	assert.False(t, users.RoleHR.Can(users.PermUsersManage))
	assert.True(t, users.RoleHR.Can(users.PermAuditRead))
	assert.True(t, users.RoleManager.Can(users.PermLeaveApprove))
	assert.False(t, users.RoleManager.Can(users.PermEmployeesWrite))
	assert.True(t, users.RoleViewer.Can(users.PermDocumentsRead))
	assert.False(t, users.RoleViewer.Can(users.PermComplianceWrite))
	assert.False(t, users.Role("owner").Valid())

	inactive := users.User{Role: users.RoleAdmin}
	assert.False(t, inactive.Can(users.PermEmployeesRead))
}

func TestAuthenticate(t *testing.T) {
	// GIVEN: An account for hr@example.com
	// THEN: Only the right password on an active account authenticates

	svc := setup(t)
	ctx := context.Background()
	u, err := svc.Create(ctx, users.CreateInput{Email: "HR@example.com", Name: "Hana", Role: "hr", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	got, err := svc.Authenticate(ctx, "hr@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "hr@example.com", "wrong password")
	assert.ErrorIs(t, err, generic.ErrUnauthorized)
	_, err = svc.Authenticate(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, generic.ErrUnauthorized)

	_, err = svc.Update(ctx, u.ID, users.UpdateInput{Active: ptr(false)})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "hr@example.com", "correct horse")
	assert.ErrorIs(t, err, generic.ErrUnauthorized)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	in := users.CreateInput{Email: "a@example.com", Name: "A", Role: "viewer", Password: "password1"}
	_, err := svc.Create(ctx, in)
	require.NoError(t, err)

	_, err = svc.Create(ctx, in)
	assert.ErrorIs(t, err, generic.ErrConflict)

	in.Email, in.Password = "b@example.com", "short"
	_, err = svc.Create(ctx, in)
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestSetPassword(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	u, err := svc.Create(ctx, users.CreateInput{Email: "a@example.com", Name: "A", Role: "viewer", Password: "password1"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.SetPassword(ctx, u.ID, "tiny"), generic.ErrValidation)
	require.NoError(t, svc.SetPassword(ctx, u.ID, "password2"))

	_, err = svc.Authenticate(ctx, "a@example.com", "password1")
	assert.ErrorIs(t, err, generic.ErrUnauthorized)
	_, err = svc.Authenticate(ctx, "a@example.com", "password2")
	assert.NoError(t, err)
}

func TestBootstrap_OnlyWhenEmpty(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	created, err := svc.Bootstrap(ctx, "admin@example.com", "changeme123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Bootstrap(ctx, "other@example.com", "changeme123")
	require.NoError(t, err)
	assert.False(t, created)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, users.RoleAdmin, list[0].Role)
}

func TestLastAdminProtected(t *testing.T) {
	// GIVEN: A single admin
	// THEN: It cannot be demoted, deactivated or deleted until another admin exists

	svc := setup(t)
	ctx := context.Background()
	admin, err := svc.Create(ctx, users.CreateInput{Email: "admin@example.com", Name: "Admin", Role: "admin", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, admin.ID, users.UpdateInput{Role: ptr("viewer")})
	assert.ErrorIs(t, err, users.ErrLastAdmin)
	_, err = svc.Update(ctx, admin.ID, users.UpdateInput{Active: ptr(false)})
	assert.ErrorIs(t, err, generic.ErrConflict)
	assert.ErrorIs(t, svc.Delete(ctx, admin.ID), users.ErrLastAdmin)

	_, err = svc.Create(ctx, users.CreateInput{Email: "second@example.com", Name: "Second", Role: "admin", Password: "password1"})
	require.NoError(t, err)
	assert.NoError(t, svc.Delete(ctx, admin.ID))
}
