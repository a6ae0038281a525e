package recruitment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hrdesk/employees"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/recruitment"
	"github.com/warp/hrdesk/store/sqldb"
)

func setup(t *testing.T) (*recruitment.Service, *employees.Service, *sqldb.Store) {
	t.Helper()
	store, err := sqldb.Open(context.Background(), sqldb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	staff := employees.NewService(store, store, nil)
	return recruitment.NewService(store, staff, store, nil), staff, store
}

func submit(t *testing.T, svc *recruitment.Service, email string) *recruitment.Application {
	t.Helper()
	a, err := svc.Submit(context.Background(), recruitment.SubmitInput{
		Position: "Care Assistant",
		Name:     "Dana Smith",
		Email:    email,
		Branch:   "Leeds",
	})
	require.NoError(t, err)
	return a
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to recruitment.Status
		want     bool
	}{
		{recruitment.StatusNew, recruitment.StatusReviewing, true},
		{recruitment.StatusNew, recruitment.StatusInterview, true},
		{recruitment.StatusInterview, recruitment.StatusReviewing, false},
		{recruitment.StatusOffered, recruitment.StatusHired, true},
		{recruitment.StatusReviewing, recruitment.StatusRejected, true},
		{recruitment.StatusNew, recruitment.StatusWithdrawn, true},
		{recruitment.StatusRejected, recruitment.StatusReviewing, false},
		{recruitment.StatusHired, recruitment.StatusWithdrawn, false},
		{recruitment.StatusNew, recruitment.StatusNew, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, recruitment.CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestSubmit_Defaults(t *testing.T) {
	svc, _, _ := setup(t)
	a := submit(t, svc, " Dana@Example.com ")

	assert.Equal(t, recruitment.StatusNew, a.Status)
	assert.Equal(t, "dana@example.com", a.Email)
	assert.Equal(t, "careers_page", a.Source)
}

func TestSubmit_Invalid(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.Submit(context.Background(), recruitment.SubmitInput{Position: "Cook", Name: "X", Email: "not-an-email"})

	var verr *generic.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Fields[0].Field)
}

func TestTransition_AppendsNotes(t *testing.T) {
	// GIVEN: A new application
	// WHEN: Moved to reviewing then interview, each with a note
	// THEN: Both notes are kept and a backwards move is refused

	svc, _, _ := setup(t)
	ctx := context.Background()
	a := submit(t, svc, "dana@example.com")

	_, err := svc.Transition(ctx, a.ID, recruitment.TransitionInput{Status: "reviewing", Note: "good CV"})
	require.NoError(t, err)
	got, err := svc.Transition(ctx, a.ID, recruitment.TransitionInput{Status: "interview", Note: "Tuesday 10am"})
	require.NoError(t, err)
	assert.Equal(t, "good CV\nTuesday 10am", got.Notes)

	_, err = svc.Transition(ctx, a.ID, recruitment.TransitionInput{Status: "new"})
	assert.ErrorIs(t, err, generic.ErrInvalidTransition)

	_, err = svc.Transition(ctx, a.ID, recruitment.TransitionInput{Status: "hired"})
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestHire_CreatesEmployee(t *testing.T) {
	svc, staff, store := setup(t)
	ctx := context.Background()
	a := submit(t, svc, "dana@example.com")

	hired, emp, err := svc.Hire(ctx, a.ID, recruitment.HireInput{HireDate: "2025-03-01"})
	require.NoError(t, err)
	assert.Equal(t, recruitment.StatusHired, hired.Status)
	assert.Equal(t, emp.ID, hired.EmployeeID)
	assert.Equal(t, "Care Assistant", emp.JobTitle)
	assert.Equal(t, "Leeds", emp.Branch)
	assert.Equal(t, "2025-03-01", emp.HireDate.String())

	list, err := staff.List(ctx, employees.Filter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, _, err = svc.Hire(ctx, a.ID, recruitment.HireInput{HireDate: "2025-03-01"})
	assert.ErrorIs(t, err, generic.ErrInvalidTransition)

	entries, err := store.QueryAudit(ctx, generic.AuditFilter{Subject: "application"})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestHire_DuplicateEmailLeavesApplicationOpen(t *testing.T) {
	// GIVEN: An employee already uses the applicant's email
	// THEN: Hire fails with a conflict and the application is unchanged

	svc, staff, _ := setup(t)
	ctx := context.Background()
	_, err := staff.Create(ctx, employees.Input{Name: "Other Dana", Email: "dana@example.com"})
	require.NoError(t, err)

	a := submit(t, svc, "dana@example.com")
	_, _, err = svc.Hire(ctx, a.ID, recruitment.HireInput{HireDate: "2025-03-01"})
	assert.ErrorIs(t, err, generic.ErrConflict)

	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, recruitment.StatusNew, got.Status)
}

func TestList_FilterAndDelete(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	a := submit(t, svc, "a@example.com")
	b := submit(t, svc, "b@example.com")
	_, err := svc.Transition(ctx, b.ID, recruitment.TransitionInput{Status: "rejected"})
	require.NoError(t, err)

	list, err := svc.List(ctx, recruitment.Filter{Status: recruitment.StatusNew})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	_, err = svc.List(ctx, recruitment.Filter{Status: "lost"})
	assert.ErrorIs(t, err, generic.ErrValidation)

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.ErrorIs(t, svc.Delete(ctx, a.ID), generic.ErrNotFound)
}
