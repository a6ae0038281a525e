package settings_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/notify"
	"github.com/warp/hrdesk/settings"
	"github.com/warp/hrdesk/store/sqldb"
)

func setup(t *testing.T) (*settings.Service, *notify.Memory) {
	t.Helper()
	store, err := sqldb.Open(context.Background(), sqldb.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bus := notify.NewMemory()
	svc := settings.NewService(store, store, bus, map[settings.Key]string{
		settings.KeyCompanyName:         "Acme Care",
		settings.KeyDocumentWarningDays: "30",
	})
	return svc, bus
}

func TestGet_FallsBackToDefault(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	v, err := svc.Get(ctx, settings.KeyCompanyName)
	require.NoError(t, err)
	assert.Equal(t, "Acme Care", v)
	assert.Equal(t, 30, svc.Int(ctx, settings.KeyDocumentWarningDays, 5))

	_, err = svc.Get(ctx, "theme")
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestSet(t *testing.T) {
	// GIVEN: Default settings
	// WHEN: The warning window is changed to 14 days
	// THEN: Reads see 14, List merges defaults, and a settings change is published

	svc, bus := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, settings.KeyDocumentWarningDays, " 14 "))
	assert.Equal(t, 14, svc.Int(ctx, settings.KeyDocumentWarningDays, 30))

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[settings.Key]string{
		settings.KeyCompanyName:         "Acme Care",
		settings.KeyDocumentWarningDays: "14",
	}, all)

	v, _ := bus.Version(ctx, notify.TopicSettings)
	assert.Equal(t, int64(1), v)
}

func TestSet_Rejections(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		key   settings.Key
		value string
		want  error
	}{
		{settings.KeyDocumentWarningDays, "-1", generic.ErrValidation},
		{settings.KeyDocumentWarningDays, "366", generic.ErrValidation},
		{settings.KeyDocumentWarningDays, "two weeks", generic.ErrValidation},
		{settings.KeyCompanyName, "   ", generic.ErrValidation},
		{"theme", "dark", generic.ErrNotFound},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, svc.Set(ctx, tt.key, tt.value), tt.want, "%s=%q", tt.key, tt.value)
	}
}
