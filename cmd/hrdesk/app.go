package main

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/hrdesk/api"
	"github.com/warp/hrdesk/config"
	"github.com/warp/hrdesk/documents"
	"github.com/warp/hrdesk/employees"
	"github.com/warp/hrdesk/factory"
	"github.com/warp/hrdesk/generic"
	"github.com/warp/hrdesk/notify"
	"github.com/warp/hrdesk/recruitment"
	"github.com/warp/hrdesk/settings"
	"github.com/warp/hrdesk/store/sqldb"
	"github.com/warp/hrdesk/timeoff"
	"github.com/warp/hrdesk/tracking"
	"github.com/warp/hrdesk/users"
	"go.uber.org/zap"
)

// app is the wired dependency graph shared by every command.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *sqldb.Store
	bus      notify.Bus
	services api.Services
}

// newApp opens storage and the change bus and builds every service.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	store, err := sqldb.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var bus notify.Bus
	if cfg.RedisAddr != "" {
		rb, err := notify.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		bus = rb
		logger.Info("change bus", zap.String("backend", "redis"), zap.String("addr", cfg.RedisAddr))
	} else {
		bus = notify.NewMemory()
	}

	prefs := settings.NewService(store, store, bus, map[settings.Key]string{
		settings.KeyCompanyName:         cfg.CompanyName,
		settings.KeyDocumentWarningDays: fmt.Sprint(cfg.DocumentWarningDays),
	})
	warnDays := func(ctx context.Context) int {
		return prefs.Int(ctx, settings.KeyDocumentWarningDays, cfg.DocumentWarningDays)
	}
	staff := employees.NewService(store, store, bus)

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		bus:    bus,
		services: api.Services{
			Employees: staff,
			Tracking:  tracking.NewService(store, store, store, bus),
			Documents: documents.NewService(store, store, bus, warnDays),
			Leave: timeoff.NewService(store, store, store, bus, timeoff.Options{
				Year: generic.YearConfig{FiscalStartMonth: time.Month(cfg.FiscalStartMonth)},
			}),
			Recruitment: recruitment.NewService(store, staff, store, bus),
			Users:       users.NewService(store, store, bus),
			Settings:    prefs,
			Audit:       store,
			Bus:         bus,
		},
	}, nil
}

func (a *app) seedServices() factory.Services {
	return factory.Services{
		Employees: a.services.Employees,
		Tracking:  a.services.Tracking,
		Documents: a.services.Documents,
		Leave:     a.services.Leave,
		Users:     a.services.Users,
		Settings:  a.services.Settings,
	}
}

// Close releases the bus and database and flushes the logger.
func (a *app) Close() {
	if err := a.bus.Close(); err != nil {
		a.logger.Warn("closing change bus", zap.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing database", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// cliContext marks writes made from the command line in the audit log.
func cliContext(ctx context.Context) context.Context {
	return generic.WithActor(ctx, "cli")
}
