package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/hrdesk/api"
	"github.com/warp/hrdesk/config"
	"github.com/warp/hrdesk/documents"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds how long in-flight requests may take to finish.
const shutdownTimeout = 30 * time.Second

func newServeCommand(rootOpts *rootOptions) *cobra.Command {
	var staticDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and dashboard",
		Long: `Serve the JSON API under /api and the built dashboard from web/dist.

On SIGINT/SIGTERM the server stops accepting connections, waits up to 30s
for active requests, stops the document expiry sweep and closes the database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, staticDir)
		},
	}
	cmd.Flags().StringVar(&staticDir, "static", "", "directory with the built dashboard (default ./web/dist)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, staticDir string) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.logger

	if a.cfg.AdminEmail != "" {
		created, err := a.services.Users.Bootstrap(cliContext(ctx), a.cfg.AdminEmail, a.cfg.AdminPassword)
		if err != nil {
			return err
		}
		if created {
			log.Info("created initial admin account", zap.String("email", a.cfg.AdminEmail))
		}
	} else if accounts, err := a.services.Users.List(ctx); err == nil && len(accounts) == 0 {
		log.Warn("no accounts exist and HRDESK_ADMIN_EMAIL is not set; nobody can sign in")
	}

	expiry := documents.NewExpiryScheduler(a.services.Documents, a.bus, a.store, log, a.cfg.ExpirySweepInterval)
	a.services.Expiry = expiry
	expiry.Start()
	defer expiry.Stop()

	handler := api.NewHandler(a.services, log)
	router := api.NewRouter(handler, api.Options{
		CORSOrigins:     a.cfg.CORSOrigins,
		IntakeRateLimit: a.cfg.IntakeRateLimit,
		Production:      a.cfg.Production,
		StaticDir:       staticDir,
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting",
			zap.String("addr", cfg.Addr),
			zap.String("driver", a.cfg.DBDriver),
			zap.Time("next_expiry_sweep", expiry.NextRunTime()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}
