package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/warp/hrdesk/config"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	DB     string
	Driver string
	Format string // "text" | "json"
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "hrdesk",
		Short:         "HR admin dashboard",
		Long:          "Compliance tracking, documents, leave and recruitment for a small company.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", opts.Format)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "database DSN (overrides HRDESK_DB_DSN)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "database driver, sqlite3 or pgx (overrides HRDESK_DB_DRIVER)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newPeriodsCommand(opts))
	cmd.AddCommand(newImportCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))
	return cmd
}

// loadConfig reads the environment and applies flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.DB != "" {
		cfg.DBDSN = o.DB
	}
	if o.Driver != "" {
		cfg.DBDriver = o.Driver
	}
	return cfg, cfg.Validate()
}

// printJSON writes v indented, for --format json.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
