package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/hrdesk/compliance"
	"github.com/warp/hrdesk/employees"
	"github.com/warp/hrdesk/sheets"
)

func newImportCommand(rootOpts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk-load spreadsheets (CSV, XLS or XLSX)",
	}
	cmd.AddCommand(newImportEmployeesCommand(rootOpts))
	cmd.AddCommand(newImportRecordsCommand(rootOpts))
	return cmd
}

func newImportEmployeesCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "employees FILE",
		Short: "Create or update employees from a spreadsheet",
		Long: `Rows are matched to existing employees by email; unmatched rows are
created. Rejected rows are listed and the rest are still imported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := readTable(args[0])
			if err != nil {
				return err
			}
			rows, err := employees.FromTable(table)
			if err != nil {
				return err
			}

			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.services.Employees.Import(cliContext(cmd.Context()), rows)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), res)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "created %d, updated %d, rejected %d\n", res.Created, res.Updated, len(res.Errors))
			printRowErrors(cmd, res.Errors)
			return nil
		},
	}
}

func newImportRecordsCommand(rootOpts *rootOptions) *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "records TRACKER_ID FILE",
		Short: "Add completion records to a tracker from a spreadsheet",
		Long: `Employees are matched by ID, email or exact name. Rows without a
period column use --period, which defaults to the current period.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := readTable(args[1])
			if err != nil {
				return err
			}

			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cliContext(cmd.Context())
			tracker, err := a.services.Tracking.GetTracker(ctx, args[0])
			if err != nil {
				return err
			}
			if period == "" {
				period = string(compliance.CurrentPeriod(tracker.Frequency, time.Now()))
			}
			res, err := a.services.Tracking.ImportRecords(ctx, tracker.ID, table, compliance.PeriodID(period))
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: created %d, rejected %d\n", tracker.Name, res.Created, len(res.Errors))
			printRowErrors(cmd, res.Errors)
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "period for rows without one (default: current)")
	return cmd
}

func readTable(path string) (*sheets.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return sheets.Read(filepath.Base(path), f)
}

func printRowErrors(cmd *cobra.Command, errs []employees.RowError) {
	for _, e := range errs {
		fmt.Fprintf(cmd.ErrOrStderr(), "  line %d: %s\n", e.Line, e.Message)
	}
}
