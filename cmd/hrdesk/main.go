/*
hrdesk - HR admin dashboard

PURPOSE:
  One binary for the dashboard server and the admin chores around it.

COMMANDS:
  serve                       Run the HTTP API and dashboard
  periods                     Print compliance period keys and bounds
  import employees FILE       Bulk-load employees from CSV/XLS/XLSX
  import records TRACKER FILE Bulk-load completion records
  seed FILE                   Load a YAML seed document

CONFIGURATION:
  Every command reads HRDESK_* environment variables (see config/config.go).
  --db and --driver override HRDESK_DB_DSN and HRDESK_DB_DRIVER.

EXAMPLES:
  # Run against a throwaway database
  hrdesk serve --db=":memory:"

  # Which quarter is it, and is last quarter overdue?
  hrdesk periods --frequency quarterly --period 2024-Q4

SEE ALSO:
  - api/server.go: Router configuration
  - factory/seed.go: Seed document format
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
