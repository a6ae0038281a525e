package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/hrdesk/factory"
)

func newSeedCommand(rootOpts *rootOptions) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "seed FILE",
		Short: "Load a YAML seed document",
		Long: `Load staff, trackers, records, documents, leave and accounts from YAML.
Rows that already exist are skipped, so a seed can be re-applied.
See factory/seed.go for the format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			seed, err := factory.Parse(f)
			if err != nil {
				return err
			}
			if check {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d employees, %d trackers)\n", args[0], len(seed.Employees), len(seed.Trackers))
				return nil
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

			res, err := factory.NewLoader(a.seedServices(), a.logger).Load(cliContext(cmd.Context()), seed)
			if rootOpts.Format == "json" && res != nil {
				if perr := printJSON(cmd.OutOrStdout(), res); perr != nil && err == nil {
					err = perr
				}
			} else if res != nil {
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "settings   %d\n", res.Settings)
				for _, row := range []struct {
					name string
					c    factory.Counts
				}{
					{"users", res.Users}, {"employees", res.Employees}, {"holidays", res.Holidays},
					{"trackers", res.Trackers}, {"records", res.Records}, {"documents", res.Documents},
					{"leave", res.Leave},
				} {
					fmt.Fprintf(w, "%-10s %d created, %d skipped\n", row.name, row.c.Created, row.c.Skipped)
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "only parse and validate the file")
	return cmd
}
