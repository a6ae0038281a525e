package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/hrdesk/compliance"
)

type periodsOptions struct {
	Frequency string
	Period    string
	Now       string
	Year      int
}

// periodsOutput is the --format json shape.
type periodsOutput struct {
	Frequency string                `json:"frequency"`
	AsOf      string                `json:"as_of"`
	Current   string                `json:"current"`
	Period    string                `json:"period,omitempty"`
	Valid     *bool                 `json:"valid,omitempty"`
	Start     string                `json:"start,omitempty"`
	End       string                `json:"end,omitempty"`
	Fallback  bool                  `json:"fallback,omitempty"`
	Overdue   *bool                 `json:"overdue,omitempty"`
	Year      []compliance.PeriodID `json:"year,omitempty"`
}

func newPeriodsCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &periodsOptions{}

	cmd := &cobra.Command{
		Use:   "periods",
		Short: "Print compliance period keys and bounds",
		Long: `Work out period keys without a database.

With only --frequency it prints the current period. --period adds that
period's bounds and whether it is overdue; --year lists every period key
of a year. --now pins "today" (YYYY-MM-DD or RFC3339).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPeriods(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Frequency, "frequency", "f", "", "annual, bi-annual, quarterly, monthly or weekly")
	cmd.Flags().StringVarP(&opts.Period, "period", "p", "", "period key to resolve, e.g. 2024-Q4")
	cmd.Flags().StringVar(&opts.Now, "now", "", "reference time (default: current time)")
	cmd.Flags().IntVar(&opts.Year, "year", 0, "list every period key of this year")
	_ = cmd.MarkFlagRequired("frequency")
	return cmd
}

func runPeriods(cmd *cobra.Command, rootOpts *rootOptions, opts *periodsOptions) error {
	freq, err := compliance.ParseFrequency(opts.Frequency)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if opts.Now != "" {
		if now, err = parseNow(opts.Now); err != nil {
			return err
		}
	}

	out := periodsOutput{
		Frequency: string(freq),
		AsOf:      now.Format(time.RFC3339),
		Current:   string(compliance.CurrentPeriod(freq, now)),
	}
	if opts.Period != "" {
		id := compliance.PeriodID(opts.Period)
		valid := compliance.ValidPeriod(freq, id)
		overdue := compliance.IsOverdue(id, freq, now)
		b := compliance.PeriodBounds(freq, id, now)
		out.Period = opts.Period
		out.Valid = &valid
		out.Overdue = &overdue
		out.Start = b.Start.Format("2006-01-02")
		out.End = b.End.Format("2006-01-02")
		out.Fallback = b.Fallback
	}
	if opts.Year != 0 {
		out.Year = compliance.PeriodsOfYear(freq, opts.Year)
	}

	w := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		return printJSON(w, out)
	}

	fmt.Fprintf(w, "frequency: %s\nas of:     %s\ncurrent:   %s\n", out.Frequency, out.AsOf, out.Current)
	if out.Period != "" {
		fmt.Fprintf(w, "period:    %s (valid: %t)\nbounds:    %s .. %s", out.Period, *out.Valid, out.Start, out.End)
		if out.Fallback {
			fmt.Fprint(w, " (fallback)")
		}
		fmt.Fprintf(w, "\noverdue:   %t\n", *out.Overdue)
	}
	for _, id := range out.Year {
		fmt.Fprintln(w, id)
	}
	return nil
}

func parseNow(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: use YYYY-MM-DD or RFC3339", raw)
	}
	return t, nil
}
