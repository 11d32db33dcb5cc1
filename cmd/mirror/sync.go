package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/carlosatFroom/learning-system/internal/mirror"
)

func newSyncCmd(flags *rootFlags) *cobra.Command {
	var (
		opts   mirror.RunOptions
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync now",
		Long: `Run one sync against the configured remote.

Without --force the run is skipped while the cooldown since the last
successful sync has not elapsed. --reset drops and recreates every remote
table first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			rep := a.syncer.Run(cmd.Context(), opts)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(rep); err != nil {
					return err
				}
			} else {
				printReport(cmd, rep)
			}

			if rep.Status == mirror.StatusError {
				return fmt.Errorf("sync failed: %s", rep.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Ignore the cooldown")
	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "Drop and recreate remote tables before copying")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	return cmd
}

func printReport(cmd *cobra.Command, rep mirror.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (run %s)\n", rep.Status, rep.RunID)
	if rep.Message != "" {
		fmt.Fprintf(out, "  %s\n", rep.Message)
	}
	if len(rep.Details) == 0 {
		return
	}

	names := make([]string, 0, len(rep.Details))
	for name := range rep.Details {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r := rep.Details[name]
		fmt.Fprintf(out, "  %-14s inserted=%d updated=%d changed=%d total=%d\n", name, r.Inserted, r.Updated, r.Changed, r.Total)
	}
	t := rep.Totals()
	fmt.Fprintf(out, "  %-14s inserted=%d updated=%d changed=%d total=%d\n", "(all)", t.Inserted, t.Updated, t.Changed, t.Total)
}
