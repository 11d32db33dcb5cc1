package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last sync time and whether a sync may run now",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			rep := a.syncer.Status(cmd.Context())
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(rep)
			}
			fmt.Fprintln(cmd.OutOrStdout(), rep.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status as JSON")

	return cmd
}
