package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carlosatFroom/learning-system/internal/catalog"
	"github.com/carlosatFroom/learning-system/internal/database"
	"github.com/carlosatFroom/learning-system/internal/schema"
)

func newSchemaCmd(flags *rootFlags) *cobra.Command {
	var dialect string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the DDL the mirror creates on the remote",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			d, err := resolveDialect(dialect, cfg.Remote.Driver)
			if err != nil {
				return err
			}

			remote, err := catalog.MustSchema().Mirror(cfg.Sync.Prefix)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, level := range remote.Levels() {
				fmt.Fprintf(out, "-- level %d\n", i)
				for _, e := range level {
					fmt.Fprintf(out, "%s;\n", schema.CreateTableSQL(e, d))
					for _, ix := range schema.CreateIndexSQL(e, d) {
						fmt.Fprintf(out, "%s;\n", ix)
					}
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dialect, "dialect", "", "Target dialect (mysql, postgres, sqlite); defaults to the remote driver")

	return cmd
}

func resolveDialect(flag, remoteDriver string) (database.Dialect, error) {
	name := flag
	if name == "" {
		name = remoteDriver
	}
	if name == "" {
		name = string(database.DriverMySQL)
	}
	drv, err := database.ParseDriver(name)
	if err != nil {
		return 0, err
	}
	return drv.Dialect(), nil
}
