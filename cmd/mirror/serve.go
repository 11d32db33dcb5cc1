package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/carlosatFroom/learning-system/internal/server"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sync status and trigger API",
		Long: `Serve the sync API until interrupted.

Endpoints:
  GET  /api/sync/status                 last sync time and whether a sync may run
  POST /api/sync/trigger?force=&reset=  run a sync
  GET  /healthz                         liveness`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := flags.setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			srv := server.New(a.cfg.Server, a.syncer, a.log)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides server.addr")

	return cmd
}

