package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"cardview/internal/logs"
	"cardview/internal/server"

	"github.com/spf13/cobra"
)

func (a *app) serveCmd() *cobra.Command {
	var origins []string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve views over HTTP with live updates on a websocket",
		Long: `Starts the HTTP API on --addr (or the configured addr). Clients read
projected views, change cards and views, and listen on /ws for refresh
events, including changes other processes make to the same workspace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub := server.NewHub(logs.Base().Named("hub"))
			ws.Notifier.Add(hub)
			srv := server.New(ws.Ops, hub, origins, logs.Base().Named("server"))

			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				hub.Run(ctx)
			}()
			go func() {
				defer wg.Done()
				if err := ws.Follow(ctx, hub); err != nil && !errors.Is(err, context.Canceled) {
					logs.Logger.Warnw("follow stopped", "error", err)
				}
			}()

			logs.Logger.Infow("serving", "addr", a.cfg.Addr, "workspace", a.cfg.Workspace, "backend", a.cfg.Backend)
			err = srv.ListenAndServe(ctx, a.cfg.Addr)
			stop()
			wg.Wait()
			return err
		},
	}
	cmd.Flags().StringVar(&a.flags.Addr, "addr", "", "listen address, e.g. :8080")
	cmd.Flags().StringSliceVar(&origins, "origin", nil, "allowed CORS origin (repeatable); all when unset")
	return cmd
}
