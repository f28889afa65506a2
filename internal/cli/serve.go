package cli

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/xcompile/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the compile HTTP API",
		Long:  "Serves POST /v1/compile and friends. With watch.enabled the configured jobs are also watched.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if v := strings.TrimSpace(listen); v != "" {
				cfg.Server.Listen = v
			}
			logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
			srv, err := server.New(cfg, a.reg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = srv.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if cfg.Watch.Enabled && len(cfg.Jobs) > 0 {
				go func() {
					if err := a.watch(ctx, cmd, cfg, cfg.Jobs); err != nil {
						logger.Printf("watch disabled: err=%v", err)
					}
				}()
			}
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default server.listen)")
	return cmd
}
