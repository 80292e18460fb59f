package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/noah-isme/chatcal-api/pkg/logger"
)

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

The store is restored from STORE_SNAPSHOT_PATH, remote sync starts when
SYNC_ENABLED is set, and /events is mounted when DB_ENABLED is set.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logr, err := logger.New(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logr.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := newApplication(ctx, cfg, logr)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.Run(ctx)
		},
	}
	return cmd
}
