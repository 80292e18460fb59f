package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/noah-isme/chatcal-api/pkg/cache"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(opts *RootOptions) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print store revision notices as they are published",
		Long: `Subscribe to REDIS_REVISION_CHANNEL and print each revision notice published
by a running server. Requires REDIS_ENABLED.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Redis.Enabled {
				return errors.New("watch requires REDIS_ENABLED")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := cache.NewRedis(ctx, cfg.Redis)
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			repo := newSnapshotCache(client, cfg.Redis, opts.cliLogger())
			defer repo.Close() //nolint:errcheck

			notices, err := repo.SubscribeRevisions(ctx)
			if err != nil {
				return err
			}

			seen := 0
			for notice := range notices {
				if err := writeOutput(cmd.OutOrStdout(), opts.Format, notice); err != nil {
					return err
				}
				seen++
				if count > 0 && seen >= count {
					return nil
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "exit after this many notices (0 waits until interrupted)")
	return cmd
}
