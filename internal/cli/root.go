// Package cli wires the chatcal command tree.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/chatcal-api/pkg/config"
)

// RootOptions holds the persistent flags shared by every subcommand.
type RootOptions struct {
	EnvFile string
	Format  string
	Verbose bool
}

// ValidFormats lists the supported output formats.
var ValidFormats = []string{"json", "yaml"}

// NewRootCommand creates the chatcal root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "chatcal",
		Short: "Chat-driven calendar service",
		Long: `chatcal keeps a client event list in step with chat mutations and a remote
events service.

Run "chatcal serve" for the HTTP API, or use the offline commands to reconcile
a mutation result against a snapshot file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range ValidFormats {
				if opts.Format == f {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %s", opts.Format, strings.Join(ValidFormats, ", "))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "env file read before the environment")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "json", "output format (json|yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log to stderr")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(o.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// cliLogger is used by the offline commands, which keep stdout for results.
func (o *RootOptions) cliLogger() *zap.Logger {
	if !o.Verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
