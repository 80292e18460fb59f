package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/chatcal-api/pkg/database"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Create the server-side event tables",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			dbCfg := cfg.Database
			dbCfg.AutoMigrate = false
			db, err := database.NewPostgres(cmd.Context(), dbCfg)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(cmd.Context(), db); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), opts.Format, map[string]interface{}{
				"migrated": true,
				"database": cfg.Database.Name,
			})
		},
	}
}
