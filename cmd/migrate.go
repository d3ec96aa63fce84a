package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sttalk999/sttalk/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, zapLogger, err := bootstrap()
		if err != nil {
			return err
		}
		defer zapLogger.Sync() //nolint:errcheck

		return app.New(cfg, logger).Migrate(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
