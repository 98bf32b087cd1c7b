package cmd

import (
	"fmt"

	"TaskPilotGo/config"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := bootstrap(); err != nil {
			return err
		}
		defer config.Logger.Sync()

		if err := config.MigrateDB(config.DB); err != nil {
			return fmt.Errorf("迁移失败: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migration complete")
		return nil
	},
}
