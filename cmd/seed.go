package cmd

import (
	"errors"
	"fmt"

	"TaskPilotGo/config"
	"TaskPilotGo/services"

	"github.com/spf13/cobra"
)

var (
	seedUserID uint
	seedFile   string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create default projects for a user and attach unassigned tasks",
	Long: `Upserts the projects listed in a YAML fixture for the given user, then
attaches that user's unassigned tasks by title keyword. Without --file the
built-in fixture is used.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().UintVar(&seedUserID, "user", 0, "Owner user id")
	seedCmd.Flags().StringVar(&seedFile, "file", "", "YAML fixture path (optional)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedUserID == 0 {
		return errors.New("--user is required")
	}

	fixture, err := services.LoadFixture(seedFile)
	if err != nil {
		return err
	}

	if _, err := bootstrap(); err != nil {
		return err
	}
	defer config.Logger.Sync()

	result, err := services.NewSeeder(config.DB).Run(cmd.Context(), seedUserID, fixture)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "projects: %d, attached tasks: %d\n", result.Projects, result.Attached)
	return nil
}
