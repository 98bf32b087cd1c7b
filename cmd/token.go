package cmd

import (
	"errors"
	"fmt"

	"TaskPilotGo/config"
	"TaskPilotGo/models"
	"TaskPilotGo/utils"

	"github.com/spf13/cobra"
)

var tokenUserID uint

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a JWT for an existing user (development helper)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenUserID == 0 {
			return errors.New("--user is required")
		}
		conf, err := bootstrap()
		if err != nil {
			return err
		}
		defer config.Logger.Sync()
		if conf.IsProduction() {
			return errors.New("token command is disabled in production")
		}

		var user models.User
		if err := config.DB.WithContext(cmd.Context()).First(&user, tokenUserID).Error; err != nil {
			return fmt.Errorf("user %d: %w", tokenUserID, err)
		}

		token, err := utils.GenerateToken(user.ID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().UintVar(&tokenUserID, "user", 0, "User id")
}
