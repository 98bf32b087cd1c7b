package cmd

import (
	"fmt"
	"os"

	"TaskPilotGo/config"
	"TaskPilotGo/utils"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "taskpilot",
	Short: "Personal task management backend",
	Long: `TaskPilot serves the task list, dashboard and project pages over a JSON API.

Use "serve" to run the HTTP server, "migrate" to create the schema and
"seed" to prepare default projects for a user.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "Directory containing the .env file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

// bootstrap 加载配置并初始化日志与数据库
func bootstrap() (config.Config, error) {
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("无法加载配置: %w", err)
	}

	if err := config.InitLogger(conf.LogDir); err != nil {
		return config.Config{}, fmt.Errorf("无法初始化日志: %w", err)
	}

	if err := config.InitDB(conf); err != nil {
		return config.Config{}, fmt.Errorf("无法初始化数据库: %w", err)
	}

	utils.SetJWTSecret(conf.JWTSecret)
	return conf, nil
}
