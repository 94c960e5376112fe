package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dronemarket_backend/internal/app"
	"dronemarket_backend/internal/config"
	"dronemarket_backend/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "dronemarket",
	Short: "Drone cleaning marketplace API",
	// без подкоманды запускается сервер
	RunE: runServe,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath, nil)
		if err != nil {
			return err
		}
		config.AppConfig = cfg
		logger.Init(cfg.Server.Env)
		logger.Info("Logger initialized", "env", cfg.Server.Env)
		return nil
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP API, websocket hub and background workers",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Migrate(cmd.Context(), config.AppConfig)
	},
}

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the first admin user from FIRST_ADMIN_EMAIL/FIRST_ADMIN_PASSWORD",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.SeedAdmin(cmd.Context(), config.AppConfig)
	},
}

func runServe(cmd *cobra.Command, args []string) error {
	return app.Run(cmd.Context(), config.AppConfig)
}

func init() {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config/config.yaml"
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "Path to YAML config (env vars override it)")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedAdminCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
