package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sonata-project/devkit/config"
	"github.com/sonata-project/devkit/internal/logger"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "devkit",
	Short: "Maintenance bots for Sonata project repositories",
	Long: `devkit runs scheduled maintenance tasks against the GitHub repositories
listed in its configuration file.

The GitHub token can be provided via the ` + config.EnvGithubToken + ` environment variable.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "Path to configuration file (.json or .toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func newLogger() (*zap.SugaredLogger, error) {
	l, err := logger.New(logLevel)
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
