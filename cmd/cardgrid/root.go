package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/youruser/cardgrid/internal/config"
	"github.com/youruser/cardgrid/internal/generator"
	"github.com/youruser/cardgrid/internal/logging"
)

var (
	configPath string
	verbose    bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "cardgrid",
	Short: "Render deck and banlist images",
	Long: `cardgrid renders a deck or a session banlist as a single image of card art tiles
and stores it under the public root, where the web application serves it from.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to cardgrid.toml (default $"+config.EnvConfigPath+")")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every card art lookup")
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadFromEnv()
}

func newService() (*generator.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return generator.NewFromConfig(cfg), nil
}
