// Command citygen generates tile-grid city layouts with wave function
// collapse, renders them, and serves live generations over websockets.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lawnchairsociety/citygen/internal/config"
	"github.com/lawnchairsociety/citygen/internal/logger"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	loggingPath string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "citygen",
	Short: "Generate city layouts with wave function collapse",
	Long: `citygen builds square tile grids where every placed tile respects the
adjacency rules of its neighbours.

Examples:
  citygen generate --dimensions 24 --seed 42
  citygen generate --out maps/town.yaml --save
  citygen render --input maps/town.yaml
  citygen serve`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "data/config.yaml", "Path to config YAML file")
	rootCmd.PersistentFlags().StringVar(&loggingPath, "logging", "data/logging.yaml", "Path to logging config YAML file")
}

// setup initializes the logger first, then loads and validates the config.
func setup(cmd *cobra.Command, args []string) error {
	logConfig, err := logger.LoadConfig(loggingPath)
	if err != nil {
		return fmt.Errorf("failed to load logging config: %w", err)
	}
	if err := logger.Initialize(logConfig); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return cfg.Validate()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
