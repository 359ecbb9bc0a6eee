// Command made runs the Memory-Aware Degradation Engine: an HTTP façade for
// the questionnaire frontend, a live terminal monitor, an offline curve
// simulator, and a store seeder, all over the same engine core.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"made/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	logger *zap.Logger
	cfg    *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "made",
	Short: "MADE - Memory-Aware Degradation Engine for NPC cognition",
	Long: `MADE gives game NPCs memories that decay the way human ones do.

A Big Five (OCEAN) assessment is projected into a single memory-stability
factor, retention follows a two-phase forgetting curve on a scaled game
clock, and the agent's spoken recall erodes with it: confident detail
first, hedged reconstruction later, bare gist at the floor.

Commands:
  serve     expose the engine over HTTP for the questionnaire frontend
  monitor   watch one agent degrade live in the terminal
  simulate  evaluate the curve offline, no store required
  seed      insert a sample agent and tasks for development`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Environment files are optional; absence is not an error.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		zcfg := zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(cfg.Logging.Level)
		if err != nil {
			level = zapcore.InfoLevel
		}
		if verbose {
			level = zapcore.DebugLevel
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)

		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "made.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
