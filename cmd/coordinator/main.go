// Package main implements the coordinator CLI, a demonstration harness
// around the coordination core: driving a debate to resolution,
// replaying an escalation decision trail, and inspecting a serialized
// checkpoint.
//
// # File Index
//
//   - main.go             - entry point, rootCmd, global flags
//   - cmd_run_debate.go   - run-debate: drives an Orchestrator to a terminal phase
//   - cmd_run_escalation.go - run-escalation: replays an iteration/escalation trail
//   - cmd_inspect_checkpoint.go - inspect-checkpoint: loads and validates a checkpoint
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"codenerd/internal/config"
	"codenerd/internal/logging"
)

var (
	verbose    bool
	workspace  string
	configPath string

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "coordinator",
	Short: "Multi-agent coordination core demo CLI",
	Long: `coordinator drives the multi-agent coordination core directly from
the command line: run a debate to resolution, replay an escalation
decision trail, or inspect a serialized checkpoint.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		if err := logging.Initialize(ws); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize file logging: %v\n", err)
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".coord/config.yaml", "Path to config file")

	rootCmd.AddCommand(
		runDebateCmd,
		runEscalationCmd,
		inspectCheckpointCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
