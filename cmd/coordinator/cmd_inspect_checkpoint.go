package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codenerd/internal/checkpoint"
	"codenerd/internal/debate"
	"codenerd/internal/logging"
)

var inspectCheckpointTaskID string

var inspectCheckpointCmd = &cobra.Command{
	Use:   "inspect-checkpoint",
	Short: "Load the latest checkpoint for a task and report its integrity status",
	Long: `inspect-checkpoint opens the sqlite-backed checkpoint store under
.coord/checkpoints in the current directory, loads the latest checkpoint
recorded for --task-id (writing a demo checkpoint first if none exists), runs
it through integrity validation, and prints the verdict plus any
warnings or errors found.`,
	RunE: runInspectCheckpoint,
}

func init() {
	inspectCheckpointCmd.Flags().StringVar(&inspectCheckpointTaskID, "task-id", "cli-task", "Task identifier to load the latest checkpoint for")
}

func runInspectCheckpoint(cmd *cobra.Command, args []string) error {
	store, err := checkpoint.NewStore(".coord/checkpoints")
	if err != nil {
		return fmt.Errorf("open checkpoint store: %w", err)
	}
	defer store.Close()

	cp, found, err := store.LoadLatest(inspectCheckpointTaskID)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	if !found {
		fmt.Printf("no checkpoint recorded for task %q; writing a demo checkpoint\n", inspectCheckpointTaskID)
		cp = demoCheckpoint()
		if err := store.Save(inspectCheckpointTaskID, cp); err != nil {
			return fmt.Errorf("save demo checkpoint: %w", err)
		}
	}

	result, restoreErr := checkpoint.Restore(cp)
	logging.Checkpoint("restored checkpoint seq=%d status=%s", cp.Sequence, result.Status)

	fmt.Printf("sequence: %d\n", cp.Sequence)
	fmt.Printf("reason: %s\n", cp.Reason)
	fmt.Printf("status: %s\n", result.Status)
	fmt.Printf("can resume: %v\n", result.CanResume())
	for _, w := range result.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Printf("error: %s\n", e)
	}
	if restoreErr != nil {
		fmt.Printf("restore error: %s (%s)\n", restoreErr.Kind, restoreErr.SuggestedAction())
	}
	return nil
}

// demoCheckpoint builds a sample mid-debate checkpoint when the store
// has nothing recorded yet, so the command has something to inspect on
// a first run.
func demoCheckpoint() checkpoint.Checkpoint {
	session := debate.NewSession("cli-task", "demo refactor", 5)
	session.CurrentRound = 1
	mgr := checkpoint.NewManager(10)
	return mgr.Checkpoint(*session, nil, nil, 0, "demo checkpoint")
}
