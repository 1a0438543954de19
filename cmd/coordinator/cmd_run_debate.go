package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codenerd/internal/debate"
	"codenerd/internal/logging"
	"codenerd/internal/memory"
)

var (
	debateSubject    string
	debateMaxRounds  int
	debateAutoApprove bool
)

var runDebateCmd = &cobra.Command{
	Use:   "run-debate [subject]",
	Short: "Drive a scripted coder/reviewer debate to a terminal phase",
	Long: `run-debate creates a debate session for subject and steps the
orchestrator through canned coder/reviewer rounds until it reaches a
terminal phase (resolved, deadlocked, or escalated), printing each
round's verdict, outcome and phase, any repair instructions, and the
number of memory bridge entries recorded for the final round.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRunDebate,
}

func init() {
	runDebateCmd.Flags().StringVar(&debateSubject, "subject", "demo refactor", "Subject of the debate")
	runDebateCmd.Flags().IntVar(&debateMaxRounds, "max-rounds", 3, "Maximum debate rounds before deadlock")
	runDebateCmd.Flags().BoolVar(&debateAutoApprove, "auto-approve", false, "Have the scripted reviewer approve on the first round")
}

func runRunDebate(cmd *cobra.Command, args []string) error {
	subject := debateSubject
	if len(args) == 1 {
		subject = args[0]
	}

	session := debate.NewSession(debate.NewSessionID(), subject, debateMaxRounds)
	guardrails := debate.Guardrails{MaxRounds: debateMaxRounds}
	orch := debate.NewOrchestrator(session, guardrails)
	orch.MinConfidence = cfg.Debate.MinConfidence

	logging.Debate("starting debate %q (max_rounds=%d)", subject, debateMaxRounds)
	if err := orch.Start(); err != nil {
		return fmt.Errorf("start debate: %s", err.Message)
	}

	store := memory.NewStore()

	for round := 1; ; round++ {
		coder := debate.CoderOutput{
			Summary:      fmt.Sprintf("round %d: addressed prior feedback", round),
			FilesTouched: []string{"main.go"},
			DiffPreview:  "--- a/main.go\n+++ b/main.go",
		}
		if err := orch.SubmitCode(coder); err != nil {
			return fmt.Errorf("submit code: %s", err.Message)
		}

		reviewer := scriptedReview(round)
		result, err := orch.SubmitReview(coder, reviewer)
		if err != nil {
			return fmt.Errorf("submit review: %s", err.Message)
		}

		fmt.Printf("round %d: verdict=%s outcome=%s phase=%s\n", round, reviewer.Verdict, result.Outcome, result.Phase)
		if len(result.RepairInstructions) > 0 {
			fmt.Println("  repair instructions:")
			for _, line := range result.RepairInstructions {
				fmt.Printf("    %s\n", line)
			}
		}

		if result.Outcome == debate.OutcomeComplete {
			break
		}
	}

	orch.RecordToMemory(store)
	fmt.Printf("\nsession %s: final phase %s across %d round(s); %d memory entries recorded\n", session.ID, session.Phase, len(session.Rounds), store.Len())
	return nil
}

// scriptedReview produces a deterministic reviewer verdict for the demo:
// the first round always requests changes (unless --auto-approve), and
// every subsequent round approves.
func scriptedReview(round int) debate.ReviewerOutput {
	if round == 1 && !debateAutoApprove {
		return debate.ReviewerOutput{
			Verdict:    debate.VerdictRequestChanges,
			Confidence: 0.6,
			Issues: []debate.Issue{
				{
					Severity:     debate.SeverityBlocking,
					Category:     "correctness",
					File:         "main.go",
					Description:  "missing nil check before dereference",
					SuggestedFix: "guard the pointer before use",
				},
			},
		}
	}
	return debate.ReviewerOutput{
		Verdict:         debate.VerdictApprove,
		Confidence:      0.85,
		ApproachAligned: true,
	}
}
