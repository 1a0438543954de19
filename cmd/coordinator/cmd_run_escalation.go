package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codenerd/internal/classifier"
	"codenerd/internal/escalation"
	"codenerd/internal/logging"
)

var escalationTaskID string

var runEscalationCmd = &cobra.Command{
	Use:   "run-escalation",
	Short: "Replay a scripted iteration trail through the escalation policy",
	Long: `run-escalation feeds a scripted sequence of up to three
lifetime-error iterations into an escalation.State and prints the policy
decision after each, stopping at the first escalation, demonstrating the
repeated-category escalation rule (which fires on the second iteration).`,
	RunE: runRunEscalation,
}

func init() {
	runEscalationCmd.Flags().StringVar(&escalationTaskID, "task-id", "", "Task identifier for the escalation state (default: a generated id)")
}

func runRunEscalation(cmd *cobra.Command, args []string) error {
	if escalationTaskID == "" {
		escalationTaskID = escalation.NewTaskID()
	}

	budgets := map[escalation.Tier]escalation.TierBudget{}
	for tier, b := range map[escalation.Tier]struct{ max, cons int }{
		escalation.TierImplementer: {cfg.Tiers.Implementer.MaxIterations, cfg.Tiers.Implementer.MaxConsultations},
		escalation.TierIntegrator:  {cfg.Tiers.Integrator.MaxIterations, cfg.Tiers.Integrator.MaxConsultations},
		escalation.TierAdversary:   {cfg.Tiers.Adversary.MaxIterations, cfg.Tiers.Adversary.MaxConsultations},
		escalation.TierCloud:       {cfg.Tiers.Cloud.MaxIterations, cfg.Tiers.Cloud.MaxConsultations},
	} {
		budgets[tier] = escalation.TierBudget{MaxIterations: b.max, MaxConsultations: b.cons}
	}

	state := escalation.New(escalationTaskID, budgets)
	logging.Escalation("starting escalation trail for task %s", escalationTaskID)

	for i := 1; i <= 3; i++ {
		rec := state.RecordIteration([]classifier.Category{classifier.CategoryLifetime}, 2, false)
		fmt.Printf("iteration %d: progress_made=%v error_count=%d\n", rec.Iteration, rec.ProgressMade, rec.ErrorCount)

		decision := escalation.Evaluate(state, 1)
		fmt.Printf("  decision: should_escalate=%v to_tier=%s reason=%q\n", decision.ShouldEscalate, decision.ToTier, decision.Reason)

		if decision.ShouldEscalate {
			state.RecordEscalation(decision.ToTier, decision.Reason)
			fmt.Printf("  escalated to %s\n", state.CurrentTier)
			break
		}
	}

	if cat, count, ok := state.MostRepeatedCategory(); ok {
		fmt.Printf("\nmost repeated category: %s (x%d)\n", cat, count)
	}
	return nil
}
