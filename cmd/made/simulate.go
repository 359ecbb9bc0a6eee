package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"made/internal/memory"
	"made/internal/monitor"
	"made/internal/personality"
	"made/internal/types"
)

var (
	simPFactor    float64
	simDays       float64
	simStrength   float64
	simOcean      string
	simImportance float64
	simAlpha      float64
	simSeed       uint64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Evaluate the forgetting curve offline",
	Long: `Evaluates the two-phase forgetting curve for a stability factor at an
elapsed game-time, with the confidence draw the engine would attach.
Nothing is stored and no server is needed.

Pass --ocean O,C,E,A,N (normalized 0-1) to derive the stability factor
from an assessment and print the per-dimension projection. Pass
--importance to see how task priority separates otherwise identical
memories under the priority-weighted kernel. Pass --seed for a
reproducible confidence draw.`,
	Example: `  made simulate --p-factor 0.9 --days 2
  made simulate --ocean 0.8,0.9,0.5,0.5,0.2 --days 1
  made simulate --p-factor 1.0 --days 3 --importance 0.8`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().Float64Var(&simPFactor, "p-factor", 1.0, "Memory stability factor")
	simulateCmd.Flags().Float64Var(&simDays, "days", 1.0, "Elapsed game-days")
	simulateCmd.Flags().StringVar(&simOcean, "ocean", "", "Normalized OCEAN scores as O,C,E,A,N; overrides --p-factor")
	simulateCmd.Flags().Float64Var(&simImportance, "importance", 0.5, "Task importance for the priority-weighted kernel")
	simulateCmd.Flags().Float64Var(&simAlpha, "alpha", memory.DefaultAlpha, "Importance sensitivity of the priority-weighted kernel")
	simulateCmd.Flags().Float64Var(&simStrength, "strength", 2.8, "Base memory strength for the priority-weighted kernel")
	simulateCmd.Flags().Uint64Var(&simSeed, "seed", 0, "Seed for the confidence draw; omit for a fresh draw")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	pFactor := simPFactor
	if simOcean != "" {
		scores, err := parseOcean(simOcean)
		if err != nil {
			return err
		}
		breakdown := personality.ProjectWithBreakdown(scores)
		pFactor = breakdown.PFactor
		printProjection(out, scores, breakdown)
		fmt.Fprintln(out)
	}

	retention, phase, phaseTime := memory.Retention(pFactor, simDays)

	confidence := memory.Confidence
	if cmd.Flags().Changed("seed") {
		confidence = memory.NewSampler(simSeed).Confidence
	}
	confScore, confBand := confidence(retention)

	fmt.Fprintf(out, "Stability factor:  %.4f\n", pFactor)
	fmt.Fprintf(out, "Elapsed time:      %.2f game-days\n", simDays)
	fmt.Fprintf(out, "Retention:         %.4f (%.2f%%)\n", retention, retention*100)
	fmt.Fprintf(out, "Phase:             %s\n", phase)
	fmt.Fprintf(out, "Status:            %s\n", monitor.StatusFor(retention))
	fmt.Fprintf(out, "Confidence draw:   %.4f (%s)\n", confScore, confBand.ConfidenceLabel())

	tstar := memory.TransitionDay(pFactor)
	if phase == memory.PhaseFast {
		fmt.Fprintf(out, "Fast phase ends:   day %.2f\n", tstar)
	} else {
		fmt.Fprintf(out, "Slow phase since:  day %.2f (%.2f days in)\n", tstar, phaseTime)
	}

	if cmd.Flags().Changed("importance") {
		fmt.Fprintln(out)
		printPriorityEffects(out, pFactor)
	}
	return nil
}

// parseOcean reads the five normalized dimensions in O,C,E,A,N order.
func parseOcean(s string) (types.OceanScores, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 5 {
		return types.OceanScores{}, fmt.Errorf("--ocean wants five comma-separated values (O,C,E,A,N), got %d", len(parts))
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return types.OceanScores{}, fmt.Errorf("--ocean value %q is not a number", strings.TrimSpace(p))
		}
		vals[i] = v
	}
	return types.OceanScores{
		Openness:          vals[0],
		Conscientiousness: vals[1],
		Extraversion:      vals[2],
		Agreeableness:     vals[3],
		Neuroticism:       vals[4],
	}, nil
}

func printProjection(out io.Writer, scores types.OceanScores, b personality.Breakdown) {
	fmt.Fprintln(out, "Stability projection")
	rows := []struct {
		name  string
		score float64
	}{
		{"openness", scores.Openness},
		{"conscientiousness", scores.Conscientiousness},
		{"extraversion", scores.Extraversion},
		{"agreeableness", scores.Agreeableness},
		{"neuroticism", scores.Neuroticism},
	}
	fmt.Fprintf(out, "  %-18s %+.4f\n", "base", b.Contributions["base"])
	for _, row := range rows {
		fmt.Fprintf(out, "  %-18s %+.4f  (score %.2f)\n", row.name, b.Contributions[row.name], row.score)
	}
	if b.WasClamped {
		fmt.Fprintf(out, "  sum %.4f clamps to %.4f\n", b.Unclamped, b.PFactor)
	} else {
		fmt.Fprintf(out, "  %-18s %.4f\n", "p_factor", b.PFactor)
	}
}

func printPriorityEffects(out io.Writer, pFactor float64) {
	res := memory.RetentionWithPriority(simStrength, pFactor, simImportance, simDays, simAlpha)
	fmt.Fprintf(out, "Priority-weighted kernel (strength %.1f, alpha %.2f)\n", simStrength, simAlpha)
	fmt.Fprintf(out, "  importance %.2f: multiplier %.4f, effective stability %.2f\n",
		simImportance, res.PriorityMultiplier, res.EffectiveStability)
	fmt.Fprintf(out, "  retention %.4f, state %s, confidence %s\n",
		res.Retention, res.MemoryState, res.Confidence)

	fmt.Fprintf(out, "\nImportance ladder after %.2f game-days:\n", simDays)
	for _, level := range memory.ComparePriorityEffects(simStrength, pFactor, simDays, simAlpha) {
		fmt.Fprintf(out, "  %-14s multiplier %.4f  retention %.4f  %s\n",
			level.Label, level.Result.PriorityMultiplier, level.Result.Retention, level.Result.MemoryState)
	}
}
