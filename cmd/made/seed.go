package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"made/internal/engine"
	"made/internal/types"
)

var seedReportID string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert a sample agent and tasks",
	Long: `Inserts one deterministic sample assessment plus two tasks into the
configured store, so the monitor and the frontend have something to work
with before any questionnaire has been filled in. Each run inserts a
fresh record; lookups always resolve the newest one.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedReportID, "report-id", "npc-001", "Report id for the seeded agent")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	eng, cleanup, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	// A steady, curious guard: high conscientiousness and openness, low
	// neuroticism. Projects to a stability factor of 1.4787.
	normalized := types.OceanScores{
		Openness:          0.80,
		Conscientiousness: 0.90,
		Extraversion:      0.50,
		Agreeableness:     0.50,
		Neuroticism:       0.20,
	}
	raw := types.OceanScores{
		Openness:          96,
		Conscientiousness: 108,
		Extraversion:      60,
		Agreeableness:     60,
		Neuroticism:       24,
	}

	res, err := eng.CreateRecord(ctx, engine.CreateRecordInput{
		ReportID:   seedReportID,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Raw:        raw,
		Normalized: normalized,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Seeded record %s (store id %s, p_factor %.4f)\n", res.ReportID, res.StoreID, res.PFactor)
	fmt.Fprintf(out, "Day-zero utterance: %s\n", res.Utterance.Text)

	tasks := []engine.CreateTaskInput{
		{ReportID: seedReportID, TaskName: "Guard the east gate", Importance: 0.8, RequiredTime: 2, AvailableTime: 5},
		{ReportID: seedReportID, TaskName: "Deliver the supply manifest", Importance: 0.4, RequiredTime: 1, AvailableTime: 8},
	}
	for _, in := range tasks {
		task, err := eng.CreateTask(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Task %q assigned (%s)\n", task.TaskName, task.TaskID)
	}

	fmt.Fprintf(out, "\nWatch it degrade: made monitor %s\n", seedReportID)
	return nil
}
