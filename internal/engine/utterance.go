package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"made/internal/linguistic"
	"made/internal/memory"
	"made/internal/monitor"
	"made/internal/types"
)

// UtteranceResult is one linguistic regeneration: the spoken line plus the
// cognitive state it was generated from.
type UtteranceResult struct {
	Text            string
	Retention       float64
	ConfidenceScore float64
	ConfidenceLabel string
	Phase           memory.Phase
	Diag            memory.Diag
	Model           string
	Fallback        bool
}

// GenerateUtterance re-evaluates the agent's current retention, draws a
// fresh confidence score, speaks through the dispatcher, and group-writes
// the utterance state onto the newest record. An empty baseMemory falls back
// to DefaultBaseMemory. The agent's created_at and p_factor are never
// touched.
func (e *Engine) GenerateUtterance(ctx context.Context, reportID, baseMemory string) (UtteranceResult, error) {
	rec, err := e.store.GetByReport(ctx, reportID)
	if err != nil {
		return UtteranceResult{}, fmt.Errorf("load record: %w", err)
	}
	if baseMemory == "" {
		baseMemory = DefaultBaseMemory
	}

	now := e.now()
	retention, diag, phase := memory.RetentionSince(rec.PFactor, rec.CreatedAt, now, e.scale)
	confScore, confBand := e.confidence(retention)
	label := confBand.ConfidenceLabel()

	resp := e.speaker.Generate(ctx, linguistic.Request{
		Memory:          baseMemory,
		Retention:       retention,
		Phase:           phase,
		ConfidenceLabel: label,
	})

	state := types.UtteranceState{
		Text:            resp.Text,
		Retention:       retention,
		ConfidenceScore: confScore,
		ConfidenceBand:  label,
		Phase:           phase.String(),
		At:              now.UTC().Truncate(time.Millisecond),
	}
	if err := e.store.UpdateUtterance(ctx, rec.StoreID, state); err != nil {
		return UtteranceResult{}, fmt.Errorf("persist utterance: %w", err)
	}

	e.logger.Info("utterance generated",
		zap.String("report_id", reportID),
		zap.Float64("retention", retention),
		zap.String("confidence_band", label),
		zap.String("model", resp.Model),
		zap.Bool("fallback", resp.Fallback))

	return UtteranceResult{
		Text:            resp.Text,
		Retention:       retention,
		ConfidenceScore: confScore,
		ConfidenceLabel: label,
		Phase:           phase,
		Diag:            diag,
		Model:           resp.Model,
		Fallback:        resp.Fallback,
	}, nil
}

// DayBoundaryUtterance implements monitor.Generator: a day crossing speaks
// with the default base memory.
func (e *Engine) DayBoundaryUtterance(ctx context.Context, reportID string) (monitor.Utterance, error) {
	res, err := e.GenerateUtterance(ctx, reportID, DefaultBaseMemory)
	if err != nil {
		return monitor.Utterance{}, err
	}
	return monitor.Utterance{
		Text:            res.Text,
		Retention:       res.Retention,
		ConfidenceScore: res.ConfidenceScore,
		ConfidenceBand:  res.ConfidenceLabel,
		Phase:           res.Phase.String(),
		Model:           res.Model,
		Fallback:        res.Fallback,
	}, nil
}
