package engine

import (
	"context"
	"fmt"

	"made/internal/monitor"
	"made/internal/snapshot"
	"made/internal/types"
)

// SessionConfig builds the monitor wiring for a record: the engine itself
// generates day-boundary utterances and the shared archive records them. The
// observer may be nil.
func (e *Engine) SessionConfig(rec types.CognitiveRecord, obs monitor.Observer) monitor.Config {
	cfg := monitor.Config{
		ReportID:           rec.ReportID,
		PFactor:            rec.PFactor,
		CreatedAt:          rec.CreatedAt,
		ScaleSecondsPerDay: e.scale,
		Tick:               e.tick,
		Generator:          e,
		Observer:           obs,
		Logger:             e.logger,
		Now:                e.now,
	}
	if e.archive != nil {
		cfg.Archive = e.archive
	}
	return cfg
}

// StartMonitor launches a managed degradation session for an agent. The
// request context covers only the record lookup; the session outlives it
// and stops through StopMonitor, its own halt, or engine shutdown.
func (e *Engine) StartMonitor(ctx context.Context, reportID string) error {
	rec, err := e.store.GetByReport(ctx, reportID)
	if err != nil {
		return fmt.Errorf("load record: %w", err)
	}
	return e.monitors.Start(context.Background(), e.SessionConfig(rec, nil))
}

// StopMonitor cancels an agent's active session and waits for it to wind
// down.
func (e *Engine) StopMonitor(reportID string) error {
	return e.monitors.Stop(reportID)
}

// MonitorStatus reports the last observed state of an active session.
func (e *Engine) MonitorStatus(reportID string) (monitor.State, bool) {
	return e.monitors.Status(reportID)
}

// ActiveMonitors lists agents with a running session.
func (e *Engine) ActiveMonitors() []string {
	return e.monitors.Active()
}

// StopAllMonitors winds down every active session. Called on shutdown.
func (e *Engine) StopAllMonitors() {
	e.monitors.StopAll()
}

// SnapshotHistory replays an agent's archived day-boundary rows,
// oldest-first. Without an archive configured the history is empty.
func (e *Engine) SnapshotHistory(ctx context.Context, reportID string) ([]snapshot.Snapshot, error) {
	if e.archive == nil {
		return nil, nil
	}
	return e.archive.ListByReport(ctx, reportID)
}
