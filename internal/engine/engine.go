// Package engine is the operation façade over the cognitive pipeline:
// personality projection on ingest, clocked retention on read, confidence
// draws, linguistic regeneration, and monitor session management, all
// persisted through the store. The HTTP server and the CLI are thin fronts
// over this package.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"made/internal/linguistic"
	"made/internal/memory"
	"made/internal/monitor"
	"made/internal/personality"
	"made/internal/snapshot"
	"made/internal/store"
	"made/internal/types"
)

// InitialMemory is the base memory synthesized into the first utterance when
// a record is ingested.
const InitialMemory = "Initial data ingestion and personality assessment."

// DefaultBaseMemory is the base memory used when an utterance request does
// not name one.
const DefaultBaseMemory = "The last assigned task"

// Demo task inputs evaluated at ingest for the diagnostic log line.
const (
	demoImportance    = 0.8
	demoRequiredTime  = 2.0
	demoAvailableTime = 5.0
)

// Speaker produces an utterance for a cognitive state. It never fails; the
// dispatcher's fallback tables always answer.
type Speaker interface {
	Generate(ctx context.Context, req linguistic.Request) linguistic.Response
}

// Archive records and replays day-boundary snapshots. *snapshot.Archive
// satisfies it.
type Archive interface {
	Append(ctx context.Context, snap snapshot.Snapshot) error
	ListByReport(ctx context.Context, reportID string) ([]snapshot.Snapshot, error)
}

// Config assembles an Engine. Store is required; everything else has a
// usable zero value. A nil Speaker degrades to the fallback-only dispatcher.
type Config struct {
	Store   store.Store
	Speaker Speaker
	Archive Archive

	// Sampler behind confidence and reconstruction draws; nil uses the
	// process-wide source.
	Sampler *memory.Sampler

	// Real seconds per game-day; zero means the default scale.
	ScaleSecondsPerDay float64

	// Tick period handed to monitor sessions.
	MonitorTick time.Duration

	Logger *zap.Logger
	Now    func() time.Time
}

// Engine maps operations onto the pipeline components.
type Engine struct {
	store    store.Store
	speaker  Speaker
	archive  Archive
	sampler  *memory.Sampler
	monitors *monitor.Manager

	scale  float64
	tick   time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// New wires an engine from its config.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	scale := cfg.ScaleSecondsPerDay
	if scale <= 0 {
		scale = memory.DefaultScaleSecondsPerDay
	}
	speaker := cfg.Speaker
	if speaker == nil {
		speaker = linguistic.NewDispatcher(nil, nil, nil, logger)
	}
	return &Engine{
		store:    cfg.Store,
		speaker:  speaker,
		archive:  cfg.Archive,
		sampler:  cfg.Sampler,
		monitors: monitor.NewManager(logger),
		scale:    scale,
		tick:     cfg.MonitorTick,
		logger:   logger,
		now:      now,
	}
}

func (e *Engine) confidence(retention float64) (float64, memory.Band) {
	if e.sampler != nil {
		return e.sampler.Confidence(retention)
	}
	return memory.Confidence(retention)
}

func (e *Engine) reconstruction(retention float64) (float64, memory.Band) {
	if e.sampler != nil {
		return e.sampler.Reconstruction(retention)
	}
	return memory.Reconstruction(retention)
}

// stamp is the persistence-grade instant: the store keeps millisecond
// precision, so truncating up front keeps reads identical to what was
// written.
func (e *Engine) stamp() time.Time {
	return e.now().UTC().Truncate(time.Millisecond)
}

// CreateRecordInput carries one validated assessment. Both score vectors are
// complete; the façade fills absent dimensions before calling.
type CreateRecordInput struct {
	ReportID   string
	Timestamp  string
	Raw        types.OceanScores
	Normalized types.OceanScores
}

// CreateRecordResult reports the persisted identity plus the synthesized
// initial utterance.
type CreateRecordResult struct {
	StoreID   string
	ReportID  string
	PFactor   float64
	Utterance UtteranceResult
}

// CreateRecord projects the assessment to its stability scalar, synthesizes
// the initial utterance, and persists the record in one insert.
func (e *Engine) CreateRecord(ctx context.Context, in CreateRecordInput) (CreateRecordResult, error) {
	pFactor := personality.Project(in.Normalized)

	// Day-zero state seeds the first utterance.
	retention, phase, _ := memory.Retention(pFactor, 0)
	confScore, confBand := e.confidence(retention)
	label := confBand.ConfidenceLabel()

	resp := e.speaker.Generate(ctx, linguistic.Request{
		Memory:          InitialMemory,
		Retention:       retention,
		Phase:           phase,
		ConfidenceLabel: label,
	})

	// Ingest diagnostics mirror what the live monitor derives later.
	reconScore, reconBand := e.reconstruction(retention)
	prioVal, prioMsg := memory.Priority(demoImportance, demoRequiredTime, demoAvailableTime)
	e.logger.Debug("ingest diagnostics",
		zap.String("report_id", in.ReportID),
		zap.Float64("retention_day0", retention),
		zap.Float64("reconstruction", reconScore),
		zap.String("reconstruction_band", reconBand.ReconstructionLabel()),
		zap.Float64("priority", prioVal),
		zap.String("priority_msg", prioMsg))

	now := e.stamp()
	rec := types.CognitiveRecord{
		ReportID:        in.ReportID,
		Timestamp:       in.Timestamp,
		CreatedAt:       now,
		OceanRaw:        in.Raw,
		OceanNormalized: in.Normalized,
		PFactor:         pFactor,

		LastUtterance:                resp.Text,
		LastUtteranceRetention:       retention,
		LastUtteranceConfidenceScore: confScore,
		LastUtteranceConfidenceBand:  label,
		LastUtterancePhase:           phase.String(),
		LastUtteranceAt:              now,
	}

	id, err := e.store.Put(ctx, rec)
	if err != nil {
		return CreateRecordResult{}, fmt.Errorf("save record: %w", err)
	}

	e.logger.Info("cognitive record created",
		zap.String("report_id", in.ReportID),
		zap.String("store_id", id),
		zap.Float64("p_factor", pFactor),
		zap.Bool("fallback_utterance", resp.Fallback))

	return CreateRecordResult{
		StoreID:  id,
		ReportID: in.ReportID,
		PFactor:  pFactor,
		Utterance: UtteranceResult{
			Text:            resp.Text,
			Retention:       retention,
			ConfidenceScore: confScore,
			ConfidenceLabel: label,
			Phase:           phase,
			Model:           resp.Model,
			Fallback:        resp.Fallback,
		},
	}, nil
}

// Simulation is one offline kernel evaluation with its confidence draw.
// MemoryStrength is echoed untouched: the two-phase kernel fixes its own
// time constants, and the field is reserved for a future strength-aware
// kernel.
type Simulation struct {
	PFactor         float64      `json:"p_factor"`
	DaysPassed      float64      `json:"days_passed"`
	MemoryStrength  float64      `json:"memory_strength"`
	Retention       float64      `json:"retention"`
	Phase           memory.Phase `json:"phase"`
	ConfidenceScore float64      `json:"confidence_score"`
	ConfidenceLabel string       `json:"confidence_label"`
}

// Simulate evaluates the curve at an explicit elapsed time and draws a
// confidence score from the resulting retention.
func (e *Engine) Simulate(pFactor, days, strength float64) Simulation {
	retention, phase, _ := memory.Retention(pFactor, days)
	confScore, confBand := e.confidence(retention)
	return Simulation{
		PFactor:         pFactor,
		DaysPassed:      days,
		MemoryStrength:  strength,
		Retention:       retention,
		Phase:           phase,
		ConfidenceScore: confScore,
		ConfidenceLabel: confBand.ConfidenceLabel(),
	}
}

// Record returns the newest record for an agent.
func (e *Engine) Record(ctx context.Context, reportID string) (types.CognitiveRecord, error) {
	return e.store.GetByReport(ctx, reportID)
}

// Records returns every record, newest first.
func (e *Engine) Records(ctx context.Context) ([]types.CognitiveRecord, error) {
	return e.store.ListAll(ctx)
}

// LatestRecord returns the newest record across all agents.
func (e *Engine) LatestRecord(ctx context.Context) (types.CognitiveRecord, error) {
	return e.store.Latest(ctx)
}

// DeleteRecord removes the newest record for an agent.
func (e *Engine) DeleteRecord(ctx context.Context, reportID string) error {
	if err := e.store.DeleteByReport(ctx, reportID); err != nil {
		return err
	}
	e.logger.Info("cognitive record deleted", zap.String("report_id", reportID))
	return nil
}

// CreateTaskInput carries one validated task assignment.
type CreateTaskInput struct {
	ReportID      string
	TaskName      string
	Importance    float64
	RequiredTime  float64
	AvailableTime float64
}

// CreateTask assigns a task to an agent. Tasks are append-only and an
// unknown report id is accepted.
func (e *Engine) CreateTask(ctx context.Context, in CreateTaskInput) (types.TaskRecord, error) {
	task := types.TaskRecord{
		TaskID:        uuid.NewString(),
		ReportID:      in.ReportID,
		TaskName:      in.TaskName,
		Importance:    in.Importance,
		RequiredTime:  in.RequiredTime,
		AvailableTime: in.AvailableTime,
		CreatedAt:     e.stamp(),
	}
	if err := e.store.PutTask(ctx, task); err != nil {
		return types.TaskRecord{}, fmt.Errorf("save task: %w", err)
	}
	e.logger.Info("task assigned",
		zap.String("report_id", in.ReportID),
		zap.String("task_id", task.TaskID),
		zap.String("task_name", in.TaskName))
	return task, nil
}

// Tasks returns an agent's tasks, newest first.
func (e *Engine) Tasks(ctx context.Context, reportID string) ([]types.TaskRecord, error) {
	return e.store.ListTasks(ctx, reportID)
}

// Ping reports store reachability.
func (e *Engine) Ping(ctx context.Context) error {
	return e.store.Ping(ctx)
}
