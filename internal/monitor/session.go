// Package monitor runs live degradation sessions: a ticker loop that
// re-evaluates one agent's retention on a scaled game clock, announces day
// boundaries, and halts when the memory needs reconstruction.
package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"made/internal/memory"
	"made/internal/snapshot"
)

// DefaultTick is one evaluation per real second.
const DefaultTick = time.Second

// Status is the coarse health band rendered each tick.
type Status int

const (
	StatusClear Status = iota
	StatusUncertain
	StatusReconstruction
)

func (s Status) String() string {
	switch s {
	case StatusClear:
		return "CLEAR"
	case StatusUncertain:
		return "UNCERTAIN"
	default:
		return "RECONSTRUCTION"
	}
}

// StatusFor maps a retention value to its band.
func StatusFor(retention float64) Status {
	switch {
	case retention >= memory.TransitionThreshold:
		return StatusClear
	case retention >= memory.ReconstructionFloor:
		return StatusUncertain
	default:
		return StatusReconstruction
	}
}

// State is one observed evaluation of the session's agent.
type State struct {
	ReportID   string       `json:"report_id"`
	PFactor    float64      `json:"p_factor"`
	Retention  float64      `json:"retention"`
	Phase      memory.Phase `json:"phase"`
	Status     Status       `json:"-"`
	Diag       memory.Diag  `json:"diag"`
	Day        int          `json:"day"`
	Halted     bool         `json:"halted"`
	ObservedAt time.Time    `json:"observed_at"`
}

// Utterance is what a day-boundary generation produced, in the shape the
// archive wants.
type Utterance struct {
	Text            string
	Retention       float64
	ConfidenceScore float64
	ConfidenceBand  string
	Phase           string
	Model           string
	Fallback        bool
}

// Generator produces and persists the agent's utterance when a game day
// rolls over.
type Generator interface {
	DayBoundaryUtterance(ctx context.Context, reportID string) (Utterance, error)
}

// Archiver records monitor events. *snapshot.Archive satisfies it.
type Archiver interface {
	Append(ctx context.Context, snap snapshot.Snapshot) error
}

// DayEvent is delivered once per day boundary. Err carries a generation
// failure; the day still counts as announced either way.
type DayEvent struct {
	State     State
	Day       int
	Utterance string
	Fallback  bool
	Err       error
}

// Observer receives session callbacks. Callbacks run on the session
// goroutine, so slow observers slow the loop down.
type Observer interface {
	Tick(State)
	DayBoundary(DayEvent)
	Halt(State)
}

// Config describes one session. The agent's stability and creation time are
// loaded once; the session never re-reads the record.
type Config struct {
	ReportID  string
	PFactor   float64
	CreatedAt time.Time

	// ScaleSecondsPerDay is the game clock scale; zero means the default.
	ScaleSecondsPerDay float64
	// Tick is the evaluation period; zero means DefaultTick. Operational
	// bounds live in the config package, not here, so tests can run fast.
	Tick time.Duration

	Generator Generator
	Archive   Archiver
	Observer  Observer
	Logger    *zap.Logger

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Session evaluates one agent until halt or cancellation.
type Session struct {
	cfg     Config
	tick    time.Duration
	now     func() time.Time
	logger  *zap.Logger
	lastDay int

	mu   sync.RWMutex
	last State
	seen bool
}

// NewSession prepares a session from its config.
func NewSession(cfg Config) *Session {
	tick := cfg.Tick
	if tick <= 0 {
		tick = DefaultTick
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		cfg:    cfg,
		tick:   tick,
		now:    now,
		logger: logger.With(zap.String("report_id", cfg.ReportID)),
	}
}

// Last returns the most recent observed state, if any tick has run.
func (s *Session) Last() (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.seen
}

func (s *Session) setLast(state State) {
	s.mu.Lock()
	s.last = state
	s.seen = true
	s.mu.Unlock()
}

// Run drives the tick loop until the reconstruction threshold halts it or
// the context cancels it. It returns nil on halt and the context error on
// cancellation. A single final tick may both announce a day and halt.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("degradation monitor started",
		zap.Float64("p_factor", s.cfg.PFactor),
		zap.Float64("scale_seconds_per_day", s.cfg.ScaleSecondsPerDay),
		zap.Duration("tick", s.tick))

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		state := s.evaluate()

		if state.Day > s.lastDay {
			s.announceDay(ctx, state)
			s.lastDay = state.Day
		}

		if state.Retention <= memory.ReconstructionFloor {
			state.Halted = true
			state.Status = StatusReconstruction
			s.setLast(state)

			if s.cfg.Observer != nil {
				s.cfg.Observer.Tick(state)
				s.cfg.Observer.Halt(state)
			}
			s.archive(ctx, snapshot.Snapshot{
				ReportID:   state.ReportID,
				Event:      snapshot.EventHalt,
				Day:        state.Day,
				Retention:  state.Retention,
				Phase:      state.Phase.String(),
				RecordedAt: state.ObservedAt,
			})

			s.logger.Info("reconstruction threshold reached",
				zap.Float64("retention", state.Retention),
				zap.Float64("game_days", state.Diag.GameDays))
			return nil
		}

		s.setLast(state)
		if s.cfg.Observer != nil {
			s.cfg.Observer.Tick(state)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("degradation monitor cancelled")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Session) evaluate() State {
	now := s.now()
	retention, diag, phase := memory.RetentionSince(
		s.cfg.PFactor, s.cfg.CreatedAt, now, s.cfg.ScaleSecondsPerDay)

	return State{
		ReportID:   s.cfg.ReportID,
		PFactor:    s.cfg.PFactor,
		Retention:  retention,
		Phase:      phase,
		Status:     StatusFor(retention),
		Diag:       diag,
		Day:        int(diag.GameDays),
		ObservedAt: now,
	}
}

// announceDay fires the day-boundary event: generate and persist the
// utterance, archive the row, notify the observer. A generation failure is
// reported but never retried; the day is announced exactly once.
func (s *Session) announceDay(ctx context.Context, state State) {
	ev := DayEvent{State: state, Day: state.Day}

	snap := snapshot.Snapshot{
		ReportID:   state.ReportID,
		Event:      snapshot.EventDay,
		Day:        state.Day,
		Retention:  state.Retention,
		Phase:      state.Phase.String(),
		RecordedAt: state.ObservedAt,
	}

	if s.cfg.Generator != nil {
		utt, err := s.cfg.Generator.DayBoundaryUtterance(ctx, state.ReportID)
		if err != nil {
			ev.Err = err
			s.logger.Warn("day-boundary generation failed",
				zap.Int("day", state.Day), zap.Error(err))
		} else {
			ev.Utterance = utt.Text
			ev.Fallback = utt.Fallback
			snap.Utterance = utt.Text
			snap.ConfidenceScore = utt.ConfidenceScore
			snap.ConfidenceBand = utt.ConfidenceBand
		}
	}

	s.archive(ctx, snap)

	if s.cfg.Observer != nil {
		s.cfg.Observer.DayBoundary(ev)
	}

	s.logger.Info("game day boundary",
		zap.Int("day", state.Day),
		zap.Float64("retention", state.Retention),
		zap.Bool("fallback", ev.Fallback))
}

// archive writes one event row. Archive failures are logged, never fatal.
func (s *Session) archive(ctx context.Context, snap snapshot.Snapshot) {
	if s.cfg.Archive == nil {
		return
	}
	if err := s.cfg.Archive.Append(ctx, snap); err != nil {
		s.logger.Warn("snapshot archive write failed",
			zap.String("event", snap.Event), zap.Error(err))
	}
}
