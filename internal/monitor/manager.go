package monitor

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrSessionActive means the agent already has a running session.
	ErrSessionActive = errors.New("monitor session already active for this agent")
	// ErrNoSession means the agent has no running session.
	ErrNoSession = errors.New("no active monitor session for this agent")
)

type managed struct {
	session *Session
	cancel  context.CancelFunc
	done    chan struct{}
}

// Manager owns façade-triggered sessions and enforces at most one per
// agent. Sessions remove themselves when they halt, so a finished agent can
// be monitored again.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*managed
	logger   *zap.Logger
}

func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*managed),
		logger:   logger,
	}
}

// Start launches a session for the config's agent. It returns
// ErrSessionActive while a previous session for the same agent is running.
func (m *Manager) Start(ctx context.Context, cfg Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[cfg.ReportID]; exists {
		return ErrSessionActive
	}

	session := NewSession(cfg)
	runCtx, cancel := context.WithCancel(ctx)
	entry := &managed{session: session, cancel: cancel, done: make(chan struct{})}
	m.sessions[cfg.ReportID] = entry

	go func() {
		defer close(entry.done)
		defer cancel()
		if err := session.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error("monitor session ended with error",
				zap.String("report_id", cfg.ReportID), zap.Error(err))
		}
		m.remove(cfg.ReportID, entry)
	}()

	m.logger.Info("monitor session started", zap.String("report_id", cfg.ReportID))
	return nil
}

func (m *Manager) remove(reportID string, entry *managed) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.sessions[reportID]; ok && current == entry {
		delete(m.sessions, reportID)
	}
}

// Stop cancels the agent's session and waits for its goroutine to finish.
func (m *Manager) Stop(reportID string) error {
	m.mu.Lock()
	entry, ok := m.sessions[reportID]
	m.mu.Unlock()
	if !ok {
		return ErrNoSession
	}

	entry.cancel()
	<-entry.done

	m.logger.Info("monitor session stopped", zap.String("report_id", reportID))
	return nil
}

// Status reports whether the agent has a running session and its last
// observed state, when one exists.
func (m *Manager) Status(reportID string) (State, bool) {
	m.mu.Lock()
	entry, ok := m.sessions[reportID]
	m.mu.Unlock()
	if !ok {
		return State{}, false
	}

	state, _ := entry.session.Last()
	return state, true
}

// Active returns the agents with running sessions, sorted.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StopAll cancels every session and waits for all of them. Used at server
// shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	entries := make([]*managed, 0, len(m.sessions))
	for _, entry := range m.sessions {
		entries = append(entries, entry)
	}
	m.mu.Unlock()

	for _, entry := range entries {
		entry.cancel()
		<-entry.done
	}
}
