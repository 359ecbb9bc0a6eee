package monitor

import (
	"context"
	"sync"
	"time"

	"made/internal/snapshot"
)

// fakeClock hands out strictly advancing times, one step per call, so a
// session walks a deterministic game-day sequence regardless of tick speed.
type fakeClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func newFakeClock(start time.Time, step time.Duration) *fakeClock {
	return &fakeClock{t: start, step: step}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

// recordingObserver collects every callback under a lock.
type recordingObserver struct {
	mu    sync.Mutex
	ticks []State
	days  []DayEvent
	halts []State
}

func (o *recordingObserver) Tick(s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ticks = append(o.ticks, s)
}

func (o *recordingObserver) DayBoundary(ev DayEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.days = append(o.days, ev)
}

func (o *recordingObserver) Halt(s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.halts = append(o.halts, s)
}

func (o *recordingObserver) dayNumbers() []int {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]int, len(o.days))
	for i, ev := range o.days {
		out[i] = ev.Day
	}
	return out
}

func (o *recordingObserver) haltStates() []State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]State(nil), o.halts...)
}

// stubGenerator returns a canned utterance, or an error for listed days.
type stubGenerator struct {
	mu        sync.Mutex
	utterance Utterance
	failCalls map[int]error
	calls     []string
}

func (g *stubGenerator) DayBoundaryUtterance(ctx context.Context, reportID string) (Utterance, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, reportID)
	if err, ok := g.failCalls[len(g.calls)]; ok {
		return Utterance{}, err
	}
	return g.utterance, nil
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// stubArchiver records appended rows.
type stubArchiver struct {
	mu   sync.Mutex
	rows []snapshot.Snapshot
	err  error
}

func (a *stubArchiver) Append(ctx context.Context, snap snapshot.Snapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.rows = append(a.rows, snap)
	return nil
}

func (a *stubArchiver) appended() []snapshot.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]snapshot.Snapshot(nil), a.rows...)
}
