package engine

import (
	"context"
	"sync"
	"time"

	"made/internal/linguistic"
	"made/internal/store"
	"made/internal/types"
)

// stubSpeaker returns a fixed response and records every request.
type stubSpeaker struct {
	mu   sync.Mutex
	resp linguistic.Response
	reqs []linguistic.Request
}

func (s *stubSpeaker) Generate(_ context.Context, req linguistic.Request) linguistic.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	return s.resp
}

func (s *stubSpeaker) requests() []linguistic.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]linguistic.Request, len(s.reqs))
	copy(out, s.reqs)
	return out
}

// failStore wraps the in-memory store and forces chosen operations to fail.
type failStore struct {
	store.Store
	putErr    error
	updateErr error
}

func (f *failStore) Put(ctx context.Context, rec types.CognitiveRecord) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	return f.Store.Put(ctx, rec)
}

func (f *failStore) UpdateUtterance(ctx context.Context, storeID string, state types.UtteranceState) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.Store.UpdateUtterance(ctx, storeID, state)
}

// fixedNow freezes the engine clock.
func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
