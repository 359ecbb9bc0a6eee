package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"made/internal/types"
)

// MemStore keeps records in process memory. It backs tests and serves as
// the reference for Store semantics.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]types.CognitiveRecord
	tasks   []types.TaskRecord
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[string]types.CognitiveRecord),
	}
}

func (s *MemStore) Put(ctx context.Context, rec types.CognitiveRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	rec.StoreID = id
	s.records[id] = rec
	return id, nil
}

func (s *MemStore) GetByReport(ctx context.Context, reportID string) (types.CognitiveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.newestByReport(reportID)
	if !ok {
		return types.CognitiveRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemStore) ListAll(ctx context.Context) ([]types.CognitiveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.CognitiveRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemStore) DeleteByReport(ctx context.Context, reportID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.newestByReport(reportID)
	if !ok {
		return ErrNotFound
	}
	delete(s.records, rec.StoreID)
	return nil
}

func (s *MemStore) Latest(ctx context.Context) (types.CognitiveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return types.CognitiveRecord{}, ErrEmpty
	}

	all := make([]types.CognitiveRecord, 0, len(s.records))
	for _, rec := range s.records {
		all = append(all, rec)
	}
	sortNewestFirst(all)
	return all[0], nil
}

func (s *MemStore) UpdateUtterance(ctx context.Context, storeID string, state types.UtteranceState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[storeID]
	if !ok {
		return ErrNotFound
	}
	state.ApplyTo(&rec)
	s.records[storeID] = rec
	return nil
}

func (s *MemStore) PutTask(ctx context.Context, task types.TaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = append(s.tasks, task)
	return nil
}

func (s *MemStore) ListTasks(ctx context.Context, reportID string) ([]types.TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.TaskRecord
	for _, task := range s.tasks {
		if task.ReportID == reportID {
			out = append(out, task)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Close(ctx context.Context) error { return nil }

// newestByReport resolves a report ID to its most recent record.
// Callers hold at least a read lock.
func (s *MemStore) newestByReport(reportID string) (types.CognitiveRecord, bool) {
	var (
		best  types.CognitiveRecord
		found bool
	)
	for _, rec := range s.records {
		if rec.ReportID != reportID {
			continue
		}
		if !found || rec.CreatedAt.After(best.CreatedAt) {
			best = rec
			found = true
		}
	}
	return best, found
}

func sortNewestFirst(records []types.CognitiveRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}
