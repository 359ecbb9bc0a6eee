// Package store persists cognitive records and task lists. The production
// implementation targets the bigfive document database; the in-memory
// implementation backs tests and store-free development. Both provide
// last-writer-wins semantics with no multi-operation transactions, and both
// apply the utterance group as a single atomic write.
package store

import (
	"context"
	"errors"

	"made/internal/types"
)

var (
	// ErrNotFound reports a lookup that matched nothing.
	ErrNotFound = errors.New("record not found")

	// ErrEmpty reports a latest-record query against an empty store.
	ErrEmpty = errors.New("store is empty")
)

// Store is the persistence contract consumed by the engine and the monitor.
//
// Duplicate report IDs are not prevented at this layer; reads that take a
// report ID resolve to the newest matching record. Put returns the internal
// identifier later required by UpdateUtterance.
type Store interface {
	Put(ctx context.Context, rec types.CognitiveRecord) (string, error)
	GetByReport(ctx context.Context, reportID string) (types.CognitiveRecord, error)
	ListAll(ctx context.Context) ([]types.CognitiveRecord, error)
	DeleteByReport(ctx context.Context, reportID string) error
	Latest(ctx context.Context) (types.CognitiveRecord, error)
	UpdateUtterance(ctx context.Context, storeID string, state types.UtteranceState) error

	PutTask(ctx context.Context, task types.TaskRecord) error
	ListTasks(ctx context.Context, reportID string) ([]types.TaskRecord, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
