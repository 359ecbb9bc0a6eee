// Package snapshot keeps a local SQLite archive of monitor events. The
// archive is independent of the document store so a degradation timeline
// survives even when the store is unreachable.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// Event discriminators for archived rows.
const (
	EventDay  = "day"
	EventHalt = "halt"
)

// Snapshot is one archived monitor event. Day events carry the utterance
// generated at the boundary; the halt row carries the terminal retention
// with no utterance.
type Snapshot struct {
	ID              int64     `json:"id"`
	ReportID        string    `json:"report_id"`
	Event           string    `json:"event"`
	Day             int       `json:"day"`
	Retention       float64   `json:"retention"`
	ConfidenceScore float64   `json:"confidence_score"`
	ConfidenceBand  string    `json:"confidence_band"`
	Phase           string    `json:"phase"`
	Utterance       string    `json:"utterance"`
	RecordedAt      time.Time `json:"recorded_at"`
}

// Archive is an append-only SQLite log of monitor events.
type Archive struct {
	db     *sql.DB
	mu     sync.RWMutex
	path   string
	logger *zap.Logger
}

// NewArchive opens (or creates) the archive database at the given path.
func NewArchive(path string, logger *zap.Logger) (*Archive, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logger.Debug("failed to set sqlite synchronous=NORMAL", zap.Error(err))
	}

	a := &Archive{db: db, path: path, logger: logger}
	if err := a.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("snapshot archive ready", zap.String("path", path))
	return a, nil
}

// initialize creates the required tables.
func (a *Archive) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_id TEXT NOT NULL,
		event TEXT NOT NULL,
		day INTEGER NOT NULL,
		retention REAL NOT NULL,
		confidence_score REAL NOT NULL,
		confidence_band TEXT NOT NULL,
		phase TEXT NOT NULL,
		utterance TEXT,
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_report ON snapshots(report_id);
	CREATE INDEX IF NOT EXISTS idx_snapshots_event ON snapshots(event);
	`
	if _, err := a.db.Exec(schema); err != nil {
		return fmt.Errorf("create snapshot schema: %w", err)
	}
	return nil
}

// Append stores one event row.
func (a *Archive) Append(ctx context.Context, snap Snapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO snapshots
			(report_id, event, day, retention, confidence_score, confidence_band, phase, utterance, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ReportID, snap.Event, snap.Day, snap.Retention,
		snap.ConfidenceScore, snap.ConfidenceBand, snap.Phase, snap.Utterance,
		snap.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}
	return nil
}

// ListByReport returns all events for one agent, oldest first.
func (a *Archive) ListByReport(ctx context.Context, reportID string) ([]Snapshot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, report_id, event, day, retention, confidence_score, confidence_band, phase, utterance, recorded_at
		FROM snapshots
		WHERE report_id = ?
		ORDER BY id ASC`, reportID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			snap       Snapshot
			recordedAt string
		)
		if err := rows.Scan(&snap.ID, &snap.ReportID, &snap.Event, &snap.Day,
			&snap.Retention, &snap.ConfidenceScore, &snap.ConfidenceBand,
			&snap.Phase, &snap.Utterance, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
			snap.RecordedAt = ts
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return out, nil
}

// Count returns the number of archived events for one agent.
func (a *Archive) Count(ctx context.Context, reportID string) (int64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var n int64
	err := a.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM snapshots WHERE report_id = ?", reportID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	a.logger.Debug("closing snapshot archive", zap.String("path", a.path))
	return a.db.Close()
}
