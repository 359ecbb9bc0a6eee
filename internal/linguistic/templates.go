package linguistic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// fallbackConfused is the table used when a band has no lines of its own.
const fallbackConfused = "Confused"

// builtinTemplates returns the built-in fallback lines, keyed by full
// confidence label. {memory} is replaced with the memory being recalled.
// These fire when the generation API is unreachable or out of quota, so the
// simulation stays demonstrable during outages.
func builtinTemplates() map[string][]string {
	return map[string][]string{
		"High Confidence": {
			"The data for {memory} is perfectly synced. I can confirm all parameters are nominal.",
			"Accessing archived record: {memory}. Integrity is 100%. What do you need to know?",
			"My primary memory core has {memory} fully cached and ready for retrieval.",
		},
		"Medium Confidence": {
			"Scanning neural pathways... {memory} is present, but I'm detecting minor trace interference.",
			"I recall the general framework of {memory}, though some specific nodes are currently obscured.",
			"Uplink unstable, but {memory} seems to be part of my recent task sequence.",
		},
		"Low Confidence": {
			"The record for {memory} is highly fragmented. I... I can't quite see the full picture.",
			"Neural unbinding detected. {memory} is fading into my deep archives. It feels distant.",
			"Warning: Data corruption in Sector 7. {memory} is missing critical metadata.",
		},
		"Very Low Confidence": {
			"I'm searching... but there's only noise where {memory} should be. It's almost gone.",
			"The memory of {memory} has lost its anchor. I can only retrieve ghost signals.",
			"Everything is shifting. {memory}? I... I don't think I have that anymore.",
		},
		fallbackConfused: {
			"Who... what was {memory}? My cognitive sync is failing.",
			"Error: Null reference. {memory} is no longer part of my active consciousness.",
			"I am in standby mode. Memory for {memory} is indistinguishable from noise.",
		},
	}
}

// TemplateSet holds the active fallback lines. Operators can override
// individual bands from a YAML file; bands the file does not mention keep
// their built-in lines. Safe for concurrent use.
type TemplateSet struct {
	mu     sync.RWMutex
	byBand map[string][]string
	logger *zap.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewTemplateSet returns a set loaded with the built-in lines.
func NewTemplateSet(logger *zap.Logger) *TemplateSet {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateSet{
		byBand: builtinTemplates(),
		logger: logger,
	}
}

// LoadFile merges a YAML override file over the built-ins. A malformed file
// leaves the active set untouched. An override band with zero lines is
// rejected so a band can never end up unanswerable.
func (t *TemplateSet) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read template file: %w", err)
	}

	var overrides map[string][]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parse template file: %w", err)
	}

	merged := builtinTemplates()
	for band, lines := range overrides {
		if len(lines) == 0 {
			return fmt.Errorf("template band %q has no lines", band)
		}
		merged[band] = lines
	}

	t.mu.Lock()
	t.byBand = merged
	t.mu.Unlock()

	t.logger.Info("fallback templates loaded",
		zap.String("path", path),
		zap.Int("override_bands", len(overrides)))
	return nil
}

// Watch hot-reloads the override file on edit. Non-blocking; the watcher
// stops when the context is cancelled or Close is called. A reload failure
// keeps the previous set active.
func (t *TemplateSet) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create template watcher: %w", err)
	}

	// Watch the directory: editors replace files on save, and a watch on the
	// old inode goes stale after the first rename.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch template directory: %w", err)
	}

	t.stopCh = make(chan struct{})
	t.doneCh = make(chan struct{})

	go t.run(ctx, watcher, path)

	t.logger.Info("watching fallback templates", zap.String("path", path))
	return nil
}

func (t *TemplateSet) run(ctx context.Context, watcher *fsnotify.Watcher, path string) {
	defer close(t.doneCh)
	defer watcher.Close()

	// Editors emit a burst of events per save. Reload only once a burst has
	// settled so a half-written file is never parsed.
	const settle = 200 * time.Millisecond
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var pending time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case <-t.stopCh:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			pending = time.Now()

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < settle {
				continue
			}
			pending = time.Time{}

			if err := t.LoadFile(path); err != nil {
				t.logger.Warn("template reload failed, keeping previous set",
					zap.String("path", path), zap.Error(err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			t.logger.Warn("template watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher if one is running.
func (t *TemplateSet) Close() {
	if t.stopCh == nil {
		return
	}
	select {
	case <-t.stopCh:
	default:
		close(t.stopCh)
	}
	<-t.doneCh
	t.stopCh = nil
	t.doneCh = nil
}

// Lines returns the active lines for a band, falling back to the Confused
// table for unknown bands.
func (t *TemplateSet) Lines(band string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	lines, ok := t.byBand[band]
	if !ok || len(lines) == 0 {
		lines = t.byBand[fallbackConfused]
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}

// Fill substitutes the memory into a template line.
func Fill(template, memory string) string {
	return strings.ReplaceAll(template, "{memory}", memory)
}
