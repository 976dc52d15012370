// Package watch processes PDFs as they appear in a directory.
package watch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-form-fields/internal/pdf"
)

// DefaultSettle is how long a file must stay unchanged before it is processed.
const DefaultSettle = 2 * time.Second

// Handler processes one file. Its errors are logged and do not stop the watcher.
type Handler func(ctx context.Context, path string) error

// Watcher calls a handler for every PDF created or rewritten in one directory.
type Watcher struct {
	dir     string
	handler Handler
	settle  time.Duration
	logger  *zap.Logger
}

// New creates a watcher over dir. A non-positive settle uses DefaultSettle.
func New(dir string, settle time.Duration, handler Handler, logger *zap.Logger) *Watcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{dir: dir, handler: handler, settle: settle, logger: logger}
}

// Run watches until ctx is done. Files are handled one at a time, oldest change first.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching directory", zap.String("dir", w.dir), zap.Duration("settle", w.settle))

	pending := make(map[string]time.Time)
	tick := time.NewTicker(w.settle / 4)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !pdf.IsPDFName(ev.Name) {
				continue
			}
			switch {
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
				pending[ev.Name] = time.Now()
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				delete(pending, ev.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		case now := <-tick.C:
			for _, path := range settled(pending, now, w.settle) {
				delete(pending, path)
				if err := w.handler(ctx, path); err != nil {
					w.logger.Warn("failed to process file", zap.String("path", path), zap.Error(err))
				}
			}
		}
	}
}

// settled returns the pending paths unchanged for at least settle, oldest first.
func settled(pending map[string]time.Time, now time.Time, settle time.Duration) []string {
	var ready []string
	for path, changed := range pending {
		if now.Sub(changed) >= settle {
			ready = append(ready, path)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		return pending[ready[i]].Before(pending[ready[j]])
	})
	return ready
}
