// Package watch re-runs analysis when files under a root change. It is a
// collaborator layered on the engine API: the engine itself knows nothing
// about file watching, and caching keeps unchanged files from re-parsing
// on each pass.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/loctree/internal/analyzer"
	"github.com/standardbeagle/loctree/internal/debug"
	"github.com/standardbeagle/loctree/internal/types"
)

// DefaultDebounce collapses editor save bursts into one analysis pass.
const DefaultDebounce = 500 * time.Millisecond

// Watcher observes a root and delivers a fresh AnalysisResult after each
// debounced batch of changes.
type Watcher struct {
	root     string
	cfg      types.AnalysisConfig
	eng      *analyzer.Analyzer
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending chan struct{}

	Results chan *types.AnalysisResult
	Errors  chan error
}

// New creates a watcher for root using the given engine and config.
func New(eng *analyzer.Analyzer, root string, cfg types.AnalysisConfig, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:     root,
		cfg:      cfg,
		eng:      eng,
		debounce: debounce,
		pending:  make(chan struct{}, 1),
		Results:  make(chan *types.AnalysisResult, 1),
		Errors:   make(chan error, 1),
	}
}

// Run watches until ctx is cancelled. An initial analysis runs immediately;
// afterwards each debounced change batch triggers one more.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := w.addRecursive(fw, w.root); err != nil {
		return err
	}

	w.analyze(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.ignorable(event.Name) {
				continue
			}
			// New directories need watches of their own.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(fw, event.Name); err != nil {
						debug.Logf("watch: failed to watch %s: %v", event.Name, err)
					}
				}
			}
			w.schedule()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			debug.Logf("watch: %v", err)
		case <-w.pending:
			w.analyze(ctx)
		}
	}
}

// schedule arms (or re-arms) the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.pending <- struct{}{}:
		default:
		}
	})
}

// analyze runs one engine pass and delivers the outcome, dropping stale
// results if the consumer is behind.
func (w *Watcher) analyze(ctx context.Context) {
	result, err := w.eng.Analyze(ctx, w.root, w.cfg)
	if err != nil {
		select {
		case w.Errors <- err:
		default:
		}
		return
	}
	select {
	case w.Results <- result:
	default:
		debug.Logf("watch: dropping unconsumed result")
	}
}

// addRecursive registers watches for dir and every non-hidden subdirectory.
func (w *Watcher) addRecursive(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			debug.Logf("watch: cannot watch %s: %v", path, err)
		}
		return nil
	})
}

// ignorable filters events from the cache directory and hidden files so a
// run's own cache writes never retrigger analysis.
func (w *Watcher) ignorable(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
