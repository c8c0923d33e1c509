// Package analyzer drives the analysis pipeline: scan, parallel per-file
// fan-out, sequential reduction into a summary. It is the engine's single
// entry point for CLI, watch-mode and visualization collaborators.
package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/loctree/internal/cache"
	"github.com/standardbeagle/loctree/internal/debug"
	"github.com/standardbeagle/loctree/internal/metrics"
	"github.com/standardbeagle/loctree/internal/parser"
	"github.com/standardbeagle/loctree/internal/scanner"
	"github.com/standardbeagle/loctree/internal/types"
)

// Analyzer owns the process-scoped parser registry. One Analyzer serves any
// number of Analyze calls; grammars and queries compile once and are shared.
type Analyzer struct {
	registry *parser.Registry
	workers  int
}

// New creates an Analyzer with worker parallelism matching the CPU count.
func New() *Analyzer {
	return &Analyzer{
		registry: parser.NewRegistry(),
		workers:  runtime.NumCPU(),
	}
}

// Analyze runs the full pipeline over root. Only configuration-class
// failures (nonexistent root, invalid exclude pattern) or context
// cancellation return an error; every per-file condition becomes a warning
// on the result and the run proceeds. An empty root is a valid empty
// result.
func (a *Analyzer) Analyze(ctx context.Context, root string, cfg types.AnalysisConfig) (*types.AnalysisResult, error) {
	started := time.Now()

	scanRes, err := scanner.Scan(root, cfg.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	var store *cache.Cache
	if cfg.UseCache {
		store, err = cache.Open(root)
		if err != nil {
			// Caching is an optimization; a broken cache dir degrades to a
			// cold run, not a failure.
			debug.Logf("analyzer: cache unavailable: %v", err)
			store = nil
		}
	}

	files := scanRes.Files
	results := make([]*types.FileMetrics, len(files))

	var warnMu sync.Mutex
	warnings := scanRes.Warnings
	warn := func(w types.Warning) {
		warnMu.Lock()
		warnings = append(warnings, w)
		warnMu.Unlock()
	}

	// Parallel fan-out over an index-stable slice. Completion order is
	// meaningless; results[i] always belongs to files[i], which is what
	// turns parallel nondeterminism into a deterministic final order.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, rel := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			m, w := a.processFile(gctx, root, rel, store)
			if w != nil {
				warn(*w)
				return nil
			}
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := reduce(results, warnings)
	debug.Logf("analyzer: %d files, %d loc in %s", result.Summary.TotalFiles, result.Summary.TotalLOC, time.Since(started))
	return result, nil
}

// processFile computes (or retrieves from cache) the metrics for one file.
// Failures are returned as a warning, never an error: a single unreadable
// or pathological file must not abort visibility into the rest of the tree.
func (a *Analyzer) processFile(ctx context.Context, root, rel string, store *cache.Cache) (*types.FileMetrics, *types.Warning) {
	abs := filepath.Join(root, filepath.FromSlash(rel))

	if store != nil {
		if info, err := os.Stat(abs); err == nil {
			if m, ok := store.Get(rel, info.ModTime()); ok {
				return &m, nil
			}
		}
	}

	source, err := os.ReadFile(abs)
	if err != nil {
		reason := types.WarnReadFailed
		if os.IsPermission(err) {
			reason = types.WarnPermission
		}
		return nil, &types.Warning{Path: rel, Reason: reason, Detail: err.Error()}
	}
	// Metadata snapshot after the read keeps the race window between
	// content and mtime as small as it gets without locking the file.
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &types.Warning{Path: rel, Reason: types.WarnReadFailed, Detail: err.Error()}
	}

	lp, err := a.registry.ForExtension(filepath.Ext(rel))
	if err != nil {
		return nil, &types.Warning{Path: rel, Reason: types.WarnParseFailed, Detail: err.Error()}
	}

	parseCtx, cancel := context.WithTimeout(ctx, types.ParseTimeout)
	defer cancel()
	m, err := metrics.Calculate(parseCtx, rel, source, lp, info.ModTime())
	if err != nil {
		return nil, &types.Warning{Path: rel, Reason: types.WarnParseFailed, Detail: err.Error()}
	}

	if store != nil {
		// Best effort: the in-memory result is correct either way.
		if err := store.Set(m); err != nil {
			debug.Logf("analyzer: cache write failed for %s: %v", rel, err)
		}
	}
	return &m, nil
}

// reduce performs the sequential reduction: compact the index-stable slice
// (preserving the scanner's lexical order) and derive the summary.
func reduce(results []*types.FileMetrics, warnings []types.Warning) *types.AnalysisResult {
	files := make([]types.FileMetrics, 0, len(results))
	for _, m := range results {
		if m != nil {
			files = append(files, *m)
		}
	}

	summary := types.Summary{
		TotalFiles:   len(files),
		LargestFiles: []string{},
	}
	for _, m := range files {
		summary.TotalLOC += m.LOC
		summary.TotalFunctions += m.FunctionCount
	}

	// Top N by LOC descending, path ascending on ties, for determinism.
	byLOC := make([]*types.FileMetrics, len(files))
	for i := range files {
		byLOC[i] = &files[i]
	}
	sort.Slice(byLOC, func(i, j int) bool {
		if byLOC[i].LOC != byLOC[j].LOC {
			return byLOC[i].LOC > byLOC[j].LOC
		}
		return byLOC[i].Path < byLOC[j].Path
	})
	for i := 0; i < len(byLOC) && i < types.TopFilesCount; i++ {
		summary.LargestFiles = append(summary.LargestFiles, byLOC[i].Path)
	}

	return &types.AnalysisResult{
		Summary:   summary,
		Files:     files,
		Timestamp: time.Now(),
		Warnings:  warnings,
	}
}
