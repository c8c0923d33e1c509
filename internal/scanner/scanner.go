// Package scanner enumerates candidate source files under a root. Its one
// hard invariant is that output is lexically sorted: downstream processing
// is parallel, and the sorted list is the only source of determinism.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/loctree/internal/debug"
	lcerrors "github.com/standardbeagle/loctree/internal/errors"
	"github.com/standardbeagle/loctree/internal/parser"
	"github.com/standardbeagle/loctree/internal/types"
)

// Result is a scan's output: slash-normalized paths relative to the root,
// lexically sorted, plus warnings for entries that were skipped.
type Result struct {
	Files    []string
	Warnings []types.Warning
}

// Scan walks root recursively and returns every recognized source file not
// matched by excludePatterns. Patterns are doublestar globs evaluated
// against the slash-normalized relative path; a directory matching a
// pattern is pruned without descent, which is what keeps dependency caches
// with hundreds of thousands of files cheap to exclude.
//
// Per-entry failures (permission denied, oversized files) become warnings
// and the walk continues. An invalid pattern or unusable root fails the
// scan: those are configuration errors, not runtime conditions.
func Scan(root string, excludePatterns []string) (*Result, error) {
	for _, pattern := range excludePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, lcerrors.NewConfigError("exclude_patterns", pattern, fmt.Errorf("invalid glob pattern"))
		}
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, lcerrors.NewConfigError("root", root, err)
	}
	if !info.IsDir() {
		return nil, lcerrors.NewConfigError("root", root, fmt.Errorf("not a directory"))
	}

	result := &Result{}
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			debug.Logf("scanner: %s: %v", path, err)
			result.Warnings = append(result.Warnings, types.Warning{
				Path:   relPath(root, path),
				Reason: types.WarnPermission,
				Detail: err.Error(),
			})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if path == root {
			return nil
		}

		rel := relPath(root, path)

		if d.IsDir() {
			// Hidden directories are never descended into.
			if strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			if matchesDir(excludePatterns, rel) {
				return fs.SkipDir
			}
			return nil
		}

		// Symlinks are not followed; cycles are someone else's problem to
		// create and ours to not have.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if matchesFile(excludePatterns, rel) {
			return nil
		}
		if parser.LanguageForExtension(filepath.Ext(d.Name())) == "" {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			result.Warnings = append(result.Warnings, types.Warning{
				Path:   rel,
				Reason: types.WarnPermission,
				Detail: err.Error(),
			})
			return nil
		}
		if fi.Size() > types.MaxFileSize {
			debug.Logf("scanner: skipping oversized file %s (%d bytes)", rel, fi.Size())
			result.Warnings = append(result.Warnings, types.Warning{
				Path:   rel,
				Reason: types.WarnTooLarge,
				Detail: fmt.Sprintf("%d bytes exceeds %d byte limit", fi.Size(), types.MaxFileSize),
			})
			return nil
		}

		result.Files = append(result.Files, rel)
		return nil
	})
	if walkErr != nil {
		return nil, lcerrors.NewFileError("scan", root, walkErr)
	}

	// Hard invariant, not an optimization: see package comment.
	sort.Strings(result.Files)

	debug.Logf("scanner: %d files under %s (%d warnings)", len(result.Files), root, len(result.Warnings))
	return result, nil
}

// relPath returns the slash-normalized path of child relative to root.
func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

// matchesFile reports whether a file's relative path matches any pattern.
func matchesFile(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// matchesDir reports whether a directory should be pruned. A pattern like
// "excluded/**" names the directory's contents rather than the directory
// itself, so the bare prefix is tested too; skipping the subtree is
// equivalent to excluding every file under it.
func matchesDir(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if trimmed, found := strings.CutSuffix(pattern, "/**"); found {
			if ok, _ := doublestar.Match(trimmed, rel); ok {
				return true
			}
		}
	}
	return false
}
