// Package cache persists computed FileMetrics between runs. Entries are
// opaque binary blobs private to the engine, one file per entry under the
// cache root, keyed by a stable hash of the file's relative path. An entry
// is trusted only when its stored modification time exactly equals the
// file's current one; every other outcome is uniformly a miss.
package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/loctree/internal/debug"
	lcerrors "github.com/standardbeagle/loctree/internal/errors"
	"github.com/standardbeagle/loctree/internal/types"
)

// DirName is the conventional cache location under an analyzed project.
const DirName = ".loctree/cache"

// entry is the serialized form. ModTime is the mtime that was current when
// the entry was written; it is the sole invalidation key.
type entry struct {
	ModTime time.Time
	Metrics types.FileMetrics
}

// Cache is a disk-resident map from file identity to previously computed
// metrics. Distinct keys are distinct files on disk, so concurrent workers
// reading and writing different keys never interfere.
type Cache struct {
	dir string

	hits   int64
	misses int64
	writes int64
	errors int64
}

// Open creates (if needed) and returns the cache rooted under projectRoot.
func Open(projectRoot string) (*Cache, error) {
	dir := filepath.Join(projectRoot, filepath.FromSlash(DirName))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, lcerrors.NewCacheError("open", dir, err)
	}
	return &Cache{dir: dir}, nil
}

// Get returns the cached metrics for relPath if the stored modification
// time exactly matches modTime. Missing entries, mismatched timestamps and
// undecodable blobs are all just misses; corrupt data is never surfaced.
func (c *Cache) Get(relPath string, modTime time.Time) (types.FileMetrics, bool) {
	raw, err := os.ReadFile(c.entryPath(relPath))
	if err != nil {
		atomic.AddInt64(&c.misses, 1)
		return types.FileMetrics{}, false
	}

	var e entry
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&e); err != nil {
		debug.Logf("cache: undecodable entry for %s: %v", relPath, err)
		atomic.AddInt64(&c.misses, 1)
		return types.FileMetrics{}, false
	}
	if !e.ModTime.Equal(modTime) {
		atomic.AddInt64(&c.misses, 1)
		return types.FileMetrics{}, false
	}

	atomic.AddInt64(&c.hits, 1)
	return e.Metrics, true
}

// Set persists metrics keyed by their path. The write goes through a temp
// file and rename so a failure mid-write can never corrupt an existing
// entry, and concurrent writers to the same key last-write-win cleanly.
func (c *Cache) Set(m types.FileMetrics) error {
	var buf bytes.Buffer
	e := entry{ModTime: m.LastModified, Metrics: m}
	if err := gob.NewEncoder(&buf).Encode(&e); err != nil {
		atomic.AddInt64(&c.errors, 1)
		return lcerrors.NewCacheError("encode", m.Path, err)
	}

	target := c.entryPath(m.Path)
	tmp, err := os.CreateTemp(c.dir, "write-*")
	if err != nil {
		atomic.AddInt64(&c.errors, 1)
		return lcerrors.NewCacheError("write", m.Path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		atomic.AddInt64(&c.errors, 1)
		return lcerrors.NewCacheError("write", m.Path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		atomic.AddInt64(&c.errors, 1)
		return lcerrors.NewCacheError("write", m.Path, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		atomic.AddInt64(&c.errors, 1)
		return lcerrors.NewCacheError("write", m.Path, err)
	}

	atomic.AddInt64(&c.writes, 1)
	return nil
}

// Invalidate removes the entry for relPath. Removing a nonexistent entry
// is not an error.
func (c *Cache) Invalidate(relPath string) error {
	err := os.Remove(c.entryPath(relPath))
	if err != nil && !os.IsNotExist(err) {
		return lcerrors.NewCacheError("invalidate", relPath, err)
	}
	return nil
}

// entryPath maps a relative file path to its on-disk blob.
func (c *Cache) entryPath(relPath string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%016x", xxhash.Sum64String(relPath)))
}

// Stats reports hit/miss counters for the life of this Cache value.
type Stats struct {
	Hits   int64
	Misses int64
	Writes int64
	Errors int64
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
		Writes: atomic.LoadInt64(&c.writes),
		Errors: atomic.LoadInt64(&c.errors),
	}
}
