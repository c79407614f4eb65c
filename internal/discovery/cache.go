// Package discovery implements the C10 persistent discovery cache: a
// binary-serialized index of discovery roots, content-addressed by
// per-root mtimes, written atomically (spec.md §4.10).
package discovery

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nightlyone/lockfile"
)

// schemaVersion is bumped whenever the on-disk layout changes
// (spec.md §6: "must carry a schema/version tag").
const schemaVersion = 1

// WatchedRoot is one discovery root's freshness fingerprint.
type WatchedRoot struct {
	Dir       string
	MtimeNano int64
}

// Cache is the deserialized form of the discovery cache file.
type Cache struct {
	SchemaVersion int
	Roots         []WatchedRoot
	Names         []string // discovered filter names, for quick inspection
}

// Stat computes the current mtime fingerprint of every directory in
// dirs. Missing directories are reported with MtimeNano 0, which
// naturally differs from any previously recorded nonzero value.
func Stat(dirs []string) []WatchedRoot {
	out := make([]WatchedRoot, len(dirs))
	for i, d := range dirs {
		out[i] = WatchedRoot{Dir: d}
		if fi, err := os.Stat(d); err == nil {
			out[i].MtimeNano = fi.ModTime().UnixNano()
		}
	}
	return out
}

// Fresh reports whether cached matches the current fingerprint of
// dirs exactly, in both directory set and order (spec.md §4.10:
// "rebuilds only if any watched directory's mtime differs").
func (c *Cache) Fresh(dirs []string) bool {
	if c == nil || c.SchemaVersion != schemaVersion {
		return false
	}
	current := Stat(dirs)
	if len(current) != len(c.Roots) {
		return false
	}
	for i, r := range current {
		if c.Roots[i].Dir != r.Dir || c.Roots[i].MtimeNano != r.MtimeNano {
			return false
		}
	}
	return true
}

// Load reads and decodes the cache file at path. Any failure —
// missing file, I/O error, or corrupt gob stream — is treated as a
// cache miss rather than a fatal error (spec.md §4.10, §7).
func Load(path string) *Cache {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var c Cache
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&c); err != nil {
		return nil
	}
	if c.SchemaVersion != schemaVersion {
		return nil
	}
	return &c
}

// Save encodes a freshly-built cache and writes it atomically via a
// temp file + rename, guarded by a lockfile so concurrent rebuilds
// don't interleave partial writes (spec.md §4.10, §5: "concurrent
// writers are last-writer-wins and safe").
func Save(path string, dirs []string, names []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("discovery: mkdir cache dir: %w", err)
	}

	lock, err := lockfile.New(path + ".lock")
	if err != nil {
		return fmt.Errorf("discovery: build lock: %w", err)
	}
	if err := lock.TryLock(); err != nil {
		// Another writer holds the lock; last-writer-wins is safe
		// because the index is idempotently rebuildable, so we simply
		// skip this write rather than block (spec.md §5).
		return nil
	}
	defer lock.Unlock()

	c := Cache{
		SchemaVersion: schemaVersion,
		Roots:         Stat(dirs),
		Names:         names,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&c); err != nil {
		return fmt.Errorf("discovery: encode cache: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".cache-*")
	if err != nil {
		return fmt.Errorf("discovery: create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("discovery: write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("discovery: close temp cache file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("discovery: rename temp cache file: %w", err)
	}
	return nil
}

// Age reports how long ago the cache file at path was last written,
// for the `tokf doctor` subcommand to report staleness without
// decoding the whole cache.
func Age(path string) (time.Duration, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return time.Since(fi.ModTime()), nil
}
