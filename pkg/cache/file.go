package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// otherNamespace holds entries whose keys carry no known namespace.
const otherNamespace = "other"

// FileCache stores entries as JSON files for the CLI. Entries are grouped by
// key namespace, so parsed diagrams, rendered artifacts and shapes live in
// their own subdirectories:
//
//	<dir>/parse/3f/a9c1....json
//	<dir>/artifact/07/1be2....json
//
// Writes go through a temporary file and a rename, so concurrent batch
// renders never observe a partial entry.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache creates a file cache rooted at dir, creating it if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

// Dir returns the cache's root directory.
func (c *FileCache) Dir() string { return c.dir }

type fileEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (e fileEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Get implements Cache. Expired or unreadable entries are removed and
// reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	e, err := readEntry(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, false, nil
	case errors.Is(err, errCorrupt):
		_ = os.Remove(path)
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	if e.expired(c.now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set implements Cache.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := fileEntry{Key: key, Data: data}
	if ttl > 0 {
		e.ExpiresAt = c.now().Add(ttl)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete implements Cache.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes every entry and reports how many there were.
func (c *FileCache) Clear(ctx context.Context) (int, error) {
	return c.sweep(ctx, func(fileEntry, error) bool { return true })
}

// Prune removes expired and unreadable entries, keeping live ones.
func (c *FileCache) Prune(ctx context.Context) (int, error) {
	now := c.now()
	return c.sweep(ctx, func(e fileEntry, err error) bool {
		return err != nil || e.expired(now)
	})
}

// Stats counts the live entries per namespace.
func (c *FileCache) Stats(ctx context.Context) (map[string]int, error) {
	now := c.now()
	counts := map[string]int{}
	err := c.walk(ctx, func(ns, path string) error {
		if e, err := readEntry(path); err == nil && !e.expired(now) {
			counts[ns]++
		}
		return nil
	})
	return counts, err
}

// Close implements Cache.
func (c *FileCache) Close() error { return nil }

// sweep deletes the entries drop selects and then any emptied directories.
func (c *FileCache) sweep(ctx context.Context, drop func(fileEntry, error) bool) (int, error) {
	removed := 0
	err := c.walk(ctx, func(_, path string) error {
		e, err := readEntry(path)
		if errors.Is(err, fs.ErrNotExist) || !drop(e, err) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		removed++
		return nil
	})
	c.removeEmptyDirs()
	return removed, err
}

// walk calls fn for every entry file with the namespace it is filed under.
func (c *FileCache) walk(ctx context.Context, fn func(ns, path string) error) error {
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		rel, err := filepath.Rel(c.dir, path)
		if err != nil {
			return err
		}
		ns, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
		return fn(ns, path)
	})
	return err
}

func (c *FileCache) removeEmptyDirs() {
	var dirs []string
	_ = filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() && path != c.dir {
			dirs = append(dirs, path)
		}
		return nil
	})
	// Deepest first, so a namespace dir empties after its shards.
	for i := len(dirs) - 1; i >= 0; i-- {
		_ = os.Remove(dirs[i])
	}
}

// path maps key to <dir>/<namespace>/<shard>/<rest>.json.
func (c *FileCache) path(key string) string {
	ns := Namespace(key)
	if ns == "" {
		ns = otherNamespace
	}
	h := Hash([]byte(key))
	return filepath.Join(c.dir, ns, h[:2], h[2:]+".json")
}

var errCorrupt = errors.New("corrupt cache entry")

func readEntry(path string) (fileEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileEntry{}, err
	}
	var e fileEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return fileEntry{}, errCorrupt
	}
	return e, nil
}

var _ Cache = (*FileCache)(nil)
