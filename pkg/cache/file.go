package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// FileCache keeps one file per layout under a directory:
//
//	<dir>/<engine>/<sha256(key)>.json
//
// A file holds an envelope with the full key, the timestamps and the layout
// JSON itself, so entries stay readable with any JSON tool. Writes go through
// a temporary file and a rename; a concurrent reader sees the old entry or
// the new one.
type FileCache struct {
	dir string
}

// NewFileCache creates a file cache in dir, creating it if needed.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// fileEntry is the on-disk envelope.
type fileEntry struct {
	Key       string          `json:"key"`
	Engine    string          `json:"engine,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Layout    json.RawMessage `json:"layout"`
}

func (e *fileEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Get returns the layout stored under key. Unreadable, expired and foreign
// entries (another key hashed to the same file) are misses; the first two are
// removed.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	entry, err := readEntry(path)
	switch {
	case os.IsNotExist(err):
		return nil, false, nil
	case err != nil:
		_ = os.Remove(path)
		return nil, false, nil
	case entry.expired(time.Now()):
		_ = os.Remove(path)
		return nil, false, nil
	case entry.Key != key:
		return nil, false, nil
	}
	return entry.Layout, true, nil
}

// Set stores a layout. data must be JSON; a ttl <= 0 never expires.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if !json.Valid(data) {
		return fmt.Errorf("file cache %s: value is not JSON", key)
	}
	now := time.Now()
	entry := fileEntry{Key: key, CreatedAt: now, Layout: data}
	if lk, ok := ParseLayoutKey(key); ok {
		entry.Engine = lk.Engine
	}
	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.path(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".entry-*")
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

// Delete removes the layout stored under key.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Close does nothing for file cache.
func (c *FileCache) Close() error { return nil }

// =============================================================================
// Maintenance
// =============================================================================

// Stats summarizes the entries on disk.
type Stats struct {
	Entries  int
	Expired  int
	Bytes    int64
	ByEngine map[string]int
}

// Engines returns the engine names in Stats.ByEngine, sorted.
func (s Stats) Engines() []string {
	names := make([]string, 0, len(s.ByEngine))
	for name := range s.ByEngine {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats walks the cache directory. Unreadable entries count toward Bytes
// only.
func (c *FileCache) Stats() (Stats, error) {
	st := Stats{ByEngine: map[string]int{}}
	now := time.Now()
	err := c.walk(func(path string, info fs.FileInfo) {
		st.Bytes += info.Size()
		entry, err := readEntry(path)
		if err != nil {
			return
		}
		st.Entries++
		if entry.expired(now) {
			st.Expired++
		}
		st.ByEngine[engineName(entry.Engine)]++
	})
	return st, err
}

// Clear removes every entry and the emptied engine directories and returns
// the number of files removed.
func (c *FileCache) Clear() (int, error) {
	removed := 0
	err := c.walk(func(path string, _ fs.FileInfo) {
		if os.Remove(path) == nil {
			removed++
		}
	})
	if err != nil {
		return removed, err
	}
	dirs, _ := os.ReadDir(c.dir)
	for _, d := range dirs {
		if d.IsDir() {
			os.Remove(filepath.Join(c.dir, d.Name()))
		}
	}
	return removed, nil
}

// walk calls fn for every regular file below the cache directory. A missing
// directory is empty.
func (c *FileCache) walk(fn func(path string, info fs.FileInfo)) error {
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		fn(path, info)
		return nil
	})
	return err
}

// path places key under its engine directory.
func (c *FileCache) path(key string) string {
	engine := ""
	if lk, ok := ParseLayoutKey(key); ok {
		engine = lk.Engine
	}
	return filepath.Join(c.dir, engineName(engine), Hash([]byte(key))+".json")
}

func engineName(engine string) string {
	if engine == "" || engine == "." || engine == ".." || filepath.Base(engine) != engine {
		return "other"
	}
	return engine
}

func readEntry(path string) (*fileEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry fileEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &entry, nil
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
