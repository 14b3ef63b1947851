package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry classes, derived from the keyer's namespace prefixes. They map
// to top-level subdirectories so the on-disk cache stays inspectable:
// rendered artifacts and resolved source data never mix.
const (
	classSource   = "source"
	classArtifact = "artifact"
	classMisc     = "misc"
)

// FileCache stores entries under a local directory, one JSON file per
// entry. It backs the CLI's render and watch modes, where a single
// process owns the cache directory.
type FileCache struct {
	dir string
}

// NewFileCache creates a file cache rooted at dir, creating the
// directory if needed.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// fileEntry is the on-disk form of one cached value. Class records
// whether the payload is a rendered artifact or resolved source data.
type fileEntry struct {
	Class     string    `json:"class"`
	Payload   []byte    `json:"payload"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Get retrieves the payload for key. Expired and unreadable entries are
// removed and reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry fileEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false, nil
	}

	return entry.Payload, true, nil
}

// Set stores data under key. The entry is written to a temp file and
// renamed, so a concurrent Get never observes a partial entry.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := fileEntry{
		Class:   classOf(key),
		Payload: data,
	}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes the entry for key. A missing entry is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing; entries persist until they expire or are cleared.
func (c *FileCache) Close() error {
	return nil
}

// path maps a key to <dir>/<class>/<hh>/<hash>.json. The two-character
// shard under the class directory keeps any one directory small even
// for documents with many cached chart artifacts.
func (c *FileCache) path(key string) string {
	sum := Hash([]byte(key))
	return filepath.Join(c.dir, classOf(key), sum[:2], sum[2:]+".json")
}

// classOf derives the entry class from the keyer's namespace prefix. A
// scoped keyer prepends a tenant prefix, so the class may sit after the
// first separator rather than at the start.
func classOf(key string) string {
	switch {
	case strings.HasPrefix(key, classSource+":") || strings.Contains(key, ":"+classSource+":"):
		return classSource
	case strings.HasPrefix(key, classArtifact+":") || strings.Contains(key, ":"+classArtifact+":"):
		return classArtifact
	default:
		return classMisc
	}
}

var _ Cache = (*FileCache)(nil)
