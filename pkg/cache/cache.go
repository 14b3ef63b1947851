// Package cache provides byte caching for source resolution and rendered
// artifacts.
//
// The engine core never fetches remote data itself, but file-backed
// sources and rendered SVG artifacts are cached between renders. Three
// backends implement the same contract:
//   - FileCache: directory-backed cache for CLI usage
//   - RedisCache: shared cache for serve-mode deployments
//   - NullCache: caching disabled
//
// Keys are produced by a Keyer so that source and artifact entries never
// collide; wrap a keyer with NewScopedKeyer for multi-tenant isolation.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry class.
const (
	// TTLSource is the time-to-live for resolved source data.
	TTLSource = 24 * time.Hour

	// TTLArtifact is the time-to-live for rendered artifacts.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache stores opaque byte values under string keys with per-entry TTL.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves the value for key. The second return value reports
	// whether the key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the entry for key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// SourceKeyOpts parameterizes source cache keys.
type SourceKeyOpts struct {
	Format string // file format hint (csv, json, yaml)
}

// ArtifactKeyOpts parameterizes rendered-artifact cache keys.
type ArtifactKeyOpts struct {
	ChartType string  // renderer type name
	Width     float64 // container width the artifact was rendered for
	ColSpan   int
	Style     string // resolved style name, if any
}

// Keyer generates cache keys for the different entry classes.
type Keyer interface {
	// SourceKey generates a key for resolved source data identified by
	// its origin (typically a file path).
	SourceKey(origin string, opts SourceKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact derived from
	// the hash of its resolved chart spec.
	ArtifactKey(specHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// SourceKey generates a key for resolved source data.
func (k *DefaultKeyer) SourceKey(origin string, opts SourceKeyOpts) string {
	return hashKey("source", origin, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(specHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", specHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// Useful in serve mode where different documents or users need separate
// cache namespaces.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. The prefix is prepended
// to all generated keys. A nil inner keyer defaults to DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SourceKey generates a prefixed source key.
func (k *ScopedKeyer) SourceKey(origin string, opts SourceKeyOpts) string {
	return k.prefix + k.inner.SourceKey(origin, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(specHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(specHash, opts)
}
