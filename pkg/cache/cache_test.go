package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "spec-hash", []byte("<svg/>"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, hit, err := c.Get(ctx, "spec-hash")
	if err != nil || !hit {
		t.Fatalf("Get: hit=%v err=%v", hit, err)
	}
	if string(data) != "<svg/>" {
		t.Errorf("data = %q", data)
	}

	// Miss for unknown key
	if _, hit, _ := c.Get(ctx, "other"); hit {
		t.Error("unknown key should miss")
	}

	// Delete then miss
	if err := c.Delete(ctx, "spec-hash"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "spec-hash"); hit {
		t.Error("deleted key should miss")
	}

	// Deleting again is not an error
	if err := c.Delete(ctx, "spec-hash"); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
}

func TestFileCacheClassLayout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	k := NewDefaultKeyer()

	artifactKey := k.ArtifactKey("spec-hash", ArtifactKeyOpts{ChartType: "pie", Width: 600})
	sourceKey := k.SourceKey("data.yaml", SourceKeyOpts{Format: "yaml"})
	scopedKey := NewScopedKeyer(nil, "doc:abc:").ArtifactKey("spec-hash", ArtifactKeyOpts{})

	for key, payload := range map[string][]byte{
		artifactKey: []byte("<svg/>"),
		sourceKey:   []byte("[]"),
		scopedKey:   []byte("<g/>"),
		"raw-key":   []byte("x"),
	} {
		if err := c.Set(ctx, key, payload, time.Hour); err != nil {
			t.Fatalf("Set(%q): %v", key, err)
		}
	}

	// Entries partition into per-class directories; scoped keys still
	// classify by their namespace after the tenant prefix.
	for _, class := range []string{"artifact", "source", "misc"} {
		if _, err := os.Stat(filepath.Join(dir, class)); err != nil {
			t.Errorf("class directory %q missing: %v", class, err)
		}
	}

	if data, hit, err := c.Get(ctx, artifactKey); err != nil || !hit || string(data) != "<svg/>" {
		t.Errorf("artifact Get: data=%q hit=%v err=%v", data, hit, err)
	}
	if data, hit, err := c.Get(ctx, scopedKey); err != nil || !hit || string(data) != "<g/>" {
		t.Errorf("scoped Get: data=%q hit=%v err=%v", data, hit, err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// SourceKey should include options in hash
	sk1 := k.SourceKey("data/sales.csv", SourceKeyOpts{Format: "csv"})
	sk2 := k.SourceKey("data/sales.csv", SourceKeyOpts{Format: "json"})
	if sk1 == sk2 {
		t.Error("Different SourceKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(sk1, "source:") {
		t.Errorf("SourceKey should be namespaced: %s", sk1)
	}

	// ArtifactKey
	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{ChartType: "pie", Width: 600})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{ChartType: "bar", Width: 600})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(ak1, "artifact:") {
		t.Errorf("ArtifactKey should be namespaced: %s", ak1)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "doc:abc:")

	key := scoped.SourceKey("data.csv", SourceKeyOpts{})
	if !strings.HasPrefix(key, "doc:abc:source:") {
		t.Errorf("ScopedKeyer SourceKey should be prefixed: %s", key)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.ArtifactKey("h", ArtifactKeyOpts{})
	if !strings.HasPrefix(key, "prefix:artifact:") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}
