package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

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

	// Keys are deterministic
	if k.ParseKey("packet", "abc", 32) != k.ParseKey("packet", "abc", 32) {
		t.Error("ParseKey should be deterministic")
	}
	if k.ParseKey("packet", "abc", 32) == k.ParseKey("packet", "abc", 16) {
		t.Error("ParseKey should depend on the row width")
	}
	if !strings.HasPrefix(k.ParseKey("packet", "abc", 32), "parse:") {
		t.Errorf("ParseKey unexpected: %s", k.ParseKey("packet", "abc", 32))
	}

	// ArtifactKey should include options in hash
	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Language: "packet", Format: "svg", BitsPerRow: 32})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Language: "packet", Format: "svg", BitsPerRow: 16})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
	ak3 := k.ArtifactKey("hash123", ArtifactKeyOpts{Language: "packet", Format: "json", BitsPerRow: 32})
	if ak1 == ak3 {
		t.Error("Different formats should produce different keys")
	}

	// ShapeKey
	sk1 := k.ShapeKey("node1", ShapeKeyOpts{Kind: "half-rounded-rect", Look: "classic"})
	sk2 := k.ShapeKey("node1", ShapeKeyOpts{Kind: "half-rounded-rect", Look: "handDrawn"})
	if sk1 == sk2 {
		t.Error("Different ShapeKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(sk1, "shape:") {
		t.Errorf("ShapeKey unexpected: %s", sk1)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "staging:")

	// All keys should be prefixed
	parseKey := scoped.ParseKey("packet", "abc", 32)
	if parseKey != "staging:"+inner.ParseKey("packet", "abc", 32) {
		t.Errorf("ScopedKeyer ParseKey unexpected: %s", parseKey)
	}

	shapeKey := scoped.ShapeKey("n", ShapeKeyOpts{Kind: "rect"})
	if !strings.HasPrefix(shapeKey, "staging:shape:") {
		t.Errorf("ScopedKeyer ShapeKey should be prefixed: %s", shapeKey)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"})
	if key != "prefix:"+NewDefaultKeyer().ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}) {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("<svg/>"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "<svg/>" {
		t.Errorf("Get(k) = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of missing key should succeed: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Fatal("fresh entry should hit")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
}

func TestFileCacheNamespaces(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	k := NewScopedKeyer(nil, "ci:")
	keys := []string{
		k.ParseKey("packet", Hash([]byte("src")), 32),
		k.ArtifactKey(Hash([]byte("src")), ArtifactKeyOpts{Format: "svg"}),
		k.ShapeKey(Hash([]byte("node")), ShapeKeyOpts{Kind: "rect"}),
		"loose",
	}
	for _, key := range keys {
		if err := c.Set(ctx, key, []byte(key), 0); err != nil {
			t.Fatal(err)
		}
	}

	for _, ns := range []string{NamespaceParse, NamespaceArtifact, NamespaceShape, otherNamespace} {
		entries, err := os.ReadDir(filepath.Join(dir, ns))
		if err != nil || len(entries) != 1 {
			t.Errorf("namespace %s: %d shard dirs, err %v", ns, len(entries), err)
		}
	}

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]int{NamespaceParse: 1, NamespaceArtifact: 1, NamespaceShape: 1, otherNamespace: 1}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}
}

func TestFileCachePruneAndClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "parse:a", []byte("a"), time.Hour)
	_ = c.Set(ctx, "artifact:b", []byte("b"), 48*time.Hour)
	_ = c.Set(ctx, "shape:c", []byte("c"), 0)
	corrupt := c.path("shape:d")
	if err := os.MkdirAll(filepath.Dir(corrupt), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(corrupt, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Hour)
	n, err := c.Prune(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Prune() = %d, %v; want the expired and the corrupt entry", n, err)
	}
	if _, hit, _ := c.Get(ctx, "artifact:b"); !hit {
		t.Error("Prune removed a live entry")
	}
	if _, err := os.Stat(filepath.Join(dir, NamespaceParse)); !os.IsNotExist(err) {
		t.Errorf("emptied namespace dir should be removed, stat err %v", err)
	}

	n, err = c.Clear(ctx)
	if err != nil || n != 2 {
		t.Errorf("Clear() = %d, %v; want 2", n, err)
	}
	if stats, _ := c.Stats(ctx); len(stats) != 0 {
		t.Errorf("Stats after Clear = %v", stats)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Clear should keep the root dir: %v", err)
	}
}

func TestNamespace(t *testing.T) {
	k := NewDefaultKeyer()
	tests := []struct {
		key, want string
	}{
		{k.ParseKey("packet", "h", 32), NamespaceParse},
		{"staging:" + k.ArtifactKey("h", ArtifactKeyOpts{}), NamespaceArtifact},
		{k.ShapeKey("h", ShapeKeyOpts{}), NamespaceShape},
		{"nope:abc", ""},
		{"plain", ""},
	}
	for _, tt := range tests {
		if got := Namespace(tt.key); got != tt.want {
			t.Errorf("Namespace(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisCache(ctx, "redis://127.0.0.1:1/0", "diagramkit:")
	if err == nil {
		t.Fatal("NewRedisCache should fail without a server")
	}
	if !errors.Is(err, ErrNetwork) && !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want ErrNetwork", err)
	}

	if _, err := NewRedisCache(ctx, "http://not-redis", ""); err == nil {
		t.Error("NewRedisCache should reject non-redis URLs")
	}
}

func TestRedisClassify(t *testing.T) {
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
	if IsRetryable(classify(redis.Nil)) {
		t.Error("a miss is not retryable")
	}
	if IsRetryable(classify(context.Canceled)) {
		t.Error("cancellation is not retryable")
	}
	err := classify(errors.New("dial tcp: connection refused"))
	if !IsRetryable(err) || !errors.Is(err, ErrNetwork) {
		t.Errorf("transport error should be a retryable ErrNetwork: %v", err)
	}
}

func TestRedisKeyPrefix(t *testing.T) {
	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "dk:")
	defer c.Close()
	if got := c.key("parse:abc"); got != "dk:parse:abc" {
		t.Errorf("key = %q", got)
	}
}

func TestRetryableError(t *testing.T) {
	// Retryable(nil) returns nil
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	// Non-nil error is wrapped
	err := Retryable(ErrNetwork)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}

	// Error message is preserved
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}

	// Non-wrapped errors are not retryable
	if IsRetryable(errPermanent) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

var errPermanent = errors.New("permanent")

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	// Success on first try
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}

	// Non-retryable error stops immediately
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return errPermanent
	})
	if err != errPermanent {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry non-retryable error: %d", calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("Should retry once: %d", calls)
	}
}

func TestBackoffAttempts(t *testing.T) {
	calls := 0
	b := Backoff{Attempts: 3, Delay: time.Millisecond}
	err := b.Retry(context.Background(), func() error {
		calls++
		return Retryable(ErrNetwork)
	})
	if !errors.Is(err, ErrNetwork) || calls != 3 {
		t.Errorf("Retry() = %v after %d calls, want ErrNetwork after 3", err, calls)
	}

	calls = 0
	_ = Backoff{}.Retry(context.Background(), func() error {
		calls++
		return Retryable(ErrNetwork)
	})
	if calls != 1 {
		t.Errorf("zero Backoff should try once, got %d", calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
