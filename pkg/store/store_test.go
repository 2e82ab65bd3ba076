package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			d := New("packet", "tcp.mmd", "packet\n+8: \"a\"\n", time.Hour)
			d.SourceHash = "abc"

			if err := s.Put(ctx, d); err != nil {
				t.Fatalf("Put() error: %v", err)
			}
			got, err := s.Get(ctx, d.ID)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if diff := cmp.Diff(d, got); diff != "" {
				t.Errorf("diagram mismatch (-want +got):\n%s", diff)
			}

			if err := s.Delete(ctx, d.ID); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Get(ctx, d.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after Delete = %v, want ErrNotFound", err)
			}
			// Deleting twice is fine
			if err := s.Delete(ctx, d.ID); err != nil {
				t.Errorf("second Delete() error: %v", err)
			}
		})
	}
}

func TestStoreExpired(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			d := New("packet", "", "packet\n", time.Hour)
			d.ExpiresAt = time.Now().Add(-time.Minute)
			if err := s.Put(ctx, d); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Get(ctx, d.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("expired diagram: err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStoreInvalidID(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			err := s.Put(context.Background(), &Diagram{ID: "../../etc/passwd"})
			if !errors.Is(err, ErrInvalidID) {
				t.Errorf("Put() error = %v, want ErrInvalidID", err)
			}
			if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	d := New("packet", "x.mmd", "src", 0)
	if err := ValidateID(d.ID); err != nil {
		t.Errorf("ID %q is not a UUID", d.ID)
	}
	if !d.ExpiresAt.IsZero() || d.IsExpired() {
		t.Error("zero ttl should never expire")
	}
	if New("packet", "", "", 0).ID == d.ID {
		t.Error("IDs should be unique")
	}
}

func TestMemoryStoreCleanup(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	live := New("packet", "", "a", time.Hour)
	dead := New("packet", "", "b", time.Hour)
	dead.ExpiresAt = time.Now().Add(-time.Second)
	_ = s.Put(ctx, live)
	_ = s.Put(ctx, dead)

	if err := s.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestFileStoreCleanup(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	dead := New("packet", "", "b", time.Hour)
	dead.ExpiresAt = time.Now().Add(-time.Second)
	if err := s.Put(ctx, dead); err != nil {
		t.Fatal(err)
	}
	if err := s.Cleanup(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, dead.ID+".json")); !os.IsNotExist(err) {
		t.Error("expired file should be removed")
	}
	if s.Path() != dir {
		t.Errorf("Path() = %q", s.Path())
	}
}

func TestNewMongoStoreUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewMongoStore(ctx, MongoConfig{URI: "mongodb://127.0.0.1:1", Timeout: 200 * time.Millisecond})
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}
}

func TestNewMongoStoreBadURI(t *testing.T) {
	_, err := NewMongoStore(context.Background(), MongoConfig{URI: "http://not-mongo"})
	if err == nil {
		t.Fatal("expected error for invalid URI")
	}
}
