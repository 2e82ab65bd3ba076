// Package store persists diagram sources so they can be fetched and rendered
// again by ID.
//
// This package defines the Store interface with implementations for different
// backends:
//   - memory: In-memory storage for development/testing
//   - mongo: MongoDB-backed storage for production multi-instance deployments
//   - file: File-based storage for CLI applications
//
// # Usage
//
// Create a store:
//
//	// Development
//	s := store.NewMemoryStore()
//
//	// Production
//	s, err := store.NewMongoStore(ctx, store.MongoConfig{
//	    URI: "mongodb://localhost:27017",
//	})
//
// Save and fetch a diagram:
//
//	d := store.New("packet", "tcp.mmd", src, store.DefaultTTL)
//	if err := s.Put(ctx, d); err != nil {
//	    return err
//	}
//	d, err = s.Get(ctx, d.ID)
//	if errors.Is(err, store.ErrNotFound) {
//	    // Unknown or expired
//	}
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a diagram does not exist or has expired.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID is returned for IDs that are not UUIDs.
	ErrInvalidID = errors.New("invalid diagram id")
)

// DefaultTTL is how long saved diagrams are kept. Zero keeps them forever.
const DefaultTTL = 30 * 24 * time.Hour

// Diagram is a saved diagram source.
type Diagram struct {
	ID         string    `json:"id" bson:"_id"`
	Language   string    `json:"language" bson:"language"`
	Name       string    `json:"name,omitempty" bson:"name,omitempty"`
	Source     string    `json:"source" bson:"source"`
	SourceHash string    `json:"source_hash" bson:"source_hash"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	ExpiresAt  time.Time `json:"expires_at,omitzero" bson:"expires_at,omitempty"`
}

// IsExpired returns true if the diagram has an expiry in the past.
func (d *Diagram) IsExpired() bool {
	return !d.ExpiresAt.IsZero() && time.Now().After(d.ExpiresAt)
}

// Store is the interface for diagram storage backends.
type Store interface {
	// Put stores a diagram, replacing any diagram with the same ID.
	Put(ctx context.Context, d *Diagram) error

	// Get retrieves a diagram by ID.
	// Returns ErrNotFound if the diagram doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Diagram, error)

	// Delete removes a diagram. Deleting a missing diagram is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases the backend's resources.
	Close() error
}

// GenerateID creates a random diagram ID.
func GenerateID() string {
	return uuid.NewString()
}

// ValidateID reports ErrInvalidID unless id is a UUID.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// New creates a diagram with a fresh ID. SourceHash is left for the caller.
// A zero ttl never expires.
func New(language, name, source string, ttl time.Duration) *Diagram {
	now := time.Now().UTC()
	d := &Diagram{
		ID:        GenerateID(),
		Language:  language,
		Name:      name,
		Source:    source,
		CreatedAt: now,
	}
	if ttl > 0 {
		d.ExpiresAt = now.Add(ttl)
	}
	return d
}
