package lang

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ServiceRegistry maps language ids to their services. It is owned by the
// shared services it was built with.
type ServiceRegistry struct {
	mu     sync.RWMutex
	byID   map[string]*Services
	byExt  map[string]*Services
	single *Services
}

// NewServiceRegistry returns an empty registry.
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{
		byID:  map[string]*Services{},
		byExt: map[string]*Services{},
	}
}

// Register adds s under its language id and file extensions. Registering a
// second language with the same id is an error.
func (r *ServiceRegistry) Register(s *Services) error {
	id := s.LanguageMetaData.LanguageID
	if id == "" {
		return fmt.Errorf("register language: empty language id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; ok {
		return fmt.Errorf("register language %q: already registered", id)
	}
	r.byID[id] = s
	for _, ext := range s.LanguageMetaData.FileExtensions {
		r.byExt[strings.ToLower(ext)] = s
	}
	if len(r.byID) == 1 {
		r.single = s
	} else {
		r.single = nil
	}
	return nil
}

// Get returns the services registered under id.
func (r *ServiceRegistry) Get(id string) (*Services, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// ForPath returns the services for a file by extension. With a single
// registered language it is returned for any path.
func (r *ServiceRegistry) ForPath(path string) (*Services, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.single != nil {
		return r.single, nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	if s, ok := r.byExt[ext]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("no language registered for %q", path)
}

// IDs returns the registered language ids in sorted order.
func (r *ServiceRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
