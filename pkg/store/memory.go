package store

import (
	"context"
	"sort"
	"sync"

	"github.com/matzehuels/vizdeck/pkg/errors"
)

// MemoryStore is an in-process document library. Suitable for tests and
// single-instance serve mode.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*Document)}
}

// Put inserts or replaces a document.
func (s *MemoryStore) Put(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(doc, s.docs[doc.ID])
	s.docs[doc.ID] = clone(doc)
	return nil
}

// Get retrieves a document by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeDocumentNotFound, "document %q not found", id)
	}
	return clone(doc), nil
}

// List returns all documents, most recently updated first.
func (s *MemoryStore) List(ctx context.Context) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, clone(doc))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Delete removes a document by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return errors.New(errors.ErrCodeDocumentNotFound, "document %q not found", id)
	}
	delete(s.docs, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

func clone(doc *Document) *Document {
	cp := *doc
	cp.Body = append([]byte(nil), doc.Body...)
	return &cp
}
