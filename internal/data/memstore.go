package data

import (
	"context"
	"fmt"
	"sync"
)

// MemStore is an in-memory Store. Entities keep insertion order so child
// fan-outs are stable, and deletes are soft: a deleted entity stays stored
// but drops out of Children until restored.
type MemStore struct {
	mu       sync.RWMutex
	entities map[string]*Entity
	order    []string
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{entities: make(map[string]*Entity)}
}

// Put inserts or replaces an entity. The stored copy is independent of the
// argument.
func (s *MemStore) Put(e *Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *e
	cp.Values = append([]AttributeValue(nil), e.Values...)
	if _, exists := s.entities[e.ID]; !exists {
		s.order = append(s.order, e.ID)
	}
	s.entities[e.ID] = &cp
}

// Entity implements Store.
func (s *MemStore) Entity(_ context.Context, id string) (*Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[id]
	if !ok {
		return nil, fmt.Errorf("entity %s: %w", id, ErrNotFound)
	}
	cp := *e
	cp.Values = append([]AttributeValue(nil), e.Values...)
	return &cp, nil
}

// Children implements Store. Deleted entities are filtered out.
func (s *MemStore) Children(_ context.Context, parentID string) ([]*Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Entity
	for _, id := range s.order {
		e := s.entities[id]
		if e.ParentID != parentID || e.Deleted {
			continue
		}
		cp := *e
		cp.Values = append([]AttributeValue(nil), e.Values...)
		out = append(out, &cp)
	}
	return out, nil
}

// Delete soft-deletes the entity and all of its descendants.
func (s *MemStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mark(id, true)
}

// Restore undoes a soft delete of the entity and all of its descendants.
func (s *MemStore) Restore(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mark(id, false)
}

// mark flips the deleted flag on the entity subtree rooted at id. Caller
// holds the write lock.
func (s *MemStore) mark(id string, deleted bool) error {
	e, ok := s.entities[id]
	if !ok {
		return fmt.Errorf("entity %s: %w", id, ErrNotFound)
	}
	e.Deleted = deleted
	for _, childID := range s.order {
		child := s.entities[childID]
		if child.ParentID == id {
			if err := s.mark(childID, deleted); err != nil {
				return err
			}
		}
	}
	return nil
}

// Len returns the number of stored entities, deleted ones included.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}
