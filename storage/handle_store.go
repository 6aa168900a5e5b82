package storage

import (
	"fmt"
	"sync"

	"grid-harness/core/models"

	"github.com/google/uuid"
)

// ErrUnknownHandle is returned when a handle is not (or no longer) resident
var ErrUnknownHandle = fmt.Errorf("unknown handle")

// HandleStore holds the remote-resident objects of one node: staged frames,
// trained models, scored frames. Handles are minted here and destroyed
// exactly once.
type HandleStore struct {
	nodeAddr string
	mu       sync.RWMutex
	objects  map[string]entry
}

type entry struct {
	kind  models.HandleKind
	value any
}

// NewHandleStore creates a handle store for the node at nodeAddr
func NewHandleStore(nodeAddr string) *HandleStore {
	return &HandleStore{
		nodeAddr: nodeAddr,
		objects:  make(map[string]entry),
	}
}

// Put stores value and mints a handle pointing at it
func (s *HandleStore) Put(kind models.HandleKind, value any) models.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := models.Handle{
		ID:       uuid.New().String(),
		Kind:     kind,
		NodeAddr: s.nodeAddr,
	}
	s.objects[h.ID] = entry{kind: kind, value: value}
	return h
}

// Get returns the object behind a handle ID
func (s *HandleStore) Get(id string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, id)
	}
	return e.value, nil
}

// Delete destroys the object behind a handle ID. Deleting an unknown ID
// returns ErrUnknownHandle so callers can treat it as already released.
func (s *HandleStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, id)
	}
	delete(s.objects, id)
	return nil
}

// Len returns the number of resident objects
func (s *HandleStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
