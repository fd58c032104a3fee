package service

import (
	"strings"
	"sync"

	"github.com/noah-isme/sma-report-batch/internal/models"
)

// SelectionStore holds the students picked for the next batch. It is scoped
// to one class and keeps selection order. Changing the class always clears it.
type SelectionStore struct {
	mu      sync.RWMutex
	classID string
	order   []string
	members map[string]struct{}
}

// NewSelectionStore returns an empty store with no class.
func NewSelectionStore() *SelectionStore {
	return &SelectionStore{members: make(map[string]struct{})}
}

// ClassID returns the class the selection belongs to.
func (s *SelectionStore) ClassID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.classID
}

// Select adds id; selecting twice keeps the original position.
func (s *SelectionStore) Select(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(id)
}

// Deselect removes id if present.
func (s *SelectionStore) Deselect(id string) {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return
	}
	delete(s.members, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// SelectAll adds every id in order, keeping earlier selections in place.
func (s *SelectionStore) SelectAll(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			s.add(id)
		}
	}
}

// Clear empties the selection and keeps the class.
func (s *SelectionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// OnClassChange switches the class and clears the selection unconditionally,
// even when the class is unchanged.
func (s *SelectionStore) OnClassChange(classID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classID = strings.TrimSpace(classID)
	s.reset()
}

// IsSelected reports membership.
func (s *SelectionStore) IsSelected(id string) bool {
	id = strings.TrimSpace(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[id]
	return ok
}

// SelectedIDs returns a copy of the selection in order.
func (s *SelectionStore) SelectedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Snapshot returns the class and selection together.
func (s *SelectionStore) Snapshot() models.SelectionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return models.SelectionSnapshot{ClassID: s.classID, SelectedIDs: ids}
}

func (s *SelectionStore) add(id string) {
	if _, ok := s.members[id]; ok {
		return
	}
	s.members[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *SelectionStore) reset() {
	s.order = nil
	s.members = make(map[string]struct{})
}
