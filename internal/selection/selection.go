package selection

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

type State int

const (
	// Idle means nothing is selected.
	Idle State = iota
	// Selecting means at least one card is selected and actions are available.
	Selecting
	// Dispatching means an action is running over the selection.
	Dispatching
)

func (s State) String() string {
	switch s {
	case Selecting:
		return "selecting"
	case Dispatching:
		return "dispatching"
	}
	return "idle"
}

var ErrBusy = errors.New("selection is locked while an action is dispatching")

// Selection is an ordered set of card ids. It is safe for concurrent use.
type Selection struct {
	mu          sync.Mutex
	ids         []uuid.UUID
	index       map[uuid.UUID]struct{}
	dispatching bool
}

func New(ids ...uuid.UUID) *Selection {
	s := &Selection{index: map[uuid.UUID]struct{}{}}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

func (s *Selection) add(id uuid.UUID) {
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *Selection) remove(id uuid.UUID) {
	if _, ok := s.index[id]; !ok {
		return
	}
	delete(s.index, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
}

// Toggle selects id if it is not selected and deselects it otherwise. It
// reports whether id is selected afterwards.
func (s *Selection) Toggle(id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatching {
		return false, ErrBusy
	}
	if _, ok := s.index[id]; ok {
		s.remove(id)
		return false, nil
	}
	s.add(id)
	return true, nil
}

// SelectAll adds every id, keeping the ones already selected.
func (s *Selection) SelectAll(ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatching {
		return ErrBusy
	}
	for _, id := range ids {
		s.add(id)
	}
	return nil
}

func (s *Selection) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatching {
		return ErrBusy
	}
	s.ids = nil
	s.index = map[uuid.UUID]struct{}{}
	return nil
}

func (s *Selection) Contains(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[id]
	return ok
}

// IDs returns a copy of the selected ids in selection order.
func (s *Selection) IDs() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uuid.UUID, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

func (s *Selection) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.dispatching:
		return Dispatching
	case len(s.ids) > 0:
		return Selecting
	}
	return Idle
}

// begin locks the selection and returns a snapshot of it.
func (s *Selection) begin() ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatching {
		return nil, ErrBusy
	}
	s.dispatching = true
	out := make([]uuid.UUID, len(s.ids))
	copy(out, s.ids)
	return out, nil
}

// finish unlocks the selection, keeping only the ids in keep.
func (s *Selection) finish(keep []uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatching = false
	s.ids = nil
	s.index = map[uuid.UUID]struct{}{}
	for _, id := range keep {
		s.add(id)
	}
}
