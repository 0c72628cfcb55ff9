package queue

import (
	"sync"
	"time"
)

// Store is the authoritative container for queue items.
//
// All mutation replaces the whole snapshot: the items slice and the Item
// structs it points to are never modified in place once published, so a
// snapshot handed out by All remains internally consistent no matter how
// many mutations land while a caller is still iterating it. Insertion
// order is preserved; the dispatcher relies on it for FIFO selection.
type Store struct {
	mu    sync.RWMutex
	items []*Item
	index map[string]int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Add inserts a new pending item. The id must be non-empty and not
// already present.
func (s *Store) Add(id, title string, payload any) (*Item, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[id]; exists {
		return nil, ErrDuplicateID
	}

	now := time.Now().UTC()
	item := &Item{
		ID:        id,
		Title:     title,
		Payload:   payload,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	next := make([]*Item, len(s.items)+1)
	copy(next, s.items)
	next[len(s.items)] = item

	s.items = next
	s.index = buildIndex(next)
	return item, nil
}

// Remove deletes an item unconditionally. Removing an unknown id is a
// no-op and returns false.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, exists := s.index[id]
	if !exists {
		return false
	}

	next := make([]*Item, 0, len(s.items)-1)
	next = append(next, s.items[:pos]...)
	next = append(next, s.items[pos+1:]...)

	s.items = next
	s.index = buildIndex(next)
	return true
}

// UpdateStatus transitions an item to the given status. An unknown id is
// a no-op, not an error: a settlement callback racing with removal must
// land harmlessly. The returned item is the post-update copy.
func (s *Store) UpdateStatus(id string, status Status, errorMessage string) (*Item, bool) {
	return s.mutate(id, func(item *Item) {
		item.Status = status
		item.ErrorMessage = errorMessage
	})
}

// TransitionStatus moves an item from one status to another only when it
// is currently in the expected status. It reports whether the transition
// happened, which makes "exactly one dispatcher owns this item" checkable
// instead of conventional.
func (s *Store) TransitionStatus(id string, from, to Status) (*Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, exists := s.index[id]
	if !exists || s.items[pos].Status != from {
		return nil, false
	}
	return s.replaceLocked(pos, func(item *Item) {
		item.Status = to
		item.NotBefore = time.Time{}
		item.ErrorMessage = ""
	}), true
}

// MarkRetry returns a failed item to pending with its retry count
// incremented. The item is not eligible for redispatch before notBefore.
func (s *Store) MarkRetry(id string, errorMessage string, notBefore time.Time) (*Item, bool) {
	return s.mutate(id, func(item *Item) {
		item.Status = StatusPending
		item.Retries++
		item.NotBefore = notBefore
		item.ErrorMessage = errorMessage
	})
}

// ResetForRetry is the explicit external retry request: retries return to
// zero and the item re-enters the pending pipeline. Only settled items
// qualify; a pending or in-flight item reports false so a second dispatch
// can never race the invocation that already owns it.
func (s *Store) ResetForRetry(id string) (*Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, exists := s.index[id]
	if !exists || !s.items[pos].IsTerminal() {
		return nil, false
	}
	return s.replaceLocked(pos, func(item *Item) {
		item.Status = StatusPending
		item.Retries = 0
		item.NotBefore = time.Time{}
		item.ErrorMessage = ""
		item.Result = nil
	}), true
}

// SetResult stores the processor result alongside the complete status.
func (s *Store) SetResult(id string, result any) (*Item, bool) {
	return s.mutate(id, func(item *Item) {
		item.Status = StatusComplete
		item.ErrorMessage = ""
		item.Result = result
	})
}

// Find returns the current copy of an item.
func (s *Store) Find(id string) (*Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, exists := s.index[id]
	if !exists {
		return nil, false
	}
	return s.items[pos], true
}

// All returns the current snapshot in insertion order. Callers may iterate
// it freely; it is never mutated after publication.
func (s *Store) All() []*Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items
}

// Pending returns pending items in insertion order.
func (s *Store) Pending() []*Item {
	return s.filter(func(item *Item) bool { return item.Status == StatusPending })
}

// ActiveCount recomputes the number of items holding a concurrency slot
// from the snapshot. There is deliberately no maintained counter that
// could drift from the item list.
func (s *Store) ActiveCount() int {
	count := 0
	for _, item := range s.All() {
		if item.IsActive() {
			count++
		}
	}
	return count
}

// Clear empties the store and returns the number of items dropped.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := len(s.items)
	s.items = nil
	s.index = make(map[string]int)
	return dropped
}

// Len returns the current item count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) filter(keep func(*Item) bool) []*Item {
	snapshot := s.All()
	var matched []*Item
	for _, item := range snapshot {
		if keep(item) {
			matched = append(matched, item)
		}
	}
	return matched
}

func (s *Store) mutate(id string, apply func(*Item)) (*Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, exists := s.index[id]
	if !exists {
		return nil, false
	}
	return s.replaceLocked(pos, apply), true
}

// replaceLocked publishes a fresh snapshot with a fresh copy of the item
// at pos. The previous slice and the previous Item stay untouched for
// readers still holding them.
func (s *Store) replaceLocked(pos int, apply func(*Item)) *Item {
	updated := *s.items[pos]
	apply(&updated)
	updated.UpdatedAt = time.Now().UTC()

	next := make([]*Item, len(s.items))
	copy(next, s.items)
	next[pos] = &updated

	s.items = next
	return &updated
}

func buildIndex(items []*Item) map[string]int {
	index := make(map[string]int, len(items))
	for pos, item := range items {
		index[item.ID] = pos
	}
	return index
}
