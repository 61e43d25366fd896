package ecs

import "slices"

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID)
}

// PtrComponentStore is a generic typed map store for ECS components.
// Iteration is always in ascending EntityID order so that seeded runs replay
// identically regardless of Go's map ordering.
type PtrComponentStore[T any] struct {
	data map[EntityID]*T
}

func NewPtrComponentStore[T any]() *PtrComponentStore[T] {
	return &PtrComponentStore[T]{
		data: make(map[EntityID]*T, 64),
	}
}

// Add stores a copy of c and returns the stored pointer.
func (s *PtrComponentStore[T]) Add(id EntityID, c T) *T {
	p := &c
	s.data[id] = p
	return p
}

func (s *PtrComponentStore[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *PtrComponentStore[T]) Remove(id EntityID) {
	delete(s.data, id)
}

func (s *PtrComponentStore[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *PtrComponentStore[T]) Len() int {
	return len(s.data)
}

// IDs returns the owning entities in ascending order.
func (s *PtrComponentStore[T]) IDs() []EntityID {
	ids := make([]EntityID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Each visits every component. fn may remove the visited entity from the store.
func (s *PtrComponentStore[T]) Each(fn func(EntityID, *T)) {
	for _, id := range s.IDs() {
		if c, ok := s.data[id]; ok {
			fn(id, c)
		}
	}
}

// Single returns the only entity carrying this component, with the number of
// carriers found. The id is zero unless count == 1.
func (s *PtrComponentStore[T]) Single() (EntityID, int) {
	if len(s.data) != 1 {
		return 0, len(s.data)
	}
	for id := range s.data {
		return id, 1
	}
	return 0, 0
}
