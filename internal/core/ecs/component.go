package ecs

import (
	"iter"
	"slices"
	"sort"
)

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID)
}

// Store is a generic typed store for one component kind. An entity may hold
// several instances of the same kind; they are kept in insertion order and
// the first one is canonical for singleton readers.
type Store[T any] struct {
	data map[EntityID][]*T
	ids  []EntityID // ascending, one entry per entity holding >= 1 instance
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		data: make(map[EntityID][]*T, 256),
		ids:  make([]EntityID, 0, 256),
	}
}

// Add appends c to id's instance list.
func (s *Store[T]) Add(id EntityID, c *T) {
	list, ok := s.data[id]
	if !ok {
		s.insertID(id)
	}
	s.data[id] = append(list, c)
}

// Set replaces every instance id holds with the single instance c.
func (s *Store[T]) Set(id EntityID, c *T) {
	if _, ok := s.data[id]; !ok {
		s.insertID(id)
	}
	s.data[id] = []*T{c}
}

// All returns a copy of id's instance list (nil when it holds none).
func (s *Store[T]) All(id EntityID) []*T {
	return slices.Clone(s.data[id])
}

// First returns the canonical instance, if any.
func (s *Store[T]) First(id EntityID) (*T, bool) {
	list := s.data[id]
	if len(list) == 0 {
		return nil, false
	}
	return list[0], true
}

func (s *Store[T]) Count(id EntityID) int {
	return len(s.data[id])
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Remove(id EntityID) {
	if _, ok := s.data[id]; !ok {
		return
	}
	delete(s.data, id)
	if i, found := slices.BinarySearch(s.ids, id); found {
		s.ids = slices.Delete(s.ids, i, i+1)
	}
}

// Len returns the number of entities holding at least one instance.
func (s *Store[T]) Len() int {
	return len(s.ids)
}

// Entities yields every entity holding at least one instance, in ascending id
// order. The sequence is lazy and restartable. Each step resumes after the
// last yielded id, so removals made by the caller mid-iteration are honored;
// entities added behind the cursor are not revisited.
func (s *Store[T]) Entities() iter.Seq[EntityID] {
	return func(yield func(EntityID) bool) {
		var last EntityID
		for {
			i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] > last })
			if i >= len(s.ids) {
				return
			}
			last = s.ids[i]
			if !yield(last) {
				return
			}
		}
	}
}

func (s *Store[T]) insertID(id EntityID) {
	i, found := slices.BinarySearch(s.ids, id)
	if found {
		return
	}
	s.ids = slices.Insert(s.ids, i, id)
}
