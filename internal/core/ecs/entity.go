package ecs

import "errors"

// ErrUnknownEntity is returned when an operation references an id the pool
// never allocated or has since destroyed.
var ErrUnknownEntity = errors.New("unknown entity")

// EntityID is an opaque handle. Zero is never allocated, so it doubles as
// "no entity" in component fields.
type EntityID uint64

func (id EntityID) IsZero() bool { return id == 0 }

// EntityPool hands out monotonically increasing ids. Ids are never reused:
// a destroyed id stays dead for the lifetime of the pool.
type EntityPool struct {
	next  EntityID
	alive map[EntityID]struct{}
}

func NewEntityPool() *EntityPool {
	return &EntityPool{
		alive: make(map[EntityID]struct{}, 1024),
	}
}

func (p *EntityPool) Create() EntityID {
	p.next++
	p.alive[p.next] = struct{}{}
	return p.next
}

func (p *EntityPool) Alive(id EntityID) bool {
	_, ok := p.alive[id]
	return ok
}

// Destroy reports whether id was alive before the call.
func (p *EntityPool) Destroy(id EntityID) bool {
	if _, ok := p.alive[id]; !ok {
		return false // already destroyed (stale reference)
	}
	delete(p.alive, id)
	return true
}

// Len returns the number of live entities.
func (p *EntityPool) Len() int {
	return len(p.alive)
}
