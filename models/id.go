package models

import (
	"slices"
	"sync"
)

// SequentialIDGenerator generates ids starting from 1. Released ids are
// handed out again, lowest first, before new ones.
type SequentialIDGenerator struct {
	mutex    sync.Mutex
	lastID   uint32
	released []uint32
}

// New returns the lowest released id, or the next unused one.
func (g *SequentialIDGenerator) New() uint32 {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if len(g.released) != 0 {
		id := g.released[0]
		g.released = g.released[1:]
		return id
	}

	g.lastID++
	return g.lastID
}

// Reuse releases the given id. Ids that were never generated or that are
// already released are ignored.
func (g *SequentialIDGenerator) Reuse(id uint32) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if id == 0 || id > g.lastID {
		return
	}

	i, found := slices.BinarySearch(g.released, id)
	if found {
		return
	}
	g.released = slices.Insert(g.released, i, id)
}
