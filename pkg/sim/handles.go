// Package sim binds the collision engine to an entity-component world:
// pooled bodies with generation-counted handles, a world that owns the
// spatial manager and pipeline, and an ECS system adapter.
package sim

import (
	"github.com/opd-ai/go-collider/pkg/spatial"
)

// HandlePool recycles body slots. Each release bumps the slot's
// generation so stale handles held by game code can never alias a slot's
// next occupant.
type HandlePool struct {
	generations []uint32
	free        []uint32
}

// NewHandlePool creates an empty pool
func NewHandlePool() *HandlePool {
	return &HandlePool{}
}

// Allocate returns a fresh handle, reusing a released slot when one is
// available.
func (p *HandlePool) Allocate() spatial.Handle {
	if n := len(p.free); n > 0 {
		index := p.free[n-1]
		p.free = p.free[:n-1]
		return spatial.Handle{Index: index, Generation: p.generations[index]}
	}
	index := uint32(len(p.generations))
	p.generations = append(p.generations, 1)
	return spatial.Handle{Index: index, Generation: 1}
}

// Release returns the handle's slot to the pool. Releasing a stale or
// unknown handle is a no-op and reports false.
func (p *HandlePool) Release(h spatial.Handle) bool {
	if !p.Valid(h) {
		return false
	}
	p.generations[h.Index]++
	p.free = append(p.free, h.Index)
	return true
}

// Valid reports whether the handle refers to a live slot
func (p *HandlePool) Valid(h spatial.Handle) bool {
	if int(h.Index) >= len(p.generations) {
		return false
	}
	return p.generations[h.Index] == h.Generation
}

// Live returns the number of allocated slots
func (p *HandlePool) Live() int {
	return len(p.generations) - len(p.free)
}
