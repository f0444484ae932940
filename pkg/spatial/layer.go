// pkg/spatial/layer.go
package spatial

import "math/bits"

// Layer is a bitmask collision category. An object carries one or more
// category bits; the LayerMatrix decides which categories may interact.
type Layer uint32

// Built-in categories. Games are free to define their own bits; these cover
// the routing heuristics this package knows about.
const (
	LayerNone      Layer = 0
	LayerDefault   Layer = 1 << 0
	LayerTerrain   Layer = 1 << 1
	LayerUnits     Layer = 1 << 2
	LayerBullets   Layer = 1 << 3
	LayerParticles Layer = 1 << 4
	LayerTriggers  Layer = 1 << 5

	LayerAll Layer = ^Layer(0)
)

// Contains reports whether any bit of other is set in l
func (l Layer) Contains(other Layer) bool {
	return l&other != 0
}

// LayerMatrix is a symmetric compatibility table declaring which layer
// pairs are eligible for narrow-phase testing. The zero matrix from
// NewLayerMatrix allows everything.
type LayerMatrix struct {
	masks [32]Layer
}

// NewLayerMatrix creates a matrix with every pair enabled
func NewLayerMatrix() *LayerMatrix {
	m := &LayerMatrix{}
	for i := range m.masks {
		m.masks[i] = LayerAll
	}
	return m
}

// Allow enables collision between every category bit of a and of b, in both
// directions.
func (m *LayerMatrix) Allow(a, b Layer) {
	m.set(a, b, true)
}

// Forbid disables collision between every category bit of a and of b, in
// both directions.
func (m *LayerMatrix) Forbid(a, b Layer) {
	m.set(a, b, false)
}

func (m *LayerMatrix) set(a, b Layer, allowed bool) {
	for ai := a; ai != 0; ai &= ai - 1 {
		i := bits.TrailingZeros32(uint32(ai))
		for bi := b; bi != 0; bi &= bi - 1 {
			j := bits.TrailingZeros32(uint32(bi))
			if allowed {
				m.masks[i] |= 1 << j
				m.masks[j] |= 1 << i
			} else {
				m.masks[i] &^= 1 << j
				m.masks[j] &^= 1 << i
			}
		}
	}
}

// CanCollide reports whether any category bit of a may collide with any
// category bit of b. Symmetric by construction.
func (m *LayerMatrix) CanCollide(a, b Layer) bool {
	for ai := a; ai != 0; ai &= ai - 1 {
		i := bits.TrailingZeros32(uint32(ai))
		if m.masks[i]&b != 0 {
			return true
		}
	}
	return false
}
