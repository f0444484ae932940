// pkg/spatial/object.go
package spatial

import (
	"github.com/opd-ai/go-collider/pkg/geom"
	"github.com/opd-ai/go-collider/pkg/shape"
)

// Object is the non-owning view of an external entity that the spatial
// structures index. Entities are allocated and recycled by an external pool;
// this package never owns their lifetime and treats IsActive() == false as
// an implicit deletion signal at every query boundary.
type Object interface {
	// Handle returns the stable generation-counted identity
	Handle() Handle
	// Position returns the current world position
	Position() geom.Vector2D
	// PreviousPosition returns the position at the prior tick
	PreviousPosition() geom.Vector2D
	// Velocity returns the current velocity in units per second
	Velocity() geom.Vector2D
	// Bounds returns the world-space bounding box
	Bounds() geom.AABB
	// BoundingRadius returns the radius of the enclosing circle
	BoundingRadius() float64
	// CollisionShape returns the world-space collision shape
	CollisionShape() shape.Shape
	// Layer returns the collision category bitmask
	Layer() Layer
	// IsStatic reports whether the object never moves
	IsStatic() bool
	// IsActive reports whether the owning entity is alive
	IsActive() bool
}

// Pair is an unordered candidate pair produced by the broad phase,
// canonicalized so A's handle key is less than B's.
type Pair struct {
	A Object
	B Object
}

// NewPair canonicalizes the pair ordering by handle key
func NewPair(a, b Object) Pair {
	if a.Handle().Key() > b.Handle().Key() {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Index is the contract shared by the broad-phase structures. All methods
// are single-threaded; callers must not mutate an index concurrently with
// queries.
type Index interface {
	// Insert adds the object to every cell or node its bounds overlap
	Insert(obj Object)
	// Remove detaches the object; reports whether it was present
	Remove(obj Object) bool
	// Update moves the object from its previous bounds to its current ones
	Update(obj Object, previous geom.AABB)
	// Query appends the active objects whose bounds intersect region to out
	Query(region geom.AABB, out []Object) []Object
	// Count returns the number of tracked objects
	Count() int
	// Clear removes all objects
	Clear()
}
