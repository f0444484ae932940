// pkg/sim/body.go
package sim

import (
	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-collider/pkg/geom"
	"github.com/opd-ai/go-collider/pkg/shape"
	"github.com/opd-ai/go-collider/pkg/spatial"
)

// BodySpec describes a body to spawn. Shape is given in local space
// around the body origin; the world keeps a translated copy current.
type BodySpec struct {
	Shape       shape.Shape
	Position    geom.Vector2D
	Velocity    geom.Vector2D
	Layer       spatial.Layer
	Mass        float64
	Restitution float64
	Friction    float64
	Static      bool
	Kinematic   bool
}

// Body is a pooled simulation entity. It satisfies both the spatial
// object view and the physical body view consumed by the collision
// pipeline.
type Body struct {
	ecs.BasicEntity

	handle       spatial.Handle
	position     geom.Vector2D
	prevPosition geom.Vector2D
	velocity     geom.Vector2D

	baseShape  shape.Shape
	worldShape shape.Shape

	layer       spatial.Layer
	invMass     float64
	restitution float64
	friction    float64
	static      bool
	kinematic   bool
	active      bool
}

func newBody(handle spatial.Handle, spec BodySpec) *Body {
	invMass := 0.0
	if !spec.Static && !spec.Kinematic && spec.Mass > 0 {
		invMass = 1 / spec.Mass
	}
	b := &Body{
		BasicEntity:  ecs.NewBasic(),
		handle:       handle,
		position:     spec.Position,
		prevPosition: spec.Position,
		velocity:     spec.Velocity,
		baseShape:    spec.Shape,
		layer:        spec.Layer,
		invMass:      invMass,
		restitution:  spec.Restitution,
		friction:     spec.Friction,
		static:       spec.Static,
		kinematic:    spec.Kinematic,
		active:       true,
	}
	if b.layer == spatial.LayerNone {
		b.layer = spatial.LayerDefault
	}
	b.worldShape = b.baseShape.Translated(b.position)
	return b
}

// Handle returns the body's pooled identity
func (b *Body) Handle() spatial.Handle { return b.handle }

// Position returns the current world position
func (b *Body) Position() geom.Vector2D { return b.position }

// PreviousPosition returns the position at the prior tick
func (b *Body) PreviousPosition() geom.Vector2D { return b.prevPosition }

// Velocity returns the current velocity in units per second
func (b *Body) Velocity() geom.Vector2D { return b.velocity }

// Bounds returns the world-space bounding box of the body's shape
func (b *Body) Bounds() geom.AABB { return b.worldShape.Bounds() }

// BoundingRadius returns the radius of the enclosing circle
func (b *Body) BoundingRadius() float64 {
	_, radius := b.worldShape.BoundingCircle()
	return radius
}

// CollisionShape returns the world-space collision shape
func (b *Body) CollisionShape() shape.Shape { return b.worldShape }

// Layer returns the collision category bitmask
func (b *Body) Layer() spatial.Layer { return b.layer }

// IsStatic reports whether the body never moves
func (b *Body) IsStatic() bool { return b.static }

// IsActive reports whether the body is alive in its world
func (b *Body) IsActive() bool { return b.active }

// InverseMass returns 1/mass, or zero for static and kinematic bodies
func (b *Body) InverseMass() float64 { return b.invMass }

// Restitution returns the bounciness coefficient
func (b *Body) Restitution() float64 { return b.restitution }

// Friction returns the surface friction coefficient
func (b *Body) Friction() float64 { return b.friction }

// IsKinematic reports whether the body moves but ignores impulses
func (b *Body) IsKinematic() bool { return b.kinematic }

// ApplyImpulse changes velocity by impulse scaled by inverse mass
func (b *Body) ApplyImpulse(impulse geom.Vector2D) {
	if b.invMass == 0 {
		return
	}
	b.velocity = b.velocity.Add(impulse.Scale(b.invMass))
}

// Translate moves the body without affecting velocity, used by
// penetration correction.
func (b *Body) Translate(delta geom.Vector2D) {
	if b.static {
		return
	}
	b.position = b.position.Add(delta)
	b.worldShape = b.baseShape.Translated(b.position)
}

// SetPosition teleports the body
func (b *Body) SetPosition(p geom.Vector2D) {
	b.position = p
	b.prevPosition = p
	b.worldShape = b.baseShape.Translated(b.position)
}

// SetVelocity replaces the body's velocity
func (b *Body) SetVelocity(v geom.Vector2D) {
	b.velocity = v
}

// Integrate advances the body by one time step
func (b *Body) Integrate(dt float64) {
	if b.static {
		return
	}
	b.prevPosition = b.position
	b.position = b.position.Add(b.velocity.Scale(dt))
	b.worldShape = b.baseShape.Translated(b.position)
}
