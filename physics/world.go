// Package physics owns the rigid-body space every walker shares.
//
// The solver itself is chipmunk2d (github.com/jakecoffman/cp). World adds the
// ground line, the collision categories used by the walkers, and stable
// shape identifiers that other packages can key lookup tables on without
// attaching data to cp shapes.
package physics

import (
	"github.com/jakecoffman/cp"
)

// Collision categories.
const (
	GroundCategory uint = 0b01
	AgentCategory  uint = 0b10
)

// Ground line geometry.
const (
	GroundLeft     = -1000.0
	GroundRight    = 10000.0
	GroundRadius   = 5.0
	GroundFriction = 1.0
)

// ShapeID identifies a shape added through World.AddShape. IDs are never
// reused within a World.
type ShapeID uint64

// World is a single-writer rigid-body world. None of its methods may be
// called concurrently with each other.
type World struct {
	space   *cp.Space
	ground  *cp.Shape
	groundY float64
	gravity float64

	nextShapeID ShapeID
	shapes      map[ShapeID]*cp.Shape
	steps       int64
}

// NewWorld creates a space with downward gravity and a static ground line at
// groundY (screen coordinates, y grows downward).
func NewWorld(gravity, groundY float64) *World {
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{X: 0, Y: gravity})

	ground := cp.NewSegment(space.StaticBody, cp.Vector{X: GroundLeft, Y: groundY}, cp.Vector{X: GroundRight, Y: groundY}, GroundRadius)
	ground.SetFriction(GroundFriction)
	ground.SetElasticity(0)
	ground.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, GroundCategory, cp.ALL_CATEGORIES))
	space.AddShape(ground)

	return &World{
		space:       space,
		ground:      ground,
		groundY:     groundY,
		gravity:     gravity,
		nextShapeID: 1,
		shapes:      make(map[ShapeID]*cp.Shape),
	}
}

// GroundY returns the y coordinate of the ground line.
func (w *World) GroundY() float64 {
	return w.groundY
}

// Gravity returns the current downward acceleration.
func (w *World) Gravity() float64 {
	return w.gravity
}

// SetGravity changes the downward acceleration.
func (w *World) SetGravity(g float64) {
	if g == w.gravity {
		return
	}
	w.gravity = g
	w.space.SetGravity(cp.Vector{X: 0, Y: g})
}

// Step advances the world by dt seconds.
func (w *World) Step(dt float64) {
	w.space.Step(dt)
	w.steps++
}

// Steps returns the number of completed Step calls.
func (w *World) Steps() int64 {
	return w.steps
}

// AddBody adds a dynamic body.
func (w *World) AddBody(b *cp.Body) *cp.Body {
	return w.space.AddBody(b)
}

// AddShape adds a shape and returns its identifier.
func (w *World) AddShape(s *cp.Shape) ShapeID {
	w.space.AddShape(s)
	id := w.nextShapeID
	w.nextShapeID++
	w.shapes[id] = s
	return id
}

// AddConstraint adds a joint or motor.
func (w *World) AddConstraint(c *cp.Constraint) *cp.Constraint {
	return w.space.AddConstraint(c)
}

// RemoveConstraint detaches a constraint. Removing one that is not in the
// world is a no-op.
func (w *World) RemoveConstraint(c *cp.Constraint) {
	if c == nil || !w.space.ContainsConstraint(c) {
		return
	}
	w.space.RemoveConstraint(c)
}

// RemoveShape detaches a shape and forgets its identifier.
func (w *World) RemoveShape(id ShapeID) {
	s, ok := w.shapes[id]
	if !ok {
		return
	}
	delete(w.shapes, id)
	if w.space.ContainsShape(s) {
		w.space.RemoveShape(s)
	}
}

// RemoveBody detaches a body. Removing one that is not in the world is a
// no-op.
func (w *World) RemoveBody(b *cp.Body) {
	if b == nil || !w.space.ContainsBody(b) {
		return
	}
	w.space.RemoveBody(b)
}

// Counts reports how many dynamic bodies, agent shapes and constraints the
// world currently holds. The static ground is not counted.
func (w *World) Counts() (bodies, shapes, constraints int) {
	w.space.EachBody(func(b *cp.Body) {
		if b.GetType() == cp.BODY_DYNAMIC {
			bodies++
		}
	})
	w.space.EachConstraint(func(*cp.Constraint) {
		constraints++
	})
	return bodies, len(w.shapes), constraints
}
