package physics

import (
	"testing"

	"github.com/jakecoffman/cp"
)

func TestNewWorldHasOnlyGround(t *testing.T) {
	w := NewWorld(1000, 550)

	bodies, shapes, constraints := w.Counts()
	if bodies != 0 || shapes != 0 || constraints != 0 {
		t.Errorf("Counts() = (%d, %d, %d), want all zero", bodies, shapes, constraints)
	}
	if w.GroundY() != 550 {
		t.Errorf("GroundY() = %v, want 550", w.GroundY())
	}
}

func TestBoxFallsOntoGround(t *testing.T) {
	w := NewWorld(1000, 550)

	b := w.AddBody(cp.NewBody(1, cp.MomentForBox(1, 20, 20)))
	b.SetPosition(cp.Vector{X: 100, Y: 300})
	s := cp.NewBox(b, 20, 20, 0)
	s.SetFriction(1)
	s.SetFilter(cp.NewShapeFilter(1, AgentCategory, GroundCategory))
	w.AddShape(s)

	for i := 0; i < 600; i++ {
		w.Step(1.0 / 60)
	}

	if w.Steps() != 600 {
		t.Errorf("Steps() = %d, want 600", w.Steps())
	}
	y := b.Position().Y
	// Resting box center sits half its height plus the ground radius above the line.
	if y < 520 || y > 540 {
		t.Errorf("resting y = %v, want around %v", y, 550-GroundRadius-10)
	}
}

func TestAgentShapesDoNotCollideWithEachOther(t *testing.T) {
	w := NewWorld(0, 550)

	spawn := func(group uint, x float64) *cp.Body {
		b := w.AddBody(cp.NewBody(1, cp.MomentForBox(1, 20, 20)))
		b.SetPosition(cp.Vector{X: x, Y: 300})
		s := cp.NewBox(b, 20, 20, 0)
		s.SetFilter(cp.NewShapeFilter(group, AgentCategory, GroundCategory))
		w.AddShape(s)
		return b
	}
	a := spawn(1, 100)
	b := spawn(2, 105)

	for i := 0; i < 30; i++ {
		w.Step(1.0 / 60)
	}

	// Overlapping boxes from different agents are not pushed apart.
	if a.Position().X != 100 || b.Position().X != 105 {
		t.Errorf("boxes moved: a.x=%v b.x=%v", a.Position().X, b.Position().X)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	w := NewWorld(1000, 550)

	b := w.AddBody(cp.NewBody(1, cp.MomentForBox(1, 10, 10)))
	id := w.AddShape(cp.NewBox(b, 10, 10, 0))
	c := w.AddConstraint(cp.NewSimpleMotor(w.space.StaticBody, b, 0))

	for i := 0; i < 2; i++ {
		w.RemoveConstraint(c)
		w.RemoveShape(id)
		w.RemoveBody(b)
	}

	bodies, shapes, constraints := w.Counts()
	if bodies != 0 || shapes != 0 || constraints != 0 {
		t.Errorf("Counts() after removal = (%d, %d, %d), want all zero", bodies, shapes, constraints)
	}
}

func TestShapeIDsAreNotReused(t *testing.T) {
	w := NewWorld(1000, 550)
	b := w.AddBody(cp.NewBody(1, cp.MomentForBox(1, 10, 10)))

	first := w.AddShape(cp.NewBox(b, 10, 10, 0))
	w.RemoveShape(first)
	second := w.AddShape(cp.NewBox(b, 10, 10, 0))

	if first == second {
		t.Errorf("shape id %d reused after removal", first)
	}
}

func TestSetGravity(t *testing.T) {
	w := NewWorld(1000, 550)
	w.SetGravity(0)

	b := w.AddBody(cp.NewBody(1, cp.MomentForBox(1, 10, 10)))
	b.SetPosition(cp.Vector{X: 0, Y: 100})
	w.AddShape(cp.NewBox(b, 10, 10, 0))

	for i := 0; i < 60; i++ {
		w.Step(1.0 / 60)
	}
	if b.Position().Y != 100 {
		t.Errorf("y = %v with zero gravity, want 100", b.Position().Y)
	}
	if w.Gravity() != 0 {
		t.Errorf("Gravity() = %v, want 0", w.Gravity())
	}
}
