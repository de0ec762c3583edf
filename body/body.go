// Package body builds the five-segment walker and encodes its state.
package body

import (
	"errors"
	"fmt"
	"math"

	"github.com/jakecoffman/cp"

	"github.com/pthm-cable/strider/config"
	"github.com/pthm-cable/strider/physics"
)

// Spawn point of the torso center. Every agent starts here.
const (
	SpawnX = 100.0
	SpawnY = 300.0
)

// Per-segment observation scaling.
const (
	FeaturesPerSegment = 6
	velocityScale      = 500.0
	angularScale       = 10.0
	twoPi              = 2 * math.Pi
)

// Shape surface properties.
const (
	Friction   = 1.0
	Elasticity = 0.0
)

// SegmentSpec describes one rigid segment relative to the spawn point.
type SegmentSpec struct {
	Name          string
	Mass          float64
	Width, Height float64
	OffsetX       float64
	OffsetY       float64
}

// JointSpec pins two segments together and drives them with one motor.
type JointSpec struct {
	Name    string
	A, B    int // indices into SegmentSpecs
	AnchorA cp.Vector
	AnchorB cp.Vector
}

// SegmentSpecs lists the walker's parts in observation order.
var SegmentSpecs = [...]SegmentSpec{
	{Name: "torso", Mass: 5, Width: 40, Height: 60},
	{Name: "left_upper_leg", Mass: 2, Width: 15, Height: 40, OffsetX: -15, OffsetY: 50},
	{Name: "left_lower_leg", Mass: 1, Width: 10, Height: 30, OffsetX: -15, OffsetY: 85},
	{Name: "right_upper_leg", Mass: 2, Width: 15, Height: 40, OffsetX: 15, OffsetY: 50},
	{Name: "right_lower_leg", Mass: 1, Width: 10, Height: 30, OffsetX: 15, OffsetY: 85},
}

// JointSpecs lists the actuated joints in action order.
var JointSpecs = [...]JointSpec{
	{Name: "left_hip", A: 0, B: 1, AnchorA: cp.Vector{X: -15, Y: 30}, AnchorB: cp.Vector{X: 0, Y: -20}},
	{Name: "left_knee", A: 1, B: 2, AnchorA: cp.Vector{X: 0, Y: 20}, AnchorB: cp.Vector{X: 0, Y: -15}},
	{Name: "right_hip", A: 0, B: 3, AnchorA: cp.Vector{X: 15, Y: 30}, AnchorB: cp.Vector{X: 0, Y: -20}},
	{Name: "right_knee", A: 3, B: 4, AnchorA: cp.Vector{X: 0, Y: 20}, AnchorB: cp.Vector{X: 0, Y: -15}},
}

// Observation and action sizes.
const (
	NumSegments    = len(SegmentSpecs)
	NumMotors      = len(JointSpecs)
	ObservationLen = NumSegments * FeaturesPerSegment
)

// Construction errors.
var (
	ErrNegativeID    = errors.New("agent id must not be negative")
	ErrInvalidTorque = errors.New("max torque must be positive")
)

// Segment is one live rigid segment.
type Segment struct {
	Spec    SegmentSpec
	Body    *cp.Body
	Shape   *cp.Shape
	ShapeID physics.ShapeID
}

// SegmentState is a read-only view of a segment for renderers.
type SegmentState struct {
	ShapeID       physics.ShapeID
	X, Y          float64
	Angle         float64
	Width, Height float64
}

// Body is one walker's articulated body inside a physics.World.
type Body struct {
	world   *physics.World
	id      int
	screenW float64
	screenH float64

	segments []Segment
	joints   []*cp.Constraint
	motors   []*cp.Constraint

	startX    float64
	destroyed bool
}

// New builds a walker at the spawn pose. Segments of the same walker never
// collide with each other or with other walkers, only with the ground.
func New(w *physics.World, agentID int, cfg config.Config) (*Body, error) {
	if agentID < 0 {
		return nil, fmt.Errorf("body %d: %w", agentID, ErrNegativeID)
	}
	if cfg.Physics.MaxTorque <= 0 || math.IsNaN(cfg.Physics.MaxTorque) {
		return nil, fmt.Errorf("body %d: %w", agentID, ErrInvalidTorque)
	}

	b := &Body{
		world:    w,
		id:       agentID,
		screenW:  float64(cfg.Screen.Width),
		screenH:  float64(cfg.Screen.Height),
		segments: make([]Segment, 0, NumSegments),
		joints:   make([]*cp.Constraint, 0, NumMotors),
		motors:   make([]*cp.Constraint, 0, NumMotors),
	}

	filter := cp.NewShapeFilter(uint(agentID)+1, physics.AgentCategory, physics.GroundCategory)
	for _, spec := range SegmentSpecs {
		rb := w.AddBody(cp.NewBody(spec.Mass, cp.MomentForBox(spec.Mass, spec.Width, spec.Height)))
		rb.SetPosition(cp.Vector{X: SpawnX + spec.OffsetX, Y: SpawnY + spec.OffsetY})

		shape := cp.NewBox(rb, spec.Width, spec.Height, 0)
		shape.SetFriction(Friction)
		shape.SetElasticity(Elasticity)
		shape.SetFilter(filter)
		id := w.AddShape(shape)

		b.segments = append(b.segments, Segment{Spec: spec, Body: rb, Shape: shape, ShapeID: id})
	}

	for _, js := range JointSpecs {
		a, c := b.segments[js.A].Body, b.segments[js.B].Body
		b.joints = append(b.joints, w.AddConstraint(cp.NewPinJoint(a, c, js.AnchorA, js.AnchorB)))

		motor := cp.NewSimpleMotor(a, c, 0)
		motor.SetMaxForce(cfg.Physics.MaxTorque)
		b.motors = append(b.motors, w.AddConstraint(motor))
	}

	b.startX = b.segments[0].Body.Position().X
	return b, nil
}

// ID returns the owning agent's identifier.
func (b *Body) ID() int {
	return b.id
}

// Observe appends the observation vector to dst and returns it. Per segment,
// in order: x/width, y/height, vx/500, vy/500, angle/2pi wrapped to [0,1),
// angular velocity/10.
func (b *Body) Observe(dst []float64) []float64 {
	dst = dst[:0]
	for _, s := range b.segments {
		p := s.Body.Position()
		v := s.Body.Velocity()
		dst = append(dst,
			p.X/b.screenW,
			p.Y/b.screenH,
			v.X/velocityScale,
			v.Y/velocityScale,
			wrapAngle(s.Body.Angle())/twoPi,
			s.Body.AngularVelocity()/angularScale,
		)
	}
	return dst
}

// wrapAngle maps a to [0, 2pi).
func wrapAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	if a >= twoPi {
		a = 0
	}
	return a
}

// Act sets each motor's target relative angular velocity to
// action[i] * maxMotorVelocity. Components are clamped to [-1, 1] and
// non-finite values are treated as 0. Missing components leave the motor idle.
func (b *Body) Act(action []float64, maxMotorVelocity float64) {
	for i, m := range b.motors {
		var a float64
		if i < len(action) {
			a = clampUnit(action[i])
		}
		m.Class.(*cp.SimpleMotor).Rate = a * maxMotorVelocity
	}
}

func clampUnit(x float64) float64 {
	switch {
	case math.IsNaN(x), math.IsInf(x, 0):
		return 0
	case x > 1:
		return 1
	case x < -1:
		return -1
	}
	return x
}

// MotorRates returns the current motor rates in action order.
func (b *Body) MotorRates() []float64 {
	rates := make([]float64, len(b.motors))
	for i, m := range b.motors {
		rates[i] = m.Class.(*cp.SimpleMotor).Rate
	}
	return rates
}

// SetMaxTorque changes the force limit of all four motors.
func (b *Body) SetMaxTorque(f float64) {
	for _, m := range b.motors {
		m.SetMaxForce(f)
	}
}

// Fitness is the torso's horizontal displacement since the last reset.
func (b *Body) Fitness() float64 {
	return b.segments[0].Body.Position().X - b.startX
}

// TorsoPosition returns the torso center.
func (b *Body) TorsoPosition() (x, y float64) {
	p := b.segments[0].Body.Position()
	return p.X, p.Y
}

// ResetPose teleports every segment back to its spawn position with zero
// angle and velocity, and re-anchors the fitness origin.
func (b *Body) ResetPose() {
	for _, s := range b.segments {
		s.Body.SetAngle(0)
		s.Body.SetPosition(cp.Vector{X: SpawnX + s.Spec.OffsetX, Y: SpawnY + s.Spec.OffsetY})
		s.Body.SetVelocity(0, 0)
		s.Body.SetAngularVelocity(0)
	}
	for _, m := range b.motors {
		m.Class.(*cp.SimpleMotor).Rate = 0
	}
	b.startX = b.segments[0].Body.Position().X
}

// Destroy removes motors, joints, shapes and bodies from the world, in that
// order. Calling it again does nothing.
func (b *Body) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	for _, m := range b.motors {
		b.world.RemoveConstraint(m)
	}
	for _, j := range b.joints {
		b.world.RemoveConstraint(j)
	}
	for _, s := range b.segments {
		b.world.RemoveShape(s.ShapeID)
	}
	for _, s := range b.segments {
		b.world.RemoveBody(s.Body)
	}
}

// Destroyed reports whether Destroy has run.
func (b *Body) Destroyed() bool {
	return b.destroyed
}

// ShapeIDs returns the shape identifiers in segment order.
func (b *Body) ShapeIDs() []physics.ShapeID {
	ids := make([]physics.ShapeID, len(b.segments))
	for i, s := range b.segments {
		ids[i] = s.ShapeID
	}
	return ids
}

// Segments returns the current pose of every segment.
func (b *Body) Segments() []SegmentState {
	out := make([]SegmentState, len(b.segments))
	for i, s := range b.segments {
		p := s.Body.Position()
		out[i] = SegmentState{
			ShapeID: s.ShapeID,
			X:       p.X,
			Y:       p.Y,
			Angle:   s.Body.Angle(),
			Width:   s.Spec.Width,
			Height:  s.Spec.Height,
		}
	}
	return out
}
