package game

import (
	"github.com/pthm-cable/strider/body"
	"github.com/pthm-cable/strider/neural"
)

// Agent pairs a walker body with the controller that drives it.
// The agent's ID is its index in the population.
type Agent struct {
	ID         int
	Body       *body.Body
	Controller *neural.Controller

	obs    []float64
	action []float64
}

func newAgent(id int, b *body.Body, c *neural.Controller) *Agent {
	return &Agent{
		ID:         id,
		Body:       b,
		Controller: c,
		obs:        make([]float64, 0, body.ObservationLen),
	}
}

// Step runs one observe, infer, act cycle.
func (a *Agent) Step(maxMotorVelocity float64) {
	a.observe()
	a.think()
	a.act(maxMotorVelocity)
}

// observe reads the body. It touches physics state, so it runs serially.
func (a *Agent) observe() {
	a.obs = a.Body.Observe(a.obs)
}

// think runs the controller on the last observation. It only touches the
// agent's own controller and buffers, so agents may think concurrently.
func (a *Agent) think() {
	action, err := a.Controller.Infer(a.obs)
	if err != nil {
		action = nil // motors idle
	}
	a.action = action
}

// act applies the last action to the motors.
func (a *Agent) act(maxMotorVelocity float64) {
	a.Body.Act(a.action, maxMotorVelocity)
}

// Fitness returns the torso displacement since the last reset.
func (a *Agent) Fitness() float64 {
	return a.Body.Fitness()
}
