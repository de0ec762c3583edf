package game

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/strider/body"
	"github.com/pthm-cable/strider/config"
	"github.com/pthm-cable/strider/neural"
	"github.com/pthm-cable/strider/physics"
)

// ErrPopulationBuild wraps any failure to assemble a population.
var ErrPopulationBuild = errors.New("population build failed")

// Population is the ordered set of live agents plus a shape to agent side
// table for renderers.
type Population struct {
	agents []*Agent
	owners map[physics.ShapeID]int
}

// buildPopulation creates one agent per controller. On failure every body
// already added to the world is removed again.
func buildPopulation(w *physics.World, cfg config.Config, controllers []*neural.Controller) (*Population, error) {
	p := &Population{
		agents: make([]*Agent, 0, len(controllers)),
		owners: make(map[physics.ShapeID]int, len(controllers)*body.NumSegments),
	}
	for i, c := range controllers {
		b, err := body.New(w, i, cfg)
		if err != nil {
			p.Destroy()
			return nil, fmt.Errorf("%w: agent %d: %v", ErrPopulationBuild, i, err)
		}
		p.agents = append(p.agents, newAgent(i, b, c))
		for _, id := range b.ShapeIDs() {
			p.owners[id] = i
		}
	}
	return p, nil
}

// Len returns the number of agents.
func (p *Population) Len() int {
	return len(p.agents)
}

// Agents returns the agents in ID order. The slice must not be modified.
func (p *Population) Agents() []*Agent {
	return p.agents
}

// Agent returns the agent with the given ID.
func (p *Population) Agent(id int) (*Agent, bool) {
	if id < 0 || id >= len(p.agents) {
		return nil, false
	}
	return p.agents[id], true
}

// Owner returns the ID of the agent owning a shape.
func (p *Population) Owner(id physics.ShapeID) (int, bool) {
	a, ok := p.owners[id]
	return a, ok
}

// Fitnesses returns the current fitness of every agent in ID order.
func (p *Population) Fitnesses() []float64 {
	out := make([]float64, len(p.agents))
	for i, a := range p.agents {
		out[i] = a.Fitness()
	}
	return out
}

// ResetPoses returns every body to the spawn pose.
func (p *Population) ResetPoses() {
	for _, a := range p.agents {
		a.Body.ResetPose()
	}
}

// SetMaxTorque updates the motor force limit on every body.
func (p *Population) SetMaxTorque(f float64) {
	for _, a := range p.agents {
		a.Body.SetMaxTorque(f)
	}
}

// Destroy removes every body from the world and clears the side table.
func (p *Population) Destroy() {
	for _, a := range p.agents {
		a.Body.Destroy()
	}
	clear(p.owners)
}
