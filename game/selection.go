package game

import (
	"sort"

	"github.com/pthm-cable/strider/neural"
)

// Champion is the best agent of a completed generation. It holds a copy of
// the weights, so it stays valid after the agent itself is destroyed.
type Champion struct {
	Generation int
	AgentID    int
	Fitness    float64
	Weights    neural.Weights
}

// Rank returns the agents ordered by fitness, best first. Equal fitness
// keeps ID order.
func (p *Population) Rank() []*Agent {
	ranked := make([]*Agent, len(p.agents))
	copy(ranked, p.agents)
	fitness := make(map[int]float64, len(ranked))
	for _, a := range ranked {
		fitness[a.ID] = a.Fitness()
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return fitness[ranked[i].ID] > fitness[ranked[j].ID]
	})
	return ranked
}

// Leader returns the agent with the highest current fitness, lowest ID on
// ties, or nil for an empty population.
func (p *Population) Leader() *Agent {
	var best *Agent
	var bestFitness float64
	for _, a := range p.agents {
		f := a.Fitness()
		if best == nil || f > bestFitness {
			best, bestFitness = a, f
		}
	}
	return best
}

// crown snapshots the top-ranked agent.
func crown(generation int, ranked []*Agent) Champion {
	best := ranked[0]
	return Champion{
		Generation: generation,
		AgentID:    best.ID,
		Fitness:    best.Fitness(),
		Weights:    best.Controller.MarshalWeights(),
	}
}
