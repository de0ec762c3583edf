package game

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/strider/body"
	"github.com/pthm-cable/strider/config"
	"github.com/pthm-cable/strider/neural"
)

// ErrArchMismatch reports seed weights that cannot drive the walker body.
var ErrArchMismatch = errors.New("controller does not match body observation/action size")

type seedMode int

const (
	seedFresh   seedMode = iota // newly initialized controllers
	seedMutated                 // clones of the seed, each mutated independently
	seedExact                   // unmutated clones of the seed
)

func (m seedMode) String() string {
	switch m {
	case seedFresh:
		return "fresh"
	case seedMutated:
		return "mutated"
	case seedExact:
		return "exact"
	}
	return "unknown"
}

// seed tells rebuild where the next population's controllers come from.
type seed struct {
	mode    seedMode
	weights neural.Weights
}

func freshSeed() seed { return seed{mode: seedFresh} }
func mutatedSeed(w neural.Weights) seed { return seed{mode: seedMutated, weights: w} }
func exactSeed(w neural.Weights) seed { return seed{mode: seedExact, weights: w} }

// checkArch verifies that w can be loaded and matches the body.
func checkArch(w neural.Weights) (*neural.Controller, error) {
	c, err := neural.FromWeights(w)
	if err != nil {
		return nil, err
	}
	a := c.Arch()
	if a.Inputs != body.ObservationLen || a.Outputs != body.NumMotors {
		return nil, fmt.Errorf("%w: got %d-%d-%d, want %d-*-%d",
			ErrArchMismatch, a.Inputs, a.Hidden, a.Outputs, body.ObservationLen, body.NumMotors)
	}
	return c, nil
}

// controllers produces n controllers for s and reports how many parameters
// were mutated in total.
func (e *Engine) controllers(s seed, n int, cfg config.Config) ([]*neural.Controller, int, error) {
	out := make([]*neural.Controller, n)

	if s.mode == seedFresh {
		for i := range out {
			c, err := neural.New(e.rng, body.ObservationLen, cfg.Neural.HiddenSize, body.NumMotors)
			if err != nil {
				return nil, 0, err
			}
			out[i] = c
		}
		return out, 0, nil
	}

	parent, err := checkArch(s.weights)
	if err != nil {
		return nil, 0, err
	}
	mutated := 0
	for i := range out {
		out[i] = parent.Clone()
		if s.mode == seedMutated {
			mutated += out[i].Mutate(e.rng, cfg.Evolution.MutationRate)
		}
	}
	return out, mutated, nil
}

// rebuild replaces the population with batch_size new agents seeded from s
// and puts every body in the spawn pose. On failure the current population
// is left untouched.
func (e *Engine) rebuild(s seed, cfg config.Config) (int, error) {
	ctrls, mutated, err := e.controllers(s, cfg.Evolution.BatchSize, cfg)
	if err != nil {
		return 0, fmt.Errorf("%w: %s controllers: %w", ErrPopulationBuild, s.mode, err)
	}

	next, err := buildPopulation(e.world, cfg, ctrls)
	if err != nil {
		return 0, err
	}

	if e.pop != nil {
		e.pop.Destroy()
	}
	e.pop = next
	e.pop.ResetPoses()
	return mutated, nil
}
