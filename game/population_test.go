package game

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/pthm-cable/strider/body"
	"github.com/pthm-cable/strider/config"
	"github.com/pthm-cable/strider/neural"
	"github.com/pthm-cable/strider/physics"
)

func testControllers(t *testing.T, n int) []*neural.Controller {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	out := make([]*neural.Controller, n)
	for i := range out {
		c, err := neural.New(rng, body.ObservationLen, 8, body.NumMotors)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = c
	}
	return out
}

func TestBuildPopulation(t *testing.T) {
	cfg := config.Default()
	w := physics.NewWorld(cfg.Physics.Gravity, cfg.Derived.GroundY)

	p, err := buildPopulation(w, cfg, testControllers(t, 3))
	if err != nil {
		t.Fatal(err)
	}

	if p.Len() != 3 {
		t.Fatalf("Len = %d, want 3", p.Len())
	}
	for i, a := range p.Agents() {
		if a.ID != i {
			t.Errorf("agent %d has ID %d", i, a.ID)
		}
		for _, id := range a.Body.ShapeIDs() {
			if owner, ok := p.Owner(id); !ok || owner != i {
				t.Errorf("shape %d owner = %d, %v; want %d", id, owner, ok, i)
			}
		}
	}
	if _, ok := p.Agent(3); ok {
		t.Error("Agent(3) found in a population of 3")
	}

	p.Destroy()
	bodies, shapes, constraints := w.Counts()
	if bodies != 0 || shapes != 0 || constraints != 0 {
		t.Errorf("after Destroy: counts = (%d, %d, %d), want zeros", bodies, shapes, constraints)
	}
}

func TestBuildPopulationFailureCleansUp(t *testing.T) {
	cfg := config.Default()
	w := physics.NewWorld(cfg.Physics.Gravity, cfg.Derived.GroundY)
	cfg.Physics.MaxTorque = -1

	_, err := buildPopulation(w, cfg, testControllers(t, 2))
	if !errors.Is(err, ErrPopulationBuild) {
		t.Fatalf("err = %v, want ErrPopulationBuild", err)
	}
	bodies, shapes, constraints := w.Counts()
	if bodies != 0 || shapes != 0 || constraints != 0 {
		t.Errorf("failed build left (%d, %d, %d) in the world", bodies, shapes, constraints)
	}
}

func TestRankAndLeader(t *testing.T) {
	cfg := config.Default()
	w := physics.NewWorld(cfg.Physics.Gravity, cfg.Derived.GroundY)
	p, err := buildPopulation(w, cfg, testControllers(t, 4))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	// Every walker starts at the spawn point, so all fitnesses tie.
	ranked := p.Rank()
	for i, a := range ranked {
		if a.ID != i {
			t.Errorf("tied rank %d = agent %d, want ID order", i, a.ID)
		}
	}
	if l := p.Leader(); l == nil || l.ID != 0 {
		t.Errorf("tied leader = %v, want agent 0", l)
	}

	// Drive agent 2 so the fitnesses diverge.
	for i := 0; i < 30; i++ {
		p.agents[2].Body.Act([]float64{1, -1, 1, -1}, cfg.Physics.MaxMotorVelocity)
		w.Step(cfg.Physics.Step)
	}
	fit := p.Fitnesses()
	best := 0
	for i, f := range fit {
		if f > fit[best] {
			best = i
		}
	}

	ranked = p.Rank()
	if ranked[0].ID != best {
		t.Errorf("rank[0] = %d, want %d (fitness %v)", ranked[0].ID, best, fit)
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i-1].Fitness() < ranked[i].Fitness() {
			t.Errorf("rank not descending at %d: %v", i, fit)
		}
	}
	if l := p.Leader(); l.ID != best {
		t.Errorf("leader = %d, want %d", l.ID, best)
	}

	champ := crown(5, ranked)
	if champ.Generation != 5 || champ.AgentID != best {
		t.Errorf("crown = %+v", champ)
	}
	c, err := neural.FromWeights(champ.Weights)
	if err != nil {
		t.Fatalf("champion weights invalid: %v", err)
	}
	if c.NumParams() != p.agents[best].Controller.NumParams() {
		t.Error("champion weights do not match the agent's controller")
	}
}

func TestSnapshotOwnersAndLeader(t *testing.T) {
	te := newTestEngine(t, 3, 60, Options{})
	s := te.Snapshot()

	for _, a := range s.Agents {
		if len(a.Segments) != body.NumSegments {
			t.Errorf("agent %d has %d segments", a.ID, len(a.Segments))
		}
		for _, seg := range a.Segments {
			if owner, ok := s.Owner(seg.ShapeID); !ok || owner != a.ID {
				t.Errorf("segment shape %d owner = %d, want %d", seg.ShapeID, owner, a.ID)
			}
		}
	}
	if !s.IsLeader(s.LeaderID) || s.IsLeader(-1) {
		t.Error("IsLeader inconsistent with LeaderID")
	}
	l, ok := s.Leader()
	if !ok || l.ID != s.LeaderID {
		t.Errorf("Leader() = %v, %v", l.ID, ok)
	}
	if s.TimeLeft != 60*time.Second {
		t.Errorf("TimeLeft = %v, want 60s", s.TimeLeft)
	}
}
