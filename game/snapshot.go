package game

import (
	"time"

	"github.com/pthm-cable/strider/body"
	"github.com/pthm-cable/strider/config"
	"github.com/pthm-cable/strider/physics"
)

// AgentView is the render-side copy of one agent.
type AgentView struct {
	ID       int
	Fitness  float64
	Segments []body.SegmentState
}

// Snapshot is an immutable view of the engine published after every tick
// and command. Renderers read it without touching engine state.
type Snapshot struct {
	RunID      string
	Generation int
	State      State
	Ticks      int64

	// Generation timer. TimeLeft is only meaningful once TimerStarted.
	TimerStarted bool
	Elapsed      time.Duration
	TimeLeft     time.Duration

	Agents     []AgentView
	LeaderID   int // -1 with no agents
	AvgFitness float64
	Champion   *Champion // nil before the first completed generation

	GroundY float64
	Config  config.Config

	owners map[physics.ShapeID]int
}

// Owner returns the agent ID owning a shape.
func (s *Snapshot) Owner(id physics.ShapeID) (int, bool) {
	a, ok := s.owners[id]
	return a, ok
}

// IsLeader reports whether agentID currently has the highest fitness.
func (s *Snapshot) IsLeader(agentID int) bool {
	return s.LeaderID >= 0 && s.LeaderID == agentID
}

// Leader returns the leading agent's view.
func (s *Snapshot) Leader() (AgentView, bool) {
	if s.LeaderID < 0 || s.LeaderID >= len(s.Agents) {
		return AgentView{}, false
	}
	return s.Agents[s.LeaderID], true
}

// snapshot builds a Snapshot from the current engine state.
func (e *Engine) snapshot() *Snapshot {
	now := e.clock.Now()
	elapsed := e.elapsed(now)

	s := &Snapshot{
		RunID:        e.runID,
		Generation:   e.generation,
		State:        e.state,
		Ticks:        e.ticks,
		TimerStarted: e.state != Idle,
		Elapsed:      elapsed,
		TimeLeft:     max(0, e.cfg.Derived.IterationTime-elapsed),
		LeaderID:     -1,
		Champion:     e.champion,
		GroundY:      e.world.GroundY(),
		Config:       e.cfg,
		owners:       make(map[physics.ShapeID]int),
	}

	if e.pop == nil {
		return s
	}

	s.Agents = make([]AgentView, e.pop.Len())
	var total float64
	for i, a := range e.pop.Agents() {
		f := a.Fitness()
		total += f
		s.Agents[i] = AgentView{ID: a.ID, Fitness: f, Segments: a.Body.Segments()}
		for _, seg := range s.Agents[i].Segments {
			s.owners[seg.ShapeID] = a.ID
		}
	}
	if n := len(s.Agents); n > 0 {
		s.AvgFitness = total / float64(n)
	}
	if l := e.pop.Leader(); l != nil {
		s.LeaderID = l.ID
	}
	return s
}

func (e *Engine) publish() {
	e.snap.Store(e.snapshot())
}

// Snapshot returns the most recently published snapshot. It is safe to
// call from any goroutine.
func (e *Engine) Snapshot() *Snapshot {
	return e.snap.Load()
}
