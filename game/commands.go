package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/strider/config"
)

const commandQueueSize = 16

// ErrQueueFull is returned by Do when the command queue has no room.
var ErrQueueFull = errors.New("command queue full")

// Command is a control request applied by the engine's owner goroutine
// between ticks.
type Command interface {
	apply(e *Engine) error
}

type (
	// StartCmd starts evaluation, or resumes from Paused.
	StartCmd struct{}
	// PauseCmd pauses a running engine.
	PauseCmd struct{}
	// ResumeCmd resumes a paused engine.
	ResumeCmd struct{}
	// TogglePauseCmd flips between Running and Paused.
	TogglePauseCmd struct{}
	// StopCmd resets to Idle with a fresh population.
	StopCmd struct{}
	// LoadCmd loads a checkpoint file.
	LoadCmd struct{ Path string }
	// LoadLatestCmd loads the highest-numbered checkpoint in the store.
	LoadLatestCmd struct{}
	// UpdateConfigCmd replaces the live configuration.
	UpdateConfigCmd struct{ Config config.Config }
)

func (StartCmd) apply(e *Engine) error       { return e.Start() }
func (PauseCmd) apply(e *Engine) error       { return e.Pause() }
func (ResumeCmd) apply(e *Engine) error      { return e.Resume() }
func (TogglePauseCmd) apply(e *Engine) error { return e.TogglePause() }
func (StopCmd) apply(e *Engine) error        { return e.Stop() }
func (c LoadCmd) apply(e *Engine) error      { return e.Load(c.Path) }
func (LoadLatestCmd) apply(e *Engine) error  { return e.LoadLatest() }
func (c UpdateConfigCmd) apply(e *Engine) error {
	return e.UpdateConfig(c.Config)
}

type request struct {
	cmd   Command
	reply chan error // nil for fire-and-forget
}

// LoadLatest loads the newest checkpoint in the engine's store.
func (e *Engine) LoadLatest() error {
	entry, err := e.store.Latest()
	if err != nil {
		return err
	}
	return e.Load(entry.Path)
}

// Post queues cmd without waiting for it. It returns false when the queue
// is full. Errors from the command are logged.
func (e *Engine) Post(cmd Command) bool {
	select {
	case e.cmds <- request{cmd: cmd}:
		return true
	default:
		slog.Warn("command dropped", "command", fmt.Sprintf("%T", cmd))
		return false
	}
}

// Do queues cmd and waits until Run has applied it.
func (e *Engine) Do(ctx context.Context, cmd Command) error {
	req := request{cmd: cmd, reply: make(chan error, 1)}
	select {
	case e.cmds <- req:
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) handle(req request) {
	err := req.cmd.apply(e)
	e.publish()
	if req.reply != nil {
		req.reply <- err
	} else if err != nil {
		slog.Warn("command failed", "command", fmt.Sprintf("%T", req.cmd), "error", err)
	}
}

// drain applies every queued command without blocking.
func (e *Engine) drain() {
	for {
		select {
		case req := <-e.cmds:
			e.handle(req)
		default:
			return
		}
	}
}

// Run drives the engine on a ticker at the configured tick interval until
// ctx is cancelled or MaxGenerations transitions complete. Commands are
// applied between ticks. A rebuild failure during a transition is returned.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.Derived.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-e.cmds:
			e.handle(req)
		case <-ticker.C:
			if err := e.Tick(); err != nil {
				e.publish()
				return err
			}
			e.publish()
			if e.Finished() {
				return nil
			}
		}
	}
}

// RunFast steps the engine back to back with no ticker. The engine's clock
// must be a *ManualClock; it is advanced by one physics step per tick so
// generation time tracks simulated time. The engine is started if Idle.
func (e *Engine) RunFast(ctx context.Context, clock *ManualClock) error {
	if e.state == Idle {
		if err := e.Start(); err != nil {
			return err
		}
	}
	for !e.Finished() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		e.drain()
		if e.state != Running {
			select {
			case <-ctx.Done():
				return nil
			case req := <-e.cmds:
				e.handle(req)
			}
			continue
		}
		clock.Advance(e.cfg.Derived.StepDuration)
		gen := e.generation
		if err := e.Tick(); err != nil {
			e.publish()
			return err
		}
		if e.generation != gen {
			e.publish()
		}
	}
	e.publish()
	return nil
}
