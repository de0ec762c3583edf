package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/strider/body"
	"github.com/pthm-cable/strider/camera"
	"github.com/pthm-cable/strider/game"
	"github.com/pthm-cable/strider/physics"
)

const (
	messageTTL  = 3 * time.Second
	legendText  = "[S] start  [Space] pause  [X] stop  [L] load  [T] transparency  [F] follow  [H] help"
	groundThick = 4
)

// Viewer renders engine snapshots and sends key presses to the engine as
// commands. It runs on the thread that owns the raylib window.
type Viewer struct {
	eng      *game.Engine
	renderer *Renderer
	cam      *camera.Camera
	hud      *HUD
	controls *ControlsPanel
	inspect  *Inspector
	overlays *Overlays
	bindings []Binding

	results      chan error
	message      string
	messageUntil time.Time
}

// NewViewer creates a viewer for a window of the given size.
func NewViewer(eng *game.Engine, width, height int32) *Viewer {
	v := &Viewer{
		eng:      eng,
		renderer: NewRenderer(),
		cam:      camera.New(float32(width), float32(height)),
		hud:      NewHUD(320),
		controls: NewControlsPanel(width-250, 10, 240),
		inspect:  NewInspector(10, 190, 320),
		overlays: NewOverlays(),
		bindings: DefaultBindings(),
		results:  make(chan error, 8),
	}
	return v
}

// Run draws frames until the window closes or ctx is cancelled.
func (v *Viewer) Run(ctx context.Context) {
	for !rl.WindowShouldClose() && ctx.Err() == nil {
		v.handleInput(ctx)
		v.Draw()
	}
}

func (v *Viewer) send(ctx context.Context, cmd game.Command) {
	go func() {
		err := v.eng.Do(ctx, cmd)
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		select {
		case v.results <- err:
		default:
		}
	}()
}

func (v *Viewer) flash(msg string) {
	v.message = msg
	v.messageUntil = time.Now().Add(messageTTL)
}

func (v *Viewer) handleInput(ctx context.Context) {
	if rl.IsWindowResized() {
		w, h := rl.GetScreenWidth(), rl.GetScreenHeight()
		v.cam.Resize(float32(w), float32(h))
		v.controls.SetPosition(int32(w)-250, 10)
	}

	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		v.handleKey(ctx, key)
	}

	if rl.IsKeyDown(rl.KeyLeft) {
		v.cam.StepLeft()
	}
	if rl.IsKeyDown(rl.KeyRight) {
		v.cam.StepRight()
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.cam.StepUp()
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.cam.StepDown()
	}

	mouse := rl.GetMousePosition()
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		v.cam.AdjustSpeed(wheel)
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) {
		// Manual panning takes over from follow mode.
		v.overlays.Set(OverlayFollowLeader, false)
		v.cam.BeginDrag(mouse.X, mouse.Y)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		v.cam.DragTo(mouse.X, mouse.Y)
	}
	if rl.IsMouseButtonReleased(rl.MouseButtonRight) {
		v.cam.EndDrag()
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		wx, wy := v.cam.ScreenToWorld(mouse.X, mouse.Y)
		id, _ := PickAgent(v.eng.Snapshot(), float64(wx), float64(wy))
		v.inspect.Select(id)
	}

	for {
		select {
		case err := <-v.results:
			slog.Warn("command rejected", "error", err)
			v.flash(err.Error())
		default:
			return
		}
	}
}

func (v *Viewer) handleKey(ctx context.Context, key int32) {
	for _, b := range v.bindings {
		if b.Key == key {
			v.send(ctx, b.Command)
			return
		}
	}
	if id, on, ok := v.overlays.HandleKey(key); ok {
		slog.Debug("overlay toggled", "overlay", id, "enabled", on)
		return
	}
	switch key {
	case rl.KeyH:
		v.controls.Toggle()
	case rl.KeyR:
		v.cam.Reset()
	case rl.KeyEqual, rl.KeyKpAdd:
		v.cam.ZoomBy(1.25)
	case rl.KeyMinus, rl.KeyKpSubtract:
		v.cam.ZoomBy(0.8)
	}
}

func (v *Viewer) toScreen(x, y float64) rl.Vector2 {
	sx, sy := v.cam.WorldToScreen(float32(x), float32(y))
	return rl.NewVector2(sx, sy)
}

// Draw renders one frame from the latest snapshot.
func (v *Viewer) Draw() {
	s := v.eng.Snapshot()
	theme := v.renderer.Theme

	if v.overlays.On(OverlayFollowLeader) {
		if l, ok := s.Leader(); ok && len(l.Segments) > 0 {
			v.cam.Follow(float32(l.Segments[0].X))
		}
	}

	rl.BeginDrawing()
	rl.ClearBackground(theme.Background)

	rl.DrawLineEx(v.toScreen(physics.GroundLeft, s.GroundY), v.toScreen(physics.GroundRight, s.GroundY),
		groundThick*v.cam.Zoom, theme.Ground)
	if v.overlays.On(OverlayStartLine) {
		rl.DrawLineV(v.toScreen(body.SpawnX, s.GroundY), v.toScreen(body.SpawnX, 0), rl.Gray)
	}

	// Non-leaders first so the leader is drawn on top.
	for _, a := range s.Agents {
		if !s.IsLeader(a.ID) {
			v.drawAgent(s, a)
		}
	}
	if l, ok := s.Leader(); ok {
		v.drawAgent(s, l)
	}
	v.inspect.drawSelection(s, v.toScreen, v.cam.Zoom)

	data := NewHUDData(s, rl.GetFPS())
	if time.Now().Before(v.messageUntil) {
		data.Message = v.message
	}
	v.hud.Draw(data)
	v.inspect.Draw(s)
	v.controls.Draw(v.bindings, v.overlays)
	v.hud.DrawControls(int32(rl.GetScreenHeight()), legendText)

	rl.EndDrawing()
}

func (v *Viewer) drawAgent(s *game.Snapshot, a game.AgentView) {
	theme := v.renderer.Theme
	fill, outline := theme.Walker, theme.Outline
	if s.IsLeader(a.ID) {
		fill = theme.Leader
	} else if v.overlays.On(OverlayTransparency) {
		fill = rl.Fade(fill, theme.GhostAlpha)
		outline = rl.Fade(outline, theme.GhostAlpha)
	}

	zoom := v.cam.Zoom
	for _, seg := range a.Segments {
		p := v.toScreen(seg.X, seg.Y)
		v.renderer.DrawBox(p.X, p.Y, float32(seg.Width)*zoom, float32(seg.Height)*zoom, float32(seg.Angle), fill, outline)
	}

	if v.overlays.On(OverlayFitnessLabels) && len(a.Segments) > 0 {
		torso := a.Segments[0]
		p := v.toScreen(torso.X, torso.Y-torso.Height)
		rl.DrawText(fmt.Sprintf("%.0f", a.Fitness), int32(p.X)-10, int32(p.Y)-12, 10, outline)
	}
}
