package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/strider/game"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Generation    int
	State         game.State
	AvgFitness    float64
	LeaderFitness float64
	HaveLeader    bool
	Champion      *game.Champion
	TimerStarted  bool
	TimeLeft      time.Duration
	IterationTime time.Duration
	FPS           int32
	Message       string
}

// NewHUDData extracts the HUD fields from a snapshot.
func NewHUDData(s *game.Snapshot, fps int32) HUDData {
	d := HUDData{
		Generation:    s.Generation,
		State:         s.State,
		AvgFitness:    s.AvgFitness,
		Champion:      s.Champion,
		TimerStarted:  s.TimerStarted,
		TimeLeft:      s.TimeLeft,
		IterationTime: s.Config.Derived.IterationTime,
		FPS:           fps,
	}
	if l, ok := s.Leader(); ok {
		d.LeaderFitness = l.Fitness
		d.HaveLeader = true
	}
	return d
}

// TimerText is the countdown line.
func (d HUDData) TimerText() string {
	if !d.TimerStarted {
		return "Timer: Waiting to Start"
	}
	return fmt.Sprintf("Iteration Time Left: %.1fs", d.TimeLeft.Seconds())
}

// Progress is the fraction of the generation already elapsed.
func (d HUDData) Progress() float32 {
	if !d.TimerStarted || d.IterationTime <= 0 {
		return 0
	}
	return 1 - float32(d.TimeLeft.Seconds()/d.IterationTime.Seconds())
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
	width    int32
}

// NewHUD creates a new HUD renderer.
func NewHUD(width int32) *HUD {
	return &HUD{
		renderer: NewRenderer(),
		width:    width,
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer
	x := r.Theme.Padding
	lines := int32(6)
	if data.Message != "" {
		lines++
	}
	r.DrawPanel(x, x, h.width, lines*r.Theme.LineHeight+r.Theme.Padding*2)

	x += r.Theme.Padding
	y := x
	y = r.DrawLabelValue(x, y, "Generation", fmt.Sprintf("%d (%s)", data.Generation, data.State))
	y = r.DrawLabelValue(x, y, "Average Fitness", fmt.Sprintf("%.2f", data.AvgFitness))

	leader := "-"
	if data.HaveLeader {
		leader = fmt.Sprintf("%.2f", data.LeaderFitness)
	}
	y = r.DrawLabelValue(x, y, "Leader", leader)

	champ := "-"
	if data.Champion != nil {
		champ = fmt.Sprintf("%.2f (gen %d, #%d)", data.Champion.Fitness, data.Champion.Generation, data.Champion.AgentID)
	}
	y = r.DrawLabelValue(x, y, "Last Champion", champ)

	rl.DrawText(data.TimerText(), x, y, r.Theme.FontSize, r.Theme.ValueColor)
	y += r.Theme.LineHeight
	y = r.DrawBar(x, y, fmt.Sprintf("FPS %d", data.FPS), data.Progress(), h.width-r.Theme.Padding*2)

	if data.Message != "" {
		rl.DrawText(data.Message, x, y, r.Theme.FontSize, rl.Orange)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}
