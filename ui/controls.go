package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/strider/game"
)

// Binding maps a key to an engine command.
type Binding struct {
	Key      int32
	KeyLabel string
	Name     string
	Command  game.Command
}

// DefaultBindings returns the run-control keys.
func DefaultBindings() []Binding {
	return []Binding{
		{rl.KeyS, "S", "Start", game.StartCmd{}},
		{rl.KeySpace, "Space", "Pause / Resume", game.TogglePauseCmd{}},
		{rl.KeyX, "X", "Stop", game.StopCmd{}},
		{rl.KeyL, "L", "Load latest", game.LoadLatestCmd{}},
	}
}

// cameraHelp lists the camera keys, which are handled by the viewer itself.
var cameraHelp = [][2]string{
	{"Arrows", "Pan"},
	{"RMB drag", "Pan"},
	{"Wheel", "Pan speed"},
	{"+ / -", "Zoom"},
	{"R", "Reset camera"},
	{"H", "Toggle help"},
}

// ControlsPanel renders the key help with overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Draw renders the controls panel.
func (c *ControlsPanel) Draw(bindings []Binding, overlays *Overlays) {
	if !c.visible {
		return
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	groups := overlays.Groups()
	lines := len(bindings) + len(cameraHelp) + 3 + overlays.Len() + len(groups)
	r.DrawPanel(c.x, c.y, c.width, int32(lines)*lineHeight+padding*2)

	y := c.y + padding
	inner := c.width - padding*2

	y = r.DrawSectionHeader(c.x+padding, y, "Run")
	for _, b := range bindings {
		c.drawKey(c.x+padding, y, b.Name, b.KeyLabel, inner, r.Theme.LabelColor)
		y += lineHeight
	}

	y = r.DrawSectionHeader(c.x+padding, y, "View")
	for _, h := range cameraHelp {
		c.drawKey(c.x+padding, y, h[1], h[0], inner, r.Theme.LabelColor)
		y += lineHeight
	}

	for _, g := range groups {
		y = r.DrawSectionHeader(c.x+padding, y, g.Title)
		for _, ov := range g.Overlays {
			c.drawToggle(c.x+padding, y, ov, inner)
			y += lineHeight
		}
	}
}

// drawKey draws a name with its key right aligned.
func (c *ControlsPanel) drawKey(x, y int32, name, key string, width int32, col rl.Color) {
	fs := c.renderer.Theme.FontSize
	rl.DrawText(name, x+14, y, fs, col)
	keyText := fmt.Sprintf("[%s]", key)
	rl.DrawText(keyText, x+width-rl.MeasureText(keyText, fs), y, fs, rl.Color{R: 150, G: 150, B: 150, A: 255})
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, ov *Overlay, width int32) {
	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	nameColor := c.renderer.Theme.LabelColor
	if ov.On {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
		nameColor = rl.White
	}
	rl.DrawRectangle(x, y+3, 8, 8, statusColor)
	c.drawKey(x, y, ov.Name, ov.KeyLabel, width, nameColor)
}
