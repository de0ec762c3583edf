package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/strider/body"
	"github.com/pthm-cable/strider/game"
)

// Inspector shows the segment state of one walker. With nothing selected
// it follows the leader.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
	selected int // -1 = leader
}

// NewInspector creates an inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		selected: -1,
	}
}

// SetPosition updates the panel position.
func (in *Inspector) SetPosition(x, y int32) {
	in.x = x
	in.y = y
}

// Select pins agent id; a negative id returns to following the leader.
func (in *Inspector) Select(id int) {
	in.selected = id
}

// Selected returns the pinned agent ID, or -1.
func (in *Inspector) Selected() int {
	return in.selected
}

// target resolves the agent to show.
func (in *Inspector) target(s *game.Snapshot) (game.AgentView, bool) {
	if in.selected >= 0 && in.selected < len(s.Agents) {
		return s.Agents[in.selected], true
	}
	return s.Leader()
}

// Draw renders the panel.
func (in *Inspector) Draw(s *game.Snapshot) {
	a, ok := in.target(s)
	if !ok {
		return
	}
	r := in.renderer
	lines := int32(len(a.Segments) + 2)
	r.DrawPanel(in.x, in.y, in.width, lines*r.Theme.LineHeight+r.Theme.Padding*2)

	x := in.x + r.Theme.Padding
	y := in.y + r.Theme.Padding

	title := fmt.Sprintf("Walker #%d", a.ID)
	if s.IsLeader(a.ID) {
		title += " (leader)"
	}
	y = r.DrawSectionHeader(x, y, title)
	y = r.DrawLabelValue(x, y, "Fitness", fmt.Sprintf("%.2f", a.Fitness))
	for i, seg := range a.Segments {
		name := fmt.Sprintf("segment %d", i)
		if i < len(body.SegmentSpecs) {
			name = body.SegmentSpecs[i].Name
		}
		y = r.DrawLabelValue(x, y, name,
			fmt.Sprintf("(%6.1f, %6.1f) %5.1f°", seg.X, seg.Y, seg.Angle*180/math.Pi))
	}
}

// PickAgent returns the agent whose segment contains world point (wx, wy).
// Later agents win, matching draw order.
func PickAgent(s *game.Snapshot, wx, wy float64) (int, bool) {
	for i := len(s.Agents) - 1; i >= 0; i-- {
		for _, seg := range s.Agents[i].Segments {
			if segmentContains(seg, wx, wy) {
				return s.Owner(seg.ShapeID)
			}
		}
	}
	return -1, false
}

// segmentContains tests a point against a rotated segment box.
func segmentContains(seg body.SegmentState, wx, wy float64) bool {
	dx, dy := wx-seg.X, wy-seg.Y
	sin, cos := math.Sincos(-seg.Angle)
	lx := dx*cos - dy*sin
	ly := dx*sin + dy*cos
	return math.Abs(lx) <= seg.Width/2 && math.Abs(ly) <= seg.Height/2
}

// drawSelection outlines the inspected walker.
func (in *Inspector) drawSelection(s *game.Snapshot, toScreen func(x, y float64) rl.Vector2, zoom float32) {
	if in.selected < 0 || in.selected >= len(s.Agents) {
		return
	}
	for _, seg := range s.Agents[in.selected].Segments {
		p := toScreen(seg.X, seg.Y)
		w := float32(seg.Width)*zoom + 6
		h := float32(seg.Height)*zoom + 6
		in.renderer.DrawBox(p.X, p.Y, w, h, float32(seg.Angle), rl.Color{}, rl.Gold)
	}
}
