package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawBar draws a progress bar for [0, 1] values.
func (r *Renderer) DrawBar(x, y int32, label string, value float32, width int32) int32 {
	value = float32(math.Max(0, math.Min(1, float64(value))))

	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)
	rl.DrawRectangle(barX, y+2, int32(float32(barWidth)*value), r.Theme.BarHeight, r.Theme.BarFill)
	rl.DrawText(fmt.Sprintf("%3.0f%%", value*100), barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}

// DrawBox draws a w x h box centered at (cx, cy), rotated by angle
// radians, with an outline.
func (r *Renderer) DrawBox(cx, cy, w, h, angle float32, fill, outline rl.Color) {
	rl.DrawRectanglePro(
		rl.NewRectangle(cx, cy, w, h),
		rl.NewVector2(w/2, h/2),
		angle*180/math.Pi,
		fill,
	)

	sin, cos := math.Sincos(float64(angle))
	s, c := float32(sin), float32(cos)
	hw, hh := w/2, h/2
	corners := [4]rl.Vector2{}
	for i, d := range [4][2]float32{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}} {
		corners[i] = rl.NewVector2(cx+d[0]*c-d[1]*s, cy+d[0]*s+d[1]*c)
	}
	for i := range corners {
		rl.DrawLineEx(corners[i], corners[(i+1)%4], 1, outline)
	}
}
