// Package camera provides a 2D camera for viewport control.
package camera

// Scene bounds the camera offset may not leave.
const (
	MinOffsetX = -5000
	MaxOffsetX = 5000
	MinOffsetY = -2000
	MaxOffsetY = 2000
)

// Pan speed limits in screen pixels per frame.
const (
	DefaultSpeed = 10
	MinSpeed     = 5
	MaxSpeed     = 20
)

// Camera is a translate-and-zoom viewport onto the world. X and Y are the
// world coordinates shown at the top-left of the screen at zoom 1.
type Camera struct {
	X, Y float32

	// Zoom level (1.0 = 1:1, 2.0 = 2x magnification), scaled about the
	// viewport center.
	Zoom             float32
	MinZoom, MaxZoom float32

	// Speed is the arrow-key pan step.
	Speed float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	dragging   bool
	dragStartX float32
	dragStartY float32
	dragOrigX  float32
	dragOrigY  float32
}

// New creates a camera at the origin with 1:1 zoom.
func New(viewportW, viewportH float32) *Camera {
	return &Camera{
		Zoom:      1.0,
		MinZoom:   0.25,
		MaxZoom:   4.0,
		Speed:     DefaultSpeed,
		ViewportW: viewportW,
		ViewportH: viewportH,
	}
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	cx, cy := c.center()
	sx = c.ViewportW/2 + (wx-cx)*c.Zoom
	sy = c.ViewportH/2 + (wy-cy)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	cx, cy := c.center()
	wx = cx + (sx-c.ViewportW/2)/c.Zoom
	wy = cy + (sy-c.ViewportH/2)/c.Zoom
	return wx, wy
}

// center is the world point under the viewport center.
func (c *Camera) center() (float32, float32) {
	return c.X + c.ViewportW/2, c.Y + c.ViewportH/2
}

// IsVisible returns true if a box centered at (wx, wy) with the given
// half-extent could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	minX, minY, maxX, maxY := c.VisibleWorldBounds()
	return wx+radius >= minX && wx-radius <= maxX &&
		wy+radius >= minY && wy-radius <= maxY
}

// Resize updates viewport dimensions, keeping the offset in bounds.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.clampOffset()
}

// Move shifts the camera by a world-space delta.
func (c *Camera) Move(dx, dy float32) {
	c.X += dx
	c.Y += dy
	c.clampOffset()
}

// SetPosition places the camera offset.
func (c *Camera) SetPosition(x, y float32) {
	c.X = x
	c.Y = y
	c.clampOffset()
}

// Follow centers the view horizontally on worldX.
func (c *Camera) Follow(worldX float32) {
	c.SetPosition(worldX-c.ViewportW/2, c.Y)
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	c.Move(dx/c.Zoom, dy/c.Zoom)
}

// StepLeft, StepRight, StepUp and StepDown pan one Speed step.
func (c *Camera) StepLeft()  { c.Pan(-c.Speed, 0) }
func (c *Camera) StepRight() { c.Pan(c.Speed, 0) }
func (c *Camera) StepUp()    { c.Pan(0, -c.Speed) }
func (c *Camera) StepDown()  { c.Pan(0, c.Speed) }

// AdjustSpeed changes the pan step by delta, clamped to [MinSpeed, MaxSpeed].
func (c *Camera) AdjustSpeed(delta float32) {
	c.Speed = clamp(c.Speed+delta, MinSpeed, MaxSpeed)
}

// BeginDrag starts a mouse drag at screen position (sx, sy).
func (c *Camera) BeginDrag(sx, sy float32) {
	c.dragging = true
	c.dragStartX, c.dragStartY = sx, sy
	c.dragOrigX, c.dragOrigY = c.X, c.Y
}

// DragTo moves the camera so the world follows the cursor.
func (c *Camera) DragTo(sx, sy float32) {
	if !c.dragging {
		return
	}
	c.SetPosition(
		c.dragOrigX-(sx-c.dragStartX)/c.Zoom,
		c.dragOrigY-(sy-c.dragStartY)/c.Zoom,
	)
}

// EndDrag finishes a drag.
func (c *Camera) EndDrag() {
	c.dragging = false
}

// Dragging reports whether a drag is in progress.
func (c *Camera) Dragging() bool {
	return c.dragging
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the origin at 1:1 zoom.
func (c *Camera) Reset() {
	c.X, c.Y = 0, 0
	c.Zoom = 1.0
	c.dragging = false
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	cx, cy := c.center()
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	return cx - halfW, cy - halfH, cx + halfW, cy + halfH
}

func (c *Camera) clampOffset() {
	c.X = clamp(c.X, MinOffsetX, MaxOffsetX)
	c.Y = clamp(c.Y, MinOffsetY, MaxOffsetY)
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
