// Package ui draws the walker scene and its panels with raylib and turns
// key presses into engine commands.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// Theme holds UI styling constants.
type Theme struct {
	Background     rl.Color
	Ground         rl.Color
	Leader         rl.Color
	Walker         rl.Color
	Outline        rl.Color
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	BarFill        rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32

	// GhostAlpha is the opacity of non-leading walkers when transparency
	// is on.
	GhostAlpha float32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		Background:     rl.White,
		Ground:         rl.Color{R: 60, G: 60, B: 60, A: 255},
		Leader:         rl.Color{R: 0, G: 0, B: 255, A: 255},
		Walker:         rl.Color{R: 255, G: 0, B: 0, A: 255},
		Outline:        rl.Color{R: 20, G: 20, B: 20, A: 255},
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 220},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.White,
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:        rl.Color{R: 100, G: 150, B: 200, A: 255},
		Padding:        10,
		LineHeight:     18,
		LabelWidth:     110,
		BarHeight:      12,
		FontSize:       14,
		HeaderFontSize: 16,
		GhostAlpha:     0.25,
	}
}
