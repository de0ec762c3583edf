package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID names a toggleable view layer.
type OverlayID string

const (
	OverlayTransparency  OverlayID = "transparency"
	OverlayFollowLeader  OverlayID = "follow_leader"
	OverlayFitnessLabels OverlayID = "fitness_labels"
	OverlayStartLine     OverlayID = "start_line"
)

// Overlay is one toggle with its key binding.
type Overlay struct {
	ID       OverlayID
	Name     string
	Key      int32
	KeyLabel string
	On       bool
}

// OverlayGroup is a titled section of the help panel.
type OverlayGroup struct {
	Title    string
	Overlays []*Overlay
}

// Overlays holds every view toggle, grouped for display. All start off.
type Overlays struct {
	groups []OverlayGroup
}

// NewOverlays returns the viewer's toggles.
func NewOverlays() *Overlays {
	return &Overlays{groups: []OverlayGroup{
		{Title: "Visual", Overlays: []*Overlay{
			{ID: OverlayTransparency, Name: "Transparency", Key: rl.KeyT, KeyLabel: "T"},
			{ID: OverlayFitnessLabels, Name: "Fitness Labels", Key: rl.KeyN, KeyLabel: "N"},
			{ID: OverlayStartLine, Name: "Start Line", Key: rl.KeyG, KeyLabel: "G"},
		}},
		{Title: "Camera", Overlays: []*Overlay{
			{ID: OverlayFollowLeader, Name: "Follow Leader", Key: rl.KeyF, KeyLabel: "F"},
		}},
	}}
}

func (o *Overlays) find(match func(*Overlay) bool) *Overlay {
	for _, g := range o.groups {
		for _, ov := range g.Overlays {
			if match(ov) {
				return ov
			}
		}
	}
	return nil
}

// On reports whether id is enabled. Unknown IDs are off.
func (o *Overlays) On(id OverlayID) bool {
	ov := o.find(func(ov *Overlay) bool { return ov.ID == id })
	return ov != nil && ov.On
}

// Set enables or disables id; unknown IDs are ignored.
func (o *Overlays) Set(id OverlayID, on bool) {
	if ov := o.find(func(ov *Overlay) bool { return ov.ID == id }); ov != nil {
		ov.On = on
	}
}

// HandleKey toggles the overlay bound to key, returning its ID and new
// state. ok is false when no overlay uses the key.
func (o *Overlays) HandleKey(key int32) (id OverlayID, on, ok bool) {
	ov := o.find(func(ov *Overlay) bool { return ov.Key == key })
	if ov == nil {
		return "", false, false
	}
	ov.On = !ov.On
	return ov.ID, ov.On, true
}

// Groups returns the sections in display order.
func (o *Overlays) Groups() []OverlayGroup {
	return o.groups
}

// Len returns the number of overlays.
func (o *Overlays) Len() int {
	n := 0
	for _, g := range o.groups {
		n += len(g.Overlays)
	}
	return n
}
