// Package light models a single virtual projector of the console.
package light

import "github.com/dokzlo13/dmxconsole/internal/color"

// Bounds is the inclusive intensity range every light clamps to.
type Bounds struct {
	Min int
	Max int
}

// DefaultBounds is the [0,100] percentage range.
var DefaultBounds = Bounds{Min: 0, Max: 100}

// Clamp returns v limited to [Min, Max].
func (b Bounds) Clamp(v int) int {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// State is the persisted part of a light.
type State struct {
	Color     color.RGB `json:"color"`
	IsOn      bool      `json:"is_on"`
	Intensity int       `json:"intensity"`
}

// Light is one projector. The display color is owned by the effect engine and is
// never persisted; it always derives from the base color and the active effects.
type Light struct {
	id        int
	bounds    Bounds
	on        bool
	base      color.RGB
	display   color.RGB
	intensity int
}

// New creates a light that starts off with the given color and intensity.
func New(id int, bounds Bounds, c color.RGB, intensity int) *Light {
	return &Light{
		id:        id,
		bounds:    bounds,
		base:      c,
		display:   c,
		intensity: bounds.Clamp(intensity),
	}
}

// ID returns the stable index of the light.
func (l *Light) ID() int { return l.id }

// IsOn reports whether the light is switched on.
func (l *Light) IsOn() bool { return l.on }

// BaseColor returns the programmed color.
func (l *Light) BaseColor() color.RGB { return l.base }

// Display returns the color computed by the last effect tick.
func (l *Light) Display() color.RGB { return l.display }

// Intensity returns the current clamped intensity.
func (l *Light) Intensity() int { return l.intensity }

// Bounds returns the intensity range of the light.
func (l *Light) Bounds() Bounds { return l.bounds }

// SetColor programs a new base color. The display follows immediately.
func (l *Light) SetColor(c color.RGB) {
	l.base = c
	l.display = c
}

// SetDisplay is used by the effect engine to publish the resolved color.
func (l *Light) SetDisplay(c color.RGB) {
	l.display = c
}

// ResetDisplay drops any effect-driven color and shows the base color again.
func (l *Light) ResetDisplay() {
	l.display = l.base
}

// SetIntensity stores v clamped to the light's bounds.
func (l *Light) SetIntensity(v int) {
	l.intensity = l.bounds.Clamp(v)
}

func (l *Light) TurnOn()  { l.on = true }
func (l *Light) TurnOff() { l.on = false }
func (l *Light) Toggle()  { l.on = !l.on }

// DimmedColor applies intensity to the display color. A light that is off or at
// minimum intensity is dark.
func (l *Light) DimmedColor() color.RGB {
	if !l.on || l.intensity == l.bounds.Min {
		return color.Off
	}
	return l.display.Scale(l.intensity, l.bounds.Max)
}

// State returns a snapshot for scene storage.
func (l *Light) State() State {
	return State{
		Color:     l.base,
		IsOn:      l.on,
		Intensity: l.intensity,
	}
}

// SetState restores a snapshot; intensity is re-clamped.
func (l *Light) SetState(s State) {
	l.base = s.Color
	l.display = s.Color
	l.on = s.IsOn
	l.SetIntensity(s.Intensity)
}
