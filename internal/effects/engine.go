// Package effects implements the timed effect engine of the console.
//
// On every tick the engine advances the phase of each active effect exactly once and
// then resolves the display color of every light: the fade effect (if active) replaces
// the base color, and the active rhythm effect (chase, strobe or blink) decides whether
// the light shows that color or goes dark.
//
// The engine is not safe for concurrent use. All calls are expected to come from the
// single control goroutine that also drives Tick.
package effects

import (
	"github.com/dokzlo13/dmxconsole/internal/color"
	"github.com/dokzlo13/dmxconsole/internal/light"
)

// Config holds effect timings (in ticks) and the default fade colors.
type Config struct {
	BlinkSpeed  int
	StrobeSpeed int
	FadeSpeed   int
	ChaseSpeed  int
	FadeColors  [2]color.RGB
}

// DefaultConfig returns the stock console timings.
func DefaultConfig() Config {
	return Config{
		BlinkSpeed:  10,
		StrobeSpeed: 6,
		FadeSpeed:   200,
		ChaseSpeed:  5,
		FadeColors:  [2]color.RGB{{R: 0xff}, {B: 0xff}},
	}
}

// normalized replaces non-positive speeds with defaults so that every phase
// modulus is valid.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.BlinkSpeed <= 0 {
		c.BlinkSpeed = def.BlinkSpeed
	}
	if c.StrobeSpeed <= 0 {
		c.StrobeSpeed = def.StrobeSpeed
	}
	if c.FadeSpeed <= 0 {
		c.FadeSpeed = def.FadeSpeed
	}
	if c.ChaseSpeed <= 0 {
		c.ChaseSpeed = def.ChaseSpeed
	}
	return c
}

// Engine owns the effect flags and phase counters for a fixed set of lights.
type Engine struct {
	cfg    Config
	lights []*light.Light

	rhythm     Rhythm
	blinking   []bool // indexed by light position
	fadeActive bool
	fadeColors [2]color.RGB
	phases     Phases
}

// New creates an engine for lights. The slice is indexed by light id and must not
// change length afterwards.
func New(cfg Config, lights []*light.Light) *Engine {
	cfg = cfg.normalized()
	return &Engine{
		cfg:        cfg,
		lights:     lights,
		blinking:   make([]bool, len(lights)),
		fadeColors: cfg.FadeColors,
	}
}

// Config returns the timings the engine runs with.
func (e *Engine) Config() Config { return e.cfg }

// Rhythm returns the active group rhythm.
func (e *Engine) Rhythm() Rhythm { return e.rhythm }

// Phases returns the current phase counters.
func (e *Engine) Phases() Phases { return e.phases }

func (e *Engine) StrobeActive() bool   { return e.rhythm == RhythmStrobe }
func (e *Engine) ChaseActive() bool    { return e.rhythm == RhythmChase }
func (e *Engine) BlinkAllActive() bool { return e.rhythm == RhythmBlinkAll }
func (e *Engine) FadeActive() bool     { return e.fadeActive }

// Blinking reports whether light id has its individual blink enabled.
func (e *Engine) Blinking(id int) bool {
	return e.validID(id) && e.blinking[id]
}

// BlinkPhase returns the phase of light id's individual blink. Active blinks share
// the blink phase so that every blinking light flashes in sync.
func (e *Engine) BlinkPhase(id int) int {
	if !e.Blinking(id) {
		return 0
	}
	return e.phases.Blink
}

// FadeColors returns the pair the fade oscillates between.
func (e *Engine) FadeColors() [2]color.RGB { return e.fadeColors }

// SetFadeColors changes the fade endpoints. The fade phase is kept.
func (e *Engine) SetFadeColors(a, b color.RGB) {
	e.fadeColors = [2]color.RGB{a, b}
}

// ToggleStrobe switches the strobe and returns whether it is now active.
// Starting it stops every other rhythm effect, individual blinks included.
func (e *Engine) ToggleStrobe() bool {
	if e.rhythm == RhythmStrobe {
		e.rhythm = RhythmNone
		e.phases.Strobe = 0
		return false
	}
	e.stopRhythm()
	e.rhythm = RhythmStrobe
	return true
}

// ToggleChase switches the chase and returns whether it is now active.
// Starting it stops every other rhythm effect, individual blinks included.
func (e *Engine) ToggleChase() bool {
	if e.rhythm == RhythmChase {
		e.rhythm = RhythmNone
		e.phases.Chase = 0
		return false
	}
	e.stopRhythm()
	e.rhythm = RhythmChase
	return true
}

// ToggleBlinkAll switches the blink of every light and returns whether it is now
// active. Individual blinks survive in both directions.
func (e *Engine) ToggleBlinkAll() bool {
	if e.rhythm == RhythmBlinkAll {
		e.rhythm = RhythmNone
		if !e.anyBlinking() {
			e.phases.Blink = 0
		}
		return false
	}
	e.stopGroupRhythm()
	e.rhythm = RhythmBlinkAll
	e.phases.Blink = 0
	return true
}

// ToggleBlink switches the individual blink of light id and returns whether it is
// now active. Starting it stops strobe, chase and blink-all but leaves other
// individual blinks running. Unknown ids are ignored.
func (e *Engine) ToggleBlink(id int) bool {
	if !e.validID(id) {
		return false
	}

	if e.blinking[id] {
		e.blinking[id] = false
		if !e.blinkActive() {
			e.phases.Blink = 0
		}
		return false
	}

	wasBlinking := e.blinkActive()
	e.stopGroupRhythm()
	e.rhythm = RhythmNone
	e.blinking[id] = true
	if !wasBlinking {
		e.phases.Blink = 0
	}
	return true
}

// ToggleFade switches the fade and returns whether it is now active. Stopping it
// puts every light back on its base color right away.
func (e *Engine) ToggleFade() bool {
	e.phases.Fade = 0
	if e.fadeActive {
		e.fadeActive = false
		e.resetDisplays()
		return false
	}
	e.fadeActive = true
	return true
}

// StopAll returns every effect to idle and restores all base colors immediately.
func (e *Engine) StopAll() {
	e.stopRhythm()
	e.fadeActive = false
	e.phases = Phases{}
	e.resetDisplays()
}

// Tick advances the phases of the active effects once and recomputes the display
// color of every light.
func (e *Engine) Tick() {
	e.advance()

	var fadeColor color.RGB
	if e.fadeActive {
		fadeColor = color.Lerp(e.fadeColors[0], e.fadeColors[1], fadeProgress(e.phases.Fade, e.cfg.FadeSpeed))
	}

	for i, l := range e.lights {
		l.SetDisplay(e.resolve(i, l, fadeColor))
	}
}

func (e *Engine) advance() {
	if e.fadeActive {
		e.phases.Fade = (e.phases.Fade + 1) % e.cfg.FadeSpeed
	}

	switch {
	case e.rhythm == RhythmChase:
		if n := len(e.lights); n > 0 {
			e.phases.Chase = (e.phases.Chase + 1) % (e.cfg.ChaseSpeed * n)
		}
	case e.rhythm == RhythmStrobe:
		e.phases.Strobe = (e.phases.Strobe + 1) % e.cfg.StrobeSpeed
	case e.blinkActive():
		e.phases.Blink = (e.phases.Blink + 1) % e.cfg.BlinkSpeed
	}
}

// resolve is read-only with respect to engine state.
func (e *Engine) resolve(i int, l *light.Light, fadeColor color.RGB) color.RGB {
	if !l.IsOn() {
		return color.Off
	}

	c := l.BaseColor()
	if e.fadeActive {
		c = fadeColor
	}

	switch e.rhythm {
	case RhythmChase:
		if chaseIndex(e.phases.Chase, e.cfg.ChaseSpeed, len(e.lights)) != i {
			return color.Off
		}
	case RhythmStrobe:
		if !strobeOn(e.phases.Strobe, e.cfg.StrobeSpeed) {
			return color.Off
		}
	default:
		if (e.rhythm == RhythmBlinkAll || e.blinking[i]) && !blinkOn(e.phases.Blink, e.cfg.BlinkSpeed) {
			return color.Off
		}
	}
	return c
}

// stopRhythm stops every rhythm effect including all individual blinks.
func (e *Engine) stopRhythm() {
	e.rhythm = RhythmNone
	e.clearBlinks()
	e.phases.Strobe = 0
	e.phases.Chase = 0
	e.phases.Blink = 0
}

// stopGroupRhythm stops strobe and chase; blinks are left alone.
func (e *Engine) stopGroupRhythm() {
	switch e.rhythm {
	case RhythmStrobe, RhythmChase:
		e.rhythm = RhythmNone
	}
	e.phases.Strobe = 0
	e.phases.Chase = 0
}

func (e *Engine) blinkActive() bool {
	return e.rhythm == RhythmBlinkAll || e.anyBlinking()
}

func (e *Engine) anyBlinking() bool {
	for _, b := range e.blinking {
		if b {
			return true
		}
	}
	return false
}

func (e *Engine) resetDisplays() {
	for _, l := range e.lights {
		l.ResetDisplay()
	}
}

func (e *Engine) validID(id int) bool {
	return id >= 0 && id < len(e.blinking)
}
