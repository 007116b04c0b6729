package effects

import "github.com/dokzlo13/dmxconsole/internal/color"

// State is the persisted form of the engine. Phases are not part of it; a
// restored effect always starts from phase 0.
type State struct {
	StrobeActive     bool         `json:"strobe_active"`
	FadeActive       bool         `json:"fade_active"`
	ChaseActive      bool         `json:"chaser_active"`
	BlinkAllActive   bool         `json:"blink_all_active"`
	IndividualBlinks map[int]bool `json:"individual_blinks_active"`
	FadeColors       []color.RGB  `json:"fade_colors,omitempty"`
}

// Status is the presentation view of which effects are running.
type Status struct {
	Rhythm   Rhythm
	Fade     bool
	Blinking []int
}

// State captures the effect flags and fade colors.
func (e *Engine) State() State {
	blinks := make(map[int]bool, len(e.blinking))
	for i, b := range e.blinking {
		blinks[i] = b
	}

	return State{
		StrobeActive:     e.rhythm == RhythmStrobe,
		FadeActive:       e.fadeActive,
		ChaseActive:      e.rhythm == RhythmChase,
		BlinkAllActive:   e.rhythm == RhythmBlinkAll,
		IndividualBlinks: blinks,
		FadeColors:       []color.RGB{e.fadeColors[0], e.fadeColors[1]},
	}
}

// SetState stops every effect and re-activates the flagged ones directly, without
// going through the toggles, in the order: individual blinks, blink-all, strobe,
// chase, fade. A later group rhythm replaces an earlier one, so a snapshot that
// flags several of them resolves the same way Tick would prioritise them
// (chase over strobe over blink). Blink ids outside the light range are ignored.
// Fade colors are kept when the snapshot does not carry exactly two.
func (e *Engine) SetState(s State) {
	e.StopAll()

	if len(s.FadeColors) == 2 {
		e.fadeColors = [2]color.RGB{s.FadeColors[0], s.FadeColors[1]}
	}

	for id, on := range s.IndividualBlinks {
		if on && e.validID(id) {
			e.blinking[id] = true
		}
	}
	if s.BlinkAllActive {
		e.rhythm = RhythmBlinkAll
	}
	if s.StrobeActive {
		e.rhythm = RhythmStrobe
		e.clearBlinks()
	}
	if s.ChaseActive {
		e.rhythm = RhythmChase
		e.clearBlinks()
	}
	if s.FadeActive {
		e.fadeActive = true
	}
}

// Status returns the running effects.
func (e *Engine) Status() Status {
	var blinking []int
	for i, b := range e.blinking {
		if b {
			blinking = append(blinking, i)
		}
	}
	return Status{
		Rhythm:   e.rhythm,
		Fade:     e.fadeActive,
		Blinking: blinking,
	}
}

func (e *Engine) clearBlinks() {
	for i := range e.blinking {
		e.blinking[i] = false
	}
}
