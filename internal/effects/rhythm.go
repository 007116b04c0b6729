package effects

// Rhythm is the group effect currently gating the lights. At most one group
// rhythm runs at a time; individual blinks are tracked separately and may only
// run alongside RhythmNone or RhythmBlinkAll.
type Rhythm int

const (
	RhythmNone Rhythm = iota
	RhythmStrobe
	RhythmChase
	RhythmBlinkAll
)

// String returns a human-readable name for the rhythm.
func (r Rhythm) String() string {
	switch r {
	case RhythmNone:
		return "none"
	case RhythmStrobe:
		return "strobe"
	case RhythmChase:
		return "chase"
	case RhythmBlinkAll:
		return "blink_all"
	default:
		return "unknown"
	}
}

// Phases is a read-only view of the effect counters.
type Phases struct {
	Strobe int
	Chase  int
	Blink  int
	Fade   int
}

// chaseIndex returns the light lit by the chase at the given phase.
func chaseIndex(phase, speed, count int) int {
	return (phase / speed) % count
}

// strobeOn reports whether the strobe flash is visible at the given phase.
func strobeOn(phase, speed int) bool {
	return phase < speed/3
}

// blinkOn reports whether blinking lights are visible at the given phase.
func blinkOn(phase, speed int) bool {
	return phase < speed/2
}

// fadeProgress maps the fade phase onto a triangular wave: 0 -> 1 over the first
// half of the cycle and back to 0 over the second half.
func fadeProgress(phase, speed int) float64 {
	half := speed / 2
	if half == 0 {
		return 0
	}
	if phase <= half {
		return float64(phase) / float64(half)
	}
	return float64(speed-phase) / float64(half)
}
