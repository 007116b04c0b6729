package effects

import (
	"testing"

	"github.com/dokzlo13/dmxconsole/internal/color"
	"github.com/dokzlo13/dmxconsole/internal/light"
)

var (
	red   = color.RGB{R: 255}
	green = color.RGB{G: 255}
	blue  = color.RGB{B: 255}
	white = color.RGB{R: 255, G: 255, B: 255}
)

// newLights creates n lights that are switched on, each with its own color.
func newLights(n int) []*light.Light {
	palette := []color.RGB{red, green, blue, white}
	lights := make([]*light.Light, n)
	for i := range lights {
		lights[i] = light.New(i, light.DefaultBounds, palette[i%len(palette)], 100)
		lights[i].TurnOn()
	}
	return lights
}

func newEngine(n int) (*Engine, []*light.Light) {
	lights := newLights(n)
	return New(DefaultConfig(), lights), lights
}

// lit returns the ids of lights whose display is not off.
func lit(lights []*light.Light) []int {
	var ids []int
	for _, l := range lights {
		if !l.Display().IsOff() {
			ids = append(ids, l.ID())
		}
	}
	return ids
}

// activeGroupFlags counts strobe/chase/blink-all flags in the persisted state.
func activeGroupFlags(s State) int {
	n := 0
	for _, b := range []bool{s.StrobeActive, s.ChaseActive, s.BlinkAllActive} {
		if b {
			n++
		}
	}
	return n
}

func TestNoEffectsShowsBaseColor(t *testing.T) {
	e, lights := newEngine(4)
	lights[2].TurnOff()

	e.Tick()

	for _, l := range lights {
		want := l.BaseColor()
		if !l.IsOn() {
			want = color.Off
		}
		if l.Display() != want {
			t.Errorf("light %d display = %v, want %v", l.ID(), l.Display(), want)
		}
	}
}

func TestChaseSequence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChaseSpeed = 5
	lights := newLights(4)
	e := New(cfg, lights)

	if !e.ToggleChase() {
		t.Fatal("ToggleChase should activate chase")
	}

	// Phase 0-4 lights 0, 5-9 lights 1, 10-14 lights 2, 15-19 lights 3, then repeat.
	for tick := 1; tick <= 60; tick++ {
		e.Tick()

		phase := tick % 20
		if got := e.Phases().Chase; got != phase {
			t.Fatalf("tick %d: chase phase = %d, want %d", tick, got, phase)
		}

		want := phase / 5
		ids := lit(lights)
		if len(ids) != 1 || ids[0] != want {
			t.Fatalf("tick %d (phase %d): lit = %v, want [%d]", tick, phase, ids, want)
		}
		if lights[want].Display() != lights[want].BaseColor() {
			t.Fatalf("tick %d: chased light shows %v, want base %v", tick, lights[want].Display(), lights[want].BaseColor())
		}
	}
}

func TestChaseSkipsLightsThatAreOff(t *testing.T) {
	lights := newLights(4)
	lights[0].TurnOff()
	e := New(DefaultConfig(), lights)
	e.ToggleChase()

	e.Tick() // phase 1 selects light 0
	if ids := lit(lights); len(ids) != 0 {
		t.Errorf("lit = %v, want none while the selected light is off", ids)
	}
}

func TestStrobeSequence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StrobeSpeed = 6
	lights := newLights(2)
	e := New(cfg, lights)
	e.ToggleStrobe()

	for tick := 1; tick <= 18; tick++ {
		e.Tick()

		phase := tick % 6
		if got := e.Phases().Strobe; got != phase {
			t.Fatalf("tick %d: strobe phase = %d, want %d", tick, got, phase)
		}

		wantOn := phase < 2
		for _, l := range lights {
			if got := !l.Display().IsOff(); got != wantOn {
				t.Fatalf("tick %d (phase %d): light %d on=%v, want %v", tick, phase, l.ID(), got, wantOn)
			}
		}
	}
}

func TestBlinkAllSequence(t *testing.T) {
	e, lights := newEngine(3)
	e.ToggleBlinkAll()

	for tick := 1; tick <= 30; tick++ {
		e.Tick()

		phase := tick % 10
		wantOn := phase < 5
		for _, l := range lights {
			if got := !l.Display().IsOff(); got != wantOn {
				t.Fatalf("tick %d (phase %d): light %d on=%v, want %v", tick, phase, l.ID(), got, wantOn)
			}
		}
	}
}

func TestIndividualBlinksAreSynchronized(t *testing.T) {
	e, lights := newEngine(4)
	e.ToggleBlink(1)
	for i := 0; i < 3; i++ {
		e.Tick()
	}
	e.ToggleBlink(3) // joins the running blink phase

	if e.BlinkPhase(1) != 3 || e.BlinkPhase(3) != 3 {
		t.Fatalf("blink phases = %d, %d, want 3, 3", e.BlinkPhase(1), e.BlinkPhase(3))
	}
	if e.BlinkPhase(0) != 0 {
		t.Errorf("non-blinking light reports phase %d", e.BlinkPhase(0))
	}

	for tick := 4; tick <= 25; tick++ {
		e.Tick()
		wantOn := (tick % 10) < 5

		for _, l := range lights {
			got := !l.Display().IsOff()
			switch l.ID() {
			case 1, 3:
				if got != wantOn {
					t.Fatalf("tick %d: blinking light %d on=%v, want %v", tick, l.ID(), got, wantOn)
				}
			default:
				if !got {
					t.Fatalf("tick %d: steady light %d went dark", tick, l.ID())
				}
			}
		}
		if e.BlinkPhase(1) != e.BlinkPhase(3) {
			t.Fatalf("tick %d: blink phases diverged", tick)
		}
	}
}

func TestPhaseAdvancesOncePerTick(t *testing.T) {
	e, _ := newEngine(4)
	e.ToggleChase()
	e.ToggleFade()

	e.Tick()
	e.Tick()

	if got := e.Phases(); got.Chase != 2 || got.Fade != 2 {
		t.Errorf("phases after two ticks = %+v, want chase=2 fade=2", got)
	}
}

func TestIdleEffectsKeepPhaseZero(t *testing.T) {
	e, _ := newEngine(2)
	for i := 0; i < 5; i++ {
		e.Tick()
	}
	if got := e.Phases(); got != (Phases{}) {
		t.Errorf("phases with nothing active = %+v, want zero", got)
	}
}

func TestFadeColors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FadeSpeed = 200
	cfg.FadeColors = [2]color.RGB{red, blue}
	lights := newLights(2)
	e := New(cfg, lights)
	e.ToggleFade()

	tests := []struct {
		ticks int
		want  color.RGB
	}{
		{ticks: 50, want: color.RGB{R: 127, B: 127}},  // rising, p = 0.5
		{ticks: 100, want: blue},                      // peak, p = 1
		{ticks: 150, want: color.RGB{R: 127, B: 127}}, // falling, p = 0.5
		{ticks: 200, want: red},                       // back to the first color
	}

	done := 0
	for _, tt := range tests {
		for ; done < tt.ticks; done++ {
			e.Tick()
		}
		for _, l := range lights {
			if l.Display() != tt.want {
				t.Errorf("after %d ticks light %d = %v, want %v", tt.ticks, l.ID(), l.Display(), tt.want)
			}
		}
	}
}

func TestFadeComposesWithStrobe(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FadeColors = [2]color.RGB{green, green}
	lights := newLights(2)
	e := New(cfg, lights)

	e.ToggleFade()
	e.ToggleStrobe()
	if !e.FadeActive() || !e.StrobeActive() {
		t.Fatal("fade and strobe must be active together")
	}

	e.Tick() // strobe phase 1 -> on
	for _, l := range lights {
		if l.Display() != green {
			t.Errorf("light %d = %v, want fade color %v", l.ID(), l.Display(), green)
		}
	}

	e.Tick() // strobe phase 2 -> off
	if ids := lit(lights); len(ids) != 0 {
		t.Errorf("lit = %v, want none during strobe gap", ids)
	}
}

func TestToggleFadeOffRestoresBase(t *testing.T) {
	e, lights := newEngine(2)
	e.SetFadeColors(white, white)
	e.ToggleFade()
	e.Tick()

	if e.ToggleFade() {
		t.Fatal("second ToggleFade should deactivate")
	}
	for _, l := range lights {
		if l.Display() != l.BaseColor() {
			t.Errorf("light %d display = %v, want base %v", l.ID(), l.Display(), l.BaseColor())
		}
	}
}

func TestGroupRhythmExclusion(t *testing.T) {
	activators := map[string]func(*Engine) bool{
		"strobe":    (*Engine).ToggleStrobe,
		"chase":     (*Engine).ToggleChase,
		"blink_all": (*Engine).ToggleBlinkAll,
	}
	setups := map[string]func(*Engine){
		"strobe":    func(e *Engine) { e.ToggleStrobe() },
		"chase":     func(e *Engine) { e.ToggleChase() },
		"blink_all": func(e *Engine) { e.ToggleBlinkAll() },
		"blink":     func(e *Engine) { e.ToggleBlink(0) },
	}

	for prev, setup := range setups {
		for next, activate := range activators {
			if prev == next {
				continue
			}
			t.Run(prev+"_then_"+next, func(t *testing.T) {
				e, _ := newEngine(4)
				setup(e)
				for i := 0; i < 7; i++ {
					e.Tick()
				}

				if !activate(e) {
					t.Fatalf("activating %s returned false", next)
				}

				s := e.State()
				if n := activeGroupFlags(s); n != 1 {
					t.Errorf("active group flags = %d, want 1 (%+v)", n, s)
				}

				p := e.Phases()
				if p.Strobe != 0 || p.Chase != 0 || p.Blink != 0 {
					t.Errorf("rhythm phases not reset: %+v", p)
				}

				if next != "blink_all" && len(e.Status().Blinking) != 0 {
					t.Errorf("%s must stop individual blinks, still blinking %v", next, e.Status().Blinking)
				}
			})
		}
	}
}

func TestBlinkAllKeepsIndividualBlinks(t *testing.T) {
	e, _ := newEngine(4)
	e.ToggleBlink(2)

	e.ToggleBlinkAll()
	if !e.Blinking(2) {
		t.Error("starting blink-all must keep individual blinks")
	}

	e.ToggleBlinkAll()
	if !e.Blinking(2) {
		t.Error("stopping blink-all must keep individual blinks")
	}
}

func TestIndividualBlinkExclusion(t *testing.T) {
	for _, group := range []string{"strobe", "chase", "blink_all"} {
		t.Run(group, func(t *testing.T) {
			e, _ := newEngine(4)
			e.ToggleBlink(0)
			switch group {
			case "strobe":
				e.ToggleStrobe()
			case "chase":
				e.ToggleChase()
			case "blink_all":
				e.ToggleBlinkAll()
			}

			if !e.ToggleBlink(1) {
				t.Fatal("ToggleBlink(1) should activate")
			}
			if e.StrobeActive() || e.ChaseActive() || e.BlinkAllActive() {
				t.Errorf("individual blink left group rhythm %s running", e.Rhythm())
			}
			if group == "blink_all" && !e.Blinking(0) {
				t.Error("individual blink stopped another individual blink")
			}
		})
	}
}

func TestIndividualBlinkKeepsOtherBlinks(t *testing.T) {
	e, _ := newEngine(4)
	e.ToggleBlink(0)
	e.ToggleBlink(3)

	if !e.Blinking(0) || !e.Blinking(3) {
		t.Fatal("both individual blinks should be active")
	}

	if e.ToggleBlink(0) {
		t.Fatal("second ToggleBlink(0) should deactivate")
	}
	if !e.Blinking(3) {
		t.Error("stopping one blink stopped another")
	}
}

func TestToggleBlinkUnknownLight(t *testing.T) {
	e, _ := newEngine(2)
	e.ToggleStrobe()

	if e.ToggleBlink(5) || e.ToggleBlink(-1) {
		t.Error("ToggleBlink on unknown id should return false")
	}
	if !e.StrobeActive() {
		t.Error("ToggleBlink on unknown id must not touch other effects")
	}
}

func TestRhythmOffKeepsFade(t *testing.T) {
	e, _ := newEngine(2)
	e.ToggleFade()
	e.ToggleBlinkAll()
	e.ToggleBlinkAll()
	e.ToggleBlink(1)
	e.ToggleBlink(1)

	if !e.FadeActive() {
		t.Error("toggling blinks off must not stop fade")
	}
}

func TestStopAll(t *testing.T) {
	e, lights := newEngine(4)
	e.ToggleFade()
	e.ToggleChase()
	for i := 0; i < 3; i++ {
		e.Tick()
	}

	e.StopAll()

	if e.FadeActive() || e.Rhythm() != RhythmNone || len(e.Status().Blinking) != 0 {
		t.Errorf("effects still active after StopAll: %+v", e.Status())
	}
	if e.Phases() != (Phases{}) {
		t.Errorf("phases after StopAll = %+v", e.Phases())
	}
	for _, l := range lights {
		if l.Display() != l.BaseColor() {
			t.Errorf("light %d display = %v, want base %v without waiting for a tick", l.ID(), l.Display(), l.BaseColor())
		}
	}
}

func TestStateRoundTrip(t *testing.T) {
	scenarios := map[string]func(*Engine){
		"idle":       func(*Engine) {},
		"strobe":     func(e *Engine) { e.ToggleStrobe() },
		"chase_fade": func(e *Engine) { e.ToggleChase(); e.ToggleFade() },
		"blinks": func(e *Engine) {
			e.ToggleBlink(0)
			e.ToggleBlink(2)
			e.ToggleBlinkAll()
		},
		"fade_colors": func(e *Engine) {
			e.SetFadeColors(green, white)
			e.ToggleFade()
		},
	}

	for name, setup := range scenarios {
		t.Run(name, func(t *testing.T) {
			src, _ := newEngine(4)
			setup(src)
			for i := 0; i < 9; i++ {
				src.Tick()
			}

			dst, _ := newEngine(4)
			dst.ToggleStrobe()
			dst.Tick()
			dst.SetState(src.State())

			if got, want := dst.Status(), src.Status(); got.Rhythm != want.Rhythm || got.Fade != want.Fade || !equalInts(got.Blinking, want.Blinking) {
				t.Errorf("status = %+v, want %+v", got, want)
			}
			if dst.FadeColors() != src.FadeColors() {
				t.Errorf("fade colors = %v, want %v", dst.FadeColors(), src.FadeColors())
			}
			if dst.Phases() != (Phases{}) {
				t.Errorf("phases after SetState = %+v, want zero", dst.Phases())
			}
		})
	}
}

func TestSetStateConflictingFlags(t *testing.T) {
	e, _ := newEngine(4)
	e.SetState(State{
		StrobeActive:     true,
		ChaseActive:      true,
		BlinkAllActive:   true,
		IndividualBlinks: map[int]bool{1: true, 9: true},
	})

	if e.Rhythm() != RhythmChase {
		t.Errorf("rhythm = %s, want chase", e.Rhythm())
	}
	if len(e.Status().Blinking) != 0 {
		t.Errorf("blinks must be cleared under chase, got %v", e.Status().Blinking)
	}
}

func TestSetStateIgnoresOutOfRangeBlinks(t *testing.T) {
	e, _ := newEngine(2)
	e.SetState(State{IndividualBlinks: map[int]bool{0: true, 7: true, -1: true}})

	if got := e.Status().Blinking; !equalInts(got, []int{0}) {
		t.Errorf("blinking = %v, want [0]", got)
	}
}

func TestSetStateKeepsFadeColorsWhenMissing(t *testing.T) {
	e, _ := newEngine(2)
	e.SetFadeColors(green, white)
	e.SetState(State{FadeActive: true})

	if e.FadeColors() != [2]color.RGB{green, white} {
		t.Errorf("fade colors = %v, want unchanged", e.FadeColors())
	}
}

func TestConfigNormalized(t *testing.T) {
	e := New(Config{}, newLights(1))
	if e.Config().BlinkSpeed != 10 || e.Config().StrobeSpeed != 6 || e.Config().FadeSpeed != 200 || e.Config().ChaseSpeed != 5 {
		t.Errorf("zero config not normalized: %+v", e.Config())
	}
	// Must not divide by zero
	e.ToggleChase()
	e.Tick()
}

func TestNoLights(t *testing.T) {
	e := New(DefaultConfig(), nil)
	e.ToggleChase()
	e.Tick()
	if e.Phases().Chase != 0 {
		t.Errorf("chase phase with no lights = %d, want 0", e.Phases().Chase)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
