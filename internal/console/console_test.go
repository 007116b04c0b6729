package console

import (
	"testing"

	"github.com/dokzlo13/dmxconsole/internal/color"
	"github.com/dokzlo13/dmxconsole/internal/effects"
	"github.com/dokzlo13/dmxconsole/internal/eventbus"
	"github.com/dokzlo13/dmxconsole/internal/light"
	"github.com/dokzlo13/dmxconsole/internal/scene"
	"github.com/dokzlo13/dmxconsole/internal/storage/kv"
)

type recorder struct {
	events []eventbus.Event
}

func (r *recorder) Publish(e eventbus.Event) {
	r.events = append(r.events, e)
}

func (r *recorder) types() []eventbus.EventType {
	out := make([]eventbus.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

var red = color.RGB{R: 200}

func newConsole(t *testing.T, n int) (*Console, *recorder) {
	t.Helper()
	rec := &recorder{}
	cfg := Config{
		Lights:    n,
		Bounds:    light.DefaultBounds,
		Color:     red,
		Intensity: 50,
		Effects:   effects.DefaultConfig(),
		Scenes:    scene.DefaultConfig(),
	}
	return New(cfg, scene.NewBucketBackend(kv.NewMemoryBucket("scenes")), rec), rec
}

func TestNewCreatesLights(t *testing.T) {
	c, _ := newConsole(t, 3)

	if len(c.Lights()) != 3 {
		t.Fatalf("Lights() = %d, want 3", len(c.Lights()))
	}
	for i, l := range c.Lights() {
		if l.ID() != i || l.IsOn() || l.BaseColor() != red || l.Intensity() != 50 {
			t.Errorf("light %d = id %d on %v color %v intensity %d", i, l.ID(), l.IsOn(), l.BaseColor(), l.Intensity())
		}
	}
	if _, ok := c.Light(3); ok {
		t.Error("Light(3) should not exist")
	}
	if _, ok := c.Light(-1); ok {
		t.Error("Light(-1) should not exist")
	}
}

func TestFrameIsDimmed(t *testing.T) {
	c, _ := newConsole(t, 2)

	if frame := c.Frame(); !frame.Equal(Frame{color.Off, color.Off}) {
		t.Errorf("frame with lights off = %v", frame)
	}

	c.AllOn()
	want := Frame{{R: 100}, {R: 100}}
	if frame := c.Frame(); !frame.Equal(want) {
		t.Errorf("Frame() = %v, want %v", frame, want)
	}

	c.AllOff()
	if frame := c.Frame(); !frame.Equal(Frame{color.Off, color.Off}) {
		t.Errorf("frame after AllOff = %v", frame)
	}
}

func TestTickAppliesEffects(t *testing.T) {
	c, _ := newConsole(t, 3)
	c.AllOn()
	c.ToggleChase()

	// chase speed 5: phase 1 lights the first light only
	frame := c.Tick()
	want := Frame{{R: 100}, color.Off, color.Off}
	if !frame.Equal(want) {
		t.Errorf("first chase frame = %v, want %v", frame, want)
	}
}

func TestTogglesPublishEvents(t *testing.T) {
	c, rec := newConsole(t, 2)

	if !c.ToggleStrobe() {
		t.Error("ToggleStrobe() = false, want true")
	}
	if !c.ToggleBlink(1) {
		t.Error("ToggleBlink(1) = false, want true")
	}
	if c.ToggleBlink(7) {
		t.Error("ToggleBlink(7) = true for unknown light")
	}
	c.ToggleFade()
	c.StopEffects()

	want := []eventbus.EventType{
		eventbus.EventTypeEffectToggled,
		eventbus.EventTypeEffectToggled,
		eventbus.EventTypeEffectToggled,
		eventbus.EventTypeEffectsStopped,
	}
	got := rec.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}

	blink := rec.events[1].Data
	if blink["effect"] != EffectBlink || blink["light"] != 1 || blink["active"] != true {
		t.Errorf("blink event data = %v", blink)
	}
	if _, ok := rec.events[0].Data["light"]; ok {
		t.Error("strobe event should not carry a light id")
	}
	if c.Engine().Rhythm() != effects.RhythmNone || c.Engine().FadeActive() {
		t.Error("StopEffects left effects running")
	}
}

func TestSceneChangesPublishEvents(t *testing.T) {
	c, rec := newConsole(t, 2)

	if err := c.Scenes().Save("show"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := c.Scenes().Load("show"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := c.Scenes().Load("missing"); err == nil {
		t.Error("Load(missing) succeeded")
	}
	if err := c.Scenes().Delete("show"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	want := []eventbus.EventType{
		eventbus.EventTypeSceneSaved,
		eventbus.EventTypeSceneLoaded,
		eventbus.EventTypeSceneDeleted,
	}
	got := rec.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
		if rec.events[i].Data["name"] != "show" {
			t.Errorf("event %d name = %v", i, rec.events[i].Data["name"])
		}
	}
}

func TestNilPublisher(t *testing.T) {
	cfg := Config{Lights: 1, Bounds: light.DefaultBounds, Color: red, Intensity: 100, Scenes: scene.DefaultConfig()}
	c := New(cfg, scene.NewBucketBackend(kv.NewMemoryBucket("scenes")), nil)

	c.ToggleFade()
	c.StopEffects()
	if err := c.Scenes().QuickSave(0); err != nil {
		t.Errorf("QuickSave: %v", err)
	}
}
