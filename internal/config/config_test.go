package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dokzlo13/dmxconsole/internal/color"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Lights.Count != 4 {
		t.Errorf("Lights.Count = %d, want 4", cfg.Lights.Count)
	}
	if b := cfg.Lights.Bounds(); b.Min != 0 || b.Max != 100 {
		t.Errorf("Lights.Bounds() = %+v, want 0..100", b)
	}
	if cfg.Lights.Intensity() != 100 {
		t.Errorf("Lights.Intensity() = %d, want 100", cfg.Lights.Intensity())
	}
	if cfg.Lights.Color() != (color.RGB{R: 255}) {
		t.Errorf("Lights.Color() = %v, want red", cfg.Lights.Color())
	}
	if cfg.Effects.TickInterval.Duration() != 100*time.Millisecond {
		t.Errorf("Effects.TickInterval = %v", cfg.Effects.TickInterval.Duration())
	}

	eng := cfg.Effects.Engine()
	if eng.BlinkSpeed != 10 || eng.StrobeSpeed != 6 || eng.FadeSpeed != 200 || eng.ChaseSpeed != 5 {
		t.Errorf("Effects.Engine() speeds = %+v", eng)
	}
	if eng.FadeColors[0] != (color.RGB{R: 255}) || eng.FadeColors[1] != (color.RGB{B: 255}) {
		t.Errorf("Effects.Engine() fade colors = %v", eng.FadeColors)
	}

	store := cfg.Scenes.Store()
	if store.QuickSlots != 6 || store.QuickPrefix != "Quick_" {
		t.Errorf("Scenes.Store() = %+v", store)
	}
	if cfg.Scenes.Backend != BackendFile || cfg.Scenes.File != "light_scenes.json" {
		t.Errorf("Scenes = %+v", cfg.Scenes)
	}
	if cfg.NeedsDatabase() {
		t.Error("default config should not need a database")
	}
	if cfg.GetShutdownTimeout() != 5*time.Second {
		t.Errorf("GetShutdownTimeout() = %v", cfg.GetShutdownTimeout())
	}
}

func TestParseFull(t *testing.T) {
	data := `
log:
  level: debug
  colors: true
lights:
  count: 8
  default_color: "#00ff00"
  default_intensity: 0
  min_intensity: 10
  max_intensity: 255
effects:
  tick_interval: 50ms
  blink_speed: 4
  strobe_speed: 3
  fade_speed: 20
  chase_speed: 2
  fade_colors: ["#ffffff", "000000"]
scenes:
  backend: sqlite
  quick_slots: 0
  quick_prefix: "Slot "
schedules:
  - spec: "0 20 * * *"
    scene: evening
  - spec: "@every 1h"
    quick: 2
  - spec: "0 6 * * *"
    action: all_off
`
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Lights.Count != 8 {
		t.Errorf("Lights.Count = %d", cfg.Lights.Count)
	}
	if cfg.Lights.Intensity() != 0 {
		t.Errorf("explicit default_intensity 0 should be kept, got %d", cfg.Lights.Intensity())
	}
	if b := cfg.Lights.Bounds(); b.Min != 10 || b.Max != 255 {
		t.Errorf("Bounds() = %+v", b)
	}
	eng := cfg.Effects.Engine()
	if eng.ChaseSpeed != 2 || eng.FadeColors[0] != (color.RGB{R: 255, G: 255, B: 255}) || !eng.FadeColors[1].IsOff() {
		t.Errorf("Engine() = %+v", eng)
	}
	if slots := cfg.Scenes.Store().QuickSlots; slots != 0 {
		t.Errorf("explicit quick_slots 0 should be kept, got %d", slots)
	}
	if !cfg.NeedsDatabase() {
		t.Error("sqlite backend needs a database")
	}
	if len(cfg.Schedules) != 3 || *cfg.Schedules[1].Quick != 2 || cfg.Schedules[2].Action != ActionAllOff {
		t.Errorf("Schedules = %+v", cfg.Schedules)
	}
}

func TestParseExpandsEnv(t *testing.T) {
	t.Setenv("DMX_SCENES", "/tmp/show.json")

	cfg, err := Parse([]byte(`
scenes:
  file: ${DMX_SCENES}
database:
  path: ${DMX_UNSET_DB:/var/lib/console.db}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Scenes.File != "/tmp/show.json" {
		t.Errorf("Scenes.File = %q", cfg.Scenes.File)
	}
	if cfg.Database.Path != "/var/lib/console.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"negative count", "lights: {count: -1}", "lights.count"},
		{"inverted bounds", "lights: {min_intensity: 50, max_intensity: 20}", "max_intensity"},
		{"bad light color", "lights: {default_color: purple}", "default_color"},
		{"strobe too fast", "effects: {strobe_speed: 2}", "strobe_speed"},
		{"three fade colors", `effects: {fade_colors: ["#000000", "#111111", "#222222"]}`, "exactly 2"},
		{"bad fade color", `effects: {fade_colors: ["#000000", "nope"]}`, "fade_colors"},
		{"unknown backend", "scenes: {backend: redis}", "scenes.backend"},
		{"negative slots", "scenes: {quick_slots: -2}", "quick_slots"},
		{"schedule without spec", "schedules: [{scene: a}]", "spec is required"},
		{"schedule with two targets", `schedules: [{spec: "@daily", scene: a, action: all_on}]`, "exactly one"},
		{"schedule with unknown action", `schedules: [{spec: "@daily", action: dance}]`, "unknown action"},
		{"bad duration", "effects: {tick_interval: soon}", "duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("lights:\n  count: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lights.Count != 2 {
		t.Errorf("Lights.Count = %d, want 2", cfg.Lights.Count)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of a missing file should fail")
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}
