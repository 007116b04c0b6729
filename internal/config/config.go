package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dokzlo13/dmxconsole/internal/color"
	"github.com/dokzlo13/dmxconsole/internal/effects"
	"github.com/dokzlo13/dmxconsole/internal/light"
	"github.com/dokzlo13/dmxconsole/internal/scene"
)

// Scene storage backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Scheduled actions that don't recall a scene
const (
	ActionStopEffects = "stop_effects"
	ActionAllOn       = "all_on"
	ActionAllOff      = "all_off"
)

// Config represents the application configuration
type Config struct {
	Log             LogConfig        `yaml:"log"`
	Database        DatabaseConfig   `yaml:"database"`
	Lights          LightsConfig     `yaml:"lights"`
	Effects         EffectsConfig    `yaml:"effects"`
	Scenes          ScenesConfig     `yaml:"scenes"`
	Ledger          LedgerConfig     `yaml:"ledger"`
	EventBus        EventBusConfig   `yaml:"eventbus"`
	Render          RenderConfig     `yaml:"render"`
	Schedules       []ScheduleConfig `yaml:"schedules"`
	Script          string           `yaml:"script"`           // Optional Lua show script
	ShutdownTimeout Duration         `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	UseJSON bool   `yaml:"json"`
	Colors  bool   `yaml:"colors"`
}

// DatabaseConfig contains database settings (used by the sqlite scene backend and the ledger)
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LightsConfig describes the fixed set of projectors
type LightsConfig struct {
	Count            int    `yaml:"count"`
	DefaultColor     string `yaml:"default_color"`
	DefaultIntensity *int   `yaml:"default_intensity"`
	MinIntensity     int    `yaml:"min_intensity"`
	MaxIntensity     int    `yaml:"max_intensity"`
}

// EffectsConfig contains effect timings. Speeds are in ticks.
type EffectsConfig struct {
	TickInterval Duration `yaml:"tick_interval"`
	BlinkSpeed   int      `yaml:"blink_speed"`
	StrobeSpeed  int      `yaml:"strobe_speed"`
	FadeSpeed    int      `yaml:"fade_speed"`
	ChaseSpeed   int      `yaml:"chase_speed"`
	FadeColors   []string `yaml:"fade_colors"`
}

// ScenesConfig contains scene storage settings
type ScenesConfig struct {
	Backend     string `yaml:"backend"` // file (default), sqlite or memory
	File        string `yaml:"file"`
	QuickSlots  *int   `yaml:"quick_slots"`
	QuickPrefix string `yaml:"quick_prefix"`
}

// LedgerConfig contains console ledger settings
type LedgerConfig struct {
	Enabled         bool     `yaml:"enabled"`
	RetentionPeriod Duration `yaml:"retention_period"`
	CleanupInterval Duration `yaml:"cleanup_interval"`
}

// EventBusConfig contains event bus settings
type EventBusConfig struct {
	Workers   int `yaml:"workers"`    // Number of worker goroutines (default: 2)
	QueueSize int `yaml:"queue_size"` // Event queue size (default: 100)
}

// RenderConfig controls the frame log written on every change of the light output
type RenderConfig struct {
	Enabled   bool    `yaml:"enabled"`
	MaxPerSec float64 `yaml:"max_per_sec"` // Frame log rate limit (default: 2)
}

// ScheduleConfig is one cron-triggered console action. Exactly one of Scene,
// Quick and Action must be set.
type ScheduleConfig struct {
	Spec   string `yaml:"spec"`
	Scene  string `yaml:"scene,omitempty"`
	Quick  *int   `yaml:"quick,omitempty"`
	Action string `yaml:"action,omitempty"`
}

var (
	defaultLightColor = color.RGB{R: 0xff}
	defaultFadeColors = []string{"#ff0000", "#0000ff"}
)

// GetLevel returns the log level with default
func (c *LogConfig) GetLevel() string {
	if c.Level == "" {
		return "info"
	}
	return strings.ToLower(c.Level)
}

// GetWorkers returns worker count with default
func (c *EventBusConfig) GetWorkers() int {
	if c.Workers <= 0 {
		return 2
	}
	return c.Workers
}

// GetQueueSize returns queue size with default
func (c *EventBusConfig) GetQueueSize() int {
	if c.QueueSize <= 0 {
		return 100
	}
	return c.QueueSize
}

// GetShutdownTimeout returns the shutdown timeout as a time.Duration
func (c *Config) GetShutdownTimeout() time.Duration {
	return c.ShutdownTimeout.Duration()
}

// NeedsDatabase reports whether any component stores data in SQLite
func (c *Config) NeedsDatabase() bool {
	return c.Scenes.Backend == BackendSQLite || c.Ledger.Enabled
}

// Bounds returns the intensity range of every light
func (c LightsConfig) Bounds() light.Bounds {
	return light.Bounds{Min: c.MinIntensity, Max: c.MaxIntensity}
}

// Color returns the initial color of every light
func (c LightsConfig) Color() color.RGB {
	rgb, err := color.ParseHex(c.DefaultColor)
	if err != nil {
		return defaultLightColor
	}
	return rgb
}

// Intensity returns the initial intensity of every light
func (c LightsConfig) Intensity() int {
	if c.DefaultIntensity == nil {
		return c.MaxIntensity
	}
	return *c.DefaultIntensity
}

// Engine converts the effect settings for the effect engine
func (c EffectsConfig) Engine() effects.Config {
	cfg := effects.Config{
		BlinkSpeed:  c.BlinkSpeed,
		StrobeSpeed: c.StrobeSpeed,
		FadeSpeed:   c.FadeSpeed,
		ChaseSpeed:  c.ChaseSpeed,
		FadeColors:  effects.DefaultConfig().FadeColors,
	}
	if len(c.FadeColors) == 2 {
		a, errA := color.ParseHex(c.FadeColors[0])
		b, errB := color.ParseHex(c.FadeColors[1])
		if errA == nil && errB == nil {
			cfg.FadeColors = [2]color.RGB{a, b}
		}
	}
	return cfg
}

// Store converts the scene settings for the scene store
func (c ScenesConfig) Store() scene.Config {
	slots := scene.DefaultConfig().QuickSlots
	if c.QuickSlots != nil {
		slots = *c.QuickSlots
	}
	return scene.Config{QuickSlots: slots, QuickPrefix: c.QuickPrefix}
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes, applies defaults and validates the result
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when every setting is left out
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./dmxconsole.sqlite"
	}

	// Lights defaults
	if cfg.Lights.Count == 0 {
		cfg.Lights.Count = 4
	}
	if cfg.Lights.DefaultColor == "" {
		cfg.Lights.DefaultColor = defaultLightColor.Hex()
	}
	if cfg.Lights.MaxIntensity == 0 {
		cfg.Lights.MaxIntensity = 100
	}

	// Effects defaults
	def := effects.DefaultConfig()
	if cfg.Effects.TickInterval == 0 {
		cfg.Effects.TickInterval = Duration(100 * time.Millisecond)
	}
	if cfg.Effects.BlinkSpeed == 0 {
		cfg.Effects.BlinkSpeed = def.BlinkSpeed
	}
	if cfg.Effects.StrobeSpeed == 0 {
		cfg.Effects.StrobeSpeed = def.StrobeSpeed
	}
	if cfg.Effects.FadeSpeed == 0 {
		cfg.Effects.FadeSpeed = def.FadeSpeed
	}
	if cfg.Effects.ChaseSpeed == 0 {
		cfg.Effects.ChaseSpeed = def.ChaseSpeed
	}
	if len(cfg.Effects.FadeColors) == 0 {
		cfg.Effects.FadeColors = append([]string(nil), defaultFadeColors...)
	}

	// Scenes defaults
	if cfg.Scenes.Backend == "" {
		cfg.Scenes.Backend = BackendFile
	}
	if cfg.Scenes.File == "" {
		cfg.Scenes.File = "light_scenes.json"
	}
	if cfg.Scenes.QuickPrefix == "" {
		cfg.Scenes.QuickPrefix = scene.DefaultConfig().QuickPrefix
	}

	// Ledger defaults
	if cfg.Ledger.RetentionPeriod == 0 {
		cfg.Ledger.RetentionPeriod = Duration(30 * 24 * time.Hour)
	}
	if cfg.Ledger.CleanupInterval == 0 {
		cfg.Ledger.CleanupInterval = Duration(24 * time.Hour)
	}

	if cfg.Render.MaxPerSec == 0 {
		cfg.Render.MaxPerSec = 2
	}

	// General shutdown timeout
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}
}

// Validate checks settings the console cannot run with
func (cfg *Config) Validate() error {
	if cfg.Lights.Count < 1 {
		return fmt.Errorf("lights.count must be at least 1, got %d", cfg.Lights.Count)
	}
	if cfg.Lights.MaxIntensity <= cfg.Lights.MinIntensity {
		return fmt.Errorf("lights.max_intensity (%d) must be greater than lights.min_intensity (%d)",
			cfg.Lights.MaxIntensity, cfg.Lights.MinIntensity)
	}
	if _, err := color.ParseHex(cfg.Lights.DefaultColor); err != nil {
		return fmt.Errorf("lights.default_color: %w", err)
	}

	if cfg.Effects.TickInterval.Duration() <= 0 {
		return fmt.Errorf("effects.tick_interval must be positive")
	}
	speeds := []struct {
		name  string
		value int
		min   int
	}{
		{"effects.blink_speed", cfg.Effects.BlinkSpeed, 2},
		{"effects.strobe_speed", cfg.Effects.StrobeSpeed, 3},
		{"effects.fade_speed", cfg.Effects.FadeSpeed, 2},
		{"effects.chase_speed", cfg.Effects.ChaseSpeed, 1},
	}
	for _, s := range speeds {
		if s.value < s.min {
			return fmt.Errorf("%s must be at least %d ticks, got %d", s.name, s.min, s.value)
		}
	}
	if len(cfg.Effects.FadeColors) != 2 {
		return fmt.Errorf("effects.fade_colors must list exactly 2 colors, got %d", len(cfg.Effects.FadeColors))
	}
	for _, c := range cfg.Effects.FadeColors {
		if _, err := color.ParseHex(c); err != nil {
			return fmt.Errorf("effects.fade_colors: %w", err)
		}
	}

	switch cfg.Scenes.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("scenes.backend must be one of file, sqlite, memory; got %q", cfg.Scenes.Backend)
	}
	if cfg.Scenes.QuickSlots != nil && *cfg.Scenes.QuickSlots < 0 {
		return fmt.Errorf("scenes.quick_slots must not be negative")
	}

	for i, s := range cfg.Schedules {
		if err := s.validate(); err != nil {
			return fmt.Errorf("schedules[%d]: %w", i, err)
		}
	}

	return nil
}

func (s ScheduleConfig) validate() error {
	if strings.TrimSpace(s.Spec) == "" {
		return fmt.Errorf("spec is required")
	}

	targets := 0
	if s.Scene != "" {
		targets++
	}
	if s.Quick != nil {
		targets++
	}
	if s.Action != "" {
		targets++
		switch s.Action {
		case ActionStopEffects, ActionAllOn, ActionAllOff:
		default:
			return fmt.Errorf("unknown action %q", s.Action)
		}
	}
	if targets != 1 {
		return fmt.Errorf("exactly one of scene, quick or action must be set")
	}
	return nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
