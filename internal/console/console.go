// Package console ties the lights, the effect engine and the scene store together
// and reports every change on the event bus.
//
// A Console is not safe for concurrent use; the app driver calls it from a single
// goroutine.
package console

import (
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/dmxconsole/internal/color"
	"github.com/dokzlo13/dmxconsole/internal/effects"
	"github.com/dokzlo13/dmxconsole/internal/eventbus"
	"github.com/dokzlo13/dmxconsole/internal/light"
	"github.com/dokzlo13/dmxconsole/internal/scene"
)

// Effect names used in effect_toggled events
const (
	EffectStrobe   = "strobe"
	EffectChase    = "chase"
	EffectBlinkAll = "blink_all"
	EffectBlink    = "blink"
	EffectFade     = "fade"
)

// Publisher receives console events. *eventbus.Bus satisfies it.
type Publisher interface {
	Publish(event eventbus.Event)
}

// Config describes the lights and the timings the console is built with.
type Config struct {
	Lights    int
	Bounds    light.Bounds
	Color     color.RGB
	Intensity int
	Effects   effects.Config
	Scenes    scene.Config
}

// Frame is the output color of every light, indexed by light id.
type Frame []color.RGB

// Equal reports whether both frames show the same colors.
func (f Frame) Equal(other Frame) bool {
	if len(f) != len(other) {
		return false
	}
	for i := range f {
		if f[i] != other[i] {
			return false
		}
	}
	return true
}

// Console is the aggregate the rest of the application talks to.
type Console struct {
	lights []*light.Light
	engine *effects.Engine
	scenes *scene.Store
	bus    Publisher
}

// New creates cfg.Lights lights with ids 0..n-1, the engine driving them and a
// scene store on backend. bus may be nil.
func New(cfg Config, backend scene.Backend, bus Publisher) *Console {
	lights := make([]*light.Light, cfg.Lights)
	for i := range lights {
		lights[i] = light.New(i, cfg.Bounds, cfg.Color, cfg.Intensity)
	}

	engine := effects.New(cfg.Effects, lights)
	c := &Console{
		lights: lights,
		engine: engine,
		scenes: scene.NewStore(cfg.Scenes, backend, lights, engine),
		bus:    bus,
	}
	c.scenes.OnChange(c.sceneChanged)

	log.Info().
		Int("lights", len(lights)).
		Int("quick_slots", c.scenes.QuickSlots()).
		Msg("Console ready")
	return c
}

// Lights returns all lights ordered by id.
func (c *Console) Lights() []*light.Light { return c.lights }

// Light returns the light with id.
func (c *Console) Light(id int) (*light.Light, bool) {
	if id < 0 || id >= len(c.lights) {
		return nil, false
	}
	return c.lights[id], true
}

// Engine returns the effect engine.
func (c *Console) Engine() *effects.Engine { return c.engine }

// Scenes returns the scene store.
func (c *Console) Scenes() *scene.Store { return c.scenes }

// AllOn switches every light on.
func (c *Console) AllOn() {
	for _, l := range c.lights {
		l.TurnOn()
	}
	log.Debug().Msg("All lights on")
}

// AllOff switches every light off.
func (c *Console) AllOff() {
	for _, l := range c.lights {
		l.TurnOff()
	}
	log.Debug().Msg("All lights off")
}

// ToggleStrobe switches the strobe and returns whether it is now active.
func (c *Console) ToggleStrobe() bool {
	return c.toggled(EffectStrobe, -1, c.engine.ToggleStrobe())
}

// ToggleChase switches the chase and returns whether it is now active.
func (c *Console) ToggleChase() bool {
	return c.toggled(EffectChase, -1, c.engine.ToggleChase())
}

// ToggleBlinkAll switches blink-all and returns whether it is now active.
func (c *Console) ToggleBlinkAll() bool {
	return c.toggled(EffectBlinkAll, -1, c.engine.ToggleBlinkAll())
}

// ToggleBlink switches the blink of one light. Unknown ids are ignored and
// report false.
func (c *Console) ToggleBlink(id int) bool {
	if _, ok := c.Light(id); !ok {
		log.Warn().Int("light", id).Msg("Ignoring blink toggle for unknown light")
		return false
	}
	return c.toggled(EffectBlink, id, c.engine.ToggleBlink(id))
}

// ToggleFade switches the fade and returns whether it is now active.
func (c *Console) ToggleFade() bool {
	return c.toggled(EffectFade, -1, c.engine.ToggleFade())
}

// StopEffects stops every effect and restores the base colors.
func (c *Console) StopEffects() {
	c.engine.StopAll()
	log.Info().Msg("All effects stopped")
	c.publish(eventbus.EventTypeEffectsStopped, nil)
}

// Tick advances the effects by one step and returns the resulting frame.
func (c *Console) Tick() Frame {
	c.engine.Tick()
	return c.Frame()
}

// Frame returns the current output of every light: the display color scaled by
// intensity, or off.
func (c *Console) Frame() Frame {
	frame := make(Frame, len(c.lights))
	for i, l := range c.lights {
		frame[i] = l.DimmedColor()
	}
	return frame
}

func (c *Console) toggled(effect string, id int, active bool) bool {
	data := map[string]interface{}{"effect": effect, "active": active}
	ev := log.Info().Str("effect", effect).Bool("active", active)
	if id >= 0 {
		data["light"] = id
		ev = ev.Int("light", id)
	}
	ev.Msg("Effect toggled")

	c.publish(eventbus.EventTypeEffectToggled, data)
	return active
}

func (c *Console) sceneChanged(ch scene.Change) {
	var eventType eventbus.EventType
	switch ch.Op {
	case scene.OpSaved, scene.OpImported:
		eventType = eventbus.EventTypeSceneSaved
	case scene.OpLoaded:
		eventType = eventbus.EventTypeSceneLoaded
	case scene.OpDeleted:
		eventType = eventbus.EventTypeSceneDeleted
	case scene.OpReset:
		eventType = eventbus.EventTypeScenesReset
	default:
		return
	}
	c.publish(eventType, map[string]interface{}{"op": string(ch.Op), "name": ch.Name})
}

func (c *Console) publish(eventType eventbus.EventType, data map[string]interface{}) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(eventbus.Event{Type: eventType, Data: data})
}
