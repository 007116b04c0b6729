package modules

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/dmxconsole/internal/color"
	"github.com/dokzlo13/dmxconsole/internal/console"
	"github.com/dokzlo13/dmxconsole/internal/light"
)

// LightsModule exposes the console lights to Lua. Ids are the console's 0-based ids.
//
// ERROR HANDLING CONVENTION:
//   - mutators return true, or nil plus an error string for unknown ids and bad colors
//   - get() returns nil for unknown ids
type LightsModule struct {
	console *console.Console
}

// NewLightsModule creates a new lights module
func NewLightsModule(c *console.Console) *LightsModule {
	return &LightsModule{console: c}
}

// Loader is the module loader for Lua
func (m *LightsModule) Loader(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"count":         m.count,
		"get":           m.get,
		"on":            m.with(func(l *light.Light) { l.TurnOn() }),
		"off":           m.with(func(l *light.Light) { l.TurnOff() }),
		"toggle":        m.with(func(l *light.Light) { l.Toggle() }),
		"set_color":     m.setColor,
		"set_intensity": m.setIntensity,
		"all_on":        m.allOn,
		"all_off":       m.allOff,
		"frame":         m.frame,
	})

	L.Push(mod)
	return 1
}

// count() -> number
func (m *LightsModule) count(L *lua.LState) int {
	L.Push(lua.LNumber(len(m.console.Lights())))
	return 1
}

// get(id) -> { id, on, color, display, intensity, output } | nil
func (m *LightsModule) get(L *lua.LState) int {
	l, ok := m.console.Light(L.CheckInt(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}

	tbl := L.NewTable()
	L.SetField(tbl, "id", lua.LNumber(l.ID()))
	L.SetField(tbl, "on", lua.LBool(l.IsOn()))
	L.SetField(tbl, "color", lua.LString(l.BaseColor().Hex()))
	L.SetField(tbl, "display", lua.LString(l.Display().Hex()))
	L.SetField(tbl, "intensity", lua.LNumber(l.Intensity()))
	L.SetField(tbl, "output", lua.LString(l.DimmedColor().Hex()))
	L.Push(tbl)
	return 1
}

// with wraps a per-light mutator as fn(id) -> true | nil, err
func (m *LightsModule) with(fn func(*light.Light)) lua.LGFunction {
	return func(L *lua.LState) int {
		l, err := m.light(L)
		if err == nil {
			fn(l)
		}
		return pushResult(L, err)
	}
}

// set_color(id, "#rrggbb") -> true | nil, err
func (m *LightsModule) setColor(L *lua.LState) int {
	l, err := m.light(L)
	if err != nil {
		return pushResult(L, err)
	}

	rgb, err := color.ParseHex(L.CheckString(2))
	if err == nil {
		l.SetColor(rgb)
	}
	return pushResult(L, err)
}

// set_intensity(id, value) -> applied intensity | nil, err
func (m *LightsModule) setIntensity(L *lua.LState) int {
	l, err := m.light(L)
	if err != nil {
		return pushResult(L, err)
	}

	l.SetIntensity(L.CheckInt(2))
	L.Push(lua.LNumber(l.Intensity()))
	return 1
}

func (m *LightsModule) allOn(L *lua.LState) int {
	m.console.AllOn()
	return 0
}

func (m *LightsModule) allOff(L *lua.LState) int {
	m.console.AllOff()
	return 0
}

// frame() -> { "#rrggbb", ... } indexed by id + 1
func (m *LightsModule) frame(L *lua.LState) int {
	frame := m.console.Frame()
	hex := make([]string, len(frame))
	for i, c := range frame {
		hex[i] = c.Hex()
	}
	L.Push(stringList(L, hex))
	return 1
}

func (m *LightsModule) light(L *lua.LState) (*light.Light, error) {
	id := L.CheckInt(1)
	l, ok := m.console.Light(id)
	if !ok {
		return nil, fmt.Errorf("unknown light %d", id)
	}
	return l, nil
}
