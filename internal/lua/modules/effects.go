package modules

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/dmxconsole/internal/color"
	"github.com/dokzlo13/dmxconsole/internal/console"
)

// EffectsModule exposes the effect toggles to Lua. Every toggle returns whether
// the effect is active afterwards.
type EffectsModule struct {
	console *console.Console
}

// NewEffectsModule creates a new effects module
func NewEffectsModule(c *console.Console) *EffectsModule {
	return &EffectsModule{console: c}
}

// Loader is the module loader for Lua
func (m *EffectsModule) Loader(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"strobe":          m.toggle(m.console.ToggleStrobe),
		"chase":           m.toggle(m.console.ToggleChase),
		"blink_all":       m.toggle(m.console.ToggleBlinkAll),
		"fade":            m.toggle(m.console.ToggleFade),
		"blink":           m.blink,
		"stop":            m.stop,
		"set_fade_colors": m.setFadeColors,
		"status":          m.status,
	})

	L.Push(mod)
	return 1
}

func (m *EffectsModule) toggle(fn func() bool) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(lua.LBool(fn()))
		return 1
	}
}

// blink(id) -> bool
func (m *EffectsModule) blink(L *lua.LState) int {
	L.Push(lua.LBool(m.console.ToggleBlink(L.CheckInt(1))))
	return 1
}

// stop()
func (m *EffectsModule) stop(L *lua.LState) int {
	m.console.StopEffects()
	return 0
}

// set_fade_colors("#rrggbb", "#rrggbb") -> true | nil, err
func (m *EffectsModule) setFadeColors(L *lua.LState) int {
	a, err := color.ParseHex(L.CheckString(1))
	if err != nil {
		return pushResult(L, err)
	}
	b, err := color.ParseHex(L.CheckString(2))
	if err != nil {
		return pushResult(L, err)
	}

	m.console.Engine().SetFadeColors(a, b)
	return pushResult(L, nil)
}

// status() -> { rhythm = "none"|"strobe"|"chase"|"blink_all", fade = bool, blinking = { ids } }
func (m *EffectsModule) status(L *lua.LState) int {
	st := m.console.Engine().Status()

	tbl := L.NewTable()
	L.SetField(tbl, "rhythm", lua.LString(st.Rhythm.String()))
	L.SetField(tbl, "fade", lua.LBool(st.Fade))
	L.SetField(tbl, "blinking", intList(L, st.Blinking))
	L.Push(tbl)
	return 1
}
