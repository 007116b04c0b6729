package modules

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/dmxconsole/internal/color"
	"github.com/dokzlo13/dmxconsole/internal/scene"
)

// ScenesModule exposes the scene store to Lua.
//
// ERROR HANDLING CONVENTION:
//   - operations that can fail return true (or a count), or nil plus an error string
//   - queries (exists, list) never fail
type ScenesModule struct {
	store *scene.Store
}

// NewScenesModule creates a new scenes module
func NewScenesModule(store *scene.Store) *ScenesModule {
	return &ScenesModule{store: store}
}

// Loader is the module loader for Lua
func (m *ScenesModule) Loader(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"save":         m.named(m.store.Save),
		"load":         m.named(m.store.Load),
		"delete":       m.named(m.store.Delete),
		"exists":       m.exists,
		"list":         m.list,
		"list_all":     m.listAll,
		"info":         m.info,
		"quick_save":   m.slot(m.store.QuickSave),
		"quick_load":   m.slot(m.store.QuickLoad),
		"quick_delete": m.slot(m.store.QuickDelete),
		"quick_exists": m.quickExists,
		"quick_slots":  m.quickSlots,
		"clear_quick":  m.clearQuick,
		"export":       m.named(m.store.Export),
		"import":       m.importFile,
	})

	L.Push(mod)
	return 1
}

// named wraps fn(name) as fn(name) -> true | nil, err
func (m *ScenesModule) named(fn func(string) error) lua.LGFunction {
	return func(L *lua.LState) int {
		return pushResult(L, fn(L.CheckString(1)))
	}
}

// slot wraps fn(i) as fn(i) -> true | nil, err
func (m *ScenesModule) slot(fn func(int) error) lua.LGFunction {
	return func(L *lua.LState) int {
		return pushResult(L, fn(L.CheckInt(1)))
	}
}

// exists(name) -> bool
func (m *ScenesModule) exists(L *lua.LState) int {
	L.Push(lua.LBool(m.store.Exists(L.CheckString(1))))
	return 1
}

// list() -> { names } (quick slots excluded, sorted)
func (m *ScenesModule) list(L *lua.LState) int {
	L.Push(stringList(L, m.store.ListNamed()))
	return 1
}

// list_all() -> { names } (quick slots included, sorted)
func (m *ScenesModule) listAll(L *lua.LState) int {
	L.Push(stringList(L, m.store.ListAll()))
	return 1
}

// quick_exists(i) -> bool
func (m *ScenesModule) quickExists(L *lua.LState) int {
	L.Push(lua.LBool(m.store.QuickExists(L.CheckInt(1))))
	return 1
}

// quick_slots() -> number
func (m *ScenesModule) quickSlots(L *lua.LState) int {
	L.Push(lua.LNumber(m.store.QuickSlots()))
	return 1
}

// clear_quick() -> deleted count | nil, err
func (m *ScenesModule) clearQuick(L *lua.LState) int {
	n, err := m.store.ClearQuick()
	if err != nil {
		return pushResult(L, err)
	}
	L.Push(lua.LNumber(n))
	return 1
}

// import(path) -> imported count | nil, err
func (m *ScenesModule) importFile(L *lua.LState) int {
	n, err := m.store.Import(L.CheckString(1))
	if err != nil {
		return pushResult(L, err)
	}
	L.Push(lua.LNumber(n))
	return 1
}

// info(name) -> { name, light_count, lights_on, colors, has_effects } | nil, err
func (m *ScenesModule) info(L *lua.LState) int {
	info, err := m.store.Info(L.CheckString(1))
	if err != nil {
		return pushResult(L, err)
	}

	tbl := L.NewTable()
	L.SetField(tbl, "name", lua.LString(info.Name))
	L.SetField(tbl, "light_count", lua.LNumber(info.LightCount))
	L.SetField(tbl, "lights_on", lua.LNumber(info.LightsOn))
	L.SetField(tbl, "colors", stringList(L, hexList(info.Colors)))
	L.SetField(tbl, "has_effects", lua.LBool(info.HasEffects))
	L.Push(tbl)
	return 1
}

func hexList(colors []color.RGB) []string {
	out := make([]string, len(colors))
	for i, c := range colors {
		out[i] = c.Hex()
	}
	return out
}
