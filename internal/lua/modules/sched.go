package modules

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/dmxconsole/internal/scheduler"
)

// SchedModule lets scripts bind Lua functions to cron expressions.
// Callbacks run through the scheduler's dispatcher, on the goroutine that owns the Lua state.
//
// ERROR HANDLING CONVENTION:
//   - cron(): Uses L.RaiseError() for invalid specs (setup failure)
//   - remove(), run(): Return bool
type SchedModule struct {
	scheduler *scheduler.Scheduler
}

// NewSchedModule creates a new sched module
func NewSchedModule(sched *scheduler.Scheduler) *SchedModule {
	return &SchedModule{scheduler: sched}
}

// Loader is the module loader for Lua
func (m *SchedModule) Loader(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"cron":   m.cron,
		"remove": m.remove,
		"run":    m.run,
		"list":   m.list,
	})

	L.Push(mod)
	return 1
}

// cron(spec, name, fn) -> id
func (m *SchedModule) cron(L *lua.LState) int {
	spec := L.CheckString(1)
	name := L.CheckString(2)
	fn := L.CheckFunction(3)

	id, err := m.scheduler.Register(spec, "lua:"+name, func(context.Context) error {
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
			return fmt.Errorf("lua callback %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		L.RaiseError("failed to define schedule: %s", err.Error())
		return 0
	}

	L.Push(lua.LNumber(id))
	return 1
}

// remove(id) -> bool
func (m *SchedModule) remove(L *lua.LState) int {
	id := cron.EntryID(L.CheckInt(1))
	for _, e := range m.scheduler.Entries() {
		if e.ID == id {
			m.scheduler.Unregister(id)
			L.Push(lua.LTrue)
			return 1
		}
	}
	L.Push(lua.LFalse)
	return 1
}

// run(id) -> bool, dispatches the schedule now
func (m *SchedModule) run(L *lua.LState) int {
	L.Push(lua.LBool(m.scheduler.RunNow(cron.EntryID(L.CheckInt(1)))))
	return 1
}

// list() -> { { id, spec, name, next }, ... } ordered by next run
func (m *SchedModule) list(L *lua.LState) int {
	tbl := L.NewTable()
	for i, e := range m.scheduler.Entries() {
		entry := L.NewTable()
		L.SetField(entry, "id", lua.LNumber(e.ID))
		L.SetField(entry, "spec", lua.LString(e.Spec))
		L.SetField(entry, "name", lua.LString(e.Name))
		if !e.Next.IsZero() {
			L.SetField(entry, "next", lua.LString(e.Next.Format("2006-01-02 15:04:05")))
		}
		tbl.RawSetInt(i+1, entry)
	}
	L.Push(tbl)
	return 1
}
