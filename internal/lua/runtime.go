package lua

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/dmxconsole/internal/console"
	"github.com/dokzlo13/dmxconsole/internal/lua/modules"
	"github.com/dokzlo13/dmxconsole/internal/scheduler"
	"github.com/dokzlo13/dmxconsole/internal/storage/kv"
)

// RuntimeDeps groups all dependencies needed by Lua runtime.
type RuntimeDeps struct {
	Console   *console.Console
	Scheduler *scheduler.Scheduler // optional; without it the sched module is not available
	KVManager *kv.Manager
	Script    string // used to tag log entries
}

// Runtime owns the Lua state. It has no goroutine of its own: every call, including
// scheduled Lua callbacks, must come from the console's control goroutine.
type Runtime struct {
	L *lua.LState
}

// NewRuntime creates a Lua state with the console modules preloaded
func NewRuntime(deps RuntimeDeps) *Runtime {
	r := &Runtime{L: lua.NewState()}
	r.registerModules(deps)
	return r
}

// registerModules registers all Lua modules
func (r *Runtime) registerModules(deps RuntimeDeps) {
	script := ""
	if deps.Script != "" {
		script = filepath.Base(deps.Script)
	}
	r.L.PreloadModule("log", modules.NewLogModule(script).Loader)
	r.L.PreloadModule("lights", modules.NewLightsModule(deps.Console).Loader)
	r.L.PreloadModule("effects", modules.NewEffectsModule(deps.Console).Loader)
	r.L.PreloadModule("scenes", modules.NewScenesModule(deps.Console.Scenes()).Loader)

	if deps.KVManager != nil {
		r.L.PreloadModule("kv", modules.NewKVModule(deps.KVManager).Loader)
	}
	if deps.Scheduler != nil {
		r.L.PreloadModule("sched", modules.NewSchedModule(deps.Scheduler).Loader)
	}
}

// LoadScript loads and executes a Lua script
func (r *Runtime) LoadScript(path string) error {
	log.Info().Str("path", path).Msg("Loading Lua script")

	if err := r.L.DoFile(path); err != nil {
		return fmt.Errorf("failed to execute Lua script: %w", err)
	}

	log.Info().Msg("Lua script loaded successfully")
	return nil
}

// DoString executes a chunk of Lua source
func (r *Runtime) DoString(source string) error {
	return r.L.DoString(source)
}

// Close closes the Lua state
func (r *Runtime) Close() {
	r.L.Close()
}
