package app

import (
	"github.com/dokzlo13/dmxconsole/internal/config"
	"github.com/dokzlo13/dmxconsole/internal/console"
	luart "github.com/dokzlo13/dmxconsole/internal/lua"
	"github.com/dokzlo13/dmxconsole/internal/scheduler"
	"github.com/dokzlo13/dmxconsole/internal/storage/kv"
)

// LuaService wraps the Lua runtime. The script runs once on Start, before the
// driver begins ticking; scheduled Lua callbacks run later on the driver.
type LuaService struct {
	cfg     *config.Config
	Runtime *luart.Runtime
}

// NewLuaService creates a new LuaService, or nil when no script is configured.
func NewLuaService(cfg *config.Config, c *console.Console, sched *scheduler.Scheduler, kvm *kv.Manager) *LuaService {
	if cfg.Script == "" {
		return nil
	}

	runtime := luart.NewRuntime(luart.RuntimeDeps{
		Console:   c,
		Scheduler: sched,
		KVManager: kvm,
		Script:    cfg.Script,
	})

	return &LuaService{
		cfg:     cfg,
		Runtime: runtime,
	}
}

// LoadScript loads and executes the Lua script.
// Must be called before the driver starts.
func (s *LuaService) LoadScript() error {
	return s.Runtime.LoadScript(s.cfg.Script)
}

// Close closes the Lua runtime.
func (s *LuaService) Close() {
	if s.Runtime != nil {
		s.Runtime.Close()
	}
}
