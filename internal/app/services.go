package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/dmxconsole/internal/config"
	"github.com/dokzlo13/dmxconsole/internal/console"
	"github.com/dokzlo13/dmxconsole/internal/db"
	"github.com/dokzlo13/dmxconsole/internal/eventbus"
	"github.com/dokzlo13/dmxconsole/internal/ledger"
	"github.com/dokzlo13/dmxconsole/internal/scene"
	"github.com/dokzlo13/dmxconsole/internal/storage/kv"
)

// scenesBucket is the kv bucket holding scenes for the sqlite and memory backends
const scenesBucket = "scenes"

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg     *config.Config
	session string

	// Core infrastructure
	DB     *db.DB // nil unless a component stores data in SQLite
	KV     *kv.Manager
	Ledger *ledger.Ledger // nil when the ledger is disabled
	Bus    *eventbus.Bus

	// Console and its control goroutine
	Console *console.Console
	Driver  *Driver

	// High-level services
	Scheduler *SchedulerService
	Lua       *LuaService // nil when no script is configured

	started bool
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config, session string) (*Services, error) {
	s := &Services{cfg: cfg, session: session}

	// Initialize database
	if cfg.NeedsDatabase() {
		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		s.DB = database
		s.KV = kv.NewManager(database.DB)
	} else {
		s.KV = kv.NewManager(nil)
	}

	// Initialize event bus
	s.Bus = eventbus.NewWithConfig(cfg.EventBus.GetWorkers(), cfg.EventBus.GetQueueSize())

	// Initialize ledger and record every console event
	if cfg.Ledger.Enabled {
		s.Ledger = ledger.New(s.DB.DB, session)
		subscribeLedger(s.Bus, s.Ledger)
	}

	// Initialize console
	backend, err := s.sceneBackend()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Console = console.New(consoleConfig(cfg), backend, s.Bus)

	// Initialize driver
	var renderer Renderer
	if cfg.Render.Enabled {
		renderer = NewLogRenderer(cfg.Render.MaxPerSec)
	}
	s.Driver = NewDriver(s.Console, renderer, cfg.Effects.TickInterval.Duration(), 0)

	// Initialize scheduler service
	s.Scheduler, err = NewSchedulerService(cfg, s.Driver, s.Bus, s.Console, s.Ledger)
	if err != nil {
		s.Close()
		return nil, err
	}

	// Initialize Lua service
	s.Lua = NewLuaService(cfg, s.Console, s.Scheduler.Scheduler, s.KV)

	return s, nil
}

// sceneBackend selects where scenes are persisted
func (s *Services) sceneBackend() (scene.Backend, error) {
	switch s.cfg.Scenes.Backend {
	case config.BackendFile:
		return scene.NewFileBackend(s.cfg.Scenes.File), nil
	case config.BackendSQLite:
		return scene.NewBucketBackend(s.KV.Bucket(scenesBucket, true)), nil
	case config.BackendMemory:
		return scene.NewBucketBackend(s.KV.Bucket(scenesBucket, false)), nil
	default:
		return nil, fmt.Errorf("unknown scene backend %q", s.cfg.Scenes.Backend)
	}
}

// consoleConfig converts the YAML config for the console
func consoleConfig(cfg *config.Config) console.Config {
	return console.Config{
		Lights:    cfg.Lights.Count,
		Bounds:    cfg.Lights.Bounds(),
		Color:     cfg.Lights.Color(),
		Intensity: cfg.Lights.Intensity(),
		Effects:   cfg.Effects.Engine(),
		Scenes:    cfg.Scenes.Store(),
	}
}

// subscribeLedger appends every console event to the ledger
func subscribeLedger(bus *eventbus.Bus, l *ledger.Ledger) {
	record := func(e eventbus.Event) {
		if err := l.Append(e.Type, e.Data); err != nil {
			log.Warn().Err(err).Str("event_type", string(e.Type)).Msg("Failed to record event in ledger")
		}
	}
	for _, t := range eventbus.AllEventTypes {
		bus.Subscribe(t, record)
	}
}

// Start starts all services in the correct order.
func (s *Services) Start(ctx context.Context) error {
	// Run the show script before the driver owns the console
	if s.Lua != nil {
		if err := s.Lua.LoadScript(); err != nil {
			return err
		}
	}

	// Start all background services
	go s.Driver.Run(ctx)
	s.Scheduler.Start(ctx)
	s.started = true

	return nil
}

// ResetScenes clears the scene store. Must be called before Start.
func (s *Services) ResetScenes() error {
	return s.Console.Scenes().Reset()
}

// Stop gracefully stops all services, waiting at most until ctx expires.
func (s *Services) Stop(ctx context.Context) error {
	if !s.started {
		s.Close()
		return nil
	}

	s.Scheduler.Stop(ctx)

	if s.Driver != nil {
		s.Driver.Close()
		select {
		case <-s.Driver.Done():
		case <-ctx.Done():
			log.Warn().Msg("Console driver did not stop in time")
		}
	}

	s.Bus.Close(ctx)
	s.release()
	return nil
}

// Close releases all resources without waiting for background work.
func (s *Services) Close() {
	if s.Bus != nil {
		s.Bus.Close(context.Background())
	}
	s.release()
}

// Session returns the id of this process run
func (s *Services) Session() string {
	return s.session
}

func (s *Services) release() {
	if s.Lua != nil {
		s.Lua.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}
