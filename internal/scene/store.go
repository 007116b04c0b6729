// Package scene stores named snapshots of the console (lights and effects) and the
// numbered quick-recall slots.
//
// Every failure is logged here and returned as an error; nothing in this package
// panics or stops the console. The store is not safe for concurrent use and is
// driven from the console's control goroutine.
package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/dmxconsole/internal/color"
	"github.com/dokzlo13/dmxconsole/internal/effects"
	"github.com/dokzlo13/dmxconsole/internal/light"
)

// Config controls the quick-slot naming scheme.
type Config struct {
	QuickSlots  int
	QuickPrefix string
}

// DefaultConfig returns six slots named Quick_0 .. Quick_5.
func DefaultConfig() Config {
	return Config{QuickSlots: 6, QuickPrefix: "Quick_"}
}

// Op identifies a store mutation reported to the listener.
type Op string

const (
	OpSaved    Op = "saved"
	OpLoaded   Op = "loaded"
	OpDeleted  Op = "deleted"
	OpImported Op = "imported"
	OpReset    Op = "reset"
)

// Change describes a successful store operation.
type Change struct {
	Op   Op
	Name string
}

// Info summarises a stored scene.
type Info struct {
	Name       string
	LightCount int
	LightsOn   int
	Colors     []color.RGB
	HasEffects bool
}

// Store maps scene names to snapshots and persists them through a Backend.
type Store struct {
	cfg      Config
	backend  Backend
	lights   []*light.Light
	engine   *effects.Engine
	scenes   map[string]Snapshot
	listener func(Change)
}

// NewStore creates a store for lights and engine (engine may be nil) and loads the
// persisted scenes. A backend that cannot be read leaves the store empty.
func NewStore(cfg Config, backend Backend, lights []*light.Light, engine *effects.Engine) *Store {
	if cfg.QuickPrefix == "" {
		cfg.QuickPrefix = DefaultConfig().QuickPrefix
	}
	if cfg.QuickSlots < 0 {
		cfg.QuickSlots = 0
	}

	s := &Store{
		cfg:     cfg,
		backend: backend,
		lights:  lights,
		engine:  engine,
		scenes:  make(map[string]Snapshot),
	}
	_ = s.Reload()
	return s
}

// OnChange registers fn to be called after every successful mutation or recall.
func (s *Store) OnChange(fn func(Change)) {
	s.listener = fn
}

// Reload replaces the in-memory scenes with the backend content. Malformed
// scenes are skipped individually.
func (s *Store) Reload() error {
	raw, err := s.backend.ReadAll()
	if err != nil {
		s.scenes = make(map[string]Snapshot)
		perr := &PersistenceError{Op: "read", Err: err}
		log.Error().Err(perr).Msg("Failed to load scenes, starting with an empty store")
		return perr
	}

	s.scenes = decodeScenes(raw, "backend")
	log.Info().Int("scenes", len(s.scenes)).Msg("Scenes loaded")
	return nil
}

// Save captures the current console state under name, replacing any scene with
// the same name, and persists the store.
func (s *Store) Save(name string) error {
	if err := s.validateName(name); err != nil {
		log.Warn().Err(err).Str("scene", name).Msg("Refusing to save scene")
		return err
	}
	return s.save(name)
}

// Load applies the scene called name. An unknown name leaves the console untouched.
func (s *Store) Load(name string) error {
	snap, ok := s.scenes[name]
	if !ok {
		err := fmt.Errorf("%w: %q", ErrNotFound, name)
		log.Warn().Str("scene", name).Msg("Scene not found")
		return err
	}

	s.apply(snap)
	log.Info().Str("scene", name).Bool("effects", snap.HasEffects()).Msg("Scene loaded")
	s.notify(OpLoaded, name)
	return nil
}

// Delete removes the scene called name and persists the store.
func (s *Store) Delete(name string) error {
	if _, ok := s.scenes[name]; !ok {
		err := fmt.Errorf("%w: %q", ErrNotFound, name)
		log.Warn().Str("scene", name).Msg("Cannot delete unknown scene")
		return err
	}

	delete(s.scenes, name)
	if err := s.persist(); err != nil {
		return err
	}

	log.Info().Str("scene", name).Msg("Scene deleted")
	s.notify(OpDeleted, name)
	return nil
}

// Exists reports whether a scene called name is stored.
func (s *Store) Exists(name string) bool {
	_, ok := s.scenes[name]
	return ok
}

// ListNamed returns the user scene names (quick slots excluded), sorted.
func (s *Store) ListNamed() []string {
	names := make([]string, 0, len(s.scenes))
	for name := range s.scenes {
		if !s.isQuickName(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ListAll returns every stored key including quick slots, sorted.
func (s *Store) ListAll() []string {
	names := make([]string, 0, len(s.scenes))
	for name := range s.scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// QuickSlots returns the number of quick slots.
func (s *Store) QuickSlots() int {
	return s.cfg.QuickSlots
}

// QuickName returns the scene key of slot i.
func (s *Store) QuickName(i int) (string, error) {
	if i < 0 || i >= s.cfg.QuickSlots {
		return "", fmt.Errorf("%w: quick slot %d out of range [0,%d)", ErrValidation, i, s.cfg.QuickSlots)
	}
	return s.cfg.QuickPrefix + strconv.Itoa(i), nil
}

// QuickSave stores the current state in slot i.
func (s *Store) QuickSave(i int) error {
	name, err := s.QuickName(i)
	if err != nil {
		log.Warn().Err(err).Msg("Refusing to save quick slot")
		return err
	}
	return s.save(name)
}

// QuickLoad recalls slot i.
func (s *Store) QuickLoad(i int) error {
	name, err := s.QuickName(i)
	if err != nil {
		log.Warn().Err(err).Msg("Refusing to load quick slot")
		return err
	}
	return s.Load(name)
}

// QuickExists reports whether slot i is programmed. Out-of-range slots never are.
func (s *Store) QuickExists(i int) bool {
	name, err := s.QuickName(i)
	if err != nil {
		return false
	}
	return s.Exists(name)
}

// QuickDelete clears slot i.
func (s *Store) QuickDelete(i int) error {
	name, err := s.QuickName(i)
	if err != nil {
		log.Warn().Err(err).Msg("Refusing to delete quick slot")
		return err
	}
	return s.Delete(name)
}

// ClearQuick deletes every programmed quick slot and returns how many were removed.
func (s *Store) ClearQuick() (int, error) {
	cleared := 0
	for i := 0; i < s.cfg.QuickSlots; i++ {
		name, _ := s.QuickName(i)
		if _, ok := s.scenes[name]; ok {
			delete(s.scenes, name)
			cleared++
		}
	}
	if cleared == 0 {
		return 0, nil
	}

	if err := s.persist(); err != nil {
		return cleared, err
	}

	log.Info().Int("cleared", cleared).Msg("Quick slots cleared")
	s.notify(OpDeleted, s.cfg.QuickPrefix+"*")
	return cleared, nil
}

// Reset deletes every scene, quick slots included.
func (s *Store) Reset() error {
	s.scenes = make(map[string]Snapshot)
	if err := s.persist(); err != nil {
		return err
	}
	log.Info().Msg("Scene store reset")
	s.notify(OpReset, "")
	return nil
}

// Info summarises the scene called name.
func (s *Store) Info(name string) (Info, error) {
	snap, ok := s.scenes[name]
	if !ok {
		return Info{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	info := Info{
		Name:       name,
		LightCount: len(snap.Lights),
		HasEffects: snap.HasEffects(),
	}

	seen := make(map[color.RGB]bool)
	for _, st := range snap.Lights {
		if st.IsOn {
			info.LightsOn++
		}
		if !seen[st.Color] {
			seen[st.Color] = true
			info.Colors = append(info.Colors, st.Color)
		}
	}
	sort.Slice(info.Colors, func(i, j int) bool {
		return info.Colors[i].Hex() < info.Colors[j].Hex()
	})

	return info, nil
}

// Export writes every scene to a standalone JSON file at path.
func (s *Store) Export(path string) error {
	raw, err := encodeScenes(s.scenes)
	if err != nil {
		return s.persistenceFailure("export", err)
	}
	if err := writeDocument(path, raw); err != nil {
		return s.persistenceFailure("export", err)
	}

	log.Info().Str("path", path).Int("scenes", len(raw)).Msg("Scenes exported")
	return nil
}

// Import merges the valid scenes found in the JSON file at path, overwriting
// scenes with the same name, persists the store and returns how many were merged.
func (s *Store) Import(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, s.persistenceFailure("import", err)
	}
	raw, err := decodeDocument(data)
	if err != nil {
		return 0, s.persistenceFailure("import", err)
	}

	imported := decodeScenes(raw, path)
	for name, snap := range imported {
		s.scenes[name] = snap
	}
	if err := s.persist(); err != nil {
		return len(imported), err
	}

	log.Info().Str("path", path).Int("scenes", len(imported)).Msg("Scenes imported")
	s.notify(OpImported, path)
	return len(imported), nil
}

func (s *Store) save(name string) error {
	snap := s.capture()
	s.scenes[name] = snap
	if err := s.persist(); err != nil {
		return err
	}

	log.Info().Str("scene", name).Int("lights", len(snap.Lights)).Msg("Scene saved")
	s.notify(OpSaved, name)
	return nil
}

func (s *Store) capture() Snapshot {
	snap := Snapshot{Lights: make(map[int]light.State, len(s.lights))}
	for _, l := range s.lights {
		snap.Lights[l.ID()] = l.State()
	}
	if s.engine != nil {
		st := s.engine.State()
		snap.Effects = &st
	}
	return snap
}

func (s *Store) apply(snap Snapshot) {
	for id, st := range snap.Lights {
		if id < 0 || id >= len(s.lights) {
			log.Debug().Int("light", id).Msg("Ignoring state for unknown light")
			continue
		}
		s.lights[id].SetState(st)
	}

	if s.engine == nil {
		return
	}
	if snap.Effects != nil {
		s.engine.SetState(*snap.Effects)
	} else {
		s.engine.StopAll()
	}
}

func (s *Store) persist() error {
	raw, err := encodeScenes(s.scenes)
	if err != nil {
		return s.persistenceFailure("encode", err)
	}
	if err := s.backend.WriteAll(raw); err != nil {
		return s.persistenceFailure("write", err)
	}
	return nil
}

func (s *Store) persistenceFailure(op string, err error) error {
	perr := &PersistenceError{Op: op, Err: err}
	log.Error().Err(perr).Msg("Scene persistence failed")
	return perr
}

func (s *Store) notify(op Op, name string) {
	if s.listener != nil {
		s.listener(Change{Op: op, Name: name})
	}
}

func (s *Store) validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty scene name", ErrValidation)
	}
	if s.isQuickName(name) {
		return fmt.Errorf("%w: scene name %q uses the reserved prefix %q", ErrValidation, name, s.cfg.QuickPrefix)
	}
	return nil
}

func (s *Store) isQuickName(name string) bool {
	return strings.HasPrefix(name, s.cfg.QuickPrefix)
}

func encodeScenes(scenes map[string]Snapshot) (map[string]json.RawMessage, error) {
	raw := make(map[string]json.RawMessage, len(scenes))
	for name, snap := range scenes {
		data, err := json.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("scene %q: %w", name, err)
		}
		raw[name] = data
	}
	return raw, nil
}

func decodeScenes(raw map[string]json.RawMessage, source string) map[string]Snapshot {
	scenes := make(map[string]Snapshot, len(raw))
	for name, data := range raw {
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			log.Warn().Err(err).Str("scene", name).Str("source", source).Msg("Skipping malformed scene")
			continue
		}
		scenes[name] = snap
	}
	return scenes
}
