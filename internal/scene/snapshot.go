package scene

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dokzlo13/dmxconsole/internal/effects"
	"github.com/dokzlo13/dmxconsole/internal/light"
)

// Snapshot is one stored scene: every light's state and, optionally, the effect
// engine state.
//
// Its JSON form is {"projectors": {"<id>": {...}}, "effects": {...} | null}. Older
// files stored the projectors map directly as the scene object; those decode with
// a nil Effects.
type Snapshot struct {
	Lights  map[int]light.State `json:"projectors"`
	Effects *effects.State      `json:"effects"`
}

// HasEffects reports whether the snapshot carries effect data.
func (s Snapshot) HasEffects() bool {
	return s.Effects != nil
}

// UnmarshalJSON accepts both the current and the legacy scene layout.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("scene must be an object: %w", err)
	}
	if fields == nil {
		return errors.New("scene must be an object, got null")
	}

	raw, ok := fields["projectors"]
	if !ok {
		// Legacy layout: the whole object is the projectors map.
		var lights map[int]light.State
		if err := json.Unmarshal(data, &lights); err != nil {
			return fmt.Errorf("invalid legacy scene: %w", err)
		}
		*s = Snapshot{Lights: lights}
		return nil
	}

	var decoded Snapshot
	if err := json.Unmarshal(raw, &decoded.Lights); err != nil {
		return fmt.Errorf("invalid projectors: %w", err)
	}
	if rawEffects, ok := fields["effects"]; ok {
		if err := json.Unmarshal(rawEffects, &decoded.Effects); err != nil {
			return fmt.Errorf("invalid effects: %w", err)
		}
	}

	*s = decoded
	return nil
}
