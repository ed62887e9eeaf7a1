package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultInterval is the publish interval in milliseconds used when no
// preferences file exists.
const DefaultInterval = 6000

// MinInterval is the smallest interval accepted from a config message.
const MinInterval = 1000

// Prefs is the locally persisted bridge state.
type Prefs struct {
	UpdateInterval int `json:"updateInterval"`
}

// LoadPrefs reads path. A missing or unreadable file yields the default
// interval together with the reason, which callers only log.
func LoadPrefs(path string, def int) (Prefs, error) {
	p := Prefs{UpdateInterval: def}

	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("load prefs: %w", err)
	}
	var stored Prefs
	if err := json.Unmarshal(b, &stored); err != nil {
		return p, fmt.Errorf("load prefs %s: %w", path, err)
	}
	if stored.UpdateInterval > 0 {
		p.UpdateInterval = stored.UpdateInterval
	}
	return p, nil
}

// Save writes the prefs atomically next to path.
func (p Prefs) Save(path string) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("save prefs: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("save prefs: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("save prefs: %w", err)
	}
	return nil
}
