package env

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Action sets one actuator output.
type Action struct {
	Device string // "fan" or "led"
	On     bool
}

// Automation switches the fan and LED on while the temperature is at or
// above Threshold. Each output is only driven while its rule is enabled,
// so a disabled output stays under manual control.
type Automation struct {
	mu        sync.Mutex
	threshold float64
	fanAuto   bool
	ledAuto   bool
	interval  time.Duration
}

// NewAutomation returns the automation with its initial rules.
func NewAutomation(threshold float64, fanAuto, ledAuto bool, interval time.Duration) *Automation {
	return &Automation{threshold: threshold, fanAuto: fanAuto, ledAuto: ledAuto, interval: interval}
}

// Interval is the publish interval for readings.
func (a *Automation) Interval() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.interval
}

// Threshold returns the current temperature threshold in °C.
func (a *Automation) Threshold() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.threshold
}

// Actions returns the outputs to drive for r. Nothing is driven without a
// temperature.
func (a *Automation) Actions(r Reading) []Action {
	if r.Temperature == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	hot := *r.Temperature >= a.threshold
	var out []Action
	if a.fanAuto {
		out = append(out, Action{Device: "fan", On: hot})
	}
	if a.ledAuto {
		out = append(out, Action{Device: "led", On: hot})
	}
	return out
}

type rulesUpdate struct {
	TempThreshold  *float64 `json:"temp_threshold"`
	UpdateInterval *int     `json:"update_interval"` // seconds
	FireFunctionA  *bool    `json:"fireFunctionA"`
	FireFunctionB  *bool    `json:"fireFunctionB"`
}

// Apply updates the rules from a config message. The keys may sit at the
// top level or inside "data". It reports whether any rule changed; an
// invalid message changes nothing.
func (a *Automation) Apply(payload []byte) (bool, error) {
	var outer struct {
		rulesUpdate
		Data *rulesUpdate `json:"data"`
	}
	if err := json.Unmarshal(payload, &outer); err != nil {
		return false, fmt.Errorf("env config: %w", err)
	}
	u := outer.rulesUpdate
	if outer.Data != nil {
		u = merge(u, *outer.Data)
	}
	if u.UpdateInterval != nil && *u.UpdateInterval < 1 {
		return false, fmt.Errorf("env config: update_interval must be at least 1 second, got %d", *u.UpdateInterval)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	changed := false
	if u.TempThreshold != nil {
		a.threshold = *u.TempThreshold
		changed = true
	}
	if u.UpdateInterval != nil {
		a.interval = time.Duration(*u.UpdateInterval) * time.Second
		changed = true
	}
	if u.FireFunctionA != nil {
		a.fanAuto = *u.FireFunctionA
		changed = true
	}
	if u.FireFunctionB != nil {
		a.ledAuto = *u.FireFunctionB
		changed = true
	}
	return changed, nil
}

// merge prefers the fields set in data over the top-level ones.
func merge(top, data rulesUpdate) rulesUpdate {
	if data.TempThreshold != nil {
		top.TempThreshold = data.TempThreshold
	}
	if data.UpdateInterval != nil {
		top.UpdateInterval = data.UpdateInterval
	}
	if data.FireFunctionA != nil {
		top.FireFunctionA = data.FireFunctionA
	}
	if data.FireFunctionB != nil {
		top.FireFunctionB = data.FireFunctionB
	}
	return top
}
