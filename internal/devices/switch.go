// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package devices drives the home-automation actuators the glove controls
// over MQTT: fan and LED outputs, a buzzer, a push button and a small
// status display.
package devices

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"periph.io/x/conn/v3/gpio"
)

// Output is the part of gpio.PinOut a switch needs.
type Output interface {
	Out(l gpio.Level) error
}

// Switch is an on/off GPIO actuator controlled by one key of the "data"
// object, e.g. {"data":{"fan":"true"}}.
type Switch struct {
	Name  string // payload key and log prefix
	Pin   Output
	OnSet func(on bool) // optional, called after every successful Set

	mu    sync.Mutex
	on    bool
	known bool
}

// Handle applies a payload. Payloads without the key are ignored.
func (s *Switch) Handle(payload []byte) error {
	var msg struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%s: %w", s.Name, err)
	}
	raw, ok := msg.Data[s.Name]
	if !ok {
		return nil
	}
	on, err := parseState(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", s.Name, err)
	}
	return s.Set(on)
}

// Set drives the pin high (on) or low (off).
func (s *Switch) Set(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(on)
}

// Ensure drives the pin only if its last known state differs from on,
// and reports whether it did.
func (s *Switch) Ensure(on bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.known && s.on == on {
		return false, nil
	}
	return true, s.setLocked(on)
}

func (s *Switch) setLocked(on bool) error {
	if err := s.Pin.Out(gpio.Level(on)); err != nil {
		return fmt.Errorf("%s: set %v: %w", s.Name, on, err)
	}
	s.on, s.known = on, true
	if on {
		log.Printf("%s: ON", s.Name)
	} else {
		log.Printf("%s: OFF", s.Name)
	}
	if s.OnSet != nil {
		s.OnSet(on)
	}
	return nil
}

// parseState accepts true/false as JSON booleans or strings. Any string
// other than "true" switches off.
func parseState(raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, fmt.Errorf("invalid state %s", string(raw))
	}
	return strings.EqualFold(s, "true"), nil
}
