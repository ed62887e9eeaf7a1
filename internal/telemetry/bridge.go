// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry forwards the glove's GUI state to the platform's
// per-device data topic and applies interval updates from its config topic.
package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/relabs-tech/glove_controller/internal/status"
)

// ErrIntervalTooShort is returned for config messages below MinInterval.
var ErrIntervalTooShort = errors.New("update interval below minimum")

// Data is the "data" object of a platform message.
type Data struct {
	GeneratedNumber int    `json:"generatedNumber"`
	TestBool        bool   `json:"testBool"`
	GUIClick        string `json:"gui-click"`
	GUIMotion       string `json:"gui-motion"`
	GUIChannel      string `json:"gui-channel"`
}

// Message is published on the platform data topic.
type Message struct {
	DeviceID  string `json:"device_id"`
	Timestamp int64  `json:"timestamp"` // milliseconds
	Data      Data   `json:"data"`
}

type configMessage struct {
	Data struct {
		UpdateInterval *json.Number `json:"updateInterval"`
	} `json:"data"`
}

// Bridge holds the state shared between the MQTT callbacks and the
// publish loop.
type Bridge struct {
	deviceID  string
	prefsPath string
	rng       *rand.Rand

	mu       sync.Mutex
	prefs    Prefs
	gui      *status.GUIState
	lastSent time.Time
}

// NewBridge creates a bridge with the given prefs. prefsPath may be empty
// to skip persistence.
func NewBridge(deviceID, prefsPath string, prefs Prefs) *Bridge {
	return &Bridge{
		deviceID:  deviceID,
		prefsPath: prefsPath,
		prefs:     prefs,
		rng:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
}

// Interval returns the current publish interval.
func (b *Bridge) Interval() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return time.Duration(b.prefs.UpdateInterval) * time.Millisecond
}

// HandleGUI stores the latest GUI state message.
func (b *Bridge) HandleGUI(payload []byte) error {
	var g status.GUIState
	if err := json.Unmarshal(payload, &g); err != nil {
		return fmt.Errorf("gui message: %w", err)
	}
	b.mu.Lock()
	b.gui = &g
	b.mu.Unlock()
	return nil
}

// HandleConfig applies {"data":{"updateInterval":N}}. Messages without the
// field are ignored. Accepted intervals are persisted.
func (b *Bridge) HandleConfig(payload []byte) (bool, error) {
	var msg configMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return false, fmt.Errorf("config message: %w", err)
	}
	if msg.Data.UpdateInterval == nil {
		return false, nil
	}
	// Accept both 2000 and 2000.0 style numbers.
	f, err := msg.Data.UpdateInterval.Float64()
	if err != nil {
		return false, fmt.Errorf("config message: updateInterval: %w", err)
	}
	if f != math.Trunc(f) || f > math.MaxInt32 {
		return false, fmt.Errorf("config message: updateInterval %s is not a valid millisecond count", *msg.Data.UpdateInterval)
	}
	if f < MinInterval {
		return false, fmt.Errorf("%w: %s < %d", ErrIntervalTooShort, *msg.Data.UpdateInterval, MinInterval)
	}
	n := int(f)

	b.mu.Lock()
	b.prefs.UpdateInterval = n
	prefs := b.prefs
	b.mu.Unlock()

	if b.prefsPath != "" {
		if err := prefs.Save(b.prefsPath); err != nil {
			log.Printf("telemetry: %v", err)
		}
	}
	return true, nil
}

// Due reports whether a message should be published at now, and marks it
// as sent if so.
func (b *Bridge) Due(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.lastSent.IsZero() && now.Sub(b.lastSent) < time.Duration(b.prefs.UpdateInterval)*time.Millisecond {
		return false
	}
	b.lastSent = now
	return true
}

// Message builds the platform message for now. GUI fields read "error"
// until a GUI state has been received.
func (b *Bridge) Message(now time.Time) Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	d := Data{
		GeneratedNumber: b.rng.IntN(1000),
		TestBool:        true,
		GUIClick:        "error",
		GUIMotion:       "error",
		GUIChannel:      "error",
	}
	if b.gui != nil {
		d.GUIClick = orError(b.gui.Click)
		d.GUIMotion = orError(b.gui.Motion)
		d.GUIChannel = orError(b.gui.Channel)
	}
	return Message{
		DeviceID:  b.deviceID,
		Timestamp: now.UnixMilli(),
		Data:      d,
	}
}

func orError(s string) string {
	if s == "" {
		return "error"
	}
	return s
}
