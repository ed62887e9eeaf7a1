// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package status holds what the glove dashboard shows: click state,
// last motion event, selected channel and the latest tilt.
package status

import (
	"strconv"
	"sync"

	"github.com/relabs-tech/glove_controller/internal/force"
	"github.com/relabs-tech/glove_controller/internal/motion"
	"github.com/relabs-tech/glove_controller/internal/orientation"
)

const maxChannel = 3

// GUIState is published on the GUI topic and forwarded by the telemetry
// bridge.
type GUIState struct {
	Click   string `json:"click"`   // "pressed" / "not_pressed"
	Motion  string `json:"motion"`  // "lifting" / "dropping" / "stationary" / "error"
	Channel string `json:"channel"` // "1".."3"
}

// View is the full dashboard snapshot sent to websocket clients.
type View struct {
	GUIState
	MotionEvent string            `json:"motion_event"`
	Pose        *orientation.Pose `json:"pose,omitempty"`
}

// Board is safe for concurrent use by MQTT callbacks and HTTP handlers.
type Board struct {
	mu      sync.RWMutex
	click   string
	motion  string
	channel int
	pose    orientation.Pose
	hasPose bool
}

// NewBoard starts released, stationary, on channel 1.
func NewBoard() *Board {
	return &Board{
		click:   force.Released.String(),
		motion:  motion.Stationary.String(),
		channel: 1,
	}
}

// SetClick stores the raw click wire value.
func (b *Board) SetClick(v string) {
	b.mu.Lock()
	b.click = v
	b.mu.Unlock()
}

// SetMotion stores the raw motion wire value, even if it is unknown.
func (b *Board) SetMotion(v string) {
	b.mu.Lock()
	b.motion = v
	b.mu.Unlock()
}

// SetSample updates the tilt from the latest accelerometer sample.
func (b *Board) SetSample(s motion.Sample) {
	p := orientation.FromSample(s)
	b.mu.Lock()
	b.pose = p
	b.hasPose = true
	b.mu.Unlock()
}

// SwitchChannel cycles 1 → 2 → 3 → 1 and returns the new channel.
func (b *Board) SwitchChannel() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channel = b.channel%maxChannel + 1
	return b.channel
}

// Channel returns the selected channel.
func (b *Board) Channel() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.channel
}

// GUIState maps the raw values to the labels the platform expects.
func (b *Board) GUIState() GUIState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.guiStateLocked()
}

func (b *Board) guiStateLocked() GUIState {
	click := "not_pressed"
	if force.ParseClick(b.click) == force.Pressed {
		click = "pressed"
	}
	return GUIState{
		Click:   click,
		Motion:  MotionLabel(b.motion),
		Channel: strconv.Itoa(b.channel),
	}
}

// View returns everything the dashboard renders.
func (b *Board) View() View {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v := View{GUIState: b.guiStateLocked(), MotionEvent: b.motion}
	if b.hasPose {
		p := b.pose
		v.Pose = &p
	}
	return v
}

// MotionLabel maps a motion event wire name to its GUI label.
func MotionLabel(event string) string {
	ev, err := motion.ParseEvent(event)
	switch {
	case err != nil:
		return "error"
	case ev.IsLift():
		return "lifting"
	case ev.IsDrop():
		return "dropping"
	case ev == motion.Stationary:
		return "stationary"
	}
	return "error"
}
