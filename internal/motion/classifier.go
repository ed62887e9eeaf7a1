// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package motion classifies a stream of accelerometer samples into
// lift, drop and stationary events using a moving average of the z axis.
package motion

import (
	"fmt"
	"sync"
	"time"
)

// Config holds the classifier thresholds and timing guards.
type Config struct {
	LiftThreshold  float64       // g; smoothed z above this starts a lift
	DropThreshold  float64       // g; smoothed z below this starts a drop
	WindowSize     int           // samples in the moving average
	MotionDuration time.Duration // minimum hold before a motion completes
	Cooldown       time.Duration // minimum gap after a completion
}

// DefaultConfig returns the values tuned on the glove prototype.
func DefaultConfig() Config {
	return Config{
		LiftThreshold:  1.2,
		DropThreshold:  0.8,
		WindowSize:     10,
		MotionDuration: 300 * time.Millisecond,
		Cooldown:       500 * time.Millisecond,
	}
}

// Validate rejects configurations the classifier cannot run with.
func (c Config) Validate() error {
	if c.WindowSize < 1 {
		return fmt.Errorf("window size must be >= 1, got %d", c.WindowSize)
	}
	if c.DropThreshold >= c.LiftThreshold {
		return fmt.Errorf("drop threshold %.3f must be below lift threshold %.3f", c.DropThreshold, c.LiftThreshold)
	}
	if c.MotionDuration < 0 || c.Cooldown < 0 {
		return fmt.Errorf("motion duration and cooldown must not be negative")
	}
	return nil
}

// Snapshot is a consistent copy of the classifier state.
type Snapshot struct {
	State     State
	Samples   int
	AvgZ      float64 // zero until the window is full
	Announced Event   // last event returned by Evaluate
	Latest    Sample
}

// Classifier is a small finite-state machine over the smoothed z axis.
//
// Push and Evaluate may be called from different goroutines; a single
// mutex guards the history and the state fields together.
type Classifier struct {
	cfg Config

	mu             sync.Mutex
	hist           *history
	state          State
	motionStart    float64
	lastCompletion float64
	completed      bool
	announced      Event
}

// New returns a classifier for cfg. It panics on an invalid config;
// callers loading values from a file should call cfg.Validate first.
func New(cfg Config) *Classifier {
	if err := cfg.Validate(); err != nil {
		panic("motion: " + err.Error())
	}
	return &Classifier{
		cfg:  cfg,
		hist: newHistory(cfg.WindowSize),
	}
}

// Config returns the configuration the classifier was built with.
func (c *Classifier) Config() Config { return c.cfg }

// Push appends a sample to the history, evicting the oldest one when
// the window is full. No decision is taken here.
func (c *Classifier) Push(s Sample) {
	c.mu.Lock()
	c.hist.push(s)
	c.mu.Unlock()
}

// Evaluate runs one classifier tick at time now (seconds, same clock as
// the sample timestamps) and returns at most one event.
func (c *Classifier) Evaluate(now float64) Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hist.len() < c.cfg.WindowSize {
		return None
	}
	avgZ := c.hist.meanZ()

	ev := None
	if !c.inCooldown(now) {
		ev = c.step(now, avgZ)
	}

	// Stationary is edge-triggered and only reported on ticks that did
	// not already produce a motion event.
	if ev == None && !c.state.InProgress() && c.inBand(avgZ) && c.announced != Stationary {
		ev = Stationary
	}

	if ev != None {
		c.announced = ev
	}
	return ev
}

func (c *Classifier) step(now, avgZ float64) Event {
	if !c.state.InProgress() {
		switch {
		case avgZ > c.cfg.LiftThreshold:
			c.state = StateLiftInProgress
			c.motionStart = now
			return LiftStart
		case avgZ < c.cfg.DropThreshold:
			c.state = StateDropInProgress
			c.motionStart = now
			return DropStart
		}
		return None
	}

	if !c.inBand(avgZ) {
		return None
	}
	// Returning to the band before the minimum duration keeps the motion
	// in progress; it is never cancelled here.
	if now-c.motionStart < c.cfg.MotionDuration.Seconds() {
		return None
	}

	done := LiftComplete
	if c.state == StateDropInProgress {
		done = DropComplete
	}
	c.state = StateStationary
	c.lastCompletion = now
	c.completed = true
	return done
}

func (c *Classifier) inCooldown(now float64) bool {
	return c.completed && now-c.lastCompletion < c.cfg.Cooldown.Seconds()
}

func (c *Classifier) inBand(avgZ float64) bool {
	return avgZ > c.cfg.DropThreshold && avgZ < c.cfg.LiftThreshold
}

// State returns the current motion state.
func (c *Classifier) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the classifier state for display.
func (c *Classifier) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:     c.state,
		Samples:   c.hist.len(),
		Announced: c.announced,
	}
	if snap.Samples >= c.cfg.WindowSize {
		snap.AvgZ = c.hist.meanZ()
	}
	snap.Latest, _ = c.hist.latest()
	return snap
}

// Reset clears the history and returns to the initial state.
func (c *Classifier) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hist.reset()
	c.state = StateStationary
	c.motionStart = 0
	c.lastCompletion = 0
	c.completed = false
	c.announced = None
}
