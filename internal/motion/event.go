// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motion

import "fmt"

// Event is a motion event produced by the classifier.
// The zero value None means "nothing to report this tick".
type Event int

const (
	None Event = iota
	LiftStart
	LiftComplete
	DropStart
	DropComplete
	Stationary
)

var eventNames = map[Event]string{
	None:         "",
	LiftStart:    "LIFT_START",
	LiftComplete: "LIFT_COMPLETE",
	DropStart:    "DROP_START",
	DropComplete: "DROP_COMPLETE",
	Stationary:   "STATIONARY",
}

// String returns the wire name published on the motion topic.
func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// MarshalText implements encoding.TextMarshaler.
func (e Event) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Event) UnmarshalText(b []byte) error {
	ev, err := ParseEvent(string(b))
	if err != nil {
		return err
	}
	*e = ev
	return nil
}

// ParseEvent maps a wire name back to an Event.
func ParseEvent(s string) (Event, error) {
	for ev, name := range eventNames {
		if ev != None && name == s {
			return ev, nil
		}
	}
	return None, fmt.Errorf("unknown motion event %q", s)
}

// IsLift reports whether e belongs to a lift motion.
func (e Event) IsLift() bool { return e == LiftStart || e == LiftComplete }

// IsDrop reports whether e belongs to a drop motion.
func (e Event) IsDrop() bool { return e == DropStart || e == DropComplete }

// State is the classifier's motion state. Exactly one is active.
type State int

const (
	StateStationary State = iota
	StateLiftInProgress
	StateDropInProgress
)

func (s State) String() string {
	switch s {
	case StateStationary:
		return "stationary"
	case StateLiftInProgress:
		return "lifting"
	case StateDropInProgress:
		return "dropping"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// InProgress reports whether a lift or drop has started but not completed.
func (s State) InProgress() bool { return s != StateStationary }
