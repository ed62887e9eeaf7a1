// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/relabs-tech/glove_controller/internal/motion"
)

// ErrMalformed is returned for payloads missing an axis or the timestamp.
var ErrMalformed = errors.New("malformed imu payload")

// Accel is an acceleration vector in g.
type Accel struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

// Payload is the JSON message published on the IMU topic:
//
//	{"accel":{"x":0.01,"y":-0.02,"z":1.00},"timestamp":1712.345}
type Payload struct {
	Accel     *Accel   `json:"accel"`
	Timestamp *float64 `json:"timestamp"`
}

// NewPayload builds a payload from a sample.
func NewPayload(s motion.Sample) Payload {
	x, y, z, ts := s.AccelX, s.AccelY, s.AccelZ, s.Timestamp
	return Payload{
		Accel:     &Accel{X: &x, Y: &y, Z: &z},
		Timestamp: &ts,
	}
}

// ToSample converts raw counts into a sample in g at timestamp ts (seconds).
func ToSample(raw IMURaw, accelRange byte, ts float64) motion.Sample {
	return motion.Sample{
		AccelX:    CountsToG(raw.Ax, accelRange),
		AccelY:    CountsToG(raw.Ay, accelRange),
		AccelZ:    CountsToG(raw.Az, accelRange),
		Timestamp: ts,
	}
}

// EncodeSample marshals a sample into the wire format.
func EncodeSample(s motion.Sample) ([]byte, error) {
	return json.Marshal(NewPayload(s))
}

// DecodeSample parses a wire payload. Every axis and the timestamp must
// be present.
func DecodeSample(b []byte) (motion.Sample, error) {
	var p Payload
	if err := json.Unmarshal(b, &p); err != nil {
		return motion.Sample{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p.Accel == nil {
		return motion.Sample{}, fmt.Errorf("%w: missing accel", ErrMalformed)
	}
	if p.Accel.X == nil || p.Accel.Y == nil || p.Accel.Z == nil {
		return motion.Sample{}, fmt.Errorf("%w: missing axis", ErrMalformed)
	}
	if p.Timestamp == nil {
		return motion.Sample{}, fmt.Errorf("%w: missing timestamp", ErrMalformed)
	}
	return motion.Sample{
		AccelX:    *p.Accel.X,
		AccelY:    *p.Accel.Y,
		AccelZ:    *p.Accel.Z,
		Timestamp: *p.Timestamp,
	}, nil
}
