// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/glove_controller/internal/imu"
)

// mockCycle is one rest → lift → rest → drop sequence.
var mockCycle = []struct {
	d time.Duration
	z float64 // g
}{
	{2 * time.Second, 1.0},
	{600 * time.Millisecond, 1.5},
	{2 * time.Second, 1.0},
	{600 * time.Millisecond, 0.5},
}

type mockSource struct {
	start      time.Time
	now        func() time.Time
	accelRange byte
}

// NewMockSource creates a source that replays a synthetic lift and drop
// every few seconds, for benches without the glove attached.
func NewMockSource(accelRange byte) imu.IMURawSource {
	return newMockSource(accelRange, time.Now)
}

func newMockSource(accelRange byte, now func() time.Time) *mockSource {
	return &mockSource{start: now(), now: now, accelRange: accelRange}
}

func (m *mockSource) ReadRaw() (imu.IMURaw, error) {
	t := m.now()
	elapsed := t.Sub(m.start)

	var total time.Duration
	for _, seg := range mockCycle {
		total += seg.d
	}
	pos := elapsed % total

	z := 1.0
	for _, seg := range mockCycle {
		if pos < seg.d {
			z = seg.z
			break
		}
		pos -= seg.d
	}

	// A little wobble on x/y so the dashboard tilt moves.
	secs := elapsed.Seconds()
	x := 0.05 * math.Sin(secs)
	y := 0.05 * math.Cos(secs*0.7)

	return imu.IMURaw{
		Source: "mock",
		Ax:     m.counts(x),
		Ay:     m.counts(y),
		Az:     m.counts(z),
		Time:   t,
	}, nil
}

func (m *mockSource) counts(g float64) int16 {
	perG := 1 / imu.CountsToG(1, m.accelRange)
	v := math.Round(g * perG)
	if v > math.MaxInt16 {
		v = math.MaxInt16
	}
	if v < math.MinInt16 {
		v = math.MinInt16
	}
	return int16(v)
}
