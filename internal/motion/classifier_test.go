package motion

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feed pushes n samples with the given z value, 20ms apart starting at t0.
func feed(c *Classifier, z float64, n int, t0 float64) {
	for i := 0; i < n; i++ {
		c.Push(Sample{AccelZ: z, Timestamp: t0 + float64(i)*0.02})
	}
}

func TestColdStartEmitsNothing(t *testing.T) {
	c := New(DefaultConfig())

	for i := 0; i < 9; i++ {
		c.Push(Sample{AccelZ: 1.5, Timestamp: float64(i) * 0.02})
		assert.Equal(t, None, c.Evaluate(float64(i)*0.02), "sample %d", i)
	}
	assert.Equal(t, StateStationary, c.State())
}

func TestNeutralEmitsStationaryOnce(t *testing.T) {
	c := New(DefaultConfig())
	feed(c, 1.0, 10, 0)

	require.Equal(t, Stationary, c.Evaluate(0.2))
	for i := 1; i <= 20; i++ {
		c.Push(Sample{AccelZ: 1.0, Timestamp: 0.2 + float64(i)*0.05})
		assert.Equal(t, None, c.Evaluate(0.2+float64(i)*0.05))
	}
}

func TestLiftStartAndComplete(t *testing.T) {
	c := New(DefaultConfig())
	feed(c, 1.5, 10, 0)

	require.Equal(t, LiftStart, c.Evaluate(1.0))
	assert.Equal(t, StateLiftInProgress, c.State())

	// Back in the neutral band before the minimum duration.
	feed(c, 1.0, 10, 1.0)
	assert.Equal(t, None, c.Evaluate(1.1))
	assert.Equal(t, StateLiftInProgress, c.State())

	assert.Equal(t, LiftComplete, c.Evaluate(1.5))
	assert.Equal(t, StateStationary, c.State())

	// Stationary follows on the next tick, once.
	assert.Equal(t, Stationary, c.Evaluate(1.55))
	assert.Equal(t, None, c.Evaluate(1.6))
}

func TestDropStartAndComplete(t *testing.T) {
	c := New(DefaultConfig())
	feed(c, 0.5, 10, 0)

	require.Equal(t, DropStart, c.Evaluate(1.0))
	assert.Equal(t, StateDropInProgress, c.State())

	feed(c, 1.0, 10, 1.0)
	assert.Equal(t, None, c.Evaluate(1.2))
	assert.Equal(t, StateDropInProgress, c.State())

	assert.Equal(t, DropComplete, c.Evaluate(1.4))
	assert.Equal(t, StateStationary, c.State())
}

func TestCompletionRequiresNeutralBand(t *testing.T) {
	c := New(DefaultConfig())
	feed(c, 1.5, 10, 0)
	require.Equal(t, LiftStart, c.Evaluate(1.0))

	// Still above the lift threshold long after the duration elapsed.
	assert.Equal(t, None, c.Evaluate(5.0))
	assert.Equal(t, StateLiftInProgress, c.State())

	feed(c, 1.1, 10, 5.5)
	assert.Equal(t, LiftComplete, c.Evaluate(6.0))
}

func TestCooldownBlocksNewMotion(t *testing.T) {
	c := New(DefaultConfig())
	feed(c, 1.5, 10, 0)
	require.Equal(t, LiftStart, c.Evaluate(1.0))
	feed(c, 1.0, 10, 1.0)
	require.Equal(t, LiftComplete, c.Evaluate(1.5))

	// Threshold crossed again immediately.
	feed(c, 1.5, 10, 1.5)
	assert.Equal(t, None, c.Evaluate(1.6))
	assert.Equal(t, None, c.Evaluate(1.9))
	assert.Equal(t, StateStationary, c.State())

	feed(c, 0.5, 10, 1.9)
	assert.Equal(t, None, c.Evaluate(1.95))

	assert.Equal(t, DropStart, c.Evaluate(2.1))
}

func TestEarlyBandReentryNeverCancels(t *testing.T) {
	c := New(DefaultConfig())
	feed(c, 1.5, 10, 0)
	require.Equal(t, LiftStart, c.Evaluate(1.0))

	// Oscillate between neutral and above-threshold inside the duration.
	feed(c, 1.0, 10, 1.0)
	assert.Equal(t, None, c.Evaluate(1.05))
	feed(c, 1.5, 10, 1.05)
	assert.Equal(t, None, c.Evaluate(1.1))
	feed(c, 0.5, 10, 1.1)
	assert.Equal(t, None, c.Evaluate(1.15), "an opposite crossing must not start a drop")
	assert.Equal(t, StateLiftInProgress, c.State())

	feed(c, 1.0, 10, 1.15)
	assert.Equal(t, LiftComplete, c.Evaluate(2.0))
}

func TestEvaluateIsIdempotent(t *testing.T) {
	c := New(DefaultConfig())
	feed(c, 1.0, 10, 0)
	assert.Equal(t, Stationary, c.Evaluate(0.3))
	assert.Equal(t, None, c.Evaluate(0.3))
	assert.Equal(t, None, c.Evaluate(0.3))

	feed(c, 1.5, 10, 0.3)
	assert.Equal(t, LiftStart, c.Evaluate(0.6))
	assert.Equal(t, None, c.Evaluate(0.6))
	assert.Equal(t, StateLiftInProgress, c.State())
}

func TestWindowEvictsOldestSamples(t *testing.T) {
	c := New(DefaultConfig())
	feed(c, 1.5, 10, 0)
	feed(c, 1.0, 5, 0.2)

	snap := c.Snapshot()
	assert.Equal(t, 10, snap.Samples)
	assert.InDelta(t, 1.25, snap.AvgZ, 1e-9)
	assert.InDelta(t, 1.0, snap.Latest.AccelZ, 1e-9)

	feed(c, 1.0, 5, 0.3)
	assert.InDelta(t, 1.0, c.Snapshot().AvgZ, 1e-9)
}

func TestSmallWindowAndCustomThresholds(t *testing.T) {
	c := New(Config{
		LiftThreshold:  2.0,
		DropThreshold:  0.2,
		WindowSize:     2,
		MotionDuration: 100 * time.Millisecond,
		Cooldown:       0,
	})

	c.Push(Sample{AccelZ: 1.9})
	assert.Equal(t, None, c.Evaluate(0))
	c.Push(Sample{AccelZ: 1.9})
	assert.Equal(t, Stationary, c.Evaluate(0))

	feed(c, 0.1, 2, 0)
	assert.Equal(t, DropStart, c.Evaluate(1))
	feed(c, 1.0, 2, 1)
	assert.Equal(t, DropComplete, c.Evaluate(1.1))
	feed(c, 2.5, 2, 1.1)
	assert.Equal(t, LiftStart, c.Evaluate(1.1))
}

func TestReset(t *testing.T) {
	c := New(DefaultConfig())
	feed(c, 1.5, 10, 0)
	require.Equal(t, LiftStart, c.Evaluate(1.0))

	c.Reset()
	assert.Equal(t, StateStationary, c.State())
	assert.Equal(t, 0, c.Snapshot().Samples)
	assert.Equal(t, None, c.Evaluate(2.0))
}

func TestConcurrentPushAndEvaluate(t *testing.T) {
	c := New(DefaultConfig())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			c.Push(Sample{AccelZ: 1.0, Timestamp: float64(i) * 0.01})
		}
	}()

	events := 0
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if c.Evaluate(float64(i)*0.01) != None {
				events++
			}
		}
	}()
	wg.Wait()

	assert.LessOrEqual(t, events, 1)
	assert.Equal(t, 10, c.Snapshot().Samples)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.WindowSize = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.DropThreshold = 1.2
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.Cooldown = -time.Second
	assert.Error(t, bad.Validate())

	assert.Panics(t, func() { New(Config{}) })
}

func TestEventNames(t *testing.T) {
	for _, ev := range []Event{LiftStart, LiftComplete, DropStart, DropComplete, Stationary} {
		parsed, err := ParseEvent(ev.String())
		require.NoError(t, err)
		assert.Equal(t, ev, parsed)
	}
	_, err := ParseEvent("WAVE")
	assert.Error(t, err)

	assert.True(t, LiftComplete.IsLift())
	assert.True(t, DropStart.IsDrop())
	assert.False(t, Stationary.IsLift())
	assert.Equal(t, "lifting", StateLiftInProgress.String())
}
