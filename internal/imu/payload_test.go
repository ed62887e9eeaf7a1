package imu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/glove_controller/internal/motion"
)

func TestCountsToG(t *testing.T) {
	assert.InDelta(t, 1.0, CountsToG(16384, 0), 1e-9)
	assert.InDelta(t, 1.0, CountsToG(8192, 1), 1e-9)
	assert.InDelta(t, -2.0, CountsToG(-8192, 2), 1e-9)
	assert.InDelta(t, 16.0, CountsToG(32767, 3), 1e-3)
	// Unknown ranges fall back to ±2g.
	assert.InDelta(t, 1.0, CountsToG(16384, 9), 1e-9)
}

func TestToSample(t *testing.T) {
	s := ToSample(IMURaw{Ax: 0, Ay: -1638, Az: 16384}, 0, 12.5)
	assert.InDelta(t, 0, s.AccelX, 1e-9)
	assert.InDelta(t, -0.1, s.AccelY, 1e-3)
	assert.InDelta(t, 1.0, s.AccelZ, 1e-9)
	assert.Equal(t, 12.5, s.Timestamp)
}

func TestEncodeDecodeSample(t *testing.T) {
	in := motion.Sample{AccelX: 0.1, AccelY: -0.2, AccelZ: 1.05, Timestamp: 42.25}
	b, err := EncodeSample(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"accel":{"x":0.1,"y":-0.2,"z":1.05},"timestamp":42.25}`, string(b))

	out, err := DecodeSample(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeSampleRejectsMalformed(t *testing.T) {
	for name, payload := range map[string]string{
		"not json":          `{"accel":`,
		"missing accel":     `{"timestamp":1}`,
		"missing z":         `{"accel":{"x":0,"y":0},"timestamp":1}`,
		"missing timestamp": `{"accel":{"x":0,"y":0,"z":1}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSample([]byte(payload))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}
