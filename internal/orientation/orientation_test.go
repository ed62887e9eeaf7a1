package orientation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/glove_controller/internal/motion"
)

func TestComputePoseFromAccel(t *testing.T) {
	flat := ComputePoseFromAccel(0, 0, 1)
	assert.InDelta(t, 0, flat.Roll, 1e-9)
	assert.InDelta(t, 0, flat.Pitch, 1e-9)

	rolled := ComputePoseFromAccel(0, 1, 1)
	assert.InDelta(t, 45, rolled.Roll, 1e-9)

	pitched := FromSample(motion.Sample{AccelX: -1, AccelZ: 0})
	assert.InDelta(t, 90, pitched.Pitch, 1e-9)
	assert.Zero(t, pitched.Yaw)
}
