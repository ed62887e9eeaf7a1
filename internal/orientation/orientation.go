package orientation

import (
	"math"

	"github.com/relabs-tech/glove_controller/internal/motion"
)

// Pose is the hand tilt shown on the dashboard.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// ComputePoseFromAccel computes roll and pitch from accelerometer data only.
// Yaw is always 0; the glove has no magnetometer fusion.
//
// Uses simple tilt formulas:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Pose{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
	}
}

// FromSample is ComputePoseFromAccel for a classifier sample.
func FromSample(s motion.Sample) Pose {
	return ComputePoseFromAccel(s.AccelX, s.AccelY, s.AccelZ)
}
