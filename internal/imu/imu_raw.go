package imu

import "time"

// IMURaw represents a single raw accelerometer sample in sensor counts.
type IMURaw struct {
	Source string `json:"source"` // "glove" or "mock"

	Ax int16 `json:"ax"`
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Time time.Time `json:"-"`
}

type IMURawSource interface {
	ReadRaw() (IMURaw, error)
}

// fullScaleG maps the accelerometer range setting to its full scale in g.
var fullScaleG = [4]float64{2, 4, 8, 16}

// CountsToG converts a raw count to g for the given range setting (0-3).
func CountsToG(count int16, accelRange byte) float64 {
	if int(accelRange) >= len(fullScaleG) {
		accelRange = 0
	}
	return float64(count) / (32768.0 / fullScaleG[accelRange])
}
