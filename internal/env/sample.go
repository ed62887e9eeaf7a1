// Package env holds the environment station readings and the temperature
// automation that drives the fan and LED.
package env

import (
	"math"
	"time"
)

// Reading is one environment measurement. A nil field means the sensor
// is absent or failed, and is published as null.
type Reading struct {
	Temperature *float64 `json:"temperature"` // °C
	Humidity    *float64 `json:"humidity"`    // %RH
	Light       *float64 `json:"light"`       // lux
	Pressure    *float64 `json:"pressure"`    // hPa
}

// Source is implemented by the hardware station and the mock.
type Source interface {
	ReadEnv() (Reading, error)
}

// Message is published on the platform data topic.
type Message struct {
	DeviceID  string  `json:"device_id"`
	Data      Reading `json:"data"`
	Timestamp int64   `json:"timestamp"` // milliseconds
}

// NewMessage wraps r for deviceID at t.
func NewMessage(deviceID string, r Reading, t time.Time) Message {
	return Message{DeviceID: deviceID, Data: r, Timestamp: t.UnixMilli()}
}

// Value rounds v to two decimals and returns a pointer for a Reading field.
func Value(v float64) *float64 {
	r := math.Round(v*100) / 100
	return &r
}
