package devices

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Input is the part of gpio.PinIn the button needs.
type Input interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	WaitForEdge(timeout time.Duration) bool
	Read() gpio.Level
}

// ButtonMessage is published on every press.
type ButtonMessage struct {
	DeviceID  string     `json:"device_id"`
	Timestamp int64      `json:"timestamp"` // milliseconds
	Data      ButtonData `json:"data"`
}

type ButtonData struct {
	Ping      bool `json:"ping"`
	IsClicked bool `json:"isClicked"`
}

// NewButtonMessage builds the press message for deviceID at t.
func NewButtonMessage(deviceID string, t time.Time) ButtonMessage {
	return ButtonMessage{
		DeviceID:  deviceID,
		Timestamp: t.UnixMilli(),
		Data:      ButtonData{Ping: false, IsClicked: true},
	}
}

// WatchButton calls onPress for every falling edge (button wired to
// ground with the internal pull-up) until ctx is done.
func WatchButton(ctx context.Context, pin Input, onPress func(time.Time)) error {
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return fmt.Errorf("button: %w", err)
	}
	for ctx.Err() == nil {
		if !pin.WaitForEdge(200 * time.Millisecond) {
			continue
		}
		if pin.Read() == gpio.Low {
			onPress(time.Now())
		}
	}
	return nil
}
