package devices

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

const (
	defaultToneDuration = 300 * time.Millisecond
	toneGap             = 50 * time.Millisecond
)

// PWMOutput is the part of gpio.PinOut the buzzer needs.
type PWMOutput interface {
	Out(l gpio.Level) error
	PWM(duty gpio.Duty, f physic.Frequency) error
}

// Melody is the buzzer payload:
//
//	{"data":{"notes":[330,294,262],"duration":0.3}}
type Melody struct {
	Notes    []float64     // Hz
	Duration time.Duration // per note
}

// ParseMelody decodes a buzzer payload. duration defaults to 0.3s.
func ParseMelody(payload []byte) (Melody, error) {
	var msg struct {
		Data struct {
			Notes    json.RawMessage `json:"notes"`
			Duration *float64        `json:"duration"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Melody{}, fmt.Errorf("buzzer: %w", err)
	}

	m := Melody{Duration: defaultToneDuration}
	if len(msg.Data.Notes) > 0 {
		if err := json.Unmarshal(msg.Data.Notes, &m.Notes); err != nil {
			return Melody{}, fmt.Errorf("buzzer: invalid notes format: %w", err)
		}
	}
	for _, n := range m.Notes {
		if n <= 0 {
			return Melody{}, fmt.Errorf("buzzer: invalid tone %v Hz", n)
		}
	}
	if msg.Data.Duration != nil {
		if *msg.Data.Duration <= 0 {
			return Melody{}, fmt.Errorf("buzzer: invalid duration %v", *msg.Data.Duration)
		}
		m.Duration = time.Duration(*msg.Data.Duration * float64(time.Second))
	}
	return m, nil
}

// Buzzer plays melodies on a PWM-capable pin.
type Buzzer struct {
	Pin   PWMOutput
	sleep func(ctx context.Context, d time.Duration) error
}

func NewBuzzer(pin PWMOutput) *Buzzer {
	return &Buzzer{Pin: pin, sleep: sleepCtx}
}

// Play blocks until the melody ends or ctx is cancelled. The pin is left
// low either way.
func (b *Buzzer) Play(ctx context.Context, m Melody) error {
	defer b.Pin.Out(gpio.Low)

	for _, tone := range m.Notes {
		f := physic.Frequency(tone * float64(physic.Hertz))
		if err := b.Pin.PWM(gpio.DutyHalf, f); err != nil {
			return fmt.Errorf("buzzer: tone %v Hz: %w", tone, err)
		}
		log.Printf("buzzer: playing tone %vHz", tone)
		if err := b.sleep(ctx, m.Duration); err != nil {
			return err
		}
		if err := b.Pin.Out(gpio.Low); err != nil {
			return fmt.Errorf("buzzer: off: %w", err)
		}
		if err := b.sleep(ctx, toneGap); err != nil {
			return err
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
