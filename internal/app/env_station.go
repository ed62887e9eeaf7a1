package app

import (
	"context"
	"log"
	"time"

	"github.com/relabs-tech/glove_controller/internal/env"
	"github.com/relabs-tech/glove_controller/internal/metrics"
)

// envStation reads the environment sensors, applies the temperature
// automation on every reading and publishes readings every
// automation interval.
type envStation struct {
	deviceID string
	source   env.Source
	auto     *env.Automation
	apply    func(env.Action)
	publish  func(env.Message) error

	lastSent time.Time
}

// step performs one reading at now and reports whether it was published.
func (s *envStation) step(now time.Time) (bool, error) {
	r, err := s.source.ReadEnv()
	if err != nil {
		return false, err
	}
	if r.Temperature != nil {
		metrics.EnvTemperature.Set(*r.Temperature)
	}
	if r.Pressure != nil {
		metrics.EnvPressure.Set(*r.Pressure)
	}
	for _, a := range s.auto.Actions(r) {
		s.apply(a)
	}

	if !s.lastSent.IsZero() && now.Sub(s.lastSent) < s.auto.Interval() {
		return false, nil
	}
	if err := s.publish(env.NewMessage(s.deviceID, r, now)); err != nil {
		return false, err
	}
	s.lastSent = now
	return true, nil
}

func (s *envStation) run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			if _, err := s.step(t); err != nil {
				log.Printf("env: %v", err)
			}
		}
	}
}
