// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/glove_controller/internal/config"
	"github.com/relabs-tech/glove_controller/internal/imu"
	"github.com/relabs-tech/glove_controller/internal/journal"
	"github.com/relabs-tech/glove_controller/internal/metrics"
	"github.com/relabs-tech/glove_controller/internal/motion"
	"github.com/relabs-tech/glove_controller/internal/mqttutil"
)

// sampleClock maps local monotonic time onto the producer's sample
// clock, anchored at the first sample received.
type sampleClock struct {
	mu       sync.Mutex
	anchored bool
	anchorTS float64
	anchorAt time.Time
}

func (c *sampleClock) observe(ts float64, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.anchored {
		c.anchored = true
		c.anchorTS = ts
		c.anchorAt = at
	}
}

// now returns the sample-clock time at local time at.
func (c *sampleClock) now(at time.Time) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.anchored {
		return 0, false
	}
	return c.anchorTS + at.Sub(c.anchorAt).Seconds(), true
}

// motionService wires the classifier between the IMU topic and the motion
// topic. publish and record are swapped out in tests.
type motionService struct {
	classifier *motion.Classifier
	clock      sampleClock
	publish    func(motion.Event) error
	record     func(motion.Event, time.Time)
}

func newMotionService(cfg motion.Config, publish func(motion.Event) error) *motionService {
	return &motionService{
		classifier: motion.New(cfg),
		publish:    publish,
	}
}

// handleSample decodes and buffers one IMU payload.
func (s *motionService) handleSample(payload []byte, at time.Time) error {
	sample, err := imu.DecodeSample(payload)
	if err != nil {
		metrics.MalformedSamples.Inc()
		return err
	}
	s.clock.observe(sample.Timestamp, at)
	s.classifier.Push(sample)
	metrics.Samples.Inc()
	return nil
}

// tick runs one classifier evaluation and publishes the event, if any.
func (s *motionService) tick(at time.Time) motion.Event {
	now, ok := s.clock.now(at)
	if !ok {
		return motion.None
	}
	ev := s.classifier.Evaluate(now)
	if ev == motion.None {
		return ev
	}

	log.Printf("motion: detected %s (avg z %.3f g)", ev, s.classifier.Snapshot().AvgZ)
	metrics.MotionEvents.WithLabelValues(ev.String()).Inc()
	if err := s.publish(ev); err != nil {
		log.Printf("motion: %v", err)
	}
	if s.record != nil {
		s.record(ev, at)
	}
	return ev
}

// RunMotionDetector subscribes to TOPIC_IMU, runs the classifier every
// MOTION_EVAL_INTERVAL and publishes events on TOPIC_MOTION.
func RunMotionDetector(ctx context.Context) error {
	cfg := config.Get()

	var (
		client mqtt.Client
		mu     sync.RWMutex
	)
	svc := newMotionService(cfg.MotionConfig(), func(ev motion.Event) error {
		mu.RLock()
		c := client
		mu.RUnlock()
		if c == nil {
			return errors.New("not connected")
		}
		return mqttutil.Publish(c, cfg.TopicMotion, false, ev.String())
	})

	if cfg.JournalDBPath != "" {
		j, err := journal.Open(cfg.JournalDBPath)
		if err != nil {
			return err
		}
		defer j.Close()
		log.Printf("motion: journaling to %s (session %s)", cfg.JournalDBPath, j.Session())
		svc.record = func(ev motion.Event, at time.Time) {
			if err := j.Record(ctx, "motion", ev.String(), at); err != nil {
				log.Printf("motion: %v", err)
			}
		}
	}

	c, err := mqttutil.Connect(ctx, mqttutil.Options{
		Broker:   cfg.MQTTBroker,
		Fallback: cfg.MQTTBrokerFallback,
		ClientID: cfg.MQTTClientIDMotion,
		Subscriptions: []mqttutil.Subscription{{
			Topic: cfg.TopicIMU,
			Handler: func(_ mqtt.Client, msg mqtt.Message) {
				if err := svc.handleSample(msg.Payload(), time.Now()); err != nil {
					log.Printf("motion: dropping sample: %v", err)
				}
			},
		}},
	})
	if err != nil {
		return err
	}
	mu.Lock()
	client = c
	mu.Unlock()
	defer c.Disconnect(250)

	metrics.ServePort(ctx, cfg.MetricsPortMotion)

	mc := cfg.MotionConfig()
	log.Printf("motion: detector initialized (lift>%.2fg drop<%.2fg window=%d duration=%s cooldown=%s)",
		mc.LiftThreshold, mc.DropThreshold, mc.WindowSize, mc.MotionDuration, mc.Cooldown)

	ticker := time.NewTicker(time.Duration(cfg.MotionEvalInterval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("motion: shutting down")
			return nil
		case t := <-ticker.C:
			svc.tick(t)
		}
	}
}
