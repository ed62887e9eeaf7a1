// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"time"

	"github.com/relabs-tech/glove_controller/internal/config"
	"github.com/relabs-tech/glove_controller/internal/imu"
	"github.com/relabs-tech/glove_controller/internal/metrics"
	"github.com/relabs-tech/glove_controller/internal/mqttutil"
	"github.com/relabs-tech/glove_controller/internal/sensors"
)

// unixSeconds is the sample timestamp clock shared by producer and tests.
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// RunIMUProducer reads the glove accelerometer (or the mock source) and
// publishes one sample per IMU_SAMPLE_INTERVAL on TOPIC_IMU.
func RunIMUProducer(ctx context.Context) error {
	cfg := config.Get()

	var src imu.IMURawSource
	if cfg.IMUMock {
		log.Println("imu: using mock accelerometer source")
		src = sensors.NewMockSource(cfg.IMUAccelRange)
	} else {
		s, err := sensors.NewIMUSource(cfg.IMUSPIDevice, cfg.IMUCSPin, cfg.IMUAccelRange)
		if err != nil {
			return err
		}
		src = s
	}

	client, err := mqttutil.Connect(ctx, mqttutil.Options{
		Broker:   cfg.MQTTBroker,
		Fallback: cfg.MQTTBrokerFallback,
		ClientID: cfg.MQTTClientIDIMU,
	})
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	metrics.ServePort(ctx, cfg.MetricsPortIMU)
	log.Println("imu: connected to MQTT, starting publish loop")

	ticker := time.NewTicker(time.Duration(cfg.IMUSampleInterval) * time.Millisecond)
	defer ticker.Stop()

	var published int
	for {
		select {
		case <-ctx.Done():
			log.Printf("imu: shutting down after %d samples", published)
			return nil
		case t := <-ticker.C:
			raw, err := src.ReadRaw()
			if err != nil {
				log.Printf("imu: read error: %v", err)
				continue
			}
			if raw.Time.IsZero() {
				raw.Time = t
			}
			sample := imu.ToSample(raw, cfg.IMUAccelRange, unixSeconds(raw.Time))

			payload, err := imu.EncodeSample(sample)
			if err != nil {
				log.Printf("imu: json marshal error: %v", err)
				continue
			}
			if err := mqttutil.Publish(client, cfg.TopicIMU, false, payload); err != nil {
				log.Printf("imu: %v", err)
				continue
			}
			published++
			metrics.SamplesPublished.Inc()

			// Roughly once a second at the default rate.
			if published%50 == 0 {
				log.Printf("imu: %s ax=%.2f ay=%.2f az=%.2f g",
					t.Format(time.RFC3339), sample.AccelX, sample.AccelY, sample.AccelZ)
			}
		}
	}
}
