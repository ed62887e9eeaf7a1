// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/glove_controller/internal/config"
	"github.com/relabs-tech/glove_controller/internal/metrics"
	"github.com/relabs-tech/glove_controller/internal/mqttutil"
	"github.com/relabs-tech/glove_controller/internal/telemetry"
)

// bridgeCheckInterval is how often the publish loop compares the elapsed
// time with the configured interval.
const bridgeCheckInterval = 100 * time.Millisecond

// RunTelemetryBridge forwards the latest GUI state to the platform data
// topic every updateInterval milliseconds.
func RunTelemetryBridge(ctx context.Context) error {
	cfg := config.Get()
	dataTopic := cfg.PlatformDataTopic()
	configTopic := cfg.PlatformConfigTopic()

	prefs, err := telemetry.LoadPrefs(cfg.TelemetryPrefsFile, cfg.TelemetryDefaultInterval)
	if err != nil {
		log.Printf("telemetry: %v; using updateInterval=%d", err, prefs.UpdateInterval)
	} else {
		log.Printf("telemetry: preferences loaded, updateInterval=%d", prefs.UpdateInterval)
	}
	bridge := telemetry.NewBridge(cfg.DeviceID, cfg.TelemetryPrefsFile, prefs)

	client, err := mqttutil.Connect(ctx, mqttutil.Options{
		Broker:   cfg.MQTTBroker,
		Fallback: cfg.MQTTBrokerFallback,
		ClientID: cfg.MQTTClientIDBridge,
		Subscriptions: []mqttutil.Subscription{
			{
				Topic: cfg.TopicGUI,
				Handler: func(_ mqtt.Client, msg mqtt.Message) {
					if err := bridge.HandleGUI(msg.Payload()); err != nil {
						log.Printf("telemetry: %v", err)
					}
				},
			},
			{
				Topic: configTopic,
				Handler: func(_ mqtt.Client, msg mqtt.Message) {
					log.Printf("telemetry: received message on %s: %s", msg.Topic(), msg.Payload())
					applied, err := bridge.HandleConfig(msg.Payload())
					switch {
					case err != nil:
						log.Printf("telemetry: %v", err)
					case applied:
						log.Printf("telemetry: updated data publish interval to %s", bridge.Interval())
					}
				},
			},
		},
	})
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	metrics.ServePort(ctx, cfg.MetricsPortBridge)

	ticker := time.NewTicker(bridgeCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("telemetry: shutting down")
			return nil
		case t := <-ticker.C:
			if !bridge.Due(t) {
				continue
			}
			if err := mqttutil.PublishJSON(client, dataTopic, false, bridge.Message(t)); err != nil {
				metrics.TelemetryPublishes.WithLabelValues("error").Inc()
				log.Printf("telemetry: data publish failed: %v", err)
				continue
			}
			metrics.TelemetryPublishes.WithLabelValues("ok").Inc()
			log.Printf("telemetry: data published to %s", dataTopic)
		}
	}
}
