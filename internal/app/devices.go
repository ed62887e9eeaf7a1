// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/glove_controller/internal/config"
	"github.com/relabs-tech/glove_controller/internal/devices"
	"github.com/relabs-tech/glove_controller/internal/env"
	"github.com/relabs-tech/glove_controller/internal/metrics"
	"github.com/relabs-tech/glove_controller/internal/mqttutil"
	"github.com/relabs-tech/glove_controller/internal/sensors"
)

// dataHas reports whether the payload's "data" object carries key.
func dataHas(payload []byte, key string) bool {
	var msg struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if json.Unmarshal(payload, &msg) != nil {
		return false
	}
	_, ok := msg.Data[key]
	return ok
}

func lookupPin(name, role string) gpio.PinIO {
	if name == "" {
		return nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		log.Printf("devices: %s pin %q not found, %s disabled", role, name, role)
	}
	return p
}

// RunDevices drives the fan, LED, buzzer, button and status display from
// the device config topic, and runs the environment station when enabled.
func RunDevices(ctx context.Context) error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	var switches []*devices.Switch
	byName := map[string]*devices.Switch{}
	for _, sw := range []struct{ name, pin string }{{"fan", cfg.FanPin}, {"led", cfg.LEDPin}} {
		p := lookupPin(sw.pin, sw.name)
		if p == nil {
			continue
		}
		name := sw.name
		s := &devices.Switch{Name: name, Pin: p, OnSet: func(on bool) { metrics.SetActuator(name, on) }}
		switches = append(switches, s)
		byName[name] = s
	}
	for _, s := range switches {
		if err := s.Set(false); err != nil {
			log.Printf("devices: %v", err)
		}
	}

	melodies := make(chan devices.Melody, 4)
	if p := lookupPin(cfg.BuzzerPin, "buzzer"); p != nil {
		buzzer := devices.NewBuzzer(p)
		if err := p.Out(gpio.Low); err != nil {
			log.Printf("devices: buzzer: %v", err)
		}
		log.Println("devices: buzzer ready")
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case m := <-melodies:
					if err := buzzer.Play(ctx, m); err != nil {
						log.Printf("devices: %v", err)
					}
				}
			}
		}()
	}

	var bus i2c.BusCloser
	if cfg.DisplayEnabled || (cfg.EnvEnabled && !cfg.EnvMock) {
		b, err := i2creg.Open(cfg.I2CBus)
		if err != nil {
			return fmt.Errorf("failed to open I2C bus: %w", err)
		}
		defer b.Close()
		bus = b
	}

	var station *envStation
	if cfg.EnvEnabled {
		var src env.Source
		if cfg.EnvMock {
			log.Println("devices: using mock environment source")
			src = sensors.NewMockEnv()
		} else {
			st, err := sensors.NewEnvStation(bus, cfg.EnvBMPAddr, cfg.EnvLightAddr)
			if err != nil {
				return err
			}
			defer st.Halt()
			src = st
		}
		station = &envStation{
			deviceID: cfg.DeviceID,
			source:   src,
			auto: env.NewAutomation(cfg.EnvTempThreshold, cfg.EnvFanAuto, cfg.EnvLEDAuto,
				time.Duration(cfg.EnvUpdateInterval)*time.Millisecond),
			apply: func(a env.Action) {
				s, ok := byName[a.Device]
				if !ok {
					return
				}
				if _, err := s.Ensure(a.On); err != nil {
					log.Printf("devices: %v", err)
				}
			},
		}
	}

	var display *devices.StatusDisplay
	if cfg.DisplayEnabled {
		dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
		if err != nil {
			return fmt.Errorf("failed to initialize display: %w", err)
		}
		display = &devices.StatusDisplay{Screen: dev}
		if err := display.Ready(); err != nil {
			log.Printf("devices: display: %v", err)
		}
	}

	subs := []mqttutil.Subscription{{
		Topic: cfg.PlatformConfigTopic(),
		Handler: func(_ mqtt.Client, msg mqtt.Message) {
			payload := msg.Payload()
			if station != nil {
				changed, err := station.auto.Apply(payload)
				switch {
				case err != nil:
					log.Printf("devices: %v", err)
				case changed:
					log.Printf("devices: automation updated, threshold %.1f°C, interval %s",
						station.auto.Threshold(), station.auto.Interval())
				}
			}
			for _, s := range switches {
				if err := s.Handle(payload); err != nil {
					log.Printf("devices: error reading payload: %v", err)
				}
			}
			if dataHas(payload, "notes") {
				m, err := devices.ParseMelody(payload)
				if err != nil {
					log.Printf("devices: %v", err)
					return
				}
				select {
				case melodies <- m:
				default:
					log.Println("devices: buzzer busy, melody dropped")
				}
			}
		},
	}}
	if display != nil {
		subs = append(subs, mqttutil.Subscription{
			Topic: cfg.TopicEmotion,
			Handler: func(_ mqtt.Client, msg mqtt.Message) {
				e, err := devices.ParseEmotion(msg.Payload())
				if err != nil {
					log.Printf("devices: %v", err)
					return
				}
				if err := display.ShowEmotion(e); err != nil {
					log.Printf("devices: %v", err)
				}
			},
		})
	}

	client, err := mqttutil.Connect(ctx, mqttutil.Options{
		Broker:        cfg.MQTTBroker,
		Fallback:      cfg.MQTTBrokerFallback,
		ClientID:      cfg.MQTTClientIDDevices,
		Subscriptions: subs,
	})
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	metrics.ServePort(ctx, cfg.MetricsPortDevices)

	if station != nil {
		dataTopic := cfg.PlatformDataTopic()
		station.publish = func(m env.Message) error {
			return mqttutil.PublishJSON(client, dataTopic, false, m)
		}
		log.Printf("devices: environment station publishing to %s every %s", dataTopic, station.auto.Interval())
		go station.run(ctx, time.Duration(cfg.EnvReadInterval)*time.Millisecond)
	}

	if p := lookupPin(cfg.ButtonPin, "button"); p != nil {
		dataTopic := cfg.PlatformDataTopic()
		go func() {
			err := devices.WatchButton(ctx, p, func(at time.Time) {
				log.Println("devices: button was pressed")
				if err := mqttutil.PublishJSON(client, dataTopic, false, devices.NewButtonMessage(cfg.DeviceID, at)); err != nil {
					log.Printf("devices: %v", err)
				}
			})
			if err != nil {
				log.Printf("devices: %v", err)
			}
		}()
	}

	log.Println("devices: ready, waiting for messages")
	<-ctx.Done()

	log.Println("devices: shutting down")
	for _, s := range switches {
		_ = s.Set(false)
	}
	return nil
}
