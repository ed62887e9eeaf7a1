package app

import (
	"context"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/glove_controller/internal/config"
	"github.com/relabs-tech/glove_controller/internal/imu"
	"github.com/relabs-tech/glove_controller/internal/mqttutil"
)

// formatConsoleLine renders one message the way the console prints it.
func formatConsoleLine(cfg *config.Config, topic string, payload []byte) string {
	switch topic {
	case cfg.TopicIMU:
		s, err := imu.DecodeSample(payload)
		if err != nil {
			return fmt.Sprintf("[IMU  ] invalid payload: %v", err)
		}
		return fmt.Sprintf("[IMU  ] t=%.3f ax=%6.3f ay=%6.3f az=%6.3f", s.Timestamp, s.AccelX, s.AccelY, s.AccelZ)
	case cfg.TopicMotion:
		return fmt.Sprintf("[MOVE ] %s", payload)
	case cfg.TopicClick:
		return fmt.Sprintf("[CLICK] %s", payload)
	case cfg.TopicGUI:
		return fmt.Sprintf("[GUI  ] %s", payload)
	}
	return fmt.Sprintf("[%s] %s", topic, payload)
}

// RunConsoleMQTT prints every glove topic until ctx is cancelled.
func RunConsoleMQTT(ctx context.Context, showIMU bool) error {
	cfg := config.Get()

	printMsg := func(_ mqtt.Client, msg mqtt.Message) {
		fmt.Println(formatConsoleLine(cfg, msg.Topic(), msg.Payload()))
	}

	topics := []string{cfg.TopicMotion, cfg.TopicClick, cfg.TopicGUI, cfg.PlatformDataTopic(), cfg.PlatformConfigTopic()}
	if showIMU {
		topics = append(topics, cfg.TopicIMU)
	}
	subs := make([]mqttutil.Subscription, 0, len(topics))
	for _, t := range topics {
		subs = append(subs, mqttutil.Subscription{Topic: t, Handler: printMsg})
	}

	client, err := mqttutil.Connect(ctx, mqttutil.Options{
		Broker:        cfg.MQTTBroker,
		Fallback:      cfg.MQTTBrokerFallback,
		ClientID:      cfg.MQTTClientIDConsole,
		Subscriptions: subs,
	})
	if err != nil {
		return err
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	<-ctx.Done()

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
