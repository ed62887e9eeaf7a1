package app

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/relabs-tech/glove_controller/internal/config"
	"github.com/relabs-tech/glove_controller/internal/force"
	"github.com/relabs-tech/glove_controller/internal/journal"
	"github.com/relabs-tech/glove_controller/internal/metrics"
	"github.com/relabs-tech/glove_controller/internal/mqttutil"
	"github.com/relabs-tech/glove_controller/internal/sensors"
)

// forceReading is what the detector loop consumes; *sensors.ForceReader
// satisfies it.
type forceReading interface {
	Next() (int, error)
}

// runForceLoop classifies every reading and publishes the click state.
// It returns nil at end of stream.
func runForceLoop(ctx context.Context, r forceReading, d *force.Detector, publish func(force.Click) error, onEdge func(force.Click)) error {
	for ctx.Err() == nil {
		v, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		click, changed := d.Update(v)
		if err := publish(click); err != nil {
			log.Printf("force: %v", err)
		}
		if changed {
			log.Printf("force: value %d -> click %s", v, click)
			metrics.ClickTransitions.WithLabelValues(click.String()).Inc()
			if onEdge != nil {
				onEdge(click)
			}
		}
	}
	return nil
}

// RunForceDetector reads FSR402 values from the serial bridge and publishes
// "TRUE"/"FALSE" on TOPIC_CLICK for every reading.
func RunForceDetector(ctx context.Context) error {
	cfg := config.Get()

	reader, err := sensors.OpenForceSerial(cfg.ForceSerialPort, cfg.ForceBaudRate)
	if err != nil {
		return err
	}
	// Closing the port unblocks a pending read on shutdown.
	go func() {
		<-ctx.Done()
		reader.Close()
	}()
	log.Printf("force: serial port %s opened at %d baud, threshold %d", cfg.ForceSerialPort, cfg.ForceBaudRate, cfg.ForceThreshold)

	client, err := mqttutil.Connect(ctx, mqttutil.Options{
		Broker:   cfg.MQTTBroker,
		Fallback: cfg.MQTTBrokerFallback,
		ClientID: cfg.MQTTClientIDForce,
	})
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	metrics.ServePort(ctx, cfg.MetricsPortForce)

	var onEdge func(force.Click)
	if cfg.JournalDBPath != "" {
		j, err := journal.Open(cfg.JournalDBPath)
		if err != nil {
			return err
		}
		defer j.Close()
		onEdge = func(c force.Click) {
			if err := j.Record(ctx, "click", c.String(), time.Now()); err != nil {
				log.Printf("force: %v", err)
			}
		}
	}

	err = runForceLoop(ctx, reader, force.NewDetector(cfg.ForceThreshold), func(c force.Click) error {
		return mqttutil.Publish(client, cfg.TopicClick, false, c.String())
	}, onEdge)
	if ctx.Err() != nil {
		log.Println("force: shutting down")
		return nil
	}
	return err
}
