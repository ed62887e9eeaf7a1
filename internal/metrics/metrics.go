// Package metrics registers the Prometheus collectors shared by the glove
// programs. Each program serves its own registry on a METRICS_PORT_*.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MotionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glove_motion_events_total",
			Help: "Motion events emitted by the classifier.",
		},
		[]string{"event"},
	)

	ClickTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glove_click_transitions_total",
			Help: "Click state changes.",
		},
		[]string{"state"},
	)

	TelemetryPublishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glove_telemetry_publish_total",
			Help: "Platform messages published by the telemetry bridge.",
		},
		[]string{"result"},
	)

	Samples = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "glove_samples_total",
		Help: "Accelerometer samples received.",
	})

	MalformedSamples = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "glove_samples_malformed_total",
		Help: "Accelerometer payloads rejected before classification.",
	})

	SamplesPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "glove_samples_published_total",
		Help: "Accelerometer samples published by the IMU producer.",
	})

	DashboardMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glove_dashboard_messages_total",
			Help: "MQTT messages received by the dashboard, by topic kind.",
		},
		[]string{"kind"},
	)

	EnvTemperature = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "glove_env_temperature_celsius",
		Help: "Last temperature read by the environment station.",
	})

	EnvPressure = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "glove_env_pressure_hpa",
		Help: "Last pressure read by the environment station.",
	})

	Actuators = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "glove_actuator_on",
			Help: "1 while the actuator output is driven high.",
		},
		[]string{"device"},
	)
)

func init() {
	prometheus.MustRegister(
		MotionEvents, ClickTransitions, TelemetryPublishes,
		Samples, MalformedSamples, SamplesPublished,
		DashboardMessages, EnvTemperature, EnvPressure, Actuators,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve listens on addr and serves /metrics until ctx is done. The
// listener is bound before Serve returns, so bind errors are reported to
// the caller.
func Serve(ctx context.Context, addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Handler: mux}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics: server error: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("metrics: serving /metrics on %s", ln.Addr())
	return ln.Addr(), nil
}

// ServePort starts Serve on :port for a Run* entry point. A zero port
// disables the listener; a bind failure is logged and not fatal.
func ServePort(ctx context.Context, port int) {
	if port == 0 {
		return
	}
	if _, err := Serve(ctx, fmt.Sprintf(":%d", port)); err != nil {
		log.Printf("metrics: %v", err)
	}
}

// SetActuator records an actuator output state.
func SetActuator(device string, on bool) {
	v := 0.0
	if on {
		v = 1
	}
	Actuators.WithLabelValues(device).Set(v)
}
