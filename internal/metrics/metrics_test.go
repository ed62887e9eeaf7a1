package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCountersExposed(t *testing.T) {
	MotionEvents.WithLabelValues("LIFT_START").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(MotionEvents.WithLabelValues("LIFT_START")))

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	assert.Contains(t, scrape(t, srv.URL), `glove_motion_events_total{event="LIFT_START"} 1`)
}

func TestServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, err := Serve(ctx, "127.0.0.1:0")
	require.NoError(t, err)

	ClickTransitions.WithLabelValues("TRUE").Inc()
	SetActuator("fan", true)

	body := scrape(t, "http://"+addr.String()+"/metrics")
	assert.Contains(t, body, `glove_click_transitions_total{state="TRUE"}`)
	assert.Contains(t, body, `glove_actuator_on{device="fan"} 1`)

	_, err = Serve(ctx, addr.String())
	assert.Error(t, err, "port already bound")
}

func TestSetActuator(t *testing.T) {
	SetActuator("led", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(Actuators.WithLabelValues("led")))
	SetActuator("led", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(Actuators.WithLabelValues("led")))
}
