package app

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/glove_controller/internal/env"
	"github.com/relabs-tech/glove_controller/internal/metrics"
)

type scriptedEnv struct {
	temps []float64
	err   error
}

func (s *scriptedEnv) ReadEnv() (env.Reading, error) {
	if s.err != nil {
		return env.Reading{}, s.err
	}
	t := s.temps[0]
	if len(s.temps) > 1 {
		s.temps = s.temps[1:]
	}
	return env.Reading{Temperature: env.Value(t), Pressure: env.Value(1000)}, nil
}

func TestEnvStationStep(t *testing.T) {
	src := &scriptedEnv{temps: []float64{25, 29, 27}}
	var actions []env.Action
	var sent []env.Message
	st := &envStation{
		deviceID: "RaspiDevice",
		source:   src,
		auto:     env.NewAutomation(28, true, false, 6*time.Second),
		apply:    func(a env.Action) { actions = append(actions, a) },
		publish: func(m env.Message) error {
			sent = append(sent, m)
			return nil
		},
	}
	base := time.Unix(1700000000, 0)

	published, err := st.step(base)
	require.NoError(t, err)
	assert.True(t, published, "first reading is published immediately")

	published, err = st.step(base.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, published)
	assert.Equal(t, 29.0, testutil.ToFloat64(metrics.EnvTemperature))

	published, err = st.step(base.Add(6 * time.Second))
	require.NoError(t, err)
	assert.True(t, published)

	assert.Equal(t, []env.Action{{Device: "fan", On: false}, {Device: "fan", On: true}, {Device: "fan", On: false}}, actions)
	require.Len(t, sent, 2)
	assert.Equal(t, "RaspiDevice", sent[1].DeviceID)
	assert.Equal(t, 27.0, *sent[1].Data.Temperature)
	assert.Equal(t, base.Add(6*time.Second).UnixMilli(), sent[1].Timestamp)
}

func TestEnvStationErrors(t *testing.T) {
	boom := errors.New("bus error")
	st := &envStation{
		source:  &scriptedEnv{err: boom},
		auto:    env.NewAutomation(28, true, true, time.Second),
		apply:   func(env.Action) { t.Fatal("no action without a reading") },
		publish: func(env.Message) error { return nil },
	}
	_, err := st.step(time.Now())
	assert.ErrorIs(t, err, boom)

	st.source = &scriptedEnv{temps: []float64{20}}
	st.apply = func(env.Action) {}
	st.publish = func(env.Message) error { return errors.New("offline") }
	published, err := st.step(time.Now())
	assert.Error(t, err)
	assert.False(t, published)
	assert.True(t, st.lastSent.IsZero(), "failed publish is retried on the next reading")
}
