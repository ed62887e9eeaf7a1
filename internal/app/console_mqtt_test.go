package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/glove_controller/internal/config"
)

func TestFormatConsoleLine(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		topic, payload, want string
	}{
		{cfg.TopicIMU, `{"accel":{"x":0,"y":0.5,"z":1},"timestamp":12.5}`, "[IMU  ] t=12.500 ax= 0.000 ay= 0.500 az= 1.000"},
		{cfg.TopicIMU, `{"accel":{"x":0}}`, "[IMU  ] invalid payload: "},
		{cfg.TopicMotion, "LIFT_START", "[MOVE ] LIFT_START"},
		{cfg.TopicClick, "TRUE", "[CLICK] TRUE"},
		{cfg.TopicGUI, `{"click":"pressed"}`, `[GUI  ] {"click":"pressed"}`},
		{"sensors/abc/data", "{}", "[sensors/abc/data] {}"},
	}
	for _, tt := range tests {
		got := formatConsoleLine(cfg, tt.topic, []byte(tt.payload))
		if tt.topic == cfg.TopicIMU && tt.want == "[IMU  ] invalid payload: " {
			assert.Contains(t, got, tt.want)
			continue
		}
		assert.Equal(t, tt.want, got)
	}
}

func TestDataHas(t *testing.T) {
	assert.True(t, dataHas([]byte(`{"data":{"notes":[440]}}`), "notes"))
	assert.False(t, dataHas([]byte(`{"data":{"fan":"true"}}`), "notes"))
	assert.False(t, dataHas([]byte(`garbage`), "notes"))
}
