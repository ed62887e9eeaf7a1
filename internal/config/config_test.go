package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader("# only comments\n\n"))
	require.NoError(t, err)

	mc := cfg.MotionConfig()
	assert.Equal(t, 1.2, mc.LiftThreshold)
	assert.Equal(t, 0.8, mc.DropThreshold)
	assert.Equal(t, 10, mc.WindowSize)
	assert.Equal(t, 300*time.Millisecond, mc.MotionDuration)
	assert.Equal(t, 500*time.Millisecond, mc.Cooldown)
	assert.Equal(t, 6000, cfg.TelemetryDefaultInterval)
	assert.Equal(t, 20000, cfg.ForceThreshold)
}

func TestParseOverrides(t *testing.T) {
	input := `
DEVICE_ID = glove42
MQTT_BROKER=tcp://platform.local:1883
IMU_ACCEL_RANGE=2
IMU_MOCK=true
MOTION_LIFT_THRESHOLD=1.4
MOTION_WINDOW_SIZE=5
MOTION_COOLDOWN_MS=250
TOPIC_PLATFORM_DATA=sensors/{id}/data
`
	cfg, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "glove42", cfg.DeviceID)
	assert.Equal(t, "tcp://platform.local:1883", cfg.MQTTBroker)
	assert.Equal(t, byte(2), cfg.IMUAccelRange)
	assert.True(t, cfg.IMUMock)
	assert.Equal(t, 1.4, cfg.MotionConfig().LiftThreshold)
	assert.Equal(t, 5, cfg.MotionConfig().WindowSize)
	assert.Equal(t, 250*time.Millisecond, cfg.MotionConfig().Cooldown)
	assert.Equal(t, "sensors/glove42/data", cfg.PlatformDataTopic())
	assert.Equal(t, "devices/glove42/config", cfg.PlatformConfigTopic())
}

func TestParseEnvAndMetrics(t *testing.T) {
	input := `
ENV_ENABLED=true
ENV_BMP_ADDR=0x77
ENV_LIGHT_ADDR=0
ENV_TEMP_THRESHOLD=30.5
ENV_LED_AUTO=false
METRICS_PORT_FORCE=0
`
	cfg, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.True(t, cfg.EnvEnabled)
	assert.Equal(t, uint16(0x77), cfg.EnvBMPAddr)
	assert.Equal(t, uint16(0), cfg.EnvLightAddr)
	assert.Equal(t, 30.5, cfg.EnvTempThreshold)
	assert.True(t, cfg.EnvFanAuto)
	assert.False(t, cfg.EnvLEDAuto)
	assert.Equal(t, 0, cfg.MetricsPortForce)
	assert.Equal(t, 9102, cfg.MetricsPortMotion)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing equals", "MQTT_BROKER", "invalid config line 1"},
		{"unknown key", "\nFOO=bar", "config line 2: unknown config key"},
		{"accel range", "IMU_ACCEL_RANGE=7", "IMU_ACCEL_RANGE must be 0-3"},
		{"bad float", "MOTION_DROP_THRESHOLD=low", "invalid MOTION_DROP_THRESHOLD"},
		{"bad bool", "IMU_MOCK=maybe", "invalid IMU_MOCK"},
		{"thresholds swapped", "MOTION_DROP_THRESHOLD=1.5", "motion config"},
		{"empty broker", "MQTT_BROKER=", "MQTT_BROKER is required"},
		{"short telemetry", "TELEMETRY_DEFAULT_INTERVAL=10", "TELEMETRY_DEFAULT_INTERVAL must be"},
		{"bad i2c addr", "ENV_BMP_ADDR=0x80", "ENV_BMP_ADDR must be a 7-bit address"},
		{"bad metrics port", "METRICS_PORT_MOTION=70000", "METRICS_PORT_MOTION must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadAndGlobal(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "glove_config.txt")
	require.NoError(t, os.WriteFile(path, []byte("DEVICE_ID=abc\n"), 0o644))

	require.NoError(t, InitGlobal(path))
	require.NotNil(t, Get())
	assert.Equal(t, "abc", Get().DeviceID)
}
