// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/glove_controller/internal/motion"
)

// Config holds all application configuration values.
type Config struct {
	// Device identity on the platform
	DeviceID string

	// MQTT
	MQTTBroker          string
	MQTTBrokerFallback  string // host used when the broker name does not resolve
	MQTTClientIDIMU     string
	MQTTClientIDMotion  string
	MQTTClientIDForce   string
	MQTTClientIDWeb     string
	MQTTClientIDBridge  string
	MQTTClientIDDevices string
	MQTTClientIDConsole string

	// Topics
	TopicIMU    string
	TopicMotion string
	TopicClick  string
	TopicGUI    string
	// Emotion reported by the vision module, shown on the status display
	TopicEmotion string
	// Platform topics; "{id}" is replaced with DeviceID
	TopicPlatformData   string
	TopicPlatformConfig string

	// IMU Hardware
	IMUSPIDevice string
	IMUCSPin     string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange     byte
	IMUSampleInterval int // milliseconds
	IMUMock           bool

	// Motion classifier
	MotionLiftThreshold float64
	MotionDropThreshold float64
	MotionWindowSize    int
	MotionDurationMS    int
	MotionCooldownMS    int
	MotionEvalInterval  int // milliseconds

	// Force sensor
	ForceSerialPort string
	ForceBaudRate   int
	ForceThreshold  int

	// Telemetry bridge
	TelemetryPrefsFile       string
	TelemetryDefaultInterval int // milliseconds

	// Dashboard
	WebServerPort      int
	GUIPublishInterval int // milliseconds
	JournalDBPath      string

	// Devices (GPIO names as understood by periph gpioreg)
	FanPin         string
	LEDPin         string
	BuzzerPin      string
	ButtonPin      string
	DisplayEnabled bool
	I2CBus         string // shared by the display and the station; "" selects the first bus

	// Environment station (BMP280/BME280 + BH1750 on I2C)
	EnvEnabled        bool
	EnvMock           bool
	EnvBMPAddr        uint16
	EnvLightAddr      uint16 // 0 disables the light sensor
	EnvTempThreshold  float64
	EnvFanAuto        bool
	EnvLEDAuto        bool
	EnvReadInterval   int // milliseconds
	EnvUpdateInterval int // milliseconds

	// Prometheus listeners, one per program; 0 disables
	MetricsPortIMU     int
	MetricsPortMotion  int
	MetricsPortForce   int
	MetricsPortBridge  int
	MetricsPortDevices int
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used when a key is absent from the file.
func Default() *Config {
	mc := motion.DefaultConfig()
	return &Config{
		DeviceID: "zmpTGC3eGcrhixv8U7TRUJ",

		MQTTBroker:          "tcp://localhost:1883",
		MQTTBrokerFallback:  "192.168.1.100",
		MQTTClientIDIMU:     "glove-imu-producer",
		MQTTClientIDMotion:  "glove-motion-detector",
		MQTTClientIDForce:   "glove-force-detector",
		MQTTClientIDWeb:     "glove-dashboard",
		MQTTClientIDBridge:  "glove-telemetry-bridge",
		MQTTClientIDDevices: "glove-devices",
		MQTTClientIDConsole: "glove-console",

		TopicIMU:            "glove/imu/all_data",
		TopicMotion:         "glove/motion/detection",
		TopicClick:          "glove/click",
		TopicGUI:            "glove/gui",
		TopicEmotion:        "glove/vision/emotion",
		TopicPlatformData:   "sensors/{id}/data",
		TopicPlatformConfig: "devices/{id}/config",

		IMUSPIDevice:      "/dev/spidev0.0",
		IMUCSPin:          "8",
		IMUAccelRange:     0,
		IMUSampleInterval: 20,

		MotionLiftThreshold: mc.LiftThreshold,
		MotionDropThreshold: mc.DropThreshold,
		MotionWindowSize:    mc.WindowSize,
		MotionDurationMS:    int(mc.MotionDuration / time.Millisecond),
		MotionCooldownMS:    int(mc.Cooldown / time.Millisecond),
		MotionEvalInterval:  50,

		ForceSerialPort: "/dev/ttyACM0",
		ForceBaudRate:   115200,
		ForceThreshold:  20000,

		TelemetryPrefsFile:       "esp32-data.json",
		TelemetryDefaultInterval: 6000,

		WebServerPort:      8080,
		GUIPublishInterval: 100,

		FanPin:    "GPIO27",
		LEDPin:    "GPIO22",
		BuzzerPin: "GPIO18",
		ButtonPin: "GPIO17",

		EnvBMPAddr:        0x76,
		EnvLightAddr:      0x23,
		EnvTempThreshold:  28.0,
		EnvFanAuto:        true,
		EnvLEDAuto:        true,
		EnvReadInterval:   1000,
		EnvUpdateInterval: 6000,

		MetricsPortIMU:     9101,
		MetricsPortMotion:  9102,
		MetricsPortForce:   9103,
		MetricsPortBridge:  9104,
		MetricsPortDevices: 9105,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines on top of Default().
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseInt(key, value string, min, max int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, min, max, v)
	}
	return v, nil
}

// parseAddr accepts decimal or 0x-prefixed 7-bit I2C addresses.
func parseAddr(key, value string) (uint16, error) {
	v, err := strconv.ParseUint(value, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v > 0x7f {
		return 0, fmt.Errorf("%s must be a 7-bit address, got %#x", key, v)
	}
	return uint16(v), nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseBool(key, value string) (bool, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	case "DEVICE_ID":
		c.DeviceID = value

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_BROKER_FALLBACK":
		c.MQTTBrokerFallback = value
	case "MQTT_CLIENT_ID_IMU":
		c.MQTTClientIDIMU = value
	case "MQTT_CLIENT_ID_MOTION":
		c.MQTTClientIDMotion = value
	case "MQTT_CLIENT_ID_FORCE":
		c.MQTTClientIDForce = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_BRIDGE":
		c.MQTTClientIDBridge = value
	case "MQTT_CLIENT_ID_DEVICES":
		c.MQTTClientIDDevices = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value

	// Topics
	case "TOPIC_IMU":
		c.TopicIMU = value
	case "TOPIC_MOTION":
		c.TopicMotion = value
	case "TOPIC_CLICK":
		c.TopicClick = value
	case "TOPIC_GUI":
		c.TopicGUI = value
	case "TOPIC_EMOTION":
		c.TopicEmotion = value
	case "TOPIC_PLATFORM_DATA":
		c.TopicPlatformData = value
	case "TOPIC_PLATFORM_CONFIG":
		c.TopicPlatformConfig = value

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		var v int
		if v, err = parseInt(key, value, 0, 3); err == nil {
			c.IMUAccelRange = byte(v)
		}
	case "IMU_SAMPLE_INTERVAL":
		c.IMUSampleInterval, err = parseInt(key, value, 1, 10000)
	case "IMU_MOCK":
		c.IMUMock, err = parseBool(key, value)

	// Motion classifier
	case "MOTION_LIFT_THRESHOLD":
		c.MotionLiftThreshold, err = parseFloat(key, value)
	case "MOTION_DROP_THRESHOLD":
		c.MotionDropThreshold, err = parseFloat(key, value)
	case "MOTION_WINDOW_SIZE":
		c.MotionWindowSize, err = parseInt(key, value, 1, 1000)
	case "MOTION_DURATION_MS":
		c.MotionDurationMS, err = parseInt(key, value, 0, 60000)
	case "MOTION_COOLDOWN_MS":
		c.MotionCooldownMS, err = parseInt(key, value, 0, 60000)
	case "MOTION_EVAL_INTERVAL":
		c.MotionEvalInterval, err = parseInt(key, value, 1, 10000)

	// Force sensor
	case "FORCE_SERIAL_PORT":
		c.ForceSerialPort = value
	case "FORCE_BAUD_RATE":
		c.ForceBaudRate, err = parseInt(key, value, 1, 4000000)
	case "FORCE_THRESHOLD":
		c.ForceThreshold, err = parseInt(key, value, 0, 65535)

	// Telemetry bridge
	case "TELEMETRY_PREFS_FILE":
		c.TelemetryPrefsFile = value
	case "TELEMETRY_DEFAULT_INTERVAL":
		c.TelemetryDefaultInterval, err = parseInt(key, value, 1000, 86400000)

	// Dashboard
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value, 1, 65535)
	case "GUI_PUBLISH_INTERVAL":
		c.GUIPublishInterval, err = parseInt(key, value, 10, 60000)
	case "JOURNAL_DB_PATH":
		c.JournalDBPath = value

	// Devices
	case "FAN_PIN":
		c.FanPin = value
	case "LED_PIN":
		c.LEDPin = value
	case "BUZZER_PIN":
		c.BuzzerPin = value
	case "BUTTON_PIN":
		c.ButtonPin = value
	case "DISPLAY_ENABLED":
		c.DisplayEnabled, err = parseBool(key, value)
	case "I2C_BUS":
		c.I2CBus = value

	// Environment station
	case "ENV_ENABLED":
		c.EnvEnabled, err = parseBool(key, value)
	case "ENV_MOCK":
		c.EnvMock, err = parseBool(key, value)
	case "ENV_BMP_ADDR":
		c.EnvBMPAddr, err = parseAddr(key, value)
	case "ENV_LIGHT_ADDR":
		c.EnvLightAddr, err = parseAddr(key, value)
	case "ENV_TEMP_THRESHOLD":
		c.EnvTempThreshold, err = parseFloat(key, value)
	case "ENV_FAN_AUTO":
		c.EnvFanAuto, err = parseBool(key, value)
	case "ENV_LED_AUTO":
		c.EnvLEDAuto, err = parseBool(key, value)
	case "ENV_READ_INTERVAL":
		c.EnvReadInterval, err = parseInt(key, value, 100, 3600000)
	case "ENV_UPDATE_INTERVAL":
		c.EnvUpdateInterval, err = parseInt(key, value, 1000, 86400000)

	// Metrics
	case "METRICS_PORT_IMU":
		c.MetricsPortIMU, err = parseInt(key, value, 0, 65535)
	case "METRICS_PORT_MOTION":
		c.MetricsPortMotion, err = parseInt(key, value, 0, 65535)
	case "METRICS_PORT_FORCE":
		c.MetricsPortForce, err = parseInt(key, value, 0, 65535)
	case "METRICS_PORT_BRIDGE":
		c.MetricsPortBridge, err = parseInt(key, value, 0, 65535)
	case "METRICS_PORT_DEVICES":
		c.MetricsPortDevices, err = parseInt(key, value, 0, 65535)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.DeviceID == "" {
		return fmt.Errorf("DEVICE_ID is required")
	}
	if !c.IMUMock && c.IMUSPIDevice == "" {
		return fmt.Errorf("IMU_SPI_DEVICE is required unless IMU_MOCK=true")
	}
	if err := c.MotionConfig().Validate(); err != nil {
		return fmt.Errorf("motion config: %w", err)
	}
	return nil
}

// MotionConfig converts the MOTION_* values into a classifier config.
func (c *Config) MotionConfig() motion.Config {
	return motion.Config{
		LiftThreshold:  c.MotionLiftThreshold,
		DropThreshold:  c.MotionDropThreshold,
		WindowSize:     c.MotionWindowSize,
		MotionDuration: time.Duration(c.MotionDurationMS) * time.Millisecond,
		Cooldown:       time.Duration(c.MotionCooldownMS) * time.Millisecond,
	}
}

// PlatformDataTopic returns the data topic for this device.
func (c *Config) PlatformDataTopic() string {
	return strings.ReplaceAll(c.TopicPlatformData, "{id}", c.DeviceID)
}

// PlatformConfigTopic returns the config topic for this device.
func (c *Config) PlatformConfigTopic() string {
	return strings.ReplaceAll(c.TopicPlatformConfig, "{id}", c.DeviceID)
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads; later calls return the first result.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
