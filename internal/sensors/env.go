package sensors

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"

	"github.com/relabs-tech/glove_controller/internal/env"
)

// BH1750 one-time high resolution measurement.
const (
	bh1750OneTimeHigh = 0x20
	bh1750Delay       = 180 * time.Millisecond
)

// EnvStation reads a BMP280/BME280 and, optionally, a BH1750 light sensor
// sharing one I2C bus.
type EnvStation struct {
	mu    sync.Mutex
	bmp   *bmxx80.Dev
	isBME bool
	light *i2c.Dev // nil when no light sensor is fitted
	delay time.Duration
}

// NewEnvStation initializes the pressure sensor at bmpAddr. A zero
// lightAddr disables the light sensor.
func NewEnvStation(bus i2c.Bus, bmpAddr, lightAddr uint16) (*EnvStation, error) {
	dev, err := bmxx80.NewI2C(bus, bmpAddr, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("BMP init at %#x: %w", bmpAddr, err)
	}
	s := &EnvStation{
		bmp:   dev,
		isBME: strings.HasPrefix(dev.String(), "BME280"),
		delay: bh1750Delay,
	}
	if lightAddr != 0 {
		s.light = &i2c.Dev{Bus: bus, Addr: lightAddr}
	}
	return s, nil
}

// ReadEnv implements env.Source. A failing light sensor leaves Light nil
// without failing the whole reading.
func (s *EnvStation) ReadEnv() (env.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var e physic.Env
	if err := s.bmp.Sense(&e); err != nil {
		return env.Reading{}, fmt.Errorf("BMP sense: %w", err)
	}
	pressurePa := float64(e.Pressure) / float64(physic.Pascal)
	r := env.Reading{
		Temperature: env.Value(e.Temperature.Celsius()),
		Pressure:    env.Value(pressurePa / 100.0), // hPa
	}
	if s.isBME {
		r.Humidity = env.Value(float64(e.Humidity) / float64(physic.PercentRH))
	}
	if s.light != nil {
		if lux, err := readLux(s.light, s.delay); err == nil {
			r.Light = env.Value(lux)
		}
	}
	return r, nil
}

// Halt puts the pressure sensor to sleep.
func (s *EnvStation) Halt() error {
	return s.bmp.Halt()
}

// readLux triggers one BH1750 measurement and converts it to lux.
func readLux(d *i2c.Dev, delay time.Duration) (float64, error) {
	if err := d.Tx([]byte{bh1750OneTimeHigh}, nil); err != nil {
		return 0, fmt.Errorf("BH1750 trigger: %w", err)
	}
	time.Sleep(delay)
	var buf [2]byte
	if err := d.Tx(nil, buf[:]); err != nil {
		return 0, fmt.Errorf("BH1750 read: %w", err)
	}
	return float64(uint16(buf[0])<<8|uint16(buf[1])) / 1.2, nil
}

// mockEnv produces plausible indoor readings for benches without the
// station attached.
type mockEnv struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockEnv returns a source of random readings in indoor ranges.
func NewMockEnv() env.Source {
	return newMockEnv(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
}

func newMockEnv(rng *rand.Rand) *mockEnv {
	return &mockEnv{rng: rng}
}

func (m *mockEnv) uniform(lo, hi float64) float64 {
	return lo + m.rng.Float64()*(hi-lo)
}

func (m *mockEnv) ReadEnv() (env.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return env.Reading{
		Temperature: env.Value(m.uniform(18, 32)),
		Humidity:    env.Value(m.uniform(30, 80)),
		Light:       env.Value(float64(100 + m.rng.IntN(901))),
		Pressure:    env.Value(m.uniform(980, 1025)),
	}, nil
}
