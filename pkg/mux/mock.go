package mux

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/itohio/hktelem/pkg/config"
	"github.com/itohio/hktelem/pkg/sensor"
	"github.com/itohio/hktelem/pkg/status"
)

// Nominal bus values simulated by Mock, indexed like the sensors.
var (
	mockVolts = [sensor.VoltageCount]float64{5.0, 3.3, 4.2, 3.7, 1.8, 2.5}
	mockAmps  = [sensor.CurrentCount]float64{0.35, 0.12, 0.80, 0.05, 0.22, 0.40}
	mockKelv  = [sensor.TemperatureCount]float64{298.15, 293.15, 303.15, 288.15}
)

// Mock simulates the housekeeping front-end for testing and development.
type Mock struct {
	cfg *config.MockConfig
	cal sensor.Calibration

	mu        sync.Mutex
	startTime time.Time
	override  map[int]float64
	fail      map[int]bool
	reads     int
}

// NewMock creates a simulated mux producing raw samples for cal.
func NewMock(cfg *config.MockConfig, cal sensor.Calibration) *Mock {
	if cfg == nil {
		cfg = &config.MockConfig{
			NoiseLevel:  0.01,
			OrbitPeriod: 90 * time.Minute,
		}
	}
	m := &Mock{
		cfg:       cfg,
		cal:       cal,
		startTime: time.Now(),
		override:  make(map[int]float64),
		fail:      make(map[int]bool),
	}
	for _, ch := range cfg.FailChannels {
		m.fail[ch] = true
	}
	return m
}

// Set pins channel to a fixed raw sample.
func (m *Mock) Set(channel int, raw float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.override[channel] = raw
}

// Fail makes reads of channel fail (or succeed again).
func (m *Mock) Fail(channel int, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fail {
		m.fail[channel] = true
	} else {
		delete(m.fail, channel)
	}
}

// Reads returns the number of successful and failed reads so far.
func (m *Mock) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// ReadRaw returns a simulated ADC code for channel.
func (m *Mock) ReadRaw(channel int) (float64, error) {
	if err := checkChannel(channel); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++

	if m.fail[channel] {
		return 0, fmt.Errorf("simulated read failure on channel %d", channel)
	}
	if raw, ok := m.override[channel]; ok {
		return raw, nil
	}

	elapsed := time.Since(m.startTime)
	slot := status.Channels[channel]
	var raw float64
	switch slot.Kind {
	case sensor.KindVoltage:
		raw = m.cal.RawForVolts(mockVolts[slot.Index] * (1 + m.noise(elapsed, channel)))
	case sensor.KindCurrent:
		raw = m.cal.RawForAmps(mockAmps[slot.Index] * (1 + m.noise(elapsed, channel)))
	case sensor.KindTemperature:
		raw = m.cal.RawForKelvin(mockKelv[slot.Index] + m.orbit(elapsed))
	}

	// Clamp to the ADC range
	if raw < 0 {
		raw = 0
	} else if raw > m.cal.ADCMax {
		raw = m.cal.ADCMax
	}
	return math.Round(raw), nil
}

// noise returns a small deterministic relative deviation.
func (m *Mock) noise(elapsed time.Duration, channel int) float64 {
	t := float64(elapsed.Nanoseconds())
	return (math.Sin(t*0.001+float64(channel)) + math.Cos(t*0.0013)) * m.cfg.NoiseLevel * 0.5
}

// orbit returns the temperature swing (K) between sunlight and eclipse.
func (m *Mock) orbit(elapsed time.Duration) float64 {
	if m.cfg.OrbitPeriod <= 0 {
		return 0
	}
	phase := 2 * math.Pi * elapsed.Seconds() / m.cfg.OrbitPeriod.Seconds()
	return m.cfg.OrbitSwing * math.Sin(phase)
}

// Close is a no-op.
func (m *Mock) Close() error { return nil }
