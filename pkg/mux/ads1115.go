package mux

import (
	"fmt"
	"time"

	"github.com/itohio/hktelem/pkg/sensor"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

const (
	pointerConv   = 0x00
	pointerConfig = 0x01

	// DefaultADS1115Address is the address with ADDR tied to GND.
	DefaultADS1115Address = 0x48
	// ADS1115FullScale is the PGA full scale voltage used by this driver.
	ADS1115FullScale = 4.096
	// ADS1115MaxCode is the conversion code at full scale.
	ADS1115MaxCode = 32767
)

// ADS1115Calibration returns cal with the ADC range of this driver, so raw
// codes from Analog convert at the ADS1115 full scale.
func ADS1115Calibration(cal sensor.Calibration) sensor.Calibration {
	cal.ADCMax = ADS1115MaxCode
	cal.ADCReference = ADS1115FullScale
	return cal
}

// ADS1115 performs single-shot conversions on one input of an ADS1115.
type ADS1115 struct {
	dev        *i2c.Dev
	bus        i2c.BusCloser
	input      int
	sampleRate int
}

// OpenADS1115 opens the I2C bus and prepares single-shot reads of input (0..3).
func OpenADS1115(busName string, addr uint16, input int, sampleRate int) (*ADS1115, error) {
	if _, _, err := configWord(input, sampleRate); err != nil {
		return nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c %q: %w", busName, err)
	}
	if addr == 0 {
		addr = DefaultADS1115Address
	}
	return &ADS1115{
		dev:        &i2c.Dev{Addr: addr, Bus: bus},
		bus:        bus,
		input:      input,
		sampleRate: sampleRate,
	}, nil
}

// Read starts a conversion and returns the signed result.
func (a *ADS1115) Read() (int16, error) {
	msb, lsb, err := configWord(a.input, a.sampleRate)
	if err != nil {
		return 0, err
	}
	if err := a.dev.Tx([]byte{pointerConfig, msb, lsb}, nil); err != nil {
		return 0, fmt.Errorf("write config: %w", err)
	}
	time.Sleep(conversionTime(a.sampleRate))

	buf := make([]byte, 2)
	if err := a.dev.Tx([]byte{pointerConv}, buf); err != nil {
		return 0, fmt.Errorf("read conv: %w", err)
	}
	return int16(buf[0])<<8 | int16(buf[1]), nil
}

// Close releases the I2C bus.
func (a *ADS1115) Close() error {
	if a.bus != nil {
		return a.bus.Close()
	}
	return nil
}

// conversionTime is one sample period plus margin.
func conversionTime(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		sampleRate = 128
	}
	return time.Duration(1000/sampleRate+2) * time.Millisecond
}

// configWord builds the config register for a single-ended single-shot conversion.
func configWord(input int, sampleRate int) (byte, byte, error) {
	var mux byte
	switch input {
	case 0:
		mux = 0x4
	case 1:
		mux = 0x5
	case 2:
		mux = 0x6
	case 3:
		mux = 0x7
	default:
		return 0, 0, fmt.Errorf("invalid ADS1115 input %d", input)
	}
	// PGA ±4.096V
	pga := byte(0x1)
	var dr byte
	switch sampleRate {
	case 8:
		dr = 0x0
	case 16:
		dr = 0x1
	case 32:
		dr = 0x2
	case 64:
		dr = 0x3
	case 128:
		dr = 0x4
	case 250:
		dr = 0x5
	case 475:
		dr = 0x6
	case 860:
		dr = 0x7
	default:
		dr = 0x4
	}
	var config uint16 = 0x8000 // OS: start single conversion
	config |= uint16(mux) << 12
	config |= uint16(pga) << 9
	config |= 1 << 8 // single-shot
	config |= uint16(dr) << 5
	config |= 0x3 // comparator disabled
	return byte(config >> 8), byte(config & 0xFF), nil
}
