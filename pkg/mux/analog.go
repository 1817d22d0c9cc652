package mux

import (
	"fmt"
	"log"

	"github.com/warthog618/go-gpiocdev"
)

// AnalogConfig describes a 16:1 analog mux whose common pin feeds an ADS1115.
type AnalogConfig struct {
	GPIOChip    string // e.g. "gpiochip0"
	SelectLines []int  // offsets of S0..S3
	I2CBus      string
	I2CAddress  uint16
	ADCInput    int // ADS1115 input wired to the mux common pin
	SampleRate  int // ADS1115 samples per second
}

// Analog drives the mux select lines through the GPIO character device and
// samples the common pin with an ADS1115.
type Analog struct {
	lines *gpiocdev.Lines
	adc   *ADS1115
}

// NewAnalog requests the select lines and opens the ADC.
func NewAnalog(cfg AnalogConfig) (*Analog, error) {
	if len(cfg.SelectLines) != 4 {
		return nil, fmt.Errorf("need 4 select lines, got %d", len(cfg.SelectLines))
	}
	lines, err := gpiocdev.RequestLines(cfg.GPIOChip, cfg.SelectLines, gpiocdev.AsOutput(0, 0, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("request select lines on %s: %w", cfg.GPIOChip, err)
	}
	adc, err := OpenADS1115(cfg.I2CBus, cfg.I2CAddress, cfg.ADCInput, cfg.SampleRate)
	if err != nil {
		lines.Close()
		return nil, err
	}
	return &Analog{lines: lines, adc: adc}, nil
}

// ReadRaw selects channel and returns the ADC code of the common pin.
// Negative codes (noise around 0 V) are clamped to 0.
func (a *Analog) ReadRaw(channel int) (float64, error) {
	if err := checkChannel(channel); err != nil {
		return 0, err
	}
	if err := a.lines.SetValues(selectBits(channel)); err != nil {
		return 0, fmt.Errorf("select channel %d: %w", channel, err)
	}
	code, err := a.adc.Read()
	if err != nil {
		return 0, fmt.Errorf("sample channel %d: %w", channel, err)
	}
	if code < 0 {
		code = 0
	}
	return float64(code), nil
}

// Close releases the select lines and the ADC.
func (a *Analog) Close() error {
	if err := a.lines.Close(); err != nil {
		log.Printf("Error releasing select lines: %v", err)
	}
	return a.adc.Close()
}
