package sensor

import (
	"fmt"
	"math"
)

// Calibration holds the constants of the analog front-end.
type Calibration struct {
	ADCReference float64 `yaml:"adc_reference"` // ADC full scale voltage (V)
	ADCMax       float64 `yaml:"adc_max"`       // ADC code at full scale

	VoltageRef  float64 `yaml:"voltage_ref"`  // Series resistor of the voltage divider (Ohm)
	VoltageLoad float64 `yaml:"voltage_load"` // Sense resistor of the voltage divider (Ohm)

	CurrentRef  float64 `yaml:"current_ref"`  // Shunt resistor (Ohm)
	CurrentGain float64 `yaml:"current_gain"` // Shunt amplifier gain

	TempVin    float64 `yaml:"temp_vin"`     // Thermistor divider supply (V)
	TempRef    float64 `yaml:"temp_ref"`     // Thermistor divider reference resistor (Ohm)
	TempB      float64 `yaml:"temp_b"`       // Thermistor beta constant (K)
	TempAmb    float64 `yaml:"temp_amb"`     // Ambient calibration temperature (K)
	TempMesAmb float64 `yaml:"temp_mes_amb"` // Thermistor resistance at TempAmb (Ohm)
}

// DefaultCalibration returns the constants of the flight board.
func DefaultCalibration() Calibration {
	return Calibration{
		ADCReference: 5.0,
		ADCMax:       1023,
		VoltageRef:   0,
		VoltageLoad:  10000,
		CurrentRef:   1.2,
		CurrentGain:  2,
		TempVin:      5,
		TempRef:      10000,
		TempB:        3500,
		TempAmb:      298.15, // 25 C
		TempMesAmb:   2000,
	}
}

// Validate checks that no constant used as a divisor is zero or negative.
func (c Calibration) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"adc_reference", c.ADCReference},
		{"adc_max", c.ADCMax},
		{"voltage_load", c.VoltageLoad},
		{"current_ref", c.CurrentRef},
		{"current_gain", c.CurrentGain},
		{"temp_vin", c.TempVin},
		{"temp_ref", c.TempRef},
		{"temp_b", c.TempB},
		{"temp_amb", c.TempAmb},
		{"temp_mes_amb", c.TempMesAmb},
	}
	for _, ch := range checks {
		if !(ch.value > 0) {
			return fmt.Errorf("calibration %s must be > 0, got %v", ch.name, ch.value)
		}
	}
	if c.VoltageRef < 0 {
		return fmt.Errorf("calibration voltage_ref must be >= 0, got %v", c.VoltageRef)
	}
	return nil
}

// PinVoltage converts an ADC code to the voltage seen at the ADC input.
func (c Calibration) PinVoltage(raw float64) (float64, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw < 0 || raw > c.ADCMax {
		return 0, fmt.Errorf("%w: %v outside [0, %v]", ErrInvalidSample, raw, c.ADCMax)
	}
	return raw / c.ADCMax * c.ADCReference, nil
}

// Volts converts a raw sample of a voltage channel.
// Formula: V = Vpin * (Rref + Rload) / Rload
func (c Calibration) Volts(raw float64) (float64, error) {
	vpin, err := c.PinVoltage(raw)
	if err != nil {
		return 0, err
	}
	return vpin * (c.VoltageRef + c.VoltageLoad) / c.VoltageLoad, nil
}

// Amps converts a raw sample of a current channel.
// Formula: I = Vpin / (gain * Rshunt)
func (c Calibration) Amps(raw float64) (float64, error) {
	vpin, err := c.PinVoltage(raw)
	if err != nil {
		return 0, err
	}
	return vpin / (c.CurrentGain * c.CurrentRef), nil
}

// ThermistorResistance returns the thermistor resistance for a raw sample.
// The thermistor is the low side of a divider fed by TempVin through TempRef:
// Rt = Rref * V / (Vin - V)
func (c Calibration) ThermistorResistance(raw float64) (float64, error) {
	v, err := c.PinVoltage(raw)
	if err != nil {
		return 0, err
	}
	if v <= 0 || v >= c.TempVin {
		return 0, fmt.Errorf("%w: thermistor divider at rail (%.3f V)", ErrInvalidSample, v)
	}
	return c.TempRef * v / (c.TempVin - v), nil
}

// Kelvin converts a raw sample of a temperature channel using the beta model:
// 1/T = 1/Tamb + ln(Rt/Ramb) / B
func (c Calibration) Kelvin(raw float64) (float64, error) {
	rt, err := c.ThermistorResistance(raw)
	if err != nil {
		return 0, err
	}
	inv := 1/c.TempAmb + math.Log(rt/c.TempMesAmb)/c.TempB
	if inv <= 0 {
		return 0, fmt.Errorf("%w: thermistor resistance %.1f Ohm out of model range", ErrInvalidSample, rt)
	}
	return 1 / inv, nil
}

// RawForResistance returns the raw sample a thermistor of resistance rt produces.
// It is the inverse of ThermistorResistance and is used by simulators.
func (c Calibration) RawForResistance(rt float64) float64 {
	v := c.TempVin * rt / (c.TempRef + rt)
	return v / c.ADCReference * c.ADCMax
}

// RawForKelvin returns the raw sample a thermistor at temperature t produces.
func (c Calibration) RawForKelvin(t float64) float64 {
	rt := c.TempMesAmb * math.Exp(c.TempB*(1/t-1/c.TempAmb))
	return c.RawForResistance(rt)
}

// RawForVolts returns the raw sample a voltage channel reads at v volts.
func (c Calibration) RawForVolts(v float64) float64 {
	vpin := v * c.VoltageLoad / (c.VoltageRef + c.VoltageLoad)
	return vpin / c.ADCReference * c.ADCMax
}

// RawForAmps returns the raw sample a current channel reads at i amperes.
func (c Calibration) RawForAmps(i float64) float64 {
	return i * c.CurrentGain * c.CurrentRef / c.ADCReference * c.ADCMax
}
