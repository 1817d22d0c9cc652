package sensor

import (
	"errors"
	"fmt"
)

// Number of transducers of each kind wired to the analog front-end.
const (
	VoltageCount     = 6
	CurrentCount     = 6
	TemperatureCount = 4
)

var (
	// ErrInvalidSample is returned when a raw sample cannot be converted.
	ErrInvalidSample = errors.New("invalid raw sample")
	// ErrInvalidIndex is returned when a sensor is constructed with a negative index.
	ErrInvalidIndex = errors.New("invalid sensor index")
)

// Kind identifies the physical quantity a sensor measures.
// The underlying byte is the type tag written on the wire.
type Kind byte

const (
	KindVoltage     Kind = 'v'
	KindCurrent     Kind = 'c'
	KindTemperature Kind = 't'
)

// String returns a human readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindVoltage:
		return "voltage"
	case KindCurrent:
		return "current"
	case KindTemperature:
		return "temperature"
	default:
		return fmt.Sprintf("kind(%q)", byte(k))
	}
}

// Valid reports whether k is one of the recognized kinds.
func (k Kind) Valid() bool {
	return k == KindVoltage || k == KindCurrent || k == KindTemperature
}

// Count returns how many sensors of kind k exist.
func (k Kind) Count() int {
	switch k {
	case KindVoltage:
		return VoltageCount
	case KindCurrent:
		return CurrentCount
	case KindTemperature:
		return TemperatureCount
	default:
		return 0
	}
}

// Sensor is the read side shared by all sensor kinds.
type Sensor interface {
	Kind() Kind
	Index() int
	Value() float64
	Stale() bool
}

var (
	_ Sensor = Voltage{}
	_ Sensor = Current{}
	_ Sensor = Temperature{}
)

type base struct {
	index int
	value float64
	stale bool
}

func newBase(index int) (base, error) {
	if index < 0 {
		return base{}, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	return base{index: index}, nil
}

// Index returns the 0-based index of the sensor within its kind.
func (b base) Index() int { return b.index }

// Value returns the last successfully converted value.
func (b base) Value() float64 { return b.value }

// Stale reports whether the last read or conversion failed.
func (b base) Stale() bool { return b.stale }

// MarkStale flags the sensor after a failed read. The previous value is kept.
func (b *base) MarkStale() { b.stale = true }

func (b *base) store(v float64, err error) error {
	if err != nil {
		b.stale = true
		return err
	}
	b.value = v
	b.stale = false
	return nil
}

// Voltage is a bus voltage sensor. Values are in volts.
type Voltage struct{ base }

// NewVoltage creates voltage sensor number index.
func NewVoltage(index int) (Voltage, error) {
	b, err := newBase(index)
	return Voltage{b}, err
}

func (Voltage) Kind() Kind { return KindVoltage }

// Apply converts raw and stores the result.
func (s *Voltage) Apply(raw float64, cal Calibration) error {
	return s.store(cal.Volts(raw))
}

// Current is a shunt current sensor. Values are in amperes.
type Current struct{ base }

// NewCurrent creates current sensor number index.
func NewCurrent(index int) (Current, error) {
	b, err := newBase(index)
	return Current{b}, err
}

func (Current) Kind() Kind { return KindCurrent }

// Apply converts raw and stores the result.
func (s *Current) Apply(raw float64, cal Calibration) error {
	return s.store(cal.Amps(raw))
}

// Temperature is a thermistor sensor. Values are in kelvin.
type Temperature struct{ base }

// NewTemperature creates temperature sensor number index.
func NewTemperature(index int) (Temperature, error) {
	b, err := newBase(index)
	return Temperature{b}, err
}

func (Temperature) Kind() Kind { return KindTemperature }

// Apply converts raw and stores the result.
func (s *Temperature) Apply(raw float64, cal Calibration) error {
	return s.store(cal.Kelvin(raw))
}
