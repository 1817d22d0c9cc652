package status

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/itohio/hktelem/pkg/frame"
	"github.com/itohio/hktelem/pkg/sensor"
)

// DefaultSettle is the multiplexer settling time between channel reads.
const DefaultSettle = 50 * time.Millisecond

var (
	// ErrOutOfRange is returned by the sensor accessors for invalid indices.
	ErrOutOfRange = errors.New("sensor index out of range")
	// ErrSensorRead is returned by Update when one or more channels failed.
	ErrSensorRead = errors.New("sensor read failure")
	// ErrTransport is returned by Send when the frame could not be written.
	ErrTransport = errors.New("transport failure")
)

// Multiplexer returns a raw ADC sample for a channel.
type Multiplexer interface {
	ReadRaw(channel int) (float64, error)
}

// Options configures a Status.
type Options struct {
	Calibration sensor.Calibration
	Format      frame.Format
}

// DefaultOptions returns the flight board calibration and ground framing.
func DefaultOptions() Options {
	return Options{
		Calibration: sensor.DefaultCalibration(),
		Format:      frame.DefaultFormat(),
	}
}

// Status owns every housekeeping sensor and the multiplexer they are wired to.
// It is not safe for concurrent use.
type Status struct {
	mux  Multiplexer
	out  io.Writer
	opts Options

	voltages     [sensor.VoltageCount]sensor.Voltage
	currents     [sensor.CurrentCount]sensor.Current
	temperatures [sensor.TemperatureCount]sensor.Temperature

	mode  bool
	sleep func(time.Duration)
}

// New creates a Status reading from mux and writing frames to out.
func New(mux Multiplexer, out io.Writer, opts Options) (*Status, error) {
	if mux == nil {
		return nil, errors.New("multiplexer is required")
	}
	if out == nil {
		return nil, errors.New("transport is required")
	}
	if err := opts.Calibration.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Format.Validate(); err != nil {
		return nil, err
	}

	s := &Status{
		mux:   mux,
		out:   out,
		opts:  opts,
		sleep: time.Sleep,
	}
	if err := s.initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

// initialize assigns every sensor its identity from the channel table.
func (s *Status) initialize() error {
	for ch, slot := range Channels {
		var err error
		switch slot.Kind {
		case sensor.KindVoltage:
			s.voltages[slot.Index], err = sensor.NewVoltage(slot.Index)
		case sensor.KindCurrent:
			s.currents[slot.Index], err = sensor.NewCurrent(slot.Index)
		case sensor.KindTemperature:
			s.temperatures[slot.Index], err = sensor.NewTemperature(slot.Index)
		default:
			err = fmt.Errorf("unknown sensor kind %v", slot.Kind)
		}
		if err != nil {
			return fmt.Errorf("channel %d: %w", ch, err)
		}
	}
	s.mode = true
	return nil
}

// SetMode sets the mode flag. The flag does not gate Update or Send.
func (s *Status) SetMode(enabled bool) {
	if s.mode != enabled {
		log.Printf("Housekeeping mode changed to %v", enabled)
	}
	s.mode = enabled
}

// Mode returns the mode flag.
func (s *Status) Mode() bool {
	return s.mode
}

// Update reads all channels in ascending order, converts every sample and
// waits settle after each read. A failing channel marks its sensor stale and
// the sweep continues; the returned error wraps ErrSensorRead.
func (s *Status) Update(settle time.Duration) error {
	var errs []error
	for ch := 0; ch < ChannelCount; ch++ {
		if err := s.readChannel(ch); err != nil {
			log.Printf("Channel %d: %v", ch, err)
			errs = append(errs, fmt.Errorf("channel %d: %w", ch, err))
		}
		if settle > 0 {
			s.sleep(settle)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSensorRead, errors.Join(errs...))
	}
	return nil
}

func (s *Status) readChannel(ch int) error {
	slot := Channels[ch]
	raw, err := s.mux.ReadRaw(ch)

	switch slot.Kind {
	case sensor.KindVoltage:
		if err != nil {
			s.voltages[slot.Index].MarkStale()
			return err
		}
		return s.voltages[slot.Index].Apply(raw, s.opts.Calibration)
	case sensor.KindCurrent:
		if err != nil {
			s.currents[slot.Index].MarkStale()
			return err
		}
		return s.currents[slot.Index].Apply(raw, s.opts.Calibration)
	case sensor.KindTemperature:
		if err != nil {
			s.temperatures[slot.Index].MarkStale()
			return err
		}
		return s.temperatures[slot.Index].Apply(raw, s.opts.Calibration)
	}
	return fmt.Errorf("unknown sensor kind %v", slot.Kind)
}

// Frame returns the current sensor values.
func (s *Status) Frame() frame.Frame {
	var fr frame.Frame
	for i := range s.voltages {
		fr.Voltages[i] = s.voltages[i].Value()
	}
	for i := range s.currents {
		fr.Currents[i] = s.currents[i].Value()
	}
	for i := range s.temperatures {
		fr.Temperatures[i] = s.temperatures[i].Value()
	}
	return fr
}

// Format returns the framing used by Send.
func (s *Status) Format() frame.Format {
	return s.opts.Format
}

// Send writes the current values to the transport as a single frame.
// Sensor state is not modified, so a failed Send can simply be repeated.
func (s *Status) Send() error {
	line := s.opts.Format.Encode(s.Frame())
	n, err := io.WriteString(s.out, line)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if n != len(line) {
		return fmt.Errorf("%w: %w (%d of %d bytes)", ErrTransport, io.ErrShortWrite, n, len(line))
	}
	return nil
}

// Voltage returns a copy of voltage sensor i.
func (s *Status) Voltage(i int) (sensor.Voltage, error) {
	if i < 0 || i >= len(s.voltages) {
		return sensor.Voltage{}, fmt.Errorf("%w: voltage %d", ErrOutOfRange, i)
	}
	return s.voltages[i], nil
}

// Current returns a copy of current sensor i.
func (s *Status) Current(i int) (sensor.Current, error) {
	if i < 0 || i >= len(s.currents) {
		return sensor.Current{}, fmt.Errorf("%w: current %d", ErrOutOfRange, i)
	}
	return s.currents[i], nil
}

// Temperature returns a copy of temperature sensor i.
func (s *Status) Temperature(i int) (sensor.Temperature, error) {
	if i < 0 || i >= len(s.temperatures) {
		return sensor.Temperature{}, fmt.Errorf("%w: temperature %d", ErrOutOfRange, i)
	}
	return s.temperatures[i], nil
}

// Sensors returns copies of all sensors in frame order.
func (s *Status) Sensors() []sensor.Sensor {
	out := make([]sensor.Sensor, 0, ChannelCount)
	for _, v := range s.voltages {
		out = append(out, v)
	}
	for _, c := range s.currents {
		out = append(out, c)
	}
	for _, t := range s.temperatures {
		out = append(out, t)
	}
	return out
}
