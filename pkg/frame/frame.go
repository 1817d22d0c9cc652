package frame

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/itohio/hktelem/pkg/sensor"
)

const (
	// DefaultHeader marks the start of a frame.
	DefaultHeader = "H"
	// DefaultDelimiter terminates every record.
	DefaultDelimiter = ","
	// DefaultFooter marks the end of a frame. A newline follows it.
	DefaultFooter = "F"

	// Precision is the number of decimal places written for every value.
	Precision = 2
)

// ErrMalformed is returned by Parse for lines that are not valid frames.
var ErrMalformed = errors.New("malformed frame")

// Frame is one snapshot of all housekeeping values.
type Frame struct {
	Voltages     [sensor.VoltageCount]float64     `json:"voltages"`     // V
	Currents     [sensor.CurrentCount]float64     `json:"currents"`     // A
	Temperatures [sensor.TemperatureCount]float64 `json:"temperatures"` // K
}

// Record is a frame received at a point in time.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Frame     Frame     `json:"frame"`
}

// Format holds the framing strings shared with the ground parser.
type Format struct {
	Header    string `yaml:"header"`
	Delimiter string `yaml:"delimiter"`
	Footer    string `yaml:"footer"`
}

// DefaultFormat returns the framing used by the ground station.
func DefaultFormat() Format {
	return Format{
		Header:    DefaultHeader,
		Delimiter: DefaultDelimiter,
		Footer:    DefaultFooter,
	}
}

// Validate checks that the framing can be parsed back unambiguously.
func (f Format) Validate() error {
	if f.Delimiter == "" {
		return errors.New("frame delimiter must not be empty")
	}
	if strings.ContainsAny(f.Delimiter, "0123456789.-") {
		return fmt.Errorf("frame delimiter %q collides with value characters", f.Delimiter)
	}
	if strings.Contains(f.Header+f.Delimiter+f.Footer, "\n") {
		return errors.New("frame strings must not contain newlines")
	}
	return nil
}

type block struct {
	kind   sensor.Kind
	values []float64
}

func (fr *Frame) blocks() []block {
	return []block{
		{sensor.KindVoltage, fr.Voltages[:]},
		{sensor.KindCurrent, fr.Currents[:]},
		{sensor.KindTemperature, fr.Temperatures[:]},
	}
}

// Encode renders fr as one newline terminated line.
// Format: HEADER v0-x,1-x,...c0-x,...t0-x,...FOOTER\n
func (f Format) Encode(fr Frame) string {
	var b strings.Builder
	b.Grow(len(f.Header) + len(f.Footer) + 16*12)
	b.WriteString(f.Header)
	for _, blk := range fr.blocks() {
		b.WriteByte(byte(blk.kind))
		for i, v := range blk.values {
			b.WriteString(strconv.Itoa(i))
			b.WriteByte('-')
			b.WriteString(FormatValue(v))
			b.WriteString(f.Delimiter)
		}
	}
	b.WriteString(f.Footer)
	b.WriteByte('\n')
	return b.String()
}

// FormatValue renders a value the way it appears on the wire.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', Precision, 64)
}

// Parse decodes a single line produced by Encode.
// Surrounding whitespace, including the trailing newline, is ignored.
func (f Format) Parse(line string) (Frame, error) {
	var fr Frame

	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, f.Header) {
		return fr, fmt.Errorf("%w: missing header %q", ErrMalformed, f.Header)
	}
	if !strings.HasSuffix(line, f.Footer) || len(line) < len(f.Header)+len(f.Footer) {
		return fr, fmt.Errorf("%w: missing footer %q", ErrMalformed, f.Footer)
	}
	body := line[len(f.Header) : len(line)-len(f.Footer)]

	for _, blk := range fr.blocks() {
		if body == "" || body[0] != byte(blk.kind) {
			return fr, fmt.Errorf("%w: expected %s block", ErrMalformed, blk.kind)
		}
		body = body[1:]
		for i := range blk.values {
			end := strings.Index(body, f.Delimiter)
			if end < 0 {
				return fr, fmt.Errorf("%w: %s %d not terminated", ErrMalformed, blk.kind, i)
			}
			v, err := parseRecord(body[:end], i)
			if err != nil {
				return fr, fmt.Errorf("%w: %s: %v", ErrMalformed, blk.kind, err)
			}
			blk.values[i] = v
			body = body[end+len(f.Delimiter):]
		}
	}
	if body != "" {
		return fr, fmt.Errorf("%w: trailing data %q", ErrMalformed, body)
	}
	return fr, nil
}

// parseRecord parses "<index>-<value>" and checks the index.
func parseRecord(rec string, want int) (float64, error) {
	idx, val, ok := strings.Cut(rec, "-")
	if !ok {
		return 0, fmt.Errorf("record %q has no index separator", rec)
	}
	i, err := strconv.Atoi(idx)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: %w", idx, err)
	}
	if i != want {
		return 0, fmt.Errorf("index %d out of order, want %d", i, want)
	}
	v, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", val, err)
	}
	return v, nil
}
