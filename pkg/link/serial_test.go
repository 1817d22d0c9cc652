package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/itohio/hktelem/pkg/frame"
	"go.bug.st/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(ch <-chan frame.Record) []frame.Record {
	var out []frame.Record
	for r := range ch {
		out = append(out, r)
	}
	return out
}

func TestScanFrames(t *testing.T) {
	format := frame.DefaultFormat()
	a := frame.Frame{Voltages: [6]float64{5, 3.3, 0, 0, 0, 1}, Temperatures: [4]float64{298.15, 0, 0, 0}}
	b := frame.Frame{Currents: [6]float64{0.5, 0, 0, 0, 0, 0.25}}

	input := format.Encode(a) +
		"\n" +
		"garbage line\n" +
		"Hv0-1.00,F\n" +
		format.Encode(b)

	out := make(chan frame.Record, 10)
	before := time.Now()
	scanFrames(context.Background(), strings.NewReader(input), format, out)

	records := collect(out)
	require.Len(t, records, 2)
	assert.Equal(t, a, records[0].Frame)
	assert.Equal(t, b, records[1].Frame)
	assert.False(t, records[0].Timestamp.Before(before))
}

func TestScanFrames_CustomFormat(t *testing.T) {
	format := frame.Format{Header: "$HK", Delimiter: ";", Footer: "*"}
	fr := frame.Frame{Temperatures: [4]float64{290.5, 291.5, 292.5, 293.5}}

	out := make(chan frame.Record, 1)
	scanFrames(context.Background(), strings.NewReader(format.Encode(fr)+frame.DefaultFormat().Encode(fr)), format, out)

	records := collect(out)
	require.Len(t, records, 1)
	assert.Equal(t, fr, records[0].Frame)
}

func TestScanFrames_DropsWhenFull(t *testing.T) {
	format := frame.DefaultFormat()
	input := strings.Repeat(format.Encode(frame.Frame{}), 5)

	out := make(chan frame.Record, 2)
	scanFrames(context.Background(), strings.NewReader(input), format, out)

	assert.Len(t, collect(out), 2)
}

func TestScanFrames_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan frame.Record, 1)
	scanFrames(ctx, strings.NewReader(frame.DefaultFormat().Encode(frame.Frame{})), frame.DefaultFormat(), out)

	_, ok := <-out
	assert.False(t, ok)
}

// closedPortError reports the code go.bug.st/serial uses when a blocked read
// is interrupted by Close.
type closedPortError struct{}

func (closedPortError) Error() string { return "Port has been closed" }
func (closedPortError) Code() serial.PortErrorCode { return serial.PortClosed }

func TestIsClosed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"eof", io.EOF, true},
		{"closed pipe", io.ErrClosedPipe, true},
		{"closed file", fmt.Errorf("read: %w", os.ErrClosed), true},
		{"serial port closed", closedPortError{}, true},
		{"wrapped serial port closed", fmt.Errorf("read: %w", closedPortError{}), true},
		{"serial port busy", &serial.PortError{}, false},
		{"other", errors.New("framing error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isClosed(tt.err))
		})
	}
}

func TestNew(t *testing.T) {
	dev := New("/dev/ttyUSB0", 115200, 10, frame.DefaultFormat())
	assert.NotNil(t, dev)
	assert.Equal(t, "/dev/ttyUSB0", dev.port)
	assert.Equal(t, 115200, dev.baudRate)
	assert.Equal(t, 10, dev.bufSize)
	assert.NotNil(t, dev.Frames())
	assert.False(t, dev.IsConnected())
}

func TestNew_Defaults(t *testing.T) {
	dev := New("/dev/ttyUSB0", 0, 0, frame.DefaultFormat())
	assert.Equal(t, DefaultBaudRate, dev.baudRate)
	assert.Equal(t, DefaultBufferSize, dev.bufSize)
}

func TestSerial_NotConnected(t *testing.T) {
	dev := New("/dev/does-not-exist", 0, 0, frame.DefaultFormat())

	_, err := dev.Write([]byte("H\n"))
	assert.Error(t, err)
	assert.NoError(t, dev.Close())

	assert.Error(t, dev.Connect())
	assert.False(t, dev.IsConnected())
}
