package link

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/itohio/hktelem/pkg/frame"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the baud rate of the flight UART.
	DefaultBaudRate = 9600
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial is a housekeeping link over a serial port. The flight side writes
// frames to it; the ground side reads frames from it.
type Serial struct {
	port     string
	baudRate int
	bufSize  int
	format   frame.Format

	conn      serial.Port
	frames    chan frame.Record
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	reading   bool
}

// New creates a new Serial link with the specified port, baud rate, buffer size and framing.
func New(port string, baudRate int, bufSize int, format frame.Format) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		format:   format,
		frames:   make(chan frame.Record, bufSize),
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Open opens the serial port for writing without reading frames.
func (d *Serial) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open()
}

func (d *Serial) open() error {
	if d.connected {
		return fmt.Errorf("already connected")
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.connected = true
	return nil
}

// Connect opens the serial port and starts reading frames.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.open(); err != nil {
		return err
	}

	if d.reading {
		d.frames = make(chan frame.Record, d.bufSize)
	}
	d.reading = true
	go scanFrames(d.ctx, d.conn, d.format, d.frames)

	return nil
}

// Close closes the connection. The frames channel is closed once the reader stops.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false
	return nil
}

// Frames returns the channel of received frames.
func (d *Serial) Frames() <-chan frame.Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.frames
}

// Write sends raw bytes to the port. It is the transport of status.Status.
func (d *Serial) Write(p []byte) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return 0, fmt.Errorf("not connected")
	}

	n, err := d.conn.Write(p)
	if err != nil {
		return n, fmt.Errorf("failed to write to %s: %w", d.port, err)
	}
	return n, nil
}

// IsConnected returns whether the port is currently open.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}
