package link

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/itohio/hktelem/pkg/frame"
	"go.bug.st/serial"
)

// DefaultBufferSize is the default size for the frames channel buffer.
const DefaultBufferSize = 100

// Device defines the interface for frame sources (serial port or loopback).
type Device interface {
	Connect() error
	Close() error
	Frames() <-chan frame.Record
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Loopback implements Device.
var _ Device = (*Loopback)(nil)

// scanFrames reads newline terminated frames from r and sends them to out
// until ctx is cancelled or r fails. It closes out on return.
func scanFrames(ctx context.Context, r io.Reader, format frame.Format, out chan<- frame.Record) {
	defer close(out)

	scanner := bufio.NewScanner(r)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil && !isClosed(err) {
					log.Printf("Error reading frames: %v", err)
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			fr, err := format.Parse(line)
			if err != nil {
				log.Printf("Failed to parse frame '%s': %v", line, err)
				continue
			}

			// Send frame to channel (non-blocking)
			select {
			case out <- frame.Record{Timestamp: time.Now(), Frame: fr}:
			case <-ctx.Done():
				return
			default:
				log.Printf("Frames channel full, dropping frame")
			}
		}
	}
}

// portError matches serial.PortError by value or pointer.
type portError interface {
	Code() serial.PortErrorCode
}

func isClosed(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
		return true
	}
	var pe portError
	return errors.As(err, &pe) && pe.Code() == serial.PortClosed
}
