package mux

import (
	"errors"
	"fmt"

	"github.com/itohio/hktelem/pkg/status"
)

// ErrInvalidChannel is returned for channels outside 0..15.
var ErrInvalidChannel = errors.New("invalid mux channel")

// Device is a multiplexer that owns hardware resources.
type Device interface {
	status.Multiplexer
	Close() error
}

// Ensure Analog implements Device.
var _ Device = (*Analog)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)

func checkChannel(channel int) error {
	if channel < 0 || channel >= status.ChannelCount {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	return nil
}

// selectBits returns the S0..S3 select line levels for channel.
func selectBits(channel int) []int {
	return []int{
		channel & 1,
		(channel >> 1) & 1,
		(channel >> 2) & 1,
		(channel >> 3) & 1,
	}
}
