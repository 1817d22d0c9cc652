// Package output defines sinks for frames received by the ground station.
// Implementations live in the console, mqtt and websocket subpackages.
package output

import "github.com/itohio/hktelem/pkg/frame"

// Output is a sink for received housekeeping frames.
type Output interface {
	Publish(frame.Record) error
	Close() error
}

