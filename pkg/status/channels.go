package status

import "github.com/itohio/hktelem/pkg/sensor"

// ChannelCount is the number of analog multiplexer channels.
const ChannelCount = 16

// Slot identifies the sensor wired to a multiplexer channel.
type Slot struct {
	Kind  sensor.Kind
	Index int
}

// Channels maps every multiplexer channel to its sensor.
// Voltages sit on 15..10, currents on 9..4 and thermistors on 3..0,
// each block numbered from its highest channel down.
var Channels = [ChannelCount]Slot{
	0:  {sensor.KindTemperature, 3},
	1:  {sensor.KindTemperature, 2},
	2:  {sensor.KindTemperature, 1},
	3:  {sensor.KindTemperature, 0},
	4:  {sensor.KindCurrent, 5},
	5:  {sensor.KindCurrent, 4},
	6:  {sensor.KindCurrent, 3},
	7:  {sensor.KindCurrent, 2},
	8:  {sensor.KindCurrent, 1},
	9:  {sensor.KindCurrent, 0},
	10: {sensor.KindVoltage, 5},
	11: {sensor.KindVoltage, 4},
	12: {sensor.KindVoltage, 3},
	13: {sensor.KindVoltage, 2},
	14: {sensor.KindVoltage, 1},
	15: {sensor.KindVoltage, 0},
}

// ChannelOf returns the multiplexer channel wired to sensor (kind, index).
func ChannelOf(kind sensor.Kind, index int) (int, bool) {
	for ch, slot := range Channels {
		if slot.Kind == kind && slot.Index == index {
			return ch, true
		}
	}
	return 0, false
}
