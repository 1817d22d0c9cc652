//go:build tinygo

package main

import "machine"

const (
	// Telemetry configuration
	SEND_INTERVAL_MS = 1000 // Delay between housekeeping frames
	SETTLE_MS        = 50   // Mux settling time after switching channels

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 10   // Frames are calibrated for 10-bit samples (0-1023)

	// Mux select pins (S0 is the least significant bit)
	PIN_S0 = machine.D7
	PIN_S1 = machine.D8
	PIN_S2 = machine.D9
	PIN_S3 = machine.D10

	// Mux common output
	PIN_MUX_ADC = machine.A1

	// Serial configuration
	// Frame: "H" + 16 x "k" + "i-vvvv.vv," + "F\n" = ~180 bytes max per frame
	// One frame per second is well below 9600 baud (960 bytes/sec)
	UART_BAUD_RATE = 9600
)
