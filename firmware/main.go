//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"

	"github.com/itohio/hktelem/pkg/status"
)

var (
	uart      = machine.UART0
	selectPin = [4]machine.Pin{PIN_S0, PIN_S1, PIN_S2, PIN_S3}
)

// adcMux drives the 16:1 analog multiplexer and samples its common output.
type adcMux struct {
	adc machine.ADC
}

func (m *adcMux) ReadRaw(channel int) (float64, error) {
	for bit, pin := range selectPin {
		pin.Set(channel&(1<<bit) != 0)
	}
	// Get is scaled to 16 bits regardless of resolution
	return float64(m.adc.Get() >> (16 - ADC_RESOLUTION)), nil
}

func main() {
	for _, pin := range selectPin {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		pin.Low()
	}

	PIN_MUX_ADC.Configure(machine.PinConfig{Mode: machine.PinInput})
	mux := &adcMux{adc: machine.ADC{Pin: PIN_MUX_ADC}}
	mux.adc.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	opts := status.DefaultOptions()
	opts.Calibration.ADCReference = float64(ADC_REFERENCE_MV) / 1000
	opts.Calibration.ADCMax = 1<<ADC_RESOLUTION - 1
	// Thermistor dividers are fed from the ADC rail on this board
	opts.Calibration.TempVin = opts.Calibration.ADCReference

	hk, err := status.New(mux, uart, opts)
	if err != nil {
		println("housekeeping:", err.Error())
		return
	}

	for {
		// A failed channel keeps its last value; the frame still goes out.
		if err := hk.Update(SETTLE_MS * time.Millisecond); err != nil {
			println(err.Error())
		}
		if err := hk.Send(); err != nil {
			println(err.Error())
		}
		time.Sleep(SEND_INTERVAL_MS * time.Millisecond)
	}
}
