package main

import (
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itohio/hktelem/pkg/config"
	"github.com/itohio/hktelem/pkg/link"
	"github.com/itohio/hktelem/pkg/logging"
	"github.com/itohio/hktelem/pkg/mux"
	"github.com/itohio/hktelem/pkg/status"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., /dev/ttyS0); \"-\" writes frames to stdout")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use simulated multiplexer instead of hardware")
		settleFlag = flag.Duration("settle", -1, "Mux settling time override (e.g., 50ms)")
		listFlag   = flag.Bool("list", false, "List serial ports and exit")
	)
	flag.Parse()

	if *listFlag {
		listPorts()
		return
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *mockFlag {
		cfg.Mux.Driver = "mock"
	}
	if *settleFlag >= 0 {
		cfg.Mux.Settle = *settleFlag
	}

	logFile := logging.Setup(cfg.Log)
	defer logFile.Close()

	dev, err := openMux(cfg)
	if err != nil {
		log.Fatalf("Failed to open multiplexer: %v", err)
	}
	defer dev.Close()

	out, closeOut, err := openTransport(cfg)
	if err != nil {
		log.Fatalf("Failed to open transport: %v", err)
	}
	defer closeOut()

	hk, err := status.New(dev, out, status.Options{
		Calibration: cfg.Calibration,
		Format:      cfg.Frame,
	})
	if err != nil {
		log.Fatalf("Failed to create housekeeping status: %v", err)
	}

	log.Printf("Housekeeping started: mux=%s port=%s interval=%v settle=%v",
		cfg.Mux.Driver, cfg.Serial.Port, cfg.Telemetry.Interval, cfg.Mux.Settle)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Telemetry.Interval)
	defer ticker.Stop()

	for {
		cycle(hk, cfg.Mux.Settle)

		select {
		case <-quit:
			log.Println("Shutting down housekeeping...")
			return
		case <-ticker.C:
		}
	}
}

// cycle runs one acquisition and emission. Failures are logged and the
// next cycle proceeds.
func cycle(hk *status.Status, settle time.Duration) {
	if err := hk.Update(settle); err != nil {
		log.Printf("Update: %v", err)
	}
	if err := hk.Send(); err != nil {
		log.Printf("Send: %v", err)
	}
}

// openMux opens the configured driver. For the analog driver the ADC range in
// cfg.Calibration is replaced with the ADS1115 range.
func openMux(cfg *config.Config) (mux.Device, error) {
	if cfg.Mux.Driver == "mock" {
		return mux.NewMock(&cfg.Mock, cfg.Calibration), nil
	}
	cfg.Calibration = mux.ADS1115Calibration(cfg.Calibration)
	analog, err := mux.NewAnalog(mux.AnalogConfig{
		GPIOChip:    cfg.Mux.GPIOChip,
		SelectLines: cfg.Mux.SelectLines,
		I2CBus:      cfg.Mux.I2CBus,
		I2CAddress:  uint16(cfg.Mux.I2CAddress),
		ADCInput:    cfg.Mux.ADCInput,
		SampleRate:  cfg.Mux.SampleRate,
	})
	if err != nil {
		return nil, err
	}
	return analog, nil
}

func openTransport(cfg *config.Config) (io.Writer, func() error, error) {
	if cfg.Serial.Port == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	port := link.New(cfg.Serial.Port, cfg.Serial.BaudRate, 0, cfg.Frame)
	if err := port.Open(); err != nil {
		return nil, nil, err
	}
	return port, port.Close, nil
}

func listPorts() {
	ports, err := link.Ports()
	if err != nil {
		log.Fatalf("Failed to list ports: %v", err)
	}
	for _, p := range ports {
		log.Printf("%s (%s)", p.Name, p.Description)
	}
}
