package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/hktelem/pkg/config"
	"github.com/itohio/hktelem/pkg/frame"
	"github.com/itohio/hktelem/pkg/link"
	"github.com/itohio/hktelem/pkg/logging"
	"github.com/itohio/hktelem/pkg/output"
	"github.com/itohio/hktelem/pkg/output/console"
	"github.com/itohio/hktelem/pkg/output/mqtt"
	"github.com/itohio/hktelem/pkg/output/websocket"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyUSB0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use simulated spacecraft instead of serial port")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	logFile := logging.Setup(cfg.Log)
	defer logFile.Close()

	outputs, err := initOutputs(cfg.Outputs)
	if err != nil {
		log.Fatalf("Failed to initialize outputs: %v", err)
	}
	defer closeOutputs(outputs)

	var device link.Device
	if *mockFlag {
		device = link.NewLoopback(cfg)
	} else {
		device = link.New(cfg.Serial.Port, cfg.Serial.BaudRate, 0, cfg.Frame)
	}
	if err := device.Connect(); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer device.Close()

	log.Printf("Ground station receiving on %s (%d outputs)", describe(cfg, *mockFlag), len(outputs))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	frames := device.Frames()
	for {
		select {
		case <-quit:
			log.Println("Shutting down ground station...")
			return
		case rec, ok := <-frames:
			if !ok {
				log.Println("Link closed")
				return
			}
			publish(outputs, rec)
		}
	}
}

func initOutputs(cfgs []config.OutputConfig) ([]output.Output, error) {
	var outputs []output.Output
	for _, c := range cfgs {
		var (
			o   output.Output
			err error
		)
		switch c.Type {
		case "console":
			o = console.NewConsole()
		case "mqtt":
			if c.MQTT == nil {
				err = errors.New("mqtt output requires an mqtt section")
				break
			}
			o, err = mqtt.NewMQTT(*c.MQTT)
		case "websocket":
			var wc config.WebSocketConfig
			if c.WebSocket != nil {
				wc = *c.WebSocket
			}
			o, err = websocket.NewWebSocket(wc)
		default:
			err = fmt.Errorf("unknown output type: %q", c.Type)
		}
		if err != nil {
			closeOutputs(outputs)
			return nil, err
		}
		outputs = append(outputs, o)
	}
	return outputs, nil
}

func publish(outputs []output.Output, rec frame.Record) {
	for _, o := range outputs {
		if err := o.Publish(rec); err != nil {
			log.Printf("Publish: %v", err)
		}
	}
}

func closeOutputs(outputs []output.Output) {
	for _, o := range outputs {
		if err := o.Close(); err != nil {
			log.Printf("Close output: %v", err)
		}
	}
}

func describe(cfg *config.Config, mock bool) string {
	if mock {
		return "loopback"
	}
	return fmt.Sprintf("%s@%d", cfg.Serial.Port, cfg.Serial.BaudRate)
}
