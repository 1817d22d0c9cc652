package config

import (
	"fmt"
	"os"
	"time"

	"github.com/itohio/hktelem/pkg/frame"
	"github.com/itohio/hktelem/pkg/sensor"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig       `yaml:"serial"`
	Mux         MuxConfig          `yaml:"mux"`
	Calibration sensor.Calibration `yaml:"calibration"`
	Frame       frame.Format       `yaml:"frame"`
	Telemetry   TelemetryConfig    `yaml:"telemetry"`
	Outputs     []OutputConfig     `yaml:"outputs"`
	Log         LogConfig          `yaml:"log"`
	Mock        MockConfig         `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// MuxConfig selects and configures the analog multiplexer driver.
type MuxConfig struct {
	Driver      string        `yaml:"driver"` // "mock" or "analog"
	Settle      time.Duration `yaml:"settle"` // Wait after every channel read
	GPIOChip    string        `yaml:"gpio_chip"`
	SelectLines []int         `yaml:"select_lines"` // S0..S3 line offsets
	I2CBus      string        `yaml:"i2c_bus"`
	I2CAddress  int           `yaml:"i2c_address"`
	ADCInput    int           `yaml:"adc_input"`
	SampleRate  int           `yaml:"sample_rate"` // ADS1115 SPS
}

// TelemetryConfig contains the acquisition cadence.
type TelemetryConfig struct {
	Interval time.Duration `yaml:"interval"` // Time between frame emissions
}

// OutputConfig configures one ground station output.
type OutputConfig struct {
	Type      string           `yaml:"type"` // console, mqtt or websocket
	MQTT      *MQTTConfig      `yaml:"mqtt,omitempty"`
	WebSocket *WebSocketConfig `yaml:"websocket,omitempty"`
}

// MQTTConfig contains MQTT broker settings.
type MQTTConfig struct {
	Server   string `yaml:"server"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
	Retain   bool   `yaml:"retain"`
}

// WebSocketConfig contains the WebSocket listener settings.
type WebSocketConfig struct {
	Addr string `yaml:"addr"`
	Path string `yaml:"path"`
}

// LogConfig contains log file rotation settings.
type LogConfig struct {
	File       string `yaml:"file"` // Empty logs to stderr only
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// MockConfig contains simulated front-end settings.
type MockConfig struct {
	NoiseLevel   float64       `yaml:"noise_level"`   // Relative noise on voltages and currents
	OrbitPeriod  time.Duration `yaml:"orbit_period"`  // Period of the thermal cycle
	OrbitSwing   float64       `yaml:"orbit_swing"`   // Thermal cycle amplitude (K)
	SampleRate   time.Duration `yaml:"sample_rate"`   // Loopback frame period
	FailChannels []int         `yaml:"fail_channels"` // Channels whose reads fail
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyUSB0",
			BaudRate: 9600,
		},
		Mux: MuxConfig{
			Driver:      "mock",
			Settle:      50 * time.Millisecond,
			GPIOChip:    "gpiochip0",
			SelectLines: []int{17, 27, 22, 23},
			I2CBus:      "1",
			I2CAddress:  0x48,
			ADCInput:    0,
			SampleRate:  128,
		},
		Calibration: sensor.DefaultCalibration(),
		Frame:       frame.DefaultFormat(),
		Telemetry: TelemetryConfig{
			Interval: time.Second,
		},
		Outputs: []OutputConfig{
			{Type: "console"},
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Mock: MockConfig{
			NoiseLevel:  0.01,
			OrbitPeriod: 90 * time.Minute,
			OrbitSwing:  15,
			SampleRate:  time.Second,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if err := c.Calibration.Validate(); err != nil {
		return err
	}
	if err := c.Frame.Validate(); err != nil {
		return err
	}
	switch c.Mux.Driver {
	case "mock", "analog":
	default:
		return fmt.Errorf("unknown mux driver %q", c.Mux.Driver)
	}
	if c.Mux.Settle < 0 {
		return fmt.Errorf("mux settle must be >= 0, got %v", c.Mux.Settle)
	}
	for i, o := range c.Outputs {
		switch o.Type {
		case "console", "mqtt", "websocket":
		default:
			return fmt.Errorf("output %d: unknown type %q", i, o.Type)
		}
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Mux.Driver == "" {
		c.Mux.Driver = def.Mux.Driver
	}
	if c.Mux.GPIOChip == "" {
		c.Mux.GPIOChip = def.Mux.GPIOChip
	}
	if len(c.Mux.SelectLines) == 0 {
		c.Mux.SelectLines = def.Mux.SelectLines
	}
	if c.Mux.I2CBus == "" {
		c.Mux.I2CBus = def.Mux.I2CBus
	}
	if c.Mux.I2CAddress == 0 {
		c.Mux.I2CAddress = def.Mux.I2CAddress
	}
	if c.Mux.SampleRate == 0 {
		c.Mux.SampleRate = def.Mux.SampleRate
	}

	if c.Calibration.ADCReference == 0 {
		c.Calibration.ADCReference = def.Calibration.ADCReference
	}
	if c.Calibration.ADCMax == 0 {
		c.Calibration.ADCMax = def.Calibration.ADCMax
	}
	if c.Calibration.VoltageLoad == 0 {
		c.Calibration.VoltageLoad = def.Calibration.VoltageLoad
	}
	if c.Calibration.CurrentRef == 0 {
		c.Calibration.CurrentRef = def.Calibration.CurrentRef
	}
	if c.Calibration.CurrentGain == 0 {
		c.Calibration.CurrentGain = def.Calibration.CurrentGain
	}
	if c.Calibration.TempVin == 0 {
		c.Calibration.TempVin = def.Calibration.TempVin
	}
	if c.Calibration.TempRef == 0 {
		c.Calibration.TempRef = def.Calibration.TempRef
	}
	if c.Calibration.TempB == 0 {
		c.Calibration.TempB = def.Calibration.TempB
	}
	if c.Calibration.TempAmb == 0 {
		c.Calibration.TempAmb = def.Calibration.TempAmb
	}
	if c.Calibration.TempMesAmb == 0 {
		c.Calibration.TempMesAmb = def.Calibration.TempMesAmb
	}

	if c.Frame.Delimiter == "" {
		c.Frame.Delimiter = def.Frame.Delimiter
	}

	if c.Telemetry.Interval == 0 {
		c.Telemetry.Interval = def.Telemetry.Interval
	}

	if len(c.Outputs) == 0 {
		c.Outputs = def.Outputs
	}
	for i := range c.Outputs {
		if c.Outputs[i].Type == "mqtt" && c.Outputs[i].MQTT == nil {
			c.Outputs[i].MQTT = &MQTTConfig{}
		}
		if c.Outputs[i].Type == "websocket" && c.Outputs[i].WebSocket == nil {
			c.Outputs[i].WebSocket = &WebSocketConfig{}
		}
	}

	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = def.Log.MaxSizeMB
	}

	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
	if c.Mock.OrbitPeriod == 0 {
		c.Mock.OrbitPeriod = def.Mock.OrbitPeriod
	}
}
