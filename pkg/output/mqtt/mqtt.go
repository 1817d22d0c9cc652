package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/hktelem/pkg/config"
	"github.com/itohio/hktelem/pkg/frame"
	"github.com/itohio/hktelem/pkg/output"
	"github.com/itohio/hktelem/pkg/sensor"
)

const (
	DefaultServer   = "tcp://localhost:1883"
	DefaultClientID = "hkground"
	DefaultTopic    = "hk"
)

// message is one MQTT publication.
type message struct {
	topic   string
	payload []byte
}

type MQTTOutput struct {
	client mqtt.Client
	topic  string
	qos    byte
	retain bool
}

// NewMQTT connects to the broker described by cfg.
func NewMQTT(cfg config.MQTTConfig) (output.Output, error) {
	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}

	opts := mqtt.NewClientOptions().AddBroker(cfg.Server).SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}

	return &MQTTOutput{
		client: client,
		topic:  strings.TrimSuffix(cfg.Topic, "/"),
		qos:    cfg.QoS,
		retain: cfg.Retain,
	}, nil
}

// Publish sends the whole record as JSON to the base topic and every value
// to <topic>/<kind>/<index>.
func (m *MQTTOutput) Publish(r frame.Record) error {
	msgs, err := messages(m.topic, r)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		token := m.client.Publish(msg.topic, m.qos, m.retain, msg.payload)
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("mqtt publish %s: %w", msg.topic, token.Error())
		}
	}
	return nil
}

func (m *MQTTOutput) Close() error {
	if m.client != nil {
		m.client.Disconnect(250)
	}
	return nil
}

// messages builds the publications for one record.
func messages(topic string, r frame.Record) ([]message, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	out := []message{{topic: topic, payload: b}}

	add := func(kind sensor.Kind, values []float64) {
		for i, v := range values {
			out = append(out, message{
				topic:   fmt.Sprintf("%s/%s/%d", topic, kind, i),
				payload: []byte(frame.FormatValue(v)),
			})
		}
	}
	add(sensor.KindVoltage, r.Frame.Voltages[:])
	add(sensor.KindCurrent, r.Frame.Currents[:])
	add(sensor.KindTemperature, r.Frame.Temperatures[:])
	return out, nil
}
