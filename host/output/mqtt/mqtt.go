// Package mqtt publishes readings to an MQTT broker as JSON payloads.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"meanline/host/config"
	"meanline/host/device"
	"meanline/host/output"
)

const (
	// defaults
	DefaultServer   = "tcp://localhost:1883"
	DefaultClientID = "meanline-host"
	DefaultTopic    = "meanline/average"

	disconnectQuiesceMs = 250
)

type MQTTOutput struct {
	client mqtt.Client
	topic  string
}

// payload is the JSON document published per reading.
type payload struct {
	Average uint32 `json:"average"`
	At      string `json:"at"`
}

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

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}

	return &MQTTOutput{client: client, topic: cfg.Topic}, nil
}

func (m *MQTTOutput) Publish(r device.Reading) error {
	b, err := marshalReading(r)
	if err != nil {
		return err
	}
	token := m.client.Publish(m.topic, 0, false, b)
	token.Wait()
	return token.Error()
}

func (m *MQTTOutput) Close() error {
	if m.client != nil {
		m.client.Disconnect(disconnectQuiesceMs)
	}
	return nil
}

func marshalReading(r device.Reading) ([]byte, error) {
	return json.Marshal(payload{
		Average: r.Average,
		At:      r.At.Format(time.RFC3339),
	})
}
