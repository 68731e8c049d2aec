// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/nrfscope/pkg/nrf24"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// mqttPasswordEnv names the environment variable holding the broker password
const mqttPasswordEnv = "NRFSCOPE_MQTT_PASSWORD"

const (
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
)

// FramePayload is the JSON message published for every frame
type FramePayload struct {
	Timestamp  int64  `json:"timestamp"` // unix milliseconds
	Offset     uint64 `json:"offset"`
	Type       string `json:"type"`
	Retransmit bool   `json:"retransmit"`
	Address    string `json:"address"`
	PID        *uint8 `json:"pid,omitempty"`
	NoAck      *bool  `json:"no_ack,omitempty"`
	Payload    string `json:"payload"`
	CRC        uint16 `json:"crc"`
}

func newFramePayload(f *nrf24.Frame) FramePayload {
	p := f.Packet
	fp := FramePayload{
		Timestamp:  p.Timestamp().UnixMilli(),
		Offset:     f.Offset,
		Type:       f.Type.String(),
		Retransmit: f.Retransmit,
		Address:    hex.EncodeToString(p.Address()),
		Payload:    hex.EncodeToString(p.Payload()),
		CRC:        p.CRC(),
	}
	if pcf, ok := p.ControlField(); ok {
		fp.PID = &pcf.PID
		fp.NoAck = &pcf.NoAck
	}
	return fp
}

// frameTopic is the per-address topic below the configured prefix
func frameTopic(prefix string, f *nrf24.Frame) string {
	return fmt.Sprintf("%s/%s", prefix, hex.EncodeToString(f.Packet.Address()))
}

// MQTTPublisher publishes reported frames to an MQTT broker. Publishing never
// blocks the decoder: frames are dropped while the broker is unreachable.
type MQTTPublisher struct {
	client  mqtt.Client
	topic   string
	dropped uint64
}

// NewMQTTPublisher connects to broker. Frames are published below topic.
func NewMQTTPublisher(broker, topic, username string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID("nrfscope_" + uuid.NewString())

	if username != "" {
		opts.SetUsername(username)
		opts.SetPassword(os.Getenv(mqttPasswordEnv))
	}

	// The first connect must succeed; later outages are reconnected
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(mqttConnectTimeout)
	opts.SetWriteTimeout(time.Second)
	opts.SetOrderMatters(false)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		logger.Info("MQTT connected", zap.String("broker", broker))
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	})
	opts.SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
		logger.Info("MQTT reconnecting")
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	return &MQTTPublisher{client: client, topic: topic}, nil
}

func (m *MQTTPublisher) HandleFrame(f *nrf24.Frame) error {
	if !m.client.IsConnectionOpen() {
		m.dropped++
		return nil
	}

	data, err := json.Marshal(newFramePayload(f))
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	token := m.client.Publish(frameTopic(m.topic, f), 0, false, data)
	offset := f.Offset
	go func() {
		// A broker outage must not stop decoding
		if !token.WaitTimeout(mqttPublishTimeout) {
			logger.Warn("MQTT publish timed out", zap.Uint64("offset", offset))
			return
		}
		if err := token.Error(); err != nil {
			logger.Warn("MQTT publish failed", zap.Uint64("offset", offset), zap.Error(err))
		}
	}()
	return nil
}

// Dropped returns the number of frames not published while disconnected
func (m *MQTTPublisher) Dropped() uint64 {
	return m.dropped
}

func (m *MQTTPublisher) Close() error {
	if m.dropped > 0 {
		logger.Warn("MQTT frames dropped while disconnected", zap.Uint64("frames", m.dropped))
	}
	m.client.Disconnect(250)
	return nil
}
