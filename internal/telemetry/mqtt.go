package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/light-meter/internal/exposure"
	"github.com/thatsimonsguy/light-meter/internal/model"
)

const publishTimeout = 2 * time.Second

// Publisher is the part of mqtt.Client used here.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes readings as retained JSON messages.
type MQTT struct {
	client Publisher
	topic  string
}

func NewMQTT(client Publisher, topic string) *MQTT {
	return &MQTT{client: client, topic: topic}
}

// ConnectMQTT dials the broker. The client reconnects by itself after a drop.
func ConnectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(5 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", broker).Msg("MQTT connection lost")
	})

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connect to %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}

	log.Info().Str("broker", broker).Str("client_id", clientID).Msg("MQTT connected")
	return c, nil
}

func (m *MQTT) Publish(r exposure.Reading, s model.Settings) error {
	msg, err := json.Marshal(NewPayload(r, s))
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}

	token := m.client.Publish(m.topic, 1, true, msg)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timed out", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", m.topic, err)
	}
	return nil
}
