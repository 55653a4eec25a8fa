package notify

import (
	"context"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTT publishes events to a broker topic.
type MQTT struct {
	client mqtt.Client
	topic  string
	origin string
	logger *zap.SugaredLogger
}

// NewMQTT connects to broker.
func NewMQTT(broker, clientID, topic string, logger *zap.SugaredLogger) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &MQTT{client: client, topic: topic, origin: clientID, logger: logger}, nil
}

// Notify publishes the event at QoS 1.
func (m *MQTT) Notify(_ context.Context, event Event) error {
	if event.Origin == "" {
		event.Origin = m.origin
	}
	payload, err := event.Encode()
	if err != nil {
		return err
	}
	token := m.client.Publish(m.topic, 1, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", m.topic, token.Error())
	}
	return nil
}

// Subscribe calls handle for events from other clients.
func (m *MQTT) Subscribe(handle func(Event)) error {
	token := m.client.Subscribe(m.topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		event, err := Decode(msg.Payload())
		if err != nil {
			m.logger.Warnw("dropping malformed refresh event", "topic", msg.Topic(), "error", err)
			return
		}
		if event.Origin == m.origin {
			return
		}
		handle(event)
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", m.topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}
