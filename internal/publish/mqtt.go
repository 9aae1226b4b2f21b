// Package publish forwards persisted incidents to the simulator over MQTT.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/domain"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/pkg/logging"
)

// Client is the publishing half of mqtt.Client
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// ClientConfig holds MQTT connection settings
type ClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// Connect opens a paho client with auto-reconnect
func Connect(config ClientConfig, logger *logrus.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.WithError(err).Warn("MQTT connection lost")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("publish: failed to connect to MQTT broker %s: %w", config.Broker, token.Error())
	}

	logger.WithField("broker", config.Broker).Info("Connected to MQTT broker")
	return client, nil
}

// MQTTPublisher sends one JSON message per incident at QoS 1
type MQTTPublisher struct {
	client  Client
	topic   string
	timeout time.Duration
	logger  *logrus.Entry
}

// NewMQTTPublisher creates a publisher on topic
func NewMQTTPublisher(client Client, topic string, logger *logrus.Logger) *MQTTPublisher {
	return &MQTTPublisher{
		client:  client,
		topic:   topic,
		timeout: 5 * time.Second,
		logger:  logging.ForComponent(logger, "publisher"),
	}
}

// Publish sends incidents in id order and stops at the first failure
func (p *MQTTPublisher) Publish(ctx context.Context, incidents []domain.Incident) error {
	for _, inc := range incidents {
		if err := ctx.Err(); err != nil {
			return err
		}

		payload, err := json.Marshal(inc)
		if err != nil {
			return fmt.Errorf("publish: failed to marshal incident %d: %w", inc.IncidentID, err)
		}

		token := p.client.Publish(p.topic, 1, false, payload)
		if !token.WaitTimeout(p.timeout) {
			return fmt.Errorf("publish: timed out sending incident %d to %s", inc.IncidentID, p.topic)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish: failed to send incident %d to %s: %w", inc.IncidentID, p.topic, err)
		}
	}

	p.logger.WithFields(logrus.Fields{
		"topic": p.topic,
		"count": len(incidents),
	}).Debug("Published incidents")
	return nil
}
