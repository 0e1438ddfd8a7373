package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ukydev/fleet-operations/internal/models"
)

// Publisher announces committed odometer corrections so downstream consumers
// (dashboards, report caches) can refresh. Publishing is best-effort; a
// failed publish never invalidates the committed correction.
type Publisher interface {
	CorrectionApplied(ctx context.Context, vehicleID string, result *models.CascadeResult) error
}

// MQTTPublisher publishes correction events to an MQTT broker, one topic per
// vehicle under a configurable prefix.
type MQTTPublisher struct {
	client      mqtt.Client
	topicPrefix string
}

// NewMQTTPublisher connects to the broker and returns a publisher.
func NewMQTTPublisher(brokerURL, clientID, topicPrefix string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", brokerURL, err)
	}
	return &MQTTPublisher{client: client, topicPrefix: topicPrefix}, nil
}

// CorrectionApplied publishes the cascade result as JSON to
// <prefix>/corrections/<vehicle_id>.
func (p *MQTTPublisher) CorrectionApplied(ctx context.Context, vehicleID string, result *models.CascadeResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal correction event: %w", err)
	}
	topic := fmt.Sprintf("%s/corrections/%s", p.topicPrefix, vehicleID)
	token := p.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqtt publish to %s timed out", topic)
	}
	return token.Error()
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
