package mqtt

import (
	"encoding/json"
	"fmt"
	"time"
)

// Maximum payload size for MQTT messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20 // 1MB

// Publish sends a message to the specified MQTT topic.
//
// Parameters:
//   - topic: The topic to publish to (e.g., "cookerd/status/anova sim-0000000000")
//   - payload: The message payload (typically JSON, max 1MB)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker should retain the message for new subscribers
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	// Validate inputs
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	// Check connection state
	if !c.IsConnected() {
		return ErrNotConnected
	}

	// Publish with timeout
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishRetained publishes a retained message with the configured default QoS.
//
// Use for state updates where new subscribers should receive the current state.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}

// CookerStatusMessage is the JSON payload published on status topics.
type CookerStatusMessage struct {
	CookerID      string  `json:"cooker_id"`
	State         string  `json:"state"`
	WaterTemp     float64 `json:"water_temp_c"`
	TargetTemp    float64 `json:"target_temp_c"`
	TimerSeconds  int     `json:"timer_seconds"`
	TimeRemaining int     `json:"time_remaining_seconds"`
	Timestamp     string  `json:"timestamp"`
}

// PublishCookerStatus publishes a cooker state snapshot, retained, to
// the cooker's status topic.
func (c *Client) PublishCookerStatus(msg CookerStatusMessage) error {
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: encoding status: %w", ErrPublishFailed, err)
	}
	return c.PublishRetained(Topics{}.CookerStatus(msg.CookerID), payload)
}
