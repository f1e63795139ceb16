package devices

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tydom2mqtt/tydom2mqtt/internal/extractor"
	"github.com/tydom2mqtt/tydom2mqtt/internal/logging"
	"github.com/tydom2mqtt/tydom2mqtt/internal/mqtt"
)

// Cover topic layout.
const (
	coverConfigTopic      = "homeassistant/cover/tydom/%s/config"
	coverCommandTopic     = "cover/tydom/%s/set_positionCmd"
	coverSetPositionTopic = "cover/tydom/%s/set_position"
	coverPositionTopic    = "cover/tydom/%s/current_position"
	coverAttributesTopic  = "cover/tydom/%s/attributes"
)

type coverConfig struct {
	Name             string   `json:"name"`
	UniqueID         string   `json:"unique_id"`
	CommandTopic     string   `json:"command_topic"`
	SetPositionTopic string   `json:"set_position_topic"`
	PositionTopic    string   `json:"position_topic"`
	AttributesTopic  string   `json:"json_attributes_topic"`
	PayloadOpen      string   `json:"payload_open"`
	PayloadClose     string   `json:"payload_close"`
	PayloadStop      string   `json:"payload_stop"`
	Retain           bool     `json:"retain"`
	Device           haDevice `json:"device"`
}

// Cover publishes shutter state and relays position commands.
type Cover struct {
	pub mqtt.Publisher
}

func NewCover(pub mqtt.Publisher) *Cover {
	return &Cover{pub: pub}
}

// Publish announces the cover to Home Assistant and publishes its current
// position and attributes.
func (c *Cover) Publish(bag *extractor.AttributeBag) error {
	id := bag.Identity
	cfg := coverConfig{
		Name:             bag.Name,
		UniqueID:         id,
		CommandTopic:     fmt.Sprintf(coverCommandTopic, id),
		SetPositionTopic: fmt.Sprintf(coverSetPositionTopic, id),
		PositionTopic:    fmt.Sprintf(coverPositionTopic, id),
		AttributesTopic:  fmt.Sprintf(coverAttributesTopic, id),
		PayloadOpen:      "UP",
		PayloadClose:     "DOWN",
		PayloadStop:      "STOP",
		Device:           newHADevice("Volet", bag.Name, id),
	}
	if err := publishJSON(c.pub, fmt.Sprintf(coverConfigTopic, id), cfg, false); err != nil {
		return err
	}

	if position, ok := bag.Attributes["position"]; ok {
		if err := c.pub.Publish(fmt.Sprintf(coverPositionTopic, id),
			[]byte(valueString(position)), true); err != nil {
			return err
		}
	}
	if err := publishJSON(c.pub, fmt.Sprintf(coverAttributesTopic, id), bag.Attributes, false); err != nil {
		return err
	}

	logging.Debug("Cover updated",
		zap.String("id", id),
		zap.String("name", bag.Name),
	)
	return fanOutSensors(c.pub, bag)
}

// SubscribeCommands wires the position command topics for every cover to
// the hub.
func (c *Cover) SubscribeCommands(client mqtt.Publisher, hub Hub) error {
	onCommand := func(field string) mqtt.MessageHandler {
		return func(topic string, payload []byte) {
			identity, err := identityFromTopic(topic)
			if err != nil {
				logging.Warn("Dropping cover command", zap.Error(err))
				return
			}
			endpointID, deviceID, err := splitIdentity(identity)
			if err != nil {
				logging.Warn("Dropping cover command", zap.Error(err))
				return
			}
			value := string(payload)
			if value == "" {
				return
			}
			if err := hub.PutDeviceData(deviceID, endpointID, field, value); err != nil {
				logging.Error("Cover command failed",
					zap.String("id", identity),
					zap.String("field", field),
					zap.Error(err),
				)
			}
		}
	}

	if err := client.Subscribe(fmt.Sprintf(coverCommandTopic, "+"), onCommand("positionCmd")); err != nil {
		return err
	}
	return client.Subscribe(fmt.Sprintf(coverSetPositionTopic, "+"), onCommand("position"))
}
