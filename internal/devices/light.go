package devices

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tydom2mqtt/tydom2mqtt/internal/extractor"
	"github.com/tydom2mqtt/tydom2mqtt/internal/logging"
	"github.com/tydom2mqtt/tydom2mqtt/internal/mqtt"
)

// Light topic layout. Tydom dimmers report and accept a 0-100 level.
const (
	lightConfigTopic     = "homeassistant/light/tydom/%s/config"
	lightCommandTopic    = "light/tydom/%s/set_levelCmd"
	lightSetLevelTopic   = "light/tydom/%s/set_level"
	lightLevelTopic      = "light/tydom/%s/current_level"
	lightAttributesTopic = "light/tydom/%s/attributes"
)

type lightConfig struct {
	Name                 string   `json:"name"`
	UniqueID             string   `json:"unique_id"`
	CommandTopic         string   `json:"command_topic"`
	BrightnessCommand    string   `json:"brightness_command_topic"`
	BrightnessStateTopic string   `json:"brightness_state_topic"`
	BrightnessScale      int      `json:"brightness_scale"`
	AttributesTopic      string   `json:"json_attributes_topic"`
	PayloadOn            string   `json:"payload_on"`
	PayloadOff           string   `json:"payload_off"`
	Retain               bool     `json:"retain"`
	Device               haDevice `json:"device"`
}

// Light publishes dimmer state and relays level commands.
type Light struct {
	pub mqtt.Publisher
}

func NewLight(pub mqtt.Publisher) *Light {
	return &Light{pub: pub}
}

func (l *Light) Publish(bag *extractor.AttributeBag) error {
	id := bag.Identity
	cfg := lightConfig{
		Name:                 bag.Name,
		UniqueID:             id,
		CommandTopic:         fmt.Sprintf(lightCommandTopic, id),
		BrightnessCommand:    fmt.Sprintf(lightSetLevelTopic, id),
		BrightnessStateTopic: fmt.Sprintf(lightLevelTopic, id),
		BrightnessScale:      100,
		AttributesTopic:      fmt.Sprintf(lightAttributesTopic, id),
		PayloadOn:            "ON",
		PayloadOff:           "OFF",
		Device:               newHADevice("Lumiere", bag.Name, id),
	}
	if err := publishJSON(l.pub, fmt.Sprintf(lightConfigTopic, id), cfg, false); err != nil {
		return err
	}

	if level, ok := bag.Attributes["level"]; ok {
		if err := l.pub.Publish(fmt.Sprintf(lightLevelTopic, id),
			[]byte(valueString(level)), true); err != nil {
			return err
		}
	}
	if err := publishJSON(l.pub, fmt.Sprintf(lightAttributesTopic, id), bag.Attributes, false); err != nil {
		return err
	}

	logging.Debug("Light updated",
		zap.String("id", id),
		zap.String("name", bag.Name),
	)
	return fanOutSensors(l.pub, bag)
}

// SubscribeCommands wires level commands for every light to the hub. ON
// and OFF map to full and zero level.
func (l *Light) SubscribeCommands(client mqtt.Publisher, hub Hub) error {
	onCommand := func(topic string, payload []byte) {
		identity, err := identityFromTopic(topic)
		if err != nil {
			logging.Warn("Dropping light command", zap.Error(err))
			return
		}
		endpointID, deviceID, err := splitIdentity(identity)
		if err != nil {
			logging.Warn("Dropping light command", zap.Error(err))
			return
		}

		level := string(payload)
		switch level {
		case "":
			return
		case "ON":
			level = "100"
		case "OFF":
			level = "0"
		}
		if err := hub.PutDeviceData(deviceID, endpointID, "level", level); err != nil {
			logging.Error("Light command failed",
				zap.String("id", identity),
				zap.Error(err),
			)
		}
	}

	if err := client.Subscribe(fmt.Sprintf(lightCommandTopic, "+"), onCommand); err != nil {
		return err
	}
	return client.Subscribe(fmt.Sprintf(lightSetLevelTopic, "+"), onCommand)
}
