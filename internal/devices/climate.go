package devices

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tydom2mqtt/tydom2mqtt/internal/extractor"
	"github.com/tydom2mqtt/tydom2mqtt/internal/logging"
	"github.com/tydom2mqtt/tydom2mqtt/internal/mqtt"
)

// Climate (boiler / electric heater) topic layout.
const (
	climateConfigTopic      = "homeassistant/climate/tydom/%s/config"
	climateTemperatureTopic = "climate/tydom/%s/current_temperature"
	climateSetpointTopic    = "climate/tydom/%s/target_temperature"
	climateSetSetpointTopic = "climate/tydom/%s/set_setpoint"
	climateModeTopic        = "climate/tydom/%s/hvacMode"
	climateSetModeTopic     = "climate/tydom/%s/set_hvacMode"
	climateAttributesTopic  = "climate/tydom/%s/attributes"
)

type climateConfig struct {
	Name                    string   `json:"name"`
	UniqueID                string   `json:"unique_id"`
	CurrentTemperatureTopic string   `json:"current_temperature_topic"`
	TemperatureStateTopic   string   `json:"temperature_state_topic"`
	TemperatureCommandTopic string   `json:"temperature_command_topic"`
	ModeStateTopic          string   `json:"mode_state_topic"`
	ModeCommandTopic        string   `json:"mode_command_topic"`
	Modes                   []string `json:"modes"`
	AttributesTopic         string   `json:"json_attributes_topic"`
	Retain                  bool     `json:"retain"`
	Device                  haDevice `json:"device"`
}

// Climate publishes heating state and relays setpoint and mode commands.
type Climate struct {
	pub mqtt.Publisher
}

func NewClimate(pub mqtt.Publisher) *Climate {
	return &Climate{pub: pub}
}

func (c *Climate) Publish(bag *extractor.AttributeBag) error {
	id := bag.Identity
	cfg := climateConfig{
		Name:                    bag.Name,
		UniqueID:                id,
		CurrentTemperatureTopic: fmt.Sprintf(climateTemperatureTopic, id),
		TemperatureStateTopic:   fmt.Sprintf(climateSetpointTopic, id),
		TemperatureCommandTopic: fmt.Sprintf(climateSetSetpointTopic, id),
		ModeStateTopic:          fmt.Sprintf(climateModeTopic, id),
		ModeCommandTopic:        fmt.Sprintf(climateSetModeTopic, id),
		Modes:                   []string{"off", "heat"},
		AttributesTopic:         fmt.Sprintf(climateAttributesTopic, id),
		Device:                  newHADevice("Radiateur", bag.Name, id),
	}
	if err := publishJSON(c.pub, fmt.Sprintf(climateConfigTopic, id), cfg, false); err != nil {
		return err
	}

	if temperature, ok := bag.Attributes["temperature"]; ok {
		if err := c.pub.Publish(fmt.Sprintf(climateTemperatureTopic, id),
			[]byte(valueString(temperature)), true); err != nil {
			return err
		}
	}
	if setpoint, ok := bag.Attributes["setpoint"]; ok {
		if err := c.pub.Publish(fmt.Sprintf(climateSetpointTopic, id),
			[]byte(valueString(setpoint)), true); err != nil {
			return err
		}
	}
	if mode, ok := bag.Attributes["hvacMode"]; ok {
		if err := c.pub.Publish(fmt.Sprintf(climateModeTopic, id),
			[]byte(valueString(mode)), true); err != nil {
			return err
		}
	}
	if err := publishJSON(c.pub, fmt.Sprintf(climateAttributesTopic, id), bag.Attributes, false); err != nil {
		return err
	}

	logging.Debug("Climate updated",
		zap.String("id", id),
		zap.String("name", bag.Name),
	)
	return fanOutSensors(c.pub, bag)
}

// SubscribeCommands wires setpoint and hvac mode commands to the hub.
func (c *Climate) SubscribeCommands(client mqtt.Publisher, hub Hub) error {
	onCommand := func(field string) mqtt.MessageHandler {
		return func(topic string, payload []byte) {
			identity, err := identityFromTopic(topic)
			if err != nil {
				logging.Warn("Dropping climate command", zap.Error(err))
				return
			}
			endpointID, deviceID, err := splitIdentity(identity)
			if err != nil {
				logging.Warn("Dropping climate command", zap.Error(err))
				return
			}
			if len(payload) == 0 {
				return
			}
			if err := hub.PutDeviceData(deviceID, endpointID, field, string(payload)); err != nil {
				logging.Error("Climate command failed",
					zap.String("id", identity),
					zap.String("field", field),
					zap.Error(err),
				)
			}
		}
	}

	if err := client.Subscribe(fmt.Sprintf(climateSetSetpointTopic, "+"), onCommand("setpoint")); err != nil {
		return err
	}
	return client.Subscribe(fmt.Sprintf(climateSetModeTopic, "+"), onCommand("hvacMode"))
}
