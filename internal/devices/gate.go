package devices

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tydom2mqtt/tydom2mqtt/internal/extractor"
	"github.com/tydom2mqtt/tydom2mqtt/internal/logging"
	"github.com/tydom2mqtt/tydom2mqtt/internal/mqtt"
)

// Gate/garage-door topic layout. These surface as momentary switches: the
// hub only offers a toggle, not a held state.
const (
	switchConfigTopic     = "homeassistant/switch/tydom/%s/config"
	switchCommandTopic    = "switch/tydom/%s/set_levelCmdGate"
	switchStateTopic      = "switch/tydom/%s/state"
	switchAttributesTopic = "switch/tydom/%s/attributes"
)

type switchConfig struct {
	Name            string   `json:"name"`
	UniqueID        string   `json:"unique_id"`
	CommandTopic    string   `json:"command_topic"`
	StateTopic      string   `json:"state_topic"`
	AttributesTopic string   `json:"json_attributes_topic"`
	PayloadOn       string   `json:"payload_on"`
	PayloadOff      string   `json:"payload_off"`
	Retain          bool     `json:"retain"`
	Device          haDevice `json:"device"`
}

// Gate publishes gate and garage-door state and relays toggle commands.
type Gate struct {
	pub mqtt.Publisher
}

func NewGate(pub mqtt.Publisher) *Gate {
	return &Gate{pub: pub}
}

func (g *Gate) Publish(bag *extractor.AttributeBag) error {
	id := bag.Identity
	cfg := switchConfig{
		Name:            bag.Name,
		UniqueID:        id,
		CommandTopic:    fmt.Sprintf(switchCommandTopic, id),
		StateTopic:      fmt.Sprintf(switchStateTopic, id),
		AttributesTopic: fmt.Sprintf(switchAttributesTopic, id),
		PayloadOn:       "TOGGLE",
		PayloadOff:      "TOGGLE",
		Device:          newHADevice("Porte", bag.Name, id),
	}
	if err := publishJSON(g.pub, fmt.Sprintf(switchConfigTopic, id), cfg, false); err != nil {
		return err
	}
	if err := publishJSON(g.pub, fmt.Sprintf(switchAttributesTopic, id), bag.Attributes, false); err != nil {
		return err
	}

	logging.Debug("Gate updated",
		zap.String("id", id),
		zap.String("name", bag.Name),
	)
	return fanOutSensors(g.pub, bag)
}

// SubscribeCommands wires the toggle command for every gate to the hub.
func (g *Gate) SubscribeCommands(client mqtt.Publisher, hub Hub) error {
	return client.Subscribe(fmt.Sprintf(switchCommandTopic, "+"), func(topic string, payload []byte) {
		identity, err := identityFromTopic(topic)
		if err != nil {
			logging.Warn("Dropping gate command", zap.Error(err))
			return
		}
		endpointID, deviceID, err := splitIdentity(identity)
		if err != nil {
			logging.Warn("Dropping gate command", zap.Error(err))
			return
		}
		if len(payload) == 0 {
			return
		}
		if err := hub.PutDeviceData(deviceID, endpointID, "levelCmd", string(payload)); err != nil {
			logging.Error("Gate command failed",
				zap.String("id", identity),
				zap.Error(err),
			)
		}
	})
}
