package devices

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tydom2mqtt/tydom2mqtt/internal/extractor"
	"github.com/tydom2mqtt/tydom2mqtt/internal/logging"
	"github.com/tydom2mqtt/tydom2mqtt/internal/mqtt"
)

// Alarm control panel topic layout.
const (
	alarmConfigTopic      = "homeassistant/alarm_control_panel/tydom/%s/config"
	alarmCommandTopic     = "alarm_control_panel/tydom/%s/set_alarm_state"
	alarmStateTopic       = "alarm_control_panel/tydom/%s/state"
	alarmAttributesTopic  = "alarm_control_panel/tydom/%s/attributes"
	alarmTemperatureTopic = "sensor/tydom/%s/outTemperature"
)

// Home Assistant command payloads.
const (
	cmdArmAway  = "ARM_AWAY"
	cmdArmHome  = "ARM_HOME"
	cmdArmNight = "ARM_NIGHT"
	cmdDisarm   = "DISARM"
)

type alarmConfig struct {
	Name            string   `json:"name"`
	UniqueID        string   `json:"unique_id"`
	CommandTopic    string   `json:"command_topic"`
	StateTopic      string   `json:"state_topic"`
	AttributesTopic string   `json:"json_attributes_topic"`
	PayloadArmAway  string   `json:"payload_arm_away"`
	PayloadArmHome  string   `json:"payload_arm_home"`
	PayloadArmNight string   `json:"payload_arm_night"`
	PayloadDisarm   string   `json:"payload_disarm"`
	CodeArmRequired bool     `json:"code_arm_required"`
	Device          haDevice `json:"device"`
}

// Alarm publishes the derived panel state and relays arm/disarm commands.
// The configured PIN stays on the hub side; arming from the broker needs
// no code because the bridge injects the PIN itself.
type Alarm struct {
	pub       mqtt.Publisher
	homeZone  int
	nightZone int
}

func NewAlarm(pub mqtt.Publisher, homeZone, nightZone int) *Alarm {
	return &Alarm{pub: pub, homeZone: homeZone, nightZone: nightZone}
}

// Publish announces the panel and publishes the derived state, the
// attribute bag and the outside temperature when the panel reports one.
func (a *Alarm) Publish(snapshot *extractor.AlarmSnapshot) error {
	bag := snapshot.Bag
	id := bag.Identity
	cfg := alarmConfig{
		Name:            bag.Name,
		UniqueID:        id,
		CommandTopic:    fmt.Sprintf(alarmCommandTopic, id),
		StateTopic:      fmt.Sprintf(alarmStateTopic, id),
		AttributesTopic: fmt.Sprintf(alarmAttributesTopic, id),
		PayloadArmAway:  cmdArmAway,
		PayloadArmHome:  cmdArmHome,
		PayloadArmNight: cmdArmNight,
		PayloadDisarm:   cmdDisarm,
		Device:          newHADevice("Tyxal", bag.Name, id),
	}
	if err := publishJSON(a.pub, fmt.Sprintf(alarmConfigTopic, id), cfg, false); err != nil {
		return err
	}

	if err := a.pub.Publish(fmt.Sprintf(alarmStateTopic, id),
		[]byte(snapshot.State), true); err != nil {
		return err
	}

	attrs := make(map[string]any, len(bag.Attributes)+2)
	for k, v := range bag.Attributes {
		attrs[k] = v
	}
	attrs["sos"] = snapshot.SOS
	attrs["maintenance"] = snapshot.Maintenance
	if err := publishJSON(a.pub, fmt.Sprintf(alarmAttributesTopic, id), attrs, false); err != nil {
		return err
	}

	if snapshot.OutTemperature != nil {
		if err := a.pub.Publish(fmt.Sprintf(alarmTemperatureTopic, id),
			[]byte(valueString(snapshot.OutTemperature)), true); err != nil {
			return err
		}
	}

	if snapshot.SOS {
		logging.Warn("Alarm SOS active", zap.String("id", id))
	}
	logging.Debug("Alarm updated",
		zap.String("id", id),
		zap.String("state", string(snapshot.State)),
	)
	return nil
}

// SubscribeCommands maps broker arm/disarm payloads onto hub alarm
// commands. Home and night arm against their configured zones; away and
// disarm address the whole panel.
func (a *Alarm) SubscribeCommands(client mqtt.Publisher, hub Hub) error {
	return client.Subscribe(fmt.Sprintf(alarmCommandTopic, "+"), func(topic string, payload []byte) {
		identity, err := identityFromTopic(topic)
		if err != nil {
			logging.Warn("Dropping alarm command", zap.Error(err))
			return
		}
		endpointID, deviceID, err := splitIdentity(identity)
		if err != nil {
			logging.Warn("Dropping alarm command", zap.Error(err))
			return
		}

		switch string(payload) {
		case cmdArmAway:
			err = hub.PutAlarmCommand(deviceID, endpointID, "ON")
		case cmdArmHome:
			err = hub.PutAlarmCommand(deviceID, endpointID, "ON", a.homeZone)
		case cmdArmNight:
			err = hub.PutAlarmCommand(deviceID, endpointID, "ON", a.nightZone)
		case cmdDisarm:
			err = hub.PutAlarmCommand(deviceID, endpointID, "OFF")
		default:
			logging.Warn("Unknown alarm command",
				zap.String("payload", string(payload)),
			)
			return
		}
		if err != nil {
			logging.Error("Alarm command failed",
				zap.String("id", identity),
				zap.Error(err),
			)
		}
	})
}
