package devices

import (
	"fmt"

	"github.com/tydom2mqtt/tydom2mqtt/internal/extractor"
	"github.com/tydom2mqtt/tydom2mqtt/internal/mqtt"
)

// Sensor topic layout. Each attribute of a device becomes its own entity,
// keyed by "{identity}_{field}".
const (
	sensorConfigTopic = "homeassistant/sensor/tydom/%s_%s/config"
	sensorStateTopic  = "sensor/tydom/%s/%s"
)

type sensorConfig struct {
	Name        string   `json:"name"`
	UniqueID    string   `json:"unique_id"`
	StateTopic  string   `json:"state_topic"`
	DeviceClass string   `json:"device_class,omitempty"`
	Unit        string   `json:"unit_of_measurement,omitempty"`
	Device      haDevice `json:"device"`
}

// Sensor publishes standalone readings: door/window contact bags and
// energy metering values.
type Sensor struct {
	pub mqtt.Publisher
}

func NewSensor(pub mqtt.Publisher) *Sensor {
	return &Sensor{pub: pub}
}

// Publish fans a contact-sensor bag out as individual sensor entities.
func (s *Sensor) Publish(bag *extractor.AttributeBag) error {
	return fanOutSensors(s.pub, bag)
}

// PublishConso publishes one energy-metering reading with its device class
// and unit attached.
func (s *Sensor) PublishConso(reading *extractor.ConsoReading) error {
	cfg := sensorConfig{
		Name:        fmt.Sprintf("%s %s", reading.Name, reading.FieldName),
		UniqueID:    fmt.Sprintf("%s_%s", reading.Identity, reading.FieldName),
		StateTopic:  fmt.Sprintf(sensorStateTopic, reading.Identity, reading.FieldName),
		DeviceClass: reading.DeviceClass,
		Unit:        reading.Unit,
		Device:      newHADevice("Compteur", reading.Name, reading.Identity),
	}
	configTopic := fmt.Sprintf(sensorConfigTopic, reading.Identity, reading.FieldName)
	if err := publishJSON(s.pub, configTopic, cfg, false); err != nil {
		return err
	}
	return s.pub.Publish(cfg.StateTopic, []byte(valueString(reading.Value)), true)
}

// fanOutSensors publishes every attribute of a bag as its own sensor
// entity, so defect flags and auxiliary readings are individually visible.
func fanOutSensors(pub mqtt.Publisher, bag *extractor.AttributeBag) error {
	for field, value := range bag.Attributes {
		cfg := sensorConfig{
			Name:       fmt.Sprintf("%s %s", bag.Name, field),
			UniqueID:   fmt.Sprintf("%s_%s", bag.Identity, field),
			StateTopic: fmt.Sprintf(sensorStateTopic, bag.Identity, field),
			Device:     newHADevice(string(bag.Kind), bag.Name, bag.Identity),
		}
		configTopic := fmt.Sprintf(sensorConfigTopic, bag.Identity, field)
		if err := publishJSON(pub, configTopic, cfg, false); err != nil {
			return err
		}
		if err := pub.Publish(cfg.StateTopic, []byte(valueString(value)), true); err != nil {
			return err
		}
	}
	return nil
}
