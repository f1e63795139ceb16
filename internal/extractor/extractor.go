package extractor

import (
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/tydom2mqtt/tydom2mqtt/internal/logging"
	"github.com/tydom2mqtt/tydom2mqtt/internal/registry"
)

// DeviceKind is the published device family of an attribute bag.
type DeviceKind string

const (
	KindCover   DeviceKind = "cover"
	KindLight   DeviceKind = "light"
	KindSensor  DeviceKind = "sensor"
	KindClimate DeviceKind = "climate"
	KindSwitch  DeviceKind = "switch"
	KindAlarm   DeviceKind = "alarm_control_panel"
)

// validityFresh marks an element the hub considers current.
const validityFresh = "upToDate"

// AttributeBag is one endpoint's filtered attributes for a data message.
// Attributes holds only allow-listed, up-to-date elements.
type AttributeBag struct {
	Identity   string
	DeviceID   int
	EndpointID int
	Name       string
	Kind       DeviceKind
	Attributes map[string]any
}

// ConsoReading is a standalone energy-metering sensor value.
type ConsoReading struct {
	Identity    string
	DeviceID    int
	EndpointID  int
	Name        string
	FieldName   string
	Value       any
	DeviceClass string
	Unit        string
}

// AlarmState is the derived panel state of the alarm control panel.
type AlarmState string

const (
	AlarmDisarmed  AlarmState = "disarmed"
	AlarmArmedHome AlarmState = "armed_home"
	AlarmArmedAway AlarmState = "armed_away"
	AlarmPending   AlarmState = "pending"
	AlarmTriggered AlarmState = "triggered"
)

// AlarmSnapshot is the full alarm panel state derived from one data
// message. It is recomputed from scratch every time; there are no deltas.
type AlarmSnapshot struct {
	Bag            *AttributeBag
	State          AlarmState
	SOS            bool
	Maintenance    bool
	OutTemperature any
}

// Result collects everything extracted from one devices-data message.
type Result struct {
	Covers   []*AttributeBag
	Lights   []*AttributeBag
	Sensors  []*AttributeBag
	Climates []*AttributeBag
	Switches []*AttributeBag
	Conso    []*ConsoReading
	Alarm    *AlarmSnapshot
}

// Empty reports whether nothing survived extraction.
func (r *Result) Empty() bool {
	return len(r.Covers) == 0 && len(r.Lights) == 0 && len(r.Sensors) == 0 &&
		len(r.Climates) == 0 && len(r.Switches) == 0 && len(r.Conso) == 0 &&
		r.Alarm == nil
}

// Wire shapes of the devices-data payload.
type deviceData struct {
	ID        int            `json:"id"`
	Endpoints []endpointData `json:"endpoints"`
}

type endpointData struct {
	ID    int           `json:"id"`
	Error int           `json:"error"`
	Data  []dataElement `json:"data"`
}

type dataElement struct {
	Name     string `json:"name"`
	Value    any    `json:"value"`
	Validity string `json:"validity"`
}

// Extract parses a devices-data body and produces the typed attribute bags
// for every resolvable endpoint. A malformed body fails with
// ExtractionError; trouble with a single endpoint is logged and skipped so
// the rest of the message still goes through.
func Extract(body []byte, reg *registry.Registry) (*Result, error) {
	var devices []deviceData
	if err := json.Unmarshal(body, &devices); err != nil {
		return nil, &ExtractionError{
			Message: "failed to parse devices data payload",
			Err:     err,
		}
	}

	result := &Result{}
	for _, device := range devices {
		for _, endpoint := range device.Endpoints {
			if endpoint.Error != 0 || len(endpoint.Data) == 0 {
				continue
			}
			extractEndpoint(result, reg, device.ID, endpoint)
		}
	}
	return result, nil
}

func extractEndpoint(result *Result, reg *registry.Registry, deviceID int, endpoint endpointData) {
	identity := registry.Identity(endpoint.ID, deviceID)
	entry, known := reg.Resolve(identity)
	if !known {
		// Data can race ahead of the first config snapshot; report under
		// the raw device id rather than dropping the endpoint silently.
		logging.Debug("Data for uncataloged endpoint",
			zap.String("identity", identity),
		)
		return
	}

	name := entry.Name
	if name == "" {
		name = strconv.Itoa(deviceID)
	}

	switch entry.Usage {
	case registry.UsageLight:
		if bag := collect(deviceID, endpoint, identity, name, KindLight, lightKeywords); bag != nil {
			result.Lights = append(result.Lights, bag)
		}

	case registry.UsageShutter, registry.UsageKlineShutter:
		if bag := collect(deviceID, endpoint, identity, name, KindCover, coverKeywords); bag != nil {
			result.Covers = append(result.Covers, bag)
		}

	case registry.UsageBelmDoor, registry.UsageKlineDoor,
		registry.UsageWindow, registry.UsageWindowFrench,
		registry.UsageKlineWindowFrench, registry.UsageKlineWindowSliding:
		if bag := collect(deviceID, endpoint, identity, name, KindSensor, doorKeywords); bag != nil {
			result.Sensors = append(result.Sensors, bag)
		}

	case registry.UsageBoiler:
		if bag := collect(deviceID, endpoint, identity, name, KindClimate, boilerKeywords); bag != nil {
			result.Climates = append(result.Climates, bag)
		}

	case registry.UsageGarageDoor, registry.UsageGate:
		if bag := collect(deviceID, endpoint, identity, name, KindSwitch, switchKeywords); bag != nil {
			result.Switches = append(result.Switches, bag)
		}

	case registry.UsageAlarm:
		if bag := collect(deviceID, endpoint, identity, name, KindAlarm, alarmKeywords); bag != nil {
			if snapshot := deriveAlarm(bag); snapshot != nil {
				result.Alarm = snapshot
			}
		}

	case registry.UsageConso:
		result.Conso = append(result.Conso, collectConso(deviceID, endpoint, identity, name)...)

	default:
		logging.Debug("Endpoint with unhandled usage",
			zap.String("identity", identity),
			zap.String("usage", string(entry.Usage)),
		)
	}
}

// collect filters an endpoint's elements through the family allow-list and
// the freshness flag. Returns nil when nothing survives.
func collect(deviceID int, endpoint endpointData, identity, name string, kind DeviceKind, allowed map[string]struct{}) *AttributeBag {
	attrs := make(map[string]any)
	for _, elem := range endpoint.Data {
		if elem.Validity != validityFresh {
			continue
		}
		if _, ok := allowed[elem.Name]; !ok {
			continue
		}
		attrs[elem.Name] = elem.Value
	}
	if len(attrs) == 0 {
		return nil
	}
	return &AttributeBag{
		Identity:   identity,
		DeviceID:   deviceID,
		EndpointID: endpoint.ID,
		Name:       name,
		Kind:       kind,
		Attributes: attrs,
	}
}

// collectConso turns every fresh metering element into its own standalone
// reading, annotated with device class and unit.
func collectConso(deviceID int, endpoint endpointData, identity, name string) []*ConsoReading {
	var readings []*ConsoReading
	for _, elem := range endpoint.Data {
		if elem.Validity != validityFresh {
			continue
		}
		class, ok := consoClasses[elem.Name]
		if !ok {
			continue
		}
		readings = append(readings, &ConsoReading{
			Identity:    identity,
			DeviceID:    deviceID,
			EndpointID:  endpoint.ID,
			Name:        name,
			FieldName:   elem.Name,
			Value:       elem.Value,
			DeviceClass: class,
			Unit:        consoUnits[elem.Name],
		})
	}
	return readings
}

// deriveAlarm computes the panel state from the alarm attribute bag.
// Precedence: an active or quiet alarmState means triggered, a delayed one
// pending; an SOS forces triggered regardless; otherwise alarmMode decides
// the armed/disarmed state. Returns nil when no rule produced a state so
// the previously published state stands.
func deriveAlarm(bag *AttributeBag) *AlarmSnapshot {
	snapshot := &AlarmSnapshot{Bag: bag}

	switch attrString(bag, "alarmState") {
	case "ON", "QUIET":
		snapshot.State = AlarmTriggered
	case "DELAYED":
		snapshot.State = AlarmPending
	}

	if attrString(bag, "alarmSOS") == "true" {
		snapshot.State = AlarmTriggered
		snapshot.SOS = true
	} else if snapshot.State == "" {
		switch attrString(bag, "alarmMode") {
		case "ON":
			snapshot.State = AlarmArmedAway
		case "ZONE":
			snapshot.State = AlarmArmedHome
		case "OFF":
			snapshot.State = AlarmDisarmed
		case "MAINTENANCE":
			snapshot.State = AlarmDisarmed
			snapshot.Maintenance = true
		}
	}

	if temp, ok := bag.Attributes["outTemperature"]; ok {
		snapshot.OutTemperature = temp
	}

	if snapshot.State == "" {
		return nil
	}
	return snapshot
}

func attrString(bag *AttributeBag, name string) string {
	value, ok := bag.Attributes[name]
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
