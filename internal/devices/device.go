package devices

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tydom2mqtt/tydom2mqtt/internal/mqtt"
)

// manufacturer identifies the hub vendor in discovery payloads.
const manufacturer = "Delta Dore"

// Hub is the command surface adapters act on when a broker command
// arrives. *hub.Commands implements it.
type Hub interface {
	PutDeviceData(deviceID, endpointID int, name, value string) error
	PutAlarmCommand(deviceID, endpointID int, value string, zones ...int) error
}

// haDevice is the device block shared by every discovery payload, grouping
// all entities of one physical device in Home Assistant.
type haDevice struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Name         string `json:"name"`
	Identifiers  string `json:"identifiers"`
}

func newHADevice(model, name, id string) haDevice {
	return haDevice{
		Manufacturer: manufacturer,
		Model:        model,
		Name:         name,
		Identifiers:  id,
	}
}

// splitIdentity parses a composite "{endpointId}_{deviceId}" identity back
// into its numeric parts.
func splitIdentity(identity string) (endpointID, deviceID int, err error) {
	left, right, ok := strings.Cut(identity, "_")
	if !ok {
		return 0, 0, fmt.Errorf("malformed device identity %q", identity)
	}
	endpointID, err = strconv.Atoi(left)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed endpoint id in %q", identity)
	}
	deviceID, err = strconv.Atoi(right)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed device id in %q", identity)
	}
	return endpointID, deviceID, nil
}

// identityFromTopic extracts the identity segment of a subscribed command
// topic, e.g. "cover/tydom/20_10/set_position" -> "20_10".
func identityFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 {
		return "", fmt.Errorf("unexpected command topic %q", topic)
	}
	return parts[2], nil
}

// publishJSON marshals a payload and publishes it.
func publishJSON(pub mqtt.Publisher, topic string, payload any, retain bool) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload for %s: %w", topic, err)
	}
	return pub.Publish(topic, data, retain)
}

// valueString renders an attribute value the way state topics expect it:
// bare strings stay as-is, everything else is JSON-rendered.
func valueString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}
