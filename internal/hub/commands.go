package hub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/tydom2mqtt/tydom2mqtt/internal/logging"
	"github.com/tydom2mqtt/tydom2mqtt/internal/protocol"
)

// FrameWriter is the transport surface commands are issued through.
// *Session implements it.
type FrameWriter interface {
	Mode() protocol.Mode
	WriteFrame(frame []byte) error
}

// Commands is the outbound command surface of an open session. Calls only
// hand a frame to the transport; the hub's answer, if any, arrives on the
// inbound stream without correlation.
type Commands struct {
	transport FrameWriter
	alarmPIN  string
}

// NewCommands wraps a transport. alarmPIN may be empty when no alarm panel
// is configured; alarm commands are then rejected before any I/O.
func NewCommands(transport FrameWriter, alarmPIN string) *Commands {
	return &Commands{transport: transport, alarmPIN: alarmPIN}
}

func (c *Commands) send(method, path string, body []byte) error {
	frame := protocol.EncodeRequest(c.transport.Mode(), method, path, body)
	if strings.Contains(string(body), "pwd") {
		logging.Debug("Sending command to hub",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("body", "(redacted)"),
		)
	} else {
		logging.Debug("Sending command to hub",
			zap.String("method", method),
			zap.String("path", path),
			zap.ByteString("body", body),
		)
	}
	return c.transport.WriteFrame(frame)
}

// GetInfo requests the hub self-description.
func (c *Commands) GetInfo() error {
	return c.send(http.MethodGet, "/info", nil)
}

// RefreshAll asks the hub to push fresh data for every device.
func (c *Commands) RefreshAll() error {
	return c.send(http.MethodPost, "/refresh/all", nil)
}

// GetMoments requests the programmed moments file.
func (c *Commands) GetMoments() error {
	return c.send(http.MethodGet, "/moments/file", nil)
}

// GetScenarios requests the scenarios file.
func (c *Commands) GetScenarios() error {
	return c.send(http.MethodGet, "/scenarios/file", nil)
}

// Ping requests a pong from the hub.
func (c *Commands) Ping() error {
	return c.send(http.MethodGet, "/ping", nil)
}

// GetDevicesMeta requests metadata for every device.
func (c *Commands) GetDevicesMeta() error {
	return c.send(http.MethodGet, "/devices/meta", nil)
}

// GetDevicesData requests current data for every device.
func (c *Commands) GetDevicesData() error {
	return c.send(http.MethodGet, "/devices/data", nil)
}

// GetConfigFile requests the endpoint catalog.
func (c *Commands) GetConfigFile() error {
	return c.send(http.MethodGet, "/configs/file", nil)
}

// GetDeviceData requests current data for a single device endpoint.
func (c *Commands) GetDeviceData(deviceID, endpointID int) error {
	path := fmt.Sprintf("/devices/%d/endpoints/%d/data", deviceID, endpointID)
	return c.send(http.MethodGet, path, nil)
}

// PutDeviceData sets one named field on a device endpoint. For covers the
// value is the closing percentage.
func (c *Commands) PutDeviceData(deviceID, endpointID int, name, value string) error {
	body, err := json.Marshal([]map[string]string{{"name": name, "value": value}})
	if err != nil {
		return fmt.Errorf("failed to encode device data body: %w", err)
	}
	path := fmt.Sprintf("/devices/%d/endpoints/%d/data", deviceID, endpointID)
	return c.send(http.MethodPut, path, body)
}

// PutAlarmCommand arms, disarms or zone-arms the alarm panel. zones may be
// empty for a whole-panel command. The configured PIN is embedded in the
// body; without a PIN the call fails with ConfigurationError before any
// network I/O.
func (c *Commands) PutAlarmCommand(deviceID, endpointID int, value string, zones ...int) error {
	if c.alarmPIN == "" {
		return &ConfigurationError{Message: "alarm PIN not set, refusing alarm command"}
	}

	command := "alarmCmd"
	payload := map[string]any{"value": value, "pwd": c.alarmPIN}
	if len(zones) > 0 {
		command = "zoneCmd"
		payload["zones"] = zones
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode alarm command body: %w", err)
	}

	path := fmt.Sprintf("/devices/%d/endpoints/%d/cdata?name=%s", deviceID, endpointID, command)
	return c.send(http.MethodPut, path, body)
}
