package router

import (
	"go.uber.org/zap"

	"github.com/tydom2mqtt/tydom2mqtt/internal/devices"
	"github.com/tydom2mqtt/tydom2mqtt/internal/extractor"
	"github.com/tydom2mqtt/tydom2mqtt/internal/logging"
	"github.com/tydom2mqtt/tydom2mqtt/internal/mqtt"
	"github.com/tydom2mqtt/tydom2mqtt/internal/protocol"
	"github.com/tydom2mqtt/tydom2mqtt/internal/registry"
)

// Router routes decoded payloads into registry updates and device
// publications.
type Router struct {
	registry *registry.Registry

	cover   *devices.Cover
	light   *devices.Light
	gate    *devices.Gate
	climate *devices.Climate
	sensor  *devices.Sensor
	alarm   *devices.Alarm
}

// New builds a router publishing through the given broker connection.
// homeZone and nightZone configure the alarm adapter's zone commands.
func New(reg *registry.Registry, pub mqtt.Publisher, homeZone, nightZone int) *Router {
	return &Router{
		registry: reg,
		cover:    devices.NewCover(pub),
		light:    devices.NewLight(pub),
		gate:     devices.NewGate(pub),
		climate:  devices.NewClimate(pub),
		sensor:   devices.NewSensor(pub),
		alarm:    devices.NewAlarm(pub, homeZone, nightZone),
	}
}

// SubscribeCommands registers every adapter's command topics against the
// hub. Called once per session, before the read loop starts.
func (r *Router) SubscribeCommands(client mqtt.Publisher, hub devices.Hub) error {
	if err := r.cover.SubscribeCommands(client, hub); err != nil {
		return err
	}
	if err := r.light.SubscribeCommands(client, hub); err != nil {
		return err
	}
	if err := r.gate.SubscribeCommands(client, hub); err != nil {
		return err
	}
	if err := r.climate.SubscribeCommands(client, hub); err != nil {
		return err
	}
	return r.alarm.SubscribeCommands(client, hub)
}

// Route consumes one decoded payload. It never returns an error: every
// failure is contained to this message and logged.
func (r *Router) Route(payload *protocol.Payload) {
	switch payload.Type {
	case protocol.PayloadRefreshAck:
		logging.Debug("Refresh acknowledged")
		return

	case protocol.PayloadUnknown:
		logging.LogFrame("Unknown frame dropped", payload.Raw)
		return
	}

	body := payload.Body
	switch kind := protocol.Classify(body); kind {
	case protocol.KindConfig:
		if err := r.registry.ApplyConfigSnapshot(body); err != nil {
			logging.Error("Failed to apply config snapshot",
				zap.Error(err),
				zap.ByteString("body", body),
			)
		}

	case protocol.KindDeviceData:
		r.routeDeviceData(body)

	case protocol.KindInfo:
		logging.Info("Hub info received", zap.ByteString("body", body))

	case protocol.KindHTML:
		// The hub answers some bad requests with an HTML error page.
		logging.Warn("HTML response from hub, probable error page",
			zap.Int("length", len(body)),
		)

	default:
		logging.LogFrame("Unclassifiable message dropped", body)
	}
}

func (r *Router) routeDeviceData(body []byte) {
	result, err := extractor.Extract(body, r.registry)
	if err != nil {
		logging.Error("Failed to extract device data",
			zap.Error(err),
			zap.ByteString("body", body),
		)
		return
	}
	if result.Empty() {
		logging.Debug("Device data message produced no updates")
		return
	}

	for _, bag := range result.Covers {
		r.publish(bag.Identity, r.cover.Publish(bag))
	}
	for _, bag := range result.Lights {
		r.publish(bag.Identity, r.light.Publish(bag))
	}
	for _, bag := range result.Sensors {
		r.publish(bag.Identity, r.sensor.Publish(bag))
	}
	for _, bag := range result.Climates {
		r.publish(bag.Identity, r.climate.Publish(bag))
	}
	for _, bag := range result.Switches {
		r.publish(bag.Identity, r.gate.Publish(bag))
	}
	for _, reading := range result.Conso {
		r.publish(reading.Identity, r.sensor.PublishConso(reading))
	}
	if result.Alarm != nil {
		r.publish(result.Alarm.Bag.Identity, r.alarm.Publish(result.Alarm))
	}
}

func (r *Router) publish(identity string, err error) {
	if err != nil {
		logging.Error("Failed to publish device update",
			zap.String("id", identity),
			zap.Error(err),
		)
	}
}
