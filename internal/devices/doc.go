// Package devices maps extracted device state onto MQTT topics and broker
// commands back onto hub calls.
//
// One adapter per device family (cover, light, switch, climate, sensor,
// alarm control panel). Each adapter publishes a Home Assistant discovery
// config under homeassistant/<component>/tydom/<id>/config, a retained
// state topic, and a JSON attributes topic, then fans individual
// attributes out as standalone sensors. Command topics are subscribed with
// wildcards once at startup; the device identity is recovered from the
// topic path.
package devices
