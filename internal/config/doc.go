// Package config loads and validates the bridge settings.
//
// Settings come from three layers, lowest precedence first:
//
//  1. Built-in defaults (remote mediation host, localhost broker).
//  2. An optional YAML file (--config flag).
//  3. Environment variables (TYDOM_MAC, TYDOM_PASSWORD, MQTT_HOST, ...).
//
// When the bridge runs as a Home Assistant add-on, a fourth layer applies:
// the supervisor writes /data/options.json and its values override
// everything else. The same option names are used in all layers.
//
// The hub password and alarm PIN are never written back to disk and are
// masked before the validated settings are logged.
package config
