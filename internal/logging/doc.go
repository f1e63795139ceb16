// Package logging provides structured logging for the tydom2mqtt bridge.
//
// It wraps go.uber.org/zap with a global logger and package-level helper
// functions. The log level is taken from an explicit Initialize call or from
// the TYDOM2MQTT_LOG_LEVEL environment variable; when neither is set the
// logger is a no-op, which keeps library-style usage silent.
//
// The package also carries the redaction helpers used everywhere secrets
// (hub password, alarm PIN, digest response values) could leak into a log
// line. Always pass credentials through Redact before logging them.
package logging
