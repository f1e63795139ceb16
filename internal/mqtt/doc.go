// Package mqtt wraps the broker connection used to publish device state
// and receive commands.
//
// The client auto-reconnects and replays its subscriptions on every
// reconnect, so device adapters register their command handlers once and
// survive broker restarts. Publishes of state and discovery messages are
// retained so a restarting consumer (typically Home Assistant) picks up
// the last known state immediately.
package mqtt
