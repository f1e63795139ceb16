// Package extractor turns hub devices-data payloads into typed attribute
// bags, one per device endpoint, ready for publication.
//
// The hub reports every endpoint of every device on each data message,
// including stale readings and fields the bridge has no use for. Extraction
// filters each endpoint's elements through a per-usage allow-list, keeps
// only elements whose validity is "upToDate", and groups the survivors into
// a bag typed after the device family (cover, light, climate, sensor,
// switch, alarm). Energy-metering fields are surfaced as standalone sensor
// readings with a device class and unit of measurement, because they arrive
// as siblings of other device kinds on the same payload.
//
// Alarm endpoints additionally get a derived panel state (disarmed, armed,
// pending, triggered) computed from alarmState, alarmSOS and alarmMode with
// a fixed precedence.
package extractor
