// Package registry holds the process-lifetime catalog of devices learned
// from hub configuration snapshots.
//
// Entries are keyed by the composite identity "{endpointId}_{deviceId}" and
// record the device's display name, its usage family and its endpoint id.
// The table only ever grows: a device that disappears from a later snapshot
// keeps its entry, so data messages that race ahead of a config refresh can
// still be attributed. Lookups for identities that have not been seen yet
// return empty sentinels rather than errors.
package registry
