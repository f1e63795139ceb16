package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/tydom2mqtt/tydom2mqtt/internal/logging"
)

// Usage is a device's usage family as reported by the hub catalog.
type Usage string

const (
	UsageShutter            Usage = "shutter"
	UsageKlineShutter       Usage = "klineShutter"
	UsageLight              Usage = "light"
	UsageWindow             Usage = "window"
	UsageWindowFrench       Usage = "windowFrench"
	UsageBelmDoor           Usage = "belmDoor"
	UsageKlineDoor          Usage = "klineDoor"
	UsageKlineWindowFrench  Usage = "klineWindowFrench"
	UsageKlineWindowSliding Usage = "klineWindowSliding"
	UsageGarageDoor         Usage = "garage_door"
	UsageGate               Usage = "gate"
	UsageBoiler             Usage = "boiler"
	UsageConso              Usage = "conso"
	UsageAlarm              Usage = "alarm"
	UsageUnknown            Usage = ""
)

// alarmDisplayName replaces whatever name the catalog reports for alarm
// endpoints; the hub labels them inconsistently across firmware versions.
const alarmDisplayName = "Tyxal Alarm"

// knownUsages is the fixed set of catalog usage strings the bridge
// understands, mapped to the usage family the rest of the pipeline works
// with. "electric" heaters behave exactly like boilers and are folded in.
var knownUsages = map[string]Usage{
	"shutter":            UsageShutter,
	"klineShutter":       UsageKlineShutter,
	"light":              UsageLight,
	"window":             UsageWindow,
	"windowFrench":       UsageWindowFrench,
	"belmDoor":           UsageBelmDoor,
	"klineDoor":          UsageKlineDoor,
	"klineWindowFrench":  UsageKlineWindowFrench,
	"klineWindowSliding": UsageKlineWindowSliding,
	"garage_door":        UsageGarageDoor,
	"gate":               UsageGate,
	"boiler":             UsageBoiler,
	"conso":              UsageConso,
	"alarm":              UsageAlarm,
	"electric":           UsageBoiler,
}

// Identity builds the composite device key used everywhere device state is
// addressed.
func Identity(endpointID, deviceID int) string {
	return fmt.Sprintf("%d_%d", endpointID, deviceID)
}

// Entry is one cataloged device endpoint.
type Entry struct {
	Identity   string
	Name       string
	Usage      Usage
	EndpointID int
}

// Registry maps composite device identities to catalog entries. Safe for
// concurrent use: the inbound loop writes snapshots while device adapters
// resolve identities from their own goroutines.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// configSnapshot is the subset of the hub's configuration file the registry
// cares about.
type configSnapshot struct {
	Endpoints []struct {
		IDEndpoint int    `json:"id_endpoint"`
		IDDevice   int    `json:"id_device"`
		Name       string `json:"name"`
		LastUsage  string `json:"last_usage"`
	} `json:"endpoints"`
}

// ApplyConfigSnapshot parses a configuration snapshot body and upserts an
// entry for every endpoint with a recognized usage. Endpoints with usages
// the bridge does not handle are skipped; existing entries are never
// removed.
func (r *Registry) ApplyConfigSnapshot(body []byte) error {
	var snapshot configSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return fmt.Errorf("failed to parse config snapshot: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, ep := range snapshot.Endpoints {
		usage, ok := knownUsages[ep.LastUsage]
		if !ok {
			continue
		}

		entry := Entry{
			Identity:   Identity(ep.IDEndpoint, ep.IDDevice),
			Name:       ep.Name,
			Usage:      usage,
			EndpointID: ep.IDEndpoint,
		}
		if usage == UsageAlarm {
			entry.Name = alarmDisplayName
		}

		if _, exists := r.entries[entry.Identity]; !exists {
			added++
		}
		r.entries[entry.Identity] = entry
	}

	logging.Info("Configuration updated",
		zap.Int("endpoints", len(r.entries)),
		zap.Int("new", added),
	)
	return nil
}

// Resolve looks up a device by identity. Unknown identities return a zero
// entry and false rather than an error: data messages can arrive before the
// first config snapshot and must degrade gracefully.
func (r *Registry) Resolve(identity string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[identity]
	return entry, ok
}

// Len returns the number of cataloged endpoints.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// PurgeMissing removes every entry whose identity is not in keep. The
// inbound pipeline never calls this; it exists for operators who re-pair
// devices and want a long-running bridge to drop stale catalog entries
// without a restart.
func (r *Registry) PurgeMissing(keep map[string]struct{}) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for identity := range r.entries {
		if _, ok := keep[identity]; !ok {
			delete(r.entries, identity)
			removed++
		}
	}
	return removed
}
