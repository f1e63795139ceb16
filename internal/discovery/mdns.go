package discovery

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type Tydom hubs advertise.
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain.
	ServiceDomain = "local."

	// DefaultScanTimeout is how long a scan listens for announcements.
	DefaultScanTimeout = 10 * time.Second
)

// hostnamePattern matches Tydom hub hostnames, e.g. "tydom-0a2b3c.local".
// The captured group is the lowercase tail of the hub MAC address.
var hostnamePattern = regexp.MustCompile(`^(?i)tydom-([0-9a-f]{6})\.local\.?$`)

// Hub is a Tydom hub found on the LAN.
type Hub struct {
	// MACSuffix is the last three octets of the hub MAC, as advertised in
	// the hostname.
	MACSuffix string

	// Hostname is the mDNS hostname.
	Hostname string

	// IP is the hub address, preferring IPv4.
	IP string
}

func (h *Hub) String() string {
	return fmt.Sprintf("Tydom hub %s (%s) at %s", h.MACSuffix, h.Hostname, h.IP)
}

// Scanner browses the LAN for Tydom hubs.
type Scanner struct {
	Timeout time.Duration
}

// NewScanner returns a scanner with the default timeout.
func NewScanner() *Scanner {
	return &Scanner{Timeout: DefaultScanTimeout}
}

// Scan browses for hubs until the timeout elapses and returns everything
// found. An empty result is not an error: many installations only reach
// their hub through the cloud relay.
func (s *Scanner) Scan(ctx context.Context) ([]*Hub, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var hubs []*Hub
	done := make(chan struct{})

	go func() {
		defer close(done)
		for entry := range entries {
			if hub := parseServiceEntry(entry); hub != nil {
				hubs = append(hubs, hub)
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-done
	return hubs, nil
}

// parseServiceEntry filters a generic HTTP service announcement down to a
// Tydom hub. Returns nil for anything else on the network.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Hub {
	matches := hostnamePattern.FindStringSubmatch(entry.HostName)
	if len(matches) < 2 {
		return nil
	}

	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	return &Hub{
		MACSuffix: matches[1],
		Hostname:  entry.HostName,
		IP:        ip,
	}
}
