package protocol

import "strings"

// Kind is the content classification of a decoded message body.
type Kind int

const (
	// KindConfig is a configuration snapshot (endpoint catalog).
	KindConfig Kind = iota
	// KindDeviceData is a devices data payload.
	KindDeviceData
	// KindInfo is the hub self-description.
	KindInfo
	// KindHTML is an HTML page, almost certainly an error page.
	KindHTML
	// KindUnknown is an unclassifiable body.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindDeviceData:
		return "device-data"
	case KindInfo:
		return "info"
	case KindHTML:
		return "html"
	default:
		return "unknown"
	}
}

// Classify sniffs a decoded body and decides what it carries. Config
// snapshots are detected anywhere in the body because the catalog marker
// sits deep inside the (large) document; everything else is decided on the
// leading bytes alone, which keeps the hot path cheap.
func Classify(body []byte) Kind {
	if len(body) == 0 {
		return KindUnknown
	}

	if strings.Contains(string(body), "id_catalog") {
		return KindConfig
	}

	first := sniff(body)
	switch {
	case strings.Contains(first, "id"):
		return KindDeviceData
	case strings.Contains(first, "doctype"):
		return KindHTML
	case strings.Contains(first, "productName"):
		return KindInfo
	default:
		return KindUnknown
	}
}
