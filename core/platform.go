package core

import (
	"fmt"
	"sort"
)

// FieldSchema describes the canonical telemetry fields of a platform. It
// replaces per-platform conditional lookups with a table keyed by the
// enumerated PlatformID, so an unsupported platform is a lookup error
// rather than a silent no-op.
type FieldSchema struct {
	// ProcessField is the field carrying the acting process name or path.
	ProcessField string
	// CommandLineField is the field carrying the process command line.
	CommandLineField string
	// EventTypeField is the field carrying the event type or category.
	EventTypeField string
	// LogSource is a short label for the platform's log domain.
	LogSource string
	// DescriptionCandidates are probed in order when an imported row needs
	// a display description.
	DescriptionCandidates []string
}

var fieldSchemas = map[PlatformID]FieldSchema{
	PlatformSentinelOne: {
		ProcessField:          "tgt.process.image.path",
		CommandLineField:      "tgt.process.cmdline",
		EventTypeField:        "event.type",
		LogSource:             "sentinelone",
		DescriptionCandidates: []string{"tgt.process.cmdline", "src.process.cmdline", "event.type"},
	},
	PlatformCribl: {
		ProcessField:          "Image",
		CommandLineField:      "CommandLine",
		EventTypeField:        "EventType",
		LogSource:             "windows",
		DescriptionCandidates: []string{"CommandLine", "Image", "EventType"},
	},
	PlatformSentinel: {
		ProcessField:          "Image",
		CommandLineField:      "CommandLine",
		EventTypeField:        "EventType",
		LogSource:             "windows",
		DescriptionCandidates: []string{"CommandLine", "Image", "EventType"},
	},
	PlatformOkta: {
		ProcessField:          "client.userAgent.rawUserAgent",
		CommandLineField:      "debugContext.debugData.requestUri",
		EventTypeField:        "eventType",
		LogSource:             "okta",
		DescriptionCandidates: []string{"eventType", "displayMessage", "outcome.result"},
	},
	PlatformArmis: {
		ProcessField:          "device.name",
		CommandLineField:      "activity.title",
		EventTypeField:        "activity.type",
		LogSource:             "iot",
		DescriptionCandidates: []string{"activity.title", "device.name", "activity.type"},
	},
	PlatformObsidian: {
		ProcessField:          "user.email",
		CommandLineField:      "event.description",
		EventTypeField:        "event.type",
		LogSource:             "saas",
		DescriptionCandidates: []string{"event.description", "event.type", "user.email"},
	},
	PlatformPaloAlto: {
		ProcessField:          "app",
		CommandLineField:      "rule",
		EventTypeField:        "subtype",
		LogSource:             "firewall",
		DescriptionCandidates: []string{"rule", "app", "subtype"},
	},
	PlatformProofPoint: {
		ProcessField:          "msg.parsedAddresses.from",
		CommandLineField:      "msg.subject",
		EventTypeField:        "filter.disposition",
		LogSource:             "email",
		DescriptionCandidates: []string{"msg.subject", "filter.disposition"},
	},
	PlatformSigma: {
		ProcessField:          "Image",
		CommandLineField:      "CommandLine",
		EventTypeField:        "EventType",
		LogSource:             "windows",
		DescriptionCandidates: []string{"CommandLine", "Image", "OriginalFileName"},
	},
	PlatformGeneric: {
		ProcessField:          "process_name",
		CommandLineField:      "command_line",
		EventTypeField:        "event_type",
		LogSource:             "generic",
		DescriptionCandidates: []string{"command_line", "process_name", "event_type", "description", "name"},
	},
}

// SchemaFor returns the field schema for a platform. Unknown platforms are
// an error so callers cannot silently fall through to nothing.
func SchemaFor(platform PlatformID) (FieldSchema, error) {
	s, ok := fieldSchemas[platform]
	if !ok {
		return FieldSchema{}, fmt.Errorf("no field schema registered for platform %q", platform)
	}
	return s, nil
}

// SupportedPlatforms lists every platform with a registered field schema.
func SupportedPlatforms() []PlatformID {
	out := make([]PlatformID, 0, len(fieldSchemas))
	for p := range fieldSchemas {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
