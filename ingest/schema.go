package ingest

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"ruleforge/core"
)

// nativeEventSchema validates rows in the tool's own export format: an
// event with an explicit category and a log_data payload. Rows that pass
// keep their original labels instead of going through label sniffing.
const nativeEventSchema = `{
  "type": "object",
  "required": ["category", "log_data"],
  "properties": {
    "event_id": {"type": "string"},
    "category": {
      "type": "string",
      "enum": ["true_positive", "true_negative", "fp_candidate", "evasion"]
    },
    "description": {"type": "string"},
    "log_data": {"type": "object"},
    "expected_detection": {"type": "boolean"}
  }
}`

var nativeSchema = gojsonschema.NewStringLoader(nativeEventSchema)

// isNativeRow reports whether a row conforms to the native export format.
func isNativeRow(row map[string]interface{}) bool {
	res, err := gojsonschema.Validate(nativeSchema, gojsonschema.NewGoLoader(row))
	return err == nil && res.Valid()
}

// nativeLabels maps a native category to its ground-truth tags.
var nativeLabels = map[string]struct {
	malicious bool
	evasion   bool
}{
	"true_positive": {malicious: true},
	"true_negative": {},
	"fp_candidate":  {},
	"evasion":       {malicious: true, evasion: true},
}

// labelRow derives ground-truth tags for an arbitrary imported row. An
// explicit is_malicious boolean wins; otherwise the category/label/type
// fields are sniffed the way analysts actually label exported logs.
func labelRow(row map[string]interface{}) (malicious, evasion bool) {
	if v, ok := row["is_malicious"].(bool); ok {
		_, evasion = sniffEvasion(row)
		return v, evasion
	}
	label := rowLabel(row)
	switch {
	case containsAny(label, "evasion", "bypass"):
		return true, true
	case containsAny(label, "tp", "true_pos", "malicious", "attack"):
		return true, false
	default:
		return false, false
	}
}

func sniffEvasion(row map[string]interface{}) (string, bool) {
	label := rowLabel(row)
	return label, containsAny(label, "evasion", "bypass")
}

func rowLabel(row map[string]interface{}) string {
	for _, key := range []string{"category", "label", "type"} {
		if v, ok := row[key]; ok {
			return strings.ToLower(toStringValue(v))
		}
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// describeRow probes the platform's description candidates, then a set of
// common fields, for a short display description.
func describeRow(row map[string]interface{}, schema core.FieldSchema, index int) string {
	const maxDesc = 80
	candidates := append([]string{}, schema.DescriptionCandidates...)
	candidates = append(candidates, "CommandLine", "tgt.process.cmdline", "msg.subject",
		"eventType", "event.type", "description", "name")
	for _, c := range candidates {
		if v, ok := row[c]; ok {
			s := toStringValue(v)
			if s == "" {
				continue
			}
			s = core.Truncate(s, maxDesc)
			return "[imported] " + s
		}
	}
	return "[imported] event " + itoa(index+1)
}
