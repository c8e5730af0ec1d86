// Package ingest converts uploaded log payloads into bounded event
// sequences. Size and row caps are enforced before and during decoding so
// an oversized or hostile payload bounds peak memory, not just the final
// event count.
package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"ruleforge/core"
	"ruleforge/metrics"
)

// PayloadFormat is the declared format of an uploaded payload.
type PayloadFormat string

const (
	PayloadJSON   PayloadFormat = "json"
	PayloadJSONL  PayloadFormat = "jsonl"
	PayloadNDJSON PayloadFormat = "ndjson"
	PayloadCSV    PayloadFormat = "csv"
)

// Limits bounds what an import may allocate.
type Limits struct {
	MaxBytes int64
	MaxRows  int
}

// DefaultLimits returns the policy defaults: 10 MB payloads, 5,000 rows.
func DefaultLimits() Limits {
	return Limits{
		MaxBytes: 10 * 1024 * 1024,
		MaxRows:  5000,
	}
}

// maxLineBytes caps a single JSONL line; a line longer than this is a
// skipped row, not an unbounded buffer.
const maxLineBytes = 1024 * 1024

// Importer converts payloads into events for one platform.
type Importer struct {
	limits   Limits
	platform core.PlatformID
	schema   core.FieldSchema
}

// NewImporter creates an importer for the given platform. The platform
// schema drives description probing for imported rows.
func NewImporter(platform core.PlatformID, limits Limits) (*Importer, error) {
	schema, err := core.SchemaFor(platform)
	if err != nil {
		return nil, err
	}
	if limits.MaxBytes <= 0 {
		limits.MaxBytes = DefaultLimits().MaxBytes
	}
	if limits.MaxRows <= 0 {
		limits.MaxRows = DefaultLimits().MaxRows
	}
	return &Importer{limits: limits, platform: platform, schema: schema}, nil
}

// Import decodes the payload into at most MaxRows events. The byte cap is
// checked before any decoding starts. Returns an *ImportError only for
// whole-payload failures; bad rows are skipped with a report warning.
func (imp *Importer) Import(payload []byte, format PayloadFormat) ([]*core.Event, *ImportReport, error) {
	if int64(len(payload)) > imp.limits.MaxBytes {
		return nil, nil, &ImportError{
			Reason: fmt.Sprintf("payload is %d bytes, maximum is %d", len(payload), imp.limits.MaxBytes),
		}
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil, &ImportError{Reason: "payload is empty"}
	}

	report := &ImportReport{Format: format}
	var events []*core.Event
	var err error

	switch format {
	case PayloadJSON:
		events, err = imp.importJSONArray(payload, report)
	case PayloadJSONL, PayloadNDJSON:
		events, err = imp.importJSONLines(payload, report)
	case PayloadCSV:
		events, err = imp.importCSV(payload, report)
	default:
		return nil, nil, &ImportError{Reason: fmt.Sprintf("unrecognized payload format %q", format)}
	}
	if err != nil {
		return nil, nil, err
	}
	if len(events) == 0 {
		return nil, nil, &ImportError{Reason: "payload contained no valid rows"}
	}

	report.Imported = len(events)
	if report.Truncated > 0 {
		report.warnf("row cap reached: %d rows dropped beyond the first %d", report.Truncated, imp.limits.MaxRows)
	}
	metrics.EventsImported.WithLabelValues(string(format)).Add(float64(len(events)))
	metrics.ImportRowsSkipped.WithLabelValues(string(format)).Add(float64(report.Skipped))
	return events, report, nil
}

// importJSONArray streams a JSON array (or a single object) token by
// token, so rows beyond the cap are counted and discarded without being
// materialized as events.
func (imp *Importer) importJSONArray(payload []byte, report *ImportReport) ([]*core.Event, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, &ImportError{Reason: "invalid JSON payload: " + err.Error()}
	}

	// A bare object is a one-row import.
	if tok != json.Delim('[') {
		var row map[string]interface{}
		if err := json.Unmarshal(payload, &row); err != nil {
			return nil, &ImportError{Reason: "payload is neither a JSON array nor an object"}
		}
		report.TotalRows = 1
		ev := imp.rowToEvent(row, 0)
		return []*core.Event{ev}, nil
	}

	var events []*core.Event
	for dec.More() {
		index := report.TotalRows
		report.TotalRows++

		if len(events) >= imp.limits.MaxRows {
			// Discard without materializing.
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				report.warnf("row %d: unreadable after cap: %v", index+1, err)
				break
			}
			report.Truncated++
			continue
		}

		var row map[string]interface{}
		if err := dec.Decode(&row); err != nil {
			report.Skipped++
			report.warnf("row %d: skipped, invalid JSON object: %v", index+1, err)
			// The decoder cannot resync inside a broken array element.
			break
		}
		events = append(events, imp.rowToEvent(row, index))
	}
	return events, nil
}

// importJSONLines decodes one JSON document per line. An oversized line
// is a skipped row with a diagnostic; the lines after it still import.
func (imp *Importer) importJSONLines(payload []byte, report *ImportReport) ([]*core.Event, error) {
	var events []*core.Event
	line := 0
	for rest := payload; len(rest) > 0; {
		var text []byte
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			text, rest = rest[:i], rest[i+1:]
		} else {
			text, rest = rest, nil
		}
		line++
		text = bytes.TrimSpace(text)
		if len(text) == 0 {
			continue
		}
		report.TotalRows++
		if len(text) > maxLineBytes {
			report.Skipped++
			report.warnf("line %d: skipped, exceeds %d byte line limit", line, maxLineBytes)
			continue
		}
		if len(events) >= imp.limits.MaxRows {
			report.Truncated++
			continue
		}
		var row map[string]interface{}
		if err := json.Unmarshal(text, &row); err != nil {
			report.Skipped++
			report.warnf("line %d: skipped, invalid JSON", line)
			continue
		}
		events = append(events, imp.rowToEvent(row, report.TotalRows-1))
	}
	return events, nil
}

// importCSV streams CSV rows against the header, one record at a time.
func (imp *Importer) importCSV(payload []byte, report *ImportReport) ([]*core.Event, error) {
	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, &ImportError{Reason: "reading CSV header: " + err.Error()}
	}

	var events []*core.Event
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		report.TotalRows++
		if err != nil {
			report.Skipped++
			report.warnf("row %d: skipped, malformed CSV: %v", report.TotalRows, err)
			continue
		}
		if len(events) >= imp.limits.MaxRows {
			report.Truncated++
			continue
		}
		if len(record) != len(header) {
			report.Skipped++
			report.warnf("row %d: skipped, %d columns but header has %d", report.TotalRows, len(record), len(header))
			continue
		}
		row := make(map[string]interface{}, len(header))
		for i, col := range header {
			row[col] = record[i]
		}
		events = append(events, imp.rowToEvent(row, report.TotalRows-1))
	}
	return events, nil
}

// rowToEvent builds an immutable imported event from a decoded row.
// Label fields are consumed as ground truth and stripped from the field
// map so rules cannot accidentally match on them.
func (imp *Importer) rowToEvent(row map[string]interface{}, index int) *core.Event {
	ev := core.NewEvent(core.SourceImported)
	ev.EventID = fmt.Sprintf("IMP-%04d", index+1)

	if cat, ok := row["category"].(string); ok && isNativeRow(row) {
		labels := nativeLabels[cat]
		ev.IsMalicious = labels.malicious
		ev.IsEvasion = labels.evasion
		if d, ok := row["description"].(string); ok {
			ev.Description = d
		}
		if logData, ok := row["log_data"].(map[string]interface{}); ok {
			for k, v := range logData {
				ev.Fields[k] = v
			}
		}
		if ev.Description == "" {
			ev.Description = describeRow(ev.Fields, imp.schema, index)
		}
		return ev
	}

	ev.IsMalicious, ev.IsEvasion = labelRow(row)
	for k, v := range row {
		if k == "category" || k == "label" || k == "is_malicious" {
			continue
		}
		ev.Fields[k] = v
	}
	ev.Description = describeRow(ev.Fields, imp.schema, index)
	return ev
}

func toStringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
