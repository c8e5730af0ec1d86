// Package telemetry generates synthetic event sets for validating a rule
// when no real logs are available: true positives derived from the rule's
// own conditions, benign true negatives, partial-match false-positive
// candidates, and evasion variants of the triggering values.
package telemetry

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"ruleforge/core"
)

// benignProcesses is the catalog used for true-negative events.
var benignProcesses = []struct {
	name string
	path string
	cmd  string
}{
	{"notepad.exe", `C:\Windows\System32\notepad.exe`, "notepad.exe readme.txt"},
	{"mspaint.exe", `C:\Windows\System32\mspaint.exe`, "mspaint.exe"},
	{"calc.exe", `C:\Windows\System32\calc.exe`, "calc.exe"},
	{"svchost.exe", `C:\Windows\System32\svchost.exe`, "svchost.exe -k netsvcs"},
	{"explorer.exe", `C:\Windows\explorer.exe`, "explorer.exe"},
	{"chrome.exe", `C:\Program Files\Google\Chrome\Application\chrome.exe`, "chrome.exe --type=renderer"},
	{"Teams.exe", `C:\Users\user\AppData\Local\Microsoft\Teams\Teams.exe`, "Teams.exe"},
	{"python.exe", `C:\Python311\python.exe`, "python.exe -c print('hello')"},
	{"git.exe", `C:\Program Files\Git\cmd\git.exe`, "git.exe status"},
	{"code.exe", `C:\Program Files\Microsoft VS Code\Code.exe`, "code.exe ."},
	{"7zFM.exe", `C:\Program Files\7-Zip\7zFM.exe`, "7zFM.exe"},
	{"msiexec.exe", `C:\Windows\System32\msiexec.exe`, "msiexec /i setup.msi /quiet"},
}

// evasionTransform is one named bypass technique applied to the rule's
// triggering values.
type evasionTransform struct {
	name  string
	apply func(string) string
}

var evasionTransforms = []evasionTransform{
	{"case_manipulation", strings.ToUpper},
	{"env_variable_sub", func(v string) string {
		return strings.ReplaceAll(v, `C:\Windows`, `%SystemRoot%`)
	}},
	{"path_traversal", func(v string) string {
		return strings.ReplaceAll(v, `\System32\`, `\System32\..\System32\`)
	}},
	{"double_extension", func(v string) string {
		if strings.Contains(v, ".exe") {
			return v + ".bak"
		}
		return v
	}},
	{"syswow64_redirect", func(v string) string {
		return strings.ReplaceAll(v, "System32", "SysWow64")
	}},
	{"space_insertion", func(v string) string {
		return strings.ReplaceAll(v, ".exe", " .exe")
	}},
	{"b64_encoding", func(v string) string {
		if len(v) >= 80 {
			return v
		}
		return "powershell.exe -enc " + base64.StdEncoding.EncodeToString(utf16LE(v+" "))
	}},
	{"unicode_substitution", func(v string) string {
		if len(v) >= 50 {
			return v
		}
		return strings.NewReplacer("a", "\u0430", "e", "\u0435").Replace(v)
	}},
}

// Generator builds synthetic event sets for one rule on one platform.
type Generator struct {
	platform core.PlatformID
	schema   core.FieldSchema
	positive map[string]string
	seq      int
}

// NewGenerator derives a generator from a compiled rule. The triggering
// field values come from the rule's own comparison leaves.
func NewGenerator(platform core.PlatformID, tree *core.PredicateTree) (*Generator, error) {
	schema, err := core.SchemaFor(platform)
	if err != nil {
		return nil, err
	}
	g := &Generator{
		platform: platform,
		schema:   schema,
		positive: positiveValues(tree),
	}
	return g, nil
}

// positiveValues derives, per field, a value that satisfies the rule's
// comparison on that field. Regex comparisons are skipped: synthesizing a
// string from an arbitrary pattern is guesswork.
func positiveValues(tree *core.PredicateTree) map[string]string {
	out := make(map[string]string)
	if tree == nil {
		return out
	}
	for _, c := range tree.Comparisons() {
		if _, seen := out[c.Field]; seen {
			continue
		}
		switch c.Op {
		case core.OpEquals, core.OpContains:
			out[c.Field] = c.Value
		case core.OpStartsWith:
			out[c.Field] = c.Value + "-run"
		case core.OpEndsWith:
			out[c.Field] = "run-" + c.Value
		case core.OpInSet:
			if len(c.Values) > 0 {
				out[c.Field] = c.Values[0]
			}
		case core.OpGT, core.OpGTE:
			if n, err := strconv.ParseFloat(c.Value, 64); err == nil {
				out[c.Field] = strconv.FormatFloat(n+1, 'f', -1, 64)
			}
		case core.OpLT, core.OpLTE:
			if n, err := strconv.ParseFloat(c.Value, 64); err == nil {
				out[c.Field] = strconv.FormatFloat(n-1, 'f', -1, 64)
			}
		case core.OpExists:
			out[c.Field] = "present"
		}
	}
	return out
}

// baseEvent builds the platform-shaped skeleton every synthetic event
// starts from.
func (g *Generator) baseEvent() map[string]interface{} {
	fields := map[string]interface{}{
		g.schema.EventTypeField:   "process_start",
		g.schema.ProcessField:     `C:\Windows\System32\cmd.exe`,
		g.schema.CommandLineField: "cmd.exe /c whoami",
		"host":                    "WS-" + itoa(1000+g.seq),
		"user":                    "corp\\analyst",
	}
	return fields
}

func (g *Generator) nextEvent(malicious, evasion bool, desc string) *core.Event {
	g.seq++
	ev := core.NewEvent(core.SourceSynthetic)
	ev.EventID = fmt.Sprintf("SYN-%04d", g.seq)
	ev.IsMalicious = malicious
	ev.IsEvasion = evasion
	ev.Description = desc
	ev.Fields = g.baseEvent()
	return ev
}

// TruePositives generates events that satisfy every triggering condition,
// with surface variations (casing, extra arguments, path variants) so the
// rule is not graded on a single literal byte string.
func (g *Generator) TruePositives(count int) []*core.Event {
	variations := []struct {
		label string
		apply func(string) string
	}{
		{"standard", func(v string) string { return v }},
		{"uppercase", strings.ToUpper},
		{"lowercase", strings.ToLower},
		{"extra_args", func(v string) string { return v + " --extra-flag" }},
		{"path_variant", func(v string) string { return strings.ReplaceAll(v, "System32", "SysWOW64") }},
	}
	events := make([]*core.Event, 0, count)
	for i := 0; i < count; i++ {
		v := variations[i%len(variations)]
		ev := g.nextEvent(true, false, "TP ["+v.label+"]")
		for field, value := range g.positive {
			if i == 0 {
				ev.Fields[field] = value
			} else {
				ev.Fields[field] = v.apply(value)
			}
		}
		events = append(events, ev)
	}
	return events
}

// TrueNegatives generates benign activity drawn from the process catalog.
func (g *Generator) TrueNegatives(count int) []*core.Event {
	events := make([]*core.Event, 0, count)
	for i := 0; i < count; i++ {
		p := benignProcesses[i%len(benignProcesses)]
		ev := g.nextEvent(false, false, fmt.Sprintf("TN benign #%d: %s", i+1, p.name))
		ev.Fields[g.schema.ProcessField] = p.path
		ev.Fields[g.schema.CommandLineField] = p.cmd
		events = append(events, ev)
	}
	return events
}

// FalsePositiveCandidates generates benign events that satisfy roughly
// half of the rule's conditions, stressing precision.
func (g *Generator) FalsePositiveCandidates(count int) []*core.Event {
	fields := make([]string, 0, len(g.positive))
	for f := range g.positive {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	half := len(fields) / 2
	if half == 0 {
		half = 1
	}
	events := make([]*core.Event, 0, count)
	for i := 0; i < count; i++ {
		p := benignProcesses[i%len(benignProcesses)]
		ev := g.nextEvent(false, false, fmt.Sprintf("FP candidate #%d: partial match", i+1))
		ev.Fields[g.schema.ProcessField] = p.path
		ev.Fields[g.schema.CommandLineField] = p.cmd
		for j, f := range fields {
			if j >= half {
				break
			}
			ev.Fields[f] = g.positive[f]
		}
		events = append(events, ev)
	}
	return events
}

// EvasionSamples generates malicious events with the triggering values run
// through bypass transforms. They are tagged so the scoring engine can
// compute evasion resistance over exactly this subset.
func (g *Generator) EvasionSamples(count int) []*core.Event {
	events := make([]*core.Event, 0, count)
	for i := 0; i < count; i++ {
		t := evasionTransforms[i%len(evasionTransforms)]
		round := i / len(evasionTransforms)
		ev := g.nextEvent(true, true, "Evasion: "+strings.ReplaceAll(t.name, "_", " "))
		for field, value := range g.positive {
			v := t.apply(value)
			// Past the first cycle, stack a second transform to vary
			// repeated techniques.
			if round > 0 {
				v = evasionTransforms[(i+round)%len(evasionTransforms)].apply(v)
			}
			ev.Fields[field] = v
		}
		events = append(events, ev)
	}
	return events
}

// Suite generates the standard validation mix in a deterministic order:
// true positives, true negatives, FP candidates, then evasion samples.
func (g *Generator) Suite() []*core.Event {
	events := g.TruePositives(10)
	events = append(events, g.TrueNegatives(15)...)
	events = append(events, g.FalsePositiveCandidates(5)...)
	events = append(events, g.EvasionSamples(5)...)
	return events
}

func utf16LE(s string) []byte {
	codes := utf16.Encode([]rune(s))
	out := make([]byte, 0, len(codes)*2)
	for _, c := range codes {
		out = append(out, byte(c), byte(c>>8))
	}
	return out
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
