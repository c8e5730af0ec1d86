package match

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruleforge/core"
)

func eventWith(fields map[string]interface{}) *core.Event {
	e := core.NewEvent(core.SourceSynthetic)
	e.Fields = fields
	return e
}

func singleComparison(field string, op core.Operator, value string) *core.PredicateTree {
	return core.NewPredicateTree(&core.Comparison{Field: field, Op: op, Value: value})
}

func TestMatcher_StringOperators(t *testing.T) {
	m := NewMatcher(DefaultBudget())
	event := eventWith(map[string]interface{}{
		"process.name":    "PowerShell.exe",
		"process.cmdline": "powershell.exe -EncodedCommand SQBFAFgA",
	})

	tests := []struct {
		name    string
		field   string
		op      core.Operator
		value   string
		matched bool
	}{
		{"equals case insensitive", "process.name", core.OpEquals, "powershell.exe", true},
		{"equals mismatch", "process.name", core.OpEquals, "cmd.exe", false},
		{"contains", "process.cmdline", core.OpContains, "-encodedcommand", true},
		{"contains mismatch", "process.cmdline", core.OpContains, "Invoke-Mimikatz", false},
		{"startswith", "process.name", core.OpStartsWith, "power", true},
		{"endswith", "process.name", core.OpEndsWith, ".EXE", true},
		{"regex", "process.cmdline", core.OpRegex, `-Enc\w+`, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree := singleComparison(tc.field, tc.op, tc.value)
			assert.Equal(t, tc.matched, m.Evaluate(tree, event).Matched)
		})
	}
}

func TestMatcher_MissingFieldIsFalse(t *testing.T) {
	m := NewMatcher(DefaultBudget())
	event := eventWith(map[string]interface{}{"present": "value"})

	out := m.Evaluate(singleComparison("absent", core.OpContains, "anything"), event)
	assert.False(t, out.Matched)
	assert.Empty(t, out.Diagnostic)
}

func TestMatcher_Exists(t *testing.T) {
	m := NewMatcher(DefaultBudget())
	event := eventWith(map[string]interface{}{"present": ""})

	assert.True(t, m.Evaluate(singleComparison("present", core.OpExists, ""), event).Matched)
	assert.False(t, m.Evaluate(singleComparison("absent", core.OpExists, ""), event).Matched)
}

func TestMatcher_InSet(t *testing.T) {
	m := NewMatcher(DefaultBudget())
	event := eventWith(map[string]interface{}{"event.type": "Process Creation"})

	tree := core.NewPredicateTree(&core.Comparison{
		Field:  "event.type",
		Op:     core.OpInSet,
		Values: []string{"File Rename", "process creation"},
	})
	assert.True(t, m.Evaluate(tree, event).Matched)

	tree = core.NewPredicateTree(&core.Comparison{
		Field:  "event.type",
		Op:     core.OpInSet,
		Values: []string{"File Rename"},
	})
	assert.False(t, m.Evaluate(tree, event).Matched)
}

func TestMatcher_NumericOperators(t *testing.T) {
	m := NewMatcher(DefaultBudget())
	event := eventWith(map[string]interface{}{
		"bytes":    float64(4096),
		"count":    "17",
		"severity": "not-a-number",
	})

	tests := []struct {
		name    string
		field   string
		op      core.Operator
		value   string
		matched bool
	}{
		{"gt", "bytes", core.OpGT, "1024", true},
		{"gt equal boundary", "bytes", core.OpGT, "4096", false},
		{"gte equal boundary", "bytes", core.OpGTE, "4096", true},
		{"lt", "count", core.OpLT, "100", true},
		{"lte", "count", core.OpLTE, "17", true},
		{"non-numeric field", "severity", core.OpGT, "1", false},
		{"non-numeric operand", "bytes", core.OpGT, "lots", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree := singleComparison(tc.field, tc.op, tc.value)
			assert.Equal(t, tc.matched, m.Evaluate(tree, event).Matched)
		})
	}
}

func TestMatcher_BooleanCombinators(t *testing.T) {
	m := NewMatcher(DefaultBudget())
	event := eventWith(map[string]interface{}{
		"a": "1",
		"b": "2",
	})

	isA := &core.Comparison{Field: "a", Op: core.OpEquals, Value: "1"}
	notB := &core.Comparison{Field: "b", Op: core.OpEquals, Value: "other"}

	and := core.NewPredicateTree(&core.BooleanOp{Kind: core.BoolAND, Children: []core.PredicateNode{isA, notB}})
	assert.False(t, m.Evaluate(and, event).Matched)

	or := core.NewPredicateTree(&core.BooleanOp{Kind: core.BoolOR, Children: []core.PredicateNode{notB, isA}})
	assert.True(t, m.Evaluate(or, event).Matched)

	not := core.NewPredicateTree(&core.BooleanOp{Kind: core.BoolNOT, Children: []core.PredicateNode{notB}})
	assert.True(t, m.Evaluate(not, event).Matched)
}

func TestMatcher_NilInputs(t *testing.T) {
	m := NewMatcher(DefaultBudget())

	assert.False(t, m.Evaluate(nil, core.NewEvent(core.SourceSynthetic)).Matched)
	assert.False(t, m.Evaluate(singleComparison("a", core.OpEquals, "1"), nil).Matched)
}

func TestMatcher_RegexTimeoutIsNonMatch(t *testing.T) {
	m := NewMatcher(Budget{
		RegexTimeout:      5 * time.Millisecond,
		MaxPatternLength:  512,
		MaxFieldValueSize: 64 * 1024,
	})

	// Catastrophic backtracking: nested quantifier against a near-match.
	event := eventWith(map[string]interface{}{
		"payload": strings.Repeat("a", 64) + "b",
	})
	tree := singleComparison("payload", core.OpRegex, `^(a+)+$`)

	out := m.Evaluate(tree, event)
	assert.False(t, out.Matched)
	assert.Contains(t, out.Diagnostic, "regex timeout")
}

func TestMatcher_TruncatesOversizedFieldValue(t *testing.T) {
	m := NewMatcher(Budget{
		RegexTimeout:      100 * time.Millisecond,
		MaxPatternLength:  512,
		MaxFieldValueSize: 16,
	})
	event := eventWith(map[string]interface{}{
		"payload": strings.Repeat("x", 100) + "needle",
	})

	// The needle sits past the truncation point, so the match must miss.
	out := m.Evaluate(singleComparison("payload", core.OpRegex, "needle"), event)
	assert.False(t, out.Matched)
}

func TestValidatePattern(t *testing.T) {
	assert.NoError(t, ValidatePattern(`\w+\.exe$`, 512))
	assert.Error(t, ValidatePattern("", 512))
	assert.Error(t, ValidatePattern(strings.Repeat("a", 513), 512))
	assert.Error(t, ValidatePattern("[unclosed", 512))
}

func TestRegexCache_ReusesCompiledPattern(t *testing.T) {
	rc := newRegexCache()

	first, err := rc.get(`\d+`, 100*time.Millisecond)
	require.NoError(t, err)
	second, err := rc.get(`\d+`, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Same(t, first, second)

	// A different timeout takes a different cache slot.
	third, err := rc.get(`\d+`, 200*time.Millisecond)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}
