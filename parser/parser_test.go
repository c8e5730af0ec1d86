package parser

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruleforge/core"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(core.DefaultTreeLimits())
}

func TestRegistry_Parse_EmptyText(t *testing.T) {
	r := testRegistry(t)

	_, err := r.Parse("   \n\t  ", core.PlatformGeneric, core.FormatGeneric)
	require.Error(t, err)

	var perr *core.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Reason, "empty")
}

func TestRegistry_Parse_UnknownPair(t *testing.T) {
	r := testRegistry(t)

	_, err := r.Parse("process = 'x'", core.PlatformOkta, core.FormatS1QL)
	require.Error(t, err)

	var perr *core.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Reason, "no parser registered")
}

func TestRegistry_Parse_Deterministic(t *testing.T) {
	r := testRegistry(t)
	text := `TgtProcName ContainsCIS "powershell.exe" AND TgtProcCmdLine ContainsCIS "-enc"`

	first, err := r.Parse(text, core.PlatformSentinelOne, core.FormatS1QL)
	require.NoError(t, err)
	second, err := r.Parse(text, core.PlatformSentinelOne, core.FormatS1QL)
	require.NoError(t, err)

	assert.True(t, reflect.DeepEqual(first, second),
		"parsing the same text twice must yield structurally identical trees")
}

func TestRegistry_Parse_RejectsInvalidRegex(t *testing.T) {
	r := testRegistry(t)
	text := `tgt.process.cmdline RegExp "[unclosed"`

	_, err := r.Parse(text, core.PlatformSentinelOne, core.FormatS1QL)
	require.Error(t, err)

	var perr *core.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestRegistry_Parse_RejectsOversizedPattern(t *testing.T) {
	limits := core.DefaultTreeLimits()
	limits.MaxPatternLength = 32
	r := NewRegistry(limits)
	text := `tgt.process.cmdline RegExp "` + strings.Repeat("a", 64) + `"`

	_, err := r.Parse(text, core.PlatformSentinelOne, core.FormatS1QL)
	require.Error(t, err)
}

func TestRegistry_Parse_AutoDetect(t *testing.T) {
	r := testRegistry(t)

	tests := []struct {
		name     string
		text     string
		platform core.PlatformID
		field    string
	}{
		{
			name:     "sigma shape",
			text:     "title: test\ndetection:\n  selection:\n    Image|endswith: '\\powershell.exe'\n  condition: selection",
			platform: core.PlatformGeneric,
			field:    "Image",
		},
		{
			name:     "s1ql shape",
			text:     `tgt.process.name ContainsCIS "mimikatz"`,
			platform: core.PlatformGeneric,
			field:    "tgt.process.name",
		},
		{
			name:     "kql shape",
			text:     `DeviceProcessEvents | where FileName has "rundll32"`,
			platform: core.PlatformGeneric,
			field:    "FileName",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree, err := r.Parse(tc.text, tc.platform, core.FormatAuto)
			require.NoError(t, err)
			comparisons := tree.Comparisons()
			require.NotEmpty(t, comparisons)
			assert.Equal(t, tc.field, comparisons[0].Field)
		})
	}
}

func TestRegistry_Parse_AutoFallsBackToGeneric(t *testing.T) {
	r := testRegistry(t)

	tree, err := r.Parse("severity: high alert=credential_theft", core.PlatformID("unregistered"), core.FormatAuto)
	require.NoError(t, err)
	assert.NotEmpty(t, tree.Comparisons())
}

func TestRegistry_Compile_CachesParseError(t *testing.T) {
	r := testRegistry(t)
	rule := core.NewRuleDefinition("broken", core.PlatformSigma, core.FormatSigma, "detection: 7")

	_, first := r.Compile(rule)
	require.Error(t, first)
	_, second := r.Compile(rule)
	assert.Same(t, first.(*core.ParseError), second.(*core.ParseError))
}

func TestGenericParser_CapsConditions(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 30; i++ {
		sb.WriteString("field")
		sb.WriteByte(byte('a' + i%26))
		sb.WriteString("=value")
		sb.WriteByte(byte('a' + i%26))
		sb.WriteString(" ")
	}

	p := &genericParser{limits: core.DefaultTreeLimits()}
	tree, err := p.Parse(sb.String())
	require.NoError(t, err)
	assert.LessOrEqual(t, len(tree.Comparisons()), genericMaxConditions)
}

func TestGenericParser_SkipsKeywords(t *testing.T) {
	p := &genericParser{limits: core.DefaultTreeLimits()}

	tree, err := p.Parse("where=clause user=admin and=this")
	require.NoError(t, err)

	for _, c := range tree.Comparisons() {
		assert.NotEqual(t, "where", c.Field)
		assert.NotEqual(t, "and", c.Field)
	}
}

func TestGenericParser_NoConditions(t *testing.T) {
	p := &genericParser{limits: core.DefaultTreeLimits()}

	_, err := p.Parse("just a sentence with no pairs whatsoever")
	require.Error(t, err)

	var perr *core.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Reason, "no recognizable conditions")
}
