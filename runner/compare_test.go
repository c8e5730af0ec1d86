package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruleforge/core"
)

func TestRunner_Compare_ImprovedRecall(t *testing.T) {
	r := testRunner(2)

	baseline := core.NewRuleDefinition("narrow", core.PlatformSentinelOne, core.FormatS1QL,
		`tgt.process.cmdline ContainsCIS "-EncodedCommand"`)
	improved := core.NewRuleDefinition("wide", core.PlatformSentinelOne, core.FormatS1QL,
		`tgt.process.cmdline ContainsCIS "-enc"`)

	events := []*core.Event{
		makeEvent("E-1", true, false, map[string]interface{}{"tgt.process.cmdline": "powershell.exe -EncodedCommand SQBFAFgA"}),
		makeEvent("E-2", true, false, map[string]interface{}{"tgt.process.cmdline": "powershell.exe -enc SQBFAFgA"}),
		makeEvent("E-3", false, false, map[string]interface{}{"tgt.process.cmdline": "calc.exe"}),
	}

	comparison, err := r.Compare(context.Background(), baseline, improved, events)
	require.NoError(t, err)

	// Baseline catches only the long flag; the improved rule catches both.
	assert.Equal(t, core.ConfusionMatrix{TruePositive: 1, FalseNegative: 1, TrueNegative: 1}, comparison.Baseline.Matrix)
	assert.Equal(t, core.ConfusionMatrix{TruePositive: 2, TrueNegative: 1}, comparison.Improved.Matrix)

	assert.InDelta(t, 0.5, comparison.Delta.Recall, 1e-9)
	assert.Equal(t, 0.0, comparison.Delta.Precision)
	assert.Greater(t, comparison.Delta.CompositeScore, 0.0)
	assert.Equal(t, comparison.Baseline.Score.Grade, comparison.Delta.GradeFrom)
	assert.Equal(t, comparison.Improved.Score.Grade, comparison.Delta.GradeTo)
}

func TestRunner_Compare_EvasionDeltaAbsentWithoutTaggedEvents(t *testing.T) {
	r := testRunner(2)

	baseline := core.NewRuleDefinition("base", core.PlatformSentinelOne, core.FormatS1QL,
		`tgt.process.name ContainsCIS "powershell"`)
	improved := core.NewRuleDefinition("next", core.PlatformSentinelOne, core.FormatS1QL,
		`tgt.process.name ContainsCIS "power"`)

	events := []*core.Event{
		makeEvent("E-1", true, false, map[string]interface{}{"tgt.process.name": "powershell.exe"}),
		makeEvent("E-2", false, false, map[string]interface{}{"tgt.process.name": "outlook.exe"}),
	}

	comparison, err := r.Compare(context.Background(), baseline, improved, events)
	require.NoError(t, err)
	assert.Nil(t, comparison.Delta.EvasionResistance)
}

func TestRunner_Compare_EvasionDelta(t *testing.T) {
	r := testRunner(2)

	baseline := core.NewRuleDefinition("exact", core.PlatformSentinelOne, core.FormatS1QL,
		`tgt.process.name = "powershell.exe"`)
	improved := core.NewRuleDefinition("loose", core.PlatformSentinelOne, core.FormatS1QL,
		`tgt.process.name ContainsCIS "powershell"`)

	events := []*core.Event{
		makeEvent("E-1", true, false, map[string]interface{}{"tgt.process.name": "powershell.exe"}),
		// Path-prefixed launch defeats exact equality but not contains.
		makeEvent("E-2", true, true, map[string]interface{}{"tgt.process.name": `C:\Windows\SysWOW64\powershell.exe`}),
		makeEvent("E-3", false, false, map[string]interface{}{"tgt.process.name": "winword.exe"}),
	}

	comparison, err := r.Compare(context.Background(), baseline, improved, events)
	require.NoError(t, err)

	require.NotNil(t, comparison.Baseline.Score.EvasionResistance)
	assert.Equal(t, 0.0, *comparison.Baseline.Score.EvasionResistance)
	require.NotNil(t, comparison.Improved.Score.EvasionResistance)
	assert.Equal(t, 1.0, *comparison.Improved.Score.EvasionResistance)

	require.NotNil(t, comparison.Delta.EvasionResistance)
	assert.InDelta(t, 1.0, *comparison.Delta.EvasionResistance, 1e-9)
}

func TestRunner_Compare_ParseErrorPropagates(t *testing.T) {
	r := testRunner(1)

	good := core.NewRuleDefinition("good", core.PlatformSentinelOne, core.FormatS1QL,
		`tgt.process.name ContainsCIS "powershell"`)
	bad := core.NewRuleDefinition("bad", core.PlatformSigma, core.FormatSigma, "detection: [oops")

	events := []*core.Event{makeEvent("E-1", false, false, nil)}

	_, err := r.Compare(context.Background(), good, bad, events)
	require.Error(t, err)

	var perr *core.ParseError
	assert.ErrorAs(t, err, &perr)
}
