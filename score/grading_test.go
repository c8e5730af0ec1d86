package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruleforge/core"
)

func TestEngine_Score_PerfectRule(t *testing.T) {
	e := NewEngine(DefaultWeights(), DefaultGradeThresholds())
	matrix := core.ConfusionMatrix{TruePositive: 10, TrueNegative: 15}
	evasion := &core.ConfusionMatrix{TruePositive: 5}

	result := e.Score(matrix, evasion)

	assert.Equal(t, 1.0, result.Precision)
	assert.Equal(t, 1.0, result.Recall)
	assert.Equal(t, 1.0, result.F1)
	require.NotNil(t, result.EvasionResistance)
	assert.Equal(t, 1.0, *result.EvasionResistance)
	assert.Equal(t, 1.0, result.CompositeScore)
	assert.Equal(t, "A", result.Grade)
}

func TestEngine_Score_NoMatchesAtAll(t *testing.T) {
	e := NewEngine(DefaultWeights(), DefaultGradeThresholds())
	matrix := core.ConfusionMatrix{FalseNegative: 10, TrueNegative: 15}

	result := e.Score(matrix, nil)

	// 0/0 divisions are 0, never NaN.
	assert.Equal(t, 0.0, result.Precision)
	assert.Equal(t, 0.0, result.Recall)
	assert.Equal(t, 0.0, result.F1)
	assert.Equal(t, 0.0, result.CompositeScore)
	assert.Equal(t, "F", result.Grade)
	assert.Nil(t, result.EvasionResistance)
}

func TestEngine_Score_EmptyMatrix(t *testing.T) {
	e := NewEngine(DefaultWeights(), DefaultGradeThresholds())

	result := e.Score(core.ConfusionMatrix{}, nil)

	assert.Equal(t, 0.0, result.Precision)
	assert.Equal(t, 0.0, result.Recall)
	assert.Equal(t, 0.0, result.F1)
	assert.Equal(t, "F", result.Grade)
}

func TestEngine_Score_MixedMatrix(t *testing.T) {
	e := NewEngine(DefaultWeights(), DefaultGradeThresholds())
	// precision 8/10, recall 8/12
	matrix := core.ConfusionMatrix{
		TruePositive:  8,
		FalsePositive: 2,
		TrueNegative:  20,
		FalseNegative: 4,
	}

	result := e.Score(matrix, nil)

	assert.InDelta(t, 0.8, result.Precision, 1e-9)
	assert.InDelta(t, 8.0/12.0, result.Recall, 1e-9)

	f1 := 2 * result.Precision * result.Recall / (result.Precision + result.Recall)
	assert.InDelta(t, f1, result.F1, 1e-9)
	assert.GreaterOrEqual(t, result.CompositeScore, 0.0)
	assert.LessOrEqual(t, result.CompositeScore, 1.0)
}

func TestEngine_Score_EvasionAbsentWhenSubsetEmpty(t *testing.T) {
	e := NewEngine(DefaultWeights(), DefaultGradeThresholds())
	matrix := core.ConfusionMatrix{TruePositive: 5, TrueNegative: 5}

	assert.Nil(t, e.Score(matrix, nil).EvasionResistance)
	assert.Nil(t, e.Score(matrix, &core.ConfusionMatrix{}).EvasionResistance)
}

func TestEngine_Score_EvasionRenormalization(t *testing.T) {
	e := NewEngine(DefaultWeights(), DefaultGradeThresholds())
	// Perfect base matrix; evasion resistance only catches half.
	matrix := core.ConfusionMatrix{TruePositive: 10, TrueNegative: 10}
	evasion := &core.ConfusionMatrix{TruePositive: 2, FalseNegative: 2}

	withEvasion := e.Score(matrix, evasion)
	withoutEvasion := e.Score(matrix, nil)

	require.NotNil(t, withEvasion.EvasionResistance)
	assert.InDelta(t, 0.5, *withEvasion.EvasionResistance, 1e-9)

	// With evasion present the weighted 0.5 pulls the composite down.
	assert.InDelta(t, 0.85, withEvasion.CompositeScore, 1e-9)
	// Absent evasion renormalizes to the perfect remaining metrics.
	assert.InDelta(t, 1.0, withoutEvasion.CompositeScore, 1e-9)
}

func TestEngine_Grade_Boundaries(t *testing.T) {
	e := NewEngine(DefaultWeights(), DefaultGradeThresholds())

	tests := []struct {
		composite float64
		grade     string
	}{
		{1.0, "A"},
		{0.9, "A"},
		{0.8999, "B"},
		{0.8, "B"},
		{0.7, "C"},
		{0.6, "D"},
		{0.5999, "F"},
		{0.0, "F"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.grade, e.Grade(tc.composite), "composite %.4f", tc.composite)
	}
}

func TestEngine_CustomThresholds(t *testing.T) {
	e := NewEngine(DefaultWeights(), GradeThresholds{"A": 0.95, "B": 0.5})

	assert.Equal(t, "A", e.Grade(0.96))
	assert.Equal(t, "B", e.Grade(0.7))
	assert.Equal(t, "F", e.Grade(0.4))
}

func TestNewEngine_Defaults(t *testing.T) {
	e := NewEngine(Weights{}, nil)

	result := e.Score(core.ConfusionMatrix{TruePositive: 1}, nil)
	assert.Equal(t, "A", result.Grade)
}

func TestEngine_CompositeStaysInUnitRange(t *testing.T) {
	// Weights that do not sum to one still yield a composite in [0,1].
	e := NewEngine(Weights{Precision: 3, Recall: 2, F1: 5, Evasion: 4}, DefaultGradeThresholds())
	matrix := core.ConfusionMatrix{TruePositive: 9, FalsePositive: 1, FalseNegative: 1, TrueNegative: 9}
	evasion := &core.ConfusionMatrix{TruePositive: 1, FalseNegative: 3}

	result := e.Score(matrix, evasion)
	assert.GreaterOrEqual(t, result.CompositeScore, 0.0)
	assert.LessOrEqual(t, result.CompositeScore, 1.0)
}
