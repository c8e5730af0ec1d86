// Package score derives quality metrics and a letter grade from a
// confusion matrix. Weights and grade thresholds are configuration, not
// constants, so scoring policy can be tuned without code change.
package score

import (
	"sort"

	"ruleforge/core"
)

// Weights is the composite-score weighting over the individual metrics.
// When evasion resistance is absent its weight is redistributed across the
// remaining metrics, keeping the composite in [0,1].
type Weights struct {
	Precision float64 `mapstructure:"precision"`
	Recall    float64 `mapstructure:"recall"`
	F1        float64 `mapstructure:"f1"`
	Evasion   float64 `mapstructure:"evasion"`
}

// DefaultWeights returns the stock scoring policy.
func DefaultWeights() Weights {
	return Weights{
		Precision: 0.2,
		Recall:    0.1,
		F1:        0.4,
		Evasion:   0.3,
	}
}

// GradeThresholds maps letter grades to the minimum composite score that
// earns them. Grades below the lowest threshold are F.
type GradeThresholds map[string]float64

// DefaultGradeThresholds returns the stock grade boundaries.
func DefaultGradeThresholds() GradeThresholds {
	return GradeThresholds{
		"A": 0.9,
		"B": 0.8,
		"C": 0.7,
		"D": 0.6,
	}
}

// Engine computes score results under one scoring policy.
type Engine struct {
	weights    Weights
	thresholds GradeThresholds
}

// NewEngine creates a scoring engine. Zero-valued weights or empty
// thresholds fall back to the defaults.
func NewEngine(weights Weights, thresholds GradeThresholds) *Engine {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	if len(thresholds) == 0 {
		thresholds = DefaultGradeThresholds()
	}
	return &Engine{weights: weights, thresholds: thresholds}
}

// Score derives precision, recall, F1, optional evasion resistance, the
// composite score and the letter grade. evasionSubset restricts the matrix
// to evasion-tagged events; pass nil (or an empty matrix) when the run had
// none, and the evasion metric stays absent rather than defaulting to 0.
func (e *Engine) Score(matrix core.ConfusionMatrix, evasionSubset *core.ConfusionMatrix) core.ScoreResult {
	precision := ratio(matrix.TruePositive, matrix.TruePositive+matrix.FalsePositive)
	recall := ratio(matrix.TruePositive, matrix.TruePositive+matrix.FalseNegative)

	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	var evasion *float64
	if evasionSubset != nil && !evasionSubset.IsEmpty() {
		er := ratio(evasionSubset.TruePositive, evasionSubset.TruePositive+evasionSubset.FalseNegative)
		evasion = &er
	}

	composite := e.composite(precision, recall, f1, evasion)

	return core.ScoreResult{
		Precision:         precision,
		Recall:            recall,
		F1:                f1,
		EvasionResistance: evasion,
		CompositeScore:    composite,
		Grade:             e.Grade(composite),
	}
}

// composite is the renormalized weighted sum. With evasion absent the
// evasion weight is zero and the remaining weights are scaled so they
// still sum to one.
func (e *Engine) composite(precision, recall, f1 float64, evasion *float64) float64 {
	w := e.weights
	total := w.Precision + w.Recall + w.F1
	sum := w.Precision*precision + w.Recall*recall + w.F1*f1
	if evasion != nil {
		total += w.Evasion
		sum += w.Evasion * (*evasion)
	}
	if total <= 0 {
		return 0
	}
	return clamp01(sum / total)
}

// Grade maps a composite score onto the highest letter whose threshold it
// meets, falling through to F.
func (e *Engine) Grade(composite float64) string {
	// Iterate thresholds from highest to lowest so overlapping
	// configurations resolve deterministically.
	type band struct {
		letter string
		min    float64
	}
	bands := make([]band, 0, len(e.thresholds))
	for letter, min := range e.thresholds {
		bands = append(bands, band{letter, min})
	}
	sort.Slice(bands, func(i, j int) bool {
		if bands[i].min != bands[j].min {
			return bands[i].min > bands[j].min
		}
		return bands[i].letter < bands[j].letter
	})
	for _, b := range bands {
		if composite >= b.min {
			return b.letter
		}
	}
	return "F"
}

// ratio is a safe division: 0/0 is 0, never NaN.
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
