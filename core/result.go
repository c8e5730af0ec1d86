package core

import "time"

// ScoreResult holds the quality metrics derived from one evaluation run.
// EvasionResistance is nil when the run contained no evasion-tagged events;
// consumers must branch on presence rather than assume a numeric default.
type ScoreResult struct {
	Precision         float64  `json:"precision"`
	Recall            float64  `json:"recall"`
	F1                float64  `json:"f1"`
	EvasionResistance *float64 `json:"evasion_resistance,omitempty"`
	CompositeScore    float64  `json:"composite_score"`
	Grade             string   `json:"grade"`
}

// Verdict is the matcher outcome for a single event.
type Verdict struct {
	EventID    string        `json:"event_id"`
	Matched    bool          `json:"matched"`
	Elapsed    time.Duration `json:"elapsed"`
	Diagnostic string        `json:"diagnostic,omitempty"`
}

// RunResult is the complete outcome of evaluating one rule against one
// event set. It is created once per run and read-only thereafter.
type RunResult struct {
	Rule   *RuleDefinition `json:"rule"`
	Matrix ConfusionMatrix `json:"matrix"`
	Score  ScoreResult     `json:"score"`
	// Verdicts preserves input event order so two runs over the same
	// event set diff reproducibly.
	Verdicts []Verdict `json:"per_event_verdicts"`
}

// ScoreDelta is a field-by-field diff between two score results. The
// evasion-resistance delta is nil when either side lacks the metric.
type ScoreDelta struct {
	Precision         float64  `json:"precision"`
	Recall            float64  `json:"recall"`
	F1                float64  `json:"f1"`
	EvasionResistance *float64 `json:"evasion_resistance,omitempty"`
	CompositeScore    float64  `json:"composite_score"`
	GradeFrom         string   `json:"grade_from"`
	GradeTo           string   `json:"grade_to"`
}

// ComparisonResult pairs a baseline and an improved run over the identical
// event sequence, plus their score delta.
type ComparisonResult struct {
	Baseline *RunResult `json:"baseline"`
	Improved *RunResult `json:"improved"`
	Delta    ScoreDelta `json:"delta"`
}
