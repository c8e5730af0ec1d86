package runner

import (
	"context"

	"ruleforge/core"
)

// Compare runs a baseline and an improved rule against the identical event
// sequence and diffs their scores. Both runs see the same ordering and
// tags, so deltas are attributable to rule changes alone.
func (r *Runner) Compare(ctx context.Context, baseline, improved *core.RuleDefinition, events []*core.Event) (*core.ComparisonResult, error) {
	baseRun, err := r.Run(ctx, baseline, events)
	if err != nil {
		return nil, err
	}
	improvedRun, err := r.Run(ctx, improved, events)
	if err != nil {
		return nil, err
	}
	return &core.ComparisonResult{
		Baseline: baseRun,
		Improved: improvedRun,
		Delta:    diffScores(baseRun.Score, improvedRun.Score),
	}, nil
}

// diffScores is a field-by-field diff. A metric absent on either side
// propagates as absent in the delta rather than defaulting to zero.
func diffScores(baseline, improved core.ScoreResult) core.ScoreDelta {
	delta := core.ScoreDelta{
		Precision:      improved.Precision - baseline.Precision,
		Recall:         improved.Recall - baseline.Recall,
		F1:             improved.F1 - baseline.F1,
		CompositeScore: improved.CompositeScore - baseline.CompositeScore,
		GradeFrom:      baseline.Grade,
		GradeTo:        improved.Grade,
	}
	if baseline.EvasionResistance != nil && improved.EvasionResistance != nil {
		d := *improved.EvasionResistance - *baseline.EvasionResistance
		delta.EvasionResistance = &d
	}
	return delta
}
