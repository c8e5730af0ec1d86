// Package runner drives the matcher across a full event set, partitions
// outcomes into a confusion matrix, and scores the result. Each Run call is
// self-contained: no state is shared across runs, which keeps results
// reproducible and safe to parallelize across unrelated rules.
package runner

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"ruleforge/core"
	"ruleforge/match"
	"ruleforge/metrics"
	"ruleforge/parser"
	"ruleforge/score"
)

// Runner evaluates rules against event sets.
type Runner struct {
	registry *parser.Registry
	matcher  *match.Matcher
	scorer   *score.Engine
	workers  int
	logger   *zap.SugaredLogger
}

// Options configures a Runner. Zero values fall back to defaults.
type Options struct {
	Limits  core.TreeLimits
	Budget  match.Budget
	Weights score.Weights
	Grades  score.GradeThresholds
	// Workers is the evaluation pool size; defaults to GOMAXPROCS.
	Workers int
	Logger  *zap.SugaredLogger
}

// New creates a Runner.
func New(opts Options) *Runner {
	if opts.Limits == (core.TreeLimits{}) {
		opts.Limits = core.DefaultTreeLimits()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Runner{
		registry: parser.NewRegistry(opts.Limits),
		matcher:  match.NewMatcher(opts.Budget),
		scorer:   score.NewEngine(opts.Weights, opts.Grades),
		workers:  opts.Workers,
		logger:   opts.Logger,
	}
}

// Registry exposes the runner's parser registry, mainly so callers can
// pre-compile rules and surface parse errors early.
func (r *Runner) Registry() *parser.Registry {
	return r.registry
}

// Run evaluates one rule against the full event set. A parse failure
// short-circuits the run and returns the *core.ParseError; no partial
// matrix is produced. Verdict order always equals input event order.
func (r *Runner) Run(ctx context.Context, rule *core.RuleDefinition, events []*core.Event) (*core.RunResult, error) {
	tree, err := r.registry.Compile(rule)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	verdicts := make([]core.Verdict, len(events))

	// Independent (tree, event) pairs are embarrassingly parallel. Each
	// worker accumulates a partial matrix; verdicts are written into a
	// preallocated slice by index, so no ordering or locking is needed.
	partials := make([]core.ConfusionMatrix, r.workers)
	evasionPartials := make([]core.ConfusionMatrix, r.workers)

	indexCh := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := range indexCh {
				ev := events[i]
				evStart := time.Now()
				outcome := r.matcher.Evaluate(tree, ev)
				verdicts[i] = core.Verdict{
					EventID:    ev.EventID,
					Matched:    outcome.Matched,
					Elapsed:    time.Since(evStart),
					Diagnostic: outcome.Diagnostic,
				}
				partials[worker].Record(outcome.Matched, ev.IsMalicious)
				if ev.IsEvasion {
					evasionPartials[worker].Record(outcome.Matched, ev.IsMalicious)
				}
				if outcome.Matched {
					metrics.RuleEvaluations.WithLabelValues("match").Inc()
				} else {
					metrics.RuleEvaluations.WithLabelValues("no_match").Inc()
				}
			}
		}(w)
	}

feed:
	for i := range events {
		select {
		case <-ctx.Done():
			break feed
		case indexCh <- i:
		}
	}
	close(indexCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var matrix, evasionMatrix core.ConfusionMatrix
	for w := 0; w < r.workers; w++ {
		matrix.Merge(partials[w])
		evasionMatrix.Merge(evasionPartials[w])
	}

	var evasionSubset *core.ConfusionMatrix
	if !evasionMatrix.IsEmpty() {
		evasionSubset = &evasionMatrix
	}

	elapsed := time.Since(start)
	metrics.EvaluationDuration.Observe(elapsed.Seconds())
	r.logger.Debugw("evaluation complete",
		"rule", rule.Name,
		"events", len(events),
		"matrix", matrix,
		"elapsed", elapsed,
	)

	return &core.RunResult{
		Rule:     rule,
		Matrix:   matrix,
		Score:    r.scorer.Score(matrix, evasionSubset),
		Verdicts: verdicts,
	}, nil
}
