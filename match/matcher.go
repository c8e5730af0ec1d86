// Package match evaluates canonical predicate trees against events under an
// execution budget. Evaluation has no side effects and never panics on
// malformed input: a comparison that cannot be evaluated is false with a
// diagnostic, and the run continues.
package match

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"ruleforge/core"
	"ruleforge/metrics"
)

// Budget bounds a single tree-versus-event evaluation.
type Budget struct {
	// RegexTimeout is the wall-clock cap per regex comparison.
	RegexTimeout time.Duration
	// MaxPatternLength is the regex length cap, enforced at parse time and
	// double-checked here.
	MaxPatternLength int
	// MaxFieldValueSize caps the bytes of a field value fed to a regex.
	MaxFieldValueSize int
}

// DefaultBudget returns the budget applied when none is configured.
func DefaultBudget() Budget {
	return Budget{
		RegexTimeout:      100 * time.Millisecond,
		MaxPatternLength:  512,
		MaxFieldValueSize: 64 * 1024,
	}
}

// Outcome is the result of evaluating one tree against one event.
type Outcome struct {
	Matched bool
	// Diagnostic carries soft-failure context (regex timeout, compile
	// failure) without aborting the evaluation.
	Diagnostic string
}

// Matcher evaluates predicate trees. A Matcher is safe for concurrent use:
// it reads only its own budget and the shared compiled-pattern cache.
type Matcher struct {
	budget Budget
	regex  *regexCache
}

// NewMatcher creates a matcher with the given budget.
func NewMatcher(budget Budget) *Matcher {
	if budget.RegexTimeout <= 0 {
		budget.RegexTimeout = DefaultBudget().RegexTimeout
	}
	if budget.MaxPatternLength <= 0 {
		budget.MaxPatternLength = DefaultBudget().MaxPatternLength
	}
	if budget.MaxFieldValueSize <= 0 {
		budget.MaxFieldValueSize = DefaultBudget().MaxFieldValueSize
	}
	return &Matcher{budget: budget, regex: newRegexCache()}
}

// Evaluate walks the tree against the event. AND and OR short-circuit; NOT
// negates its single child. A nil tree never matches.
func (m *Matcher) Evaluate(tree *core.PredicateTree, event *core.Event) Outcome {
	if tree == nil || tree.Root == nil || event == nil {
		return Outcome{Matched: false, Diagnostic: "nothing to evaluate"}
	}
	var diags []string
	matched := m.evalNode(tree.Root, event, &diags)
	return Outcome{Matched: matched, Diagnostic: strings.Join(diags, "; ")}
}

func (m *Matcher) evalNode(n core.PredicateNode, event *core.Event, diags *[]string) bool {
	switch v := n.(type) {
	case *core.Comparison:
		return m.evalComparison(v, event, diags)
	case *core.BooleanOp:
		switch v.Kind {
		case core.BoolAND:
			for _, c := range v.Children {
				if !m.evalNode(c, event, diags) {
					return false
				}
			}
			return len(v.Children) > 0
		case core.BoolOR:
			for _, c := range v.Children {
				if m.evalNode(c, event, diags) {
					return true
				}
			}
			return false
		case core.BoolNOT:
			if len(v.Children) != 1 {
				*diags = append(*diags, fmt.Sprintf("NOT node with %d children", len(v.Children)))
				return false
			}
			return !m.evalNode(v.Children[0], event, diags)
		}
	}
	return false
}

func (m *Matcher) evalComparison(c *core.Comparison, event *core.Event, diags *[]string) bool {
	raw, present := event.Field(c.Field)

	if c.Op == core.OpExists {
		return present
	}
	// Any other operator on a missing field is false, never a crash.
	if !present {
		return false
	}

	actual := toString(raw)

	switch c.Op {
	case core.OpEquals:
		return strings.EqualFold(actual, c.Value)
	case core.OpContains:
		return strings.Contains(strings.ToLower(actual), strings.ToLower(c.Value))
	case core.OpStartsWith:
		return strings.HasPrefix(strings.ToLower(actual), strings.ToLower(c.Value))
	case core.OpEndsWith:
		return strings.HasSuffix(strings.ToLower(actual), strings.ToLower(c.Value))
	case core.OpInSet:
		for _, v := range c.Values {
			if strings.EqualFold(actual, v) {
				return true
			}
		}
		return false
	case core.OpRegex:
		return m.evalRegex(c, actual, diags)
	case core.OpGT, core.OpGTE, core.OpLT, core.OpLTE:
		return evalNumeric(c.Op, raw, c.Value)
	default:
		*diags = append(*diags, fmt.Sprintf("unknown operator %q on field %q", c.Op, c.Field))
		return false
	}
}

func (m *Matcher) evalRegex(c *core.Comparison, actual string, diags *[]string) bool {
	if len(c.Value) > m.budget.MaxPatternLength {
		*diags = append(*diags, fmt.Sprintf("regex pattern on %q exceeds length budget", c.Field))
		return false
	}
	if len(actual) > m.budget.MaxFieldValueSize {
		actual = actual[:m.budget.MaxFieldValueSize]
	}
	matched, err := m.regex.matchString(c.Value, actual, m.budget.RegexTimeout)
	if err != nil {
		if err == ErrRegexTimeout {
			metrics.RegexTimeouts.Inc()
			*diags = append(*diags, fmt.Sprintf("regex timeout on field %q after %v", c.Field, m.budget.RegexTimeout))
		} else {
			*diags = append(*diags, fmt.Sprintf("regex failure on field %q: %v", c.Field, err))
		}
		return false
	}
	return matched
}

// evalNumeric coerces both sides to float64. Non-numeric values on either
// side are false rather than an error, so missing or garbage numeric
// fields never produce spurious matches.
func evalNumeric(op core.Operator, raw interface{}, operand string) bool {
	a, ok := toFloat64(raw)
	if !ok {
		return false
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(operand), 64)
	if err != nil {
		return false
	}
	switch op {
	case core.OpGT:
		return a > b
	case core.OpGTE:
		return a >= b
	case core.OpLT:
		return a < b
	case core.OpLTE:
		return a <= b
	}
	return false
}

// toString renders a field value for string comparison.
func toString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprint(val)
	}
}

// toFloat64 coerces numeric-ish field values for range comparisons.
func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
