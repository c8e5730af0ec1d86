package core

import "fmt"

// Operator is a comparison operator in a predicate tree.
type Operator string

const (
	OpEquals     Operator = "equals"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "startswith"
	OpEndsWith   Operator = "endswith"
	OpRegex      Operator = "regex_match"
	OpGT         Operator = "gt"
	OpGTE        Operator = "gte"
	OpLT         Operator = "lt"
	OpLTE        Operator = "lte"
	OpInSet      Operator = "in_set"
	OpExists     Operator = "exists"
)

// BoolKind is the kind of a boolean combinator node.
type BoolKind string

const (
	BoolAND BoolKind = "and"
	BoolOR  BoolKind = "or"
	BoolNOT BoolKind = "not"
)

// PredicateNode is one node of a canonical predicate tree. It is either a
// Comparison leaf or a BooleanOp over child nodes.
type PredicateNode interface {
	node()
}

// Comparison is a single field comparison leaf.
type Comparison struct {
	Field string
	Op    Operator
	// Value is the comparison operand for scalar operators.
	Value string
	// Values holds the operand set for OpInSet.
	Values []string
}

func (*Comparison) node() {}

// BooleanOp combines child predicates with AND, OR or NOT.
// A NOT node has exactly one child.
type BooleanOp struct {
	Kind     BoolKind
	Children []PredicateNode
}

func (*BooleanOp) node() {}

// TreeLimits bounds the shape of an accepted predicate tree. Pathological
// rules are rejected at parse time, before any event is evaluated.
type TreeLimits struct {
	MaxDepth         int
	MaxNodes         int
	MaxPatternLength int
}

// DefaultTreeLimits returns the limits applied when none are configured.
func DefaultTreeLimits() TreeLimits {
	return TreeLimits{
		MaxDepth:         25,
		MaxNodes:         200,
		MaxPatternLength: 512,
	}
}

// PredicateTree is the canonical matcher representation of a parsed rule,
// independent of the source rule syntax.
type PredicateTree struct {
	Root      PredicateNode
	Depth     int
	NodeCount int
}

// NewPredicateTree builds a tree from a root node, computing and recording
// its depth and node count.
func NewPredicateTree(root PredicateNode) *PredicateTree {
	t := &PredicateTree{Root: root}
	t.Depth, t.NodeCount = measure(root)
	return t
}

// Validate checks the tree against limits. Regex operand length is checked
// here so oversized patterns fail at parse time rather than at match time.
func (t *PredicateTree) Validate(limits TreeLimits) error {
	if t == nil || t.Root == nil {
		return fmt.Errorf("predicate tree has no root")
	}
	if t.Depth > limits.MaxDepth {
		return fmt.Errorf("predicate tree depth %d exceeds maximum %d", t.Depth, limits.MaxDepth)
	}
	if t.NodeCount > limits.MaxNodes {
		return fmt.Errorf("predicate tree has %d nodes, maximum is %d", t.NodeCount, limits.MaxNodes)
	}
	return walk(t.Root, func(n PredicateNode) error {
		switch v := n.(type) {
		case *Comparison:
			if v.Op == OpRegex && len(v.Value) > limits.MaxPatternLength {
				return fmt.Errorf("regex pattern for field %q is %d bytes, maximum is %d",
					v.Field, len(v.Value), limits.MaxPatternLength)
			}
		case *BooleanOp:
			if v.Kind == BoolNOT && len(v.Children) != 1 {
				return fmt.Errorf("NOT node must have exactly one child, has %d", len(v.Children))
			}
			if len(v.Children) == 0 {
				return fmt.Errorf("%s node has no children", v.Kind)
			}
		}
		return nil
	})
}

// Comparisons returns all comparison leaves in evaluation order.
func (t *PredicateTree) Comparisons() []*Comparison {
	var out []*Comparison
	_ = walk(t.Root, func(n PredicateNode) error {
		if c, ok := n.(*Comparison); ok {
			out = append(out, c)
		}
		return nil
	})
	return out
}

func measure(n PredicateNode) (depth, count int) {
	switch v := n.(type) {
	case *Comparison:
		return 1, 1
	case *BooleanOp:
		maxChild := 0
		count = 1
		for _, c := range v.Children {
			d, cnt := measure(c)
			if d > maxChild {
				maxChild = d
			}
			count += cnt
		}
		return maxChild + 1, count
	default:
		return 0, 0
	}
}

func walk(n PredicateNode, fn func(PredicateNode) error) error {
	if n == nil {
		return nil
	}
	if err := fn(n); err != nil {
		return err
	}
	if op, ok := n.(*BooleanOp); ok {
		for _, c := range op.Children {
			if err := walk(c, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
