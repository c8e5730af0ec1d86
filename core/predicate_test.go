package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPredicateTree_Measures(t *testing.T) {
	tree := NewPredicateTree(&BooleanOp{
		Kind: BoolAND,
		Children: []PredicateNode{
			&Comparison{Field: "a", Op: OpEquals, Value: "1"},
			&BooleanOp{
				Kind: BoolNOT,
				Children: []PredicateNode{
					&Comparison{Field: "b", Op: OpContains, Value: "2"},
				},
			},
		},
	})

	assert.Equal(t, 3, tree.Depth)
	assert.Equal(t, 4, tree.NodeCount)
}

func TestPredicateTree_Validate_DepthBound(t *testing.T) {
	// Build a NOT chain deeper than the limit.
	var node PredicateNode = &Comparison{Field: "a", Op: OpEquals, Value: "1"}
	for i := 0; i < 30; i++ {
		node = &BooleanOp{Kind: BoolNOT, Children: []PredicateNode{node}}
	}
	tree := NewPredicateTree(node)

	err := tree.Validate(DefaultTreeLimits())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "depth")
}

func TestPredicateTree_Validate_NodeBound(t *testing.T) {
	children := make([]PredicateNode, 0, 250)
	for i := 0; i < 250; i++ {
		children = append(children, &Comparison{Field: "f", Op: OpEquals, Value: "v"})
	}
	tree := NewPredicateTree(&BooleanOp{Kind: BoolOR, Children: children})

	err := tree.Validate(DefaultTreeLimits())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nodes")
}

func TestPredicateTree_Validate_OversizedRegex(t *testing.T) {
	tree := NewPredicateTree(&Comparison{
		Field: "cmdline",
		Op:    OpRegex,
		Value: strings.Repeat("a", 600),
	})

	err := tree.Validate(DefaultTreeLimits())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regex pattern")
}

func TestPredicateTree_Validate_NotArity(t *testing.T) {
	tree := NewPredicateTree(&BooleanOp{
		Kind: BoolNOT,
		Children: []PredicateNode{
			&Comparison{Field: "a", Op: OpEquals, Value: "1"},
			&Comparison{Field: "b", Op: OpEquals, Value: "2"},
		},
	})

	err := tree.Validate(DefaultTreeLimits())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT")
}

func TestPredicateTree_Validate_NilRoot(t *testing.T) {
	tree := &PredicateTree{}
	assert.Error(t, tree.Validate(DefaultTreeLimits()))
}

func TestPredicateTree_Comparisons_Order(t *testing.T) {
	tree := NewPredicateTree(&BooleanOp{
		Kind: BoolAND,
		Children: []PredicateNode{
			&Comparison{Field: "first", Op: OpEquals, Value: "1"},
			&BooleanOp{
				Kind: BoolOR,
				Children: []PredicateNode{
					&Comparison{Field: "second", Op: OpEquals, Value: "2"},
					&Comparison{Field: "third", Op: OpEquals, Value: "3"},
				},
			},
		},
	})

	comparisons := tree.Comparisons()
	require.Len(t, comparisons, 3)
	assert.Equal(t, "first", comparisons[0].Field)
	assert.Equal(t, "second", comparisons[1].Field)
	assert.Equal(t, "third", comparisons[2].Field)
}

func TestRuleDefinition_Compile_Once(t *testing.T) {
	rule := NewRuleDefinition("r", PlatformGeneric, FormatGeneric, "x = 1")

	calls := 0
	parse := func(string) (*PredicateTree, error) {
		calls++
		return NewPredicateTree(&Comparison{Field: "x", Op: OpEquals, Value: "1"}), nil
	}

	first, err := rule.Compile(parse)
	require.NoError(t, err)
	second, err := rule.Compile(parse)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Same(t, first, rule.Tree())
}

func TestSchemaFor_UnknownPlatform(t *testing.T) {
	_, err := SchemaFor(PlatformID("splunk"))
	assert.Error(t, err)

	s, err := SchemaFor(PlatformSentinelOne)
	require.NoError(t, err)
	assert.Equal(t, "tgt.process.cmdline", s.CommandLineField)
}
