package parser

import (
	"ruleforge/core"
)

// condLogic is how a dialect combines its extracted comparisons.
type condLogic string

const (
	logicAND condLogic = "and"
	logicOR  condLogic = "or"
)

// extraction is the intermediate form every dialect parser produces before
// tree construction: positive comparisons plus exclusion comparisons.
type extraction struct {
	conditions []*core.Comparison
	// filters are exclusions: the rule matches only when none of them hit.
	filters []*core.Comparison
	logic   condLogic
}

// buildTree assembles the canonical tree from an extraction. The shape is
// always COMBINE(conditions...) AND NOT(OR(filters...)); a rule with a
// single bare comparison becomes an implicit single-child AND.
func buildTree(ex extraction, limits core.TreeLimits, platform core.PlatformID, format core.RuleFormat) (*core.PredicateTree, error) {
	if len(ex.conditions) == 0 {
		return nil, core.NewParseError(platform, format, "no recognizable conditions in rule text", "")
	}

	kind := core.BoolAND
	if ex.logic == logicOR {
		kind = core.BoolOR
	}
	children := make([]core.PredicateNode, 0, len(ex.conditions))
	for _, c := range ex.conditions {
		children = append(children, c)
	}
	var root core.PredicateNode = &core.BooleanOp{Kind: kind, Children: children}

	if len(ex.filters) > 0 {
		filterChildren := make([]core.PredicateNode, 0, len(ex.filters))
		for _, f := range ex.filters {
			filterChildren = append(filterChildren, f)
		}
		root = &core.BooleanOp{
			Kind: core.BoolAND,
			Children: []core.PredicateNode{
				root,
				&core.BooleanOp{
					Kind: core.BoolNOT,
					Children: []core.PredicateNode{
						&core.BooleanOp{Kind: core.BoolOR, Children: filterChildren},
					},
				},
			},
		}
	}

	tree := core.NewPredicateTree(root)
	if err := tree.Validate(limits); err != nil {
		return nil, core.NewParseError(platform, format, err.Error(), "")
	}
	return tree, nil
}
