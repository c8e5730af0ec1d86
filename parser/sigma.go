package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"ruleforge/core"
)

// sigmaOpMap translates Sigma field modifiers to canonical operators.
// Modifiers that only transform encodings degrade to a contains check, the
// same approximation the validation engine has always used for them.
var sigmaOpMap = map[string]core.Operator{
	"":                      core.OpEquals,
	"contains":              core.OpContains,
	"startswith":            core.OpStartsWith,
	"endswith":              core.OpEndsWith,
	"re":                    core.OpRegex,
	"cidr":                  core.OpContains,
	"gt":                    core.OpGT,
	"gte":                   core.OpGTE,
	"lt":                    core.OpLT,
	"lte":                   core.OpLTE,
	"base64offset|contains": core.OpContains,
	"windash":               core.OpContains,
	"wide":                  core.OpContains,
}

var (
	sigmaNotRe = regexp.MustCompile(`(?i)\bnot\b`)
	sigmaOrRe  = regexp.MustCompile(`(?i)\bor\b`)
)

// sigmaParser handles Sigma YAML rules. Detection blocks become AND groups
// of field comparisons; filter-prefixed blocks become exclusions. The
// condition expression is reduced to its AND/OR/NOT-filter shape.
type sigmaParser struct {
	limits core.TreeLimits
}

func (p *sigmaParser) Format() core.RuleFormat { return core.FormatSigma }

func (p *sigmaParser) Parse(text string) (*core.PredicateTree, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, core.NewParseError(core.PlatformSigma, core.FormatSigma,
			"invalid YAML: "+err.Error(), firstLine(text))
	}
	if doc == nil {
		return nil, core.NewParseError(core.PlatformSigma, core.FormatSigma,
			"YAML document is not a mapping", firstLine(text))
	}

	det, ok := doc["detection"].(map[string]interface{})
	if !ok {
		return nil, core.NewParseError(core.PlatformSigma, core.FormatSigma,
			"rule has no detection mapping", firstLine(text))
	}
	condStr := "selection"
	if c, ok := det["condition"]; ok {
		condStr = fmt.Sprint(c)
	}

	// Iterate blocks in sorted key order so parsing stays deterministic
	// regardless of YAML map iteration order.
	keys := make([]string, 0, len(det))
	for k := range det {
		if k != "condition" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var selections, filters []core.PredicateNode
	for _, key := range keys {
		node, err := p.parseBlock(key, det[key])
		if err != nil {
			return nil, err
		}
		if node == nil {
			continue
		}
		if strings.HasPrefix(key, "filter") {
			filters = append(filters, node)
		} else {
			selections = append(selections, node)
		}
	}
	if len(selections) == 0 {
		return nil, core.NewParseError(core.PlatformSigma, core.FormatSigma,
			"detection contains no selection blocks", condStr)
	}

	kind := core.BoolAND
	if sigmaOrRe.MatchString(condStr) {
		kind = core.BoolOR
	}
	var root core.PredicateNode = &core.BooleanOp{Kind: kind, Children: selections}

	if sigmaNotRe.MatchString(condStr) && len(filters) == 0 {
		// The condition excludes something the block walk did not extract;
		// guessing here would silently drop the exclusion.
		return nil, core.NewParseError(core.PlatformSigma, core.FormatSigma,
			"condition references NOT but no filter blocks were found", condStr)
	}
	if len(filters) > 0 {
		root = &core.BooleanOp{
			Kind: core.BoolAND,
			Children: []core.PredicateNode{
				root,
				&core.BooleanOp{
					Kind: core.BoolNOT,
					Children: []core.PredicateNode{
						&core.BooleanOp{Kind: core.BoolOR, Children: filters},
					},
				},
			},
		}
	}

	tree := core.NewPredicateTree(root)
	if err := tree.Validate(p.limits); err != nil {
		return nil, core.NewParseError(core.PlatformSigma, core.FormatSigma, err.Error(), "")
	}
	return tree, nil
}

// parseBlock converts one detection block into a predicate node. A mapping
// body is an AND over its fields; a list body is an OR of keyword matches
// against the raw record.
func (p *sigmaParser) parseBlock(key string, body interface{}) (core.PredicateNode, error) {
	switch b := body.(type) {
	case map[string]interface{}:
		fields := make([]string, 0, len(b))
		for f := range b {
			fields = append(fields, f)
		}
		sort.Strings(fields)

		var children []core.PredicateNode
		for _, fieldSpec := range fields {
			node, err := p.parseFieldMatch(key, fieldSpec, b[fieldSpec])
			if err != nil {
				return nil, err
			}
			children = append(children, node)
		}
		if len(children) == 0 {
			return nil, nil
		}
		if len(children) == 1 {
			return children[0], nil
		}
		return &core.BooleanOp{Kind: core.BoolAND, Children: children}, nil

	case []interface{}:
		var children []core.PredicateNode
		for _, v := range b {
			children = append(children, &core.Comparison{
				Field: "_raw", Op: core.OpContains, Value: fmt.Sprint(v),
			})
		}
		if len(children) == 0 {
			return nil, nil
		}
		if len(children) == 1 {
			return children[0], nil
		}
		return &core.BooleanOp{Kind: core.BoolOR, Children: children}, nil

	default:
		return nil, core.NewParseError(core.PlatformSigma, core.FormatSigma,
			"unsupported detection block shape", key)
	}
}

// parseFieldMatch converts one "field|modifiers: value(s)" entry.
func (p *sigmaParser) parseFieldMatch(block, fieldSpec string, value interface{}) (core.PredicateNode, error) {
	parts := strings.SplitN(fieldSpec, "|", 2)
	field := parts[0]
	modifier := ""
	if len(parts) == 2 {
		modifier = parts[1]
	}

	all := false
	if strings.HasSuffix(modifier, "|all") {
		all = true
		modifier = strings.TrimSuffix(modifier, "|all")
	} else if modifier == "all" {
		all = true
		modifier = "contains"
	}

	op, ok := sigmaOpMap[modifier]
	if !ok {
		return nil, core.NewParseError(core.PlatformSigma, core.FormatSigma,
			"unsupported sigma modifier "+modifier, block+": "+fieldSpec)
	}

	values, isList := value.([]interface{})
	if !isList {
		return &core.Comparison{Field: field, Op: op, Value: stringify(value)}, nil
	}
	if len(values) == 0 {
		return nil, core.NewParseError(core.PlatformSigma, core.FormatSigma,
			"field has an empty value list", block+": "+fieldSpec)
	}

	// Equality lists collapse to a set membership test; other operators
	// expand to a boolean group over the values.
	if op == core.OpEquals && !all {
		set := make([]string, 0, len(values))
		for _, v := range values {
			set = append(set, stringify(v))
		}
		return &core.Comparison{Field: field, Op: core.OpInSet, Values: set}, nil
	}

	kind := core.BoolOR
	if all {
		kind = core.BoolAND
	}
	children := make([]core.PredicateNode, 0, len(values))
	for _, v := range values {
		children = append(children, &core.Comparison{Field: field, Op: op, Value: stringify(v)})
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &core.BooleanOp{Kind: kind, Children: children}, nil
}

func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return strings.TrimSpace(text[:i])
	}
	return strings.TrimSpace(text)
}
