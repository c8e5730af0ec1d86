package parser

import (
	"regexp"
	"strings"

	"ruleforge/core"
)

// genericParser is the last-resort key:value extractor for free-form rule
// text. It combines extracted pairs with OR, capped at a fixed number of
// comparisons so a wall of text cannot explode the tree.
type genericParser struct {
	limits core.TreeLimits
}

const genericMaxConditions = 12

var genericKVRe = regexp.MustCompile(`(\b[A-Za-z_]\w*\b)\s*[=:]\s*["']?([^\s"'|&,\)\n]{2,60})["']?`)

// genericSkipWords are query-language keywords that look like field names
// but never are.
var genericSkipWords = map[string]struct{}{
	"and": {}, "or": {}, "not": {}, "where": {}, "from": {}, "select": {},
	"true": {}, "false": {}, "null": {}, "by": {}, "on": {}, "in": {},
	"as": {}, "if": {}, "then": {}, "when": {}, "case": {},
}

func (p *genericParser) Format() core.RuleFormat { return core.FormatGeneric }

func (p *genericParser) Parse(text string) (*core.PredicateTree, error) {
	ex := extraction{logic: logicOR}
	for _, m := range genericKVRe.FindAllStringSubmatch(text, -1) {
		field, value := m[1], m[2]
		if _, skip := genericSkipWords[strings.ToLower(field)]; skip {
			continue
		}
		ex.conditions = append(ex.conditions, &core.Comparison{Field: field, Op: core.OpContains, Value: value})
		if len(ex.conditions) >= genericMaxConditions {
			break
		}
	}
	return buildTree(ex, p.limits, core.PlatformGeneric, core.FormatGeneric)
}
