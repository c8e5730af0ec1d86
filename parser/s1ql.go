package parser

import (
	"regexp"

	"ruleforge/core"
)

// s1qlParser extracts comparisons from SentinelOne deep-visibility queries,
// covering both v1 keywords (ContainsCIS, RegExp) and v2 dot-notation
// operators. `NOT ... In Contains(...)` clauses become exclusions.
type s1qlParser struct {
	limits core.TreeLimits
}

var (
	s1ContainsCISRe = regexp.MustCompile(`(?i)(\w[\w.]*)\s+ContainsCIS\s+["']([^"']+)["']`)
	s1ContainsRe    = regexp.MustCompile(`(?i)([\w.]+)\s+contains\s+["']([^"']+)["']`)
	s1MatchesRe     = regexp.MustCompile(`(?i)([\w.]+)\s+matches\s+["']([^"']+)["']`)
	s1RegExpRe      = regexp.MustCompile(`(?i)([\w.]+)\s+RegExp\s+["']([^"']+)["']`)
	s1StartsRe      = regexp.MustCompile(`(?i)([\w.]+)\s+StartsWith\s+["']([^"']+)["']`)
	s1EndsRe        = regexp.MustCompile(`(?i)([\w.]+)\s+EndsWith\s+["']([^"']+)["']`)
	s1EqRe          = regexp.MustCompile(`([\w.]+)\s*=\s*["']([^"']+)["']`)
	s1NotInRe       = regexp.MustCompile(`(?i)NOT\s+([\w.]+)\s+In\s+Contains\s*\(([^)]+)\)`)
)

func (p *s1qlParser) Format() core.RuleFormat { return core.FormatS1QL }

func (p *s1qlParser) Parse(text string) (*core.PredicateTree, error) {
	ex := extraction{logic: logicAND}

	for _, m := range s1ContainsCISRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpContains, Value: m[2]})
	}
	for _, m := range s1ContainsRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpContains, Value: m[2]})
	}
	for _, m := range s1MatchesRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpRegex, Value: m[2]})
	}
	for _, m := range s1RegExpRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpRegex, Value: m[2]})
	}
	for _, m := range s1StartsRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpStartsWith, Value: m[2]})
	}
	for _, m := range s1EndsRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpEndsWith, Value: m[2]})
	}
	for _, m := range s1EqRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpEquals, Value: m[2]})
	}
	for _, m := range s1NotInRe.FindAllStringSubmatch(text, -1) {
		if set := quotedLiterals(m[2]); len(set) > 0 {
			ex.filters = append(ex.filters, &core.Comparison{Field: m[1], Op: core.OpInSet, Values: set})
		}
	}

	return buildTree(ex, p.limits, core.PlatformSentinelOne, core.FormatS1QL)
}
