package parser

import (
	"regexp"

	"ruleforge/core"
)

// kqlParser extracts comparisons from KQL-style pipelines (Cribl Search and
// Microsoft Sentinel share the dialect). Only `| where` stages contribute
// conditions; `!in` clauses become exclusions.
type kqlParser struct {
	limits core.TreeLimits
	label  string
}

var (
	kqlWhereRe      = regexp.MustCompile(`(?is)\|\s*where\s+(.+?)(?:\n\s*\||$)`)
	kqlEqTildeRe    = regexp.MustCompile(`(\w[\w.]*)\s*=~\s*["']([^"']+)["']`)
	kqlHasAnyRe     = regexp.MustCompile(`(?i)(\w[\w.]*)\s+has_any\s*\(([^)]+)\)`)
	kqlHasAllRe     = regexp.MustCompile(`(?i)(\w[\w.]*)\s+has_all\s*\(([^)]+)\)`)
	kqlHasRe        = regexp.MustCompile(`(?i)(\w[\w.]*)\s+has\s+["']([^"']+)["']`)
	kqlStartsRe     = regexp.MustCompile(`(?i)(\w[\w.]*)\s+startswith\s+["']([^"']+)["']`)
	kqlEndsRe       = regexp.MustCompile(`(?i)(\w[\w.]*)\s+endswith\s+["']([^"']+)["']`)
	kqlRegexRe      = regexp.MustCompile(`(?i)(\w[\w.]*)\s+matches\s+regex\s+["']([^"']+)["']`)
	kqlContainsRe   = regexp.MustCompile(`(?i)(\w[\w.]*)\s+contains\s+["']([^"']+)["']`)
	kqlEqRe         = regexp.MustCompile(`(\w[\w.]*)\s*==\s*["']([^"']+)["']`)
	kqlNotInRe      = regexp.MustCompile(`(?i)(\w[\w.]*)\s+!in~?\s*\(([^)]+)\)`)
	quotedLiteralRe = regexp.MustCompile(`["']([^"']+)["']`)
)

func (p *kqlParser) Format() core.RuleFormat { return core.FormatKQL }

func (p *kqlParser) Parse(text string) (*core.PredicateTree, error) {
	ex := extraction{logic: logicAND}

	for _, block := range kqlWhereRe.FindAllStringSubmatch(text, -1) {
		clause := block[1]
		for _, m := range kqlEqTildeRe.FindAllStringSubmatch(clause, -1) {
			ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpEquals, Value: m[2]})
		}
		for _, m := range kqlHasAnyRe.FindAllStringSubmatch(clause, -1) {
			if set := quotedLiterals(m[2]); len(set) > 0 {
				ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpInSet, Values: set})
			}
		}
		for _, m := range kqlHasAllRe.FindAllStringSubmatch(clause, -1) {
			for _, v := range quotedLiterals(m[2]) {
				ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpContains, Value: v})
			}
		}
		for _, m := range kqlHasRe.FindAllStringSubmatch(clause, -1) {
			ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpContains, Value: m[2]})
		}
		for _, m := range kqlStartsRe.FindAllStringSubmatch(clause, -1) {
			ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpStartsWith, Value: m[2]})
		}
		for _, m := range kqlEndsRe.FindAllStringSubmatch(clause, -1) {
			ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpEndsWith, Value: m[2]})
		}
		for _, m := range kqlRegexRe.FindAllStringSubmatch(clause, -1) {
			ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpRegex, Value: m[2]})
		}
		for _, m := range kqlContainsRe.FindAllStringSubmatch(clause, -1) {
			ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpContains, Value: m[2]})
		}
		for _, m := range kqlEqRe.FindAllStringSubmatch(clause, -1) {
			ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpEquals, Value: m[2]})
		}
	}

	for _, m := range kqlNotInRe.FindAllStringSubmatch(text, -1) {
		if set := quotedLiterals(m[2]); len(set) > 0 {
			ex.filters = append(ex.filters, &core.Comparison{Field: m[1], Op: core.OpInSet, Values: set})
		}
	}

	return buildTree(ex, p.limits, core.PlatformCribl, core.FormatKQL)
}

func quotedLiterals(s string) []string {
	var out []string
	for _, m := range quotedLiteralRe.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1])
	}
	return out
}
