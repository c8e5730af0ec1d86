package parser

import (
	"regexp"

	"ruleforge/core"
)

// The remaining vendor dialects are flat key/operator/value filter
// languages; each parser extracts its operator vocabulary and combines the
// comparisons with AND.

// oktaParser handles Okta EventHook / System Log filter expressions
// (SCIM-style eq / co / sw operators).
type oktaParser struct {
	limits core.TreeLimits
}

var (
	oktaEqRe = regexp.MustCompile(`(?i)([\w.\[\]]+)\s+eq\s+["']([^"']+)["']`)
	oktaCoRe = regexp.MustCompile(`(?i)([\w.\[\]]+)\s+co\s+["']([^"']+)["']`)
	oktaSwRe = regexp.MustCompile(`(?i)([\w.\[\]]+)\s+sw\s+["']([^"']+)["']`)
)

func (p *oktaParser) Format() core.RuleFormat { return core.FormatEventHook }

func (p *oktaParser) Parse(text string) (*core.PredicateTree, error) {
	ex := extraction{logic: logicAND}
	for _, m := range oktaEqRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpEquals, Value: m[2]})
	}
	for _, m := range oktaCoRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpContains, Value: m[2]})
	}
	for _, m := range oktaSwRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpStartsWith, Value: m[2]})
	}
	return buildTree(ex, p.limits, core.PlatformOkta, core.FormatEventHook)
}

// armisParser handles Armis ASQ search expressions (colon-delimited values
// plus numeric range operators).
type armisParser struct {
	limits core.TreeLimits
}

var (
	armisKVRe = regexp.MustCompile(`(\w[\w.]*)\s*:\s*["']([^"']+)["']`)
	armisLtRe = regexp.MustCompile(`(\w[\w.]*)\s*<\s*(\d+)`)
	armisGtRe = regexp.MustCompile(`(\w[\w.]*)\s*>\s*(\d+)`)
)

func (p *armisParser) Format() core.RuleFormat { return core.FormatASQ }

func (p *armisParser) Parse(text string) (*core.PredicateTree, error) {
	ex := extraction{logic: logicAND}
	for _, m := range armisKVRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpEquals, Value: m[2]})
	}
	for _, m := range armisLtRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpLT, Value: m[2]})
	}
	for _, m := range armisGtRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpGT, Value: m[2]})
	}
	return buildTree(ex, p.limits, core.PlatformArmis, core.FormatASQ)
}

// obsidianParser handles Obsidian OQL queries over SaaS audit events.
type obsidianParser struct {
	limits core.TreeLimits
}

var (
	obsBoolRe      = regexp.MustCompile(`(?i)([\w.]+)\s*:\s*(true|false)\b`)
	obsEventTypeRe = regexp.MustCompile(`(?i)event_type\s*:\s*["']([^"']+)["']`)
	obsEqRe        = regexp.MustCompile(`([\w.]+)\s*=\s*["']([^"']+)["']`)
)

func (p *obsidianParser) Format() core.RuleFormat { return core.FormatOQL }

func (p *obsidianParser) Parse(text string) (*core.PredicateTree, error) {
	ex := extraction{logic: logicAND}
	for _, m := range obsBoolRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpEquals, Value: m[2]})
	}
	for _, m := range obsEventTypeRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: "event.type", Op: core.OpEquals, Value: m[1]})
	}
	for _, m := range obsEqRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpEquals, Value: m[2]})
	}
	return buildTree(ex, p.limits, core.PlatformObsidian, core.FormatOQL)
}

// panosParser handles PAN-OS traffic/threat log filter expressions.
type panosParser struct {
	limits core.TreeLimits
}

var (
	panEqRe       = regexp.MustCompile(`(?i)(\w[\w\-]*)\s+eq\s+["']([^"']+)["']`)
	panContainsRe = regexp.MustCompile(`(?i)(\w[\w\-]*)\s+contains\s+["']([^"']+)["']`)
	panGeqRe      = regexp.MustCompile(`(?i)(\w[\w\-]*)\s+geq\s+(\S+)`)
	panAddrInRe   = regexp.MustCompile(`(?i)addr\.(src|dst)\s+in\s+([\d./]+)`)
)

func (p *panosParser) Format() core.RuleFormat { return core.FormatPANOS }

func (p *panosParser) Parse(text string) (*core.PredicateTree, error) {
	ex := extraction{logic: logicAND}
	for _, m := range panEqRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpEquals, Value: m[2]})
	}
	for _, m := range panContainsRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpContains, Value: m[2]})
	}
	for _, m := range panGeqRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpGTE, Value: m[2]})
	}
	for _, m := range panAddrInRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: "addr." + m[1], Op: core.OpContains, Value: m[2]})
	}
	return buildTree(ex, p.limits, core.PlatformPaloAlto, core.FormatPANOS)
}

// proofpointParser handles ProofPoint Smart Search expressions.
type proofpointParser struct {
	limits core.TreeLimits
}

var (
	ppEqKwRe     = regexp.MustCompile(`(?i)([\w.]+)\s+eq\s+["']([^"']+)["']`)
	ppContainsRe = regexp.MustCompile(`(?i)([\w.]+)\s+contains\s+["']([^"']+)["']`)
	ppGeqRe      = regexp.MustCompile(`(?i)([\w.]+)\s+geq\s+(\S+)`)
	ppLeqRe      = regexp.MustCompile(`(?i)([\w.]+)\s+leq\s+(\S+)`)
	ppEqRe       = regexp.MustCompile(`([\w.]+)\s*=\s*["']([^"']+)["']`)
)

func (p *proofpointParser) Format() core.RuleFormat { return core.FormatSmartSearch }

func (p *proofpointParser) Parse(text string) (*core.PredicateTree, error) {
	ex := extraction{logic: logicAND}
	for _, m := range ppEqKwRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpEquals, Value: m[2]})
	}
	for _, m := range ppContainsRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpContains, Value: m[2]})
	}
	for _, m := range ppGeqRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpGTE, Value: m[2]})
	}
	for _, m := range ppLeqRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpLTE, Value: m[2]})
	}
	for _, m := range ppEqRe.FindAllStringSubmatch(text, -1) {
		ex.conditions = append(ex.conditions, &core.Comparison{Field: m[1], Op: core.OpEquals, Value: m[2]})
	}
	return buildTree(ex, p.limits, core.PlatformProofPoint, core.FormatSmartSearch)
}
