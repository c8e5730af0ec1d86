// Package parser converts vendor-specific detection rule text into the
// canonical predicate tree consumed by the matcher. Each supported
// (platform, format) pair registers a Parser implementation; adding a
// platform means adding a registry entry, never touching the matcher,
// runner or scoring engine.
package parser

import (
	"regexp"
	"strings"

	"ruleforge/core"
	"ruleforge/match"
)

// Parser converts raw rule text into a canonical predicate tree.
// Implementations are pure and deterministic: the same input always yields
// a structurally identical tree or the same error.
type Parser interface {
	// Parse builds the predicate tree, or a *core.ParseError.
	Parse(text string) (*core.PredicateTree, error)
	// Format returns the dialect this parser handles.
	Format() core.RuleFormat
}

type registryKey struct {
	platform core.PlatformID
	format   core.RuleFormat
}

// Registry dispatches rule text to the right dialect parser.
type Registry struct {
	limits     core.TreeLimits
	entries    map[registryKey]Parser
	byPlatform map[core.PlatformID]Parser
}

// NewRegistry builds a registry with every supported dialect registered.
func NewRegistry(limits core.TreeLimits) *Registry {
	r := &Registry{
		limits:     limits,
		entries:    make(map[registryKey]Parser),
		byPlatform: make(map[core.PlatformID]Parser),
	}
	r.register(core.PlatformSigma, core.FormatSigma, &sigmaParser{limits: limits})
	r.register(core.PlatformCribl, core.FormatKQL, &kqlParser{limits: limits, label: "Cribl KQL"})
	r.register(core.PlatformSentinel, core.FormatKQL, &kqlParser{limits: limits, label: "Microsoft Sentinel KQL"})
	r.register(core.PlatformSentinelOne, core.FormatS1QL, &s1qlParser{limits: limits})
	r.register(core.PlatformOkta, core.FormatEventHook, &oktaParser{limits: limits})
	r.register(core.PlatformArmis, core.FormatASQ, &armisParser{limits: limits})
	r.register(core.PlatformObsidian, core.FormatOQL, &obsidianParser{limits: limits})
	r.register(core.PlatformPaloAlto, core.FormatPANOS, &panosParser{limits: limits})
	r.register(core.PlatformProofPoint, core.FormatSmartSearch, &proofpointParser{limits: limits})
	r.register(core.PlatformGeneric, core.FormatGeneric, &genericParser{limits: limits})
	return r
}

func (r *Registry) register(platform core.PlatformID, format core.RuleFormat, p Parser) {
	r.entries[registryKey{platform, format}] = p
	r.byPlatform[platform] = p
}

// Lookup returns the parser registered for a (platform, format) pair.
func (r *Registry) Lookup(platform core.PlatformID, format core.RuleFormat) (Parser, bool) {
	p, ok := r.entries[registryKey{platform, format}]
	return p, ok
}

// Parse dispatches raw rule text by (platform, format). FormatAuto falls
// back to dialect detection. Unknown pairs and empty text fail closed with
// a *core.ParseError.
func (r *Registry) Parse(text string, platform core.PlatformID, format core.RuleFormat) (*core.PredicateTree, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, core.NewParseError(platform, format, "rule text is empty", "")
	}

	var tree *core.PredicateTree
	var err error
	if format == core.FormatAuto {
		tree, err = r.detect(trimmed, platform)
	} else {
		p, ok := r.Lookup(platform, format)
		if !ok {
			return nil, core.NewParseError(platform, format, "no parser registered for platform/format pair", "")
		}
		tree, err = p.Parse(trimmed)
	}
	if err != nil {
		return nil, err
	}
	// Regex operands must compile and fit the length budget now, not when
	// the matcher first touches an event.
	for _, c := range tree.Comparisons() {
		if c.Op != core.OpRegex {
			continue
		}
		if verr := match.ValidatePattern(c.Value, r.limits.MaxPatternLength); verr != nil {
			return nil, core.NewParseError(platform, format, verr.Error(), c.Value)
		}
	}
	return tree, nil
}

// Compile parses a rule definition through its cached single-init guard.
func (r *Registry) Compile(rule *core.RuleDefinition) (*core.PredicateTree, error) {
	return rule.Compile(func(text string) (*core.PredicateTree, error) {
		return r.Parse(text, rule.Platform, rule.Format)
	})
}

var (
	sigmaShapeRe = regexp.MustCompile(`(?m)^\s*(?:title|detection|logsource)\s*:`)
	s1qlShapeRe  = regexp.MustCompile(`(?i)\b(?:ContainsCIS|TgtProc|SrcProc|src\.process|tgt\.process)\b`)
	kqlShapeRe   = regexp.MustCompile(`(?i)\|\s*where\b`)
)

// detect picks a dialect from the text shape, preferring the declared
// platform's own parser when one is registered.
func (r *Registry) detect(text string, platform core.PlatformID) (*core.PredicateTree, error) {
	switch {
	case sigmaShapeRe.MatchString(text):
		return (&sigmaParser{limits: r.limits}).Parse(text)
	case s1qlShapeRe.MatchString(text):
		return (&s1qlParser{limits: r.limits}).Parse(text)
	case kqlShapeRe.MatchString(text):
		return (&kqlParser{limits: r.limits, label: "KQL"}).Parse(text)
	}
	if p, ok := r.byPlatform[platform]; ok {
		if tree, err := p.Parse(text); err == nil {
			return tree, nil
		}
	}
	return (&genericParser{limits: r.limits}).Parse(text)
}
