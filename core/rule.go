package core

import (
	"sync"
	"time"
)

// PlatformID identifies the vendor platform a rule targets.
type PlatformID string

const (
	PlatformSentinelOne PlatformID = "sentinelone"
	PlatformCribl       PlatformID = "cribl"
	PlatformSentinel    PlatformID = "microsoft_sentinel"
	PlatformOkta        PlatformID = "okta"
	PlatformArmis       PlatformID = "armis"
	PlatformObsidian    PlatformID = "obsidian"
	PlatformPaloAlto    PlatformID = "paloalto"
	PlatformProofPoint  PlatformID = "proofpoint"
	PlatformSigma       PlatformID = "sigma"
	PlatformGeneric     PlatformID = "generic"
)

// RuleFormat identifies the rule dialect a raw rule is written in.
type RuleFormat string

const (
	FormatS1QL        RuleFormat = "s1ql"
	FormatKQL         RuleFormat = "kql"
	FormatASQ         RuleFormat = "asq"
	FormatOQL         RuleFormat = "oql"
	FormatPANOS       RuleFormat = "panos"
	FormatSigma       RuleFormat = "sigma"
	FormatEventHook   RuleFormat = "eventhook"
	FormatSmartSearch RuleFormat = "smartsearch"
	FormatGeneric     RuleFormat = "generic"
	// FormatAuto asks the parser registry to detect the dialect from the text.
	FormatAuto RuleFormat = "auto"
)

// RuleDefinition is a detection rule under validation. The predicate tree is
// built lazily on first use and cached; the single-initialization guard makes
// concurrent evaluation calls against the same rule safe.
type RuleDefinition struct {
	Name      string     `json:"name"`
	Platform  PlatformID `json:"platform"`
	Format    RuleFormat `json:"format"`
	RawText   string     `json:"raw_text"`
	CreatedAt time.Time  `json:"created_at"`

	compileOnce sync.Once
	tree        *PredicateTree
	compileErr  error
}

// NewRuleDefinition creates a rule definition for the given raw text.
func NewRuleDefinition(name string, platform PlatformID, format RuleFormat, rawText string) *RuleDefinition {
	return &RuleDefinition{
		Name:      name,
		Platform:  platform,
		Format:    format,
		RawText:   rawText,
		CreatedAt: time.Now().UTC(),
	}
}

// Compile runs parse at most once for the lifetime of the definition and
// caches the outcome. A parse failure never leaves a partially built tree
// behind: either the tree is set, or the error is.
func (r *RuleDefinition) Compile(parse func(string) (*PredicateTree, error)) (*PredicateTree, error) {
	r.compileOnce.Do(func() {
		tree, err := parse(r.RawText)
		if err != nil {
			r.compileErr = err
			return
		}
		r.tree = tree
	})
	return r.tree, r.compileErr
}

// Tree returns the cached predicate tree, or nil if the rule has not been
// compiled or compilation failed.
func (r *RuleDefinition) Tree() *PredicateTree {
	return r.tree
}
