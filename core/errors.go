package core

import (
	"fmt"
	"unicode/utf8"
)

// ParseError reports a rule that could not be mapped to a predicate tree.
// The parser fails closed: any construct it cannot confidently translate
// produces a ParseError rather than a best-effort tree.
type ParseError struct {
	Platform PlatformID
	Format   RuleFormat
	Reason   string
	// Fragment is the offending portion of the rule text, when known.
	Fragment string
}

func (e *ParseError) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("parse error (%s/%s): %s: %q", e.Platform, e.Format, e.Reason, e.Fragment)
	}
	return fmt.Sprintf("parse error (%s/%s): %s", e.Platform, e.Format, e.Reason)
}

// NewParseError builds a ParseError with fragment context.
func NewParseError(platform PlatformID, format RuleFormat, reason, fragment string) *ParseError {
	const maxFragment = 120
	if len(fragment) > maxFragment {
		fragment = Truncate(fragment, maxFragment) + "..."
	}
	return &ParseError{Platform: platform, Format: format, Reason: reason, Fragment: fragment}
}

// Truncate shortens s to at most max bytes, backing the cut up so it
// never lands inside a multi-byte rune.
func Truncate(s string, max int) string {
	if max < 0 {
		max = 0
	}
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
