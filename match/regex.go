package match

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrRegexTimeout marks a regex evaluation that exceeded its match budget.
var ErrRegexTimeout = fmt.Errorf("regex evaluation timeout")

// regexCacheSize bounds the compiled-pattern cache. One evaluation run
// touches a handful of patterns; the bound only matters when many rules
// share a process.
const regexCacheSize = 256

// regexCache caches compiled regexp2 patterns keyed by pattern and timeout.
// regexp2's MatchTimeout gives proper backtracking limits, so one hostile
// pattern cannot hang an evaluation of thousands of events.
type regexCache struct {
	cache *lru.Cache[string, *regexp2.Regexp]
}

func newRegexCache() *regexCache {
	c, err := lru.New[string, *regexp2.Regexp](regexCacheSize)
	if err != nil {
		// Only reachable with a non-positive size constant.
		panic(fmt.Sprintf("regex cache init: %v", err))
	}
	return &regexCache{cache: c}
}

// get returns a compiled pattern with its match timeout set, compiling and
// caching on first use.
func (rc *regexCache) get(pattern string, timeout time.Duration) (*regexp2.Regexp, error) {
	key := fmt.Sprintf("%s\x00%d", pattern, timeout.Milliseconds())
	if re, ok := rc.cache.Get(key); ok {
		return re, nil
	}
	re, err := regexp2.Compile(pattern, 0)
	if err != nil {
		return nil, fmt.Errorf("compile regex pattern: %w", err)
	}
	re.MatchTimeout = timeout
	rc.cache.Add(key, re)
	return re, nil
}

// matchString applies the pattern under its timeout. Timeouts surface as
// ErrRegexTimeout so callers can count them as non-matches with a
// diagnostic instead of failing the run.
func (rc *regexCache) matchString(pattern, input string, timeout time.Duration) (bool, error) {
	re, err := rc.get(pattern, timeout)
	if err != nil {
		return false, err
	}
	matched, err := re.MatchString(input)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "timeout") {
			return false, ErrRegexTimeout
		}
		return false, fmt.Errorf("regex match: %w", err)
	}
	return matched, nil
}

// ValidatePattern rejects patterns that exceed the configured length or do
// not compile. The parser calls this so oversized or broken patterns fail
// at parse time, before any event is touched.
func ValidatePattern(pattern string, maxLength int) error {
	if pattern == "" {
		return fmt.Errorf("regex pattern cannot be empty")
	}
	if len(pattern) > maxLength {
		return fmt.Errorf("regex pattern length %d exceeds maximum %d", len(pattern), maxLength)
	}
	if _, err := regexp2.Compile(pattern, 0); err != nil {
		return fmt.Errorf("invalid regex pattern: %w", err)
	}
	return nil
}
