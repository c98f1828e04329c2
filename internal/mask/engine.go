// Package mask implements the PII redaction engine: a pure, deterministic,
// idempotent mask_text applied to every CapturedEvent before it reaches
// persistent storage.
package mask

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Sudo-psc/keyai-desktop/internal/logging"
	"github.com/Sudo-psc/keyai-desktop/internal/metrics"
)

// Result is the outcome of masking one string: the redacted text plus the
// set of pattern names that matched.
type Result struct {
	Masked string
	Tags   []string
}

// Engine holds the compiled, ordered pattern table and recent-result cache.
// Safe for concurrent use: the pattern table is immutable after
// construction except for runtime disablement, which is an atomic flag per
// pattern rather than a mutation of the slice.
type Engine struct {
	patterns []*activePattern
	metrics  *metrics.Pipeline

	cacheMu sync.Mutex
	cache   map[string]Result
	cacheN  int
}

type activePattern struct {
	Pattern
	disabled atomic.Bool
}

const maxCacheEntries = 4096

// NewEngine builds an Engine from the built-in pattern table plus any
// caller-supplied extra patterns, appended in order.
func NewEngine(extra ...Pattern) *Engine {
	return NewEngineWithMetrics(metrics.New(), extra...)
}

// NewEngineWithMetrics builds an Engine that reports pattern failures
// through the shared pipeline metrics.
func NewEngineWithMetrics(m *metrics.Pipeline, extra ...Pattern) *Engine {
	all := append(append([]Pattern{}, builtinPatterns...), extra...)
	patterns := make([]*activePattern, len(all))
	for i, p := range all {
		patterns[i] = &activePattern{Pattern: p}
	}
	return &Engine{
		patterns: patterns,
		metrics:  m,
		cache:    make(map[string]Result),
	}
}

// MaskText applies every enabled pattern in order and returns the redacted
// text plus matched tags. Pure, deterministic, and idempotent:
// MaskText(MaskText(s).Masked).Masked == MaskText(s).Masked.
func (e *Engine) MaskText(s string) Result {
	if cached, ok := e.lookupCache(s); ok {
		return cached
	}

	text := s
	var tags []string

	for _, p := range e.patterns {
		if p.disabled.Load() {
			continue
		}
		if p.Literal != "" && !strings.Contains(strings.ToLower(text), p.Literal) {
			continue
		}

		matched, err := e.applyPattern(p, text)
		if err != nil {
			p.disabled.Store(true)
			if e.metrics != nil {
				e.metrics.PatternErrors.Add(1)
			}
			logging.MaskWarn("pattern %s disabled after runtime error: %v", p.Name, err)
			continue
		}
		if matched.matched {
			text = matched.text
			tags = append(tags, p.Name)
		}
	}

	result := Result{Masked: text, Tags: tags}
	e.storeCache(s, result)
	return result
}

type patternOutcome struct {
	text    string
	matched bool
}

// applyPattern scans text for non-overlapping matches of p.Regex and
// splices replacements back-to-front (reverse match order) so earlier
// spans' offsets are never invalidated by later edits, grounded on the
// ordered-pattern in-place splice idiom used for multi-pattern redaction.
func (e *Engine) applyPattern(p *activePattern, text string) (out patternOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicToError(r)
		}
	}()

	spans := p.Regex.FindAllStringIndex(text, -1)
	if len(spans) == 0 {
		return patternOutcome{text: text}, nil
	}

	for i := len(spans) - 1; i >= 0; i-- {
		start, end := spans[i][0], spans[i][1]
		replacement := p.Replacement(text[start:end])
		text = text[:start] + replacement + text[end:]
	}
	return patternOutcome{text: text, matched: true}, nil
}

func panicToError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &patternPanicError{r}
}

type patternPanicError struct{ value interface{} }

func (e *patternPanicError) Error() string {
	return "pattern replacement panicked"
}

func (e *Engine) lookupCache(s string) (Result, bool) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	r, ok := e.cache[s]
	return r, ok
}

func (e *Engine) storeCache(s string, r Result) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	if e.cacheN >= maxCacheEntries {
		// Cheap eviction: drop everything rather than track recency: the
		// cache exists to absorb repeated identical inputs (e.g. re-masking
		// on retry), not to be a general LRU.
		e.cache = make(map[string]Result)
		e.cacheN = 0
	}
	e.cache[s] = r
	e.cacheN++
}

// EnabledPatternNames returns the names of patterns not yet disabled by a
// runtime error, in table order.
func (e *Engine) EnabledPatternNames() []string {
	names := make([]string, 0, len(e.patterns))
	for _, p := range e.patterns {
		if !p.disabled.Load() {
			names = append(names, p.Name)
		}
	}
	return names
}
