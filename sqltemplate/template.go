package sqltemplate

import (
	"sync"

	"github.com/sqlxgen/sqlxgen/dialect"
)

// cacheKey is a parsed template's identity for the per-run cache: spec §4.4
// requires "the same key always yields the same rendered SQL", keyed by
// (text, dialect).
type cacheKey struct {
	text string
	kind dialect.Kind
}

// Engine is the SQL Template Engine (C4) façade the Driver holds for one
// generation run. It owns the parsed-template cache for the
// text-template-with-directives language; placeholder expansion (4.4a) is
// stateless and does not need caching — an Expander is built fresh per
// method since it closes over that method's Entity/MethodParam list.
//
// Engine is safe for concurrent use: mu guards every cache read and write.
// Two goroutines that miss on the same key at once both parse the text, and
// the later write replaces the earlier one. The Driver holds an Engine but
// renders method SQL through the Expander only, so it never calls Parse.
type Engine struct {
	mu    sync.Mutex
	cache map[cacheKey]*Parsed
}

// NewEngine returns an Engine with an empty per-run cache.
func NewEngine() *Engine {
	return &Engine{cache: make(map[cacheKey]*Parsed)}
}

// Parse returns the cached Parsed document for (text, dialect), parsing and
// caching it on first use.
func (e *Engine) Parse(text string, d dialect.Dialect) (*Parsed, error) {
	key := cacheKey{text: text, kind: d.Kind}
	e.mu.Lock()
	if p, ok := e.cache[key]; ok {
		e.mu.Unlock()
		return p, nil
	}
	e.mu.Unlock()

	p, err := ParseDirectiveTemplate(text)
	if err != nil {
		return p, err
	}
	e.mu.Lock()
	e.cache[key] = p
	e.mu.Unlock()
	return p, nil
}

// Validate reports the { ok, errors[], warnings[] } result for text without
// registering it in the render cache. No other package in this module
// calls it.
func Validate(text string) *Parsed {
	p, err := ParseDirectiveTemplate(text)
	if err != nil && p == nil {
		return &Parsed{Errors: []string{err.Error()}}
	}
	return p
}
