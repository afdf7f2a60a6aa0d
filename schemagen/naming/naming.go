// Package naming maps declared member names to serialized property names.
package naming

import (
	"fmt"
	"sync"

	"github.com/viant/tagly/format/text"
)

// Policy converts a raw member name to its serialized form.
// Implementations must be safe for concurrent use.
type Policy interface {
	Convert(name string) string
}

// Func adapts a function to a Policy.
type Func func(name string) string

// Convert calls f(name).
func (f Func) Convert(name string) string {
	return f(name)
}

// CaseFormat converts names to a target case format ("lc" lowerCamel,
// "uc" UpperCamel, "lu" lower_underscore, "uu" UPPER_UNDERSCORE, "l" lower,
// "u" UPPER). The source format is detected per name; names whose format
// cannot be detected are returned unchanged.
type CaseFormat struct {
	target text.CaseFormat

	mu    sync.Mutex
	cache map[string]string
}

// NewCaseFormat returns a policy for the given case format code.
func NewCaseFormat(code string) (*CaseFormat, error) {
	target := text.NewCaseFormat(code)
	if !target.IsDefined() {
		return nil, fmt.Errorf("unknown case format %q", code)
	}
	return &CaseFormat{target: target, cache: map[string]string{}}, nil
}

// Convert implements Policy.
func (c *CaseFormat) Convert(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if converted, ok := c.cache[name]; ok {
		return converted
	}
	converted := name
	if src := text.DetectCaseFormat(name); src.IsDefined() {
		converted = src.Format(name, c.target)
	}
	c.cache[name] = converted
	return converted
}

// IsCaseFormat reports whether code names a known case format.
func IsCaseFormat(code string) bool {
	return text.NewCaseFormat(code).IsDefined()
}
