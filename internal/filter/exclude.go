package filter

import (
	"context"
	"fmt"

	"github.com/gobwas/glob"

	"github.com/tkingovr/noisegate/api"
)

// DefaultExcludePatterns are the paths the global interceptor never
// classifies: API routes, framework static assets, image optimisation and
// the root favicon.
func DefaultExcludePatterns() []string {
	return []string{
		"/api",
		"/api/**",
		"/_next/static/**",
		"/_next/image/**",
		"/favicon.ico",
	}
}

// Matcher matches request paths against '/'-separated glob patterns.
type Matcher struct {
	patterns []string
	globs    []glob.Glob
}

// NewMatcher compiles the given patterns.
func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{patterns: patterns}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Match reports whether path matches any pattern.
func (m *Matcher) Match(path string) bool {
	for _, g := range m.globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// Patterns returns the source patterns.
func (m *Matcher) Patterns() []string { return m.patterns }

// ExcludeFilter passes matched paths through without classification.
type ExcludeFilter struct {
	matcher *Matcher
}

func NewExcludeFilter(m *Matcher) *ExcludeFilter {
	return &ExcludeFilter{matcher: m}
}

func (f *ExcludeFilter) Name() string { return "exclude" }

func (f *ExcludeFilter) Process(_ context.Context, fc *FilterContext) error {
	if !f.matcher.Match(fc.Path) {
		return nil
	}
	fc.Excluded = true
	fc.Decision = &api.Decision{Action: api.ActionPass, Source: "exclude"}
	fc.Halted = true
	return nil
}
