// Package noise classifies request paths generated by development tooling.
//
// Classification is a pure function of the path and the runtime mode.
// Every rule uses substring containment; the favicon rule additionally
// rejects paths that already start with /favicon.ico.
package noise

import (
	"strings"

	"github.com/tkingovr/noisegate/api"
)

// Rule assigns a category to paths containing any of its substrings.
type Rule struct {
	Category api.Category
	Contains []string

	// NotPrefix, when set, disqualifies paths that start with it.
	NotPrefix string
}

// Match reports whether the rule applies to path.
func (r Rule) Match(path string) bool {
	if r.NotPrefix != "" && strings.HasPrefix(path, r.NotPrefix) {
		return false
	}
	for _, s := range r.Contains {
		if strings.Contains(path, s) {
			return true
		}
	}
	return false
}

// RuleSet is an ordered list of rules; the first match wins.
type RuleSet struct {
	Name  string
	Rules []Rule
}

// InterceptorRules is the rule set applied by the global interceptor.
func InterceptorRules() RuleSet {
	return RuleSet{
		Name: string(api.EntrypointInterceptor),
		Rules: []Rule{
			{Category: api.CategoryHotUpdate, Contains: []string{"webpack.hot-update", "hot-update.json"}},
			{Category: api.CategoryWellKnownOrDevtools, Contains: []string{".well-known", "appspecific"}},
			{Category: api.CategorySockjsOrWebpackInternal, Contains: []string{"sockjs-node", "__webpack"}},
			{Category: api.CategoryMisroutedFavicon, Contains: []string{"favicon.ico"}, NotPrefix: "/favicon.ico"},
		},
	}
}

// APIRules is the rule set applied by the API fallback handler. It
// overlaps with InterceptorRules but is not the same list: it knows
// __nextjs, not __webpack, and has no favicon rule.
func APIRules() RuleSet {
	return RuleSet{
		Name: string(api.EntrypointAPIFallback),
		Rules: []Rule{
			{Category: api.CategoryNextInternal, Contains: []string{"webpack.hot-update", ".well-known", "sockjs-node", "__nextjs"}},
		},
	}
}

// RulesFor returns the built-in rule set for an entrypoint.
func RulesFor(e api.Entrypoint) RuleSet {
	if e == api.EntrypointAPIFallback {
		return APIRules()
	}
	return InterceptorRules()
}

// Classify returns the category of path under rs. Outside development
// mode every path is CategoryNone.
func Classify(rs RuleSet, mode api.Mode, path string) api.Category {
	if mode != api.ModeDevelopment {
		return api.CategoryNone
	}
	for _, r := range rs.Rules {
		if r.Match(path) {
			return r.Category
		}
	}
	return api.CategoryNone
}

// Classifier binds a rule set to the mode fixed at process start.
type Classifier struct {
	mode  api.Mode
	rules RuleSet
}

// NewClassifier creates a classifier for the given mode and rule set.
func NewClassifier(mode api.Mode, rules RuleSet) *Classifier {
	return &Classifier{mode: mode, rules: rules}
}

// Classify returns the noise category of path.
func (c *Classifier) Classify(path string) api.Category {
	return Classify(c.rules, c.mode, path)
}

// Mode returns the mode the classifier was built with.
func (c *Classifier) Mode() api.Mode { return c.mode }

// RuleSet returns the name of the rule set in use.
func (c *Classifier) RuleSet() string { return c.rules.Name }
