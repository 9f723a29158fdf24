package filter

import (
	"log/slog"

	"github.com/tkingovr/noisegate/api"
	"github.com/tkingovr/noisegate/internal/audit"
	"github.com/tkingovr/noisegate/internal/metrics"
	"github.com/tkingovr/noisegate/internal/noise"
	"github.com/tkingovr/noisegate/internal/policy"
)

// ChainConfig holds the configuration for building filter chains.
type ChainConfig struct {
	Mode   api.Mode
	Engine policy.Engine
	Logger *slog.Logger

	// Exclude lists interceptor exclusion globs; nil means the defaults.
	Exclude []string

	// Optional sinks. Dry-run chains leave both nil.
	Metrics    *metrics.Metrics
	AuditStore audit.Store
}

// BuildInterceptorChain constructs the global interceptor chain.
func BuildInterceptorChain(cfg ChainConfig) (*Chain, error) {
	patterns := cfg.Exclude
	if patterns == nil {
		patterns = DefaultExcludePatterns()
	}
	matcher, err := NewMatcher(patterns)
	if err != nil {
		return nil, err
	}

	filters := []Filter{
		NewExcludeFilter(matcher),
		NewClassifyFilter(noise.NewClassifier(cfg.Mode, noise.InterceptorRules())),
		newPolicyFilter(cfg),
	}
	return NewChain(cfg.Logger, appendSinks(filters, cfg)...), nil
}

// BuildAPIChain constructs the API fallback chain. It has no exclusion
// step; the fallback only sees paths routed to it.
func BuildAPIChain(cfg ChainConfig) *Chain {
	filters := []Filter{
		NewClassifyFilter(noise.NewClassifier(cfg.Mode, noise.APIRules())),
		newPolicyFilter(cfg),
	}
	return NewChain(cfg.Logger, appendSinks(filters, cfg)...)
}

// BuildDryRunChains returns side-effect-free chains for both entrypoints,
// used by the `check` command and the admin classify endpoint.
func BuildDryRunChains(cfg ChainConfig) (map[api.Entrypoint]*Chain, error) {
	cfg.Metrics = nil
	cfg.AuditStore = nil

	interceptor, err := BuildInterceptorChain(cfg)
	if err != nil {
		return nil, err
	}
	return map[api.Entrypoint]*Chain{
		api.EntrypointInterceptor: interceptor,
		api.EntrypointAPIFallback: BuildAPIChain(cfg),
	}, nil
}

func newPolicyFilter(cfg ChainConfig) *PolicyFilter {
	engine := cfg.Engine
	if engine == nil {
		engine = policy.NewBuiltinEngine()
	}
	pf := NewPolicyFilter(cfg.Mode, engine, cfg.Logger)
	if cfg.Metrics != nil {
		m := cfg.Metrics
		pf.OnFallback(func(fc *FilterContext, _ error) {
			m.RecordPolicyFallback(string(fc.Entrypoint))
		})
	}
	return pf
}

func appendSinks(filters []Filter, cfg ChainConfig) []Filter {
	if cfg.Metrics != nil {
		filters = append(filters, NewMetricsFilter(cfg.Metrics))
	}
	// Audit is always last
	if cfg.AuditStore != nil {
		filters = append(filters, NewAuditFilter(cfg.AuditStore))
	}
	return filters
}
