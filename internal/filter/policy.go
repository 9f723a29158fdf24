package filter

import (
	"context"
	"log/slog"

	"github.com/tkingovr/noisegate/api"
	"github.com/tkingovr/noisegate/internal/policy"
)

// PolicyFilter turns the category into a response decision. If the engine
// fails, the built-in decision is used instead. Outside development mode
// the engine is never consulted and every request passes.
type PolicyFilter struct {
	mode       api.Mode
	engine     policy.Engine
	logger     *slog.Logger
	onFallback func(*FilterContext, error)
}

func NewPolicyFilter(mode api.Mode, engine policy.Engine, logger *slog.Logger) *PolicyFilter {
	return &PolicyFilter{mode: mode, engine: engine, logger: logger}
}

// OnFallback registers a callback for engine failures.
func (f *PolicyFilter) OnFallback(fn func(*FilterContext, error)) {
	f.onFallback = fn
}

func (f *PolicyFilter) Name() string { return "policy" }

func (f *PolicyFilter) Process(ctx context.Context, fc *FilterContext) error {
	if fc.Halted {
		return nil
	}

	input := fc.EvalInput()
	if f.mode != api.ModeDevelopment {
		fc.Decision = policy.Decide(input)
		return nil
	}

	d, err := f.engine.Decide(ctx, input)
	if err != nil {
		f.logger.Warn("response policy failed, using built-in decision",
			"path", fc.Path,
			"category", fc.Category,
			"error", err,
		)
		if f.onFallback != nil {
			f.onFallback(fc, err)
		}
		d = policy.Decide(input)
	}

	fc.Decision = d
	if d.ShortCircuited() {
		fc.Halted = true
	}
	return nil
}
