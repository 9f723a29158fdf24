package policy

import (
	"context"

	"github.com/tkingovr/noisegate/api"
)

// Engine maps a classified request to a response decision.
type Engine interface {
	// Decide returns the decision for the input. It never returns a nil
	// decision without an error.
	Decide(ctx context.Context, input *EvalInput) (*api.Decision, error)

	// Reload reloads the policy from its source (file, remote, etc.).
	Reload(ctx context.Context) error
}
