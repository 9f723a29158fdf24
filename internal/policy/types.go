package policy

import "github.com/tkingovr/noisegate/api"

// EvalInput is the input to a response policy evaluation.
type EvalInput struct {
	Entrypoint api.Entrypoint `json:"entrypoint"`
	Category   api.Category   `json:"category"`
	Method     string         `json:"method,omitempty"`
	Path       string         `json:"path"`
	Host       string         `json:"host,omitempty"`
	Scheme     string         `json:"scheme,omitempty"`
}

// Source names reported on decisions.
const (
	SourceBuiltin = "builtin"
	SourceRego    = "rego"
)
