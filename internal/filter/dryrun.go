package filter

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tkingovr/noisegate/api"
)

// DryRunner classifies paths without touching metrics or the audit log.
type DryRunner struct {
	mode   api.Mode
	chains map[api.Entrypoint]*Chain
}

// NewDryRunner builds dry-run chains for both entrypoints.
func NewDryRunner(cfg ChainConfig) (*DryRunner, error) {
	chains, err := BuildDryRunChains(cfg)
	if err != nil {
		return nil, err
	}
	return &DryRunner{mode: cfg.Mode, chains: chains}, nil
}

// Classify runs req through the chain of its entrypoint, the interceptor
// when none is given.
func (d *DryRunner) Classify(ctx context.Context, req api.ClassifyRequest) (*api.ClassifyResponse, error) {
	if req.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	entrypoint := req.Entrypoint
	if entrypoint == "" {
		entrypoint = api.EntrypointInterceptor
	}
	chain, ok := d.chains[entrypoint]
	if !ok {
		return nil, fmt.Errorf("unknown entrypoint %q", entrypoint)
	}

	// The live interceptor sees only the URL path; the API fallback sees
	// the path plus query.
	path := req.Path
	if entrypoint == api.EntrypointInterceptor {
		u, err := url.ParseRequestURI(req.Path)
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", req.Path, err)
		}
		path = u.Path
	}

	fc := NewFilterContext(entrypoint, path, req.Host)
	fc.Method = "GET"
	fc.Scheme = "http"
	if err := chain.Process(ctx, fc); err != nil {
		return nil, err
	}
	return &api.ClassifyResponse{
		Mode:     d.mode,
		Excluded: fc.Excluded,
		Category: fc.Category,
		Decision: fc.Result(),
	}, nil
}
