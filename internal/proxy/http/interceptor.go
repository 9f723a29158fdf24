package http

import (
	"log/slog"
	"net/http"

	"github.com/tkingovr/noisegate/api"
	"github.com/tkingovr/noisegate/internal/filter"
)

// Interceptor runs the global interceptor chain ahead of normal routing.
type Interceptor struct {
	chain  *filter.Chain
	logger *slog.Logger
}

// NewInterceptor creates an interceptor around the given chain.
func NewInterceptor(chain *filter.Chain, logger *slog.Logger) *Interceptor {
	return &Interceptor{chain: chain, logger: logger}
}

// Wrap returns a handler that answers noise requests directly and forwards
// everything else to next unchanged.
func (i *Interceptor) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fc := filter.FromRequest(api.EntrypointInterceptor, r)
		if err := i.chain.Process(r.Context(), fc); err != nil {
			// The decision is still valid; only a sink failed.
			i.logger.Error("interceptor chain error", "path", fc.Path, "error", err)
		}

		d := fc.Result()
		if !d.ShortCircuited() {
			next.ServeHTTP(w, r)
			return
		}
		i.logger.Debug("request suppressed",
			"path", fc.Path,
			"category", fc.Category,
			"status", d.Status,
		)
		writeDecision(w, d)
	})
}
