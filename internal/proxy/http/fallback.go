package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tkingovr/noisegate/api"
	"github.com/tkingovr/noisegate/internal/filter"
	"github.com/tkingovr/noisegate/internal/metrics"
)

// NotFoundBody is the JSON body of an unmatched API fallback request.
type NotFoundBody struct {
	Message string `json:"message"`
}

// APIFallback is the terminal handler for API paths nothing else serves.
// It only looks at the URL; the request body is never read.
type APIFallback struct {
	chain   *filter.Chain
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewAPIFallback creates the fallback handler. m may be nil.
func NewAPIFallback(chain *filter.Chain, m *metrics.Metrics, logger *slog.Logger) *APIFallback {
	return &APIFallback{chain: chain, metrics: m, logger: logger}
}

func (h *APIFallback) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fc := filter.FromRequest(api.EntrypointAPIFallback, r)
	if err := h.chain.Process(r.Context(), fc); err != nil {
		h.logger.Error("api fallback chain error", "path", fc.Path, "error", err)
	}

	if d := fc.Result(); d.ShortCircuited() {
		writeDecision(w, d)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordNotFound()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(NotFoundBody{Message: "Not found"})
}
