package filter

import (
	"net/http"
	"strings"
	"time"

	"github.com/tkingovr/noisegate/api"
	"github.com/tkingovr/noisegate/internal/policy"
)

// FilterContext carries all metadata through the filter chain for a single request.
type FilterContext struct {
	// Entrypoint is where the request was intercepted.
	Entrypoint api.Entrypoint

	Method string
	Host   string
	Scheme string

	// Path is the string the classifier inspects: the URL path for the
	// interceptor, the path plus query for the API fallback.
	Path string

	// Excluded is set when the exclusion matcher skipped classification.
	Excluded bool

	// Category is set by the ClassifyFilter.
	Category api.Category

	// Decision is set by the PolicyFilter (or the ExcludeFilter).
	Decision *api.Decision

	// StartTime records when the request entered the pipeline.
	StartTime time.Time

	// Halted indicates the decision is final.
	Halted bool
}

// NewFilterContext creates a new FilterContext for a path and host.
func NewFilterContext(entrypoint api.Entrypoint, path, host string) *FilterContext {
	return &FilterContext{
		Entrypoint: entrypoint,
		Path:       path,
		Host:       host,
		Category:   api.CategoryNone,
		StartTime:  time.Now(),
	}
}

// FromRequest creates a FilterContext for an HTTP request. The API
// fallback sees the request URI including its query string.
func FromRequest(entrypoint api.Entrypoint, r *http.Request) *FilterContext {
	path := r.URL.Path
	if entrypoint == api.EntrypointAPIFallback {
		path = r.URL.RequestURI()
	}
	fc := NewFilterContext(entrypoint, path, r.Host)
	fc.Method = r.Method
	fc.Scheme = requestScheme(r)
	return fc
}

// Result returns the final decision, Pass when none was made.
func (fc *FilterContext) Result() *api.Decision {
	if fc.Decision == nil {
		return api.Pass()
	}
	return fc.Decision
}

// EvalInput converts the filter context into a policy input.
func (fc *FilterContext) EvalInput() *policy.EvalInput {
	return &policy.EvalInput{
		Entrypoint: fc.Entrypoint,
		Category:   fc.Category,
		Method:     fc.Method,
		Path:       fc.Path,
		Host:       fc.Host,
		Scheme:     fc.Scheme,
	}
}

// ToAuditRecord converts the filter context into an audit record.
func (fc *FilterContext) ToAuditRecord() *api.AuditRecord {
	d := fc.Result()
	return &api.AuditRecord{
		Timestamp:  fc.StartTime,
		Entrypoint: fc.Entrypoint,
		Method:     fc.Method,
		Host:       fc.Host,
		Path:       fc.Path,
		Category:   fc.Category,
		Action:     d.Action,
		Status:     d.Status,
		RedirectTo: d.RedirectTo,
		Source:     d.Source,
		Duration:   time.Since(fc.StartTime),
	}
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
