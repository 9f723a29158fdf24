package api

import (
	"strings"
	"time"
)

// Mode is the runtime mode the gate was started in.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// ParseMode maps a raw mode string to a Mode. Anything other than
// "development" is production, so an unset or misspelled flag leaves the
// gate inert.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeDevelopment)) {
		return ModeDevelopment
	}
	return ModeProduction
}

// Category is the noise category assigned to a request path.
type Category string

const (
	CategoryNone                    Category = "none"
	CategoryHotUpdate               Category = "hot_update"
	CategoryWellKnownOrDevtools     Category = "well_known_or_devtools"
	CategorySockjsOrWebpackInternal Category = "sockjs_or_webpack_internal"
	CategoryMisroutedFavicon        Category = "misrouted_favicon"
	CategoryNextInternal            Category = "next_internal"
)

// Categories lists every category, None last.
func Categories() []Category {
	return []Category{
		CategoryHotUpdate,
		CategoryWellKnownOrDevtools,
		CategorySockjsOrWebpackInternal,
		CategoryMisroutedFavicon,
		CategoryNextInternal,
		CategoryNone,
	}
}

// Action is what an entrypoint does with a request.
type Action string

const (
	ActionPass         Action = "pass"
	ActionShortCircuit Action = "short_circuit"
)

// Entrypoint identifies where a request was intercepted.
type Entrypoint string

const (
	EntrypointInterceptor Entrypoint = "interceptor" // global request interceptor
	EntrypointAPIFallback Entrypoint = "api"         // catch-all API handler
)

// ParseEntrypoint returns the entrypoint named by s.
func ParseEntrypoint(s string) (Entrypoint, bool) {
	switch Entrypoint(s) {
	case EntrypointInterceptor, EntrypointAPIFallback:
		return Entrypoint(s), true
	}
	return "", false
}

// Decision is the response shape chosen for a request. A Decision is
// built once and never modified.
type Decision struct {
	Action      Action `json:"action"`
	Status      int    `json:"status,omitempty"`
	Body        string `json:"body,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	RedirectTo  string `json:"redirect_to,omitempty"`

	// Source names the policy that produced the decision.
	Source string `json:"source,omitempty"`
}

// Pass returns the decision that forwards a request untouched.
func Pass() *Decision {
	return &Decision{Action: ActionPass}
}

// ShortCircuited reports whether the decision answers the request directly.
func (d *Decision) ShortCircuited() bool {
	return d != nil && d.Action == ActionShortCircuit
}

// AuditRecord is a single suppressed request.
type AuditRecord struct {
	ID         string        `json:"id"`
	Timestamp  time.Time     `json:"timestamp"`
	Entrypoint Entrypoint    `json:"entrypoint"`
	Method     string        `json:"method,omitempty"`
	Host       string        `json:"host,omitempty"`
	Path       string        `json:"path"`
	Category   Category      `json:"category"`
	Action     Action        `json:"action"`
	Status     int           `json:"status,omitempty"`
	RedirectTo string        `json:"redirect_to,omitempty"`
	Source     string        `json:"source,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// ClassifyRequest is used by the CLI `check` command and the admin API.
type ClassifyRequest struct {
	Path       string     `json:"path"`
	Host       string     `json:"host,omitempty"`
	Entrypoint Entrypoint `json:"entrypoint,omitempty"`
}

// ClassifyResponse is the result of a dry-run classification.
type ClassifyResponse struct {
	Mode     Mode      `json:"mode"`
	Excluded bool      `json:"excluded,omitempty"`
	Category Category  `json:"category"`
	Decision *Decision `json:"decision"`
}
