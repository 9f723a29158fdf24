package policy

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tkingovr/noisegate/api"
)

const (
	faviconPath  = "/favicon.ico"
	jsonEmptyObj = "{}"
)

// BuiltinEngine is the fixed category-to-response table.
type BuiltinEngine struct{}

// NewBuiltinEngine returns the built-in response policy.
func NewBuiltinEngine() *BuiltinEngine { return &BuiltinEngine{} }

// Decide never fails.
func (BuiltinEngine) Decide(_ context.Context, input *EvalInput) (*api.Decision, error) {
	return Decide(input), nil
}

func (BuiltinEngine) Reload(context.Context) error { return nil }

// Decide applies the built-in table to input.
func Decide(input *EvalInput) *api.Decision {
	var d *api.Decision
	switch input.Category {
	case api.CategoryHotUpdate:
		// Hot-update polls get an empty JSON object.
		d = &api.Decision{
			Action:      api.ActionShortCircuit,
			Status:      http.StatusOK,
			Body:        jsonEmptyObj,
			ContentType: "application/json",
		}
	case api.CategoryWellKnownOrDevtools,
		api.CategorySockjsOrWebpackInternal,
		api.CategoryNextInternal:
		d = &api.Decision{Action: api.ActionShortCircuit, Status: http.StatusNoContent}
	case api.CategoryMisroutedFavicon:
		d = &api.Decision{
			Action:     api.ActionShortCircuit,
			Status:     http.StatusTemporaryRedirect,
			RedirectTo: FaviconURL(input.Scheme, input.Host),
		}
	default:
		d = api.Pass()
	}
	d.Source = SourceBuiltin
	return d
}

// FaviconURL returns /favicon.ico on the request's origin. Without a host
// the redirect stays relative.
func FaviconURL(scheme, host string) string {
	if host == "" {
		return faviconPath
	}
	if scheme == "" {
		scheme = "http"
	}
	u := url.URL{Scheme: scheme, Host: host, Path: faviconPath}
	return u.String()
}
