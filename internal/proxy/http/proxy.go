package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Routes configures which paths the API fallback answers.
type Routes struct {
	// APIPrefix is the path prefix handled by the API fallback.
	APIPrefix string

	// APIPassthrough lists prefixes under APIPrefix that the upstream
	// serves itself.
	APIPassthrough []string
}

// Proxy is an HTTP reverse proxy that sits in front of a development
// server and suppresses tooling noise before routing.
type Proxy struct {
	target       *url.URL
	reverseProxy *httputil.ReverseProxy
	fallback     http.Handler
	routes       Routes
	handler      http.Handler
	logger       *slog.Logger
}

// NewProxy creates a new proxy targeting the given URL.
func NewProxy(target string, interceptor *Interceptor, fallback *APIFallback, routes Routes, logger *slog.Logger) (*Proxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid target URL %q: scheme and host are required", target)
	}

	p := &Proxy{
		target:   u,
		fallback: fallback,
		routes:   routes,
		logger:   logger,
	}

	rp := httputil.NewSingleHostReverseProxy(u)
	director := rp.Director
	rp.Director = func(req *http.Request) {
		origHost := req.Host
		director(req)
		req.Header.Set("X-Forwarded-Host", origHost)
		req.Host = u.Host
	}
	rp.ErrorHandler = p.errorHandler
	p.reverseProxy = rp

	// The interceptor runs first, like framework middleware, then the
	// request is routed to the fallback or the upstream.
	p.handler = interceptor.Wrap(http.HandlerFunc(p.route))

	return p, nil
}

// ServeHTTP handles incoming HTTP requests.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.handler.ServeHTTP(w, r)
}

func (p *Proxy) route(w http.ResponseWriter, r *http.Request) {
	if p.isFallback(r.URL.Path) {
		p.fallback.ServeHTTP(w, r)
		return
	}
	p.reverseProxy.ServeHTTP(w, r)
}

func (p *Proxy) isFallback(path string) bool {
	if p.fallback == nil || p.routes.APIPrefix == "" {
		return false
	}
	if !strings.HasPrefix(path, p.routes.APIPrefix) {
		return false
	}
	for _, prefix := range p.routes.APIPassthrough {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

func (p *Proxy) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Error("proxy error", "error", err, "url", r.URL.String())
	http.Error(w, "proxy error: "+err.Error(), http.StatusBadGateway)
}

// Handler returns the proxy wrapped with HTTP tracing.
func (p *Proxy) Handler() http.Handler {
	return otelhttp.NewHandler(p, "noisegate.proxy")
}

// ListenAndServe starts the proxy server and stops it when ctx is done.
func (p *Proxy) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: p.Handler(),
	}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	p.logger.Info("starting noisegate proxy",
		"listen", addr,
		"target", p.target.String(),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
