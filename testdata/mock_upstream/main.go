// mock_upstream is a stand-in development server for trying noisegate by hand.
// It answers every request with a JSON description of what it received,
// so requests that noisegate suppressed never show up in its log.
//
// Usage: go run ./testdata/mock_upstream -listen :3001
package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
)

type echoResponse struct {
	Method        string `json:"method"`
	Path          string `json:"path"`
	Query         string `json:"query,omitempty"`
	Host          string `json:"host"`
	ForwardedHost string `json:"forwarded_host,omitempty"`
	Hits          int64  `json:"hits"`
}

func main() {
	listen := flag.String("listen", ":3001", "listen address")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	var hits atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/x-icon")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		logger.Info("upstream request", "method", r.Method, "path", r.URL.Path, "hits", n)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(echoResponse{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Host:          r.Host,
			ForwardedHost: r.Header.Get("X-Forwarded-Host"),
			Hits:          n,
		})
	})

	logger.Info("mock upstream listening", "addr", *listen)
	if err := http.ListenAndServe(*listen, mux); err != nil {
		logger.Error("mock upstream stopped", "error", err)
		os.Exit(1)
	}
}
