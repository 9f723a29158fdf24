package http

import (
	"net/http"

	"github.com/tkingovr/noisegate/api"
)

// writeDecision writes a short-circuit decision as the HTTP response.
func writeDecision(w http.ResponseWriter, d *api.Decision) {
	if d.RedirectTo != "" {
		w.Header().Set("Location", d.RedirectTo)
		w.WriteHeader(d.Status)
		return
	}
	if d.Body == "" {
		w.WriteHeader(d.Status)
		return
	}
	if d.ContentType != "" {
		w.Header().Set("Content-Type", d.ContentType)
	}
	w.WriteHeader(d.Status)
	_, _ = w.Write([]byte(d.Body))
}
