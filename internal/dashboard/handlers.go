package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/tkingovr/noisegate/api"
)

var errAuditDisabled = errors.New("audit log is disabled")

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	stats, err := s.stats(r)
	if err != nil {
		http.Error(w, "failed to get stats", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Page":         "overview",
		"Mode":         s.cfg.Mode,
		"Target":       s.cfg.Target,
		"AuditEnabled": s.auditStore != nil,
		"Stats":        stats,
	}
	renderPage(w, "overview", data)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	var records []*api.AuditRecord
	if s.auditStore != nil {
		var err error
		records, err = s.auditStore.Query(r.Context(), api.QueryFilter{Limit: 100})
		if err != nil {
			http.Error(w, "failed to query audit log", http.StatusInternalServerError)
			return
		}
	}

	// Reverse to show newest first
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	data := map[string]any{
		"Page":         "audit",
		"AuditEnabled": s.auditStore != nil,
		"Records":      records,
	}
	renderPage(w, "audit", data)
}

func (s *Server) handleAuditStream(w http.ResponseWriter, r *http.Request) {
	if s.auditStore == nil {
		http.Error(w, errAuditDisabled.Error(), http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// Subscribed before headers are flushed.
	ch, cancel := s.auditStore.Subscribe(r.Context())
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case record, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: audit\ndata: %s\n\n", renderAuditRow(record))
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	configYAML, _ := s.cfg.MarshalYAML()

	data := map[string]any{
		"Page":       "config",
		"ConfigYAML": string(configYAML),
		"Config":     s.cfg,
	}
	renderPage(w, "config", data)
}

func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats(r)
	if err != nil {
		http.Error(w, "failed to get stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAPIRecords(w http.ResponseWriter, r *http.Request) {
	if s.auditStore == nil {
		http.Error(w, errAuditDisabled.Error(), http.StatusServiceUnavailable)
		return
	}

	f, err := parseQueryFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	records, err := s.auditStore.Query(r.Context(), f)
	if err != nil {
		http.Error(w, "failed to query audit log", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*api.AuditRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleAPIClassify(w http.ResponseWriter, r *http.Request) {
	var req api.ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := s.dryRun.Classify(r.Context(), req)
	if err != nil {
		http.Error(w, "classify error: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// stats returns empty stats when auditing is disabled.
func (s *Server) stats(r *http.Request) (*api.AuditStats, error) {
	if s.auditStore == nil {
		return &api.AuditStats{
			ByCategory:   map[api.Category]int{},
			ByEntrypoint: map[api.Entrypoint]int{},
			ByStatus:     map[int]int{},
		}, nil
	}
	return s.auditStore.Stats(r.Context())
}

func parseQueryFilter(r *http.Request) (api.QueryFilter, error) {
	q := r.URL.Query()
	f := api.QueryFilter{Limit: 100}

	if v := q.Get("entrypoint"); v != "" {
		e, ok := api.ParseEntrypoint(v)
		if !ok {
			return f, fmt.Errorf("unknown entrypoint %q", v)
		}
		f.Entrypoint = e
	}
	if v := q.Get("category"); v != "" {
		f.Category = api.Category(v)
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &f.Limit}, {"offset", &f.Offset}} {
		if v := q.Get(p.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return f, fmt.Errorf("invalid %s %q", p.name, v)
			}
			*p.dst = n
		}
	}
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"since", &f.Since}, {"until", &f.Until}} {
		if v := q.Get(p.name); v != "" {
			ts, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return f, fmt.Errorf("invalid %s %q: %w", p.name, v, err)
			}
			*p.dst = ts
		}
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func renderAuditRow(record *api.AuditRecord) string {
	target := record.RedirectTo
	if target == "" {
		target = "-"
	}
	return fmt.Sprintf(
		`<tr class="border-b border-gray-700 hover:bg-gray-800"><td class="px-4 py-2 text-gray-400 text-xs">%s</td><td class="px-4 py-2">%s</td><td class="px-4 py-2 font-mono text-sm">%s</td><td class="px-4 py-2"><span class="px-2 py-1 rounded text-xs font-bold %s">%s</span></td><td class="px-4 py-2">%d</td><td class="px-4 py-2 text-gray-400 text-xs">%s</td></tr>`,
		record.Timestamp.Format(time.RFC3339),
		escapeHTML(string(record.Entrypoint)),
		escapeHTML(truncate(record.Path, 80)),
		categoryColor(record.Category),
		escapeHTML(string(record.Category)),
		record.Status,
		escapeHTML(target),
	)
}

func categoryColor(c api.Category) string {
	switch c {
	case api.CategoryHotUpdate:
		return "bg-blue-900 text-blue-300"
	case api.CategoryWellKnownOrDevtools:
		return "bg-purple-900 text-purple-300"
	case api.CategorySockjsOrWebpackInternal:
		return "bg-green-900 text-green-300"
	case api.CategoryMisroutedFavicon:
		return "bg-yellow-900 text-yellow-300"
	case api.CategoryNextInternal:
		return "bg-red-900 text-red-300"
	default:
		return "bg-gray-700 text-gray-300"
	}
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

func escapeHTML(s string) string {
	return template.HTMLEscapeString(s)
}
