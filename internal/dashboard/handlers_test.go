package dashboard

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkingovr/noisegate/api"
	"github.com/tkingovr/noisegate/internal/audit"
	"github.com/tkingovr/noisegate/internal/config"
	"github.com/tkingovr/noisegate/internal/filter"
	"github.com/tkingovr/noisegate/internal/metrics"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Mode = api.ModeDevelopment
	cfg.Target = "http://localhost:3001"
	return cfg
}

func testServer(t *testing.T, withAudit bool) (*Server, audit.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()

	var store audit.Store
	if withAudit {
		s, err := audit.NewJSONLStore(t.TempDir())
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		store = s
	}

	dryRun, err := filter.NewDryRunner(filter.ChainConfig{Mode: cfg.Mode, Logger: logger})
	require.NoError(t, err)

	m := metrics.New()
	m.RecordSuppressed("interceptor", string(api.CategoryHotUpdate), 200)

	return NewServer(cfg, store, dryRun, m, logger), store
}

func writeRecord(t *testing.T, store audit.Store, path string, cat api.Category, status int) {
	t.Helper()
	record := &api.AuditRecord{
		Timestamp:  time.Now(),
		Entrypoint: api.EntrypointInterceptor,
		Path:       path,
		Category:   cat,
		Action:     api.ActionShortCircuit,
		Status:     status,
	}
	if status == http.StatusTemporaryRedirect {
		record.RedirectTo = "http://localhost:3000/favicon.ico"
	}
	require.NoError(t, store.Write(context.Background(), record))
}

func TestOverviewPage(t *testing.T) {
	s, store := testServer(t, true)
	writeRecord(t, store, "/sockjs-node/info", api.CategorySockjsOrWebpackInternal, 204)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "noisegate")
	assert.Contains(t, body, "development")
	assert.Contains(t, body, "sockjs_or_webpack_internal")
	assert.NotContains(t, body, "Audit log is disabled")
}

func TestOverviewPage_AuditDisabled(t *testing.T) {
	s, _ := testServer(t, false)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Audit log is disabled")
}

func TestUnknownPage(t *testing.T) {
	s, _ := testServer(t, true)
	req := httptest.NewRequest("GET", "/nope", nil)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuditPage(t *testing.T) {
	s, store := testServer(t, true)
	writeRecord(t, store, "/a/b/favicon.ico", api.CategoryMisroutedFavicon, 307)

	req := httptest.NewRequest("GET", "/audit", nil)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Suppressed Requests")
	assert.Contains(t, w.Body.String(), "/a/b/favicon.ico")
}

func TestConfigPage(t *testing.T) {
	s, _ := testServer(t, true)
	req := httptest.NewRequest("GET", "/config", nil)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Active Configuration")
	assert.Contains(t, body, "/_next/static/**")
	assert.Contains(t, body, "built-in")
}

func TestAPIStats(t *testing.T) {
	s, store := testServer(t, true)
	writeRecord(t, store, "/x.webpack.hot-update.json", api.CategoryHotUpdate, 200)
	writeRecord(t, store, "/a/favicon.ico", api.CategoryMisroutedFavicon, 307)

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var stats api.AuditStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, 2, stats.TotalSuppressed)
	assert.Equal(t, 1, stats.Redirects)
	assert.Equal(t, 1, stats.ByCategory[api.CategoryHotUpdate])
	assert.Equal(t, 2, stats.ByEntrypoint[api.EntrypointInterceptor])
}

func TestAPIStats_AuditDisabled(t *testing.T) {
	s, _ := testServer(t, false)
	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var stats api.AuditStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Zero(t, stats.TotalSuppressed)
}

func TestAPIRecords(t *testing.T) {
	s, store := testServer(t, true)
	writeRecord(t, store, "/x.webpack.hot-update.json", api.CategoryHotUpdate, 200)
	writeRecord(t, store, "/sockjs-node", api.CategorySockjsOrWebpackInternal, 204)

	req := httptest.NewRequest("GET", "/api/v1/records?category=hot_update", nil)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var records []*api.AuditRecord
	require.NoError(t, json.NewDecoder(w.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, "/x.webpack.hot-update.json", records[0].Path)
}

func TestAPIRecords_BadQuery(t *testing.T) {
	s, _ := testServer(t, true)
	for _, q := range []string{"limit=-1", "offset=x", "since=yesterday", "entrypoint=middleware"} {
		req := httptest.NewRequest("GET", "/api/v1/records?"+q, nil)
		w := httptest.NewRecorder()
		s.mux.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestAPIRecords_AuditDisabled(t *testing.T) {
	s, _ := testServer(t, false)
	req := httptest.NewRequest("GET", "/api/v1/records", nil)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAPIClassify(t *testing.T) {
	s, _ := testServer(t, true)

	body := `{"path":"/some/favicon.ico","host":"localhost:3000"}`
	req := httptest.NewRequest("POST", "/api/v1/classify", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.ClassifyResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, api.CategoryMisroutedFavicon, resp.Category)
	require.NotNil(t, resp.Decision)
	assert.Equal(t, http.StatusTemporaryRedirect, resp.Decision.Status)
	assert.Equal(t, "http://localhost:3000/favicon.ico", resp.Decision.RedirectTo)
}

func TestAPIClassify_APIEntrypoint(t *testing.T) {
	s, _ := testServer(t, true)

	body := `{"path":"/api/__nextjs_launch-editor","entrypoint":"api"}`
	req := httptest.NewRequest("POST", "/api/v1/classify", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.ClassifyResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, api.CategoryNextInternal, resp.Category)
	assert.Equal(t, http.StatusNoContent, resp.Decision.Status)
}

func TestAPIClassify_BadRequest(t *testing.T) {
	s, _ := testServer(t, true)
	for _, body := range []string{`not json`, `{}`, `{"path":"/x","entrypoint":"nope"}`} {
		req := httptest.NewRequest("POST", "/api/v1/classify", strings.NewReader(body))
		w := httptest.NewRecorder()
		s.mux.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := testServer(t, true)
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "noisegate_suppressed_total")
}

func TestAuditStream(t *testing.T) {
	s, store := testServer(t, true)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/audit/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	writeRecord(t, store, "/__webpack_hmr", api.CategorySockjsOrWebpackInternal, 204)

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: audit\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "/__webpack_hmr")
}

func TestAuditStream_AuditDisabled(t *testing.T) {
	s, _ := testServer(t, false)
	req := httptest.NewRequest("GET", "/audit/stream", nil)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
