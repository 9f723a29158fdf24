package filter

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkingovr/noisegate/api"
)

func newDryRunner(t *testing.T, mode api.Mode) *DryRunner {
	t.Helper()
	d, err := NewDryRunner(ChainConfig{
		Mode:   mode,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return d
}

func TestDryRunner_Classify(t *testing.T) {
	d := newDryRunner(t, api.ModeDevelopment)
	ctx := context.Background()

	resp, err := d.Classify(ctx, api.ClassifyRequest{Path: "/main.webpack.hot-update.json"})
	require.NoError(t, err)
	assert.Equal(t, api.ModeDevelopment, resp.Mode)
	assert.Equal(t, api.CategoryHotUpdate, resp.Category)
	assert.Equal(t, 200, resp.Decision.Status)
	assert.Equal(t, "{}", resp.Decision.Body)

	resp, err = d.Classify(ctx, api.ClassifyRequest{Path: "/a/favicon.ico", Host: "localhost:3000"})
	require.NoError(t, err)
	assert.Equal(t, api.CategoryMisroutedFavicon, resp.Category)
	assert.Equal(t, "http://localhost:3000/favicon.ico", resp.Decision.RedirectTo)

	resp, err = d.Classify(ctx, api.ClassifyRequest{Path: "/_next/static/sockjs-node.js"})
	require.NoError(t, err)
	assert.True(t, resp.Excluded)
	assert.Equal(t, api.CategoryNone, resp.Category)
	assert.Equal(t, api.ActionPass, resp.Decision.Action)
}

func TestDryRunner_InterceptorIgnoresQuery(t *testing.T) {
	d := newDryRunner(t, api.ModeDevelopment)
	ctx := context.Background()

	resp, err := d.Classify(ctx, api.ClassifyRequest{Path: "/api/x?y=sockjs-node"})
	require.NoError(t, err)
	assert.True(t, resp.Excluded)
	assert.Equal(t, api.ActionPass, resp.Decision.Action)

	resp, err = d.Classify(ctx, api.ClassifyRequest{Path: "/page?from=sockjs-node"})
	require.NoError(t, err)
	assert.False(t, resp.Excluded)
	assert.Equal(t, api.CategoryNone, resp.Category)

	resp, err = d.Classify(ctx, api.ClassifyRequest{Path: "/api/frame?src=sockjs-node", Entrypoint: api.EntrypointAPIFallback})
	require.NoError(t, err)
	assert.Equal(t, api.CategoryNextInternal, resp.Category)
}

func TestDryRunner_APIEntrypoint(t *testing.T) {
	d := newDryRunner(t, api.ModeDevelopment)

	resp, err := d.Classify(context.Background(), api.ClassifyRequest{
		Path:       "/api/__nextjs_original-stack-frame",
		Entrypoint: api.EntrypointAPIFallback,
	})
	require.NoError(t, err)
	assert.Equal(t, api.CategoryNextInternal, resp.Category)
	assert.Equal(t, 204, resp.Decision.Status)
	assert.False(t, resp.Excluded)
}

func TestDryRunner_Production(t *testing.T) {
	d := newDryRunner(t, api.ModeProduction)

	resp, err := d.Classify(context.Background(), api.ClassifyRequest{Path: "/sockjs-node/info"})
	require.NoError(t, err)
	assert.Equal(t, api.ModeProduction, resp.Mode)
	assert.Equal(t, api.CategoryNone, resp.Category)
	assert.Equal(t, api.ActionPass, resp.Decision.Action)
}

func TestDryRunner_Errors(t *testing.T) {
	d := newDryRunner(t, api.ModeDevelopment)
	ctx := context.Background()

	_, err := d.Classify(ctx, api.ClassifyRequest{})
	assert.Error(t, err)

	_, err = d.Classify(ctx, api.ClassifyRequest{Path: "/x", Entrypoint: "middleware"})
	assert.Error(t, err)

	_, err = d.Classify(ctx, api.ClassifyRequest{Path: "no-leading-slash"})
	assert.Error(t, err)
}
