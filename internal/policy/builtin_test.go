package policy

import (
	"context"
	"net/http"
	"testing"

	"github.com/tkingovr/noisegate/api"
)

func TestDecide_Table(t *testing.T) {
	tests := []struct {
		category api.Category
		action   api.Action
		status   int
		body     string
	}{
		{api.CategoryHotUpdate, api.ActionShortCircuit, http.StatusOK, "{}"},
		{api.CategoryWellKnownOrDevtools, api.ActionShortCircuit, http.StatusNoContent, ""},
		{api.CategorySockjsOrWebpackInternal, api.ActionShortCircuit, http.StatusNoContent, ""},
		{api.CategoryNextInternal, api.ActionShortCircuit, http.StatusNoContent, ""},
		{api.CategoryMisroutedFavicon, api.ActionShortCircuit, http.StatusTemporaryRedirect, ""},
		{api.CategoryNone, api.ActionPass, 0, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			d := Decide(&EvalInput{Category: tt.category, Host: "localhost:3000", Scheme: "http"})
			if d.Action != tt.action {
				t.Errorf("expected action %s, got %s", tt.action, d.Action)
			}
			if d.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, d.Status)
			}
			if d.Body != tt.body {
				t.Errorf("expected body %q, got %q", tt.body, d.Body)
			}
			if d.Source != SourceBuiltin {
				t.Errorf("expected builtin source, got %s", d.Source)
			}
		})
	}
}

func TestDecide_HotUpdateIsJSON(t *testing.T) {
	d := Decide(&EvalInput{Category: api.CategoryHotUpdate})
	if d.ContentType != "application/json" {
		t.Errorf("expected application/json, got %q", d.ContentType)
	}
}

func TestDecide_FaviconRedirectSameOrigin(t *testing.T) {
	d := Decide(&EvalInput{
		Category: api.CategoryMisroutedFavicon,
		Path:     "/some/path/favicon.ico",
		Host:     "localhost:3000",
		Scheme:   "https",
	})
	if d.RedirectTo != "https://localhost:3000/favicon.ico" {
		t.Errorf("unexpected redirect %q", d.RedirectTo)
	}
}

func TestFaviconURL(t *testing.T) {
	if got := FaviconURL("", ""); got != "/favicon.ico" {
		t.Errorf("expected relative redirect, got %q", got)
	}
	if got := FaviconURL("", "example.test"); got != "http://example.test/favicon.ico" {
		t.Errorf("expected http default, got %q", got)
	}
}

func TestBuiltinEngine(t *testing.T) {
	e := NewBuiltinEngine()
	d, err := e.Decide(context.Background(), &EvalInput{Category: api.CategorySockjsOrWebpackInternal})
	if err != nil {
		t.Fatal(err)
	}
	if !d.ShortCircuited() {
		t.Error("expected short circuit")
	}
	if err := e.Reload(context.Background()); err != nil {
		t.Errorf("reload: %v", err)
	}
}

func TestDecide_FreshValues(t *testing.T) {
	in := &EvalInput{Category: api.CategoryHotUpdate}
	a, b := Decide(in), Decide(in)
	if a == b {
		t.Fatal("expected distinct decision values")
	}
	if *a != *b {
		t.Errorf("expected equal decisions, got %+v and %+v", a, b)
	}
}
