package filter

import "testing"

func TestMatcher_Defaults(t *testing.T) {
	m, err := NewMatcher(DefaultExcludePatterns())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want bool
	}{
		{"/api", true},
		{"/api/auth/login", true},
		{"/_next/static/chunks/main.js", true},
		{"/_next/image/logo.png", true},
		{"/favicon.ico", true},
		{"/_next/data/build/index.json", false},
		{"/dashboard/favicon.ico", false},
		{"/apis", false},
		{"/", false},
	}
	for _, tt := range tests {
		if got := m.Match(tt.path); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestMatcher_InvalidPattern(t *testing.T) {
	if _, err := NewMatcher([]string{"/[a-"}); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestMatcher_Empty(t *testing.T) {
	m, err := NewMatcher(nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.Match("/api") {
		t.Error("empty matcher should match nothing")
	}
}
