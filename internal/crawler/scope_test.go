package crawler

import "testing"

func TestOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://site.com/menu?x=1", "https://site.com", true},
		{"http://127.0.0.1:8080/a", "http://127.0.0.1:8080", true},
		{"/relative/path", "", false},
		{"site.com/menu", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := Origin(tt.url)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Origin(%q) = (%q, %v), want (%q, %v)", tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestIsInternal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		base string
		want bool
	}{
		{"same origin", "https://site.com/menu", "https://site.com", true},
		{"different host", "https://evil.com/x", "https://site.com", false},
		{"case-insensitive host", "https://SITE.com/menu", "https://site.com", true},
		{"scheme differs", "http://site.com/menu", "https://site.com", false},
		{"subdomain differs", "https://order.site.com/", "https://site.com", false},
		{"allow-listed widget origin", "https://www.toasttab.com/luigis", "https://site.com", true},
		{"no determinable origin passes through", "menu.html", "https://site.com", true},
		{"unknown base fails closed", "menu.html", "not a url", false},
		{"unknown base rejects absolute", "https://site.com/menu", "not a url", false},
		{"unknown base still allows widget", "https://www.toasttab.com/x", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IsInternal(tt.url, tt.base); got != tt.want {
				t.Errorf("IsInternal(%q, %q) = %v, want %v", tt.url, tt.base, got, tt.want)
			}
		})
	}
}

func TestScope_CustomAllowList(t *testing.T) {
	t.Parallel()

	s := NewScope("https://luigis.com/", []string{"https://order.luigis.com", "not an origin"})

	if !s.IsInternal("https://order.luigis.com/cart") {
		t.Error("expected configured origin to be internal")
	}
	if s.IsInternal("https://www.toasttab.com/luigis") {
		t.Error("default widget origin should not apply when an allow-list is given")
	}
	if !s.IsInternal("HTTPS://LUIGIS.COM/menu") {
		t.Error("expected base origin to be compared case-insensitively")
	}

	empty := NewScope("https://luigis.com", []string{})
	if empty.IsInternal("https://www.toasttab.com/luigis") {
		t.Error("empty allow-list should allow only the base origin")
	}
}
