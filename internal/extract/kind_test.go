package extract

import "testing"

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		url         string
		want        Kind
	}{
		{"html", "text/html; charset=utf-8", "https://a.com/", KindHTML},
		{"xhtml", "application/xhtml+xml", "https://a.com/", KindHTML},
		{"pdf", "application/pdf", "https://a.com/menu", KindPDF},
		{"png", "image/png", "https://a.com/x", KindImage},
		{"uppercase type", "Image/JPEG", "https://a.com/x", KindImage},
		{"octet stream pdf by extension", "application/octet-stream", "https://a.com/menu.PDF", KindPDF},
		{"missing type image by extension", "", "https://a.com/specials.webp?v=1", KindImage},
		{"missing type page", "", "https://a.com/about", KindHTML},
		{"json", "application/json", "https://a.com/api", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Detect(tt.contentType, tt.url); got != tt.want {
				t.Errorf("Detect(%q, %q) = %v, want %v", tt.contentType, tt.url, got, tt.want)
			}
		})
	}
}
