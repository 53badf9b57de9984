package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestHTMLExtractor_Extract(t *testing.T) {
	t.Parallel()

	page := `<!DOCTYPE html>
<html>
<head>
  <title> Luigi's Trattoria </title>
  <style>body { color: red; }</style>
  <script>var tracking = "do not index";</script>
</head>
<body>
  <h1>Dinner Menu</h1>
  <p>Margherita   pizza
     $14</p>
  <noscript>Enable JavaScript</noscript>
  <a href="/menu">Menu</a>
  <a href="hours.html#today">Hours</a>
  <a href="https://www.toasttab.com/luigis">Order online</a>
  <a href="mailto:info@luigis.com">Email</a>
  <a href="#top">Top</a>
  <a href="">Empty</a>
  <img src="/img/specials.png">
  <img src="https://cdn.example.com/logo.jpg">
</body>
</html>`

	e := NewHTMLExtractor()
	result, err := e.Extract([]byte(page), "https://luigis.com/about/", "text/html; charset=utf-8")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("title", func(t *testing.T) {
		t.Parallel()
		if result.Title != "Luigi's Trattoria" {
			t.Errorf("expected title, got %q", result.Title)
		}
	})

	t.Run("visible text only", func(t *testing.T) {
		t.Parallel()
		if !strings.Contains(result.Text, "Dinner Menu") {
			t.Errorf("expected heading in text, got %q", result.Text)
		}
		if !strings.Contains(result.Text, "Margherita pizza $14") {
			t.Errorf("expected whitespace-normalized paragraph, got %q", result.Text)
		}
		for _, hidden := range []string{"do not index", "color: red", "Enable JavaScript", "Luigi's Trattoria"} {
			if strings.Contains(result.Text, hidden) {
				t.Errorf("text should not contain %q, got %q", hidden, result.Text)
			}
		}
	})

	t.Run("raw links in document order", func(t *testing.T) {
		t.Parallel()
		want := []string{"/menu", "hours.html#today", "https://www.toasttab.com/luigis", "mailto:info@luigis.com", "#top"}
		if len(result.RawLinks) != len(want) {
			t.Fatalf("expected %d raw links, got %v", len(want), result.RawLinks)
		}
		for i := range want {
			if result.RawLinks[i] != want[i] {
				t.Errorf("raw link %d: expected %q, got %q", i, want[i], result.RawLinks[i])
			}
		}
	})

	t.Run("images", func(t *testing.T) {
		t.Parallel()
		want := []string{"https://luigis.com/img/specials.png", "https://cdn.example.com/logo.jpg"}
		if len(result.Images) != len(want) {
			t.Fatalf("expected %d images, got %v", len(want), result.Images)
		}
		for i := range want {
			if result.Images[i] != want[i] {
				t.Errorf("image %d: expected %q, got %q", i, want[i], result.Images[i])
			}
		}
	})
}

func TestHTMLExtractor_Charset(t *testing.T) {
	t.Parallel()

	// "Crème brûlée" in ISO-8859-1.
	body := []byte("<html><body><p>Cr\xe8me br\xfbl\xe9e</p></body></html>")

	result, err := NewHTMLExtractor().Extract(body, "https://a.com/", "text/html; charset=iso-8859-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "Crème brûlée" {
		t.Errorf("expected decoded text, got %q", result.Text)
	}
}

func TestHTMLExtractor_BaseHref(t *testing.T) {
	t.Parallel()

	body := []byte(`<html><head><base href="https://a.com/site/"></head><body><a href="menu">m</a><img src="img/board.jpg"></body></html>`)

	result, err := NewHTMLExtractor().Extract(body, "https://a.com/", "text/html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Images) != 1 || result.Images[0] != "https://a.com/site/img/board.jpg" {
		t.Errorf("expected image resolved against base href, got %v", result.Images)
	}
	if len(result.RawLinks) != 1 || result.RawLinks[0] != "menu" {
		t.Errorf("expected raw href untouched, got %v", result.RawLinks)
	}
}

func TestHTMLExtractor_NoTitle(t *testing.T) {
	t.Parallel()

	result, err := NewHTMLExtractor().Extract([]byte("<p>hello</p>"), "https://a.com/", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "" {
		t.Errorf("expected empty title, got %q", result.Title)
	}
	if result.Text != "hello" {
		t.Errorf("expected text hello, got %q", result.Text)
	}
}

func TestHTMLExtractor_InvalidPageURL(t *testing.T) {
	t.Parallel()

	_, err := NewHTMLExtractor().Extract([]byte("<p>x</p>"), "://bad", "text/html")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("expected ErrExtractionFailed, got %v", err)
	}
}
