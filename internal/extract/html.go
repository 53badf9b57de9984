package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Result is the output of an extractor.
type Result struct {
	// Title is the page title, empty for documents without one.
	Title string

	// Text is the extracted plain text.
	Text string

	// RawLinks are anchor hrefs exactly as they appear in the page, in
	// document order. The crawler normalizes these itself.
	RawLinks []string

	// Images are img sources resolved against the page URL, or its
	// <base href> when present. Sources that cannot be fetched, such as
	// data: URIs, are skipped.
	Images []string
}

// skippedElements never contribute visible text.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

// blockElements get a line break after their text so words from adjacent
// menu items do not run together.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "footer": true,
	"table": true, "ul": true, "ol": true, "dd": true, "dt": true,
}

// HTMLExtractor extracts text and links from HTML pages.
type HTMLExtractor struct{}

// NewHTMLExtractor creates an HTMLExtractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract parses body as HTML. contentType is used to pick the character
// set; pages without a declared charset are sniffed.
func (e *HTMLExtractor) Extract(body []byte, pageURL, contentType string) (*Result, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid page URL %q: %w", ErrExtractionFailed, pageURL, err)
	}

	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: decode charset: %w", ErrExtractionFailed, err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %w", ErrExtractionFailed, err)
	}

	// A <base href> changes how relative links resolve.
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if u, err := base.Parse(strings.TrimSpace(href)); err == nil {
			base = u
		}
	}

	result := &Result{
		Title:    strings.TrimSpace(doc.Find("title").First().Text()),
		RawLinks: make([]string, 0),
		Images:   make([]string, 0),
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" {
			return
		}
		result.RawLinks = append(result.RawLinks, href)
	})

	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if resolved := resolveURL(base, src); resolved != "" {
			result.Images = append(result.Images, resolved)
		}
	})

	var text strings.Builder
	for _, n := range doc.Nodes {
		visibleText(n, &text)
	}
	result.Text = tidyLines(text.String())

	return result, nil
}

// visibleText appends the text nodes under n, skipping script-like elements.
func visibleText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		if s := strings.TrimSpace(n.Data); s != "" {
			b.WriteString(strings.Join(strings.Fields(s), " "))
			b.WriteString(" ")
		}
		return
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visibleText(c, b)
	}

	if n.Type == html.ElementNode && blockElements[n.Data] {
		b.WriteString("\n")
	}
}

// resolveURL resolves href against base. It returns "" for targets that
// cannot be fetched.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(u)
	resolved.Fragment = ""
	return resolved.String()
}
