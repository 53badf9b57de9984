package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// Page records one URL processed during a crawl session.
type Page struct {
	// URL is the normalized URL that was popped from the frontier.
	URL string `json:"url"`

	// Kind is the content family the page was handled as
	// ("html", "pdf", "image", "reservation").
	Kind string `json:"kind"`

	// StatusCode is the HTTP response status code. Zero when the page was
	// not fetched (reservation widgets) or the fetch failed.
	StatusCode int `json:"status_code,omitempty"`

	// ContentType is the raw Content-Type header.
	ContentType string `json:"content_type,omitempty"`

	// Title is the page title. Empty for non-HTML content.
	Title string `json:"title,omitempty"`

	// Links is the number of internal links admitted from this page.
	Links int `json:"links"`

	// Images is the number of images whose text was recognized.
	Images int `json:"images"`

	// TextBytes is the length of the text this page contributed.
	TextBytes int `json:"text_bytes"`

	// Duplicate is true when the page's text block had already been
	// appended by an earlier page.
	Duplicate bool `json:"duplicate,omitempty"`

	// Hash is the SHA-256 of the page's extracted text.
	Hash string `json:"hash,omitempty"`
}

// ComputeHash sets Hash to the SHA-256 of text.
func (p *Page) ComputeHash(text string) {
	if text == "" {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256([]byte(text))
	p.Hash = hex.EncodeToString(hash[:])
}
