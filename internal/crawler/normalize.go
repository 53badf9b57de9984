package crawler

import "strings"

// Normalize turns a raw href into an absolute URL to crawl, joining relative
// paths onto baseURL. It reports false for links that are never crawled:
// empty strings, fragment-only links, the bare root "/", and mailto:, tel:,
// javascript: and data: targets.
//
// Absolute http(s) URLs are returned unchanged. Any other link has one
// leading "/" removed and is joined to baseURL, without its trailing
// slashes, by a single "/". The function is pure.
func Normalize(raw, baseURL string) (string, bool) {
	if raw == "" || raw == "/" || strings.HasPrefix(raw, "#") {
		return "", false
	}

	lower := strings.ToLower(raw)
	for _, prefix := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return "", false
		}
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw, true
	}

	rel := strings.TrimPrefix(raw, "/")
	if rel == "" {
		return "", false
	}

	return strings.TrimRight(baseURL, "/") + "/" + rel, true
}

// NormalizeAll normalizes every raw link against baseURL and drops rejected
// and repeated results. Duplicates are compared case-sensitively and the
// first occurrence keeps its position.
func NormalizeAll(raws []string, baseURL string) []string {
	out := make([]string, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))

	for _, raw := range raws {
		link, ok := Normalize(raw, baseURL)
		if !ok {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		out = append(out, link)
	}

	return out
}
