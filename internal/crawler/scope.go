package crawler

import (
	"net/url"
	"strings"
)

// DefaultAllowedOrigin is the online-ordering widget origin that restaurant
// sites commonly link to. Links to it are treated as part of the site.
const DefaultAllowedOrigin = "https://www.toasttab.com"

// Origin returns the scheme://host of rawURL, or false when either part is
// missing.
func Origin(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return u.Scheme + "://" + u.Host, true
}

// Scope decides which links belong to the site being crawled.
//
// A link is internal when its origin equals the base origin or one of the
// allow-listed origins, compared case-insensitively. A link whose origin
// cannot be determined is passed through as internal, unless the base origin
// itself is unknown, in which case every link is external.
type Scope struct {
	base    string
	hasBase bool
	allowed map[string]struct{}
}

// NewScope creates a Scope rooted at the origin of seedURL. allow lists
// additional origins to treat as internal; nil means DefaultAllowedOrigin.
// Pass an empty, non-nil slice to allow nothing extra.
func NewScope(seedURL string, allow []string) Scope {
	if allow == nil {
		allow = []string{DefaultAllowedOrigin}
	}

	s := Scope{allowed: make(map[string]struct{}, len(allow))}
	if base, ok := Origin(seedURL); ok {
		s.base = strings.ToLower(base)
		s.hasBase = true
	}
	for _, a := range allow {
		if o, ok := Origin(a); ok {
			s.allowed[strings.ToLower(o)] = struct{}{}
		}
	}
	return s
}

// IsInternal reports whether rawURL should be crawled as part of the site.
func (s Scope) IsInternal(rawURL string) bool {
	origin, ok := Origin(rawURL)
	if !ok {
		return s.hasBase
	}
	origin = strings.ToLower(origin)

	if _, allowed := s.allowed[origin]; allowed {
		return true
	}
	if !s.hasBase {
		return false
	}
	return origin == s.base
}

// IsInternal reports whether rawURL belongs to the site at baseOrigin, with
// DefaultAllowedOrigin as the only extra allowed origin.
func IsInternal(rawURL, baseOrigin string) bool {
	return NewScope(baseOrigin, nil).IsInternal(rawURL)
}
