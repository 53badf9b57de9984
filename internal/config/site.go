package config

import (
	"fmt"
	"maps"
	"net/url"
	"strings"

	"github.com/Ferruolo/menuscan/internal/frontier"
)

// SiteConfig holds crawl overrides for one restaurant website.
type SiteConfig struct {
	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Bound overrides the membership filter bound. Zero keeps the global value.
	Bound int `yaml:"bound,omitempty"`

	// Order overrides the traversal order ("bfs" or "dfs").
	Order string `yaml:"order,omitempty"`

	// MaxPages overrides the page cap. Zero keeps the global value.
	MaxPages int `yaml:"maxPages,omitempty"`

	// AllowedOrigins are extra origins treated as part of the site, such as
	// an ordering subdomain. When nil, the default widget origin applies.
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`

	// ReservationOrigins are widget origins cited in the text but never fetched.
	ReservationOrigins []string `yaml:"reservationOrigins,omitempty"`

	// SkipImages disables OCR of images for this site.
	SkipImages *bool `yaml:"skipImages,omitempty"`

	// IgnorePatterns are URL path patterns to skip during crawling.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns restrict crawling to matching URL paths.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .menuscan configuration file.
type File struct {
	// Sites maps hosts (e.g. "luigis.com") to their overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to all sites unless overridden per site.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// Validate checks the traversal orders named in the file.
func (cf *File) Validate() error {
	if cf.Defaults.Order != "" {
		if _, err := frontier.ParseOrder(cf.Defaults.Order); err != nil {
			return fmt.Errorf("defaults: %w", ErrInvalidOrder)
		}
	}
	for host, sc := range cf.Sites {
		if sc.Order != "" {
			if _, err := frontier.ParseOrder(sc.Order); err != nil {
				return fmt.Errorf("site %s: %w", host, ErrInvalidOrder)
			}
		}
		if sc.Bound < 0 {
			return fmt.Errorf("site %s: %w", host, ErrInvalidBound)
		}
	}
	return nil
}

// GetSiteConfig returns the configuration for a site, merging the
// site-specific entry over the defaults. site may be a host or a URL; a
// leading "www." is ignored when matching.
func (cf *File) GetSiteConfig(site string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	siteConfig, ok := cf.lookup(site)
	if !ok {
		return result
	}

	if siteConfig.Bound != 0 {
		result.Bound = siteConfig.Bound
	}
	if siteConfig.Order != "" {
		result.Order = siteConfig.Order
	}
	if siteConfig.MaxPages != 0 {
		result.MaxPages = siteConfig.MaxPages
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}
	if siteConfig.AllowedOrigins != nil {
		result.AllowedOrigins = siteConfig.AllowedOrigins
	}
	if siteConfig.ReservationOrigins != nil {
		result.ReservationOrigins = siteConfig.ReservationOrigins
	}
	if siteConfig.SkipImages != nil {
		result.SkipImages = siteConfig.SkipImages
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if len(siteConfig.FollowPatterns) > 0 {
		result.FollowPatterns = siteConfig.FollowPatterns
	}

	return result
}

func (cf *File) lookup(site string) (SiteConfig, bool) {
	host := siteHost(site)
	if sc, ok := cf.Sites[host]; ok {
		return sc, true
	}
	for key, sc := range cf.Sites {
		if siteHost(key) == host {
			return sc, true
		}
	}
	return SiteConfig{}, false
}

// siteHost reduces a URL or host to a lowercase host without "www.".
func siteHost(site string) string {
	s := strings.TrimSpace(site)
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			s = u.Hostname()
		}
	}
	s = strings.ToLower(s)
	return strings.TrimPrefix(s, "www.")
}

// SkipsImages reports whether image OCR is disabled, falling back to def
// when the file leaves it unset.
func (sc SiteConfig) SkipsImages(def bool) bool {
	if sc.SkipImages == nil {
		return def
	}
	return *sc.SkipImages
}
