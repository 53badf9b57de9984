package crawler

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/Ferruolo/menuscan/internal/fetch"
)

// robotsAgent is the product token looked up in robots.txt. Sites without
// a group for it fall back to the "*" group.
const robotsAgent = "menuscan"

// robotsRules holds the robots.txt group that applies to one origin.
type robotsRules struct {
	origin string
	group  *robotstxt.Group
}

// loadRobots fetches origin/robots.txt. A missing or unreadable file allows
// everything, matching how browsers and most crawlers treat it.
func loadRobots(ctx context.Context, f fetch.Fetcher, origin string) *robotsRules {
	rules := &robotsRules{origin: strings.ToLower(origin)}

	var data *robotstxt.RobotsData
	resp, err := f.Fetch(ctx, strings.TrimRight(origin, "/")+"/robots.txt")
	switch {
	case err == nil:
		data, err = robotstxt.FromStatusAndBytes(resp.StatusCode, resp.Body)
	default:
		// 4xx means "no robots.txt"; server errors are treated as absent
		// rather than as a blanket disallow.
		var serr *fetch.StatusError
		if errors.As(err, &serr) && serr.StatusCode < 500 {
			data, err = robotstxt.FromStatusAndBytes(serr.StatusCode, nil)
		}
	}
	if err != nil || data == nil {
		return rules
	}

	rules.group = data.FindGroup(robotsAgent)
	return rules
}

// allowed reports whether rawURL may be fetched. URLs on other origins are
// not governed by these rules.
func (r *robotsRules) allowed(rawURL string) bool {
	if r == nil || r.group == nil {
		return true
	}

	origin, ok := Origin(rawURL)
	if !ok || strings.ToLower(origin) != r.origin {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return r.group.Test(p)
}

// crawlDelay returns the Crawl-delay directive, or zero.
func (r *robotsRules) crawlDelay() time.Duration {
	if r == nil || r.group == nil {
		return 0
	}
	return r.group.CrawlDelay
}
