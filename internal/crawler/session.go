package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"

	"github.com/Ferruolo/menuscan/internal/extract"
	"github.com/Ferruolo/menuscan/internal/fetch"
	"github.com/Ferruolo/menuscan/internal/frontier"
	"github.com/Ferruolo/menuscan/internal/membership"
	"github.com/Ferruolo/menuscan/internal/model"
)

// errInterrupted reports that the session context ended while a URL was
// being processed.
var errInterrupted = errors.New("interrupted")

// session is the mutable state of one crawl. It is used by a single
// goroutine and never shared.
type session struct {
	spider    *Spider
	origin    string
	scope     Scope
	admission *frontier.Admission
	filter    *membership.Filter
	robots    *robotsRules
	delay     time.Duration

	text   strings.Builder
	blocks map[[blake2b.Size256]byte]struct{}
	images map[string]struct{}

	result *model.CrawlResult
}

func (s *Spider) newSession(seed, origin string) (*session, error) {
	filter, err := membership.New(s.bound, expectedEntries(s.bound), membership.WithMode(s.filterMode))
	if err != nil {
		return nil, fmt.Errorf("failed to create membership filter: %w", err)
	}

	sess := &session{
		spider:    s,
		origin:    origin,
		scope:     NewScope(origin, s.allowedOrigins),
		admission: frontier.NewAdmission(frontier.New(s.order), filter),
		filter:    filter,
		delay:     s.delay,
		blocks:    make(map[[blake2b.Size256]byte]struct{}),
		images:    make(map[string]struct{}),
		result: &model.CrawlResult{
			SeedURL:   seed,
			Origin:    origin,
			URLs:      make([]string, 0),
			Pages:     make([]model.Page, 0),
			State:     model.CrawlRunning,
			StartedAt: time.Now(),
		},
	}

	sess.admission.Admit(seed)
	s.metrics.Admitted()

	return sess, nil
}

// run pops URLs until the frontier drains, the page limit is reached or the
// context ends. Only an empty frontier yields CrawlDrained.
func (sess *session) run(ctx context.Context) error {
	s := sess.spider
	fr := sess.admission.Frontier()

	if s.robots {
		sess.robots = loadRobots(ctx, s.fetcher, sess.origin)
		if d := sess.robots.crawlDelay(); d > sess.delay {
			sess.delay = d
		}
	}

	for !fr.IsEmpty() {
		if err := ctx.Err(); err != nil {
			return sess.abort(err)
		}

		if s.maxPages > 0 && len(sess.result.URLs) >= s.maxPages {
			s.logger.Info("page limit reached", "seed", sess.result.SeedURL, "limit", s.maxPages, "pending", fr.Len())
			sess.result.State = model.CrawlTruncated
			return nil
		}

		link, err := fr.Pop()
		if err != nil {
			sess.result.State = model.CrawlAborted
			return err
		}

		if err := sess.process(ctx, link); err != nil {
			return sess.abort(ctx.Err())
		}

		// Politeness delay
		if sess.delay > 0 && !fr.IsEmpty() {
			select {
			case <-ctx.Done():
				return sess.abort(ctx.Err())
			case <-time.After(sess.delay):
			}
		}
	}

	sess.result.State = model.CrawlDrained
	return nil
}

func (sess *session) abort(cause error) error {
	sess.result.State = model.CrawlAborted
	sess.spider.logger.Warn("crawl aborted",
		"seed", sess.result.SeedURL,
		"visited", len(sess.result.URLs),
		"pending", sess.admission.Frontier().Len(),
		"error", cause,
	)
	if cause == nil {
		return ErrCrawlAborted
	}
	return fmt.Errorf("%w: %w", ErrCrawlAborted, cause)
}

// finish assembles the final text.
func (sess *session) finish() *model.CrawlResult {
	text := norm.NFC.String(sess.text.String())
	sess.result.Text = strings.TrimSpace(extract.CollapseBlankLines(text))
	sess.result.FinishedAt = time.Now()

	sess.spider.logger.Debug("session filter state",
		"seed", sess.result.SeedURL,
		"mode", sess.filter.Mode().String(),
		"fill_ratio", sess.filter.FillRatio(),
		"admitted", sess.admission.Admitted(),
		"rejected", sess.admission.Rejected(),
	)
	return sess.result
}

// process handles one popped URL. It returns errInterrupted when the
// context ended mid-way; the URL is then not recorded as visited.
func (sess *session) process(ctx context.Context, link string) error {
	s := sess.spider

	if sess.isReservation(link) {
		sess.text.WriteString("\n\n" + link)
		sess.record(model.Page{URL: link, Kind: "reservation"})
		return nil
	}

	if !sess.robots.allowed(link) {
		s.logger.Debug("skipping URL disallowed by robots.txt", "url", link)
		sess.result.Skipped = append(sess.result.Skipped, link)
		return nil
	}

	isPDF := fetch.IsPDF(ctx, s.fetcher, link)

	resp, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		if ctx.Err() != nil {
			return errInterrupted
		}
		sess.fail(link, "fetch", err)
		sess.record(model.Page{URL: link, Kind: "failed"})
		return nil
	}

	kind := extract.Detect(resp.ContentType, resp.URL)
	if isPDF {
		kind = extract.KindPDF
	}

	page := model.Page{
		URL:         link,
		Kind:        kind.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.ContentType,
	}

	switch kind {
	case extract.KindHTML:
		err = sess.processHTML(ctx, resp, &page)
	case extract.KindPDF:
		err = sess.processPDF(resp, &page)
	case extract.KindImage:
		err = sess.processImage(ctx, resp, &page)
	default:
		s.logger.Debug("no extractor for content", "url", link, "content_type", resp.ContentType)
	}

	if errors.Is(err, errInterrupted) {
		return err
	}
	if err != nil {
		sess.fail(link, "extract", err)
	}
	sess.record(page)
	return nil
}

func (sess *session) processHTML(ctx context.Context, resp *fetch.Response, page *model.Page) error {
	s := sess.spider

	res, err := s.html.Extract(resp.Body, resp.URL, resp.ContentType)
	s.metrics.Extraction(extract.KindHTML.String(), err == nil)
	if err != nil {
		return err
	}

	page.Title = res.Title
	block := res.Text
	if res.Title != "" {
		block = res.Title + "\n" + res.Text
	}
	sess.appendBlock(block, page)

	for _, link := range NormalizeAll(res.RawLinks, sess.origin) {
		if !sess.scope.IsInternal(link) || !s.shouldCrawl(link) {
			continue
		}
		if sess.admission.Admit(link) {
			page.Links++
			s.metrics.Admitted()
		}
	}

	if !s.followImages {
		return nil
	}

	for _, img := range res.Images {
		if _, done := sess.images[img]; done {
			continue
		}
		sess.images[img] = struct{}{}

		if err := sess.ocrImage(ctx, img, page); err != nil {
			return err
		}
	}

	return nil
}

// ocrImage fetches an image referenced by a page and appends its text.
// Failures are annotated against the image URL.
func (sess *session) ocrImage(ctx context.Context, img string, page *model.Page) error {
	s := sess.spider

	resp, err := s.fetcher.Fetch(ctx, img)
	if err != nil {
		if ctx.Err() != nil {
			return errInterrupted
		}
		sess.fail(img, "fetch", err)
		return nil
	}

	res, err := s.ocr.Extract(ctx, resp.Body)
	s.metrics.Extraction(extract.KindImage.String(), err == nil)
	if err != nil {
		if ctx.Err() != nil {
			return errInterrupted
		}
		sess.fail(img, "ocr", err)
		return nil
	}

	page.Images++
	sess.appendBlock(res.Text, nil)
	return nil
}

func (sess *session) processPDF(resp *fetch.Response, page *model.Page) error {
	res, err := sess.spider.pdf.Extract(resp.Body)
	sess.spider.metrics.Extraction(extract.KindPDF.String(), err == nil)
	if err != nil {
		return err
	}
	sess.appendBlock(res.Text, page)
	return nil
}

func (sess *session) processImage(ctx context.Context, resp *fetch.Response, page *model.Page) error {
	res, err := sess.spider.ocr.Extract(ctx, resp.Body)
	sess.spider.metrics.Extraction(extract.KindImage.String(), err == nil)
	if err != nil {
		if ctx.Err() != nil {
			return errInterrupted
		}
		return err
	}
	page.Images++
	sess.appendBlock(res.Text, page)
	return nil
}

// appendBlock adds a text block unless an identical block was already
// added in this session.
func (sess *session) appendBlock(block string, page *model.Page) {
	block = strings.TrimSpace(extract.CollapseBlankLines(block))
	if block == "" {
		return
	}

	sum := blake2b.Sum256([]byte(block))
	if _, dup := sess.blocks[sum]; dup {
		if page != nil {
			page.Duplicate = true
		}
		return
	}
	sess.blocks[sum] = struct{}{}

	sess.text.WriteString("\n\n")
	sess.text.WriteString(block)

	if page != nil {
		page.TextBytes += len(block)
		page.ComputeHash(block)
	}
}

// fail records a per-URL failure and annotates the text.
func (sess *session) fail(link, stage string, err error) {
	f := model.PageFailure{URL: link, Stage: stage, Error: err.Error()}
	sess.result.Failures = append(sess.result.Failures, f)
	sess.text.WriteString(f.Annotation())
	sess.spider.logger.Debug("failed to process URL", "url", link, "stage", stage, "error", err)
}

func (sess *session) record(page model.Page) {
	sess.result.URLs = append(sess.result.URLs, page.URL)
	sess.result.Pages = append(sess.result.Pages, page)
}

func (sess *session) isReservation(link string) bool {
	origin, ok := Origin(link)
	if !ok {
		return false
	}
	for _, r := range sess.spider.reservationOrigins {
		if ro, ok := Origin(r); ok && strings.EqualFold(ro, origin) {
			return true
		}
	}
	return false
}
