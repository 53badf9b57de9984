package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Ferruolo/menuscan/internal/crawler"
	"github.com/Ferruolo/menuscan/internal/model"
)

// fakeCrawler returns canned results per seed.
type fakeCrawler struct {
	mu      sync.Mutex
	seeds   []string
	results map[string]*model.CrawlResult
	errs    map[string]error
	block   bool
}

func (f *fakeCrawler) Crawl(ctx context.Context, seed string) (*model.CrawlResult, error) {
	f.mu.Lock()
	f.seeds = append(f.seeds, seed)
	res, err := f.results[seed], f.errs[seed]
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return &model.CrawlResult{SeedURL: seed, State: model.CrawlAborted}, fmt.Errorf("%w: %w", crawler.ErrCrawlAborted, ctx.Err())
	}
	if res == nil && err == nil {
		res = &model.CrawlResult{SeedURL: seed, Text: "text of " + seed, URLs: []string{seed}, State: model.CrawlDrained}
	}
	return res, err
}

func (f *fakeCrawler) crawled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seeds...)
}

// memoryStore is an in-memory ResultStore, RecentChecker and KeyValueStore.
type memoryStore struct {
	mu      sync.Mutex
	results map[string]*model.CrawlResult
	recent  map[string]bool
	kv      map[string]string
	saveErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		results: make(map[string]*model.CrawlResult),
		recent:  make(map[string]bool),
		kv:      make(map[string]string),
	}
}

func (m *memoryStore) SaveCrawlResult(_ context.Context, id string, r *model.CrawlResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.results[id] = r
	return nil
}

func (m *memoryStore) HasRecentCrawl(_ context.Context, id string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recent[id], nil
}

func (m *memoryStore) Put(_ context.Context, k, v string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[k] = v
	return nil
}

func (m *memoryStore) Get(_ context.Context, k string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.kv[k]
	return v, ok, nil
}

func (m *memoryStore) saved(id string) *model.CrawlResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[id]
}

func TestCrawlStep(t *testing.T) {
	t.Parallel()

	t.Run("stores the result on the job", func(t *testing.T) {
		t.Parallel()

		step := NewCrawlStep(&fakeCrawler{}, quietLogger())
		job := newJob()
		if err := step.Do(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if job.Result == nil || job.Result.Text != "text of https://luigis.com" {
			t.Errorf("unexpected result %+v", job.Result)
		}
	})

	t.Run("budget exhaustion keeps partial result", func(t *testing.T) {
		t.Parallel()

		partial := &model.CrawlResult{Text: "partial", State: model.CrawlAborted}
		fc := &fakeCrawler{
			results: map[string]*model.CrawlResult{"https://luigis.com": partial},
			errs:    map[string]error{"https://luigis.com": fmt.Errorf("%w: %w", crawler.ErrCrawlAborted, context.DeadlineExceeded)},
		}

		job := newJob()
		if err := NewCrawlStep(fc, quietLogger()).Do(context.Background(), job); err != nil {
			t.Fatalf("expected partial result to be accepted, got %v", err)
		}
		if job.Result != partial {
			t.Error("expected the partial result on the job")
		}
	})

	t.Run("invalid seed fails", func(t *testing.T) {
		t.Parallel()

		fc := &fakeCrawler{errs: map[string]error{"https://luigis.com": crawler.ErrInvalidSeed}}
		err := NewCrawlStep(fc, quietLogger()).Do(context.Background(), newJob())
		if !errors.Is(err, crawler.ErrInvalidSeed) {
			t.Errorf("expected ErrInvalidSeed, got %v", err)
		}
	})
}

func TestStoreStep(t *testing.T) {
	t.Parallel()

	t.Run("saves result", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		job := newJob()
		job.Result = &model.CrawlResult{Text: "menu"}

		if err := NewStoreStep(store).Do(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if store.saved("b-1") != job.Result {
			t.Error("expected result to be saved under the business id")
		}
	})

	t.Run("no result is a no-op", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		store.saveErr = errors.New("should not be called")
		if err := NewStoreStep(store).Do(context.Background(), newJob()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("wraps store errors", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		store.saveErr = errors.New("disk full")
		job := newJob()
		job.Result = &model.CrawlResult{}

		err := NewStoreStep(store).Do(context.Background(), job)
		if !errors.Is(err, store.saveErr) {
			t.Errorf("expected wrapped store error, got %v", err)
		}
	})
}

func TestSkipRecentStep(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.recent["b-1"] = true
	step := NewSkipRecentStep(store, 24*time.Hour)

	job := newJob()
	if err := step.Do(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !job.Skipped {
		t.Error("expected recently crawled business to be skipped")
	}

	other := &Job{Business: model.Business{ID: "b-2"}}
	if err := step.Do(context.Background(), other); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.Skipped {
		t.Error("expected business without a recent crawl to proceed")
	}
}
