package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Ferruolo/menuscan/internal/frontier"
	"github.com/Ferruolo/menuscan/internal/membership"
)

// TestNewConfig documents the defaults; a failing case means a default
// changed.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default Bound is 200", func(t *testing.T) {
		t.Parallel()
		if cfg.Bound != 200 {
			t.Errorf("expected Bound to be 200, got %d", cfg.Bound)
		}
	})

	t.Run("default order is breadth first", func(t *testing.T) {
		t.Parallel()
		if cfg.TraversalOrder() != frontier.BreadthFirst {
			t.Errorf("expected bfs, got %q", cfg.Order)
		}
	})

	t.Run("default filter mode is multi-probe", func(t *testing.T) {
		t.Parallel()
		if cfg.MembershipMode() != membership.ModeMultiProbe {
			t.Errorf("expected multi-probe, got %q", cfg.FilterMode)
		}
	})

	t.Run("default MaxAttempts is 3", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxAttempts != 3 {
			t.Errorf("expected MaxAttempts to be 3, got %d", cfg.MaxAttempts)
		}
	})

	t.Run("default DBDir is the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("robots and browser are off", func(t *testing.T) {
		t.Parallel()
		if cfg.Robots || cfg.UseBrowser {
			t.Error("expected robots and browser to be disabled by default")
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"https://luigis.com"}
		return cfg
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		if err := validConfig().Validate(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("list file alone is a target", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Targets = nil
		cfg.ListFile = "restaurants.csv"
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"no target", func(c *Config) { c.Targets = nil }, ErrNoTarget},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative budget", func(c *Config) { c.Budget = -time.Second }, ErrInvalidBudget},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"zero bound", func(c *Config) { c.Bound = 0 }, ErrInvalidBound},
		{"unknown order", func(c *Config) { c.Order = "random" }, ErrInvalidOrder},
		{"unknown filter mode", func(c *Config) { c.FilterMode = "cuckoo" }, ErrInvalidFilterMode},
		{"json and markdown", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
		{"negative delay", func(c *Config) { c.CrawlDelay = -time.Millisecond }, ErrInvalidCrawlDelay},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }, ErrInvalidRetries},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, ErrInvalidRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("zero budget disables it", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Budget = 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})
}

func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	skip := true

	t.Run("returns defaults when site not found", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: SiteConfig{Bound: 300, Order: "dfs"},
			Sites:    map[string]SiteConfig{},
		}

		cfg := file.GetSiteConfig("unknown.com")
		if cfg.Bound != 300 || cfg.Order != "dfs" {
			t.Errorf("expected defaults, got %+v", cfg)
		}
	})

	t.Run("returns site-specific config", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: SiteConfig{Bound: 300},
			Sites: map[string]SiteConfig{
				"luigis.com": {Bound: 500, SkipImages: &skip},
			},
		}

		cfg := file.GetSiteConfig("luigis.com")
		if cfg.Bound != 500 {
			t.Errorf("expected bound 500, got %d", cfg.Bound)
		}
		if !cfg.SkipsImages(false) {
			t.Error("expected images to be skipped")
		}
	})

	t.Run("matches URLs and www hosts", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Sites: map[string]SiteConfig{
				"www.luigis.com": {MaxPages: 7},
			},
		}

		for _, site := range []string{"https://luigis.com/menu", "LUIGIS.COM", "http://www.luigis.com"} {
			if got := file.GetSiteConfig(site).MaxPages; got != 7 {
				t.Errorf("GetSiteConfig(%q).MaxPages = %d, want 7", site, got)
			}
		}
	})

	t.Run("merges headers from defaults and site", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: SiteConfig{
				Headers: map[string]string{"X-Default": "value1"},
			},
			Sites: map[string]SiteConfig{
				"luigis.com": {
					Headers: map[string]string{"X-Custom": "value2"},
				},
			},
		}

		cfg := file.GetSiteConfig("luigis.com")
		if cfg.Headers["X-Default"] != "value1" || cfg.Headers["X-Custom"] != "value2" {
			t.Errorf("expected merged headers, got %v", cfg.Headers)
		}
		if _, leaked := file.Defaults.Headers["X-Custom"]; leaked {
			t.Error("merging must not modify the defaults")
		}
	})

	t.Run("empty allowed origins override defaults", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: SiteConfig{AllowedOrigins: []string{"https://www.toasttab.com"}},
			Sites: map[string]SiteConfig{
				"luigis.com": {AllowedOrigins: []string{}},
			},
		}

		cfg := file.GetSiteConfig("luigis.com")
		if cfg.AllowedOrigins == nil || len(cfg.AllowedOrigins) != 0 {
			t.Errorf("expected an explicit empty allow-list, got %v", cfg.AllowedOrigins)
		}
	})

	t.Run("site patterns override defaults", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: SiteConfig{
				IgnorePatterns: []string{"/default/*"},
			},
			Sites: map[string]SiteConfig{
				"luigis.com": {IgnorePatterns: []string{"/gift-cards/*"}},
			},
		}

		cfg := file.GetSiteConfig("luigis.com")
		if len(cfg.IgnorePatterns) != 1 || cfg.IgnorePatterns[0] != "/gift-cards/*" {
			t.Errorf("expected site ignore patterns, got %v", cfg.IgnorePatterns)
		}
	})

	t.Run("unset skipImages falls back", func(t *testing.T) {
		t.Parallel()

		var sc SiteConfig
		if !sc.SkipsImages(true) || sc.SkipsImages(false) {
			t.Error("expected fallback value when unset")
		}
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.menuscan")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".menuscan")
		content := `defaults:
  bound: 300
  reservationOrigins:
    - https://www.toasttab.com
    - https://www.opentable.com
sites:
  luigis.com:
    order: dfs
    skipImages: true
    headers:
      Accept-Language: "it-IT"
    allowedOrigins:
      - https://order.luigis.com
    ignorePatterns:
      - "/gift-cards/*"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Defaults.Bound != 300 {
			t.Errorf("expected default bound 300, got %d", cfg.Defaults.Bound)
		}
		if len(cfg.Defaults.ReservationOrigins) != 2 {
			t.Errorf("expected 2 reservation origins, got %v", cfg.Defaults.ReservationOrigins)
		}

		site := cfg.GetSiteConfig("https://luigis.com/")
		if site.Order != "dfs" || site.Bound != 300 {
			t.Errorf("unexpected merged site config: %+v", site)
		}
		if !site.SkipsImages(false) {
			t.Error("expected skipImages to be read")
		}
		if site.Headers["Accept-Language"] != "it-IT" {
			t.Errorf("expected header, got %v", site.Headers)
		}
		if len(site.AllowedOrigins) != 1 {
			t.Errorf("expected 1 allowed origin, got %v", site.AllowedOrigins)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".menuscan")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("rejects an unknown order", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".menuscan")
		content := "sites:\n  luigis.com:\n    order: sideways\n"
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfigFile(configPath)
		if !errors.Is(err, ErrInvalidOrder) {
			t.Fatalf("expected ErrInvalidOrder, got %v", err)
		}
		if !strings.Contains(err.Error(), "luigis.com") {
			t.Errorf("expected the site in the error, got %v", err)
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".menuscan")
		if err := os.WriteFile(configPath, []byte("defaults:\n  bound: 25\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
	} {
		if filepath.Base(dir) != AppName {
			t.Errorf("expected XDG %s dir to end in %q, got %q", name, AppName, dir)
		}
	}
}

func TestLoadConfigFile_UnknownKey(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), ".menuscan")
	if err := os.WriteFile(configPath, []byte("defaults:\n  maxPage: 5\n"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadConfigFile(configPath); err == nil {
		t.Error("expected error for misspelled key")
	}
}

func TestLoadConfigFile_Empty(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), ".menuscan")
	if err := os.WriteFile(configPath, nil, 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cf, err := LoadConfigFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cf.Sites == nil {
		t.Error("expected Sites map to be initialized")
	}
}

func TestFindConfigFile_Directory(t *testing.T) {
	t.Parallel()

	if result := FindConfigFile(t.TempDir()); result != "" {
		t.Errorf("expected a directory to be ignored, got %q", result)
	}
}
