package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sahayak-ai/sahayak/pkg/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleConfig = `
listen: ":9090"
db_path: "/tmp/sahayak.db"
providers:
  - name: openai
    type: openai
    url: https://api.openai.com
    api_key: ${TEST_OPENAI_KEY}
    model: gpt-4o-mini
    tier: 1
    rate_limit:
      requests: 500
      per: minute
  - name: anthropic
    type: anthropic
    model: claude-3-5-haiku-latest
    tier: 2
chains:
  time_sensitive: [openai, anthropic]
  app_data: [anthropic, openai]
  general: [openai]
cache:
  enabled: true
  ttl: 10m
retry:
  max_retries: 5
  initial_backoff: 100ms
`

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-test-123")
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("listen = %q", cfg.Listen)
	}
	p, ok := cfg.Provider("openai")
	if !ok {
		t.Fatal("openai provider missing")
	}
	if p.APIKey != "sk-test-123" {
		t.Errorf("api key = %q, want expanded env value", p.APIKey)
	}
	if p.RateLimit.Requests != 500 || p.RateLimit.Per != "minute" {
		t.Errorf("rate limit = %+v", p.RateLimit)
	}
	if cfg.Retry.MaxRetries != 5 || cfg.Retry.InitialBackoff != 100*time.Millisecond {
		t.Errorf("retry = %+v", cfg.Retry)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("cache ttl = %v", cfg.Cache.TTL)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "listen: \":7070\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("max retries = %d, want default 3", cfg.Retry.MaxRetries)
	}
	if cfg.Health.CheckInterval != 5*time.Minute {
		t.Errorf("check interval = %v, want default 5m", cfg.Health.CheckInterval)
	}
	if cfg.Usage.BatchSize != 10 || cfg.Usage.MaxBacklog != 50 {
		t.Errorf("usage = %+v", cfg.Usage)
	}
}

func TestLoadRejectsDuplicateProvider(t *testing.T) {
	content := `
providers:
  - name: openai
  - name: openai
`
	_, err := Load(writeConfig(t, content))
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("err = %v, want duplicate provider error", err)
	}
}

func TestLoadRejectsUnknownWindow(t *testing.T) {
	content := `
providers:
  - name: openai
    rate_limit:
      requests: 10
      per: fortnight
`
	_, err := Load(writeConfig(t, content))
	if err == nil || !strings.Contains(err.Error(), "window") {
		t.Errorf("err = %v, want unknown window error", err)
	}
}

func TestLoadRejectsUnknownChainProvider(t *testing.T) {
	content := `
providers:
  - name: openai
chains:
  general: [mystery]
`
	_, err := Load(writeConfig(t, content))
	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Errorf("err = %v, want unknown chain provider error", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestChainFor(t *testing.T) {
	c := ChainConfig{
		TimeSensitive: []string{"a"},
		AppData:       []string{"b"},
		General:       []string{"c"},
	}
	if got := c.For(models.CategoryTimeSensitive); len(got) != 1 || got[0] != "a" {
		t.Errorf("time sensitive chain = %v", got)
	}
	if got := c.For(models.CategoryAppData); len(got) != 1 || got[0] != "b" {
		t.Errorf("app data chain = %v", got)
	}
	if got := c.For(models.CategoryGeneral); len(got) != 1 || got[0] != "c" {
		t.Errorf("general chain = %v", got)
	}
	if got := c.For(models.Category("wat")); len(got) != 1 || got[0] != "c" {
		t.Errorf("unknown category chain = %v, want general", got)
	}
}
