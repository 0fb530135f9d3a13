package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sahayak-ai/sahayak/pkg/models"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache_test.db")
	c, err := New(dbPath, ttl)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testRequest() models.Request {
	return models.Request{
		UserID:         "student-1",
		ConversationID: "conv-1",
		Message:        "Explain Newton's second law",
	}
}

func TestHashRequestStable(t *testing.T) {
	h1 := HashRequest(testRequest())
	h2 := HashRequest(testRequest())
	if h1 != h2 {
		t.Error("same request should produce same hash")
	}
}

func TestHashIgnoresIrrelevantMetadata(t *testing.T) {
	a := testRequest()
	b := testRequest()
	// Punctuation, casing and context flags do not change the answer key.
	b.Message = "explain newton's second law!!"
	b.IncludeContext = true
	b.History = []models.ChatMessage{{Role: "user", Content: "earlier"}}
	if HashRequest(a) != HashRequest(b) {
		t.Error("requests differing only in irrelevant metadata should hash identically")
	}
}

func TestHashVariesOnRelevantFields(t *testing.T) {
	a := testRequest()
	b := testRequest()
	b.UserID = "student-2"
	if HashRequest(a) == HashRequest(b) {
		t.Error("different user should produce different hash")
	}

	c := testRequest()
	c.PreferredProvider = "anthropic"
	if HashRequest(a) == HashRequest(c) {
		t.Error("different preferred provider should produce different hash")
	}
}

func TestPutAndGet(t *testing.T) {
	c := newTestCache(t, time.Hour)
	req := testRequest()
	resp := &models.Response{
		Content:      "F = ma",
		ProviderUsed: "openai",
		ModelUsed:    "gpt-4o-mini",
		TierUsed:     1,
	}

	if err := c.Put(req, resp); err != nil {
		t.Fatal(err)
	}

	got, ok := c.Get(req)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Content != "F = ma" {
		t.Errorf("content = %q", got.Content)
	}
	if !got.Cached {
		t.Error("cache hit should set Cached=true")
	}

	other := testRequest()
	other.Message = "something entirely different"
	if _, ok := c.Get(other); ok {
		t.Error("expected miss for different message")
	}
}

func TestTTLExpiration(t *testing.T) {
	c := newTestCache(t, time.Millisecond)
	req := testRequest()

	if err := c.Put(req, &models.Response{Content: "stale"}); err != nil {
		t.Fatal(err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, ok := c.Get(req); ok {
		t.Error("expected miss after TTL expiration")
	}

	// The expired row must also be gone, not just hidden.
	stats, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 0 {
		t.Errorf("entries = %d, want 0 after expired read", stats.Entries)
	}
}

func TestStats(t *testing.T) {
	c := newTestCache(t, time.Hour)
	req := testRequest()

	_ = c.Put(req, &models.Response{Content: "x"})
	c.Get(req) // hit
	other := testRequest()
	other.Message = "no such entry"
	c.Get(other) // miss

	stats, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 {
		t.Errorf("entries = %d, want 1", stats.Entries)
	}
	if stats.Hits != 1 {
		t.Errorf("hits = %d, want 1", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("misses = %d, want 1", stats.Misses)
	}
}

func TestClear(t *testing.T) {
	c := newTestCache(t, time.Hour)

	a := testRequest()
	b := testRequest()
	b.Message = "another question"
	_ = c.Put(a, &models.Response{Content: "1"})
	_ = c.Put(b, &models.Response{Content: "2"})

	if err := c.Clear(false); err != nil {
		t.Fatal(err)
	}
	stats, _ := c.Stats()
	if stats.Entries != 0 {
		t.Errorf("entries = %d, want 0 after clear", stats.Entries)
	}
}
