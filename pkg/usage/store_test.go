package usage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sahayak-ai/sahayak/pkg/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "usage_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestWriteBatchAndSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entries := []models.UsageEntry{
		{UserID: "u1", Provider: "openai", Model: "gpt-4o-mini", TokensIn: 10, TokensOut: 20, Success: true, QueryCategory: models.CategoryGeneral, Tier: 1},
		{UserID: "u1", Provider: "openai", Model: "gpt-4o-mini", TokensIn: 5, TokensOut: 15, Success: true, QueryCategory: models.CategoryGeneral, Tier: 1},
		{UserID: "u1", Provider: "anthropic", ErrorMessage: "timeout", QueryCategory: models.CategoryAppData, Tier: 2},
		{UserID: "u2", Provider: "openai", TokensIn: 1, TokensOut: 2, Success: true, QueryCategory: models.CategoryTimeSensitive, Tier: 1},
	}
	if err := s.WriteBatch(ctx, entries); err != nil {
		t.Fatal(err)
	}

	all, err := s.Summary(ctx, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("summary groups = %d, want 3", len(all))
	}

	byUser, err := s.Summary(ctx, "u1", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(byUser) != 2 {
		t.Fatalf("u1 groups = %d, want 2", len(byUser))
	}
	for _, sum := range byUser {
		switch sum.Provider {
		case "openai":
			if sum.RequestCount != 2 || sum.Successes != 2 || sum.Failures != 0 {
				t.Errorf("openai summary = %+v", sum)
			}
			if sum.TotalIn != 15 || sum.TotalOut != 35 {
				t.Errorf("openai tokens = %d/%d, want 15/35", sum.TotalIn, sum.TotalOut)
			}
		case "anthropic":
			if sum.RequestCount != 1 || sum.Successes != 0 || sum.Failures != 1 {
				t.Errorf("anthropic summary = %+v", sum)
			}
		default:
			t.Errorf("unexpected provider %q", sum.Provider)
		}
	}

	both, err := s.Summary(ctx, "u2", "openai")
	if err != nil {
		t.Fatal(err)
	}
	if len(both) != 1 || both[0].RequestCount != 1 {
		t.Errorf("filtered summary = %+v", both)
	}
}

func TestWriteBatchEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := s.WriteBatch(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
}

func TestSummaryEmptyStore(t *testing.T) {
	s := newTestStore(t)
	sums, err := s.Summary(context.Background(), "", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 0 {
		t.Errorf("summaries = %d, want 0", len(sums))
	}
}
