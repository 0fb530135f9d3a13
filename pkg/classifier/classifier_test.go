package classifier

import (
	"strings"
	"testing"

	"github.com/sahayak-ai/sahayak/pkg/models"
)

func TestNormalize(t *testing.T) {
	got := Normalize("  Mera Physics progress, kaisa hai?! ")
	want := "mera physics progress kaisa hai"
	if got != want {
		t.Errorf("Normalize() = %q, want %q", got, want)
	}
}

func TestTimeSensitiveKeywords(t *testing.T) {
	cases := []string{
		"aaj news",
		"what is the exam date today",
		"latest weather abhi",
	}
	for _, msg := range cases {
		c := Classify(msg, "")
		if c.Category != models.CategoryTimeSensitive {
			t.Errorf("Classify(%q) category = %s, want time_sensitive", msg, c.Category)
		}
		if c.Confidence < 0.5 {
			t.Errorf("Classify(%q) confidence = %f, want >= 0.5", msg, c.Confidence)
		}
	}
}

func TestAppDataScenario(t *testing.T) {
	c := Classify("Mera physics progress kaisa hai?", "")
	if c.Category != models.CategoryAppData {
		t.Fatalf("category = %s, want app_data", c.Category)
	}
	if c.Confidence <= 0.5 {
		t.Errorf("confidence = %f, want > 0.5", c.Confidence)
	}
}

func TestNoKeywordsDefaultsToGeneral(t *testing.T) {
	c := Classify("zzz qqq", "")
	if c.Category != models.CategoryGeneral {
		t.Errorf("category = %s, want general", c.Category)
	}
	if c.Confidence != 0.5 {
		t.Errorf("confidence = %f, want 0.5", c.Confidence)
	}
}

func TestTieFavorsGeneral(t *testing.T) {
	// "news" (time-sensitive, 3) vs "explain" (general, 3) score equally.
	c := Classify("explain news", "")
	if c.Category != models.CategoryGeneral {
		t.Errorf("category = %s, want general on tie", c.Category)
	}
}

func TestPartialMultiWordMatch(t *testing.T) {
	// "exam" and "date" present but not contiguous: 0.7 x 4 = 2.8,
	// still beating the general "?" adjustment.
	c := Classify("exam ki date?", "")
	if c.Category != models.CategoryTimeSensitive {
		t.Errorf("category = %s, want time_sensitive", c.Category)
	}
}

func TestConfidenceClamped(t *testing.T) {
	c := Classify("aaj today latest news weather live", "")
	if c.Confidence > 0.95 {
		t.Errorf("confidence = %f, want <= 0.95", c.Confidence)
	}
}

func TestChatTypeAdjustment(t *testing.T) {
	// No keywords at all; the chat type alone should tip app data.
	c := Classify("show me", "progress")
	if c.Category != models.CategoryAppData {
		t.Errorf("category = %s, want app_data from chat type", c.Category)
	}
}

func TestUrgencyWords(t *testing.T) {
	c := Classify("jaldi batao aaj ka schedule", "")
	if c.Category != models.CategoryTimeSensitive {
		t.Errorf("category = %s, want time_sensitive with urgency word", c.Category)
	}
}

func TestLongMessageLeansGeneral(t *testing.T) {
	long := strings.Repeat("padhna likhna seekhna ", 8)
	c := Classify(long, "")
	if c.Category != models.CategoryGeneral {
		t.Errorf("category = %s, want general", c.Category)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	first := Classify("mera progress aaj", "doubt")
	for range 10 {
		if got := Classify("mera progress aaj", "doubt"); got != first {
			t.Fatalf("Classify returned %+v then %+v", first, got)
		}
	}
}
