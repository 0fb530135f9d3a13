// Package classifier assigns an inbound message to a query category so the
// orchestrator can pick the right provider fallback chain. Classification is
// pure string scoring: no I/O, no shared state.
package classifier

import (
	"strings"

	"github.com/sahayak-ai/sahayak/pkg/models"
)

// pattern is a weighted keyword or phrase. Multi-word phrases that appear
// only word-by-word (not as a contiguous phrase) score at 0.7x weight.
type pattern struct {
	text   string
	weight float64
}

// The three keyword sets are disjoint. Students write in English, Hindi and
// Hinglish, so each set carries both scripts' romanized forms.
var timeSensitivePatterns = []pattern{
	{"today", 3}, {"aaj", 3}, {"abhi", 3}, {"right now", 3}, {"now", 1},
	{"latest", 3}, {"current", 2}, {"news", 3}, {"weather", 3},
	{"live", 2}, {"kal", 2}, {"tomorrow", 2}, {"this week", 2},
	{"exam date", 4}, {"result date", 4}, {"deadline", 3},
	{"admit card", 4}, {"notification", 2}, {"schedule", 2},
	{"kab hai", 3}, {"kab aayega", 3},
}

var appDataPatterns = []pattern{
	{"progress", 4}, {"my score", 4}, {"mera score", 4}, {"marks", 3},
	{"test result", 4}, {"performance", 3}, {"attendance", 3},
	{"streak", 3}, {"leaderboard", 3}, {"rank", 2}, {"report card", 4},
	{"completed", 2}, {"pending", 2}, {"assignment status", 4},
	{"mera", 2}, {"meri", 2}, {"kitna padha", 4}, {"improvement", 3},
	{"weak topics", 4}, {"strong topics", 4},
}

var generalPatterns = []pattern{
	{"explain", 3}, {"samjhao", 3}, {"what is", 2}, {"kya hai", 2},
	{"how to", 2}, {"kaise", 2}, {"why", 2}, {"kyu", 2},
	{"define", 3}, {"concept", 3}, {"formula", 3}, {"example", 2},
	{"solve", 3}, {"difference between", 3}, {"meaning", 2},
	{"theorem", 3}, {"derivation", 3}, {"batao", 1},
}

var urgencyWords = []string{"urgent", "jaldi", "asap", "quickly", "immediately", "turant"}

const (
	partialMatchFactor = 0.7
	maxConfidence      = 0.95
)

// Normalize lowercases a message and strips punctuation, collapsing runs of
// whitespace to single spaces. Shared with the response cache so that two
// requests differing only in punctuation hash identically.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127:
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Classify scores a message against the three keyword sets and returns the
// winning category with a confidence in [0, 0.95]. Ties favor General; a
// message matching nothing is General at 0.5.
func Classify(message, chatType string) models.Classification {
	normalized := Normalize(message)

	ts := scorePatterns(normalized, timeSensitivePatterns)
	ad := scorePatterns(normalized, appDataPatterns)
	gen := scorePatterns(normalized, generalPatterns)

	// Context adjustments. Small and additive so keyword evidence dominates.
	switch chatType {
	case "progress", "report":
		ad += 1.5
	case "doubt", "concept":
		gen += 1
	case "updates":
		ts += 1
	}
	if strings.Contains(message, "?") {
		gen += 0.5
	}
	if len(normalized) > 120 {
		gen += 0.5
	}
	for _, w := range urgencyWords {
		if containsWord(normalized, w) {
			ts += 1
			break
		}
	}

	total := ts + ad + gen
	if total <= 0 {
		return models.Classification{Category: models.CategoryGeneral, Confidence: 0.5}
	}

	category := models.CategoryGeneral
	winning := gen
	if ts > winning {
		category = models.CategoryTimeSensitive
		winning = ts
	}
	if ad > winning {
		category = models.CategoryAppData
		winning = ad
	}

	confidence := winning / total
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	return models.Classification{Category: category, Confidence: confidence}
}

func scorePatterns(normalized string, patterns []pattern) float64 {
	var score float64
	for _, p := range patterns {
		if containsPhrase(normalized, p.text) {
			score += p.weight
			continue
		}
		words := strings.Fields(p.text)
		if len(words) < 2 {
			continue
		}
		all := true
		for _, w := range words {
			if !containsWord(normalized, w) {
				all = false
				break
			}
		}
		if all {
			score += p.weight * partialMatchFactor
		}
	}
	return score
}

// containsPhrase reports whether phrase occurs on word boundaries.
func containsPhrase(s, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		startOK := start == 0 || s[start-1] == ' '
		endOK := end == len(s) || s[end] == ' '
		if startOK && endOK {
			return true
		}
		idx = start + 1
		if idx >= len(s) {
			return false
		}
	}
}

func containsWord(s, word string) bool {
	return containsPhrase(s, word)
}
