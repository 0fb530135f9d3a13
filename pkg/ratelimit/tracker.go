// Package ratelimit tracks per-provider request quotas with sliding windows.
// Each provider plan defines one limiting dimension (requests per minute,
// hour, day or month); the tracker keeps raw timestamps so a partial window
// reflects real elapsed time rather than wall-clock-aligned buckets.
package ratelimit

import (
	"sort"
	"sync"
	"time"
)

// Status classifies how close a provider is to its quota.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
	StatusBlocked  Status = "blocked"
)

// Status thresholds as a percentage of the configured limit.
const (
	warningPct  = 80
	criticalPct = 95
)

// maxRetention is the largest window any plan can configure. Timestamps
// older than this are purged before every read so cross-dimension lookups
// stay correct.
const maxRetention = 30 * 24 * time.Hour

// Limit is one provider's configured quota.
type Limit struct {
	Requests int
	Window   time.Duration
}

// WindowDuration maps a config dimension name to its duration. A month is
// tracked as 30 days.
func WindowDuration(per string) time.Duration {
	switch per {
	case "minute":
		return time.Minute
	case "hour":
		return time.Hour
	case "day":
		return 24 * time.Hour
	case "month":
		return maxRetention
	default:
		return 0
	}
}

// Check is the result of a rate limit lookup.
type Check struct {
	Status    Status    `json:"status"`
	Usage     int       `json:"usage"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetTime time.Time `json:"reset_time"`
}

// window holds one provider's request history. Each window has its own
// mutex so concurrent requests to different providers never contend.
type window struct {
	mu     sync.Mutex
	stamps []time.Time
	tokens int64
}

// Tracker is a process-wide sliding-window request counter.
type Tracker struct {
	mu      sync.Mutex // guards the windows map, not the windows themselves
	windows map[string]*window
	limits  map[string]Limit
	now     func() time.Time
}

// New creates a Tracker with the given per-provider limits. Providers absent
// from limits are unlimited and always report healthy.
func New(limits map[string]Limit) *Tracker {
	if limits == nil {
		limits = make(map[string]Limit)
	}
	return &Tracker{
		windows: make(map[string]*window),
		limits:  limits,
		now:     time.Now,
	}
}

func (t *Tracker) window(provider string) *window {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.windows[provider]
	if !ok {
		w = &window{}
		t.windows[provider] = w
	}
	return w
}

// RecordRequest counts one request and its token usage against a provider.
func (t *Tracker) RecordRequest(provider string, tokens int) {
	w := t.window(provider)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.purge(t.now())
	w.stamps = append(w.stamps, t.now())
	w.tokens += int64(tokens)
}

// CheckRateLimit reports current usage against the provider's configured
// window. Blocked providers must be skipped by the caller without consuming
// a retry attempt.
func (t *Tracker) CheckRateLimit(provider string) Check {
	now := t.now()
	limit, limited := t.limits[provider]
	w := t.window(provider)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.purge(now)

	if !limited || limit.Requests <= 0 {
		return Check{Status: StatusHealthy, Remaining: -1, ResetTime: now}
	}

	cutoff := now.Add(-limit.Window)
	usage := 0
	var oldest time.Time
	for _, s := range w.stamps {
		if s.After(cutoff) {
			if usage == 0 {
				oldest = s
			}
			usage++
		}
	}

	remaining := limit.Requests - usage
	if remaining < 0 {
		remaining = 0
	}
	reset := now
	if usage > 0 {
		reset = oldest.Add(limit.Window)
	}

	pct := float64(usage) / float64(limit.Requests) * 100
	status := StatusHealthy
	switch {
	case pct >= 100:
		status = StatusBlocked
	case pct >= criticalPct:
		status = StatusCritical
	case pct >= warningPct:
		status = StatusWarning
	}

	return Check{
		Status:    status,
		Usage:     usage,
		Limit:     limit.Requests,
		Remaining: remaining,
		ResetTime: reset,
	}
}

// TokenCount returns the total tokens recorded for a provider within
// retention. Used by the providers status surface, not for limiting.
func (t *Tracker) TokenCount(provider string) int64 {
	w := t.window(provider)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.purge(t.now())
	return w.tokens
}

// purge drops timestamps older than the largest tracked window. Caller must
// hold w.mu.
func (w *window) purge(now time.Time) {
	cutoff := now.Add(-maxRetention)
	i := sort.Search(len(w.stamps), func(i int) bool {
		return w.stamps[i].After(cutoff)
	})
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}
