// Package health keeps per-provider health records and runs periodic probes.
package health

import (
	"context"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sahayak-ai/sahayak/pkg/provider"
	"golang.org/x/sync/errgroup"
)

// Record is one provider's health state. Records live for the whole process;
// they are mutated by health checks and call outcomes, never deleted.
type Record struct {
	mu        sync.Mutex
	id        string
	tier      int
	healthy   bool
	lastCheck time.Time
	latency   time.Duration
}

// Snapshot is a read-only copy of a Record for status surfaces.
type Snapshot struct {
	ID        string        `json:"id"`
	Tier      int           `json:"tier"`
	Healthy   bool          `json:"healthy"`
	LastCheck time.Time     `json:"last_check"`
	Latency   time.Duration `json:"latency"`
}

// Registry tracks health for a fixed set of providers.
type Registry struct {
	records      map[string]*Record
	providers    *provider.Registry
	checkTimeout time.Duration
	sweeping     atomic.Bool // re-entrancy guard for full sweeps

	done chan struct{}
	wg   sync.WaitGroup
}

// ProviderTier names a provider and its preference rank (lower = preferred).
type ProviderTier struct {
	ID   string
	Tier int
}

// New creates a Registry. All providers start healthy; the first failed call
// or probe flips them.
func New(providers *provider.Registry, tiers []ProviderTier, checkTimeout time.Duration) *Registry {
	if checkTimeout <= 0 {
		checkTimeout = 5 * time.Second
	}
	records := make(map[string]*Record, len(tiers))
	for _, t := range tiers {
		records[t.ID] = &Record{id: t.ID, tier: t.Tier, healthy: true}
	}
	return &Registry{
		records:      records,
		providers:    providers,
		checkTimeout: checkTimeout,
		done:         make(chan struct{}),
	}
}

// IsHealthy reports whether a provider is currently usable. Unknown
// providers are reported unhealthy.
func (r *Registry) IsHealthy(id string) bool {
	rec, ok := r.records[id]
	if !ok {
		return false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.healthy
}

// MarkUnhealthy flips a provider to unhealthy immediately. Called on
// authentication-class failures so the chain stops retrying a broken
// credential before the next scheduled sweep.
func (r *Registry) MarkUnhealthy(id string) {
	rec, ok := r.records[id]
	if !ok {
		return
	}
	rec.mu.Lock()
	rec.healthy = false
	rec.mu.Unlock()
	log.Printf("provider %s marked unhealthy", id)
}

// Tier returns a provider's preference rank; unknown providers sort last.
func (r *Registry) Tier(id string) int {
	rec, ok := r.records[id]
	if !ok {
		return int(^uint(0) >> 1)
	}
	return rec.tier
}

// RecordLatency stores the measured latency of a successful call.
func (r *Registry) RecordLatency(id string, d time.Duration) {
	rec, ok := r.records[id]
	if !ok {
		return
	}
	rec.mu.Lock()
	rec.latency = d
	rec.mu.Unlock()
}

// RunHealthCheck probes a single provider, bounded by the check timeout, and
// updates its record. A passing probe restores health.
func (r *Registry) RunHealthCheck(ctx context.Context, id string) provider.HealthStatus {
	p, ok := r.providers.Get(id)
	if !ok {
		return provider.HealthStatus{Err: "unknown provider"}
	}
	rec := r.records[id]

	checkCtx, cancel := context.WithTimeout(ctx, r.checkTimeout)
	defer cancel()
	status := p.HealthCheck(checkCtx)

	rec.mu.Lock()
	rec.healthy = status.Healthy
	rec.lastCheck = time.Now()
	rec.latency = time.Duration(status.ResponseTimeMs) * time.Millisecond
	rec.mu.Unlock()

	if !status.Healthy {
		log.Printf("health check failed for %s: %s", id, status.Err)
	}
	return status
}

// Sweep probes all providers concurrently. Overlapping sweeps never run: a
// sweep that finds one already in flight returns immediately.
func (r *Registry) Sweep(ctx context.Context) {
	if !r.sweeping.CompareAndSwap(false, true) {
		return
	}
	defer r.sweeping.Store(false)

	g, ctx := errgroup.WithContext(ctx)
	for id := range r.records {
		id := id
		g.Go(func() error {
			r.RunHealthCheck(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
}

// Start launches the periodic sweep loop. Stop with Close.
func (r *Registry) Start(interval time.Duration) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				return
			case <-ticker.C:
				r.Sweep(context.Background())
			}
		}
	}()
}

// Close stops the sweep loop.
func (r *Registry) Close() {
	close(r.done)
	r.wg.Wait()
}

// FilterChain returns the given provider IDs sorted by tier ascending and
// filtered to healthy ones. Unknown IDs are dropped.
func (r *Registry) FilterChain(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if r.IsHealthy(id) {
			out = append(out, id)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return r.Tier(out[i]) < r.Tier(out[j])
	})
	return out
}

// Snapshots returns a copy of every record, sorted by tier then ID.
func (r *Registry) Snapshots() []Snapshot {
	out := make([]Snapshot, 0, len(r.records))
	for _, rec := range r.records {
		rec.mu.Lock()
		out = append(out, Snapshot{
			ID:        rec.id,
			Tier:      rec.tier,
			Healthy:   rec.healthy,
			LastCheck: rec.lastCheck,
			Latency:   rec.latency,
		})
		rec.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].ID < out[j].ID
	})
	return out
}
