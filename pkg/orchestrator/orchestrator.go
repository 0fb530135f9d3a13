// Package orchestrator routes a query through a category's provider
// fallback chain and always produces a well-formed Response: a provider
// answer, a cached answer, or a synthesized degradation message.
package orchestrator

import (
	"context"
	"log"
	"time"

	"golang.org/x/time/rate"

	cachepkg "github.com/sahayak-ai/sahayak/pkg/cache/sqlite"
	"github.com/sahayak-ai/sahayak/pkg/classifier"
	"github.com/sahayak-ai/sahayak/pkg/config"
	"github.com/sahayak-ai/sahayak/pkg/health"
	"github.com/sahayak-ai/sahayak/pkg/models"
	"github.com/sahayak-ai/sahayak/pkg/provider"
	"github.com/sahayak-ai/sahayak/pkg/ratelimit"
	"github.com/sahayak-ai/sahayak/pkg/usage"
)

const (
	defaultMaxTokens   = 1024
	defaultTemperature = 0.7
)

// Degradation messages, one per category. Distinct wording so the app layer
// and support logs can tell apart which chain went down.
var degradeMessages = map[models.Category]string{
	models.CategoryTimeSensitive: "Sorry, I can't fetch up-to-date information right now. Please try again in a few minutes — aapka sawaal zaroori hai aur hum jald wapas aayenge.",
	models.CategoryAppData:       "Sorry, I can't look up your progress and activity data at the moment. Your data is safe; please retry shortly.",
	models.CategoryGeneral:       "Sorry, I'm having trouble answering right now. Please try again in a little while — main jaldi theek ho jaunga.",
}

// Orchestrator owns all process-wide gateway state: the health registry,
// rate-limit windows, response cache and usage logger are constructed once
// and injected here rather than living in package-level globals.
type Orchestrator struct {
	chains    config.ChainConfig
	providers *provider.Registry
	health    *health.Registry
	limits    *ratelimit.Tracker
	cache     *cachepkg.Cache
	usage     *usage.Logger

	// Outbound burst smoothing per provider, separate from plan quotas:
	// a provider may allow 500 req/min but still throttle bursts.
	limiters map[string]*rate.Limiter

	maxRetries     int
	initialBackoff time.Duration
	callTimeout    time.Duration
}

// Options bundles the orchestrator's tunables.
type Options struct {
	MaxRetries     int
	InitialBackoff time.Duration
	CallTimeout    time.Duration
}

// New wires an Orchestrator. cache may be nil to disable caching.
func New(cfg *config.Config, providers *provider.Registry, h *health.Registry, limits *ratelimit.Tracker, cache *cachepkg.Cache, u *usage.Logger) *Orchestrator {
	limiters := make(map[string]*rate.Limiter)
	for _, p := range cfg.Providers {
		if p.RequestsPerSecond > 0 {
			burst := int(p.RequestsPerSecond)
			if burst < 1 {
				burst = 1
			}
			limiters[p.Name] = rate.NewLimiter(rate.Limit(p.RequestsPerSecond), burst)
		}
	}

	opts := Options{
		MaxRetries:     cfg.Retry.MaxRetries,
		InitialBackoff: cfg.Retry.InitialBackoff,
		CallTimeout:    cfg.Retry.CallTimeout,
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 250 * time.Millisecond
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 30 * time.Second
	}

	return &Orchestrator{
		chains:         cfg.Chains,
		providers:      providers,
		health:         h,
		limits:         limits,
		cache:          cache,
		usage:          u,
		limiters:       limiters,
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.InitialBackoff,
		callTimeout:    opts.CallTimeout,
	}
}

// ProcessQuery is the single call surface for the app layer. It never
// returns an error; every failure path terminates in a valid Response.
func (o *Orchestrator) ProcessQuery(ctx context.Context, req models.Request) *models.Response {
	start := time.Now()

	// Cache hits bypass the whole chain, including rate-limit accounting.
	if o.cache != nil {
		if resp, ok := o.cache.Get(req); ok {
			o.usage.LogSuccess(models.UsageEntry{
				UserID:        req.UserID,
				Provider:      resp.ProviderUsed,
				Model:         resp.ModelUsed,
				TokensIn:      resp.TokensUsed.Input,
				TokensOut:     resp.TokensUsed.Output,
				Cached:        true,
				QueryCategory: resp.Category,
				Tier:          resp.TierUsed,
			})
			return resp
		}
	}

	classification := classifier.Classify(req.Message, req.ChatType)
	chain := o.buildChain(classification.Category, req.PreferredProvider)

	attempted := 0
	for _, id := range chain {
		if ctx.Err() != nil {
			break
		}

		// Skip-check: unhealthy or quota-blocked providers cost nothing,
		// not even a retry attempt.
		if !o.health.IsHealthy(id) {
			continue
		}
		if o.limits.CheckRateLimit(id).Status == ratelimit.StatusBlocked {
			log.Printf("provider %s rate limit blocked, skipping", id)
			continue
		}
		p, ok := o.providers.Get(id)
		if !ok {
			continue
		}

		if lim := o.limiters[id]; lim != nil {
			if err := lim.Wait(ctx); err != nil {
				break
			}
		}

		attempted++
		attemptStart := time.Now()

		chatReq := provider.ChatRequest{
			Messages:    buildMessages(req),
			MaxTokens:   defaultMaxTokens,
			Temperature: defaultTemperature,
		}
		if id == req.PreferredProvider && req.PreferredModel != "" {
			chatReq.Model = req.PreferredModel
		}

		var resp *provider.ChatResponse
		err := withRetry(ctx, o.maxRetries, o.initialBackoff, provider.IsPermanent, func() error {
			callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
			defer cancel()
			r, chatErr := p.Chat(callCtx, chatReq)
			if chatErr != nil {
				return chatErr
			}
			resp = r
			return nil
		})

		if err == nil {
			elapsed := time.Since(attemptStart)
			tier := o.health.Tier(id)
			o.health.RecordLatency(id, elapsed)
			o.limits.RecordRequest(id, resp.TokensUsed.Input+resp.TokensUsed.Output)

			out := &models.Response{
				Content:      resp.Content,
				ModelUsed:    resp.ModelUsed,
				ProviderUsed: id,
				Category:     classification.Category,
				TierUsed:     tier,
				TokensUsed:   resp.TokensUsed,
				LatencyMs:    time.Since(start).Milliseconds(),
				FallbackUsed: attempted > 1,
			}

			o.usage.LogSuccess(models.UsageEntry{
				UserID:        req.UserID,
				Provider:      id,
				Model:         resp.ModelUsed,
				TokensIn:      resp.TokensUsed.Input,
				TokensOut:     resp.TokensUsed.Output,
				LatencyMs:     elapsed.Milliseconds(),
				QueryCategory: classification.Category,
				Tier:          tier,
				FallbackUsed:  out.FallbackUsed,
			})

			if o.cache != nil {
				if cacheErr := o.cache.Put(req, out); cacheErr != nil {
					log.Printf("cache put failed: %v", cacheErr)
				}
			}
			return out
		}

		if provider.IsPermanent(err) {
			// Broken credentials never heal on retry; take the provider
			// out of rotation until a health check restores it.
			o.health.MarkUnhealthy(id)
		}
		log.Printf("provider %s failed: %v, trying next", id, err)
		o.usage.LogFailure(models.UsageEntry{
			UserID:        req.UserID,
			Provider:      id,
			LatencyMs:     time.Since(attemptStart).Milliseconds(),
			ErrorMessage:  err.Error(),
			QueryCategory: classification.Category,
			Tier:          o.health.Tier(id),
			FallbackUsed:  attempted > 1,
		})
	}

	return o.degrade(req, classification.Category, attempted, start)
}

// buildChain resolves the category's configured chain, sorted by tier
// ascending and filtered to healthy providers. An explicit preferred
// provider is moved to the front, or prepended if absent, so a user's
// choice is always attempted first — it still has to pass the skip-check.
func (o *Orchestrator) buildChain(category models.Category, preferred string) []string {
	chain := o.health.FilterChain(o.chains.For(category))

	if preferred == "" {
		return chain
	}
	out := make([]string, 0, len(chain)+1)
	out = append(out, preferred)
	for _, id := range chain {
		if id != preferred {
			out = append(out, id)
		}
	}
	return out
}

// degrade synthesizes the terminal all-providers-exhausted Response and
// logs the outcome once.
func (o *Orchestrator) degrade(req models.Request, category models.Category, attempted int, start time.Time) *models.Response {
	log.Printf("all providers exhausted for category %s (%d attempted)", category, attempted)
	o.usage.LogFailure(models.UsageEntry{
		UserID:        req.UserID,
		Provider:      "system",
		ErrorMessage:  "all providers exhausted",
		QueryCategory: category,
		FallbackUsed:  attempted > 1,
		LatencyMs:     time.Since(start).Milliseconds(),
	})

	return &models.Response{
		Content:      degradeMessages[category],
		ProviderUsed: "system",
		Category:     category,
		LatencyMs:    time.Since(start).Milliseconds(),
		FallbackUsed: attempted > 1,
	}
}

// buildMessages flattens a request into the provider-neutral message list.
// History is included only when the request asks for context.
func buildMessages(req models.Request) []models.ChatMessage {
	var msgs []models.ChatMessage
	if req.IncludeContext {
		msgs = append(msgs, req.History...)
	}
	return append(msgs, models.ChatMessage{Role: "user", Content: req.Message})
}
