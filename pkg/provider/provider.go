// Package provider defines the uniform contract every upstream LLM provider
// implements, so the orchestrator never dispatches on provider identity.
package provider

import (
	"context"
	"sort"

	"github.com/sahayak-ai/sahayak/pkg/models"
)

// ChatRequest is the provider-neutral form of a chat call.
type ChatRequest struct {
	Messages    []models.ChatMessage
	Model       string
	MaxTokens   int
	Temperature float64
}

// ChatResponse is a successful provider answer.
type ChatResponse struct {
	Content    string
	ModelUsed  string
	TokensUsed models.TokenUsage
	LatencyMs  int64
}

// HealthStatus is the result of a provider health probe.
type HealthStatus struct {
	Healthy        bool
	ResponseTimeMs int64
	Err            string
}

// Provider is one upstream text-generation API.
type Provider interface {
	ID() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	HealthCheck(ctx context.Context) HealthStatus
}

// Registry maps provider IDs to instances.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider. Later registrations with the same ID win.
func (r *Registry) Register(p Provider) {
	r.providers[p.ID()] = p
}

// Get returns the provider with the given ID.
func (r *Registry) Get(id string) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// IDs returns all registered provider IDs, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
