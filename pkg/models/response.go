package models

// Category is the query class assigned by the classifier.
type Category string

const (
	CategoryTimeSensitive Category = "time_sensitive"
	CategoryAppData       Category = "app_data"
	CategoryGeneral       Category = "general"
)

// Classification is the classifier's verdict for a message. Derived, not persisted.
type Classification struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
}

// TokenUsage holds input/output token counts for one provider call.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// Response is the gateway's answer to a Request. Every code path produces one;
// ProviderUsed == "system" marks a degraded (synthesized) answer.
type Response struct {
	Content      string     `json:"content"`
	ModelUsed    string     `json:"model_used"`
	ProviderUsed string     `json:"provider_used"`
	Category     Category   `json:"category"`
	TierUsed     int        `json:"tier_used"`
	Cached       bool       `json:"cached"`
	TokensUsed   TokenUsage `json:"tokens_used"`
	LatencyMs    int64      `json:"latency_ms"`
	FallbackUsed bool       `json:"fallback_used"`
}
