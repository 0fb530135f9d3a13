package models

import "time"

// UsageEntry records one provider attempt, success or failure. Write-once.
type UsageEntry struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"user_id"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
	TokensIn      int       `json:"tokens_in"`
	TokensOut     int       `json:"tokens_out"`
	LatencyMs     int64     `json:"latency_ms"`
	Cached        bool      `json:"cached"`
	Success       bool      `json:"success"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	QueryCategory Category  `json:"query_category"`
	Tier          int       `json:"tier"`
	FallbackUsed  bool      `json:"fallback_used"`
	CreatedAt     time.Time `json:"created_at"`
}

// UsageSummary aggregates attempts per user and provider.
type UsageSummary struct {
	UserID       string `json:"user_id"`
	Provider     string `json:"provider"`
	RequestCount int    `json:"request_count"`
	Successes    int    `json:"successes"`
	Failures     int    `json:"failures"`
	TotalIn      int    `json:"total_in"`
	TotalOut     int    `json:"total_out"`
}
