package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sahayak-ai/sahayak/pkg/models"
)

const anthropicVersion = "2023-06-01"

// AnthropicClient talks to the Anthropic /v1/messages API.
type AnthropicClient struct {
	id      string
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewAnthropicClient creates a client. An empty apiKey is allowed: the first
// Chat call fails with an auth-class error instead of crashing the process.
func NewAnthropicClient(id, baseURL, apiKey, model string) *AnthropicClient {
	return &AnthropicClient{
		id:      id,
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{},
	}
}

// ID implements Provider.
func (c *AnthropicClient) ID() string { return c.id }

type anthropicRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	System      string               `json:"system,omitempty"`
	MaxTokens   int                  `json:"max_tokens"`
	Temperature float64              `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Chat implements Provider. System messages are lifted out of the history
// into the top-level system field, per the Anthropic wire format.
func (c *AnthropicClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if c.apiKey == "" {
		return nil, &Error{Kind: KindAuth, Provider: c.id, Msg: "api key not configured"}
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	var system string
	msgs := make([]models.ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == "system" {
			system = m.Content
			continue
		}
		msgs = append(msgs, m)
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       model,
		Messages:    msgs,
		System:      system,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, wrapCallError(c.id, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, wrapCallError(c.id, err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &Error{Kind: KindTransient, Provider: c.id, Status: httpResp.StatusCode, Msg: "malformed response"}
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := http.StatusText(httpResp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return nil, &Error{Kind: classifyStatus(httpResp.StatusCode), Provider: c.id, Status: httpResp.StatusCode, Msg: msg}
	}

	var content string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	if content == "" {
		return nil, &Error{Kind: KindTransient, Provider: c.id, Msg: "empty content"}
	}

	return &ChatResponse{
		Content:   content,
		ModelUsed: parsed.Model,
		TokensUsed: models.TokenUsage{
			Input:  parsed.Usage.InputTokens,
			Output: parsed.Usage.OutputTokens,
		},
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// HealthCheck implements Provider with a models listing probe.
func (c *AnthropicClient) HealthCheck(ctx context.Context) HealthStatus {
	if c.apiKey == "" {
		return HealthStatus{Err: "api key not configured"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return HealthStatus{Err: err.Error()}
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return HealthStatus{ResponseTimeMs: elapsed, Err: err.Error()}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return HealthStatus{ResponseTimeMs: elapsed, Err: fmt.Sprintf("status %d", resp.StatusCode)}
	}
	return HealthStatus{Healthy: true, ResponseTimeMs: elapsed}
}
