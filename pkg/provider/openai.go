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

// OpenAIClient talks to any OpenAI-compatible /v1/chat/completions endpoint
// (OpenAI, Groq, Together, local gateways).
type OpenAIClient struct {
	id      string
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewOpenAIClient creates a client. An empty apiKey is allowed: the first
// Chat call fails with an auth-class error instead of crashing the process.
func NewOpenAIClient(id, baseURL, apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		id:      id,
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{},
	}
}

// ID implements Provider.
func (c *OpenAIClient) ID() string { return c.id }

type openAIRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
	Temperature float64              `json:"temperature,omitempty"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message models.ChatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Chat implements Provider.
func (c *OpenAIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if c.apiKey == "" {
		return nil, &Error{Kind: KindAuth, Provider: c.id, Msg: "api key not configured"}
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	body, err := json.Marshal(openAIRequest{
		Model:       model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

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

	var parsed openAIResponse
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
	if len(parsed.Choices) == 0 {
		return nil, &Error{Kind: KindTransient, Provider: c.id, Msg: "empty choices"}
	}

	return &ChatResponse{
		Content:   parsed.Choices[0].Message.Content,
		ModelUsed: parsed.Model,
		TokensUsed: models.TokenUsage{
			Input:  parsed.Usage.PromptTokens,
			Output: parsed.Usage.CompletionTokens,
		},
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// HealthCheck implements Provider with a lightweight models listing.
func (c *OpenAIClient) HealthCheck(ctx context.Context) HealthStatus {
	if c.apiKey == "" {
		return HealthStatus{Err: "api key not configured"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return HealthStatus{Err: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

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
