package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jandy1990/wwfm-platform-sub002/internal/config"
)

// NewOpenAIClient builds the raw HTTP client from config.
func NewOpenAIClient(cfg config.AIConfig) (*OpenAIClient, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("missing OpenAI API key")
	}
	return &OpenAIClient{
		APIKey:      cfg.OpenAIKey,
		BaseURL:     "https://api.openai.com/v1",
		Timeout:     cfg.RequestTimeout,
		Temperature: cfg.Temperature,
	}, nil
}

// ErrRateLimited marks an HTTP 429 from the service so callers can
// apply the cooldown-and-retry policy.
type ErrRateLimited struct {
	Body string
}

func (e *ErrRateLimited) Error() string {
	return "rate limited by generation service"
}

// OpenAIClient implements ports.LLMClient against the chat completions
// API.
type OpenAIClient struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
}

func (c *OpenAIClient) ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error) {
	if strings.TrimSpace(model) == "" {
		return "", fmt.Errorf("missing model")
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	// Chat Completions API (kept minimal: one system + one user message)
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type reqBody struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature,omitempty"`
		MaxTokens   int     `json:"max_tokens,omitempty"`
	}
	body := reqBody{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: "You are a careful assistant. Output exactly what the user asks for."},
			{Role: "user", Content: prompt},
		},
		Temperature: c.Temperature,
		MaxTokens:   maxTokens,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	client := &http.Client{Timeout: c.Timeout}
	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &ErrRateLimited{Body: string(respRaw)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai http %d: %s", resp.StatusCode, string(respRaw))
	}

	type choice struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	type respBody struct {
		Choices []choice `json:"choices"`
	}
	var decoded respBody
	if err := json.Unmarshal(respRaw, &decoded); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}
	return decoded.Choices[0].Message.Content, nil
}

// MockLLMClient is a scripted LLM client for testing
type MockLLMClient struct {
	Responses []string // returned in order, last one repeats
	Error     error    // set to simulate persistent errors
	FailFirst error    // returned on the first call only
	Calls     int
	Prompts   []string
}

func (m *MockLLMClient) ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error) {
	m.Calls++
	m.Prompts = append(m.Prompts, prompt)
	if m.FailFirst != nil {
		err := m.FailFirst
		m.FailFirst = nil
		return "", err
	}
	if m.Error != nil {
		return "", m.Error
	}
	if len(m.Responses) == 0 {
		return "", fmt.Errorf("mock has no responses")
	}
	idx := m.Calls - 1
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	return m.Responses[idx], nil
}
