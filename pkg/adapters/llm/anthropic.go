package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aretw0/plait/pkg/domain"
	"github.com/aretw0/plait/pkg/ports"
)

// Default Anthropic configuration values.
const (
	defaultAnthropicTimeout = 5 * time.Minute
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultMaxTokens        = 8192
)

// Anthropic implements the LLM port over the Anthropic messages API.
type Anthropic struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
}

// NewAnthropic creates a client from a workflow model configuration.
// The API key falls back to ANTHROPIC_API_KEY when the config carries none.
func NewAnthropic(cfg domain.LLMConfig) *Anthropic {
	a := &Anthropic{
		apiKey:      cfg.APIKey,
		baseURL:     defaultAnthropicBaseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: defaultAnthropicTimeout},
	}
	if a.apiKey == "" {
		a.apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if url := paramString(cfg.Params, "base_url"); url != "" {
		a.baseURL = url
	}
	return a
}

type anthropicRequest struct {
	Model       string         `json:"model"`
	Messages    []anthropicMsg `json:"messages"`
	System      string         `json:"system,omitempty"`
	MaxTokens   int            `json:"max_tokens"`
	Temperature *float64       `json:"temperature,omitempty"`
}

type anthropicMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Generate sends one request and returns the concatenated text content.
func (a *Anthropic) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	if a.apiKey == "" {
		return "", fmt.Errorf("anthropic: API key is empty")
	}

	body := &anthropicRequest{
		Model:     a.model,
		MaxTokens: defaultMaxTokens,
		System:    req.SystemPrompt,
		Messages:  []anthropicMsg{{Role: "user", Content: req.Prompt}},
	}
	if a.temperature > 0 {
		body.Temperature = &a.temperature
	}

	resp, err := a.doRequest(ctx, body)
	if err != nil {
		return "", err
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

func (a *Anthropic) doRequest(ctx context.Context, req *anthropicRequest) (*anthropicResponse, error) {
	const maxRetries = 5

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-api-key", a.apiKey)
		httpReq.Header.Set("anthropic-version", "2023-06-01")

		httpResp, err := a.httpClient.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("http request: %w", err)
		}

		body, err := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		if httpResp.StatusCode == http.StatusOK {
			var resp anthropicResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return nil, fmt.Errorf("unmarshal response: %w", err)
			}
			return &resp, nil
		}

		// Retry on 429 (rate limit) and 529 (overloaded).
		if (httpResp.StatusCode == 429 || httpResp.StatusCode == 529) && attempt < maxRetries {
			wait := retryAfterDelay(httpResp, attempt)
			slog.Warn("API rate limited, retrying", "status", httpResp.StatusCode, "attempt", attempt+1, "wait", wait)
			select {
			case <-time.After(wait):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		return nil, fmt.Errorf("API error %d: %s", httpResp.StatusCode, string(body))
	}

	return nil, fmt.Errorf("max retries exceeded")
}

// retryAfterDelay respects the retry-after header if present, otherwise
// falls back to exponential backoff capped at a minute.
func retryAfterDelay(resp *http.Response, attempt int) time.Duration {
	if ra := resp.Header.Get("retry-after"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	wait := time.Duration(5<<uint(attempt)) * time.Second
	if wait > 60*time.Second {
		wait = 60 * time.Second
	}
	return wait
}
