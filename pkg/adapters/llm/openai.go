package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/plait/pkg/domain"
	"github.com/aretw0/plait/pkg/ports"
)

const (
	defaultOpenAITimeout = 5 * time.Minute
	defaultOpenAIBaseURL = "https://api.openai.com"
)

// OpenAI implements the LLM port over the chat completions API. With a
// custom base_url it also covers self-hosted compatible endpoints.
type OpenAI struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
}

// NewOpenAI creates a client from a workflow model configuration.
// The API key falls back to OPENAI_API_KEY when the config carries none.
func NewOpenAI(cfg domain.LLMConfig) *OpenAI {
	c := &OpenAI{
		apiKey:      cfg.APIKey,
		baseURL:     defaultOpenAIBaseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: defaultOpenAITimeout},
	}
	if c.apiKey == "" {
		c.apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if url := paramString(cfg.Params, "base_url"); url != "" {
		c.baseURL = url
	}
	return c
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []chatMsg `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type chatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMsg `json:"message"`
	} `json:"choices"`
}

// Generate sends one request and returns the first choice's content.
func (c *OpenAI) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	messages := make([]chatMsg, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMsg{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMsg{Role: "user", Content: req.Prompt})

	body := &chatRequest{Model: c.model, Messages: messages}
	if c.temperature > 0 {
		body.Temperature = &c.temperature
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error %d: %s", httpResp.StatusCode, string(raw))
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
