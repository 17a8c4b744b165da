package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// CompletionClient calls an OpenAI-compatible chat completions endpoint.
type CompletionClient struct {
	apiUrl string
	apiKey string
	client *http.Client
}

var _ AiClient = new(CompletionClient)

func NewCompletionClient(apiUrl string, apiKey string) *CompletionClient {
	return &CompletionClient{
		apiUrl: apiUrl,
		apiKey: apiKey,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *CompletionClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	if c.apiKey == "" {
		return nil, ConfigError{Message: fmt.Sprintf("no api key configured for provider %s", req.Provider)}
	}
	var messages []map[string]string
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.SystemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.UserPrompt})
	payload := map[string]any{
		"model":       req.Model,
		"messages":    messages,
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/chat/completions", c.apiUrl), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, ProviderError{Message: err.Error()}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ProviderError{Status: resp.StatusCode, Message: string(respBody)}
	}
	return &CompletionResult{
		Text:       gjson.GetBytes(respBody, "choices.0.message.content").String(),
		TokensUsed: int(gjson.GetBytes(respBody, "usage.total_tokens").Int()),
	}, nil
}
