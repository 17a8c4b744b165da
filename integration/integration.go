package integration

import (
	"context"
	"fmt"
	"time"
)

// ConfigError means a collaborator is missing credentials or carries a
// malformed configuration. Never retried.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("config error: %s", e.Message)
}

// ProviderError means the upstream service answered outside 2xx.
type ProviderError struct {
	Status  int
	Message string
}

func (e ProviderError) Error() string {
	return fmt.Sprintf("provider error: status=%d %s", e.Status, e.Message)
}

// TimeoutError means an outbound call exceeded its caller-set deadline.
type TimeoutError struct {
	Url string
}

func (e TimeoutError) Error() string {
	return fmt.Sprintf("timeout calling %s", e.Url)
}

type SendResult struct {
	Delivered         bool   `json:"delivered"`
	ProviderMessageId string `json:"providerMessageId,omitempty"`
}

// Messenger delivers rendered content to one end-user address.
type Messenger interface {
	Send(ctx context.Context, address string, content map[string]any) (*SendResult, error)
}

type CompletionRequest struct {
	Provider     string
	Model        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
}

type CompletionResult struct {
	Text       string `json:"text"`
	TokensUsed int    `json:"tokensUsed"`
}

// AiClient produces one completion for a prompt pair.
type AiClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}

type HttpResponse struct {
	Status     int               `json:"status"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	DurationMs int64             `json:"durationMs"`
}

// HttpCaller makes one outbound HTTP call with an enforced timeout.
type HttpCaller interface {
	Call(ctx context.Context, url string, method string, headers map[string]string, body string, timeout time.Duration) (*HttpResponse, error)
}

type RowFilter map[string]any

// SheetStore is the structured-data collaborator behind the sheet nodes.
type SheetStore interface {
	ReadRows(ctx context.Context, sheet string, filter RowFilter) ([]map[string]any, error)
	UpdateRows(ctx context.Context, sheet string, filter RowFilter, updates map[string]any) (int, error)
	AppendRow(ctx context.Context, sheet string, row map[string]any) error
}
