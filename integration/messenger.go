package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chatflowhq/chatflow/logger"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// CloudMessenger sends messages through a chat-provider cloud API:
// POST {apiUrl}/messages with a bearer token.
type CloudMessenger struct {
	apiUrl      string
	accessToken string
	client      *http.Client
}

var _ Messenger = new(CloudMessenger)

func NewCloudMessenger(apiUrl string, accessToken string) *CloudMessenger {
	return &CloudMessenger{
		apiUrl:      apiUrl,
		accessToken: accessToken,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *CloudMessenger) Send(ctx context.Context, address string, content map[string]any) (*SendResult, error) {
	if m.accessToken == "" {
		return nil, ConfigError{Message: "provider access token not configured"}
	}
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                address,
	}
	for k, v := range content {
		payload[k] = v
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/messages", m.apiUrl), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.accessToken)
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, ProviderError{Message: err.Error()}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Error("provider send failed", zap.String("address", address), zap.Int("status", resp.StatusCode))
		return nil, ProviderError{Status: resp.StatusCode, Message: string(respBody)}
	}
	return &SendResult{
		Delivered:         true,
		ProviderMessageId: gjson.GetBytes(respBody, "messages.0.id").String(),
	}, nil
}
