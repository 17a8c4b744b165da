package integration

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultHttpCaller is the generic outbound HTTP collaborator. The
// per-call timeout is enforced here, not assumed by node handlers.
type DefaultHttpCaller struct {
	client *http.Client
}

var _ HttpCaller = new(DefaultHttpCaller)

func NewDefaultHttpCaller() *DefaultHttpCaller {
	return &DefaultHttpCaller{
		client: &http.Client{},
	}
}

func (h *DefaultHttpCaller) Call(ctx context.Context, url string, method string, headers map[string]string, body string, timeout time.Duration) (*HttpResponse, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(callCtx, method, url, reader)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, TimeoutError{Url: url}
		}
		return nil, ProviderError{Message: err.Error()}
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	respHeaders := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		respHeaders[k] = resp.Header.Get(k)
	}
	return &HttpResponse{
		Status:     resp.StatusCode,
		Headers:    respHeaders,
		Body:       string(respBody),
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}
