package node

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chatflowhq/chatflow/model"
	"github.com/spf13/cast"
)

// httpNode calls the outbound HTTP collaborator and stores the response
// under the http.response.* variables before advancing.
type httpNode struct {
	*baseNode
}

var _ Node = new(httpNode)

func (h *httpNode) Validate() error {
	if h.configString("url") == "" {
		return fmt.Errorf("nodeId=%s, http node needs a url", h.id)
	}
	return nil
}

func (h *httpNode) Execute(ctx context.Context, session *model.Session, event *model.InboundEvent) (*Result, error) {
	config := h.resolveConfig(session)

	method := strings.ToUpper(cast.ToString(config["method"]))
	if method == "" {
		method = http.MethodGet
	}
	headers := map[string]string{}
	if hm, ok := config["headers"].(map[string]any); ok {
		for k, v := range hm {
			headers[k] = fmt.Sprintf("%v", v)
		}
	}
	body := ""
	switch b := config["body"].(type) {
	case string:
		body = b
	case map[string]any:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		body = string(data)
		if _, ok := headers["Content-Type"]; !ok {
			headers["Content-Type"] = "application/json"
		}
	}
	timeout := time.Duration(cast.ToInt(config["timeoutMs"])) * time.Millisecond

	res, err := h.container.GetHttpCaller().Call(ctx, cast.ToString(config["url"]), method, headers, body, timeout)
	if err != nil {
		return nil, err
	}
	return &Result{
		NextNodeId: h.defaultNext(),
		Variables: map[string]any{
			"http.response.status":     res.Status,
			"http.response.body":       res.Body,
			"http.response.headers":    res.Headers,
			"http.response.durationMs": res.DurationMs,
		},
	}, nil
}
