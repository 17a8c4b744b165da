package node

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatflowhq/chatflow/model"
	"github.com/spf13/cast"
)

// WebhookConfig is what ingress needs to know about a webhook node
// before it accepts a call.
type WebhookConfig interface {
	Active() bool
	Methods() []string
	Secret() string
	WebhookId() string
}

var _ WebhookConfig = new(webhookNode)

// webhookNode pauses the session until a matching webhook execution
// record is consumed, at which point the captured request is flattened
// into webhook.* variables and the session advances. Inbound chat
// messages never advance this node. catch_webhook behaves the same and
// exists for flows built around the webhook-by-id entry.
type webhookNode struct {
	*baseNode
}

var _ Node = new(webhookNode)

func (w *webhookNode) Validate() error {
	raw, ok := w.config["methods"].([]any)
	if !ok {
		return nil
	}
	for _, m := range raw {
		s, err := cast.ToStringE(m)
		if err != nil || strings.TrimSpace(s) == "" {
			return fmt.Errorf("nodeId=%s, methods entries must be non-empty strings", w.id)
		}
	}
	return nil
}

func (w *webhookNode) Execute(ctx context.Context, session *model.Session, event *model.InboundEvent) (*Result, error) {
	if event != nil && (event.Source == model.SOURCE_FLOW_WEBHOOK || event.Source == model.SOURCE_GLOBAL_WEBHOOK) {
		updates := map[string]any{
			"webhook.method":  event.Method,
			"webhook.headers": event.Headers,
			"webhook.query":   event.Query,
			"webhook.body":    event.Body,
		}
		for k, v := range event.Body {
			updates["webhook.body."+k] = v
		}
		return &Result{NextNodeId: w.defaultNext(), Variables: updates}, nil
	}
	return &Result{Wait: model.SESSION_STATE_WAITING_WEBHOOK}, nil
}

// Active reports whether the webhook accepts calls at all.
func (w *webhookNode) Active() bool {
	status := strings.ToLower(w.configString("status"))
	return status == "" || status == "active"
}

// Methods is the configured method allow-list, upper-cased. Empty means
// none is configured and the entry point applies its own default; the
// values go through cast so a sloppy config entry degrades to a method
// that never matches instead of crashing the handler.
func (w *webhookNode) Methods() []string {
	raw, ok := w.config["methods"].([]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	methods := make([]string, 0, len(raw))
	for _, m := range raw {
		methods = append(methods, strings.ToUpper(cast.ToString(m)))
	}
	return methods
}

// Secret is the required bearer token, empty when none is configured.
func (w *webhookNode) Secret() string {
	return w.configString("secret")
}

// WebhookId is the globally unique id used by webhook-by-id routing.
func (w *webhookNode) WebhookId() string {
	return w.configString("webhookId")
}
