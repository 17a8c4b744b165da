package node

import (
	"context"

	"github.com/chatflowhq/chatflow/logger"
	"github.com/chatflowhq/chatflow/model"
	"go.uber.org/zap"
)

// sendNode covers every outbound content kind (message, template, button,
// list, media, cta, product). The kinds differ only in the payload shape
// handed to the messenger; rendering and advancing are identical.
type sendNode struct {
	*baseNode
}

var _ Node = new(sendNode)

func (s *sendNode) Execute(ctx context.Context, session *model.Session, event *model.InboundEvent) (*Result, error) {
	content := s.buildContent(s.resolveConfig(session))
	res, err := s.container.GetMessenger().Send(ctx, session.Address, content)
	if err != nil {
		return nil, err
	}
	logger.Debug("message sent",
		zap.String("node", s.id),
		zap.String("address", session.Address),
		zap.String("providerMessageId", res.ProviderMessageId))
	return &Result{NextNodeId: s.defaultNext()}, nil
}

func (s *sendNode) buildContent(config map[string]any) map[string]any {
	switch s.nodeType {
	case NODE_TYPE_SEND_MESSAGE:
		return map[string]any{
			"type": "text",
			"text": map[string]any{"body": config["text"]},
		}
	case NODE_TYPE_SEND_TEMPLATE:
		return map[string]any{
			"type":     "template",
			"template": config["template"],
		}
	case NODE_TYPE_SEND_BUTTON:
		return map[string]any{
			"type": "interactive",
			"interactive": map[string]any{
				"type":   "button",
				"body":   map[string]any{"text": config["text"]},
				"action": map[string]any{"buttons": config["buttons"]},
			},
		}
	case NODE_TYPE_SEND_LIST:
		return map[string]any{
			"type": "interactive",
			"interactive": map[string]any{
				"type":   "list",
				"body":   map[string]any{"text": config["text"]},
				"action": config["list"],
			},
		}
	case NODE_TYPE_SEND_MEDIA:
		mediaType := "image"
		if mt, ok := config["mediaType"].(string); ok && mt != "" {
			mediaType = mt
		}
		return map[string]any{
			"type":    mediaType,
			mediaType: map[string]any{"link": config["url"], "caption": config["caption"]},
		}
	case NODE_TYPE_SEND_CTA:
		return map[string]any{
			"type": "interactive",
			"interactive": map[string]any{
				"type":   "cta_url",
				"body":   map[string]any{"text": config["text"]},
				"action": map[string]any{"name": "cta_url", "parameters": map[string]any{"display_text": config["buttonText"], "url": config["url"]}},
			},
		}
	case NODE_TYPE_SEND_PRODUCT:
		return map[string]any{
			"type": "interactive",
			"interactive": map[string]any{
				"type":   "product",
				"action": map[string]any{"catalog_id": config["catalogId"], "product_retailer_id": config["productId"]},
			},
		}
	}
	return map[string]any{"type": "text", "text": map[string]any{"body": ""}}
}
