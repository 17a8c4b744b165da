package node

import (
	"context"

	"github.com/chatflowhq/chatflow/integration"
	"github.com/chatflowhq/chatflow/logger"
	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/util"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// aiNode delegates to the completion collaborator and stores the response
// text under the configured variable. A collaborator failure fails the
// step without touching already committed variables.
type aiNode struct {
	*baseNode
}

var _ Node = new(aiNode)

func (a *aiNode) Execute(ctx context.Context, session *model.Session, event *model.InboundEvent) (*Result, error) {
	req := integration.CompletionRequest{
		Provider:     a.configString("provider"),
		Model:        a.configString("model"),
		SystemPrompt: util.RenderTemplate(session.Variables, a.configString("systemPrompt")),
		UserPrompt:   util.RenderTemplate(session.Variables, a.configString("prompt")),
		Temperature:  cast.ToFloat64(a.config["temperature"]),
		MaxTokens:    cast.ToInt(a.config["maxTokens"]),
	}
	res, err := a.container.GetAiClient().Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	variable := a.configString("variable")
	if variable == "" {
		variable = "ai.response"
	}
	logger.Debug("ai completion done",
		zap.String("node", a.id), zap.Int("tokens", res.TokensUsed))
	return &Result{
		NextNodeId: a.defaultNext(),
		Variables:  map[string]any{variable: res.Text},
	}, nil
}
