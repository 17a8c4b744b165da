package node

import (
	"context"

	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/util"
)

// questionNode sends an optional prompt and pauses the session until the
// next inbound message for the same address, which it captures into the
// configured variable before advancing. wait_for_reply behaves the same
// without a prompt.
type questionNode struct {
	*baseNode
}

var _ Node = new(questionNode)

func (q *questionNode) Execute(ctx context.Context, session *model.Session, event *model.InboundEvent) (*Result, error) {
	if session.State == model.SESSION_STATE_WAITING_REPLY && session.CurrentNode == q.id {
		variable := q.configString("variable")
		if variable == "" {
			variable = "reply"
		}
		updates := map[string]any{variable: ""}
		if event != nil && event.Message != nil {
			updates[variable] = event.Message.Text
		}
		return &Result{NextNodeId: q.defaultNext(), Variables: updates}, nil
	}

	if q.nodeType == NODE_TYPE_ASK_QUESTION {
		text := util.RenderTemplate(session.Variables, q.configString("text"))
		content := map[string]any{
			"type": "text",
			"text": map[string]any{"body": text},
		}
		if _, err := q.container.GetMessenger().Send(ctx, session.Address, content); err != nil {
			return nil, err
		}
	}
	return &Result{Wait: model.SESSION_STATE_WAITING_REPLY}, nil
}
