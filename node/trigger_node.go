package node

import (
	"context"

	"github.com/chatflowhq/chatflow/model"
)

// triggerNode anchors the first real node of a flow. The matcher starts
// new sessions here; executing it just moves along the default edge.
type triggerNode struct {
	*baseNode
}

var _ Node = new(triggerNode)

func (t *triggerNode) Execute(ctx context.Context, session *model.Session, event *model.InboundEvent) (*Result, error) {
	return &Result{NextNodeId: t.defaultNext()}, nil
}
