package node

import (
	"context"

	"github.com/chatflowhq/chatflow/model"
)

// stopNode completes the session.
type stopNode struct {
	*baseNode
}

var _ Node = new(stopNode)

func (s *stopNode) Execute(ctx context.Context, session *model.Session, event *model.InboundEvent) (*Result, error) {
	return &Result{Terminal: true}, nil
}
