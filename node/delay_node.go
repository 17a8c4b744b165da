package node

import (
	"context"
	"fmt"
	"time"

	"github.com/chatflowhq/chatflow/model"
	"github.com/spf13/cast"
)

// delayNode pauses the session for the configured duration. The engine
// schedules the continuation on the delay queue; no goroutine sleeps.
type delayNode struct {
	*baseNode
}

var _ Node = new(delayNode)

func (d *delayNode) Validate() error {
	if d.Delay() <= 0 {
		return fmt.Errorf("nodeId=%s, delay value must be positive", d.id)
	}
	if _, ok := d.next[DEFAULT_EDGE]; !ok {
		return fmt.Errorf("nodeId=%s, delay node should have a default next node", d.id)
	}
	return nil
}

func (d *delayNode) Delay() time.Duration {
	return time.Duration(cast.ToInt(d.config["delaySeconds"])) * time.Second
}

func (d *delayNode) Execute(ctx context.Context, session *model.Session, event *model.InboundEvent) (*Result, error) {
	if session.State == model.SESSION_STATE_WAITING_DELAY && session.CurrentNode == d.id {
		return &Result{NextNodeId: d.defaultNext()}, nil
	}
	return &Result{Wait: model.SESSION_STATE_WAITING_DELAY}, nil
}
