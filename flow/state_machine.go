package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/chatflowhq/chatflow/container"
	"github.com/chatflowhq/chatflow/logger"
	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/node"
	"github.com/chatflowhq/chatflow/util"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DELAY_QUEUE string = "delayed_sessions"

// HopLimitError means a single inbound event kept advancing nodes past
// the configured ceiling, which only a cyclic graph can cause.
type HopLimitError struct {
	SessionId string
	Limit     int
}

func (e HopLimitError) Error() string {
	return fmt.Sprintf("session %s exceeded hop limit %d", e.SessionId, e.Limit)
}

// ResumeRequest is the delay-queue payload that brings a waiting session
// back to the executor.
type ResumeRequest struct {
	SessionId string `json:"sessionId"`
}

// FlowMachine drives one session through its flow graph. Every state
// transition writes the session row before control returns, so a restart
// resumes from the last committed node.
type FlowMachine struct {
	Session      *model.Session
	flow         *Flow
	container    *container.Container
	resumeEncDec util.EncoderDecoder[ResumeRequest]
}

// NewFlowMachine starts a fresh session for an address at the flow's
// start node.
func NewFlowMachine(fl *Flow, address string, container *container.Container) (*FlowMachine, error) {
	now := time.Now()
	session := &model.Session{
		Id:          uuid.New().String(),
		FlowId:      fl.Id,
		Address:     address,
		State:       model.SESSION_STATE_RUNNING,
		CurrentNode: fl.StartNode,
		Variables:   make(map[string]any),
		StartedAt:   now,
		UpdatedAt:   now,
	}
	machine := &FlowMachine{
		Session:      session,
		flow:         fl,
		container:    container,
		resumeEncDec: util.NewJsonEncoderDecoder[ResumeRequest](),
	}
	if err := machine.save(); err != nil {
		return nil, err
	}
	return machine, nil
}

// LoadFlowMachine resumes an existing session.
func LoadFlowMachine(fl *Flow, session *model.Session, container *container.Container) *FlowMachine {
	return &FlowMachine{
		Session:      session,
		flow:         fl,
		container:    container,
		resumeEncDec: util.NewJsonEncoderDecoder[ResumeRequest](),
	}
}

// Run advances the session node by node for one inbound event, stopping
// on a wait, a terminal node, a handler error, or the hop ceiling.
func (f *FlowMachine) Run(ctx context.Context, event *model.InboundEvent) error {
	hopLimit := f.container.GetConfig().HopLimit
	if hopLimit <= 0 {
		hopLimit = 64
	}
	for hop := 0; ; hop++ {
		if hop >= hopLimit {
			err := HopLimitError{SessionId: f.Session.Id, Limit: hopLimit}
			f.markFailed(err)
			return err
		}
		currentNode, ok := f.flow.Nodes[f.Session.CurrentNode]
		if !ok {
			err := fmt.Errorf("node %s not found in flow %s", f.Session.CurrentNode, f.flow.Id)
			f.markFailed(err)
			return err
		}
		result, err := currentNode.Execute(ctx, f.Session, event)
		if err != nil {
			f.markFailed(err)
			return err
		}
		f.Session.PutVariables(result.Variables)

		if result.Terminal {
			return f.markComplete()
		}
		if result.Wait != "" {
			return f.markWaiting(currentNode, result.Wait)
		}
		if result.NextNodeId == "" {
			// implicit wait: stay at the current node, running
			f.Session.State = model.SESSION_STATE_RUNNING
			return f.save()
		}
		f.Session.State = model.SESSION_STATE_RUNNING
		f.Session.CurrentNode = result.NextNodeId
		if err := f.save(); err != nil {
			return err
		}
		// the event only drives the node it arrived at; later hops see
		// its values through the variable bag
		event = nil
	}
}

func (f *FlowMachine) markWaiting(currentNode node.Node, state model.SessionState) error {
	f.Session.State = state
	if err := f.save(); err != nil {
		return err
	}
	if state == model.SESSION_STATE_WAITING_DELAY {
		return f.scheduleResume(currentNode)
	}
	return nil
}

func (f *FlowMachine) scheduleResume(currentNode node.Node) error {
	type delayer interface {
		Delay() time.Duration
	}
	d, ok := currentNode.(delayer)
	if !ok {
		return fmt.Errorf("node %s cannot wait on a delay", currentNode.GetId())
	}
	payload, err := f.resumeEncDec.Encode(ResumeRequest{SessionId: f.Session.Id})
	if err != nil {
		return err
	}
	return f.container.GetDelayQueue().PushWithDelay(DELAY_QUEUE, d.Delay(), payload)
}

func (f *FlowMachine) markComplete() error {
	f.Session.State = model.SESSION_STATE_COMPLETED
	f.Session.CompletedAt = time.Now()
	logger.Info("session completed",
		zap.String("sessionId", f.Session.Id),
		zap.String("flowId", f.flow.Id))
	return f.save()
}

func (f *FlowMachine) markFailed(cause error) {
	f.Session.State = model.SESSION_STATE_FAILED
	f.Session.Error = cause.Error()
	f.Session.CompletedAt = time.Now()
	logger.Error("session failed",
		zap.String("sessionId", f.Session.Id),
		zap.String("flowId", f.flow.Id),
		zap.Error(cause))
	if err := f.save(); err != nil {
		logger.Error("error saving failed session", zap.String("sessionId", f.Session.Id), zap.Error(err))
	}
}

func (f *FlowMachine) save() error {
	f.Session.UpdatedAt = time.Now()
	return f.container.GetStorage().SaveSession(f.Session)
}
