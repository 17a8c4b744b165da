package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chatflowhq/chatflow/audit"
	"github.com/chatflowhq/chatflow/container"
	"github.com/chatflowhq/chatflow/flow"
	"github.com/chatflowhq/chatflow/logger"
	"github.com/chatflowhq/chatflow/metadata"
	"github.com/chatflowhq/chatflow/model"
	"go.uber.org/zap"
)

// Outcome summarizes what one inbound event did, for the audit trail
// and the ingress response.
type Outcome struct {
	SessionFound bool
	FlowMatched  bool
	FlowId       string
	NodeId       string
	SessionId    string
}

// Engine turns canonical inbound events into session transitions.
// Events for the same end-user address are serialized on a per-address
// lock; different addresses run in parallel.
type Engine struct {
	container *container.Container
	metadata  metadata.MetadataService
	audit     *audit.Writer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEngine(container *container.Container, metadataService metadata.MetadataService, auditWriter *audit.Writer) *Engine {
	return &Engine{
		container: container,
		metadata:  metadataService,
		audit:     auditWriter,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (e *Engine) lockAddress(address string) func() {
	e.mu.Lock()
	lock, ok := e.locks[address]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[address] = lock
	}
	e.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// HandleMessage processes one provider message: continue the address's
// active session when one exists, otherwise match a trigger and start a
// new session. No match is a no-op, logged only.
func (e *Engine) HandleMessage(ctx context.Context, event *model.InboundEvent) (*Outcome, error) {
	start := time.Now()
	unlock := e.lockAddress(event.Address)
	defer unlock()

	outcome, err := e.handleMessage(ctx, event)
	entry := model.AuditLogEntry{
		Source:       event.Source,
		Method:       event.Method,
		Payload:      event.RawBody,
		SessionFound: outcome.SessionFound,
		FlowMatched:  outcome.FlowMatched,
		FlowId:       outcome.FlowId,
		NodeId:       outcome.NodeId,
		DurationMs:   time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	e.audit.Record(entry)
	return outcome, err
}

func (e *Engine) handleMessage(ctx context.Context, event *model.InboundEvent) (*Outcome, error) {
	outcome := &Outcome{}
	session, err := e.container.GetStorage().GetActiveSession(event.Address)
	if err != nil {
		return outcome, err
	}
	if session != nil {
		outcome.SessionFound = true
		outcome.FlowId = session.FlowId
		outcome.SessionId = session.Id
		switch session.State {
		case model.SESSION_STATE_WAITING_DELAY, model.SESSION_STATE_WAITING_WEBHOOK:
			logger.Debug("session not waiting for a message, ignoring",
				zap.String("sessionId", session.Id),
				zap.String("state", string(session.State)))
			outcome.NodeId = session.CurrentNode
			return outcome, nil
		}
		fl, err := e.metadata.GetFlow(session.FlowId)
		if err != nil {
			return outcome, err
		}
		machine := flow.LoadFlowMachine(fl, session, e.container)
		seedMessageVariables(session, event)
		err = machine.Run(ctx, event)
		outcome.NodeId = machine.Session.CurrentNode
		return outcome, err
	}

	if event.Message == nil {
		return outcome, nil
	}
	candidates, err := e.metadata.ListFlowDefinitions()
	if err != nil {
		return outcome, err
	}
	// storage returns flows unordered; matching wants a stable order
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
		}
		return candidates[i].Id < candidates[j].Id
	})
	matched := flow.Match(candidates, event.Message.Text)
	if matched == nil {
		logger.Debug("no flow matched", zap.String("address", event.Address))
		return outcome, nil
	}
	outcome.FlowMatched = true
	outcome.FlowId = matched.Id

	fl, err := e.metadata.GetFlow(matched.Id)
	if err != nil {
		return outcome, err
	}
	machine, err := flow.NewFlowMachine(fl, event.Address, e.container)
	if err != nil {
		return outcome, err
	}
	outcome.SessionId = machine.Session.Id
	seedMessageVariables(machine.Session, event)
	logger.Info("starting session",
		zap.String("flowId", fl.Id),
		zap.String("address", event.Address),
		zap.String("sessionId", machine.Session.Id))
	err = machine.Run(ctx, event)
	outcome.NodeId = machine.Session.CurrentNode
	return outcome, err
}

func seedMessageVariables(session *model.Session, event *model.InboundEvent) {
	if event == nil || event.Message == nil {
		return
	}
	session.PutVariables(map[string]any{
		"address":      session.Address,
		"message":      event.Message.Text,
		"message.type": event.Message.Type,
	})
}

// ConsumeWebhookExecution drives every session waiting on the record's
// (flow, node) pair, then settles the record. A record with no waiting
// session fails, leaving it visible for an external sweeper to
// reconsider.
func (e *Engine) ConsumeWebhookExecution(ctx context.Context, exec *model.WebhookExecution) {
	exec.Status = model.WEBHOOK_EXECUTION_PROCESSING
	exec.UpdatedAt = time.Now()
	if err := e.container.GetStorage().SaveWebhookExecution(exec); err != nil {
		logger.Error("error saving webhook execution", zap.String("id", exec.Id), zap.Error(err))
		return
	}

	sessions, err := e.container.GetStorage().ListActiveSessions()
	if err != nil {
		e.settleWebhookExecution(exec, err)
		return
	}
	event := &model.InboundEvent{
		Source:  model.SOURCE_FLOW_WEBHOOK,
		Method:  exec.Method,
		Headers: exec.Headers,
		Query:   exec.Query,
		Body:    exec.Body,
		RawBody: exec.RawBody,
	}
	var driven int
	var lastErr error
	for i := range sessions {
		session := sessions[i]
		if session.FlowId != exec.FlowId || session.CurrentNode != exec.NodeId ||
			session.State != model.SESSION_STATE_WAITING_WEBHOOK {
			continue
		}
		if err := e.driveSession(ctx, &session, event); err != nil {
			lastErr = err
			continue
		}
		driven++
	}
	if driven == 0 && lastErr == nil {
		lastErr = metadata.NodeNotFoundError{FlowId: exec.FlowId, NodeId: exec.NodeId}
		logger.Debug("no session waiting on webhook node",
			zap.String("flowId", exec.FlowId), zap.String("nodeId", exec.NodeId))
	}
	e.settleWebhookExecution(exec, lastErr)
}

func (e *Engine) settleWebhookExecution(exec *model.WebhookExecution, cause error) {
	if cause != nil {
		exec.Status = model.WEBHOOK_EXECUTION_FAILED
		exec.Error = cause.Error()
	} else {
		exec.Status = model.WEBHOOK_EXECUTION_COMPLETED
	}
	exec.UpdatedAt = time.Now()
	if err := e.container.GetStorage().SaveWebhookExecution(exec); err != nil {
		logger.Error("error settling webhook execution", zap.String("id", exec.Id), zap.Error(err))
	}
}

func (e *Engine) driveSession(ctx context.Context, session *model.Session, event *model.InboundEvent) error {
	unlock := e.lockAddress(session.Address)
	defer unlock()
	// re-read under the lock, the session may have moved
	current, err := e.container.GetStorage().GetSession(session.Id)
	if err != nil {
		return err
	}
	if current == nil || !current.Active() {
		return nil
	}
	fl, err := e.metadata.GetFlow(current.FlowId)
	if err != nil {
		return err
	}
	machine := flow.LoadFlowMachine(fl, current, e.container)
	return machine.Run(ctx, event)
}

// ResumeDelayed continues a session whose delay elapsed.
func (e *Engine) ResumeDelayed(ctx context.Context, sessionId string) {
	session, err := e.container.GetStorage().GetSession(sessionId)
	if err != nil {
		logger.Error("error loading delayed session", zap.String("sessionId", sessionId), zap.Error(err))
		return
	}
	if session == nil || session.State != model.SESSION_STATE_WAITING_DELAY {
		return
	}
	if err := e.driveSession(ctx, session, nil); err != nil {
		logger.Error("error resuming delayed session", zap.String("sessionId", sessionId), zap.Error(err))
	}
}

// TimeoutStaleSessions moves sessions idle past the limit to timeout.
func (e *Engine) TimeoutStaleSessions(olderThan time.Duration) {
	if olderThan <= 0 {
		return
	}
	sessions, err := e.container.GetStorage().ListActiveSessions()
	if err != nil {
		logger.Error("error listing active sessions", zap.Error(err))
		return
	}
	cutoff := time.Now().Add(-olderThan)
	for i := range sessions {
		session := sessions[i]
		if session.UpdatedAt.After(cutoff) {
			continue
		}
		unlock := e.lockAddress(session.Address)
		current, err := e.container.GetStorage().GetSession(session.Id)
		if err == nil && current != nil && current.Active() && !current.UpdatedAt.After(cutoff) {
			current.State = model.SESSION_STATE_TIMEOUT
			current.CompletedAt = time.Now()
			current.UpdatedAt = time.Now()
			if err := e.container.GetStorage().SaveSession(current); err != nil {
				logger.Error("error saving timed out session", zap.String("sessionId", current.Id), zap.Error(err))
			} else {
				logger.Info("session timed out", zap.String("sessionId", current.Id))
			}
		}
		unlock()
	}
}
