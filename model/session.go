package model

import "time"

type SessionState string

const SESSION_STATE_RUNNING SessionState = "running"
const SESSION_STATE_WAITING_REPLY SessionState = "waiting_reply"
const SESSION_STATE_WAITING_DELAY SessionState = "waiting_delay"
const SESSION_STATE_WAITING_WEBHOOK SessionState = "waiting_webhook"
const SESSION_STATE_COMPLETED SessionState = "completed"
const SESSION_STATE_FAILED SessionState = "failed"
const SESSION_STATE_TIMEOUT SessionState = "timeout"

// Session is one traversal of a flow for one end-user address. At most one
// active session may exist per address; the engine treats the most recently
// updated active session as authoritative.
type Session struct {
	Id          string         `json:"id"`
	FlowId      string         `json:"flowId"`
	Address     string         `json:"address"`
	State       SessionState   `json:"state"`
	CurrentNode string         `json:"currentNode"`
	Variables   map[string]any `json:"variables"`
	StartedAt   time.Time      `json:"startedAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	CompletedAt time.Time      `json:"completedAt,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Active reports whether the session still owns its address. Waiting
// states count as active: a waiting session is resumed, never replaced,
// by the next inbound event.
func (s *Session) Active() bool {
	switch s.State {
	case SESSION_STATE_RUNNING, SESSION_STATE_WAITING_REPLY,
		SESSION_STATE_WAITING_DELAY, SESSION_STATE_WAITING_WEBHOOK:
		return true
	}
	return false
}

func (s *Session) PutVariables(updates map[string]any) {
	if s.Variables == nil {
		s.Variables = make(map[string]any)
	}
	for k, v := range updates {
		s.Variables[k] = v
	}
}
