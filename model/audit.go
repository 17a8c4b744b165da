package model

import "time"

// AuditLogEntry records the outcome of one inbound HTTP event. Append
// only; the engine never reads audit rows back for control decisions.
type AuditLogEntry struct {
	Id           string     `json:"id"`
	Source       SourceKind `json:"source"`
	Method       string     `json:"method"`
	Payload      string     `json:"payload,omitempty"`
	FlowId       string     `json:"flowId,omitempty"`
	NodeId       string     `json:"nodeId,omitempty"`
	SessionFound bool       `json:"sessionFound"`
	FlowMatched  bool       `json:"flowMatched"`
	DurationMs   int64      `json:"durationMs"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
