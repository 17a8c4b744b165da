package model

import "time"

type WebhookExecutionStatus string

const WEBHOOK_EXECUTION_PENDING WebhookExecutionStatus = "pending"
const WEBHOOK_EXECUTION_PROCESSING WebhookExecutionStatus = "processing"
const WEBHOOK_EXECUTION_COMPLETED WebhookExecutionStatus = "completed"
const WEBHOOK_EXECUTION_FAILED WebhookExecutionStatus = "failed"

// WebhookExecution is one captured webhook call queued for flow
// processing. Ingress creates it pending; the sweeper consumes it.
type WebhookExecution struct {
	Id        string                 `json:"id"`
	FlowId    string                 `json:"flowId"`
	NodeId    string                 `json:"nodeId"`
	Method    string                 `json:"method"`
	Headers   map[string]string      `json:"headers,omitempty"`
	Query     map[string]string      `json:"query,omitempty"`
	Body      map[string]any         `json:"body,omitempty"`
	RawBody   string                 `json:"rawBody,omitempty"`
	Status    WebhookExecutionStatus `json:"status"`
	Error     string                 `json:"error,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}
