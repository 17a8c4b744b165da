package persistence

import (
	"fmt"
	"time"

	"github.com/chatflowhq/chatflow/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

type EmptyQueueError struct {
	QueueName string
}

func (e EmptyQueueError) Error() string {
	return fmt.Sprintf("queue %s is empty", e.QueueName)
}

type FlowNotFoundError struct {
	Ref string
}

func (e FlowNotFoundError) Error() string {
	return fmt.Sprintf("flow %s not found", e.Ref)
}

// FlowStorage keeps flow definitions.
type FlowStorage interface {
	SaveFlow(flow model.Flow) error
	DeleteFlow(id string) error
	GetFlow(id string) (*model.Flow, error)
	ListFlows() ([]model.Flow, error)
}

// SessionStorage keeps one active session per end-user address plus the
// full session history by id.
type SessionStorage interface {
	SaveSession(session *model.Session) error
	GetSession(id string) (*model.Session, error)
	GetActiveSession(address string) (*model.Session, error)
	ReleaseAddress(address string) error
	ListActiveSessions() ([]model.Session, error)
}

// WebhookExecutionStorage keeps captured webhook calls and the pending
// queue the sweeper drains.
type WebhookExecutionStorage interface {
	SaveWebhookExecution(exec *model.WebhookExecution) error
	GetWebhookExecution(id string) (*model.WebhookExecution, error)
	PollPending(batchSize int) ([]string, error)
}

// AuditLogStorage appends audit rows. Nothing reads them back on the
// request path.
type AuditLogStorage interface {
	AppendAuditLog(entry model.AuditLogEntry) error
}

// DelayQueue schedules opaque payloads for future pickup.
type DelayQueue interface {
	PushWithDelay(queueName string, delay time.Duration, payload []byte) error
	Pop(queueName string) ([]string, error)
}

// Storage is the full durable surface the engine runs against.
type Storage interface {
	FlowStorage
	SessionStorage
	WebhookExecutionStorage
	AuditLogStorage
}
