package inmem

import (
	"sync"
	"time"

	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/persistence"
)

var _ persistence.Storage = new(Storage)
var _ persistence.DelayQueue = new(DelayQueue)

// Storage is a map-backed implementation of the full storage surface.
// Selected with --storage-impl=memory; also the workhorse of the tests.
type Storage struct {
	mu        sync.Mutex
	flows     map[string]model.Flow
	sessions  map[string]model.Session
	addresses map[string]string
	webhooks  map[string]model.WebhookExecution
	pending   []string
	audit     []model.AuditLogEntry
}

func NewStorage() *Storage {
	return &Storage{
		flows:     make(map[string]model.Flow),
		sessions:  make(map[string]model.Session),
		addresses: make(map[string]string),
		webhooks:  make(map[string]model.WebhookExecution),
	}
}

func (s *Storage) SaveFlow(flow model.Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[flow.Id] = flow
	return nil
}

func (s *Storage) DeleteFlow(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, id)
	return nil
}

func (s *Storage) GetFlow(id string) (*model.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.flows[id]
	if !ok {
		return nil, persistence.FlowNotFoundError{Ref: id}
	}
	return &flow, nil
}

func (s *Storage) ListFlows() ([]model.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flows := make([]model.Flow, 0, len(s.flows))
	for _, flow := range s.flows {
		flows = append(flows, flow)
	}
	return flows, nil
}

func (s *Storage) SaveSession(session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Id] = *session
	if session.Active() {
		s.addresses[session.Address] = session.Id
	} else if s.addresses[session.Address] == session.Id {
		delete(s.addresses, session.Address)
	}
	return nil
}

func (s *Storage) GetSession(id string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (s *Storage) GetActiveSession(address string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessionId, ok := s.addresses[address]
	if !ok {
		return nil, nil
	}
	session, ok := s.sessions[sessionId]
	if !ok || !session.Active() {
		delete(s.addresses, address)
		return nil, nil
	}
	return &session, nil
}

func (s *Storage) ReleaseAddress(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.addresses, address)
	return nil
}

func (s *Storage) ListActiveSessions() ([]model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := make([]model.Session, 0, len(s.addresses))
	for _, sessionId := range s.addresses {
		session, ok := s.sessions[sessionId]
		if ok && session.Active() {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

func (s *Storage) SaveWebhookExecution(exec *model.WebhookExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.webhooks[exec.Id] = *exec
	if exec.Status == model.WEBHOOK_EXECUTION_PENDING {
		s.pending = append(s.pending, exec.Id)
	}
	return nil
}

func (s *Storage) GetWebhookExecution(id string) (*model.WebhookExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exec, ok := s.webhooks[id]
	if !ok {
		return nil, nil
	}
	return &exec, nil
}

func (s *Storage) PollPending(batchSize int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if batchSize > len(s.pending) {
		batchSize = len(s.pending)
	}
	ids := s.pending[:batchSize]
	s.pending = s.pending[batchSize:]
	return ids, nil
}

func (s *Storage) AppendAuditLog(entry model.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, entry)
	return nil
}

// AuditEntries exposes the appended rows for tests.
func (s *Storage) AuditEntries() []model.AuditLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AuditLogEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

type delayedItem struct {
	due     time.Time
	payload string
}

// DelayQueue is the in-memory counterpart of the redis sorted-set queue.
type DelayQueue struct {
	mu     sync.Mutex
	queues map[string][]delayedItem
}

func NewDelayQueue() *DelayQueue {
	return &DelayQueue{
		queues: make(map[string][]delayedItem),
	}
}

func (q *DelayQueue) PushWithDelay(queueName string, delay time.Duration, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queues[queueName] = append(q.queues[queueName], delayedItem{
		due:     time.Now().Add(delay),
		payload: string(payload),
	})
	return nil
}

func (q *DelayQueue) Pop(queueName string) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := time.Now()
	var due []string
	var rest []delayedItem
	for _, item := range q.queues[queueName] {
		if !item.due.After(now) {
			due = append(due, item.payload)
		} else {
			rest = append(rest, item)
		}
	}
	q.queues[queueName] = rest
	return due, nil
}
