package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/chatflowhq/chatflow/audit"
	"github.com/chatflowhq/chatflow/config"
	"github.com/chatflowhq/chatflow/container"
	"github.com/chatflowhq/chatflow/integration"
	"github.com/chatflowhq/chatflow/metadata"
	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/persistence/inmem"
	"github.com/stretchr/testify/require"
)

type fakeMessenger struct {
	mu   sync.Mutex
	sent []map[string]any
}

func (f *fakeMessenger) Send(ctx context.Context, address string, content map[string]any) (*integration.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, content)
	return &integration.SendResult{Delivered: true, ProviderMessageId: "wamid.test"}, nil
}

func (f *fakeMessenger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type engineFixture struct {
	engine    *Engine
	storage   *inmem.Storage
	messenger *fakeMessenger
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	storage := inmem.NewStorage()
	messenger := &fakeMessenger{}
	cont := container.NewContainer(config.Config{HopLimit: 16})
	cont.InitForTest(storage, inmem.NewDelayQueue(), messenger, nil, nil, nil)
	metadataService := metadata.NewMetadataService(cont)

	var wg sync.WaitGroup
	auditWriter, err := audit.NewWriter(storage, "", 64, &wg)
	require.NoError(t, err)

	return &engineFixture{
		engine:    NewEngine(cont, metadataService, auditWriter),
		storage:   storage,
		messenger: messenger,
	}
}

func welcomeFlow() model.Flow {
	return model.Flow{
		Id:        "f1",
		Name:      "Welcome",
		Status:    model.FLOW_STATUS_ACTIVE,
		Triggers:  []string{"hello"},
		StartNode: "n1",
		Nodes: []model.NodeDef{
			{Id: "n1", Type: "trigger", Next: map[string]string{"default": "n2"}},
			{Id: "n2", Type: "ask_question",
				Config: map[string]any{"text": "what do you need?", "variable": "need"},
				Next:   map[string]string{"default": "n3"}},
			{Id: "n3", Type: "stop_chatbot"},
		},
	}
}

func webhookFlow() model.Flow {
	return model.Flow{
		Id:        "f2",
		Name:      "Order Updates",
		Status:    model.FLOW_STATUS_ACTIVE,
		Triggers:  []string{"track"},
		StartNode: "n1",
		Nodes: []model.NodeDef{
			{Id: "n1", Type: "trigger", Next: map[string]string{"default": "n2"}},
			{Id: "n2", Type: "webhook",
				Config: map[string]any{"webhookId": "hook-1"},
				Next:   map[string]string{"default": "n3"}},
			{Id: "n3", Type: "stop_chatbot"},
		},
	}
}

func providerEvent(address, text string) *model.InboundEvent {
	return &model.InboundEvent{
		Source:  model.SOURCE_PROVIDER,
		Address: address,
		Method:  "POST",
		Message: &model.InboundMessage{Type: "text", Text: text},
	}
}

func TestEngine(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"test trigger starts a session":                testTriggerStartsSession,
		"test reply resumes the waiting session":       testReplyResumesSession,
		"test unmatched message is a no-op":            testUnmatchedMessage,
		"test waiting webhook ignores chat messages":   testWaitingWebhookIgnoresMessages,
		"test webhook execution advances session":      testWebhookExecutionAdvances,
		"test webhook with no waiting session fails":   testWebhookNoWaitingSession,
		"test session variables carry message context": testMessageVariables,
	} {
		t.Run(scenario, fn)
	}
}

func testTriggerStartsSession(t *testing.T) {
	fix := newEngineFixture(t)
	require.NoError(t, fix.storage.SaveFlow(welcomeFlow()))

	outcome, err := fix.engine.HandleMessage(context.Background(), providerEvent("+15550001111", "hello"))
	require.NoError(t, err)
	require.True(t, outcome.FlowMatched)
	require.False(t, outcome.SessionFound)
	require.Equal(t, "f1", outcome.FlowId)
	require.Equal(t, "n2", outcome.NodeId)
	require.Equal(t, 1, fix.messenger.count())

	session, err := fix.storage.GetActiveSession("+15550001111")
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Equal(t, model.SESSION_STATE_WAITING_REPLY, session.State)
}

func testReplyResumesSession(t *testing.T) {
	fix := newEngineFixture(t)
	require.NoError(t, fix.storage.SaveFlow(welcomeFlow()))

	_, err := fix.engine.HandleMessage(context.Background(), providerEvent("+15550001111", "hello"))
	require.NoError(t, err)

	outcome, err := fix.engine.HandleMessage(context.Background(), providerEvent("+15550001111", "an invoice"))
	require.NoError(t, err)
	require.True(t, outcome.SessionFound)
	require.False(t, outcome.FlowMatched)

	session, err := fix.storage.GetSession(outcome.SessionId)
	require.NoError(t, err)
	require.Equal(t, model.SESSION_STATE_COMPLETED, session.State)
	require.Equal(t, "an invoice", session.Variables["need"])
}

func testUnmatchedMessage(t *testing.T) {
	fix := newEngineFixture(t)
	require.NoError(t, fix.storage.SaveFlow(welcomeFlow()))

	outcome, err := fix.engine.HandleMessage(context.Background(), providerEvent("+15550001111", "goodbye"))
	require.NoError(t, err)
	require.False(t, outcome.FlowMatched)
	require.False(t, outcome.SessionFound)

	session, err := fix.storage.GetActiveSession("+15550001111")
	require.NoError(t, err)
	require.Nil(t, session)
}

func testWaitingWebhookIgnoresMessages(t *testing.T) {
	fix := newEngineFixture(t)
	require.NoError(t, fix.storage.SaveFlow(webhookFlow()))

	outcome, err := fix.engine.HandleMessage(context.Background(), providerEvent("+15550002222", "track"))
	require.NoError(t, err)
	require.Equal(t, "n2", outcome.NodeId)

	// a chat message must not advance a webhook wait
	outcome, err = fix.engine.HandleMessage(context.Background(), providerEvent("+15550002222", "anything"))
	require.NoError(t, err)
	require.True(t, outcome.SessionFound)

	session, err := fix.storage.GetActiveSession("+15550002222")
	require.NoError(t, err)
	require.Equal(t, model.SESSION_STATE_WAITING_WEBHOOK, session.State)
	require.Equal(t, "n2", session.CurrentNode)
}

func testWebhookExecutionAdvances(t *testing.T) {
	fix := newEngineFixture(t)
	require.NoError(t, fix.storage.SaveFlow(webhookFlow()))

	_, err := fix.engine.HandleMessage(context.Background(), providerEvent("+15550002222", "track"))
	require.NoError(t, err)

	exec := &model.WebhookExecution{
		Id:     "we1",
		FlowId: "f2",
		NodeId: "n2",
		Method: "POST",
		Body:   map[string]any{"status": "shipped"},
		Status: model.WEBHOOK_EXECUTION_PENDING,
	}
	require.NoError(t, fix.storage.SaveWebhookExecution(exec))
	fix.engine.ConsumeWebhookExecution(context.Background(), exec)

	settled, err := fix.storage.GetWebhookExecution("we1")
	require.NoError(t, err)
	require.Equal(t, model.WEBHOOK_EXECUTION_COMPLETED, settled.Status)

	session, err := fix.storage.GetActiveSession("+15550002222")
	require.NoError(t, err)
	require.Nil(t, session)
}

func testWebhookNoWaitingSession(t *testing.T) {
	fix := newEngineFixture(t)
	require.NoError(t, fix.storage.SaveFlow(webhookFlow()))

	exec := &model.WebhookExecution{
		Id:     "we2",
		FlowId: "f2",
		NodeId: "n2",
		Method: "POST",
		Status: model.WEBHOOK_EXECUTION_PENDING,
	}
	require.NoError(t, fix.storage.SaveWebhookExecution(exec))
	fix.engine.ConsumeWebhookExecution(context.Background(), exec)

	settled, err := fix.storage.GetWebhookExecution("we2")
	require.NoError(t, err)
	require.Equal(t, model.WEBHOOK_EXECUTION_FAILED, settled.Status)
	require.NotEmpty(t, settled.Error)
}

func testMessageVariables(t *testing.T) {
	fix := newEngineFixture(t)
	require.NoError(t, fix.storage.SaveFlow(welcomeFlow()))

	outcome, err := fix.engine.HandleMessage(context.Background(), providerEvent("+15550003333", "hello"))
	require.NoError(t, err)

	session, err := fix.storage.GetSession(outcome.SessionId)
	require.NoError(t, err)
	require.Equal(t, "+15550003333", session.Variables["address"])
	require.Equal(t, "hello", session.Variables["message"])
	require.Equal(t, "text", session.Variables["message.type"])
}
