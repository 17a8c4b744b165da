package flow

import (
	"context"
	"testing"

	"github.com/chatflowhq/chatflow/config"
	"github.com/chatflowhq/chatflow/container"
	"github.com/chatflowhq/chatflow/integration"
	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/persistence/inmem"
	"github.com/stretchr/testify/require"
)

type fakeMessenger struct {
	sent []map[string]any
}

func (f *fakeMessenger) Send(ctx context.Context, address string, content map[string]any) (*integration.SendResult, error) {
	f.sent = append(f.sent, content)
	return &integration.SendResult{Delivered: true, ProviderMessageId: "wamid.test"}, nil
}

func newTestContainer(t *testing.T) (*container.Container, *inmem.Storage, *inmem.DelayQueue, *fakeMessenger) {
	t.Helper()
	storage := inmem.NewStorage()
	delayQueue := inmem.NewDelayQueue()
	messenger := &fakeMessenger{}
	cont := container.NewContainer(config.Config{HopLimit: 8})
	cont.InitForTest(storage, delayQueue, messenger, nil, nil, nil)
	return cont, storage, delayQueue, messenger
}

func questionFlowDef() *model.Flow {
	return &model.Flow{
		Id:        "f1",
		Name:      "Color Survey",
		Status:    model.FLOW_STATUS_ACTIVE,
		Triggers:  []string{"survey"},
		StartNode: "n1",
		Nodes: []model.NodeDef{
			{Id: "n1", Type: "trigger", Next: map[string]string{"default": "n2"}},
			{Id: "n2", Type: "ask_question",
				Config: map[string]any{"text": "favourite color?", "variable": "color"},
				Next:   map[string]string{"default": "n3"}},
			{Id: "n3", Type: "send_message",
				Config: map[string]any{"text": "you said {color}"},
				Next:   map[string]string{"default": "n4"}},
			{Id: "n4", Type: "stop_chatbot"},
		},
	}
}

func TestFlowMachine(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"test run pauses on question and resumes on reply": testQuestionRoundTrip,
		"test cyclic graph hits hop ceiling":               testHopCeiling,
		"test delay schedules resume request":              testDelaySchedulesResume,
		"test active session owns its address":             testAddressOwnership,
	} {
		t.Run(scenario, fn)
	}
}

func testQuestionRoundTrip(t *testing.T) {
	cont, storage, _, messenger := newTestContainer(t)
	fl, err := Convert(questionFlowDef(), cont)
	require.NoError(t, err)

	machine, err := NewFlowMachine(fl, "+15550001111", cont)
	require.NoError(t, err)
	err = machine.Run(context.Background(), &model.InboundEvent{
		Source:  model.SOURCE_PROVIDER,
		Address: "+15550001111",
		Message: &model.InboundMessage{Type: "text", Text: "survey"},
	})
	require.NoError(t, err)
	require.Equal(t, model.SESSION_STATE_WAITING_REPLY, machine.Session.State)
	require.Equal(t, "n2", machine.Session.CurrentNode)
	require.Len(t, messenger.sent, 1)

	// resume from storage, the way a restart would
	stored, err := storage.GetSession(machine.Session.Id)
	require.NoError(t, err)
	require.NotNil(t, stored)

	resumed := LoadFlowMachine(fl, stored, cont)
	err = resumed.Run(context.Background(), &model.InboundEvent{
		Source:  model.SOURCE_PROVIDER,
		Address: "+15550001111",
		Message: &model.InboundMessage{Type: "text", Text: "blue"},
	})
	require.NoError(t, err)
	require.Equal(t, model.SESSION_STATE_COMPLETED, resumed.Session.State)
	require.Equal(t, "blue", resumed.Session.Variables["color"])
	require.Len(t, messenger.sent, 2)
	body := messenger.sent[1]["text"].(map[string]any)["body"]
	require.Equal(t, "you said blue", body)
}

func testHopCeiling(t *testing.T) {
	cont, storage, _, _ := newTestContainer(t)
	def := &model.Flow{
		Id:        "loop",
		Name:      "Loop",
		Status:    model.FLOW_STATUS_ACTIVE,
		StartNode: "n1",
		Nodes: []model.NodeDef{
			{Id: "n1", Type: "trigger", Next: map[string]string{"default": "n2"}},
			{Id: "n2", Type: "trigger", Next: map[string]string{"default": "n1"}},
		},
	}
	fl, err := Convert(def, cont)
	require.NoError(t, err)

	machine, err := NewFlowMachine(fl, "+15550002222", cont)
	require.NoError(t, err)
	err = machine.Run(context.Background(), nil)
	require.Error(t, err)
	_, ok := err.(HopLimitError)
	require.True(t, ok)

	stored, err := storage.GetSession(machine.Session.Id)
	require.NoError(t, err)
	require.Equal(t, model.SESSION_STATE_FAILED, stored.State)
	require.NotEmpty(t, stored.Error)
}

func testDelaySchedulesResume(t *testing.T) {
	cont, _, delayQueue, _ := newTestContainer(t)
	def := &model.Flow{
		Id:        "delayed",
		Name:      "Delayed",
		Status:    model.FLOW_STATUS_ACTIVE,
		StartNode: "n1",
		Nodes: []model.NodeDef{
			{Id: "n1", Type: "delay",
				Config: map[string]any{"delaySeconds": 0},
				Next:   map[string]string{"default": "n2"}},
			{Id: "n2", Type: "stop_chatbot"},
		},
	}
	fl, err := Convert(def, cont)
	require.NoError(t, err)

	machine, err := NewFlowMachine(fl, "+15550003333", cont)
	require.NoError(t, err)
	err = machine.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, model.SESSION_STATE_WAITING_DELAY, machine.Session.State)

	payloads, err := delayQueue.Pop(DELAY_QUEUE)
	require.NoError(t, err)
	require.Len(t, payloads, 1)

	encDec := machine.resumeEncDec
	req, err := encDec.Decode([]byte(payloads[0]))
	require.NoError(t, err)
	require.Equal(t, machine.Session.Id, req.SessionId)
}

func testAddressOwnership(t *testing.T) {
	cont, storage, _, _ := newTestContainer(t)
	fl, err := Convert(questionFlowDef(), cont)
	require.NoError(t, err)

	machine, err := NewFlowMachine(fl, "+15550004444", cont)
	require.NoError(t, err)

	active, err := storage.GetActiveSession("+15550004444")
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, machine.Session.Id, active.Id)

	machine.Session.State = model.SESSION_STATE_COMPLETED
	require.NoError(t, storage.SaveSession(machine.Session))

	released, err := storage.GetActiveSession("+15550004444")
	require.NoError(t, err)
	require.Nil(t, released)
}
