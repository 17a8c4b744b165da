package redis

import (
	"testing"

	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/persistence"
	"github.com/chatflowhq/chatflow/util"
	"github.com/stretchr/testify/require"
)

func TestFlowDao(t *testing.T) {
	dao := NewRedisFlowDao(newTestBaseDao(t), util.NewJsonEncoderDecoder[model.Flow]())

	_, err := dao.GetFlow("nope")
	_, ok := err.(persistence.FlowNotFoundError)
	require.True(t, ok)

	flow := model.Flow{
		Id:        "f1",
		Name:      "Welcome",
		Status:    model.FLOW_STATUS_ACTIVE,
		Triggers:  []string{"hello"},
		StartNode: "n1",
		Nodes: []model.NodeDef{
			{Id: "n1", Type: "trigger", Next: map[string]string{"default": "n2"}},
			{Id: "n2", Type: "stop_chatbot"},
		},
	}
	require.NoError(t, dao.SaveFlow(flow))

	loaded, err := dao.GetFlow("f1")
	require.NoError(t, err)
	require.Equal(t, "Welcome", loaded.Name)
	require.Len(t, loaded.Nodes, 2)

	flows, err := dao.ListFlows()
	require.NoError(t, err)
	require.Len(t, flows, 1)

	require.NoError(t, dao.DeleteFlow("f1"))
	_, err = dao.GetFlow("f1")
	_, ok = err.(persistence.FlowNotFoundError)
	require.True(t, ok)
}

func TestWebhookDao(t *testing.T) {
	dao := NewRedisWebhookDao(newTestBaseDao(t), util.NewJsonEncoderDecoder[model.WebhookExecution]())

	exec := &model.WebhookExecution{
		Id:     "we1",
		FlowId: "f1",
		NodeId: "wh",
		Method: "POST",
		Body:   map[string]any{"status": "shipped"},
		Status: model.WEBHOOK_EXECUTION_PENDING,
	}
	require.NoError(t, dao.SaveWebhookExecution(exec))

	ids, err := dao.PollPending(10)
	require.NoError(t, err)
	require.Equal(t, []string{"we1"}, ids)

	// the pending queue is drained, the record is not
	ids, err = dao.PollPending(10)
	require.NoError(t, err)
	require.Empty(t, ids)

	loaded, err := dao.GetWebhookExecution("we1")
	require.NoError(t, err)
	require.Equal(t, "shipped", loaded.Body["status"])

	// settling does not requeue
	exec.Status = model.WEBHOOK_EXECUTION_COMPLETED
	require.NoError(t, dao.SaveWebhookExecution(exec))
	ids, err = dao.PollPending(10)
	require.NoError(t, err)
	require.Empty(t, ids)
}
