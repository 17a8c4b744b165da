package metadata

import (
	"testing"
	"time"

	"github.com/chatflowhq/chatflow/config"
	"github.com/chatflowhq/chatflow/container"
	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/node"
	"github.com/chatflowhq/chatflow/persistence"
	"github.com/chatflowhq/chatflow/persistence/inmem"
	"github.com/stretchr/testify/require"
)

func newMetadataFixture(t *testing.T) (MetadataService, *inmem.Storage) {
	t.Helper()
	storage := inmem.NewStorage()
	cont := container.NewContainer(config.Config{})
	cont.InitForTest(storage, inmem.NewDelayQueue(), nil, nil, nil, nil)
	return NewMetadataService(cont), storage
}

func flowDef(id, name, webhookId string) model.Flow {
	return model.Flow{
		Id:        id,
		Name:      name,
		Status:    model.FLOW_STATUS_ACTIVE,
		StartNode: "n1",
		CreatedAt: time.Now(),
		Nodes: []model.NodeDef{
			{Id: "n1", Type: "trigger", Next: map[string]string{"default": "wh"}},
			{Id: "wh", Type: "webhook",
				Config: map[string]any{"webhookId": webhookId},
				Next:   map[string]string{"default": "n3"}},
			{Id: "n3", Type: "stop_chatbot"},
		},
	}
}

func TestMetadataService(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"test resolve by id wins over slug": func(t *testing.T) {
			service, storage := newMetadataFixture(t)
			require.NoError(t, storage.SaveFlow(flowDef("order-updates", "Something Else", "h1")))
			require.NoError(t, storage.SaveFlow(flowDef("f2", "Order Updates", "h2")))

			fl, err := service.ResolveFlow("order-updates")
			require.NoError(t, err)
			require.Equal(t, "order-updates", fl.Id)
		},
		"test resolve falls back to slug": func(t *testing.T) {
			service, storage := newMetadataFixture(t)
			require.NoError(t, storage.SaveFlow(flowDef("f1", "Order Updates", "h1")))

			fl, err := service.ResolveFlow("order-updates")
			require.NoError(t, err)
			require.Equal(t, "f1", fl.Id)
		},
		"test resolve unknown ref fails": func(t *testing.T) {
			service, _ := newMetadataFixture(t)
			_, err := service.ResolveFlow("ghost")
			_, ok := err.(persistence.FlowNotFoundError)
			require.True(t, ok)
		},
		"test find webhook node": func(t *testing.T) {
			service, storage := newMetadataFixture(t)
			require.NoError(t, storage.SaveFlow(flowDef("f1", "A", "h1")))
			require.NoError(t, storage.SaveFlow(flowDef("f2", "B", "h2")))

			fl, n, err := service.FindWebhookNode("h2")
			require.NoError(t, err)
			require.Equal(t, "f2", fl.Id)
			require.Equal(t, "wh", n.GetId())
			require.Equal(t, "h2", n.(node.WebhookConfig).WebhookId())
		},
		"test find webhook skips inactive flows": func(t *testing.T) {
			service, storage := newMetadataFixture(t)
			def := flowDef("f1", "A", "h1")
			def.Status = model.FLOW_STATUS_ARCHIVED
			require.NoError(t, storage.SaveFlow(def))

			_, _, err := service.FindWebhookNode("h1")
			_, ok := err.(WebhookNotFoundError)
			require.True(t, ok)
		},
		"test save rejects invalid definition": func(t *testing.T) {
			service, _ := newMetadataFixture(t)
			def := flowDef("f1", "A", "h1")
			def.StartNode = "missing"
			require.Error(t, service.SaveFlow(def))
		},
		"test save invalidates cache": func(t *testing.T) {
			service, _ := newMetadataFixture(t)
			def := flowDef("f1", "A", "h1")
			require.NoError(t, service.SaveFlow(def))

			fl, err := service.GetFlow("f1")
			require.NoError(t, err)
			require.Equal(t, "A", fl.Name)

			def.Name = "B"
			require.NoError(t, service.SaveFlow(def))
			fl, err = service.GetFlow("f1")
			require.NoError(t, err)
			require.Equal(t, "B", fl.Name)
		},
	} {
		t.Run(scenario, fn)
	}
}
