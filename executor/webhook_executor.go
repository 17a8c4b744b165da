package executor

import (
	"context"
	"sync"
	"time"

	"github.com/chatflowhq/chatflow/container"
	"github.com/chatflowhq/chatflow/engine"
	"github.com/chatflowhq/chatflow/logger"
	"github.com/chatflowhq/chatflow/util"
	"go.uber.org/zap"
)

var _ Executor = new(WebhookExecutor)

// WebhookExecutor drains pending webhook execution records and feeds
// them to the engine, decoupling "webhook received" from "webhook
// processed".
type WebhookExecutor struct {
	container *container.Container
	engine    *engine.Engine
	batchSize int
	wg        *sync.WaitGroup
	stop      chan struct{}
}

func NewWebhookExecutor(container *container.Container, eng *engine.Engine, wg *sync.WaitGroup) *WebhookExecutor {
	return &WebhookExecutor{
		container: container,
		engine:    eng,
		batchSize: 16,
		stop:      make(chan struct{}),
		wg:        wg,
	}
}

func (ex *WebhookExecutor) Name() string {
	return "webhook-executor"
}

func (ex *WebhookExecutor) Start() error {
	fn := func() {
		ids, err := ex.container.GetStorage().PollPending(ex.batchSize)
		if err != nil {
			logger.Error("error while polling pending webhooks", zap.Error(err))
			return
		}
		for _, id := range ids {
			exec, err := ex.container.GetStorage().GetWebhookExecution(id)
			if err != nil {
				logger.Error("error loading webhook execution", zap.String("id", id), zap.Error(err))
				continue
			}
			if exec == nil {
				continue
			}
			ex.engine.ConsumeWebhookExecution(context.Background(), exec)
		}
	}
	tw := util.NewTickWorker(ex.Name(), time.Second, ex.stop, fn, ex.wg)
	tw.Start()
	logger.Info("webhook executor started")
	return nil
}

func (ex *WebhookExecutor) Stop() error {
	ex.stop <- struct{}{}
	return nil
}
