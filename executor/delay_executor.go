package executor

import (
	"context"
	"sync"
	"time"

	"github.com/chatflowhq/chatflow/container"
	"github.com/chatflowhq/chatflow/engine"
	"github.com/chatflowhq/chatflow/flow"
	"github.com/chatflowhq/chatflow/logger"
	"github.com/chatflowhq/chatflow/util"
	"go.uber.org/zap"
)

var _ Executor = new(DelayExecutor)

// DelayExecutor polls the delay queue and resumes sessions whose delay
// elapsed.
type DelayExecutor struct {
	container *container.Container
	engine    *engine.Engine
	encDec    util.EncoderDecoder[flow.ResumeRequest]
	wg        *sync.WaitGroup
	stop      chan struct{}
}

func NewDelayExecutor(container *container.Container, eng *engine.Engine, wg *sync.WaitGroup) *DelayExecutor {
	return &DelayExecutor{
		container: container,
		engine:    eng,
		encDec:    util.NewJsonEncoderDecoder[flow.ResumeRequest](),
		stop:      make(chan struct{}),
		wg:        wg,
	}
}

func (ex *DelayExecutor) Name() string {
	return "delay-executor"
}

func (ex *DelayExecutor) Start() error {
	fn := func() {
		res, err := ex.container.GetDelayQueue().Pop(flow.DELAY_QUEUE)
		if err != nil {
			logger.Error("error while polling delay queue", zap.Error(err))
			return
		}
		for _, r := range res {
			req, err := ex.encDec.Decode([]byte(r))
			if err != nil {
				logger.Error("can not decode resume request", zap.Error(err))
				continue
			}
			ex.engine.ResumeDelayed(context.Background(), req.SessionId)
		}
	}
	tw := util.NewTickWorker(ex.Name(), time.Second, ex.stop, fn, ex.wg)
	tw.Start()
	logger.Info("delay executor started")
	return nil
}

func (ex *DelayExecutor) Stop() error {
	ex.stop <- struct{}{}
	return nil
}
