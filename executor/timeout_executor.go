package executor

import (
	"sync"
	"time"

	"github.com/chatflowhq/chatflow/engine"
	"github.com/chatflowhq/chatflow/logger"
	"github.com/chatflowhq/chatflow/util"
)

var _ Executor = new(TimeoutExecutor)

// TimeoutExecutor imposes the operator-configured session timeout.
type TimeoutExecutor struct {
	engine  *engine.Engine
	timeout time.Duration
	wg      *sync.WaitGroup
	stop    chan struct{}
}

func NewTimeoutExecutor(eng *engine.Engine, timeout time.Duration, wg *sync.WaitGroup) *TimeoutExecutor {
	return &TimeoutExecutor{
		engine:  eng,
		timeout: timeout,
		stop:    make(chan struct{}),
		wg:      wg,
	}
}

func (ex *TimeoutExecutor) Name() string {
	return "timeout-executor"
}

func (ex *TimeoutExecutor) Start() error {
	fn := func() {
		ex.engine.TimeoutStaleSessions(ex.timeout)
	}
	tw := util.NewTickWorker(ex.Name(), time.Minute, ex.stop, fn, ex.wg)
	tw.Start()
	logger.Info("timeout executor started")
	return nil
}

func (ex *TimeoutExecutor) Stop() error {
	ex.stop <- struct{}{}
	return nil
}
