package agent

import (
	"sync"

	"github.com/chatflowhq/chatflow/audit"
	"github.com/chatflowhq/chatflow/config"
	"github.com/chatflowhq/chatflow/container"
	"github.com/chatflowhq/chatflow/engine"
	"github.com/chatflowhq/chatflow/executor"
	"github.com/chatflowhq/chatflow/logger"
	"github.com/chatflowhq/chatflow/metadata"
	"github.com/chatflowhq/chatflow/rest"
)

type Agent struct {
	Config       config.Config
	container    *container.Container
	metadata     metadata.MetadataService
	auditWriter  *audit.Writer
	engine       *engine.Engine
	executors    []executor.Executor
	httpServer   *rest.Server
	shutdown     bool
	shutdowns    chan struct{}
	shutdownLock sync.Mutex
	wg           sync.WaitGroup
}

func New(conf config.Config) (*Agent, error) {
	a := &Agent{
		Config:    conf,
		shutdowns: make(chan struct{}),
	}
	setup := []func() error{
		a.setupContainer,
		a.setupMetadataService,
		a.setupAuditWriter,
		a.setupEngine,
		a.setupExecutors,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupContainer() error {
	a.container = container.NewContainer(a.Config)
	a.container.Init()
	return nil
}

func (a *Agent) setupMetadataService() error {
	a.metadata = metadata.NewMetadataService(a.container)
	return nil
}

func (a *Agent) setupAuditWriter() error {
	var err error
	a.auditWriter, err = audit.NewWriter(a.container.GetStorage(), a.Config.AuditFileName, a.Config.AuditQueueCapacity, &a.wg)
	if err != nil {
		return err
	}
	a.auditWriter.Start()
	return nil
}

func (a *Agent) setupEngine() error {
	a.engine = engine.NewEngine(a.container, a.metadata, a.auditWriter)
	return nil
}

func (a *Agent) setupExecutors() error {
	a.executors = []executor.Executor{
		executor.NewDelayExecutor(a.container, a.engine, &a.wg),
		executor.NewWebhookExecutor(a.container, a.engine, &a.wg),
		executor.NewTimeoutExecutor(a.engine, a.Config.SessionTimeout, &a.wg),
	}
	for _, ex := range a.executors {
		if err := ex.Start(); err != nil {
			return err
		}
	}
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.Config.ProviderVerifyToken,
		a.container.GetStorage(), a.metadata, a.engine, a.auditWriter)
	if err != nil {
		return err
	}
	return nil
}

func (a *Agent) Start() error {
	go func() {
		if err := a.httpServer.Start(); err != nil {
			_ = a.Shutdown()
			panic(err)
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down server")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	close(a.shutdowns)

	shutdown := []func() error{
		a.httpServer.Stop,
	}
	for _, ex := range a.executors {
		shutdown = append(shutdown, ex.Stop)
	}
	shutdown = append(shutdown, func() error {
		a.auditWriter.Stop()
		return nil
	})
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	logger.Info("waiting for all services to shutdown...")
	a.wg.Wait()
	return nil
}
