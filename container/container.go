package container

import (
	"github.com/chatflowhq/chatflow/config"
	"github.com/chatflowhq/chatflow/integration"
	"github.com/chatflowhq/chatflow/persistence"
	"github.com/chatflowhq/chatflow/persistence/inmem"
	rd "github.com/chatflowhq/chatflow/persistence/redis"
)

// Container carries every process-wide dependency explicitly. Built once
// in main and passed down; no ambient singletons.
type Container struct {
	initialized bool
	config      config.Config
	storage     persistence.Storage
	delayQueue  persistence.DelayQueue
	messenger   integration.Messenger
	aiClient    integration.AiClient
	httpCaller  integration.HttpCaller
	sheetStore  integration.SheetStore
}

func NewContainer(conf config.Config) *Container {
	return &Container{
		config: conf,
	}
}

func (d *Container) Init() {
	defer func() { d.initialized = true }()

	switch d.config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		rdConf := rd.Config{
			Addrs:     d.config.RedisConfig.Addrs,
			Namespace: d.config.RedisConfig.Namespace,
		}
		d.storage, d.delayQueue = rd.NewRedisStorage(rdConf)
	default:
		d.storage = inmem.NewStorage()
		d.delayQueue = inmem.NewDelayQueue()
	}
	d.messenger = integration.NewCloudMessenger(d.config.ProviderApiUrl, d.config.ProviderAccessToken)
	d.aiClient = integration.NewCompletionClient(d.config.AiApiUrl, d.config.AiApiKey)
	d.httpCaller = integration.NewDefaultHttpCaller()
	d.sheetStore = integration.NewMemorySheetStore()
}

// InitForTest wires explicit fakes instead of config-selected defaults.
func (d *Container) InitForTest(storage persistence.Storage, delayQueue persistence.DelayQueue,
	messenger integration.Messenger, aiClient integration.AiClient,
	httpCaller integration.HttpCaller, sheetStore integration.SheetStore) {
	d.storage = storage
	d.delayQueue = delayQueue
	d.messenger = messenger
	d.aiClient = aiClient
	d.httpCaller = httpCaller
	d.sheetStore = sheetStore
	d.initialized = true
}

func (d *Container) GetConfig() config.Config {
	return d.config
}

func (d *Container) GetStorage() persistence.Storage {
	if !d.initialized {
		panic("container not initialized")
	}
	return d.storage
}

func (d *Container) GetDelayQueue() persistence.DelayQueue {
	if !d.initialized {
		panic("container not initialized")
	}
	return d.delayQueue
}

func (d *Container) GetMessenger() integration.Messenger {
	if !d.initialized {
		panic("container not initialized")
	}
	return d.messenger
}

func (d *Container) GetAiClient() integration.AiClient {
	if !d.initialized {
		panic("container not initialized")
	}
	return d.aiClient
}

func (d *Container) GetHttpCaller() integration.HttpCaller {
	if !d.initialized {
		panic("container not initialized")
	}
	return d.httpCaller
}

func (d *Container) GetSheetStore() integration.SheetStore {
	if !d.initialized {
		panic("container not initialized")
	}
	return d.sheetStore
}
