package redis

import (
	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/persistence"
	"github.com/chatflowhq/chatflow/util"
)

var _ persistence.Storage = new(redisStorage)

type redisStorage struct {
	*redisFlowDao
	*redisSessionDao
	*redisWebhookDao
	*redisAuditDao
}

// NewRedisStorage wires all redis DAOs on one shared client.
func NewRedisStorage(conf Config) (persistence.Storage, persistence.DelayQueue) {
	base := newBaseDao(conf)
	storage := &redisStorage{
		redisFlowDao:    NewRedisFlowDao(base, util.NewJsonEncoderDecoder[model.Flow]()),
		redisSessionDao: NewRedisSessionDao(base, util.NewJsonEncoderDecoder[model.Session]()),
		redisWebhookDao: NewRedisWebhookDao(base, util.NewJsonEncoderDecoder[model.WebhookExecution]()),
		redisAuditDao:   NewRedisAuditDao(base, util.NewJsonEncoderDecoder[model.AuditLogEntry]()),
	}
	return storage, NewRedisDelayQueue(base)
}
