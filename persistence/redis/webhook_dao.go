package redis

import (
	"context"
	"errors"

	rd "github.com/go-redis/redis/v9"
	"github.com/chatflowhq/chatflow/logger"
	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/persistence"
	"github.com/chatflowhq/chatflow/util"
	"go.uber.org/zap"
)

const WEBHOOK_KEY string = "WEBHOOK"
const WEBHOOK_PENDING_KEY string = "WEBHOOK:PENDING"

var _ persistence.WebhookExecutionStorage = new(redisWebhookDao)

type redisWebhookDao struct {
	*baseDao
	encoderDecoder util.EncoderDecoder[model.WebhookExecution]
}

func NewRedisWebhookDao(baseDao *baseDao, encoderDecoder util.EncoderDecoder[model.WebhookExecution]) *redisWebhookDao {
	return &redisWebhookDao{
		baseDao:        baseDao,
		encoderDecoder: encoderDecoder,
	}
}

func (rw *redisWebhookDao) SaveWebhookExecution(exec *model.WebhookExecution) error {
	key := rw.getNamespaceKey(WEBHOOK_KEY)
	ctx := context.Background()
	data, err := rw.encoderDecoder.Encode(*exec)
	if err != nil {
		return err
	}
	pipe := rw.redisClient.Pipeline()
	pipe.HSet(ctx, key, []string{exec.Id, string(data)})
	if exec.Status == model.WEBHOOK_EXECUTION_PENDING {
		pipe.RPush(ctx, rw.getNamespaceKey(WEBHOOK_PENDING_KEY), exec.Id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("error in saving webhook execution", zap.String("id", exec.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rw *redisWebhookDao) GetWebhookExecution(id string) (*model.WebhookExecution, error) {
	key := rw.getNamespaceKey(WEBHOOK_KEY)
	ctx := context.Background()
	execStr, err := rw.redisClient.HGet(ctx, key, id).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, nil
		}
		logger.Error("error in getting webhook execution", zap.String("id", id), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return rw.encoderDecoder.Decode([]byte(execStr))
}

func (rw *redisWebhookDao) PollPending(batchSize int) ([]string, error) {
	ctx := context.Background()
	res, err := rw.redisClient.LPopCount(ctx, rw.getNamespaceKey(WEBHOOK_PENDING_KEY), batchSize).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return []string{}, nil
		}
		logger.Error("error while polling pending webhooks", zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return res, nil
}
