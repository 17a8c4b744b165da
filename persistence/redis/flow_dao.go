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

const FLOW_KEY string = "FLOW"

var _ persistence.FlowStorage = new(redisFlowDao)

type redisFlowDao struct {
	*baseDao
	encoderDecoder util.EncoderDecoder[model.Flow]
}

func NewRedisFlowDao(baseDao *baseDao, encoderDecoder util.EncoderDecoder[model.Flow]) *redisFlowDao {
	return &redisFlowDao{
		baseDao:        baseDao,
		encoderDecoder: encoderDecoder,
	}
}

func (rf *redisFlowDao) SaveFlow(flow model.Flow) error {
	key := rf.getNamespaceKey(FLOW_KEY)
	ctx := context.Background()
	data, err := rf.encoderDecoder.Encode(flow)
	if err != nil {
		return err
	}
	if err := rf.redisClient.HSet(ctx, key, []string{flow.Id, string(data)}).Err(); err != nil {
		logger.Error("error in saving flow", zap.String("flowId", flow.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rf *redisFlowDao) DeleteFlow(id string) error {
	key := rf.getNamespaceKey(FLOW_KEY)
	ctx := context.Background()
	if err := rf.redisClient.HDel(ctx, key, id).Err(); err != nil {
		logger.Error("error in deleting flow", zap.String("flowId", id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rf *redisFlowDao) GetFlow(id string) (*model.Flow, error) {
	key := rf.getNamespaceKey(FLOW_KEY)
	ctx := context.Background()
	flowStr, err := rf.redisClient.HGet(ctx, key, id).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.FlowNotFoundError{Ref: id}
		}
		logger.Error("error in getting flow", zap.String("flowId", id), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return rf.encoderDecoder.Decode([]byte(flowStr))
}

func (rf *redisFlowDao) ListFlows() ([]model.Flow, error) {
	key := rf.getNamespaceKey(FLOW_KEY)
	ctx := context.Background()
	all, err := rf.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Error("error in listing flows", zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	flows := make([]model.Flow, 0, len(all))
	for _, flowStr := range all {
		flow, err := rf.encoderDecoder.Decode([]byte(flowStr))
		if err != nil {
			return nil, err
		}
		flows = append(flows, *flow)
	}
	return flows, nil
}
