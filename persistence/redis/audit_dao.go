package redis

import (
	"context"

	"github.com/chatflowhq/chatflow/logger"
	"github.com/chatflowhq/chatflow/model"
	"github.com/chatflowhq/chatflow/persistence"
	"github.com/chatflowhq/chatflow/util"
	"go.uber.org/zap"
)

const AUDIT_KEY string = "AUDIT"

var _ persistence.AuditLogStorage = new(redisAuditDao)

type redisAuditDao struct {
	*baseDao
	encoderDecoder util.EncoderDecoder[model.AuditLogEntry]
}

func NewRedisAuditDao(baseDao *baseDao, encoderDecoder util.EncoderDecoder[model.AuditLogEntry]) *redisAuditDao {
	return &redisAuditDao{
		baseDao:        baseDao,
		encoderDecoder: encoderDecoder,
	}
}

func (ra *redisAuditDao) AppendAuditLog(entry model.AuditLogEntry) error {
	ctx := context.Background()
	data, err := ra.encoderDecoder.Encode(entry)
	if err != nil {
		return err
	}
	if err := ra.redisClient.RPush(ctx, ra.getNamespaceKey(AUDIT_KEY), string(data)).Err(); err != nil {
		logger.Error("error appending audit log", zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
