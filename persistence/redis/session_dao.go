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

const SESSION_KEY string = "SESSION"
const ADDRESS_KEY string = "ADDRESS"

var _ persistence.SessionStorage = new(redisSessionDao)

type redisSessionDao struct {
	*baseDao
	encoderDecoder util.EncoderDecoder[model.Session]
}

func NewRedisSessionDao(baseDao *baseDao, encoderDecoder util.EncoderDecoder[model.Session]) *redisSessionDao {
	return &redisSessionDao{
		baseDao:        baseDao,
		encoderDecoder: encoderDecoder,
	}
}

// SaveSession writes the session row and keeps the address index in step:
// an active session owns its address entry, a terminal one releases it.
func (rs *redisSessionDao) SaveSession(session *model.Session) error {
	key := rs.getNamespaceKey(SESSION_KEY)
	addrKey := rs.getNamespaceKey(ADDRESS_KEY)
	ctx := context.Background()
	data, err := rs.encoderDecoder.Encode(*session)
	if err != nil {
		return err
	}
	pipe := rs.redisClient.Pipeline()
	pipe.HSet(ctx, key, []string{session.Id, string(data)})
	if session.Active() {
		pipe.HSet(ctx, addrKey, []string{session.Address, session.Id})
	} else {
		pipe.HDel(ctx, addrKey, session.Address)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("error in saving session", zap.String("sessionId", session.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rs *redisSessionDao) GetSession(id string) (*model.Session, error) {
	key := rs.getNamespaceKey(SESSION_KEY)
	ctx := context.Background()
	sessionStr, err := rs.redisClient.HGet(ctx, key, id).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, nil
		}
		logger.Error("error in getting session", zap.String("sessionId", id), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return rs.encoderDecoder.Decode([]byte(sessionStr))
}

func (rs *redisSessionDao) GetActiveSession(address string) (*model.Session, error) {
	addrKey := rs.getNamespaceKey(ADDRESS_KEY)
	ctx := context.Background()
	sessionId, err := rs.redisClient.HGet(ctx, addrKey, address).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, nil
		}
		logger.Error("error in getting active session", zap.String("address", address), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	session, err := rs.GetSession(sessionId)
	if err != nil {
		return nil, err
	}
	if session == nil || !session.Active() {
		// stale index entry, clean it up
		rs.redisClient.HDel(ctx, addrKey, address)
		return nil, nil
	}
	return session, nil
}

func (rs *redisSessionDao) ReleaseAddress(address string) error {
	addrKey := rs.getNamespaceKey(ADDRESS_KEY)
	ctx := context.Background()
	if err := rs.redisClient.HDel(ctx, addrKey, address).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rs *redisSessionDao) ListActiveSessions() ([]model.Session, error) {
	addrKey := rs.getNamespaceKey(ADDRESS_KEY)
	ctx := context.Background()
	all, err := rs.redisClient.HGetAll(ctx, addrKey).Result()
	if err != nil {
		logger.Error("error in listing active sessions", zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	sessions := make([]model.Session, 0, len(all))
	for _, sessionId := range all {
		session, err := rs.GetSession(sessionId)
		if err != nil {
			return nil, err
		}
		if session != nil && session.Active() {
			sessions = append(sessions, *session)
		}
	}
	return sessions, nil
}
