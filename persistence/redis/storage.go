package redis

import (
	"context"

	"github.com/mohitkumar/autoflow/persistence"
)

var _ persistence.Storage = new(redisStorage)

type redisStorage struct {
	*redisWorkflowDao
	*redisEventDao
	base *baseDao
}

func NewRedisStorage(conf Config) *redisStorage {
	base := newBaseDao(conf)
	return &redisStorage{
		redisWorkflowDao: newRedisWorkflowDao(base),
		redisEventDao:    newRedisEventDao(base),
		base:             base,
	}
}

func (s *redisStorage) Close() error {
	return s.base.Close()
}

func (s *redisStorage) Ping(ctx context.Context) error {
	return s.base.Ping(ctx)
}
