package redis

import (
	"context"
	"errors"

	rd "github.com/go-redis/redis/v9"
	"github.com/mohitkumar/autoflow/model"
	"github.com/mohitkumar/autoflow/persistence"
	"github.com/mohitkumar/autoflow/util"
)

const WORKFLOW_EVENTS string = "WF_EVENTS"

type redisEventDao struct {
	*baseDao
	encoderDecoder util.EncoderDecoder[model.ExecutionEvent]
}

func newRedisEventDao(base *baseDao) *redisEventDao {
	return &redisEventDao{
		baseDao:        base,
		encoderDecoder: util.NewJsonEncoderDecoder[model.ExecutionEvent](),
	}
}

func (red *redisEventDao) AppendEvent(ctx context.Context, event *model.ExecutionEvent) error {
	data, err := red.encoderDecoder.Encode(*event)
	if err != nil {
		return err
	}
	key := red.getNamespaceKey(WORKFLOW_EVENTS, event.WorkflowId)
	if err := red.redisClient.RPush(ctx, key, data).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (red *redisEventDao) ListEvents(ctx context.Context, workflowId string, limit int) ([]*model.ExecutionEvent, error) {
	key := red.getNamespaceKey(WORKFLOW_EVENTS, workflowId)
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	values, err := red.redisClient.LRange(ctx, key, start, -1).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return []*model.ExecutionEvent{}, nil
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	events, err := util.DecodeAll[model.ExecutionEvent](red.encoderDecoder, values)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}
