package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	rd "github.com/go-redis/redis/v9"
	"github.com/mohitkumar/autoflow/logger"
	"github.com/mohitkumar/autoflow/model"
	"github.com/mohitkumar/autoflow/persistence"
	"github.com/mohitkumar/autoflow/util"
	"go.uber.org/zap"
)

const (
	WORKFLOW_DEF       string = "WF_DEF"
	WORKFLOW_STATS     string = "WF_STATS"
	WORKSPACE_INDEX    string = "WF_WORKSPACE"
	FIELD_EXEC_COUNT   string = "executionCount"
	FIELD_LAST_EXECUTE string = "lastExecuted"
)

// The definition is stored as json while the counters live in a separate hash
// so that HINCRBY keeps increments atomic across processes.
type redisWorkflowDao struct {
	*baseDao
	encoderDecoder util.EncoderDecoder[model.Workflow]
}

func newRedisWorkflowDao(base *baseDao) *redisWorkflowDao {
	return &redisWorkflowDao{
		baseDao:        base,
		encoderDecoder: util.NewJsonEncoderDecoder[model.Workflow](),
	}
}

func (rfd *redisWorkflowDao) encodeDefinition(wf *model.Workflow) ([]byte, error) {
	def := *wf
	def.ExecutionCount = 0
	def.LastExecuted = nil
	return rfd.encoderDecoder.Encode(def)
}

func (rfd *redisWorkflowDao) SaveWorkflow(ctx context.Context, wf *model.Workflow) error {
	data, err := rfd.encodeDefinition(wf)
	if err != nil {
		return err
	}
	defKey := rfd.getNamespaceKey(WORKFLOW_DEF, wf.Id)
	statsKey := rfd.getNamespaceKey(WORKFLOW_STATS, wf.Id)
	wsKey := rfd.getNamespaceKey(WORKSPACE_INDEX, wf.WorkspaceId)
	created, err := rfd.redisClient.SetNX(ctx, defKey, data, 0).Result()
	if err != nil {
		logger.Error("error in saving workflow", zap.String("workflow", wf.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	if !created {
		return persistence.ErrAlreadyExists
	}
	_, err = rfd.redisClient.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.HSetNX(ctx, statsKey, FIELD_EXEC_COUNT, 0)
		pipe.SAdd(ctx, wsKey, wf.Id)
		return nil
	})
	if err != nil {
		logger.Error("error in saving workflow", zap.String("workflow", wf.Id), zap.Error(err))
		rfd.redisClient.Del(ctx, defKey)
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rfd *redisWorkflowDao) UpdateWorkflow(ctx context.Context, wf *model.Workflow) error {
	current, err := rfd.getDefinition(ctx, wf.Id)
	if err != nil {
		return err
	}
	data, err := rfd.encodeDefinition(wf)
	if err != nil {
		return err
	}
	defKey := rfd.getNamespaceKey(WORKFLOW_DEF, wf.Id)
	_, err = rfd.redisClient.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.SetXX(ctx, defKey, data, 0)
		if current.WorkspaceId != wf.WorkspaceId {
			pipe.SRem(ctx, rfd.getNamespaceKey(WORKSPACE_INDEX, current.WorkspaceId), wf.Id)
			pipe.SAdd(ctx, rfd.getNamespaceKey(WORKSPACE_INDEX, wf.WorkspaceId), wf.Id)
		}
		return nil
	})
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rfd *redisWorkflowDao) getDefinition(ctx context.Context, id string) (*model.Workflow, error) {
	val, err := rfd.redisClient.Get(ctx, rfd.getNamespaceKey(WORKFLOW_DEF, id)).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.ErrNotFound
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return rfd.encoderDecoder.Decode([]byte(val))
}

func (rfd *redisWorkflowDao) GetWorkflow(ctx context.Context, id string) (*model.Workflow, error) {
	wf, err := rfd.getDefinition(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := rfd.redisClient.HGetAll(ctx, rfd.getNamespaceKey(WORKFLOW_STATS, id)).Result()
	if err != nil && !errors.Is(err, rd.Nil) {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	applyStats(wf, stats)
	return wf, nil
}

func applyStats(wf *model.Workflow, stats map[string]string) {
	if v, ok := stats[FIELD_EXEC_COUNT]; ok {
		count, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			wf.ExecutionCount = count
		}
	}
	if v, ok := stats[FIELD_LAST_EXECUTE]; ok {
		at, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			wf.LastExecuted = &at
		}
	}
}

func (rfd *redisWorkflowDao) DeleteWorkflow(ctx context.Context, id string) error {
	wf, err := rfd.getDefinition(ctx, id)
	if err != nil {
		return err
	}
	_, err = rfd.redisClient.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.Del(ctx, rfd.getNamespaceKey(WORKFLOW_DEF, id), rfd.getNamespaceKey(WORKFLOW_STATS, id))
		pipe.SRem(ctx, rfd.getNamespaceKey(WORKSPACE_INDEX, wf.WorkspaceId), id)
		return nil
	})
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rfd *redisWorkflowDao) ListWorkflows(ctx context.Context, workspaceId string) ([]*model.Workflow, error) {
	ids, err := rfd.redisClient.SMembers(ctx, rfd.getNamespaceKey(WORKSPACE_INDEX, workspaceId)).Result()
	if err != nil && !errors.Is(err, rd.Nil) {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	res := make([]*model.Workflow, 0, len(ids))
	for _, id := range ids {
		wf, err := rfd.GetWorkflow(ctx, id)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				continue
			}
			return nil, err
		}
		res = append(res, wf)
	}
	return res, nil
}

func (rfd *redisWorkflowDao) IncrementExecution(ctx context.Context, id string, at time.Time) error {
	defKey := rfd.getNamespaceKey(WORKFLOW_DEF, id)
	exists, err := rfd.redisClient.Exists(ctx, defKey).Result()
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	if exists == 0 {
		return persistence.ErrNotFound
	}
	statsKey := rfd.getNamespaceKey(WORKFLOW_STATS, id)
	_, err = rfd.redisClient.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.HIncrBy(ctx, statsKey, FIELD_EXEC_COUNT, 1)
		pipe.HSet(ctx, statsKey, FIELD_LAST_EXECUTE, at.UTC().Format(time.RFC3339Nano))
		return nil
	})
	if err != nil {
		logger.Error("error in updating execution count", zap.String("workflow", id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
