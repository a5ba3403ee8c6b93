package engine

import (
	"context"
	"errors"
	"time"

	"github.com/mohitkumar/autoflow/condition"
	"github.com/mohitkumar/autoflow/logger"
	"github.com/mohitkumar/autoflow/model"
	"github.com/mohitkumar/autoflow/persistence"
	"go.uber.org/zap"
)

type ExecutionState string

const (
	STATE_LOADED          ExecutionState = "LOADED"
	STATE_CONDITION_CHECK ExecutionState = "CONDITION_CHECK"
	STATE_SKIPPED         ExecutionState = "SKIPPED"
	STATE_EXECUTING       ExecutionState = "EXECUTING"
	STATE_COMPLETED       ExecutionState = "COMPLETED"
	STATE_FAILED          ExecutionState = "FAILED"
)

const CONDITIONS_NOT_MET = "conditions not met"

// Reserved context keys. From the second action on, "previous" holds the
// {type, result} of the action that ran just before and "results" holds all
// earlier results in order.
const (
	CTX_PREVIOUS = "previous"
	CTX_RESULTS  = "results"
)

type WorkflowLoader interface {
	Load(ctx context.Context, id string) (*model.Workflow, error)
}

type ActionRunner interface {
	Run(ctx context.Context, def model.ActionDef, data map[string]any) (model.ActionResult, error)
}

type ExecutionCounter interface {
	IncrementExecution(ctx context.Context, id string, at time.Time) error
}

type EventRecorder interface {
	Record(ctx context.Context, workflowId string, eventType model.EventType, data map[string]any)
}

type Option func(*Engine)

func WithLogSkipped(logSkipped bool) Option {
	return func(e *Engine) {
		e.logSkipped = logSkipped
	}
}

type Engine struct {
	loader     WorkflowLoader
	runner     ActionRunner
	counter    ExecutionCounter
	recorder   EventRecorder
	logSkipped bool
}

func NewEngine(loader WorkflowLoader, runner ActionRunner, counter ExecutionCounter, recorder EventRecorder, opts ...Option) *Engine {
	e := &Engine{
		loader:   loader,
		runner:   runner,
		counter:  counter,
		recorder: recorder,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one pass of the workflow against data. A skipped workflow is
// not an error, the result then has Success false and CONDITIONS_NOT_MET as
// message. data is never modified.
func (e *Engine) Execute(ctx context.Context, workflowId string, data map[string]any) (*model.ExecutionResult, error) {
	if data == nil {
		data = map[string]any{}
	}
	wf, err := e.loader.Load(ctx, workflowId)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, WorkflowUnavailableError{WorkflowId: workflowId, Reason: "not found"}
		}
		logger.Error("error loading workflow", zap.String("workflow", workflowId), zap.Error(err))
		return nil, err
	}
	if !wf.Active() {
		return nil, WorkflowUnavailableError{WorkflowId: workflowId, Reason: "inactive"}
	}
	e.transition(wf, STATE_LOADED)

	e.transition(wf, STATE_CONDITION_CHECK)
	if !condition.Evaluate(wf.Conditions, data) {
		e.transition(wf, STATE_SKIPPED)
		recordExecution(ctx, STATE_SKIPPED)
		if e.logSkipped {
			e.recorder.Record(ctx, wf.Id, model.EVENT_WORKFLOW_SKIPPED, map[string]any{
				"workflowId": wf.Id,
				"context":    data,
			})
		}
		return &model.ExecutionResult{Success: false, Message: CONDITIONS_NOT_MET}, nil
	}

	e.transition(wf, STATE_EXECUTING)
	results := make([]model.ActionResult, 0, len(wf.Actions))
	for i, def := range wf.Actions {
		if err := ctx.Err(); err != nil {
			return nil, e.fail(ctx, wf, i, def, err, data)
		}
		logger.Debug("running action", zap.String("workflow", wf.Id), zap.Int("index", i), zap.String("kind", string(def.Type)))
		start := time.Now()
		res, err := e.runner.Run(ctx, def, actionContext(data, results))
		recordActionLatency(ctx, string(def.Type), start)
		if err != nil {
			return nil, e.fail(ctx, wf, i, def, err, data)
		}
		logger.Debug("action completed", zap.String("workflow", wf.Id), zap.Int("index", i), zap.String("kind", string(def.Type)))
		results = append(results, res)
	}

	if err := e.counter.IncrementExecution(ctx, wf.Id, time.Now().UTC()); err != nil {
		logger.Error("error updating execution count", zap.String("workflow", wf.Id), zap.Error(err))
		e.transition(wf, STATE_FAILED)
		recordExecution(ctx, STATE_FAILED)
		return nil, err
	}
	e.recorder.Record(ctx, wf.Id, model.EVENT_WORKFLOW_EXECUTED, map[string]any{
		"workflowId": wf.Id,
		"results":    resultList(results),
		"context":    data,
	})
	e.transition(wf, STATE_COMPLETED)
	recordExecution(ctx, STATE_COMPLETED)
	return &model.ExecutionResult{Success: true, Results: results}, nil
}

func (e *Engine) fail(ctx context.Context, wf *model.Workflow, index int, def model.ActionDef, err error, data map[string]any) error {
	failure := &ActionFailedError{WorkflowId: wf.Id, Index: index, Kind: def.Type, Err: err}
	logger.Error("workflow execution failed", zap.String("workflow", wf.Id), zap.Int("index", index),
		zap.String("kind", string(def.Type)), zap.Error(err))
	e.transition(wf, STATE_FAILED)
	recordExecution(ctx, STATE_FAILED)
	e.recorder.Record(ctx, wf.Id, model.EVENT_WORKFLOW_ERROR, map[string]any{
		"workflowId":  wf.Id,
		"error":       err.Error(),
		"actionIndex": index,
		"actionType":  string(def.Type),
		"context":     data,
	})
	return failure
}

func (e *Engine) transition(wf *model.Workflow, state ExecutionState) {
	logger.Debug("workflow state", zap.String("workflow", wf.Id), zap.String("state", string(state)))
}

func actionContext(data map[string]any, results []model.ActionResult) map[string]any {
	if len(results) == 0 {
		return data
	}
	out := make(map[string]any, len(data)+2)
	for k, v := range data {
		out[k] = v
	}
	list := resultList(results)
	out[CTX_RESULTS] = list
	out[CTX_PREVIOUS] = list[len(list)-1]
	return out
}

func resultList(results []model.ActionResult) []any {
	list := make([]any, len(results))
	for i, r := range results {
		list[i] = map[string]any{"type": string(r.Kind), "result": r.Result}
	}
	return list
}
