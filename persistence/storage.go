package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mohitkumar/autoflow/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

var ErrNotFound = errors.New("not found")

var ErrAlreadyExists = errors.New("already exists")

const WF_PREFIX string = "WF_"

// WorkflowStorage keeps workflow definitions together with their execution
// counters. SaveWorkflow only creates, an existing id gives ErrAlreadyExists.
// UpdateWorkflow replaces the definition and leaves the counters as they are
// stored.
type WorkflowStorage interface {
	SaveWorkflow(ctx context.Context, wf *model.Workflow) error
	UpdateWorkflow(ctx context.Context, wf *model.Workflow) error
	GetWorkflow(ctx context.Context, id string) (*model.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error
	ListWorkflows(ctx context.Context, workspaceId string) ([]*model.Workflow, error)
	// IncrementExecution adds one to the execution count and sets the last
	// executed time. Concurrent calls must never lose an increment.
	IncrementExecution(ctx context.Context, id string, at time.Time) error
}

// EventStorage is append only.
type EventStorage interface {
	AppendEvent(ctx context.Context, event *model.ExecutionEvent) error
	ListEvents(ctx context.Context, workflowId string, limit int) ([]*model.ExecutionEvent, error)
}

type Storage interface {
	WorkflowStorage
	EventStorage
	Close() error
}
