package engine

import (
	"errors"
	"fmt"

	"github.com/mohitkumar/autoflow/model"
)

var ErrWorkflowUnavailable = errors.New("workflow unavailable")

// WorkflowUnavailableError is returned for missing and inactive workflows
// alike.
type WorkflowUnavailableError struct {
	WorkflowId string
	Reason     string
}

func (e WorkflowUnavailableError) Error() string {
	return fmt.Sprintf("workflow %s can not be executed: %s", e.WorkflowId, e.Reason)
}

func (e WorkflowUnavailableError) Is(target error) bool {
	return target == ErrWorkflowUnavailable
}

type ActionFailedError struct {
	WorkflowId string
	Index      int
	Kind       model.ActionKind
	Err        error
}

func (e *ActionFailedError) Error() string {
	return fmt.Sprintf("workflow %s failed at action %d (%s): %v", e.WorkflowId, e.Index, e.Kind, e.Err)
}

func (e *ActionFailedError) Unwrap() error {
	return e.Err
}
