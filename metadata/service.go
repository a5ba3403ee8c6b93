package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mohitkumar/autoflow/condition"
	"github.com/mohitkumar/autoflow/logger"
	"github.com/mohitkumar/autoflow/model"
	"github.com/mohitkumar/autoflow/persistence"
	c "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

type ValidationError struct {
	Problems []string
}

func (e ValidationError) Error() string {
	return "invalid workflow: " + strings.Join(e.Problems, "; ")
}

// ActionValidator checks one declared action, the action dispatcher is the
// usual implementation.
type ActionValidator interface {
	Validate(def model.ActionDef) error
}

type EventRecorder interface {
	Record(ctx context.Context, workflowId string, eventType model.EventType, data map[string]any)
}

type WorkflowService interface {
	Create(ctx context.Context, wf *model.Workflow) (*model.Workflow, error)
	Update(ctx context.Context, wf *model.Workflow) (*model.Workflow, error)
	Get(ctx context.Context, id string) (*model.Workflow, error)
	Delete(ctx context.Context, id string) error
	ListByWorkspace(ctx context.Context, workspaceId string) ([]*model.Workflow, error)
	// Load returns a snapshot for one execution pass.
	Load(ctx context.Context, id string) (*model.Workflow, error)
	ValidateWorkflow(wf *model.Workflow) error
}

var _ WorkflowService = new(WorkflowServiceImpl)

type WorkflowServiceImpl struct {
	storage   persistence.WorkflowStorage
	validator ActionValidator
	recorder  EventRecorder
	cache     *c.Cache
}

// NewWorkflowService creates the service. A zero cacheTTL disables the
// definition cache. Invalidation is local to this process, so instances
// sharing a store may run a changed or deleted definition until the TTL ends.
func NewWorkflowService(storage persistence.WorkflowStorage, validator ActionValidator, recorder EventRecorder, cacheTTL time.Duration) *WorkflowServiceImpl {
	s := &WorkflowServiceImpl{
		storage:   storage,
		validator: validator,
		recorder:  recorder,
	}
	if cacheTTL > 0 {
		s.cache = c.New(cacheTTL, 2*cacheTTL)
	}
	return s
}

func (s *WorkflowServiceImpl) ValidateWorkflow(wf *model.Workflow) error {
	var problems []string
	if strings.TrimSpace(wf.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(wf.WorkspaceId) == "" {
		problems = append(problems, "workspaceId is required")
	}
	for i, cond := range wf.Conditions {
		if strings.TrimSpace(cond.Field) == "" {
			problems = append(problems, fmt.Sprintf("conditions[%d]: field is required", i))
		}
		if err := condition.ValidateOperator(cond.Operator); err != nil {
			problems = append(problems, fmt.Sprintf("conditions[%d]: %v", i, err))
		}
	}
	for i, def := range wf.Actions {
		if err := s.validator.Validate(def); err != nil {
			problems = append(problems, fmt.Sprintf("actions[%d]: %v", i, err))
		}
	}
	if len(problems) > 0 {
		return ValidationError{Problems: problems}
	}
	return nil
}

func (s *WorkflowServiceImpl) Create(ctx context.Context, wf *model.Workflow) (*model.Workflow, error) {
	created := wf.Snapshot()
	if created.Id == "" {
		created.Id = uuid.NewString()
	}
	if created.IsActive == nil {
		created.SetActive(true)
	}
	created.ExecutionCount = 0
	created.LastExecuted = nil
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now
	if err := s.ValidateWorkflow(created); err != nil {
		return nil, err
	}
	if err := s.storage.SaveWorkflow(ctx, created); err != nil {
		if errors.Is(err, persistence.ErrAlreadyExists) {
			return nil, fmt.Errorf("workflow %s %w", created.Id, err)
		}
		return nil, err
	}
	logger.Info("workflow created", zap.String("workflow", created.Id), zap.String("workspace", created.WorkspaceId))
	s.recorder.Record(ctx, created.Id, model.EVENT_WORKFLOW_CREATED, map[string]any{
		"workflowId":  created.Id,
		"name":        created.Name,
		"workspaceId": created.WorkspaceId,
		"createdBy":   created.CreatedBy,
	})
	return created.Snapshot(), nil
}

// Update replaces the definition wholesale. Counters, creator and creation
// time are kept from the stored workflow.
func (s *WorkflowServiceImpl) Update(ctx context.Context, wf *model.Workflow) (*model.Workflow, error) {
	current, err := s.storage.GetWorkflow(ctx, wf.Id)
	if err != nil {
		return nil, err
	}
	updated := wf.Snapshot()
	if updated.IsActive == nil {
		updated.SetActive(current.Active())
	}
	if updated.CreatedBy == "" {
		updated.CreatedBy = current.CreatedBy
	}
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	if err := s.ValidateWorkflow(updated); err != nil {
		return nil, err
	}
	if err := s.storage.UpdateWorkflow(ctx, updated); err != nil {
		return nil, err
	}
	s.invalidate(wf.Id)
	logger.Info("workflow updated", zap.String("workflow", wf.Id))
	return s.storage.GetWorkflow(ctx, wf.Id)
}

func (s *WorkflowServiceImpl) Get(ctx context.Context, id string) (*model.Workflow, error) {
	return s.storage.GetWorkflow(ctx, id)
}

func (s *WorkflowServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.storage.DeleteWorkflow(ctx, id); err != nil {
		return err
	}
	s.invalidate(id)
	logger.Info("workflow deleted", zap.String("workflow", id))
	return nil
}

func (s *WorkflowServiceImpl) ListByWorkspace(ctx context.Context, workspaceId string) ([]*model.Workflow, error) {
	return s.storage.ListWorkflows(ctx, workspaceId)
}

func (s *WorkflowServiceImpl) Load(ctx context.Context, id string) (*model.Workflow, error) {
	if s.cache != nil {
		if cached, found := s.cache.Get(id); found {
			return cached.(*model.Workflow).Snapshot(), nil
		}
	}
	wf, err := s.storage.GetWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetDefault(id, wf.Snapshot())
	}
	return wf.Snapshot(), nil
}

func (s *WorkflowServiceImpl) invalidate(id string) {
	if s.cache != nil {
		s.cache.Delete(id)
	}
}
