package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/buraksezer/consistent"
	"github.com/mohitkumar/autoflow/model"
	"github.com/mohitkumar/autoflow/persistence"
	"github.com/spaolacci/murmur3"
)

const DefaultPartitionCount = 16

var _ persistence.Storage = new(memoryStorage)

type hasher struct{}

func (h hasher) Sum64(data []byte) uint64 {
	return murmur3.Sum64(data)
}

type partition struct {
	mu        sync.RWMutex
	workflows map[string]*model.Workflow
	events    map[string][]*model.ExecutionEvent
}

// memoryStorage spreads workflows over partitions by id, so executions of
// different workflows do not contend on one lock.
type memoryStorage struct {
	ring       *consistent.Consistent
	partitions []*partition
}

func NewMemoryStorage(partitionCount int) *memoryStorage {
	if partitionCount <= 0 {
		partitionCount = DefaultPartitionCount
	}
	cfg := consistent.Config{
		PartitionCount:    partitionCount,
		ReplicationFactor: 20,
		Load:              1.25,
		Hasher:            hasher{},
	}
	parts := make([]*partition, partitionCount)
	for i := range parts {
		parts[i] = &partition{
			workflows: make(map[string]*model.Workflow),
			events:    make(map[string][]*model.ExecutionEvent),
		}
	}
	return &memoryStorage{
		ring:       consistent.New(nil, cfg),
		partitions: parts,
	}
}

func (s *memoryStorage) partitionFor(id string) *partition {
	return s.partitions[s.ring.FindPartitionID([]byte(id))]
}

func (s *memoryStorage) SaveWorkflow(ctx context.Context, wf *model.Workflow) error {
	p := s.partitionFor(wf.Id)
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.workflows[wf.Id]; ok {
		return persistence.ErrAlreadyExists
	}
	p.workflows[wf.Id] = wf.Snapshot()
	return nil
}

func (s *memoryStorage) UpdateWorkflow(ctx context.Context, wf *model.Workflow) error {
	p := s.partitionFor(wf.Id)
	p.mu.Lock()
	defer p.mu.Unlock()
	current, ok := p.workflows[wf.Id]
	if !ok {
		return persistence.ErrNotFound
	}
	updated := wf.Snapshot()
	updated.ExecutionCount = current.ExecutionCount
	updated.LastExecuted = current.LastExecuted
	updated.CreatedAt = current.CreatedAt
	p.workflows[wf.Id] = updated
	return nil
}

func (s *memoryStorage) GetWorkflow(ctx context.Context, id string) (*model.Workflow, error) {
	p := s.partitionFor(id)
	p.mu.RLock()
	defer p.mu.RUnlock()
	wf, ok := p.workflows[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return wf.Snapshot(), nil
}

func (s *memoryStorage) DeleteWorkflow(ctx context.Context, id string) error {
	p := s.partitionFor(id)
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.workflows[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(p.workflows, id)
	return nil
}

func (s *memoryStorage) ListWorkflows(ctx context.Context, workspaceId string) ([]*model.Workflow, error) {
	res := make([]*model.Workflow, 0)
	for _, p := range s.partitions {
		p.mu.RLock()
		for _, wf := range p.workflows {
			if wf.WorkspaceId == workspaceId {
				res = append(res, wf.Snapshot())
			}
		}
		p.mu.RUnlock()
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (s *memoryStorage) IncrementExecution(ctx context.Context, id string, at time.Time) error {
	p := s.partitionFor(id)
	p.mu.Lock()
	defer p.mu.Unlock()
	wf, ok := p.workflows[id]
	if !ok {
		return persistence.ErrNotFound
	}
	wf.ExecutionCount++
	executed := at
	wf.LastExecuted = &executed
	return nil
}

func (s *memoryStorage) AppendEvent(ctx context.Context, event *model.ExecutionEvent) error {
	p := s.partitionFor(event.WorkflowId)
	p.mu.Lock()
	defer p.mu.Unlock()
	ev := *event
	ev.Data = model.DeepCopyMap(event.Data)
	p.events[event.WorkflowId] = append(p.events[event.WorkflowId], &ev)
	return nil
}

// ListEvents returns the latest events first.
func (s *memoryStorage) ListEvents(ctx context.Context, workflowId string, limit int) ([]*model.ExecutionEvent, error) {
	p := s.partitionFor(workflowId)
	p.mu.RLock()
	defer p.mu.RUnlock()
	events := p.events[workflowId]
	res := make([]*model.ExecutionEvent, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		if limit > 0 && len(res) >= limit {
			break
		}
		ev := *events[i]
		ev.Data = model.DeepCopyMap(events[i].Data)
		res = append(res, &ev)
	}
	return res, nil
}

func (s *memoryStorage) Close() error {
	return nil
}
