package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mohitkumar/autoflow/model"
	"github.com/mohitkumar/autoflow/persistence"
	"github.com/stretchr/testify/require"
)

func testWorkflow(id string) *model.Workflow {
	return &model.Workflow{
		Id:          id,
		Name:        "wf-" + id,
		WorkspaceId: "ws1",
		Conditions:  []model.Condition{{Field: "score", Operator: model.OP_LESS_THAN, Value: float64(0)}},
		Actions:     []model.ActionDef{{Type: model.ACTION_WEBHOOK, Params: map[string]any{"url": "http://x"}}},
		CreatedAt:   time.Now(),
	}
}

func TestMemoryStorage(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, s *memoryStorage){
		"save and get":                       testSaveGet,
		"save rejects existing id":           testSaveExisting,
		"update keeps counters":              testUpdateKeepsCounters,
		"delete":                             testDelete,
		"list by workspace":                  testList,
		"concurrent increments are not lost": testConcurrentIncrement,
		"events latest first":                testEvents,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, NewMemoryStorage(4))
		})
	}
}

func testSaveGet(t *testing.T, s *memoryStorage) {
	ctx := context.Background()
	wf := testWorkflow("1")
	require.NoError(t, s.SaveWorkflow(ctx, wf))

	wf.Actions[0].Params["url"] = "http://changed"
	got, err := s.GetWorkflow(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "http://x", got.Actions[0].Params["url"])

	_, err = s.GetWorkflow(ctx, "missing")
	require.ErrorIs(t, err, persistence.ErrNotFound)
}

func testSaveExisting(t *testing.T, s *memoryStorage) {
	ctx := context.Background()
	require.NoError(t, s.SaveWorkflow(ctx, testWorkflow("1")))
	require.NoError(t, s.IncrementExecution(ctx, "1", time.Now()))

	again := testWorkflow("1")
	again.Name = "other"
	require.ErrorIs(t, s.SaveWorkflow(ctx, again), persistence.ErrAlreadyExists)
	got, err := s.GetWorkflow(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, int64(1), got.ExecutionCount)
	require.NotEqual(t, "other", got.Name)
}

func testUpdateKeepsCounters(t *testing.T, s *memoryStorage) {
	ctx := context.Background()
	require.NoError(t, s.SaveWorkflow(ctx, testWorkflow("1")))
	require.NoError(t, s.IncrementExecution(ctx, "1", time.Now()))

	wf := testWorkflow("1")
	wf.Name = "renamed"
	require.NoError(t, s.UpdateWorkflow(ctx, wf))
	got, err := s.GetWorkflow(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "renamed", got.Name)
	require.Equal(t, int64(1), got.ExecutionCount)
	require.NotNil(t, got.LastExecuted)

	require.ErrorIs(t, s.UpdateWorkflow(ctx, testWorkflow("2")), persistence.ErrNotFound)
}

func testDelete(t *testing.T, s *memoryStorage) {
	ctx := context.Background()
	require.NoError(t, s.SaveWorkflow(ctx, testWorkflow("1")))
	require.NoError(t, s.DeleteWorkflow(ctx, "1"))
	require.ErrorIs(t, s.DeleteWorkflow(ctx, "1"), persistence.ErrNotFound)
	require.ErrorIs(t, s.IncrementExecution(ctx, "1", time.Now()), persistence.ErrNotFound)
}

func testList(t *testing.T, s *memoryStorage) {
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.SaveWorkflow(ctx, testWorkflow(id)))
	}
	other := testWorkflow("d")
	other.WorkspaceId = "ws2"
	require.NoError(t, s.SaveWorkflow(ctx, other))

	list, err := s.ListWorkflows(ctx, "ws1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	list, err = s.ListWorkflows(ctx, "none")
	require.NoError(t, err)
	require.Empty(t, list)
}

func testConcurrentIncrement(t *testing.T, s *memoryStorage) {
	ctx := context.Background()
	require.NoError(t, s.SaveWorkflow(ctx, testWorkflow("1")))
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, s.IncrementExecution(ctx, "1", time.Now()))
		}()
	}
	wg.Wait()
	got, err := s.GetWorkflow(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, int64(100), got.ExecutionCount)
}

func testEvents(t *testing.T, s *memoryStorage) {
	ctx := context.Background()
	for i, typ := range []model.EventType{model.EVENT_WORKFLOW_CREATED, model.EVENT_WORKFLOW_EXECUTED, model.EVENT_WORKFLOW_ERROR} {
		require.NoError(t, s.AppendEvent(ctx, &model.ExecutionEvent{
			Id: string(rune('a' + i)), WorkflowId: "1", Type: typ, Timestamp: time.Now(),
		}))
	}
	events, err := s.ListEvents(ctx, "1", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, model.EVENT_WORKFLOW_ERROR, events[0].Type)
	require.Equal(t, model.EVENT_WORKFLOW_EXECUTED, events[1].Type)
}
