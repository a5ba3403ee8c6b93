package analytics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mohitkumar/autoflow/model"
	"github.com/mohitkumar/autoflow/persistence/memory"
	"github.com/stretchr/testify/require"
)

type failingCollector struct{}

func (failingCollector) Collect(ctx context.Context, event *model.ExecutionEvent) error {
	return errors.New("disk full")
}

func TestLoggerAppendsToStore(t *testing.T) {
	store := memory.NewMemoryStorage(2)
	collector, err := NewDataCollector(DataCollectorConfig{CollectorType: STORE_DATA_COLLECTOR}, store)
	require.NoError(t, err)
	l := NewLogger(collector)

	data := map[string]any{"workflowId": "1", "context": map[string]any{"a": 1}}
	l.Record(context.Background(), "1", model.EVENT_WORKFLOW_EXECUTED, data)
	data["context"].(map[string]any)["a"] = 2

	events, err := store.ListEvents(context.Background(), "1", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, model.EVENT_WORKFLOW_EXECUTED, events[0].Type)
	require.NotEmpty(t, events[0].Id)
	require.Equal(t, 1, events[0].Data["context"].(map[string]any)["a"])
	require.NoError(t, l.Stop())
}

func TestLoggerAsyncDrainsOnStop(t *testing.T) {
	store := memory.NewMemoryStorage(2)
	l := NewLogger(NewStoreCollector(store), WithAsync(4))
	for i := 0; i < 20; i++ {
		l.Record(context.Background(), "1", model.EVENT_WORKFLOW_EXECUTED, nil)
	}
	require.NoError(t, l.Stop())
	events, err := store.ListEvents(context.Background(), "1", 0)
	require.NoError(t, err)
	require.Len(t, events, 20)
}

func TestLoggerFailureGoesToHandler(t *testing.T) {
	var mu sync.Mutex
	var failed []error
	l := NewLogger(failingCollector{}, WithErrorHandler(func(event *model.ExecutionEvent, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, err)
	}))
	l.Record(context.Background(), "1", model.EVENT_WORKFLOW_ERROR, nil)
	require.Len(t, failed, 1)
	require.EqualError(t, failed[0], "disk full")
}

func TestLogFileCollector(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "events.log")
	collector, err := NewDataCollector(DataCollectorConfig{CollectorType: LOG_FILE_DATA_COLLECTOR, FileName: fileName}, nil)
	require.NoError(t, err)
	l := NewLogger(collector)
	l.Record(context.Background(), "wf-1", model.EVENT_WORKFLOW_SKIPPED, map[string]any{"workflowId": "wf-1"})
	require.NoError(t, l.Stop())

	data, err := os.ReadFile(fileName)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	require.Contains(t, line, `"msg":"workflow_skipped"`)
	require.Contains(t, line, `"workflowId":"wf-1"`)
}

func TestNewDataCollectorErrors(t *testing.T) {
	_, err := NewDataCollector(DataCollectorConfig{CollectorType: STORE_DATA_COLLECTOR}, nil)
	require.Error(t, err)
	_, err = NewDataCollector(DataCollectorConfig{CollectorType: "kafka"}, nil)
	require.Error(t, err)
}
