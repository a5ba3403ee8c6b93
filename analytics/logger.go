package analytics

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mohitkumar/autoflow/logger"
	"github.com/mohitkumar/autoflow/model"
	"github.com/mohitkumar/autoflow/util"
	"go.uber.org/zap"
)

const asyncAppendTimeout = 10 * time.Second

type ErrorHandler func(event *model.ExecutionEvent, err error)

type Option func(*Logger)

// WithAsync makes Record return right away, events are appended in order by a
// background worker.
func WithAsync(capacity int) Option {
	return func(l *Logger) {
		l.async = true
		if capacity > 0 {
			l.capacity = capacity
		}
	}
}

func WithErrorHandler(h ErrorHandler) Option {
	return func(l *Logger) {
		l.onError = h
	}
}

// Logger records execution events. Failing to record an event is never
// reported to the caller of Record, it goes to the process log and the
// error handler.
type Logger struct {
	collector EventCollector
	async     bool
	capacity  int
	worker    *util.Worker
	wg        sync.WaitGroup
	onError   ErrorHandler
}

func NewLogger(collector EventCollector, opts ...Option) *Logger {
	l := &Logger{collector: collector, capacity: 1024}
	for _, opt := range opts {
		opt(l)
	}
	if l.async {
		l.worker = util.NewWorker("event-logger", &l.wg, l.appendTask, l.capacity)
		l.worker.Start()
	}
	return l
}

func (l *Logger) Record(ctx context.Context, workflowId string, eventType model.EventType, data map[string]any) {
	event := &model.ExecutionEvent{
		Id:         uuid.NewString(),
		WorkflowId: workflowId,
		Type:       eventType,
		Data:       model.DeepCopyMap(data),
		Timestamp:  time.Now().UTC(),
	}
	if l.worker != nil {
		if err := l.worker.Submit(event); err != nil {
			l.fail(event, err)
		}
		return
	}
	l.append(ctx, event)
}

func (l *Logger) appendTask(task util.Task) error {
	event := task.(*model.ExecutionEvent)
	ctx, cancel := context.WithTimeout(context.Background(), asyncAppendTimeout)
	defer cancel()
	l.append(ctx, event)
	return nil
}

func (l *Logger) append(ctx context.Context, event *model.ExecutionEvent) {
	if err := l.collector.Collect(ctx, event); err != nil {
		l.fail(event, err)
	}
}

func (l *Logger) fail(event *model.ExecutionEvent, err error) {
	logger.Error("error in recording execution event",
		zap.String("workflow", event.WorkflowId),
		zap.String("event", string(event.Type)),
		zap.Error(err))
	if l.onError != nil {
		l.onError(event, err)
	}
}

// Stop flushes queued events and closes the collector when it holds a resource.
func (l *Logger) Stop() error {
	if l.worker != nil {
		l.worker.Stop()
		l.wg.Wait()
	}
	if c, ok := l.collector.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
