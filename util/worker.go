package util

import (
	"errors"
	"sync"

	"github.com/mohitkumar/autoflow/logger"
	"go.uber.org/zap"
)

var ErrWorkerStopped = errors.New("worker stopped")

type Task any

// Worker runs handler for every submitted task on a single goroutine, in
// submission order. Stop drains tasks that are already queued.
type Worker struct {
	name     string
	wg       *sync.WaitGroup
	handler  func(Task) error
	taskChan chan Task
	stop     chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
	stopped  bool
}

func NewWorker(name string, wg *sync.WaitGroup, handler func(Task) error, capacity int) *Worker {
	return &Worker{
		name:     name,
		wg:       wg,
		handler:  handler,
		taskChan: make(chan Task, capacity),
		stop:     make(chan struct{}),
	}
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case task := <-w.taskChan:
				w.handle(task)
			case <-w.stop:
				w.drain()
				logger.Info("stopping worker", zap.String("worker", w.name))
				return
			}
		}
	}()
}

func (w *Worker) drain() {
	for {
		select {
		case task := <-w.taskChan:
			w.handle(task)
		default:
			return
		}
	}
}

func (w *Worker) handle(task Task) {
	if err := w.handler(task); err != nil {
		logger.Error("error in executing task in worker", zap.String("worker", w.name), zap.Error(err))
	}
}

// Submit blocks while the queue is full, so tasks are never dropped silently.
func (w *Worker) Submit(task Task) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return ErrWorkerStopped
	}
	w.taskChan <- task
	return nil
}

func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		w.mu.Unlock()
		close(w.stop)
	})
}
