package action

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mohitkumar/autoflow/logger"
	"github.com/mohitkumar/autoflow/model"
	"github.com/mohitkumar/autoflow/util"
	"go.uber.org/zap"
)

const DefaultActionTimeout = 30 * time.Second

// Handler executes one kind of action. Params passed to Handle are already
// interpolated against the execution context.
type Handler interface {
	Kind() model.ActionKind
	Validate(params map[string]any) error
	Handle(ctx context.Context, params map[string]any) (any, error)
}

type UnknownActionTypeError struct {
	Kind model.ActionKind
}

func (e UnknownActionTypeError) Error() string {
	return fmt.Sprintf("unknown action type %q", string(e.Kind))
}

type ExecutionError struct {
	Kind     model.ActionKind
	Name     string
	Attempts int
	Err      error
}

func (e *ExecutionError) Error() string {
	name := string(e.Kind)
	if e.Name != "" {
		name = fmt.Sprintf("%s (%s)", e.Name, e.Kind)
	}
	return fmt.Sprintf("action %s failed: %v", name, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

type Option func(*Dispatcher)

func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func WithRetryPolicy(policy RetryPolicy) Option {
	return func(d *Dispatcher) {
		if policy != nil {
			d.retry = policy
		}
	}
}

type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[model.ActionKind]Handler
	timeout  time.Duration
	retry    RetryPolicy
}

func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[model.ActionKind]Handler),
		timeout:  DefaultActionTimeout,
		retry:    NoRetry{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Register(handlers ...Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range handlers {
		d.handlers[h.Kind()] = h
		logger.Debug("registered action handler", zap.String("kind", string(h.Kind())))
	}
}

func (d *Dispatcher) Kinds() []model.ActionKind {
	d.mu.RLock()
	defer d.mu.RUnlock()
	kinds := make([]model.ActionKind, 0, len(d.handlers))
	for k := range d.handlers {
		kinds = append(kinds, k)
	}
	return kinds
}

func (d *Dispatcher) handler(kind model.ActionKind) (Handler, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[kind]
	if !ok {
		return nil, UnknownActionTypeError{Kind: kind}
	}
	return h, nil
}

// Validate checks a declared action against its handler's parameter schema.
// Parameters given as a single {{path}} token pass the type checks, they are
// checked again against the interpolated value when the action runs.
func (d *Dispatcher) Validate(def model.ActionDef) error {
	h, err := d.handler(def.Type)
	if err != nil {
		return err
	}
	if def.TimeoutSeconds < 0 {
		return fmt.Errorf("timeoutSeconds can not be negative")
	}
	params := def.Params
	if params == nil {
		params = map[string]any{}
	}
	return h.Validate(deferTemplates(params))
}

func (d *Dispatcher) Run(ctx context.Context, def model.ActionDef, data map[string]any) (model.ActionResult, error) {
	h, err := d.handler(def.Type)
	if err != nil {
		return model.ActionResult{}, err
	}
	params := util.ResolveInputParams(data, def.Params)
	timeout := d.timeout
	if def.TimeoutSeconds > 0 {
		timeout = time.Duration(def.TimeoutSeconds) * time.Second
	}

	attempt := 0
	for {
		attempt++
		result, err := d.invoke(ctx, h, params, timeout)
		if err == nil {
			return model.ActionResult{Kind: def.Type, Result: result}, nil
		}
		if ctx.Err() != nil {
			return model.ActionResult{}, &ExecutionError{Kind: def.Type, Name: def.Name, Attempts: attempt, Err: ctx.Err()}
		}
		wait, retry := d.retry.Next(attempt, err)
		if !retry {
			return model.ActionResult{}, &ExecutionError{Kind: def.Type, Name: def.Name, Attempts: attempt, Err: err}
		}
		logger.Warn("retrying action", zap.String("kind", string(def.Type)), zap.Int("attempt", attempt), zap.Duration("after", wait), zap.Error(err))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return model.ActionResult{}, &ExecutionError{Kind: def.Type, Name: def.Name, Attempts: attempt, Err: ctx.Err()}
		}
	}
}

func (d *Dispatcher) invoke(ctx context.Context, h Handler, params map[string]any, timeout time.Duration) (any, error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	result, err := h.Handle(actx, params)
	if err != nil {
		if errors.Is(actx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", timeout, context.DeadlineExceeded)
		}
		return nil, err
	}
	return result, nil
}
