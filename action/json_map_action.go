package action

import (
	"context"
	"time"

	"github.com/mohitkumar/autoflow/model"
)

var _ Handler = new(TransformHandler)

// TransformHandler returns its interpolated "output" parameter, or all of its
// parameters when there is none. It is used to reshape context data for the
// actions that follow.
type TransformHandler struct{}

func NewTransformHandler() *TransformHandler {
	return &TransformHandler{}
}

func (h *TransformHandler) Kind() model.ActionKind {
	return model.ACTION_TRANSFORM
}

func (h *TransformHandler) Validate(params map[string]any) error {
	return nil
}

func (h *TransformHandler) Handle(ctx context.Context, params map[string]any) (any, error) {
	if out, ok := params["output"]; ok {
		return out, nil
	}
	return params, nil
}

var _ Handler = new(DelayHandler)

type DelayHandler struct{}

func NewDelayHandler() *DelayHandler {
	return &DelayHandler{}
}

func (h *DelayHandler) Kind() model.ActionKind {
	return model.ACTION_DELAY
}

func (h *DelayHandler) Validate(params map[string]any) error {
	seconds, ok, err := optionalNumber(params, "seconds")
	if err != nil {
		return err
	}
	if !ok {
		return ParamError{Param: "seconds", Reason: "is required"}
	}
	if seconds < 0 {
		return ParamError{Param: "seconds", Reason: "can not be negative"}
	}
	return nil
}

func (h *DelayHandler) Handle(ctx context.Context, params map[string]any) (any, error) {
	if err := h.Validate(params); err != nil {
		return nil, err
	}
	seconds, _, _ := optionalNumber(params, "seconds")
	delay := time.Duration(seconds * float64(time.Second))
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return map[string]any{"waitedSeconds": seconds}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
