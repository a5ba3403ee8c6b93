package action

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"
	"github.com/mohitkumar/autoflow/model"
)

var _ Handler = new(JsHandler)

// JsHandler runs a script with $ bound to the "input" parameter. The value
// of $ after the script finishes is the action result.
type JsHandler struct{}

func NewJsHandler() *JsHandler {
	return &JsHandler{}
}

func (h *JsHandler) Kind() model.ActionKind {
	return model.ACTION_JAVASCRIPT
}

func (h *JsHandler) Validate(params map[string]any) error {
	script, err := requireString(params, "script")
	if err != nil {
		return err
	}
	if _, err := goja.Compile("validate", script, false); err != nil {
		return ParamError{Param: "script", Reason: "does not compile: " + err.Error()}
	}
	return nil
}

func (h *JsHandler) Handle(ctx context.Context, params map[string]any) (any, error) {
	script, err := requireString(params, "script")
	if err != nil {
		return nil, err
	}
	input := params["input"]
	if input == nil {
		input = map[string]any{}
	}
	data, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("error encoding script input %w", err)
	}
	expression := fmt.Sprintf("var $ = %s;\n%s", data, script)

	vm := goja.New()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	if _, err := vm.RunString(expression); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("error executing javascript %w", err)
	}
	val, err := vm.RunString("$")
	if err != nil {
		return nil, fmt.Errorf("error executing javascript %w", err)
	}
	res, err := json.Marshal(val.Export())
	if err != nil {
		return nil, err
	}
	var output any
	if err := json.Unmarshal(res, &output); err != nil {
		return nil, err
	}
	return output, nil
}
