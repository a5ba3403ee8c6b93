package action

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mohitkumar/autoflow/util"
)

type ParamError struct {
	Param  string
	Reason string
}

func (e ParamError) Error() string {
	return fmt.Sprintf("parameter %s %s", e.Param, e.Reason)
}

// deferred stands for a parameter given as a single {{path}} token while a
// definition is validated. Its real type is checked when the action runs.
type deferred string

func deferTemplates(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if util.IsWholeToken(v) {
			out[k] = deferred(v.(string))
			continue
		}
		out[k] = v
	}
	return out
}

func requireString(params map[string]any, name string) (string, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return "", ParamError{Param: name, Reason: "is required"}
	}
	if d, ok := v.(deferred); ok {
		return string(d), nil
	}
	s, ok := v.(string)
	if !ok {
		return "", ParamError{Param: name, Reason: "should be a string"}
	}
	if s == "" {
		return "", ParamError{Param: name, Reason: "can not be empty"}
	}
	return s, nil
}

func optionalString(params map[string]any, name string) (string, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return "", nil
	}
	if d, ok := v.(deferred); ok {
		return string(d), nil
	}
	s, ok := v.(string)
	if !ok {
		return "", ParamError{Param: name, Reason: "should be a string"}
	}
	return s, nil
}

// optionalMap also accepts the JSON text an interpolated object turns into.
func optionalMap(params map[string]any, name string) (map[string]any, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return nil, nil
	}
	switch m := v.(type) {
	case deferred:
		return nil, nil
	case map[string]any:
		return m, nil
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, nil
	case string:
		var out map[string]any
		if err := json.Unmarshal([]byte(m), &out); err == nil && out != nil {
			return out, nil
		}
	}
	return nil, ParamError{Param: name, Reason: "should be an object"}
}

// optionalList also accepts the JSON text an interpolated list turns into.
func optionalList(params map[string]any, name string) ([]any, bool, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return nil, false, nil
	}
	switch l := v.(type) {
	case deferred:
		return nil, true, nil
	case []any:
		return l, true, nil
	case string:
		var out []any
		if err := json.Unmarshal([]byte(l), &out); err == nil && out != nil {
			return out, true, nil
		}
	}
	return nil, false, ParamError{Param: name, Reason: "should be a list"}
}

// optionalNumber accepts numbers and numeric strings. A deferred parameter
// counts as present with an unknown value.
func optionalNumber(params map[string]any, name string) (float64, bool, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return 0, false, nil
	}
	if _, ok := v.(deferred); ok {
		return 0, true, nil
	}
	f, ok := util.ToFloat(v)
	if !ok {
		return 0, false, ParamError{Param: name, Reason: "should be a number"}
	}
	return f, true, nil
}

func optionalBool(params map[string]any, name string) (bool, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return false, nil
	}
	switch b := v.(type) {
	case deferred:
		return false, nil
	case bool:
		return b, nil
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return parsed, nil
		}
	}
	return false, ParamError{Param: name, Reason: "should be a boolean"}
}

// stringList accepts a single string, a list of strings or the JSON text of
// such a list.
func stringList(params map[string]any, name string) ([]string, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return nil, ParamError{Param: name, Reason: "is required"}
	}
	switch val := v.(type) {
	case deferred:
		return []string{string(val)}, nil
	case string:
		if val == "" {
			return nil, ParamError{Param: name, Reason: "can not be empty"}
		}
		if strings.HasPrefix(strings.TrimSpace(val), "[") {
			var list []any
			if err := json.Unmarshal([]byte(val), &list); err == nil {
				return stringList(map[string]any{name: list}, name)
			}
		}
		return []string{val}, nil
	case []string:
		if len(val) == 0 {
			return nil, ParamError{Param: name, Reason: "can not be empty"}
		}
		return val, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok || s == "" {
				return nil, ParamError{Param: name, Reason: "should contain only non empty strings"}
			}
			out = append(out, s)
		}
		if len(out) == 0 {
			return nil, ParamError{Param: name, Reason: "can not be empty"}
		}
		return out, nil
	}
	return nil, ParamError{Param: name, Reason: "should be a string or a list of strings"}
}
