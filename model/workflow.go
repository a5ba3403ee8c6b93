package model

import (
	"time"
)

type Operator string

const (
	OP_EQUALS       Operator = "equals"
	OP_NOT_EQUALS   Operator = "not_equals"
	OP_CONTAINS     Operator = "contains"
	OP_GREATER_THAN Operator = "greater_than"
	OP_LESS_THAN    Operator = "less_than"
)

type ActionKind string

const (
	ACTION_COMPLETION      ActionKind = "completion"
	ACTION_WEBHOOK         ActionKind = "webhook"
	ACTION_NOTIFICATION    ActionKind = "notification"
	ACTION_CREATE_DOCUMENT ActionKind = "create_document"
	ACTION_EMAIL           ActionKind = "email"
	ACTION_SLACK           ActionKind = "slack"
	ACTION_GITHUB          ActionKind = "github"
	ACTION_JAVASCRIPT      ActionKind = "javascript"
	ACTION_TRANSFORM       ActionKind = "transform"
	ACTION_DELAY           ActionKind = "delay"
)

// Trigger is interpreted by the trigger source that calls the engine, the
// engine itself never looks inside.
type Trigger map[string]any

type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

type ActionDef struct {
	Type           ActionKind     `json:"type"`
	Name           string         `json:"name,omitempty"`
	Params         map[string]any `json:"parameters"`
	TimeoutSeconds int            `json:"timeoutSeconds,omitempty"`
}

type Workflow struct {
	Id             string      `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	Triggers       []Trigger   `json:"triggers"`
	Conditions     []Condition `json:"conditions"`
	Actions        []ActionDef `json:"actions"`
	WorkspaceId    string      `json:"workspaceId"`
	CreatedBy      string      `json:"createdBy"`
	IsActive       *bool       `json:"isActive,omitempty"`
	ExecutionCount int64       `json:"executionCount"`
	LastExecuted   *time.Time  `json:"lastExecuted,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// Active reports the active flag, a workflow without an explicit flag is active.
func (wf *Workflow) Active() bool {
	return wf.IsActive == nil || *wf.IsActive
}

func (wf *Workflow) SetActive(active bool) {
	wf.IsActive = &active
}

// Snapshot returns a copy whose condition and action lists can not be
// changed through the original.
func (wf *Workflow) Snapshot() *Workflow {
	cp := *wf
	cp.Triggers = make([]Trigger, len(wf.Triggers))
	for i, t := range wf.Triggers {
		cp.Triggers[i] = Trigger(DeepCopyMap(t))
	}
	cp.Conditions = make([]Condition, len(wf.Conditions))
	for i, c := range wf.Conditions {
		cp.Conditions[i] = Condition{Field: c.Field, Operator: c.Operator, Value: DeepCopy(c.Value)}
	}
	cp.Actions = make([]ActionDef, len(wf.Actions))
	for i, a := range wf.Actions {
		a.Params = DeepCopyMap(a.Params)
		cp.Actions[i] = a
	}
	if wf.IsActive != nil {
		cp.SetActive(*wf.IsActive)
	}
	if wf.LastExecuted != nil {
		t := *wf.LastExecuted
		cp.LastExecuted = &t
	}
	return &cp
}

func DeepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = DeepCopy(v)
	}
	return out
}

func DeepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = DeepCopy(val[i])
		}
		return out
	default:
		return v
	}
}
