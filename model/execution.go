package model

import "time"

type EventType string

const (
	EVENT_WORKFLOW_CREATED  EventType = "workflow_created"
	EVENT_WORKFLOW_EXECUTED EventType = "workflow_executed"
	EVENT_WORKFLOW_ERROR    EventType = "workflow_error"
	EVENT_WORKFLOW_SKIPPED  EventType = "workflow_skipped"
)

type ExecutionEvent struct {
	Id         string         `json:"id"`
	WorkflowId string         `json:"workflowId"`
	Type       EventType      `json:"eventType"`
	Data       map[string]any `json:"eventData"`
	Timestamp  time.Time      `json:"timestamp"`
}

type ActionResult struct {
	Kind   ActionKind `json:"type"`
	Result any        `json:"result"`
}

type ExecutionResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Results []ActionResult `json:"results,omitempty"`
}

type WorkflowRunRequest struct {
	WorkflowId string         `json:"workflowId"`
	Context    map[string]any `json:"context"`
}
