package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mohitkumar/autoflow/action"
	"github.com/mohitkumar/autoflow/analytics"
	"github.com/mohitkumar/autoflow/engine"
	"github.com/mohitkumar/autoflow/metadata"
	"github.com/mohitkumar/autoflow/model"
	"github.com/mohitkumar/autoflow/persistence/memory"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	store := memory.NewMemoryStorage(4)
	dispatcher := action.NewDispatcher(action.WithTimeout(time.Second))
	dispatcher.Register(
		action.NewWebhookHandler(action.NewHTTPClient(action.HTTPClientConfig{Timeout: time.Second})),
		action.NewTransformHandler())
	events := analytics.NewLogger(analytics.NewStoreCollector(store))
	service := metadata.NewWorkflowService(store, dispatcher, events, 0)
	eng := engine.NewEngine(service, dispatcher, store, events)
	s, err := NewServer(0, service, eng, store)
	require.NoError(t, err)
	return s.Router()
}

func do(t *testing.T, h http.Handler, method string, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func workflowBody() map[string]any {
	return map[string]any{
		"name":        "escalate",
		"workspaceId": "ws1",
		"conditions":  []any{map[string]any{"field": "score", "operator": "less_than", "value": 0}},
		"actions": []any{map[string]any{
			"type":       "transform",
			"parameters": map[string]any{"output": map[string]any{"msg": "score {{score}}"}},
		}},
	}
}

func TestWorkflowLifecycle(t *testing.T) {
	h := newTestRouter(t)

	rec, created := do(t, h, http.MethodPost, "/workflows", workflowBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	id := created["id"].(string)
	require.Equal(t, true, created["isActive"])

	rec, got := do(t, h, http.MethodGet, "/workflows/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "escalate", got["name"])

	rec, res := do(t, h, http.MethodPost, "/workflows/"+id+"/execute", map[string]any{"score": -3})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, res["success"])
	results := res["results"].([]any)
	require.Equal(t, map[string]any{"msg": "score -3"}, results[0].(map[string]any)["result"])

	rec, res = do(t, h, http.MethodPost, "/workflows/"+id+"/execute", map[string]any{"score": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, res["success"])
	require.Equal(t, engine.CONDITIONS_NOT_MET, res["message"])

	_, got = do(t, h, http.MethodGet, "/workflows/"+id, nil)
	require.Equal(t, float64(1), got["executionCount"])

	rec, _ = do(t, h, http.MethodGet, "/workflows/"+id+"/events?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []model.ExecutionEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 2)
	require.Equal(t, model.EVENT_WORKFLOW_EXECUTED, events[0].Type)

	update := workflowBody()
	update["name"] = "renamed"
	rec, got = do(t, h, http.MethodPut, "/workflows/"+id, update)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "renamed", got["name"])
	require.Equal(t, float64(1), got["executionCount"])

	rec, _ = do(t, h, http.MethodGet, "/workspaces/ws1/workflows", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Workflow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec, _ = do(t, h, http.MethodDelete, "/workflows/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, h, http.MethodGet, "/workflows/"+id, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	h := newTestRouter(t)

	rec, body := do(t, h, http.MethodPost, "/workflows", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotEmpty(t, body["error"])

	invalid := workflowBody()
	invalid["actions"] = []any{map[string]any{"type": "teleport"}}
	rec, body = do(t, h, http.MethodPost, "/workflows", invalid)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, body["error"], "teleport")

	rec, _ = do(t, h, http.MethodPost, "/workflows/missing/execute", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	failing := workflowBody()
	failing["conditions"] = []any{}
	failing["actions"] = []any{map[string]any{"type": "webhook", "parameters": map[string]any{"url": srv.URL, "failOnErrorStatus": true}}}
	_, created := do(t, h, http.MethodPost, "/workflows", failing)
	rec, body = do(t, h, http.MethodPost, "/workflows/"+created["id"].(string)+"/execute", map[string]any{})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, body["error"], "500")

	dup := workflowBody()
	dup["id"] = created["id"]
	rec, body = do(t, h, http.MethodPost, "/workflows", dup)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, body["error"], "already exists")

	rec, _ = do(t, h, http.MethodGet, "/workflows/x/events?limit=-1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = do(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])
}
