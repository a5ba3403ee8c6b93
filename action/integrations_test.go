package action

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCompletionHandler(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &req)
		w.Write([]byte(`{"model":"m1","choices":[{"message":{"role":"assistant","content":"summary"}}],"usage":{"total_tokens":12}}`))
	}))
	defer srv.Close()

	h := NewCompletionHandler(newTestClient(), CompletionConfig{BaseURL: srv.URL + "/v1/", APIKey: "key", Model: "default-model"})
	res, err := h.Handle(context.Background(), map[string]any{"prompt": "summarize", "system": "be brief", "temperature": 0.2})
	require.NoError(t, err)
	result := res.(map[string]any)
	require.Equal(t, "summary", result["content"])
	require.Equal(t, "m1", result["model"])
	require.Equal(t, "default-model", req["model"])
	messages := req["messages"].([]any)
	require.Len(t, messages, 2)
	require.Equal(t, "system", messages[0].(map[string]any)["role"])
	require.Equal(t, "summarize", messages[1].(map[string]any)["content"])
	require.Equal(t, 0.2, req["temperature"])

	require.Error(t, h.Validate(map[string]any{}))
	require.Error(t, h.Validate(map[string]any{"messages": "x"}))
}

func TestCompletionHandlerNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()
	h := NewCompletionHandler(newTestClient(), CompletionConfig{BaseURL: srv.URL})
	_, err := h.Handle(context.Background(), map[string]any{"prompt": "x"})
	require.Error(t, err)
}

func TestSlackHandler(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	h := NewSlackHandler(newTestClient(), srv.URL)
	res, err := h.Handle(context.Background(), map[string]any{"text": "deploy done", "channel": "#ops"})
	require.NoError(t, err)
	require.Equal(t, true, res.(map[string]any)["ok"])
	require.Equal(t, "deploy done", body["text"])
	require.Equal(t, "#ops", body["channel"])

	require.Error(t, NewSlackHandler(newTestClient(), "").Validate(map[string]any{"text": "x"}))
}

func TestGithubHandler(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		require.Equal(t, "Bearer gh", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":7,"number":3,"html_url":"https://example.test/issues/3"}`))
	}))
	defer srv.Close()

	h := NewGithubHandler(newTestClient(), GithubConfig{BaseURL: srv.URL, Token: "gh"})
	res, err := h.Handle(context.Background(), map[string]any{"operation": "create_issue", "repo": "acme/api", "title": "bug"})
	require.NoError(t, err)
	require.Equal(t, int64(3), res.(map[string]any)["number"])

	_, err = h.Handle(context.Background(), map[string]any{"operation": "comment", "repo": "acme/api", "number": "3", "body": "fixed"})
	require.NoError(t, err)
	require.Equal(t, []string{"/repos/acme/api/issues", "/repos/acme/api/issues/3/comments"}, paths)

	require.Error(t, h.Validate(map[string]any{"operation": "merge", "repo": "acme/api"}))
	require.Error(t, h.Validate(map[string]any{"operation": "comment", "repo": "acme/api", "body": "x"}))
}

func TestCollaboratorHandlers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/documents":
			w.Write([]byte(`{"id":"doc-1"}`))
		case "/notifications":
			w.Write([]byte(`{"id":"n-1"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	collab := NewHTTPCollaborator(newTestClient(), srv.URL, "")

	res, err := NewDocumentHandler(collab).Handle(context.Background(), map[string]any{"title": "Notes", "workspaceId": "w1", "content": "body"})
	require.NoError(t, err)
	require.Equal(t, "doc-1", res.(map[string]any)["documentId"])

	res, err = NewNotificationHandler(collab).Handle(context.Background(), map[string]any{"userId": "u1", "message": "hi"})
	require.NoError(t, err)
	require.Equal(t, "n-1", res.(map[string]any)["notificationId"])

	res, err = NewNotificationHandler(LogNotifier{}).Handle(context.Background(), map[string]any{"userId": "u1", "message": "hi"})
	require.NoError(t, err)
	require.Equal(t, true, res.(map[string]any)["delivered"])
}

func TestEmailHandler(t *testing.T) {
	h := NewEmailHandler(SMTPConfig{Host: "smtp.test", Port: 25, From: "bot@test"})
	var gotAddr string
	var gotTo []string
	var gotMsg string
	h.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}
	res, err := h.Handle(context.Background(), map[string]any{"to": []any{"a@test", "b@test"}, "subject": "hello", "body": "world"})
	require.NoError(t, err)
	require.Equal(t, true, res.(map[string]any)["sent"])
	require.Equal(t, "smtp.test:25", gotAddr)
	require.Equal(t, []string{"a@test", "b@test"}, gotTo)
	require.True(t, strings.HasSuffix(gotMsg, "\r\n\r\nworld"))
	require.Contains(t, gotMsg, "Subject: hello")

	h.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("relay denied")
	}
	_, err = h.Handle(context.Background(), map[string]any{"to": "a@test", "subject": "x"})
	require.ErrorContains(t, err, "relay denied")
	require.Error(t, h.Validate(map[string]any{"subject": "x"}))
}

func TestJsHandler(t *testing.T) {
	h := NewJsHandler()
	res, err := h.Handle(context.Background(), map[string]any{
		"input":  map[string]any{"score": 2},
		"script": "$.doubled = $.score * 2;",
	})
	require.NoError(t, err)
	require.Equal(t, float64(4), res.(map[string]any)["doubled"])

	require.Error(t, h.Validate(map[string]any{"script": "function ("}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = h.Handle(ctx, map[string]any{"script": "while(true){}"})
	require.Error(t, err)
}

func TestTransformAndDelay(t *testing.T) {
	res, err := NewTransformHandler().Handle(context.Background(), map[string]any{"output": map[string]any{"a": "b"}})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"a": "b"}, res)

	d := NewDelayHandler()
	_, err = d.Handle(context.Background(), map[string]any{"seconds": 0.01})
	require.NoError(t, err)
	require.Error(t, d.Validate(map[string]any{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Handle(ctx, map[string]any{"seconds": 10})
	require.ErrorIs(t, err, context.Canceled)
}
