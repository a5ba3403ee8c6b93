package action

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mohitkumar/autoflow/model"
)

var _ Handler = new(SlackHandler)

// SlackHandler posts a message to a Slack incoming webhook.
type SlackHandler struct {
	client     *HTTPClient
	webhookURL string
}

func NewSlackHandler(client *HTTPClient, webhookURL string) *SlackHandler {
	return &SlackHandler{client: client, webhookURL: webhookURL}
}

func (h *SlackHandler) Kind() model.ActionKind {
	return model.ACTION_SLACK
}

func (h *SlackHandler) Validate(params map[string]any) error {
	if _, err := requireString(params, "text"); err != nil {
		return err
	}
	if _, err := optionalString(params, "channel"); err != nil {
		return err
	}
	url, err := optionalString(params, "webhookUrl")
	if err != nil {
		return err
	}
	if url == "" && h.webhookURL == "" {
		return ParamError{Param: "webhookUrl", Reason: "is required when no default webhook is configured"}
	}
	return nil
}

func (h *SlackHandler) Handle(ctx context.Context, params map[string]any) (any, error) {
	if err := h.Validate(params); err != nil {
		return nil, err
	}
	text, _ := requireString(params, "text")
	channel, _ := optionalString(params, "channel")
	url, _ := optionalString(params, "webhookUrl")
	if url == "" {
		url = h.webhookURL
	}
	msg := map[string]any{"text": text}
	if channel != "" {
		msg["channel"] = channel
	}
	resp, err := h.client.Do(ctx, http.MethodPost, url, nil, msg)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("slack rejected message: %w", resp.StatusError())
	}
	return map[string]any{"ok": true, "status": resp.Status, "channel": channel}, nil
}
