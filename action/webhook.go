package action

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mohitkumar/autoflow/model"
	"github.com/tidwall/gjson"
)

var _ Handler = new(WebhookHandler)

var webhookMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// WebhookHandler sends the interpolated payload as JSON to the target url.
// Any response is captured as the result, only transport errors fail the
// action. failOnErrorStatus turns responses outside 2xx into failures.
type WebhookHandler struct {
	client *HTTPClient
}

func NewWebhookHandler(client *HTTPClient) *WebhookHandler {
	return &WebhookHandler{client: client}
}

func (h *WebhookHandler) Kind() model.ActionKind {
	return model.ACTION_WEBHOOK
}

func (h *WebhookHandler) Validate(params map[string]any) error {
	if _, err := requireString(params, "url"); err != nil {
		return err
	}
	method, err := optionalString(params, "method")
	if err != nil {
		return err
	}
	if method != "" && !webhookMethods[strings.ToUpper(method)] {
		return ParamError{Param: "method", Reason: "is not a supported http method"}
	}
	if _, err := optionalMap(params, "headers"); err != nil {
		return err
	}
	_, err = optionalBool(params, "failOnErrorStatus")
	return err
}

func (h *WebhookHandler) Handle(ctx context.Context, params map[string]any) (any, error) {
	if err := h.Validate(params); err != nil {
		return nil, err
	}
	url, _ := requireString(params, "url")
	method, _ := optionalString(params, "method")
	if method == "" {
		method = http.MethodPost
	}
	headers, _ := optionalMap(params, "headers")
	failOnStatus, _ := optionalBool(params, "failOnErrorStatus")

	resp, err := h.client.Do(ctx, strings.ToUpper(method), url, stringHeaders(headers), params["payload"])
	if err != nil {
		return nil, err
	}
	if !resp.OK() && failOnStatus {
		return nil, resp.StatusError()
	}
	var data any
	if len(resp.Body) > 0 && gjson.ValidBytes(resp.Body) {
		if err := json.Unmarshal(resp.Body, &data); err != nil {
			data = nil
		}
	}
	return map[string]any{
		"status":     resp.Status,
		"statusText": resp.StatusText,
		"data":       data,
	}, nil
}
