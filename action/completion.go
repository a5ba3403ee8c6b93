package action

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mohitkumar/autoflow/model"
	"github.com/tidwall/gjson"
)

var _ Handler = new(CompletionHandler)

type CompletionConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// CompletionHandler calls an OpenAI compatible chat completion endpoint.
type CompletionHandler struct {
	client *HTTPClient
	conf   CompletionConfig
}

func NewCompletionHandler(client *HTTPClient, conf CompletionConfig) *CompletionHandler {
	conf.BaseURL = strings.TrimRight(conf.BaseURL, "/")
	return &CompletionHandler{client: client, conf: conf}
}

func (h *CompletionHandler) Kind() model.ActionKind {
	return model.ACTION_COMPLETION
}

func (h *CompletionHandler) Validate(params map[string]any) error {
	prompt, err := optionalString(params, "prompt")
	if err != nil {
		return err
	}
	_, hasMessages, err := optionalList(params, "messages")
	if err != nil {
		return err
	}
	if prompt == "" && !hasMessages {
		return ParamError{Param: "prompt", Reason: "or messages is required"}
	}
	for _, name := range []string{"model", "system"} {
		if _, err := optionalString(params, name); err != nil {
			return err
		}
	}
	for _, name := range []string{"temperature", "maxTokens"} {
		if _, _, err := optionalNumber(params, name); err != nil {
			return err
		}
	}
	return nil
}

func (h *CompletionHandler) buildRequest(params map[string]any) map[string]any {
	modelName, _ := optionalString(params, "model")
	if modelName == "" {
		modelName = h.conf.Model
	}
	messages := make([]any, 0)
	if system, _ := optionalString(params, "system"); system != "" {
		messages = append(messages, map[string]any{"role": "system", "content": system})
	}
	if list, ok, _ := optionalList(params, "messages"); ok {
		messages = append(messages, list...)
	}
	if prompt, _ := optionalString(params, "prompt"); prompt != "" {
		messages = append(messages, map[string]any{"role": "user", "content": prompt})
	}
	req := map[string]any{
		"model":    modelName,
		"messages": messages,
	}
	if t, ok, _ := optionalNumber(params, "temperature"); ok {
		req["temperature"] = t
	}
	if m, ok, _ := optionalNumber(params, "maxTokens"); ok {
		req["max_tokens"] = int(m)
	}
	return req
}

func (h *CompletionHandler) Handle(ctx context.Context, params map[string]any) (any, error) {
	if err := h.Validate(params); err != nil {
		return nil, err
	}
	headers := map[string]string{}
	if h.conf.APIKey != "" {
		headers["Authorization"] = "Bearer " + h.conf.APIKey
	}
	resp, err := h.client.DoOK(ctx, http.MethodPost, h.conf.BaseURL+"/chat/completions", headers, h.buildRequest(params))
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(resp.Body) {
		return nil, fmt.Errorf("completion response is not valid json")
	}
	parsed := gjson.ParseBytes(resp.Body)
	content := parsed.Get("choices.0.message.content")
	if !content.Exists() {
		return nil, fmt.Errorf("completion response has no choices")
	}
	result := map[string]any{
		"content": content.String(),
		"model":   parsed.Get("model").String(),
	}
	if usage := parsed.Get("usage"); usage.Exists() {
		result["usage"] = usage.Value()
	}
	return result, nil
}
