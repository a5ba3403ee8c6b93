package action

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mohitkumar/autoflow/model"
	"github.com/tidwall/gjson"
)

var _ Handler = new(GithubHandler)

const (
	GITHUB_CREATE_ISSUE = "create_issue"
	GITHUB_COMMENT      = "comment"
)

type GithubConfig struct {
	BaseURL string
	Token   string
}

type GithubHandler struct {
	client *HTTPClient
	conf   GithubConfig
}

func NewGithubHandler(client *HTTPClient, conf GithubConfig) *GithubHandler {
	if conf.BaseURL == "" {
		conf.BaseURL = "https://api.github.com"
	}
	conf.BaseURL = strings.TrimRight(conf.BaseURL, "/")
	return &GithubHandler{client: client, conf: conf}
}

func (h *GithubHandler) Kind() model.ActionKind {
	return model.ACTION_GITHUB
}

func (h *GithubHandler) Validate(params map[string]any) error {
	op, err := requireString(params, "operation")
	if err != nil {
		return err
	}
	repo, err := requireString(params, "repo")
	if err != nil {
		return err
	}
	if !strings.Contains(repo, "/") && !strings.Contains(repo, "{{") {
		return ParamError{Param: "repo", Reason: "should be owner/name"}
	}
	switch op {
	case GITHUB_CREATE_ISSUE:
		if _, err := requireString(params, "title"); err != nil {
			return err
		}
	case GITHUB_COMMENT:
		if _, ok := params["number"]; !ok {
			return ParamError{Param: "number", Reason: "is required"}
		}
		if _, err := requireString(params, "body"); err != nil {
			return err
		}
	default:
		return ParamError{Param: "operation", Reason: fmt.Sprintf("should be %s or %s", GITHUB_CREATE_ISSUE, GITHUB_COMMENT)}
	}
	return nil
}

func (h *GithubHandler) Handle(ctx context.Context, params map[string]any) (any, error) {
	if err := h.Validate(params); err != nil {
		return nil, err
	}
	op, _ := requireString(params, "operation")
	repo, _ := requireString(params, "repo")
	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if h.conf.Token != "" {
		headers["Authorization"] = "Bearer " + h.conf.Token
	}

	var url string
	body := map[string]any{}
	switch op {
	case GITHUB_CREATE_ISSUE:
		url = fmt.Sprintf("%s/repos/%s/issues", h.conf.BaseURL, repo)
		body["title"], _ = requireString(params, "title")
		if b, _ := optionalString(params, "body"); b != "" {
			body["body"] = b
		}
		if labels, ok := params["labels"]; ok {
			body["labels"] = labels
		}
	case GITHUB_COMMENT:
		number, ok, err := optionalNumber(params, "number")
		if err != nil || !ok {
			return nil, ParamError{Param: "number", Reason: "should be a number"}
		}
		url = fmt.Sprintf("%s/repos/%s/issues/%d/comments", h.conf.BaseURL, repo, int(number))
		body["body"], _ = requireString(params, "body")
	}

	resp, err := h.client.DoOK(ctx, http.MethodPost, url, headers, body)
	if err != nil {
		return nil, err
	}
	parsed := gjson.ParseBytes(resp.Body)
	result := map[string]any{
		"operation": op,
		"id":        parsed.Get("id").Int(),
		"url":       parsed.Get("html_url").String(),
	}
	if n := parsed.Get("number"); n.Exists() {
		result["number"] = n.Int()
	}
	return result, nil
}
