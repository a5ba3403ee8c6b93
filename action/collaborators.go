package action

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mohitkumar/autoflow/logger"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type Notification struct {
	UserId      string `json:"userId"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	WorkspaceId string `json:"workspaceId,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) (string, error)
}

type Document struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	WorkspaceId string `json:"workspaceId"`
	CreatedBy   string `json:"createdBy,omitempty"`
}

type DocumentCreator interface {
	CreateDocument(ctx context.Context, doc Document) (string, error)
}

// HTTPCollaborator forwards notifications and documents to the service that
// owns them.
type HTTPCollaborator struct {
	client  *HTTPClient
	baseURL string
	token   string
}

var _ Notifier = new(HTTPCollaborator)
var _ DocumentCreator = new(HTTPCollaborator)

func NewHTTPCollaborator(client *HTTPClient, baseURL string, token string) *HTTPCollaborator {
	return &HTTPCollaborator{client: client, baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

func (c *HTTPCollaborator) headers() map[string]string {
	if c.token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.token}
}

func (c *HTTPCollaborator) Notify(ctx context.Context, n Notification) (string, error) {
	resp, err := c.client.DoOK(ctx, http.MethodPost, c.baseURL+"/notifications", c.headers(), n)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(resp.Body, "id").String(), nil
}

func (c *HTTPCollaborator) CreateDocument(ctx context.Context, doc Document) (string, error) {
	resp, err := c.client.DoOK(ctx, http.MethodPost, c.baseURL+"/documents", c.headers(), doc)
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(resp.Body, "id")
	if !id.Exists() {
		return "", fmt.Errorf("document service did not return an id")
	}
	return id.String(), nil
}

// LogNotifier only writes notifications to the process log. It is used when
// no notification backend is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notification) (string, error) {
	logger.Info("notification", zap.String("user", n.UserId), zap.String("title", n.Title), zap.String("message", n.Message))
	return "", nil
}
