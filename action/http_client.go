package action

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const maxResponseBytes = 4 << 20

type HTTPResponse struct {
	Status     int
	StatusText string
	Header     http.Header
	Body       []byte
}

type HTTPStatusError struct {
	Status     int
	StatusText string
	Body       string
}

func (e HTTPStatusError) Error() string {
	return fmt.Sprintf("request failed with status %d %s", e.Status, e.StatusText)
}

// HTTPClient is shared by the handlers that talk to external systems. An
// optional limiter throttles all outbound requests.
type HTTPClient struct {
	client  *http.Client
	limiter *rate.Limiter
}

type HTTPClientConfig struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

func NewHTTPClient(conf HTTPClientConfig) *HTTPClient {
	c := &HTTPClient{
		client: &http.Client{Timeout: conf.Timeout},
	}
	if conf.RequestsPerSecond > 0 {
		burst := conf.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(conf.RequestsPerSecond), burst)
	}
	return c
}

func (c *HTTPClient) Do(ctx context.Context, method string, url string, headers map[string]string, body any) (*HTTPResponse, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &HTTPResponse{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// DoOK is Do that turns non 2xx responses into HTTPStatusError.
func (c *HTTPClient) DoOK(ctx context.Context, method string, url string, headers map[string]string, body any) (*HTTPResponse, error) {
	resp, err := c.Do(ctx, method, url, headers, body)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, resp.StatusError()
	}
	return resp, nil
}

func (r *HTTPResponse) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

func (r *HTTPResponse) StatusError() HTTPStatusError {
	body := string(r.Body)
	if len(body) > 512 {
		body = body[:512]
	}
	return HTTPStatusError{Status: r.Status, StatusText: r.StatusText, Body: body}
}

func statusText(resp *http.Response) string {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	text = strings.TrimSpace(text)
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func stringHeaders(headers map[string]any) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = s
		} else {
			out[k] = fmt.Sprintf("%v", v)
		}
	}
	return out
}
