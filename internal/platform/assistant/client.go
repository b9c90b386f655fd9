package assistant

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sashabaranov/go-openai"

	"github.com/yungbote/maia-backend/internal/platform/logger"
)

// Client is the conversational service that owns assistants, threads and
// the model runs on them.
type Client interface {
	CreateAssistant(ctx context.Context, name, description string, tools []openai.Tool) (*Assistant, error)
	CreateThread(ctx context.Context, assistantID string) (*Thread, error)
	GetThread(ctx context.Context, threadID string) (*Thread, error)
	AddMessage(ctx context.Context, threadID, content, memory string) (*Message, error)
	StreamMessage(ctx context.Context, threadID, content, memory string) (Stream, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (Stream, error)
	UploadDocument(ctx context.Context, assistantID, fileName string, data []byte) (*Document, error)
}

type Config struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
}

type httpClient struct {
	unary  *resty.Client
	stream *resty.Client
	log    *logger.Logger
}

type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

func NewClient(cfg Config, log *logger.Logger) (Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("assistant base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	base := strings.TrimRight(cfg.BaseURL, "/")

	unary := resty.New().
		SetBaseURL(base).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		}).
		SetHeader("X-API-Key", cfg.APIKey).
		SetHeader("Accept", "application/json")

	// Streams are never retried and have no overall timeout; the request
	// context bounds them instead.
	stream := resty.New().
		SetBaseURL(base).
		SetHeader("X-API-Key", cfg.APIKey).
		SetHeader("Accept", "text/event-stream")

	return &httpClient{
		unary:  unary,
		stream: stream,
		log:    log.With("client", "AssistantClient"),
	}, nil
}

func (c *httpClient) CreateAssistant(ctx context.Context, name, description string, tools []openai.Tool) (*Assistant, error) {
	var out Assistant
	_, err := c.do(ctx, http.MethodPost, "/assistants", map[string]any{
		"name":        name,
		"description": description,
		"tools":       tools,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) CreateThread(ctx context.Context, assistantID string) (*Thread, error) {
	var out Thread
	_, err := c.do(ctx, http.MethodPost, "/assistants/"+url.PathEscape(assistantID)+"/threads", map[string]any{}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) GetThread(ctx context.Context, threadID string) (*Thread, error) {
	var out Thread
	_, err := c.do(ctx, http.MethodGet, "/threads/"+url.PathEscape(threadID), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) AddMessage(ctx context.Context, threadID, content, memory string) (*Message, error) {
	var out Message
	_, err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/messages", map[string]any{
		"content": content,
		"memory":  memory,
		"stream":  false,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) StreamMessage(ctx context.Context, threadID, content, memory string) (Stream, error) {
	return c.openStream(ctx, "/threads/"+url.PathEscape(threadID)+"/messages", map[string]any{
		"content": content,
		"memory":  memory,
		"stream":  true,
	})
}

func (c *httpClient) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (Stream, error) {
	path := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID) + "/submit-tool-outputs"
	return c.openStream(ctx, path, map[string]any{
		"tool_outputs": outputs,
		"stream":       true,
	})
}

func (c *httpClient) UploadDocument(ctx context.Context, assistantID, fileName string, data []byte) (*Document, error) {
	var (
		out     Document
		errBody errorBody
	)
	resp, err := c.unary.R().
		SetContext(ctx).
		SetFileReader("file", fileName, bytes.NewReader(data)).
		SetResult(&out).
		SetError(&errBody).
		Post("/assistants/" + url.PathEscape(assistantID) + "/documents")
	if err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp.StatusCode(), errBody)
	}
	return &out, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, body any, result any) (*resty.Response, error) {
	var errBody errorBody
	req := c.unary.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&errBody)
	if body != nil {
		req = req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Warn("assistant call failed", "method", method, "path", path, "error", err)
		return resp, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		c.log.Warn("assistant call rejected", "method", method, "path", path, "status", resp.StatusCode())
		return resp, apiError(resp.StatusCode(), errBody)
	}
	return resp, nil
}

func (c *httpClient) openStream(ctx context.Context, path string, body any) (Stream, error) {
	resp, err := c.stream.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetDoNotParseResponse(true).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("open stream %s: %w", path, err)
	}
	raw := resp.RawBody()
	if resp.StatusCode() >= 300 {
		defer raw.Close()
		var msg bytes.Buffer
		_, _ = msg.ReadFrom(raw)
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: strings.TrimSpace(msg.String())}
	}
	return newSSEStream(raw), nil
}

func apiError(status int, body errorBody) *APIError {
	msg := body.Detail
	if msg == "" {
		msg = body.Message
	}
	return &APIError{StatusCode: status, Message: msg}
}
