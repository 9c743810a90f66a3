package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/busfleet/opsproxy/internal/telemetry/tracing"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"
)

// UpstreamError carries the upstream status code and its message verbatim.
// No status from the upstream (unreachable, bad response) maps to 500.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error (%d): %s", e.StatusCode, e.Message)
}

var _ Gateway = (*Client)(nil)

// Gateway is the upstream workspace surface used by the proxy handlers
// and the sync job.
type Gateway interface {
	QueryDatabase(ctx context.Context, databaseID string, filter json.RawMessage) (json.RawMessage, error)
	CreatePage(ctx context.Context, body json.RawMessage) (json.RawMessage, error)
	UpdatePage(ctx context.Context, pageID string, body json.RawMessage) (json.RawMessage, error)
}

// Client talks to the workspace API. Bodies are passed through untouched
// in both directions; no retries, no backoff, the first failure fails
// the whole request.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (c *Client) QueryDatabase(ctx context.Context, databaseID string, filter json.RawMessage) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/databases/%s/query", databaseID), filter)
}

func (c *Client) CreatePage(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/pages", body)
}

func (c *Client) UpdatePage(ctx context.Context, pageID string, body json.RawMessage) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/pages/%s", pageID), body)
}

func (c *Client) do(ctx context.Context, method, path string, body json.RawMessage) (payload json.RawMessage, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workspace.do")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "ok")
		}
	}()

	if len(body) == 0 {
		body = json.RawMessage(`{}`)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &UpstreamError{
			StatusCode: http.StatusInternalServerError,
			Message:    err.Error(),
		}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{
			StatusCode: http.StatusInternalServerError,
			Message:    err.Error(),
		}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{
			StatusCode: http.StatusInternalServerError,
			Message:    fmt.Sprintf("read upstream response: %s", err),
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		log.Errorf("workspace: %s %s failed with %d: %s", method, path, resp.StatusCode, respBytes)
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(respBytes),
		}
	}

	return respBytes, nil
}

// upstreamMessage pulls the message field out of a workspace error body,
// falling back to the raw body.
func upstreamMessage(body []byte) string {
	var errBody struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errBody); err == nil && errBody.Message != "" {
		return errBody.Message
	}
	return string(body)
}
