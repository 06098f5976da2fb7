// Package executor talks to the remote code-execution service that runs
// user code and reports the resulting scene.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"compasview/internal/apiclient"
	"compasview/internal/scene"
)

type Client struct {
	api    *apiclient.Client
	logger *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("executor")
	return &Client{
		api:    apiclient.New(baseURL, timeout, logger),
		logger: logger,
	}
}

func (c *Client) BaseURL() string {
	return c.api.BaseURL()
}

// Result is the reply to one code submission.
type Result struct {
	Success bool
	Output  string
	// Value is the string form of the evaluated expression, empty when the
	// code was a statement or evaluated to None.
	Value   string
	Stderr  string
	Message string
	// Objects is the complete current scene, normalized.
	Objects []scene.Descriptor
}

type executeResponse struct {
	Success  bool              `json:"success"`
	Result   *string           `json:"result"`
	Output   string            `json:"output"`
	Error    string            `json:"error"`
	Message  string            `json:"message"`
	Geometry []json.RawMessage `json:"geometry"`
}

// Execute submits code. A reply with success=false is returned together
// with an *apiclient.ApplicationError; a failed round trip yields a
// *apiclient.TransportError.
func (c *Client) Execute(ctx context.Context, code string) (Result, error) {
	var response executeResponse
	payload := map[string]any{"code": code}
	if err := c.api.DoJSON(ctx, "execute", http.MethodPost, "/api/execute", nil, payload, &response); err != nil {
		return Result{}, err
	}
	result := Result{
		Success: response.Success,
		Output:  response.Output,
		Stderr:  response.Error,
		Message: response.Message,
		Objects: NormalizeAll(response.Geometry),
	}
	if response.Result != nil && *response.Result != "None" {
		result.Value = *response.Result
	}
	if !response.Success {
		msg := nullCoalesce(response.Message, nullCoalesce(response.Error, "execution failed"))
		c.logger.Debug("execute rejected", zap.String("message", msg))
		return result, &apiclient.ApplicationError{Op: "execute", Message: strings.TrimSpace(msg)}
	}
	c.logger.Debug("execute ok",
		zap.Int("objects", len(result.Objects)),
		zap.Int("output_bytes", len(result.Output)))
	return result, nil
}

// Geometry fetches the server's current scene.
func (c *Client) Geometry(ctx context.Context) ([]scene.Descriptor, error) {
	var response struct {
		Objects []json.RawMessage `json:"objects"`
	}
	if err := c.api.DoJSON(ctx, "geometry", http.MethodGet, "/api/geometry", nil, nil, &response); err != nil {
		return nil, err
	}
	return NormalizeAll(response.Objects), nil
}

type statusResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Clear empties the server-side scene but keeps user variables.
func (c *Client) Clear(ctx context.Context) (string, error) {
	return c.postStatus(ctx, "clear", "/api/clear")
}

// Reset empties the scene and forgets user variables.
func (c *Client) Reset(ctx context.Context) (string, error) {
	return c.postStatus(ctx, "reset", "/api/reset")
}

func (c *Client) postStatus(ctx context.Context, op string, path string) (string, error) {
	var response statusResponse
	if err := c.api.DoJSON(ctx, op, http.MethodPost, path, nil, map[string]any{}, &response); err != nil {
		return "", err
	}
	if !response.Success {
		return "", &apiclient.ApplicationError{Op: op, Message: nullCoalesce(response.Message, op+" failed")}
	}
	return response.Message, nil
}

// Health returns the server's greeting when it reports status ok.
func (c *Client) Health(ctx context.Context) (string, error) {
	var response statusResponse
	if err := c.api.DoJSON(ctx, "health", http.MethodGet, "/api/health", nil, nil, &response); err != nil {
		return "", err
	}
	if strings.TrimSpace(strings.ToLower(response.Status)) != "ok" {
		return "", &apiclient.ApplicationError{Op: "health", Message: fmt.Sprintf("server status %q", response.Status)}
	}
	return response.Message, nil
}

func nullCoalesce(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
