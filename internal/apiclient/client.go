// Package apiclient is the JSON-over-HTTP plumbing shared by the executor
// and remote storage adapters.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultTimeout = 30 * time.Second

type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// DoJSON sends body as JSON and decodes a 2xx reply into out. Every failure
// is returned as a *TransportError.
func (c *Client) DoJSON(ctx context.Context, op string, method string, path string, query map[string]string, body any, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	parsed, err := url.Parse(c.baseURL + path)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if len(query) > 0 {
		values := parsed.Query()
		for key, value := range query {
			values.Set(key, value)
		}
		parsed.RawQuery = values.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(encoded)
	}
	request, err := http.NewRequestWithContext(ctx, method, parsed.String(), reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Warn("request failed", zap.String("op", op), zap.Error(err))
		return &TransportError{Op: op, Err: err}
	}
	defer response.Body.Close()
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		c.logger.Debug("request rejected", zap.String("op", op), zap.Int("status", response.StatusCode))
		return &TransportError{Op: op, Status: response.StatusCode, Err: DecodeRemoteError(payload)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// DecodeRemoteError extracts the server's detail message from an error body.
func DecodeRemoteError(payload []byte) error {
	var wrapper struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &wrapper); err == nil {
		if detail, ok := wrapper.Detail.(string); ok && strings.TrimSpace(detail) != "" {
			return errors.New(strings.TrimSpace(detail))
		}
		if strings.TrimSpace(wrapper.Message) != "" {
			return errors.New(strings.TrimSpace(wrapper.Message))
		}
	}
	text := strings.TrimSpace(string(payload))
	if text == "" {
		text = "empty response"
	}
	return errors.New(text)
}
