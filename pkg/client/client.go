package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Request headers attached to every call.
const (
	HeaderDeviceID  = "X-Device-ID"
	HeaderPushToken = "X-FCM-TOKEN"
)

// Client is the visitor-management API client.
//
// The bearer token is held in memory only. SetToken and Token are the single
// setter/getter pair for it; the session controller is the only writer.
type Client struct {
	baseURL    string
	deviceID   string
	httpClient *http.Client
	logger     *slog.Logger
	debug      bool

	mu        sync.RWMutex
	token     string
	pushToken string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger. When debug is true every request and response is logged.
func WithLogger(l *slog.Logger, debug bool) Option {
	return func(c *Client) {
		c.logger = l
		c.debug = debug
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a new API client. baseURL includes the versioned path, e.g.
// https://example.com/api/v1.
func New(baseURL, deviceID string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		deviceID: deviceID,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken sets the bearer token; an empty token removes the Authorization header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetPushToken sets the push token sent in the X-FCM-TOKEN header.
func (c *Client) SetPushToken(token string) {
	c.mu.Lock()
	c.pushToken = token
	c.mu.Unlock()
}

// PushToken returns the push token sent with requests.
func (c *Client) PushToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pushToken
}

// DeviceID returns the device identifier sent with every request.
func (c *Client) DeviceID() string {
	return c.deviceID
}

// envelope is the standard response wrapper {success, code, message, data}.
type envelope struct {
	Success *bool           `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ok reports the envelope's success flag; a missing flag on a 2xx response counts as success.
func (e envelope) ok() bool {
	return e.Success == nil || *e.Success
}

// unwrap returns the "data" member of an enveloped body, or the body itself.
func unwrap(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return trimmed
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return trimmed
	}
	return env.Data
}

func (c *Client) get(ctx context.Context, path string, hdr http.Header, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, hdr, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, hdr http.Header, out any) error {
	var reqBody io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, contentType, reqBody, hdr, out)
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader, hdr http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.deviceID != "" {
		req.Header.Set(HeaderDeviceID, c.deviceID)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if push := c.PushToken(); push != "" {
		req.Header.Set(HeaderPushToken, push)
	}

	if c.debug {
		c.logger.Debug("api request", "method", method, "url", req.URL.String())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.debug {
			c.logger.Debug("api error", "method", method, "url", req.URL.String(), "err", err)
		}
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max body
	if err != nil {
		if resp.StatusCode >= 400 {
			c.logger.Debug("api error body unreadable", "status", resp.StatusCode, "err", err)
			return &HTTPError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("read response: %w", err)
	}

	if c.debug {
		c.logger.Debug("api response", "method", method, "url", req.URL.String(),
			"status", resp.StatusCode, "body", truncate(string(respBody), 512))
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && (apiErr.Message != "" || apiErr.Error != "" || apiErr.Code != "") {
			msg := apiErr.Message
			if msg == "" {
				msg = apiErr.Error
			}
			return &HTTPError{StatusCode: resp.StatusCode, Code: apiErr.Code, Message: msg}
		}
		// Unstructured bodies (proxy error pages) never reach the user; the
		// debug log above has them.
		return &HTTPError{StatusCode: resp.StatusCode}
	}

	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if raw, ok := out.(*json.RawMessage); ok {
			*raw = append((*raw)[:0], respBody...)
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
