package studyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"studyhall/internal/services"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	requestIDHeader    = "X-Request-ID"
	maxErrorBody       = 64 << 10
	maxResponseBody    = 32 << 20
)

// Config captures the runtime settings required to talk to the backend.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client wraps the study backend REST API.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	userAgent  string
	maxBody    int64
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(agent)
	}
}

// WithMaxResponseBody caps how many bytes of a successful response are read.
func WithMaxResponseBody(limit int64) Option {
	return func(c *Client) {
		if limit > 0 {
			c.maxBody = limit
		}
	}
}

// New constructs a client for the backend at cfg.BaseURL.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must use http or https", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	client := &Client{
		baseURL:    base,
		token:      strings.TrimSpace(cfg.Token),
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "studyhall",
		maxBody:    maxResponseBody,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() *url.URL {
	clone := *c.baseURL
	return &clone
}

// Token returns the bearer token sent with requests.
func (c *Client) Token() string {
	return c.token
}

// HasToken reports whether a bearer token is configured.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// envelope is the response shape shared by every endpoint.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, 0, len(segments))
	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(segment))
	}
	return c.baseURL.JoinPath(escaped...).String()
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set(requestIDHeader, id)
	}
	return req, nil
}

// doJSON issues a request with an optional JSON body and decodes the data
// field of the envelope into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, op, method, endpoint string, payload any, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return Wrap(ErrRejected, op, "encode request", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, method, endpoint, body, contentType)
	if err != nil {
		return Wrap(ErrTransport, op, "build request", err)
	}
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Wrap(ErrTransport, op, fmt.Sprintf("%s %s", req.Method, req.URL.Path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(raw, resp.StatusCode)}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return Wrap(ErrTransport, op, "read response", err)
	}
	if int64(len(raw)) > c.maxBody {
		return Wrap(ErrRejected, op, fmt.Sprintf("response exceeds %d bytes", c.maxBody), nil)
	}
	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return Wrap(ErrRejected, op, "decode response", err)
		}
	}
	if env.Success != nil && !*env.Success {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(raw, resp.StatusCode)}
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return Wrap(ErrRejected, op, "response carried no data", nil)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return Wrap(ErrRejected, op, "decode response data", err)
	}
	return nil
}

// errorMessage extracts the human readable message from an error payload,
// preferring "message" and falling back to "error".
func errorMessage(raw []byte, status int) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if msg := strings.TrimSpace(env.Message); msg != "" {
			return msg
		}
		if len(env.Error) > 0 {
			var text string
			if err := json.Unmarshal(env.Error, &text); err == nil && strings.TrimSpace(text) != "" {
				return strings.TrimSpace(text)
			}
			var nested struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(env.Error, &nested); err == nil && strings.TrimSpace(nested.Message) != "" {
				return strings.TrimSpace(nested.Message)
			}
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && len(text) < 200 && !strings.HasPrefix(text, "{") {
		return text
	}
	return strings.ToLower(http.StatusText(status))
}

// Health checks that the backend answers its liveness check.
func (c *Client) Health(ctx context.Context) error {
	const op = "health"
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint("healthz"), nil, "")
	if err != nil {
		return Wrap(ErrTransport, op, "build request", err)
	}
	return c.do(op, req, nil)
}
