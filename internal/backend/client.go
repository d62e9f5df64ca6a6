// Package backend is the HTTP client for the remote REST API. Every response
// envelope ({statusCode, result, message}) is unwrapped here so callers only
// see a decoded value or an error.
package backend

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
)

const DefaultTimeout = 10 * time.Second

// Observer receives one call per completed backend request.
type Observer interface {
	ObserveBackendCall(method, resource string, status int, duration time.Duration)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	observer   Observer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// New returns a client for baseURL. A zero timeout means DefaultTimeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Result     json.RawMessage `json:"result"`
	Message    string          `json:"message"`
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) Post(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, query, body, out)
}

func (c *Client) Put(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, query, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, "", nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}
	return c.do(ctx, method, path, query, reader, "application/json", out)
}

// do sends the request and unwraps the envelope into out. When out is nil the
// call succeeds without a result.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	endpoint := c.endpoint(path, query)

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", method, path, err)
	}

	if sized, ok := body.(interface{ Size() int64 }); ok {
		req.ContentLength = sized.Size()
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reqID := RequestIDFromContext(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, path, 0, time.Since(started))
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return fmt.Errorf("%s %s: %w", method, path, ctxErr)
		}
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	c.observe(method, path, resp.StatusCode, time.Since(started))

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s %s response: %v", ErrTransport, method, path, err)
	}

	return decode(resp.StatusCode, payload, out)
}

func decode(httpStatus int, payload []byte, out any) error {
	success := httpStatus >= 200 && httpStatus < 300

	if len(bytes.TrimSpace(payload)) == 0 {
		if !success {
			return &APIError{StatusCode: httpStatus}
		}
		if out != nil {
			return &APIError{StatusCode: httpStatus, emptyResult: true}
		}
		return nil
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		if !success {
			return &APIError{StatusCode: httpStatus, Message: strings.TrimSpace(string(payload))}
		}
		return fmt.Errorf("decode response envelope: %w", err)
	}

	code := env.StatusCode
	if code == 0 {
		code = httpStatus
	}

	if !success {
		return &APIError{StatusCode: httpStatus, Message: env.Message}
	}
	if code != http.StatusOK && code != http.StatusCreated {
		return &APIError{StatusCode: code, Message: env.Message}
	}

	if out == nil {
		return nil
	}

	if len(env.Result) == 0 || string(env.Result) == "null" {
		return &APIError{StatusCode: code, Message: env.Message, emptyResult: true}
	}

	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode response result: %w", err)
	}

	return nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint
}

func (c *Client) observe(method, path string, status int, d time.Duration) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveBackendCall(method, resourceOf(path), status, d)
}

// resourceOf keeps only the first path segment so metric labels stay bounded.
func resourceOf(path string) string {
	path = strings.TrimLeft(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}
