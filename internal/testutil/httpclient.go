package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
)

// HTTPClient drives an in-process http.Handler for handler-level tests,
// without opening a listener.
type HTTPClient struct {
	handler http.Handler
}

// NewHTTPClient wraps a handler (typically a *echo.Echo) in a test client.
func NewHTTPClient(handler http.Handler) *HTTPClient {
	return &HTTPClient{handler: handler}
}

// HTTPResponse is the recorded result of a test request.
type HTTPResponse struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// JSON unmarshals the response body into v.
func (r *HTTPResponse) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("unmarshal response body %q: %w", string(r.Body), err)
	}
	return nil
}

// String returns the response body as a string.
func (r *HTTPResponse) String() string {
	return string(r.Body)
}

// RequestOption mutates an outgoing test request.
type RequestOption func(*http.Request)

// WithJSONBody sets a JSON-encoded request body and content type.
func WithJSONBody(v any) RequestOption {
	return func(req *http.Request) {
		data, err := json.Marshal(v)
		if err != nil {
			panic(fmt.Sprintf("testutil: marshal request body: %v", err))
		}
		req.Body = io.NopCloser(bytes.NewReader(data))
		req.ContentLength = int64(len(data))
		req.Header.Set("Content-Type", "application/json")
	}
}

// WithAuth sets a bearer Authorization header.
func WithAuth(token string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set("Authorization", AuthHeader(token))
	}
}

// WithHeader sets an arbitrary request header.
func WithHeader(key, value string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

// Request performs a request against the wrapped handler.
func (c *HTTPClient) Request(method, path string, opts ...RequestOption) *HTTPResponse {
	req := httptest.NewRequest(method, path, nil)
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	return &HTTPResponse{
		StatusCode: rec.Code,
		Body:       rec.Body.Bytes(),
		Headers:    rec.Header(),
	}
}

// GET performs a GET request.
func (c *HTTPClient) GET(path string, opts ...RequestOption) *HTTPResponse {
	return c.Request(http.MethodGet, path, opts...)
}

// POST performs a POST request.
func (c *HTTPClient) POST(path string, opts ...RequestOption) *HTTPResponse {
	return c.Request(http.MethodPost, path, opts...)
}

// PATCH performs a PATCH request.
func (c *HTTPClient) PATCH(path string, opts ...RequestOption) *HTTPResponse {
	return c.Request(http.MethodPatch, path, opts...)
}

// PUT performs a PUT request.
func (c *HTTPClient) PUT(path string, opts ...RequestOption) *HTTPResponse {
	return c.Request(http.MethodPut, path, opts...)
}

// DELETE performs a DELETE request.
func (c *HTTPClient) DELETE(path string, opts ...RequestOption) *HTTPResponse {
	return c.Request(http.MethodDelete, path, opts...)
}
