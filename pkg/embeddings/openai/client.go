// Package openai provides an embeddings client for OpenAI-compatible APIs.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultModel is the default embedding model
	DefaultModel = "text-embedding-3-small"

	// DefaultMaxRetries is the default number of retries
	DefaultMaxRetries = 5

	// DefaultBaseDelay is the base delay for exponential backoff
	DefaultBaseDelay = 200 * time.Millisecond

	// DefaultMaxDelay is the maximum delay for exponential backoff
	DefaultMaxDelay = 10 * time.Second

	// DefaultTimeout is the default HTTP timeout
	DefaultTimeout = 30 * time.Second

	// DefaultBatchSize is the maximum batch size per request
	DefaultBatchSize = 100

	// DefaultRequestsPerMinute caps outbound request rate
	DefaultRequestsPerMinute = 300
)

// Config holds the configuration for the client
type Config struct {
	BaseURL           string
	APIKey            string
	Model             string
	Dimension         int
	Timeout           time.Duration
	RequestsPerMinute int
	BatchSize         int
}

// Client is an embeddings client for OpenAI-compatible endpoints
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	batchSize  int
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger

	// Retry configuration
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithMaxRetries sets the maximum number of retries
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithBaseDelay sets the base delay for exponential backoff
func WithBaseDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.baseDelay = d
	}
}

// WithLogger sets the logger
func WithLogger(log *slog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a new embeddings client
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		batchSize: cfg.BatchSize,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1),
		log:        slog.Default(),
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		maxDelay:   DefaultMaxDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type embedRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embedResponse struct {
	Data []embedDatum `json:"data"`
}

type embedDatum struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

// EmbedQuery generates an embedding for a single query
func (c *Client) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := c.EmbedDocuments(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vecs[0], nil
}

// EmbedDocuments generates embeddings for multiple documents, batching
// requests and preserving document order.
func (c *Client) EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error) {
	if len(documents) == 0 {
		return [][]float32{}, nil
	}

	var all [][]float32
	for i := 0; i < len(documents); i += c.batchSize {
		end := i + c.batchSize
		if end > len(documents) {
			end = len(documents)
		}

		vecs, err := c.embedBatch(ctx, documents[i:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch %d-%d: %w", i, end, err)
		}
		all = append(all, vecs...)
	}

	return all, nil
}

func (c *Client) embedBatch(ctx context.Context, documents []string) ([][]float32, error) {
	reqBody := embedRequest{
		Model:      c.model,
		Input:      documents,
		Dimensions: c.dimension,
	}
	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp *embedResponse
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			c.log.Debug("retrying embedding request",
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, lastErr = c.doRequest(ctx, reqBytes)
		if lastErr == nil {
			break
		}

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// Client errors other than rate limiting won't succeed on retry
		var rerr *retryableError
		if !errors.As(lastErr, &rerr) {
			return nil, lastErr
		}

		c.log.Warn("embedding request failed",
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()),
		)
	}

	if lastErr != nil {
		return nil, fmt.Errorf("all retries exhausted: %w", lastErr)
	}

	if len(resp.Data) != len(documents) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(documents), len(resp.Data))
	}

	// The API may return data out of order; index is authoritative.
	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	vecs := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vecs[i] = d.Embedding
	}

	return vecs, nil
}

func (c *Client) doRequest(ctx context.Context, body []byte) (*embedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusServiceUnavailable ||
			resp.StatusCode >= 500 {
			return nil, &retryableError{
				statusCode: resp.StatusCode,
				body:       string(respBody),
			}
		}
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	var result embedResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &result, nil
}

// calculateBackoff calculates the backoff delay for a given attempt
func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.baseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.maxDelay) {
		delay = float64(c.maxDelay)
	}
	return time.Duration(delay)
}

// retryableError is an error that can be retried
type retryableError struct {
	statusCode int
	body       string
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("retryable API error %d: %s", e.statusCode, e.body)
}
