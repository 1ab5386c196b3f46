package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultMaxTries = 1
)

type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
	maxTries   uint
}

type RequestOptions struct {
	Method          string
	URL             string
	Headers         map[string]string
	Body            []byte
	Context         context.Context
	MaxTries        uint
	MaxElapsed      time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout of the underlying net/http client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMaxTries sets how many attempts a request gets. One attempt means no retries.
func WithMaxTries(n uint) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTries = n
		}
	}
}

func NewClient(opts ...Option) *Client {
	logger, _ := zap.NewProduction()
	return NewClientWithLogger(logger, opts...)
}

// NewClientWithLogger creates a new HTTP client with a custom logger
func NewClientWithLogger(logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:   logger,
		maxTries: DefaultMaxTries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends the request and returns the response for every status code the
// server answers with. Only network errors and gateway statuses (502, 503, 504)
// are retried, and only when more than one attempt is configured; when the
// last attempt still gets a gateway status, that response is returned.
func (c *Client) Do(opts RequestOptions) (*Response, error) {
	if opts.MaxTries == 0 {
		opts.MaxTries = c.maxTries
	}
	if opts.MaxElapsed == 0 {
		opts.MaxElapsed = 5 * time.Minute
	}
	if opts.InitialInterval == 0 {
		opts.InitialInterval = 100 * time.Millisecond
	}
	if opts.MaxInterval == 0 {
		opts.MaxInterval = 30 * time.Second
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = opts.InitialInterval
	expBackoff.MaxInterval = opts.MaxInterval
	expBackoff.Reset()

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	// lastGateway is the gateway response of the latest attempt, handed back
	// once the attempts run out so callers can read its body.
	var lastGateway *Response

	operation := func() (*Response, error) {
		lastGateway = nil

		req, err := c.buildRequest(ctx, opts)
		if err != nil {
			c.logger.Error("Failed to build request", zap.Error(err), zap.String("method", opts.Method), zap.String("url", opts.URL))
			return nil, backoff.Permanent(err)
		}

		c.logger.Debug("Making HTTP request",
			zap.String("method", opts.Method),
			zap.String("url", opts.URL))

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			c.logger.Warn("HTTP request failed",
				zap.Error(err),
				zap.String("method", opts.Method),
				zap.String("url", opts.URL))
			return nil, err
		}
		defer httpResp.Body.Close()

		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			c.logger.Error("Failed to read response body", zap.Error(err))
			return nil, backoff.Permanent(fmt.Errorf("failed to read response body: %w", err))
		}

		if isGatewayStatus(httpResp.StatusCode) {
			c.logger.Warn("Gateway error",
				zap.Int("status_code", httpResp.StatusCode),
				zap.String("method", opts.Method),
				zap.String("url", opts.URL))
			lastGateway = &Response{
				StatusCode: httpResp.StatusCode,
				Headers:    httpResp.Header,
				Body:       body,
			}
			return nil, fmt.Errorf("server error: %d - %s", httpResp.StatusCode, string(body))
		}

		return &Response{
			StatusCode: httpResp.StatusCode,
			Headers:    httpResp.Header,
			Body:       body,
		}, nil
	}

	retryOpts := []backoff.RetryOption{
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxElapsedTime(opts.MaxElapsed),
		backoff.WithMaxTries(opts.MaxTries),
	}

	resp, err := backoff.Retry(ctx, operation, retryOpts...)
	if err != nil && lastGateway != nil && ctx.Err() == nil {
		c.logger.Warn("Retries exhausted, returning gateway response",
			zap.Int("status_code", lastGateway.StatusCode),
			zap.Uint("max_tries", opts.MaxTries),
			zap.String("method", opts.Method),
			zap.String("url", opts.URL))
		return lastGateway, nil
	}
	if err != nil {
		c.logger.Error("HTTP request failed",
			zap.Error(err),
			zap.Uint("max_tries", opts.MaxTries),
			zap.String("method", opts.Method),
			zap.String("url", opts.URL))
		return nil, err
	}

	c.logger.Debug("HTTP request completed",
		zap.Int("status_code", resp.StatusCode),
		zap.String("method", opts.Method),
		zap.String("url", opts.URL))

	return resp, nil
}

func (c *Client) buildRequest(ctx context.Context, opts RequestOptions) (*http.Request, error) {
	var bodyReader io.Reader
	if opts.Body != nil {
		bodyReader = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, opts.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

func (c *Client) Post(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error) {
	return c.Do(RequestOptions{
		Method:  http.MethodPost,
		URL:     url,
		Headers: headers,
		Body:    body,
		Context: ctx,
	})
}

func isGatewayStatus(code int) bool {
	return code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable ||
		code == http.StatusGatewayTimeout
}
