// Package dotmailer is a client for the dotMailer (dotdigital) SOAP API v1:
// address books, contacts, bulk imports and campaigns.
//
// Every remote operation is one method on Client. Caller input is validated
// before anything is sent; validation failures are returned as the Err* kinds
// in this package. Remote failures are returned as *soap.Fault, and the most
// recent failure is also available from LastError, LastFault and IsError.
package dotmailer

import (
	"context"
	"errors"
	"sync"

	"github.com/natserract/dotmailer/pkg/config"
	httpclient "github.com/natserract/dotmailer/pkg/http"
	"github.com/natserract/dotmailer/pkg/soap"
	"go.uber.org/zap"
)

const (
	// DefaultEndpoint is the dotMailer SOAP endpoint.
	DefaultEndpoint = config.DefaultEndpoint
	// Namespace qualifies every operation and its SOAPAction.
	Namespace = "http://apiconnector.com"
)

// Client is the main client for interacting with the dotMailer API
type Client struct {
	username   string
	password   string
	endpoint   string
	transport  soap.Transport
	httpClient *httpclient.Client
	logger     *zap.Logger

	mu      sync.RWMutex
	lastErr error
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used by the client and its default transport.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTransport replaces the SOAP transport.
func WithTransport(t soap.Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithEndpoint points the default transport at another URL.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.endpoint = url
		}
	}
}

// WithHTTPClient sets the HTTP client used by the default transport.
func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for the given API user. It fails only when both
// credentials are empty; wrong credentials surface on the first call.
func New(username, password string, opts ...Option) (*Client, error) {
	if username == "" && password == "" {
		return nil, ErrCredentialsMissing
	}

	c := &Client{
		username: username,
		password: password,
		endpoint: DefaultEndpoint,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger, _ = zap.NewProduction()
	}
	if c.transport == nil {
		if c.httpClient == nil {
			c.httpClient = httpclient.NewClientWithLogger(c.logger)
		}
		c.transport = soap.NewHTTPTransport(c.endpoint, Namespace, c.httpClient, c.logger)
	}

	return c, nil
}

// NewFromConfig creates a client from loaded configuration.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	hc := httpclient.NewClientWithLogger(logger,
		httpclient.WithTimeout(cfg.HTTPTimeout),
		httpclient.WithMaxTries(cfg.HTTPMaxTries),
	)
	return New(cfg.Username, cfg.Password,
		WithLogger(logger),
		WithEndpoint(cfg.Endpoint),
		WithHTTPClient(hc),
	)
}

// Call invokes a remote operation with the account credentials prepended to
// params. It is the single path every operation takes: the last-error slot is
// cleared first and set again if the transport fails. There is no retry.
func (c *Client) Call(ctx context.Context, operation string, params soap.Params) (*soap.Response, error) {
	full := make(soap.Params, 0, len(params)+2)
	full = append(full,
		soap.Param{Name: "username", Value: c.username},
		soap.Param{Name: "password", Value: c.password},
	)
	full = append(full, params...)
	return c.invoke(ctx, operation, full)
}

func (c *Client) invoke(ctx context.Context, operation string, params soap.Params) (*soap.Response, error) {
	c.setLastError(nil)

	c.logger.Debug("Calling dotMailer operation", zap.String("operation", operation))
	resp, err := c.transport.Invoke(ctx, operation, params)
	if err != nil {
		c.setLastError(err)
		if fault, ok := AsFault(err); ok {
			c.logger.Error("dotMailer operation faulted",
				zap.String("operation", operation),
				zap.String("fault_code", fault.Code),
				zap.String("fault_string", fault.String))
		} else {
			c.logger.Error("dotMailer operation failed",
				zap.String("operation", operation),
				zap.Error(err))
		}
		return nil, err
	}

	return resp, nil
}

func (c *Client) setLastError(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

// LastError returns the failure of the most recent call, or nil.
func (c *Client) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// LastFault returns the remote fault of the most recent call, or nil when it
// succeeded or failed for another reason.
func (c *Client) LastFault() *soap.Fault {
	fault, _ := AsFault(c.LastError())
	return fault
}

// IsError reports whether the most recent call failed.
func (c *Client) IsError() bool {
	return c.LastError() != nil
}

// LastRequest returns the raw envelope of the last call when the transport
// records it.
func (c *Client) LastRequest() []byte {
	if r, ok := c.transport.(soap.Recorder); ok {
		return r.LastRequest()
	}
	return nil
}

// LastResponse returns the raw body of the last call when the transport
// records it.
func (c *Client) LastResponse() []byte {
	if r, ok := c.transport.(soap.Recorder); ok {
		return r.LastResponse()
	}
	return nil
}

// decode unmarshals the element at path, mapping a missing element to
// ErrMissingResult.
func decode(resp *soap.Response, v any, path ...string) error {
	if err := resp.Decode(v, path...); err != nil {
		if errors.Is(err, soap.ErrElementNotFound) {
			return errors.Join(ErrMissingResult, err)
		}
		return err
	}
	return nil
}
