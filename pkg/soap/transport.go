package soap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	httpclient "github.com/natserract/dotmailer/pkg/http"
	"github.com/natserract/dotmailer/pkg/version"
	"go.uber.org/zap"
)

// Transport performs one remote call. Faults are reported as *Fault errors.
type Transport interface {
	Invoke(ctx context.Context, operation string, params Params) (*Response, error)
}

// Recorder is implemented by transports that keep the last raw exchange.
type Recorder interface {
	LastRequest() []byte
	LastResponse() []byte
}

// HTTPTransport posts SOAP 1.1 envelopes to a single endpoint.
type HTTPTransport struct {
	endpoint   string
	namespace  string
	httpClient *httpclient.Client
	logger     *zap.Logger

	mu           sync.RWMutex
	lastRequest  []byte
	lastResponse []byte
}

// NewHTTPTransport creates a transport bound to endpoint; operations are
// qualified with namespace.
func NewHTTPTransport(endpoint, namespace string, httpClient *httpclient.Client, logger *zap.Logger) *HTTPTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = httpclient.NewClientWithLogger(logger)
	}
	return &HTTPTransport{
		endpoint:   endpoint,
		namespace:  namespace,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (t *HTTPTransport) Invoke(ctx context.Context, operation string, params Params) (*Response, error) {
	doc, err := BuildEnvelope(t.namespace, operation, params)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s envelope: %w", operation, err)
	}
	payload, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s envelope: %w", operation, err)
	}

	headers := map[string]string{
		"Content-Type": "text/xml; charset=utf-8",
		"SOAPAction":   fmt.Sprintf("%q", t.namespace+"/"+operation),
		"User-Agent":   version.UserAgent(),
	}

	t.mu.Lock()
	t.lastRequest = payload
	t.lastResponse = nil
	t.mu.Unlock()

	t.logger.Debug("Invoking SOAP operation",
		zap.String("operation", operation),
		zap.String("endpoint", t.endpoint))

	resp, err := t.httpClient.Post(ctx, t.endpoint, headers, payload)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", operation, err)
	}

	t.mu.Lock()
	t.lastResponse = resp.Body
	t.mu.Unlock()

	result, err := ParseResponse(operation, resp.Body)
	if err != nil {
		var fault *Fault
		if errors.As(err, &fault) {
			fault.StatusCode = resp.StatusCode
			return nil, fault
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
		}
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	return result, nil
}

func (t *HTTPTransport) LastRequest() []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastRequest
}

func (t *HTTPTransport) LastResponse() []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastResponse
}
