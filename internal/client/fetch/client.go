package fetch

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	http_transport "github.com/oshokin/ml-pipeline/internal/transport/http"
	"github.com/oshokin/ml-pipeline/internal/utils"
)

// Client retrieves remote resources.
type Client interface {
	// Fetch issues a GET request and returns the open response body with its metadata.
	// The caller must close Result.Body.
	Fetch(ctx context.Context, url string) (*Result, error)
}

// Result is a successful response to Fetch.
type Result struct {
	// Body streams the response content.
	Body io.ReadCloser
	// ContentLength is the advertised length, or -1 when unknown.
	ContentLength int64
	// Header holds the response headers.
	Header http.Header
}

// Options configures a ClientImpl.
type Options struct {
	// Timeout bounds the whole transfer, including reading the body. Zero means no limit.
	Timeout time.Duration
	// UserAgent overrides the default versioned User-Agent.
	UserAgent string
	// Transport is the innermost round tripper. Nil uses http.DefaultTransport.
	Transport http.RoundTripper
}

// ClientImpl implements Client over net/http.
type ClientImpl struct {
	httpClient *http.Client
}

// Static error definitions for better error handling.
var (
	// ErrUnexpectedHTTPStatus indicates an unexpected HTTP status code was received.
	ErrUnexpectedHTTPStatus = errors.New("unexpected HTTP status")
)

// NewClient creates a Client with the transport chain applied.
func NewClient(opts Options) Client {
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	httpClient := &http.Client{
		Transport: http_transport.NewUserAgentInjector(
			http_transport.NewLogTransport(transport, 0),
			utils.NewStaticUserAgentProvider(opts.UserAgent)),
		Timeout: opts.Timeout,
	}

	return &ClientImpl{httpClient: httpClient}
}

// Fetch issues a GET request for url. Any status other than 200 OK is an error.
func (c *ClientImpl) Fetch(ctx context.Context, url string) (*Result, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		response.Body.Close() //nolint:errcheck,gosec // Error on close is not critical here.

		return nil, fmt.Errorf("%w: %d", ErrUnexpectedHTTPStatus, response.StatusCode)
	}

	return &Result{
		Body:          response.Body,
		ContentLength: response.ContentLength,
		Header:        response.Header,
	}, nil
}
