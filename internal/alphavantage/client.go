// Package alphavantage is a client for the Alpha Vantage stock time series API.
package alphavantage

import (
	"net/http"
)

// DefaultBaseURL is where New points the client. Only its scheme and host
// are used; every request goes to the /query path.
const DefaultBaseURL = "https://alphavantage.co/query"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=alphavantage_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the Alpha Vantage API. It holds only immutable
// configuration and is safe for concurrent use.
type Client struct {
	// apiKey is sent as the apikey query parameter.
	apiKey string
	// baseURL supplies the scheme, host and any fixed query parameters.
	baseURL string
	// httpClient performs the requests.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
}

// Option is a configuration option for the Alpha Vantage client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// New creates a client bound to DefaultBaseURL. It does no I/O and no
// validation; a bad key surfaces as an APIError on the first call.
func New(apiKey string, options ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// NewWithURL creates a client that targets baseURL, typically a local test
// server. The URL is not checked until the first call.
func NewWithURL(apiKey, baseURL string, options ...Option) *Client {
	return New(apiKey, append([]Option{WithBaseURL(baseURL)}, options...)...)
}
