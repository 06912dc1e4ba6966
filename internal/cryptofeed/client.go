package cryptofeed

import (
	"net/http"
)

// DefaultURL is the published snapshot of the crypto market table.
const DefaultURL = "https://raw.githubusercontent.com/michaelvincentsebastian/" +
	"Automated-Crypto-Market-Insights/refs/heads/main/latest-data/latest_data.csv"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=cryptofeed_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client downloads and parses the crypto CSV feed.
type Client struct {
	// url is the CSV location.
	url string
	// name is reported by Name.
	name string
	// httpClient is the HTTP client.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
}

// ClientOption is a configuration option for the feed client.
type ClientOption func(*Client)

// WithURL sets the CSV location.
func WithURL(url string) ClientOption {
	return func(c *Client) {
		c.url = url
	}
}

// WithName overrides the source name used in logs.
func WithName(name string) ClientOption {
	return func(c *Client) {
		c.name = name
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			c.header.Del(key)
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a new feed client.
func NewClient(options ...ClientOption) (*Client, error) {
	var client = &Client{
		url:        DefaultURL,
		name:       "crypto-csv",
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	client.header.Set("User-Agent", "Mozilla/5.0")
	client.header.Set("Accept", "text/csv,*/*;q=0.8")
	for _, option := range options {
		option(client)
	}
	if client.url == "" {
		return nil, errEmptyURL
	}
	return client, nil
}

// Name returns the source name.
func (c *Client) Name() string { return c.name }
