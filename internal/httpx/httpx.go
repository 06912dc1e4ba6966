package httpx

import (
    "context"
    "fmt"
    "io"
    "net"
    "net/http"
    "strings"
    "time"
)

// BrowserUserAgent is sent to upstreams that serve reduced pages to bots.
const BrowserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// maxBody caps how much of a response body is read.
const maxBody = 4 << 20

// Client is a small wrapper around http.Client with sane defaults.
type Client struct {
    HTTP      *http.Client
    UserAgent string
    Headers   map[string]string
}

func New(timeout time.Duration) *Client {
    transport := &http.Transport{
        Proxy: http.ProxyFromEnvironment,
        DialContext: (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
        MaxIdleConns:          10,
        MaxIdleConnsPerHost:   2,
        ForceAttemptHTTP2:     true,
        IdleConnTimeout:       90 * time.Second,
        TLSHandshakeTimeout:   5 * time.Second,
        ExpectContinueTimeout: 1 * time.Second,
        ResponseHeaderTimeout: 10 * time.Second,
    }
    return &Client{HTTP: &http.Client{Timeout: timeout, Transport: transport}, UserAgent: "ratesgen/1.0"}
}

func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
    if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
        req.Header.Set("User-Agent", c.UserAgent)
    }
    for k, v := range c.Headers {
        if req.Header.Get(k) == "" {
            req.Header.Set(k, v)
        }
    }
    return c.HTTP.Do(req.WithContext(ctx))
}

// GetText fetches url and returns the body as text. Non-2xx responses are
// errors carrying a short body snippet.
func (c *Client) GetText(ctx context.Context, url string, headers map[string]string) (string, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
    if err != nil {
        return "", fmt.Errorf("creating request: %w", err)
    }
    for k, v := range headers {
        req.Header.Set(k, v)
    }
    resp, err := c.Do(ctx, req)
    if err != nil {
        return "", fmt.Errorf("performing request: %w", err)
    }
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
        return "", fmt.Errorf("GET %s -> %d: %s", url, resp.StatusCode, strings.TrimSpace(string(b)))
    }
    b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
    if err != nil {
        return "", fmt.Errorf("reading body: %w", err)
    }
    return strings.ToValidUTF8(string(b), "�"), nil
}
