package cryptofeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ratesgen/internal/provider"
)

var errEmptyURL = errors.New("cryptofeed: empty url")

// maxBody caps the CSV download.
const maxBody = 8 << 20

// FetchUSD downloads the feed and parses it.
func (c *Client) FetchUSD(ctx context.Context) ([]provider.USDQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusNotFound:
		return nil, fmt.Errorf("feed not found: %s", c.url)

	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited")

	default:
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return Parse(strings.ToValidUTF8(string(b), "�"))
}
