// Package board scrapes the HTML price board. A plain HTTP fetch is tried
// first; when it fails or the page looks unrendered, the same URL is handed
// to a Renderer (a scriptable browser) and parsed the same way.
package board

import (
    "context"
    "errors"
    "fmt"
    "io"
    "time"

    "github.com/sirupsen/logrus"

    "ratesgen/internal/httpx"
    "ratesgen/internal/provider"
)

// ErrNoData is returned when neither transport produced a usable page.
// Callers keep their previous prices.
var ErrNoData = errors.New("board: no data collected")

// Renderer loads url in a browser, waits until waitSelector matches (or
// timeout passes) and returns the rendered HTML.
//
//go:generate mockgen -package=board_test -destination=mock_renderer_test.go -source=board.go Renderer
type Renderer interface {
    Render(ctx context.Context, url, waitSelector string, timeout time.Duration) (string, error)
}

type Config struct {
    Name string
    URL  string
    // MinItems is the yield below which an HTTP-fetched page is presumed
    // unrendered (JS-gated or blocked).
    MinItems int
    Headers  map[string]string
    // RenderWaitSelector and RenderTimeout bound the browser fallback.
    RenderWaitSelector string
    RenderTimeout      time.Duration
}

type Fetcher struct {
    cfg    Config
    client *httpx.Client
    render Renderer
    log    logrus.FieldLogger
}

// New builds a Fetcher. A nil render disables the browser fallback.
func New(cfg Config, hc *httpx.Client, render Renderer, log logrus.FieldLogger) *Fetcher {
    if cfg.Name == "" { cfg.Name = "bonbast" }
    if cfg.URL == "" { cfg.URL = "https://bonbast.com/" }
    if cfg.MinItems <= 0 { cfg.MinItems = 15 }
    if cfg.Headers == nil {
        cfg.Headers = map[string]string{
            "User-Agent":      httpx.BrowserUserAgent,
            "Accept-Language": "en-US,en;q=0.9,fa;q=0.8",
        }
    }
    if cfg.RenderWaitSelector == "" { cfg.RenderWaitSelector = "table" }
    if cfg.RenderTimeout <= 0 { cfg.RenderTimeout = 12 * time.Second }
    if log == nil {
        l := logrus.New()
        l.SetOutput(io.Discard)
        log = l
    }
    return &Fetcher{cfg: cfg, client: hc, render: render, log: log.WithField("source", cfg.Name)}
}

func (f *Fetcher) Name() string { return f.cfg.Name }

// FetchPrices returns the parsed board. On total failure it returns an empty
// slice together with an error wrapping ErrNoData.
func (f *Fetcher) FetchPrices(ctx context.Context) ([]provider.PriceQuote, error) {
    quotes, err := f.fetchHTTP(ctx)
    switch {
    case err != nil:
        f.log.WithError(err).Warn("http fetch failed, trying render fallback")
    case len(quotes) >= f.cfg.MinItems:
        f.log.WithField("items", len(quotes)).Info("http fetch ok")
        return quotes, nil
    default:
        f.log.WithField("items", len(quotes)).Warnf("http parse returned fewer than %d items, trying render fallback", f.cfg.MinItems)
        err = fmt.Errorf("http yielded %d items", len(quotes))
    }

    if f.render == nil {
        return nil, fmt.Errorf("%w: %v; render fallback disabled", ErrNoData, err)
    }
    rendered, rerr := f.fetchRendered(ctx)
    if rerr != nil {
        f.log.WithError(rerr).Warn("render fallback failed")
        return nil, fmt.Errorf("%w: %v; render: %v", ErrNoData, err, rerr)
    }
    f.log.WithField("items", len(rendered)).Info("render fallback ok")
    return rendered, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context) ([]provider.PriceQuote, error) {
    if f.client == nil {
        return nil, errors.New("no http client")
    }
    page, err := f.client.GetText(ctx, f.cfg.URL, f.cfg.Headers)
    if err != nil {
        return nil, err
    }
    return Parse(page)
}

func (f *Fetcher) fetchRendered(ctx context.Context) ([]provider.PriceQuote, error) {
    page, err := f.render.Render(ctx, f.cfg.URL, f.cfg.RenderWaitSelector, f.cfg.RenderTimeout)
    if err != nil {
        return nil, err
    }
    return Parse(page)
}
