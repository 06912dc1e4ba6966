// Package chromerender renders pages in headless Chrome through the DevTools
// protocol. It backs the price board's fallback path when the plain HTTP page
// comes back unrendered.
package chromerender

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultUserAgent mirrors a current desktop Chrome.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"

type Options struct {
	// ExecPath points at a Chrome/Chromium binary; empty lets chromedp search PATH.
	ExecPath  string
	UserAgent string
}

// Renderer starts a fresh browser per Render call. The fallback runs at most
// once per batch, so there is no pool to keep warm.
type Renderer struct {
	opts Options
}

func New(opts Options) *Renderer {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Renderer{opts: opts}
}

func (r *Renderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	o := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	o = append(o,
		chromedp.Headless,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(r.opts.UserAgent),
	)
	if r.opts.ExecPath != "" {
		o = append(o, chromedp.ExecPath(r.opts.ExecPath))
	}
	return o
}

// Render navigates to url, waits until waitSelector is present and returns
// the document's outer HTML. Not finding the selector within timeout is an
// error.
func (r *Renderer) Render(ctx context.Context, url, waitSelector string, timeout time.Duration) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// Browser startup counts against the budget too; give it the same slack
	// on top of the wait.
	runCtx, cancel := context.WithTimeout(browserCtx, 2*timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}

	waitCtx, cancelWait := context.WithTimeout(runCtx, timeout)
	defer cancelWait()
	if err := chromedp.Run(waitCtx, chromedp.WaitReady(waitSelector, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("waiting for %q: %w", waitSelector, err)
	}

	var page string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &page, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading document: %w", err)
	}
	return page, nil
}
