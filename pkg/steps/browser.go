package steps

import (
	"context"
	"net/http"

	"github.com/aretw0/gleaner/pkg/domain"
	"github.com/aretw0/gleaner/pkg/ports"
	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages in headless Chrome before capturing the DOM,
// for sites that assemble their content with JavaScript. It implements
// ports.Fetcher, so a FetchStep can use it interchangeably with the plain
// HTTP fetcher.
type BrowserFetcher struct {
	waitSelector string
	execFlags    []chromedp.ExecAllocatorOption
}

// BrowserOption configures the browser fetcher.
type BrowserOption func(*BrowserFetcher)

// WithWaitSelector blocks the capture until the selector is ready,
// typically the application root (e.g. "#root" or "body").
func WithWaitSelector(sel string) BrowserOption {
	return func(f *BrowserFetcher) { f.waitSelector = sel }
}

// WithExecFlags appends extra Chrome allocator flags.
func WithExecFlags(flags ...chromedp.ExecAllocatorOption) BrowserOption {
	return func(f *BrowserFetcher) { f.execFlags = append(f.execFlags, flags...) }
}

// NewBrowserFetcher creates a headless-Chrome fetcher.
func NewBrowserFetcher(opts ...BrowserOption) *BrowserFetcher {
	f := &BrowserFetcher{
		waitSelector: "body",
		execFlags: append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
		),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch navigates to the URL, waits for the configured selector, and
// captures the rendered DOM. Browser failures (crashed target, navigation
// error) are Transient: a fresh browser context often succeeds.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*ports.Page, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, f.execFlags...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var html, finalURL string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(f.waitSelector, chromedp.ByQuery),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.Transientf("browser fetch %s: %v", url, err)
	}

	// Chrome does not expose the HTTP status of the main document through
	// this path; a rendered DOM implies a served page.
	return &ports.Page{
		URL:        url,
		FinalURL:   finalURL,
		StatusCode: http.StatusOK,
		HTML:       html,
	}, nil
}

var _ ports.Fetcher = (*BrowserFetcher)(nil)
var _ ports.Fetcher = (*HTTPFetcher)(nil)
