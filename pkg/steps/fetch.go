package steps

import (
	"context"
	"net/http"
	"time"

	"github.com/aretw0/gleaner/pkg/domain"
	"github.com/aretw0/gleaner/pkg/ports"
	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "gleaner/1.0 (+https://github.com/aretw0/gleaner)"

// HTTPFetcher retrieves pages over plain HTTP. It performs exactly one
// request per Fetch call; retries are the executor's job.
type HTTPFetcher struct {
	client    *resty.Client
	userAgent string
}

// FetcherOption configures the HTTP fetcher.
type FetcherOption func(*HTTPFetcher)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) { f.userAgent = ua }
}

// WithHTTPClient swaps the underlying resty client, e.g. to add a proxy.
func WithHTTPClient(client *resty.Client) FetcherOption {
	return func(f *HTTPFetcher) { f.client = client }
}

// NewHTTPFetcher creates a fetcher with sane defaults.
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    resty.New().SetTimeout(60 * time.Second),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a GET and classifies the outcome: transport errors and
// 5xx/429 are Transient, other non-2xx are Fatal (the page will not get
// better by asking again).
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*ports.Page, error) {
	response, err := f.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", f.userAgent).
		Get(url)
	if err != nil {
		return nil, domain.Transientf("fetch %s: %v", url, err)
	}

	code := response.StatusCode()
	switch {
	case code >= 200 && code < 300:
	case code == http.StatusTooManyRequests || code >= 500:
		return nil, domain.Transientf("fetch %s: HTTP %d", url, code)
	default:
		return nil, domain.Fatalf("fetch %s: HTTP %d", url, code)
	}

	return &ports.Page{
		URL:        url,
		FinalURL:   response.RawResponse.Request.URL.String(),
		StatusCode: code,
		HTML:       string(response.Body()),
	}, nil
}

// FetchStep loads the page at the state's "url" key and merges the raw
// document into the state.
type FetchStep struct {
	base
	fetcher ports.Fetcher
}

// NewFetch creates a fetch step backed by the given fetcher. Defaults:
// 30s timeout, 2 retries.
func NewFetch(id string, fetcher ports.Fetcher, opts ...Option) *FetchStep {
	return &FetchStep{
		base: newBase(id, domain.StepPolicy{
			Timeout:    30 * time.Second,
			MaxRetries: 2,
		}, opts),
		fetcher: fetcher,
	}
}

func (s *FetchStep) Execute(ctx context.Context, state domain.State) (domain.State, error) {
	url := state.String(KeyURL)
	if url == "" {
		return nil, domain.Fatalf("fetch: state has no %q key", KeyURL)
	}

	page, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	return domain.State{
		KeyRawHTML:    page.HTML,
		KeyStatusCode: page.StatusCode,
		KeyFinalURL:   page.FinalURL,
	}, nil
}
