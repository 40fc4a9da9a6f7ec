package ports

import "context"

// ChatModel is the minimal contract the extract step needs from a model
// provider: one prompt in, one completion out. Provider clients (rate
// limiting, auth, base URLs) are injected into steps at construction.
type ChatModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Fetcher retrieves a page. Implementations decide the transport: plain
// HTTP, a headless browser, or a recorded fixture in tests.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// Page is a fetched document plus transport metadata.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	HTML       string
}
