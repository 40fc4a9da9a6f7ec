package steps

import (
	"time"

	"github.com/aretw0/gleaner/pkg/domain"
)

// Well-known state keys shared between the shipped steps.
const (
	// KeyURL is the page to fetch; usually seeded in the initial state.
	KeyURL = "url"

	// Fetch outputs.
	KeyRawHTML    = "raw_html"
	KeyStatusCode = "status_code"
	KeyFinalURL   = "final_url"

	// Parse outputs.
	KeyTitle    = "title"
	KeyText     = "text"
	KeyLinks    = "links"
	KeyHasTable = "has_table"
	KeyHasList  = "has_list"

	// Extract outputs.
	KeyExtracted  = "extracted"
	KeyExtractRaw = "extract_raw"

	// Validate output.
	KeyValidated = "validated"
)

// base carries the identity and policy shared by all shipped steps.
type base struct {
	id     string
	policy domain.StepPolicy
}

func (b *base) ID() string                { return b.id }
func (b *base) Policy() domain.StepPolicy { return b.policy }

// Option overrides a step's default timeout/retry policy.
type Option func(*base)

// WithTimeout bounds each attempt of the step.
func WithTimeout(d time.Duration) Option {
	return func(b *base) { b.policy.Timeout = d }
}

// WithMaxRetries sets how many times a Transient failure is retried.
func WithMaxRetries(n int) Option {
	return func(b *base) { b.policy.MaxRetries = n }
}

// WithClassifier overrides the default failure taxonomy for the step.
func WithClassifier(fn func(error) domain.FailureClass) Option {
	return func(b *base) { b.policy.Classify = fn }
}

func newBase(id string, defaults domain.StepPolicy, opts []Option) base {
	b := base{id: id, policy: defaults}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}
